package jsonrpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/osano12/TIPE/internal/config"
	"github.com/osano12/TIPE/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cs := state.NewConfigState(config.NewStore(path), nil)
	t.Cleanup(func() { cs.Close() })
	return NewServer(cs, nil), path
}

func call(t *testing.T, server *Server, body string) Response {
	t.Helper()
	httpReq := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, httpReq)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func rpc(t *testing.T, server *Server, method string, params ...string) Response {
	t.Helper()
	reqBody, err := json.Marshal(Request{JSONRPC: "2.0", Method: method, Params: params, ID: "test-1"})
	require.NoError(t, err)
	resp := call(t, server, string(reqBody))
	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, "test-1", resp.ID)
	return resp
}

func TestServerHandleRequest(t *testing.T) {
	server, _ := createTestServer(t)

	tests := []struct {
		name           string
		method         string
		params         []string
		expectedCode   int
		expectedResult interface{}
	}{
		{"get scalar", "get", []string{"camera.framerate"}, 0, float64(30)},
		{"get pair", "get", []string{"camera.resolution"}, 0, []interface{}{float64(640), float64(480)}},
		{"get string", "get", []string{"camera.exposure"}, 0, "auto"},
		{"get missing", "get", []string{"camera.zoom"}, CodeServerError, nil},
		{"get without key", "get", nil, CodeInvalidParams, nil},
		{"set valid", "set", []string{"motor.max_speed", "45"}, 0, "ok"},
		{"set through scalar", "set", []string{"motor.max_speed.x", "1"}, CodeServerError, nil},
		{"set missing value", "set", []string{"motor.max_speed"}, CodeInvalidParams, nil},
		{"invalid method", "invalid_method", nil, CodeMethodNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := rpc(t, server, tt.method, tt.params...)
			if tt.expectedCode != 0 {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.expectedCode, resp.Error.Code)
				return
			}
			require.Nil(t, resp.Error)
			assert.Equal(t, tt.expectedResult, resp.Result)
		})
	}
}

func TestServerErrorMessages(t *testing.T) {
	server, _ := createTestServer(t)

	resp := rpc(t, server, "get", "camera.zoom")
	require.NotNil(t, resp.Error)
	assert.Equal(t, state.ErrNotFound, resp.Error.Message)

	resp = rpc(t, server, "set", "camera..zoom", "1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, state.ErrInvalidPath, resp.Error.Message)
}

func TestServerSetSaveRoundTrip(t *testing.T) {
	server, path := createTestServer(t)

	require.Nil(t, rpc(t, server, "set", "motor.max_speed", "99").Error)
	resp := rpc(t, server, "save")
	require.Nil(t, resp.Error)
	assert.Equal(t, path, resp.Result)

	assert.Equal(t, config.Int(99), config.NewStore(path).Get("motor.max_speed", nil))

	require.Nil(t, rpc(t, server, "set", "motor.max_speed", "10").Error)
	require.Nil(t, rpc(t, server, "reload").Error)
	assert.Equal(t, float64(99), rpc(t, server, "get", "motor.max_speed").Result)
}

func TestServerSnapshots(t *testing.T) {
	server, _ := createTestServer(t)
	require.Nil(t, rpc(t, server, "set", "camera.framerate", "60").Error)

	dump := rpc(t, server, "dump").Result.(map[string]interface{})
	assert.Equal(t, float64(60), dump["camera"].(map[string]interface{})["framerate"])

	defaults := rpc(t, server, "defaults").Result.(map[string]interface{})
	assert.Equal(t, float64(30), defaults["camera"].(map[string]interface{})["framerate"])

	settings := rpc(t, server, "settings").Result.(map[string]interface{})
	assert.Equal(t, float64(60), settings["camera"].(map[string]interface{})["framerate"])

	reset := rpc(t, server, "reset").Result.(map[string]interface{})
	assert.Equal(t, float64(30), reset["camera"].(map[string]interface{})["framerate"])
}

func TestServerMalformedRequests(t *testing.T) {
	server, _ := createTestServer(t)

	resp := call(t, server, "{not json")
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParseError, resp.Error.Code)

	resp = call(t, server, `{"jsonrpc":"1.0","method":"dump","id":7}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
	assert.Equal(t, float64(7), resp.ID)
}

func TestServerRejectsGet(t *testing.T) {
	server, _ := createTestServer(t)

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, Path, bytes.NewReader(nil)))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMethods(t *testing.T) {
	assert.Equal(t, []string{"defaults", "dump", "get", "reload", "reset", "save", "set", "settings"}, Methods())
}

func TestResponseMarshalNullResult(t *testing.T) {
	data, err := json.Marshal(&Response{JSONRPC: "2.0", ID: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":null,"id":1}`, string(data))

	data, err = json.Marshal(&Response{JSONRPC: "2.0", Error: &ErrorResponse{Code: CodeServerError, Message: "NOT_FOUND"}, ID: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":-32000,"message":"NOT_FOUND"},"id":1}`, string(data))
}

func TestServerGetNullValue(t *testing.T) {
	server, _ := createTestServer(t)
	require.Nil(t, rpc(t, server, "set", "camera.note", "~").Error)

	httpReq := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(`{"jsonrpc":"2.0","method":"get","params":["camera.note"],"id":2}`))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httpReq)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":null,"id":2}`, rr.Body.String())
}
