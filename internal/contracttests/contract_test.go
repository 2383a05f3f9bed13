package contracttests

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/osano12/TIPE/internal/config"
	"github.com/osano12/TIPE/internal/jsonrpc"
	"github.com/osano12/TIPE/internal/maintenance"
	"github.com/osano12/TIPE/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	http        *httptest.Server
	maintenance *maintenance.Server
	path        string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cs := state.NewConfigState(config.NewStore(path), nil)
	t.Cleanup(func() { cs.Close() })

	httpServer := httptest.NewServer(jsonrpc.NewServer(cs, nil).Handler())
	t.Cleanup(httpServer.Close)

	tcpServer, err := maintenance.NewServer("127.0.0.1:0", nil, cs, nil)
	require.NoError(t, err)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go tcpServer.Serve(listener)
	t.Cleanup(func() { tcpServer.Close() })

	return &fixture{http: httpServer, maintenance: tcpServer, path: path}
}

func (f *fixture) postHTTP(t *testing.T, body string) []byte {
	t.Helper()
	resp, err := http.Post(f.http.URL+jsonrpc.Path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}

func (f *fixture) sendTCP(t *testing.T, body string) []byte {
	t.Helper()
	conn, err := net.Dial("tcp", f.maintenance.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	_, err = io.WriteString(conn, body)
	require.NoError(t, err)
	// signal the end of the request so a truncated body fails to decode
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	return bytes.TrimSpace(data)
}

func sections() []string {
	return config.DefaultValues().Keys()
}

func TestHTTPEnvelopeCompliance(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		body     string
		wantCode int // 0 for success
	}{
		{"get", `{"jsonrpc":"2.0","method":"get","params":["camera.framerate"],"id":1}`, 0},
		{"set zero", `{"jsonrpc":"2.0","method":"set","params":["motor.min_speed","0"],"id":2}`, 0},
		{"set", `{"jsonrpc":"2.0","method":"set","params":["motor.max_speed","45"],"id":"a"}`, 0},
		{"dump", `{"jsonrpc":"2.0","method":"dump","id":3}`, 0},
		{"settings", `{"jsonrpc":"2.0","method":"settings","id":4}`, 0},
		{"missing key", `{"jsonrpc":"2.0","method":"get","params":["nope"],"id":5}`, jsonrpc.CodeServerError},
		{"unknown method", `{"jsonrpc":"2.0","method":"zeroize","id":6}`, jsonrpc.CodeMethodNotFound},
		{"wrong arity", `{"jsonrpc":"2.0","method":"save","params":["x"],"id":7}`, jsonrpc.CodeInvalidParams},
		{"wrong version", `{"jsonrpc":"1.0","method":"dump","id":8}`, jsonrpc.CodeInvalidRequest},
		{"parse error", `{"jsonrpc":`, jsonrpc.CodeParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope, err := ValidateEnvelope(f.postHTTP(t, tt.body))
			require.NoError(t, err)

			if tt.wantCode == 0 {
				assert.Empty(t, envelope.Error)
				return
			}
			code, err := ErrorCode(envelope)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestHTTPSnapshotShape(t *testing.T) {
	f := newFixture(t)

	for _, method := range []string{"dump", "defaults", "reload", "reset"} {
		t.Run(method, func(t *testing.T) {
			envelope, err := ValidateEnvelope(f.postHTTP(t, `{"jsonrpc":"2.0","method":"`+method+`","id":1}`))
			require.NoError(t, err)
			assert.NoError(t, ValidateSnapshotResult(envelope.Result, sections()))
		})
	}
}

func TestTCPEnvelopeCompliance(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"save", `{"jsonrpc":"2.0","method":"save","id":1}`, 0},
		{"reload", `{"jsonrpc":"2.0","method":"reload","id":2}`, 0},
		{"factory reset", `{"jsonrpc":"2.0","method":"factory_reset","id":3}`, 0},
		{"unknown method", `{"jsonrpc":"2.0","method":"get","id":4}`, -32601},
		{"wrong version", `{"jsonrpc":"1.0","method":"save","id":5}`, -32600},
		{"parse error", `{"jsonrpc"`, -32700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope, err := ValidateEnvelope(f.sendTCP(t, tt.body))
			require.NoError(t, err)

			if tt.wantCode == 0 {
				assert.Empty(t, envelope.Error)
				return
			}
			code, err := ErrorCode(envelope)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestTuneThenFactoryReset(t *testing.T) {
	f := newFixture(t)

	_, err := ValidateEnvelope(f.postHTTP(t, `{"jsonrpc":"2.0","method":"set","params":["navigation.base_speed","12"],"id":1}`))
	require.NoError(t, err)
	_, err = ValidateEnvelope(f.postHTTP(t, `{"jsonrpc":"2.0","method":"save","id":2}`))
	require.NoError(t, err)
	assert.Equal(t, config.Int(12), config.NewStore(f.path).Get("navigation.base_speed", nil))

	_, err = ValidateEnvelope(f.sendTCP(t, `{"jsonrpc":"2.0","method":"factory_reset","id":3}`))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultValues(), config.NewStore(f.path).Snapshot())

	envelope, err := ValidateEnvelope(f.postHTTP(t, `{"jsonrpc":"2.0","method":"get","params":["navigation.base_speed"],"id":4}`))
	require.NoError(t, err)
	assert.JSONEq(t, "30", string(envelope.Result))
}

func TestNullValueKeepsResult(t *testing.T) {
	f := newFixture(t)

	_, err := ValidateEnvelope(f.postHTTP(t, `{"jsonrpc":"2.0","method":"set","params":["camera.note","~"],"id":1}`))
	require.NoError(t, err)

	data := f.postHTTP(t, `{"jsonrpc":"2.0","method":"get","params":["camera.note"],"id":2}`)
	envelope, err := ValidateEnvelope(data)
	require.NoError(t, err)
	assert.Empty(t, envelope.Error)
	assert.JSONEq(t, "null", string(envelope.Result))
	assert.Contains(t, string(data), `"result":null`)
}

func TestValidateEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{"valid result", `{"jsonrpc":"2.0","result":1,"id":1}`, false},
		{"valid error", `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found"},"id":1}`, false},
		{"null id on error", `{"jsonrpc":"2.0","error":{"code":-32700,"message":"Parse error"},"id":null}`, false},
		{"null result", `{"jsonrpc":"2.0","result":null,"id":1}`, false},
		{"null id on result", `{"jsonrpc":"2.0","result":1,"id":null}`, true},
		{"missing id", `{"jsonrpc":"2.0","result":1}`, true},
		{"wrong version", `{"jsonrpc":"1.0","result":1,"id":1}`, true},
		{"both result and error", `{"jsonrpc":"2.0","result":1,"error":{"code":1,"message":"x"},"id":1}`, true},
		{"neither", `{"jsonrpc":"2.0","id":1}`, true},
		{"string error", `{"jsonrpc":"2.0","error":"boom","id":1}`, true},
		{"error without code", `{"jsonrpc":"2.0","error":{"message":"x"},"id":1}`, true},
		{"not json", `nope`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateEnvelope([]byte(tt.json))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSnapshotResult(t *testing.T) {
	assert.NoError(t, ValidateSnapshotResult([]byte(`{"a":{"x":1},"b":{}}`), []string{"a", "b"}))
	assert.Error(t, ValidateSnapshotResult([]byte(`{"a":{"x":1}}`), []string{"a", "b"}))
	assert.Error(t, ValidateSnapshotResult([]byte(`{"a":1}`), []string{"a"}))
	assert.Error(t, ValidateSnapshotResult([]byte(`[1]`), []string{"a"}))
}
