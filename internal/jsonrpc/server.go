package jsonrpc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/osano12/TIPE/internal/state"
)

// Path is where the tuning API is mounted.
const Path = "/config_api"

// JSON-RPC 2.0 error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
)

// Server handles JSON-RPC HTTP requests against the configuration
type Server struct {
	state  *state.ConfigState
	logger hclog.Logger
}

// Request represents a JSON-RPC 2.0 request
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  []string    `json:"params,omitempty"`
	ID      interface{} `json:"id"`
}

// Response represents a JSON-RPC 2.0 response
type Response struct {
	JSONRPC string         `json:"jsonrpc"`
	Result  interface{}    `json:"result,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
	ID      interface{}    `json:"id"`
}

// MarshalJSON always writes result on success, so a null configuration
// value still yields a valid response.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		type failure Response
		return json.Marshal(failure(r))
	}
	return json.Marshal(struct {
		JSONRPC string      `json:"jsonrpc"`
		Result  interface{} `json:"result"`
		ID      interface{} `json:"id"`
	}{r.JSONRPC, r.Result, r.ID})
}

// ErrorResponse represents a JSON-RPC 2.0 error object
type ErrorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewServer creates a new JSON-RPC server
func NewServer(configState *state.ConfigState, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		state:  configState,
		logger: logger,
	}
}

// Handler returns a mux with the API mounted at Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.HandleRequest)
	return mux
}

// HandleRequest handles HTTP POST requests to Path
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("failed to decode JSON-RPC request", "error", err)
		s.writeResponse(w, &Response{
			JSONRPC: "2.0",
			Error:   &ErrorResponse{Code: CodeParseError, Message: "Parse error"},
		})
		return
	}

	response := s.processRequest(&req)
	s.writeResponse(w, response)

	s.logger.Info("JSON-RPC request processed", "method", req.Method, "duration", time.Since(start))
}

// processRequest runs a decoded request through the state worker
func (s *Server) processRequest(req *Request) *Response {
	if req.JSONRPC != "2.0" {
		return &Response{
			JSONRPC: "2.0",
			Error:   &ErrorResponse{Code: CodeInvalidRequest, Message: "Invalid Request"},
			ID:      req.ID,
		}
	}

	m, rpcErr := lookupMethod(req.Method, req.Params)
	if rpcErr != nil {
		return &Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID}
	}

	cmdResponse := s.state.ExecuteCommand(m.command, req.Params)
	if cmdResponse.Error != "" {
		return &Response{
			JSONRPC: "2.0",
			Error: &ErrorResponse{
				Code:    CodeServerError,
				Message: cmdResponse.Error,
			},
			ID: req.ID,
		}
	}
	return &Response{
		JSONRPC: "2.0",
		Result:  cmdResponse.Result,
		ID:      req.ID,
	}
}

func (s *Server) writeResponse(w http.ResponseWriter, response *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("failed to encode JSON-RPC response", "error", err)
	}
}
