package maintenance

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/osano12/TIPE/internal/state"
)

// DefaultAllowedCIDRs restricts the console to the robot itself.
var DefaultAllowedCIDRs = []string{"127.0.0.0/8", "::1/128"}

// Server handles maintenance TCP connections
type Server struct {
	addr              string
	state             *state.ConfigState
	logger            hclog.Logger
	allowed           []*net.IPNet
	listener          net.Listener
	listenerMu        sync.Mutex
	ready             chan struct{}
	stopChan          chan struct{}
	stopOnce          sync.Once
	connectionTimeout time.Duration
}

// Request represents a JSON-RPC request over TCP
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  []string    `json:"params,omitempty"`
	ID      interface{} `json:"id"`
}

// Response represents a JSON-RPC response over TCP
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// MarshalJSON always writes result on success.
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

// NewServer creates a maintenance server listening on addr. Connections from
// outside allowedCIDRs are dropped; an empty list means DefaultAllowedCIDRs.
func NewServer(addr string, allowedCIDRs []string, configState *state.ConfigState, logger hclog.Logger) (*Server, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if len(allowedCIDRs) == 0 {
		allowedCIDRs = DefaultAllowedCIDRs
	}

	allowed := make([]*net.IPNet, 0, len(allowedCIDRs))
	for _, cidr := range allowedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
		}
		allowed = append(allowed, network)
	}

	return &Server{
		addr:              addr,
		state:             configState,
		logger:            logger,
		allowed:           allowed,
		ready:             make(chan struct{}),
		stopChan:          make(chan struct{}),
		connectionTimeout: 30 * time.Second,
	}, nil
}

// ListenAndServe starts the maintenance TCP server
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Close.
func (s *Server) Serve(listener net.Listener) error {
	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()
	close(s.ready)

	s.logger.Info("maintenance server listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("failed to accept connection", "error", err)
			continue
		}

		if !s.isAllowedConnection(conn) {
			s.logger.Warn("rejected connection outside allowed CIDRs", "client", conn.RemoteAddr().String())
			conn.Close()
			continue
		}

		go s.handleConnection(conn)
	}
}

// Addr returns the listening address once serving has started.
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	return s.listener.Addr()
}

// handleConnection serves a single request on conn
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(s.connectionTimeout))

	var req Request
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&req); err != nil {
		s.logger.Warn("failed to decode maintenance request", "error", err)
		s.writeErrorResponse(conn, -32700, "Parse error", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.writeErrorResponse(conn, -32600, "Invalid Request", req.ID)
		return
	}

	response := s.processMaintenanceRequest(&req)

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		s.logger.Warn("failed to encode maintenance response", "error", err)
		return
	}

	s.logger.Info("maintenance command processed", "method", req.Method, "client", conn.RemoteAddr().String())
}

// processMaintenanceRequest runs save, reload or factory_reset
func (s *Server) processMaintenanceRequest(req *Request) *Response {
	var steps []string

	switch req.Method {
	case "save":
		steps = []string{state.CmdSave}
	case "reload":
		steps = []string{state.CmdReload}
	case "factory_reset":
		steps = []string{state.CmdReset, state.CmdSave}
	default:
		return &Response{
			JSONRPC: "2.0",
			Error:   errorObject(-32601, "Method not found"),
			ID:      req.ID,
		}
	}

	var cmdResponse state.CommandResponse
	for _, step := range steps {
		cmdResponse = s.state.ExecuteCommand(step, nil)
		if cmdResponse.Error != "" {
			return &Response{
				JSONRPC: "2.0",
				Error:   errorObject(-32000, cmdResponse.Error),
				ID:      req.ID,
			}
		}
	}

	return &Response{
		JSONRPC: "2.0",
		Result:  cmdResponse.Result,
		ID:      req.ID,
	}
}

// isAllowedConnection checks if the connection is from an allowed CIDR
func (s *Server) isAllowedConnection(conn net.Conn) bool {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return false
	}

	clientIP := net.ParseIP(host)
	if clientIP == nil {
		return false
	}

	for _, network := range s.allowed {
		if network.Contains(clientIP) {
			return true
		}
	}
	return false
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(conn net.Conn, code int, message string, id interface{}) {
	response := &Response{
		JSONRPC: "2.0",
		Error:   errorObject(code, message),
		ID:      id,
	}

	encoder := json.NewEncoder(conn)
	encoder.Encode(response)
}

func errorObject(code int, message string) map[string]interface{} {
	return map[string]interface{}{
		"code":    code,
		"message": message,
	}
}

// Close shuts down the maintenance server
func (s *Server) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })

	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
