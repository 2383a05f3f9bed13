package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/osano12/TIPE/internal/config"
)

// ConfigState owns a configuration store and runs every command against it
// on a single worker goroutine, in FIFO order.
type ConfigState struct {
	store        *config.Store
	logger       hclog.Logger
	commandQueue chan Command
	stopChan     chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup  // For graceful shutdown
	ctx          context.Context // For cancellation
	cancel       context.CancelFunc
	queueTimeout time.Duration
	replyTimeout time.Duration
}

// Command is a request to be processed by the worker
type Command struct {
	Type      string
	Params    []string
	Response  chan CommandResponse
	Timestamp time.Time
}

// CommandResponse is the worker's answer to a Command
type CommandResponse struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Command types
const (
	CmdGet      = "get"
	CmdSet      = "set"
	CmdSave     = "save"
	CmdReload   = "reload"
	CmdReset    = "reset"
	CmdDump     = "dump"
	CmdDefaults = "defaults"
	CmdSettings = "settings"
)

// Error codes
const (
	ErrNotFound      = "NOT_FOUND"
	ErrInvalidParams = "INVALID_PARAMS"
	ErrInvalidPath   = "INVALID_PATH"
	ErrIO            = "IO_ERROR"
	ErrInternal      = "INTERNAL"
	ErrBusy          = "BUSY"
	ErrUnavailable   = "UNAVAILABLE"
)

// NewConfigState starts the worker for store.
func NewConfigState(store *config.Store, logger hclog.Logger) *ConfigState {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	cs := &ConfigState{
		store:        store,
		logger:       logger,
		commandQueue: make(chan Command, 100),
		stopChan:     make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		queueTimeout: 5 * time.Second,
		replyTimeout: 30 * time.Second,
	}

	cs.wg.Add(1)
	go cs.commandWorker()

	return cs
}

// commandWorker processes commands in FIFO order
func (cs *ConfigState) commandWorker() {
	defer cs.wg.Done()

	for {
		select {
		case cmd := <-cs.commandQueue:
			cs.processCommand(cmd)
		case <-cs.stopChan:
			return
		case <-cs.ctx.Done():
			return
		}
	}
}

func (cs *ConfigState) processCommand(cmd Command) {
	switch cmd.Type {
	case CmdGet:
		cs.handleGet(cmd)
	case CmdSet:
		cs.handleSet(cmd)
	case CmdSave:
		cs.handleSave(cmd)
	case CmdReload:
		cs.store.Reload()
		cmd.Response <- CommandResponse{Result: config.Plain(cs.store.Snapshot())}
	case CmdReset:
		cs.store.Reset()
		cmd.Response <- CommandResponse{Result: config.Plain(cs.store.Snapshot())}
	case CmdDump:
		cmd.Response <- CommandResponse{Result: config.Plain(cs.store.Snapshot())}
	case CmdDefaults:
		cmd.Response <- CommandResponse{Result: config.Plain(cs.store.Defaults())}
	case CmdSettings:
		cmd.Response <- CommandResponse{Result: cs.store.Settings()}
	default:
		cmd.Response <- CommandResponse{Error: ErrInternal}
	}
}

// handleGet answers with the plain value at params[0]
func (cs *ConfigState) handleGet(cmd Command) {
	if len(cmd.Params) != 1 {
		cmd.Response <- CommandResponse{Error: ErrInvalidParams}
		return
	}

	v, ok := cs.store.Lookup(cmd.Params[0])
	if !ok {
		cmd.Response <- CommandResponse{Error: ErrNotFound}
		return
	}
	cmd.Response <- CommandResponse{Result: config.Plain(v)}
}

// handleSet parses params[1] as YAML and stores it at params[0]
func (cs *ConfigState) handleSet(cmd Command) {
	if len(cmd.Params) != 2 {
		cmd.Response <- CommandResponse{Error: ErrInvalidParams}
		return
	}

	value, err := config.ParseValue(cmd.Params[1])
	if err != nil {
		cs.logger.Warn("rejected configuration value", "key", cmd.Params[0], "error", err)
		cmd.Response <- CommandResponse{Error: ErrInvalidParams}
		return
	}

	if err := cs.store.Set(cmd.Params[0], value); err != nil {
		code := ErrInternal
		if errors.Is(err, config.ErrPathTraversal) {
			code = ErrInvalidPath
		}
		cmd.Response <- CommandResponse{Error: code}
		return
	}
	cmd.Response <- CommandResponse{Result: "ok"}
}

func (cs *ConfigState) handleSave(cmd Command) {
	if err := cs.store.Save(); err != nil {
		cmd.Response <- CommandResponse{Error: ErrIO}
		return
	}
	cmd.Response <- CommandResponse{Result: cs.store.Path()}
}

// ExecuteCommand queues a command and waits for its response
func (cs *ConfigState) ExecuteCommand(cmdType string, params []string) CommandResponse {
	response := make(chan CommandResponse, 1)
	cmd := Command{
		Type:      cmdType,
		Params:    params,
		Response:  response,
		Timestamp: time.Now(),
	}

	select {
	case cs.commandQueue <- cmd:
		select {
		case resp := <-response:
			return resp
		case <-time.After(cs.replyTimeout):
			return CommandResponse{Error: ErrInternal}
		case <-cs.ctx.Done():
			return CommandResponse{Error: ErrUnavailable}
		}
	case <-time.After(cs.queueTimeout):
		// queue full
		return CommandResponse{Error: ErrBusy}
	case <-cs.ctx.Done():
		return CommandResponse{Error: ErrUnavailable}
	}
}

// Close stops the worker. Commands still queued are dropped.
func (cs *ConfigState) Close() error {
	cs.closeOnce.Do(func() {
		cs.cancel()
		close(cs.stopChan)
	})

	done := make(chan struct{})
	go func() {
		cs.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("shutdown timeout")
	}
}
