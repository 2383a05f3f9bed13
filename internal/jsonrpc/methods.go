package jsonrpc

import (
	"sort"

	"github.com/osano12/TIPE/internal/state"
)

// method describes how a JSON-RPC method maps onto a state command
type method struct {
	command string
	params  int // exact number of params accepted
}

var methods = map[string]method{
	"get":      {command: state.CmdGet, params: 1},
	"set":      {command: state.CmdSet, params: 2},
	"save":     {command: state.CmdSave},
	"reload":   {command: state.CmdReload},
	"reset":    {command: state.CmdReset},
	"dump":     {command: state.CmdDump},
	"defaults": {command: state.CmdDefaults},
	"settings": {command: state.CmdSettings},
}

// Methods returns the supported method names in sorted order.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupMethod validates a request against the method table
func lookupMethod(name string, params []string) (method, *ErrorResponse) {
	m, ok := methods[name]
	if !ok {
		return method{}, &ErrorResponse{Code: CodeMethodNotFound, Message: "Method not found"}
	}
	if len(params) != m.params {
		return method{}, &ErrorResponse{Code: CodeInvalidParams, Message: "Invalid params"}
	}
	return m, nil
}
