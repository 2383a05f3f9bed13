// Package contracttests checks that the tuning API and the maintenance
// console both speak well-formed JSON-RPC 2.0.
package contracttests

import (
	"encoding/json"
	"fmt"
)

// JSONRPCEnvelope is the raw shape of a JSON-RPC 2.0 response
type JSONRPCEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// ValidateEnvelope validates JSON-RPC 2.0 response envelope compliance.
// A null id is only accepted on error responses; a null result is a valid
// success.
func ValidateEnvelope(data []byte) (*JSONRPCEnvelope, error) {
	var envelope JSONRPCEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if envelope.JSONRPC != "2.0" {
		return nil, fmt.Errorf("jsonrpc must be '2.0', got '%s'", envelope.JSONRPC)
	}

	if len(envelope.ID) == 0 {
		return nil, fmt.Errorf("id field is required")
	}

	// a present result may be null; an error may not
	hasResult := len(envelope.Result) > 0
	hasError := len(envelope.Error) > 0 && string(envelope.Error) != "null"

	if hasResult && hasError {
		return nil, fmt.Errorf("both result and error cannot be present")
	}
	if !hasResult && !hasError {
		return nil, fmt.Errorf("either result or error must be present")
	}
	if string(envelope.ID) == "null" && !hasError {
		return nil, fmt.Errorf("null id is only allowed on errors")
	}

	if hasError {
		if err := ValidateErrorResponse(envelope.Error); err != nil {
			return nil, err
		}
	}
	return &envelope, nil
}

// ValidateErrorResponse validates JSON-RPC error structure
func ValidateErrorResponse(errorData json.RawMessage) error {
	var errorObj map[string]interface{}
	if err := json.Unmarshal(errorData, &errorObj); err != nil {
		return fmt.Errorf("error must be an object: %w", err)
	}

	code, hasCode := errorObj["code"]
	if !hasCode {
		return fmt.Errorf("error object must have 'code' field")
	}

	message, hasMessage := errorObj["message"]
	if !hasMessage {
		return fmt.Errorf("error object must have 'message' field")
	}

	if _, ok := code.(float64); !ok {
		return fmt.Errorf("error code must be numeric")
	}

	if _, ok := message.(string); !ok {
		return fmt.Errorf("error message must be string")
	}

	return nil
}

// ErrorCode extracts the numeric code of an error response
func ErrorCode(envelope *JSONRPCEnvelope) (int, error) {
	var errorObj struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(envelope.Error, &errorObj); err != nil {
		return 0, fmt.Errorf("error must be an object: %w", err)
	}
	return errorObj.Code, nil
}

// ValidateSnapshotResult checks that a dump/reload/reset result is an object
// holding every section in sections.
func ValidateSnapshotResult(result json.RawMessage, sections []string) error {
	var snapshot map[string]json.RawMessage
	if err := json.Unmarshal(result, &snapshot); err != nil {
		return fmt.Errorf("result must be an object: %w", err)
	}
	for _, section := range sections {
		raw, ok := snapshot[section]
		if !ok {
			return fmt.Errorf("section %q missing from snapshot", section)
		}
		var nested map[string]interface{}
		if err := json.Unmarshal(raw, &nested); err != nil {
			return fmt.Errorf("section %q must be an object: %w", section, err)
		}
	}
	return nil
}
