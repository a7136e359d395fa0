package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/rrtile/internal/daemon"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing       CommandType = "PING"
	CommandReload     CommandType = "RELOAD"
	CommandGetStatus  CommandType = "GET_STATUS"
	CommandGetOutputs CommandType = "GET_OUTPUTS"
	CommandRescan     CommandType = "RESCAN"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	daemon.Status
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// OutputsData represents the data returned by GET_OUTPUTS
type OutputsData struct {
	ScreenWidth  int                   `json:"screen_width"`
	ScreenHeight int                   `json:"screen_height"`
	Outputs      []daemon.OutputStatus `json:"outputs"`
}

// RescanPayload represents the payload for RESCAN. Force applies the
// resolved configuration even when it matches the hardware.
type RescanPayload struct {
	Force bool `json:"force,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
