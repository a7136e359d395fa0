package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/rrtile/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    15 * time.Second,
	}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.sendRequest(&Request{Command: CommandPing})
	return err
}

// Reload asks the daemon to re-read its configuration and rescan.
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// GetOutputs retrieves the resolved outputs.
func (c *Client) GetOutputs() (*OutputsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetOutputs})
	if err != nil {
		return nil, err
	}
	return parseOutputs(resp)
}

// Rescan runs a resolution pass in the daemon and returns the result.
func (c *Client) Rescan(force bool) (*OutputsData, error) {
	payload, err := json.Marshal(RescanPayload{Force: force})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rescan payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandRescan, Payload: payload})
	if err != nil {
		return nil, err
	}
	return parseOutputs(resp)
}

func parseOutputs(resp *Response) (*OutputsData, error) {
	var data OutputsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse outputs data: %w", err)
	}
	return &data, nil
}
