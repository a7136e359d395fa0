package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/rrtile/internal/daemon"
	"github.com/1broseidon/rrtile/internal/runtimepath"
)

// requestTimeout bounds how long a command may wait on the event loop.
const requestTimeout = 10 * time.Second

// Daemon is the part of the running daemon the server exposes.
type Daemon interface {
	Status() daemon.Status
	Rescan(ctx context.Context, force bool) error
	Reload(ctx context.Context) error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	daemon       Daemon
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on the default socket path.
func NewServer(d Daemon, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, d, logger), nil
}

// NewServerAt creates a server on socketPath.
func NewServerAt(socketPath string, d Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		daemon:     d,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "err", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "err", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "err", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "err", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandPing:
		resp, _ := NewOKResponse(nil)
		return resp
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetOutputs:
		return s.handleGetOutputs()
	case CommandRescan:
		return s.handleRescan(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	s.logger.Info("IPC: received RELOAD")

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := s.daemon.Reload(ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Status:        s.daemon.Status(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}

	resp, err := NewOKResponse(status)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetOutputs() *Response {
	st := s.daemon.Status()
	data := OutputsData{
		ScreenWidth:  st.Screen[0],
		ScreenHeight: st.Screen[1],
		Outputs:      st.Outputs,
	}

	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleRescan(payload json.RawMessage) *Response {
	var req RescanPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid rescan payload: %v", err))
		}
	}

	s.logger.Info("IPC: received RESCAN", "force", req.Force)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := s.daemon.Rescan(ctx, req.Force); err != nil {
		return NewErrorResponse(fmt.Sprintf("Rescan failed: %v", err))
	}
	return s.handleGetOutputs()
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
