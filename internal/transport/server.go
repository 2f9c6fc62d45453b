// Package transport serves the gamesync wire protocol over WebSocket
// connections, translating each connection into an identity.Endpoint the
// session coordinator can address.
//
// Shaped on ssh_server.go's Config/New.../ListenAndServe/Shutdown
// quartet wrapping a net listener, with signal.Notify driving a
// graceful shutdown from ListenAndServe itself, the coordinator started and
// stopped alongside the listener's lifecycle.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matchforge/gamesync/internal/identity"
)

// Coordinator is the subset of session.Coordinator the transport layer
// drives; declared here so this package does not import internal/session
// and create a cycle with anything session eventually needs from
// transport.
type Coordinator interface {
	Start()
	Stop()
	HandleConnect(endpoint identity.Endpoint)
	HandleDisconnect(endpoint identity.Endpoint)
	HandleInbound(endpoint identity.Endpoint, raw []byte)
}

// Config configures the WebSocket listener.
type Config struct {
	Addr        string
	IdleTimeout time.Duration
}

// DefaultConfig mirrors DefaultSSHServerConfig's shape.
func DefaultConfig() Config {
	return Config{
		Addr:        "0.0.0.0:7777",
		IdleTimeout: 5 * time.Minute,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server accepts WebSocket connections and feeds them to a Coordinator.
type Server struct {
	config      Config
	coordinator Coordinator
	logger      *log.Logger
	httpServer  *http.Server
}

// New builds a Server bound to cfg.Addr, serving the session coordinator.
func New(cfg Config, coordinator Coordinator, logger *log.Logger) *Server {
	s := &Server{
		config:      cfg,
		coordinator: coordinator,
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)

	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
	return s
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := newConn(ws, r.RemoteAddr, s.config.IdleTimeout)
	s.coordinator.HandleConnect(conn)

	go s.readPump(conn)
}

func (s *Server) readPump(conn *Conn) {
	defer func() {
		s.coordinator.HandleDisconnect(conn)
		conn.close()
	}()

	for {
		raw, err := conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("connection closed unexpectedly", "remote", conn.RemoteAddr(), "error", err)
			}
			return
		}
		s.coordinator.HandleInbound(conn, raw)
	}
}

// ListenAndServe starts the WebSocket listener and the coordinator loop,
// blocking until SIGINT/SIGTERM is received or the listener fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting session server", "address", s.config.Addr)

	s.coordinator.Start()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-done:
		s.logger.Info("shutting down...")
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the listener and the coordinator.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.coordinator.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("transport: shutdown: %w", err)
	}
	return nil
}

// Addr returns the server's configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// Conn adapts a gorilla websocket.Conn to identity.Endpoint. Gorilla
// forbids concurrent writers on one connection, so every outbound frame
// goes through writeMu.
type Conn struct {
	ws          *websocket.Conn
	remoteAddr  string
	idleTimeout time.Duration

	writeMu sync.Mutex
}

func newConn(ws *websocket.Conn, remoteAddr string, idleTimeout time.Duration) *Conn {
	return &Conn{ws: ws, remoteAddr: remoteAddr, idleTimeout: idleTimeout}
}

// Send writes one frame to the client. It satisfies identity.Endpoint.
func (c *Conn) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.idleTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.idleTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

// RemoteAddr satisfies identity.Endpoint.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

func (c *Conn) read() ([]byte, error) {
	if c.idleTimeout > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.idleTimeout))
	}
	_, raw, err := c.ws.ReadMessage()
	return raw, err
}

func (c *Conn) close() {
	_ = c.ws.Close()
}
