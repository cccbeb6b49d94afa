package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/outpost-rts/outpost/internal/core/observability/log"
	"github.com/outpost-rts/outpost/internal/core/sim"
)

// Config holds spectator server configuration
type Config struct {
	// Network settings
	ListenAddr string
	MaxClients int

	// Stream settings
	StreamInterval time.Duration
	WriteTimeout   time.Duration

	// Logging
	LogLevel log.Level
}

// DefaultConfig returns default spectator server configuration
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		MaxClients:     64,
		StreamInterval: 250 * time.Millisecond,
		WriteTimeout:   5 * time.Second,
		LogLevel:       log.LevelInfo,
	}
}

// Spectator streams read-only world snapshots over websockets. It never
// issues commands and never touches the engine beyond Snapshot and a few
// counters, so it cannot block the simulation thread for longer than a
// snapshot copy.
type Spectator struct {
	engine *sim.Engine
	config Config
	logger log.Log

	upgrader websocket.Upgrader
	httpSrv  *http.Server

	// Client management
	clients     sync.Map // map[*websocket.Conn]bool
	clientCount int64    // atomic

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	workerGroup sync.WaitGroup
	stopChan    chan struct{}
}

// NewSpectator creates a spectator server bound to an engine.
func NewSpectator(engine *sim.Engine, config Config, logger log.Log) (*Spectator, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrInvalidConfig)
	}
	if config.StreamInterval <= 0 || config.MaxClients <= 0 {
		return nil, ErrInvalidConfig
	}
	if logger == nil {
		logger = log.New(config.LogLevel)
	}

	s := &Spectator{
		engine: engine,
		config: config,
		logger: logger.With(log.String("component", "spectator")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		stopChan: make(chan struct{}),
	}

	s.logger.Info("Spectator server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_clients", config.MaxClients))

	return s, nil
}

// Start starts the server
func (s *Spectator) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/stats", s.handleStats)

	s.httpSrv = &http.Server{
		Addr:    s.config.ListenAddr,
		Handler: mux,
	}

	s.workerGroup.Add(1)
	go func() {
		defer s.workerGroup.Done()
		s.broadcaster()
	}()

	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Spectator listener failed", log.Error(err))
		}
	}()

	s.logger.Info("Spectator server started", log.String("addr", s.config.ListenAddr))
	return nil
}

// Stop stops the server and disconnects all spectators
func (s *Spectator) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping spectator server")
	close(s.stopChan)

	if s.httpSrv != nil {
		_ = s.httpSrv.Shutdown(ctx)
	}

	s.clients.Range(func(key, _ interface{}) bool {
		conn := key.(*websocket.Conn)
		_ = conn.Close()
		return true
	})

	s.workerGroup.Wait()
	s.logger.Info("Spectator server stopped")
	return nil
}

// Close closes the server and releases all resources
func (s *Spectator) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 1 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}
	return nil
}

// ClientCount returns the number of connected spectators.
func (s *Spectator) ClientCount() int64 {
	return atomic.LoadInt64(&s.clientCount)
}

func (s *Spectator) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if int(atomic.LoadInt64(&s.clientCount)) >= s.config.MaxClients {
		s.logger.Warn("Maximum spectators reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", log.Error(err))
		return
	}

	s.clients.Store(conn, true)
	total := atomic.AddInt64(&s.clientCount, 1)

	s.logger.Info("Spectator connected",
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_clients", total))

	go s.readLoop(conn)
}

// readLoop drains incoming frames so pings are answered and closes are
// noticed. Spectators have no command surface; payloads are discarded.
func (s *Spectator) readLoop(conn *websocket.Conn) {
	defer func() {
		s.clients.Delete(conn)
		total := atomic.AddInt64(&s.clientCount, -1)
		_ = conn.Close()
		s.logger.Info("Spectator disconnected",
			log.String("remote_addr", conn.RemoteAddr().String()),
			log.Int64("total_clients", total))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// broadcaster pushes the latest snapshot to every spectator on a fixed
// interval. One marshal per interval, shared across clients.
func (s *Spectator) broadcaster() {
	ticker := time.NewTicker(s.config.StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			snap := s.engine.Snapshot()
			if snap == nil {
				continue
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				s.logger.Error("Failed to marshal snapshot", log.Error(err))
				continue
			}
			s.clients.Range(func(key, _ interface{}) bool {
				conn := key.(*websocket.Conn)
				_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					// readLoop cleans up bookkeeping once the close
					// propagates.
					_ = conn.Close()
				}
				return true
			})
		}
	}
}

func (s *Spectator) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Snapshot()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("Failed to encode snapshot", log.Error(err))
	}
}

func (s *Spectator) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := struct {
		Tick       uint64 `json:"tick"`
		Paused     bool   `json:"paused"`
		Spectators int64  `json:"spectators"`
	}{
		Tick:       s.engine.Tick(),
		Paused:     s.engine.Paused(),
		Spectators: atomic.LoadInt64(&s.clientCount),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.logger.Error("Failed to encode stats", log.Error(err))
	}
}
