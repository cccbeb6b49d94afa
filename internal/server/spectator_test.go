package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/sim"
	"github.com/outpost-rts/outpost/pkg/geom"
)

func testEngine(t *testing.T) *sim.Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	e, err := sim.NewEngine(&cfg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.AddPlayer(1, "vanguard", "normal", geom.Vec2{X: 400, Y: 400}, false))
	return e
}

func testSpectator(t *testing.T, e *sim.Engine) *Spectator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StreamInterval = 20 * time.Millisecond
	s, err := NewSpectator(e, cfg, nil)
	require.NoError(t, err)
	return s
}

func TestNewSpectator(t *testing.T) {
	t.Run("Rejects Nil Engine", func(t *testing.T) {
		_, err := NewSpectator(nil, DefaultConfig(), nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("Rejects Bad Limits", func(t *testing.T) {
		e := testEngine(t)
		cfg := DefaultConfig()
		cfg.MaxClients = 0
		_, err := NewSpectator(e, cfg, nil)
		require.ErrorIs(t, err, ErrInvalidConfig)

		cfg = DefaultConfig()
		cfg.StreamInterval = 0
		_, err = NewSpectator(e, cfg, nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestSnapshotEndpoint(t *testing.T) {
	t.Run("Unavailable Before The First Tick", func(t *testing.T) {
		e := testEngine(t)
		s := testSpectator(t, e)

		rec := httptest.NewRecorder()
		s.handleSnapshot(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Serves The Latest World", func(t *testing.T) {
		e := testEngine(t)
		e.StepTicks(3)
		s := testSpectator(t, e)

		rec := httptest.NewRecorder()
		s.handleSnapshot(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var snap sim.Snapshot
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
		require.Equal(t, uint64(3), snap.Tick)
		require.Len(t, snap.Units, 6)
		require.Len(t, snap.Players, 1)
	})
}

func TestStatsEndpoint(t *testing.T) {
	t.Run("Reports Tick And Pause State", func(t *testing.T) {
		e := testEngine(t)
		e.StepTicks(2)
		e.Pause()
		s := testSpectator(t, e)

		rec := httptest.NewRecorder()
		s.handleStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var stats struct {
			Tick       uint64 `json:"tick"`
			Paused     bool   `json:"paused"`
			Spectators int64  `json:"spectators"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
		require.Equal(t, uint64(2), stats.Tick)
		require.True(t, stats.Paused)
		require.Zero(t, stats.Spectators)
	})
}

func TestWebSocketStream(t *testing.T) {
	t.Run("Streams Snapshots To A Client", func(t *testing.T) {
		e := testEngine(t)
		e.StepTicks(1)
		s := testSpectator(t, e)

		srv := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
		defer srv.Close()
		s.workerGroup.Add(1)
		go func() {
			defer s.workerGroup.Done()
			s.broadcaster()
		}()
		defer func() {
			close(s.stopChan)
			s.workerGroup.Wait()
		}()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		defer resp.Body.Close()

		require.Eventually(t, func() bool { return s.ClientCount() == 1 },
			time.Second, 5*time.Millisecond)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var snap sim.Snapshot
		require.NoError(t, json.Unmarshal(payload, &snap))
		require.Equal(t, uint64(1), snap.Tick)
	})

	t.Run("Rejects Clients Over The Limit", func(t *testing.T) {
		e := testEngine(t)
		s := testSpectator(t, e)
		s.config.MaxClients = 1

		srv := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		first, resp1, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer first.Close()
		defer resp1.Body.Close()

		require.Eventually(t, func() bool { return s.ClientCount() == 1 },
			time.Second, 5*time.Millisecond)

		_, resp2, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
		resp2.Body.Close()
	})
}

func TestLifecycle(t *testing.T) {
	t.Run("Stop Requires Start", func(t *testing.T) {
		e := testEngine(t)
		s := testSpectator(t, e)
		require.ErrorIs(t, s.Stop(context.Background()), ErrServerNotRunning)
	})

	t.Run("Start Twice Fails", func(t *testing.T) {
		e := testEngine(t)
		s := testSpectator(t, e)
		s.config.ListenAddr = "127.0.0.1:0"

		require.NoError(t, s.Start(context.Background()))
		require.ErrorIs(t, s.Start(context.Background()), ErrServerAlreadyRunning)
		require.NoError(t, s.Stop(context.Background()))
	})

	t.Run("Closed Server Refuses Start", func(t *testing.T) {
		e := testEngine(t)
		s := testSpectator(t, e)
		require.NoError(t, s.Close())
		require.ErrorIs(t, s.Start(context.Background()), ErrServerClosed)
	})
}
