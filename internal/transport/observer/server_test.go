package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fgamador/evo2/internal/protocol"
	"github.com/fgamador/evo2/internal/sim/world"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(RunInfo{RunID: "run-1", Scenario: "malthus", Seed: 1337}, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(s.Close)
	return s, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/ws"
}

func waitForClients(t *testing.T, s *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.NumClients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", s.NumClients(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBootstrap_ReportsLatestStats(t *testing.T) {
	s, ts := newTestServer(t)
	if err := s.WriteTick(world.TickStats{Tick: 5, Cells: 9, Food: 12.5}); err != nil {
		t.Fatalf("write tick: %v", err)
	}

	resp, err := http.Get(ts.URL + "/v1/bootstrap")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var boot protocol.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if boot.ProtocolVersion != protocol.Version {
		t.Fatalf("protocol version = %q, want %q", boot.ProtocolVersion, protocol.Version)
	}
	if boot.RunID != "run-1" || boot.Scenario != "malthus" || boot.Seed != 1337 {
		t.Fatalf("bootstrap = %+v", boot)
	}
	if boot.Tick != 5 || boot.Cells != 9 || boot.Food != 12.5 {
		t.Fatalf("bootstrap stats = %+v", boot)
	}
}

func TestBootstrap_RejectsNonGet(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/bootstrap", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestWS_StreamsTickMessages(t *testing.T) {
	s, ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, s, 1)

	if err := s.WriteTick(world.TickStats{Tick: 3, Born: 1, Died: 2, Cells: 7, MeanHealth: 0.5, MeanEnergy: 40, Food: 9}); err != nil {
		t.Fatalf("write tick: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(b)
	if err != nil {
		t.Fatalf("decode base: %v", err)
	}
	if base.Type != protocol.TypeTick {
		t.Fatalf("type = %q, want %q", base.Type, protocol.TypeTick)
	}
	var msg protocol.TickMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Tick != 3 || msg.Born != 1 || msg.Died != 2 || msg.Cells != 7 {
		t.Fatalf("msg = %+v", msg)
	}
	if msg.MeanHealth != 0.5 || msg.MeanEnergy != 40 || msg.Food != 9 {
		t.Fatalf("msg stats = %+v", msg)
	}
}

func TestWS_SlowClientIsDropped(t *testing.T) {
	s, ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, s, 1)

	// Never read from the connection. The socket and channel buffers
	// absorb some messages, but the client must eventually be dropped
	// without WriteTick ever blocking.
	for i := 0; i < 500000 && s.NumClients() > 0; i++ {
		if err := s.WriteTick(world.TickStats{Tick: uint64(i)}); err != nil {
			t.Fatalf("write tick %d: %v", i, err)
		}
	}
	waitForClients(t, s, 0)
}

func TestClose_DisconnectsClients(t *testing.T) {
	s, ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, s, 1)

	s.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return // closed, as expected
		}
	}
}
