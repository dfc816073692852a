package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-weather/internal/config"
	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/registry"
	"github.com/vovakirdan/tui-weather/internal/scenes/overworld"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	b, ok := overworld.Lookup("coast")
	if !ok {
		t.Fatal("coast biome missing")
	}
	effects, err := config.Parse(config.DefaultYAML())
	if err != nil {
		t.Fatalf("Parse defaults: %v", err)
	}
	sc := overworld.New(b, registry.Env{Config: effects})
	runtime := core.RuntimeConfig{ScreenW: 40, ScreenH: 12, TickRate: 30, Seed: 3}
	return NewServer(sc, runtime, cfg, nil)
}

func decodeFrame(t *testing.T, data []byte) FrameMsg {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if env.Type != TypeFrame {
		t.Fatalf("type = %q, expected %q", env.Type, TypeFrame)
	}
	var msg FrameMsg
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	return msg
}

func TestTickEmitsFrames(t *testing.T) {
	s := newTestServer(t, Config{FrameEvery: 2, Particles: true})

	if s.Tick() != nil {
		t.Error("frame sent on an off tick")
	}
	var data []byte
	for i := 0; i < 40; i++ {
		if out := s.Tick(); out != nil {
			data = out
		}
	}
	if data == nil {
		t.Fatal("no frame produced")
	}

	msg := decodeFrame(t, data)
	if msg.Scene != "coast" || msg.Preset != "storm" {
		t.Errorf("frame scene %q preset %q", msg.Scene, msg.Preset)
	}
	if msg.Width != 40 || len(msg.Rows) != 12 {
		t.Errorf("frame is %dx%d", msg.Width, len(msg.Rows))
	}
	// Frames go out on even ticks, so the last one is tick 40.
	if msg.Tick != 40 {
		t.Errorf("tick = %d, expected 40", msg.Tick)
	}
	if msg.Stats.Live == 0 || len(msg.Particles) == 0 {
		t.Errorf("storm frame has %d live, %d particles", msg.Stats.Live, len(msg.Particles))
	}
	for _, p := range msg.Particles {
		if p.Layer == "" || p.Blend == "" {
			t.Fatalf("particle without layer or blend: %+v", p)
		}
	}
}

func TestFrameWithoutParticles(t *testing.T) {
	s := newTestServer(t, Config{FrameEvery: 1})
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	msg := decodeFrame(t, s.Tick())
	if len(msg.Particles) != 0 {
		t.Error("particles sent when disabled")
	}
	if len(msg.Rows[0]) == 0 {
		t.Error("rows are empty")
	}
}

func TestControlsApplyBetweenTicks(t *testing.T) {
	s := newTestServer(t, Config{FrameEvery: 1})

	s.hub.controls <- ControlMsg{Preset: "blizzard", Nudge: 0.2}
	s.Tick()
	d := s.Scene().Weather()
	if d.Preset() != "blizzard" {
		t.Errorf("preset = %q, expected blizzard", d.Preset())
	}
	if d.Scale() != 1.2 {
		t.Errorf("scale = %g, expected 1.2", d.Scale())
	}

	s.hub.controls <- ControlMsg{Wind: &WindMsg{X: -0.4}}
	s.Tick()
	if w := d.Wind(); w.X != -0.4 || w.Y != 0 {
		t.Errorf("wind = %+v", w)
	}

	s.hub.controls <- ControlMsg{Pause: true}
	s.Tick()
	if !s.Scene().State().Paused {
		t.Error("pause control ignored")
	}

	s.hub.controls <- ControlMsg{Preset: "no-such-preset"}
	s.Tick()
	if d.Preset() != "blizzard" {
		t.Error("unknown preset replaced the weather")
	}
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubOverWebSocket(t *testing.T) {
	s := newTestServer(t, Config{FrameEvery: 1})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return s.Hub().Clients() == 1 })

	s.Hub().Broadcast(s.Tick())
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if msg := decodeFrame(t, data); msg.Scene != "coast" {
		t.Errorf("scene = %q", msg.Scene)
	}

	if err := conn.WriteJSON(Envelope{Type: TypeControl, Data: json.RawMessage(`{"next":true}`)}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	select {
	case ctl := <-s.Hub().Controls():
		if !ctl.Next {
			t.Errorf("control = %+v", ctl)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("control not delivered")
	}

	if err := conn.WriteJSON(Envelope{Type: "Dance"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if env.Type != TypeError {
		t.Errorf("reply type = %q, expected %q", env.Type, TypeError)
	}

	conn.Close()
	waitFor(t, func() bool { return s.Hub().Clients() == 0 })
}

func TestSlowViewerDropsFrames(t *testing.T) {
	h := NewHub(nil)
	c := &client{send: make(chan []byte, 1)}
	h.clients[c] = struct{}{}

	h.Broadcast([]byte("a"))
	h.Broadcast([]byte("b"))
	if h.Dropped() != 1 {
		t.Errorf("Dropped() = %d, expected 1", h.Dropped())
	}
	if got := string(<-c.send); got != "a" {
		t.Errorf("queued %q, expected the first frame", got)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Config{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}
