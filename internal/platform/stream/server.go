package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
	"github.com/vovakirdan/tui-weather/internal/platform/canvas"
	"github.com/vovakirdan/tui-weather/internal/registry"
)

// Config holds the stream server settings.
type Config struct {
	Address    string // host:port for the HTTP listener
	FrameEvery int    // send one frame every N ticks
	Particles  bool   // include raw particle instructions in frames
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Address:    ":8080",
		FrameEvery: 2,
	}
}

// Server runs one scene and streams it to every connected viewer.
type Server struct {
	config  Config
	runtime core.RuntimeConfig
	scene   registry.Scene
	hub     *Hub
	screen  *core.Screen
	logger  *log.Logger
	ticks   uint64
}

// NewServer resets sc for the runtime config and wraps it in a server.
func NewServer(sc registry.Scene, runtime core.RuntimeConfig, cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.FrameEvery <= 0 {
		cfg.FrameEvery = 1
	}
	if runtime.TickRate <= 0 {
		runtime.TickRate = 30
	}
	sc.Reset(runtime)

	return &Server{
		config:  cfg,
		runtime: runtime,
		scene:   sc,
		hub:     NewHub(logger),
		screen:  core.NewScreen(runtime.ScreenW, runtime.ScreenH),
		logger:  logger,
	}
}

// Hub returns the viewer hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Scene returns the streamed scene.
func (s *Server) Scene() registry.Scene {
	return s.scene
}

// Handler returns the HTTP routes: /ws for viewers and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Tick applies pending viewer controls, advances the scene one tick and
// returns the encoded frame when one is due.
func (s *Server) Tick() []byte {
	var pause bool
drain:
	for {
		select {
		case ctl := <-s.hub.Controls():
			pause = s.apply(ctl) || pause
		default:
			break drain
		}
	}

	in := core.NewInputFrame()
	if pause {
		in.Set(core.ActionPause)
	}
	s.scene.Step(in)
	s.ticks++

	if s.ticks%uint64(s.config.FrameEvery) != 0 {
		return nil
	}

	frame := s.scene.Weather().Engine().Frame()
	canvas.Scene(s.screen, s.scene, frame)
	msg, err := Encode(TypeFrame, EncodeFrame(s.scene, s.screen, frame, s.config.Particles))
	if err != nil {
		s.logger.Error("frame encoding failed", "err", err)
		return nil
	}
	return msg
}

// apply runs one control message on the simulation goroutine and reports
// whether it asked for a pause toggle.
func (s *Server) apply(ctl ControlMsg) bool {
	d := s.scene.Weather()
	var status string

	switch {
	case ctl.Preset != "":
		if err := d.Apply(ctl.Preset); err != nil {
			status = err.Error()
		} else {
			status = "weather: " + ctl.Preset
		}
	case ctl.Next:
		if err := d.Next(); err != nil {
			status = err.Error()
		} else {
			status = "weather: " + d.Preset()
		}
	}
	if ctl.Nudge != 0 {
		status = fmt.Sprintf("intensity x%.1f", d.Nudge(ctl.Nudge))
	}
	switch {
	case ctl.Wind != nil:
		d.SetWind(fx.Vec2{X: ctl.Wind.X, Y: ctl.Wind.Y})
		status = "wind set"
	case ctl.Rotate:
		d.RotateWind()
		status = "wind rotated"
	}

	if status != "" {
		s.scene.Say(status)
		s.logger.Debug("control applied", "status", status)
		if msg, err := Encode(TypeStatus, StatusMsg{Message: status}); err == nil {
			s.hub.Broadcast(msg)
		}
	}
	return ctl.Pause
}

// Run serves viewers and drives the simulation until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("stream listening", "address", s.config.Address, "scene", s.scene.ID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ticker := time.NewTicker(time.Second / time.Duration(s.runtime.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down...")
			s.hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)

		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("stream: server failed: %w", err)
			}
			errCh = nil

		case <-ticker.C:
			msg := s.Tick()
			if msg != nil && s.hub.Clients() > 0 {
				s.hub.Broadcast(msg)
			}
		}
	}
}
