package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/platform/stream"
	"github.com/vovakirdan/tui-weather/internal/registry"
)

var (
	flagStreamAddr      string
	flagStreamEvery     int
	flagStreamParticles bool
	flagStreamWidth     int
	flagStreamHeight    int
	flagStreamPreset    string
)

var streamCmd = &cobra.Command{
	Use:   "stream <scene>",
	Short: "Stream a scene to WebSocket viewers",
	Long: `Run the specified scene on the server and broadcast composed frames
as JSON over WebSocket at /ws. Viewers may send control messages to change
the preset, intensity, wind or pause state.

Messages are {"type": ..., "data": ...} envelopes:
  Frame    - server to viewer, one composed tick
  Control  - viewer to server, e.g. {"preset":"storm"} or {"nudge":0.1}
  Status   - server to viewers, outcome of a control
  Error    - server to viewer, rejected message

Examples:
  weather stream coast
  weather stream forest --addr :9000 --every 1 --particles`,
	Args: cobra.ExactArgs(1),
	Run:  runStream,
}

func init() {
	def := stream.DefaultConfig()
	streamCmd.Flags().StringVar(&flagStreamAddr, "addr", def.Address, "HTTP listen address (host:port)")
	streamCmd.Flags().IntVar(&flagStreamEvery, "every", def.FrameEvery, "Send a frame every N ticks")
	streamCmd.Flags().BoolVar(&flagStreamParticles, "particles", def.Particles, "Include raw particle instructions in frames")
	streamCmd.Flags().IntVar(&flagStreamWidth, "width", 80, "Width in cells")
	streamCmd.Flags().IntVar(&flagStreamHeight, "height", 24, "Height in cells")
	streamCmd.Flags().StringVar(&flagStreamPreset, "preset", "", "Weather preset to start with")
}

func runStream(_ *cobra.Command, args []string) {
	sceneID := args[0]
	mustScene(sceneID)

	logger := newLogger("weather-stream")
	sc, err := registry.Create(sceneID, registry.Env{Config: loadEffects(), Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating scene: %v\n", err)
		os.Exit(1)
	}

	srv := stream.NewServer(sc, core.RuntimeConfig{
		ScreenW:  flagStreamWidth,
		ScreenH:  flagStreamHeight,
		TickRate: flagFPS,
		Seed:     seed(),
	}, stream.Config{
		Address:    flagStreamAddr,
		FrameEvery: flagStreamEvery,
		Particles:  flagStreamParticles,
	}, logger)

	if flagStreamPreset != "" {
		if err := srv.Scene().Weather().Apply(flagStreamPreset); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Streaming %s on %s, viewers connect to /ws\n", sc.Title(), flagStreamAddr)
	fmt.Println("Press Ctrl+C to stop")

	if err := srv.Run(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
