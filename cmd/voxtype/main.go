// voxtype is a push-nothing dictation daemon: it listens to the microphone,
// segments speech from silence, transcribes finished utterances locally and
// delivers the text to the focused window or stdout.
//
// Usage:
//
//	voxtype -config voxtype.yaml
//	voxtype -list-devices
//
// SIGUSR1 toggles dictation on and off, so a desktop hotkey can be bound to
// `kill -USR1 $(pidof voxtype)`.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxtype/voxtype/internal/app"
	"github.com/voxtype/voxtype/internal/config"
	"github.com/voxtype/voxtype/internal/observe"
	malgocapture "github.com/voxtype/voxtype/pkg/audio/malgo"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "voxtype.yaml", "path to the YAML config file")
	listDevices := flag.Bool("list-devices", false, "list capture devices and exit")
	flag.Parse()

	if *listDevices {
		return runListDevices()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "config file %q not found; create one or point -config at it\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		}
		return 1
	}

	// Logs go to stderr: in stdout output mode, stdout carries dictated text.
	levelVar := new(slog.LevelVar)
	levelVar.Set(cfg.LogLevel.Slog())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "voxtype"})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(flushCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	application, err := app.New(ctx, cfg, logger, app.WithLevelVar(levelVar))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// SIGUSR1 toggles dictation without touching the terminal.
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)
	go func() {
		for range usr1 {
			application.TogglePause()
		}
	}()

	watcher, err := config.NewWatcher(*configPath, application.ApplyConfig)
	if err != nil {
		slog.Warn("config hot-reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	printStartupSummary(cfg)
	slog.Info("listening — press Ctrl+C to shut down")

	runErr := application.Run(ctx)

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown error", "err", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run error", "err", runErr)
		return 1
	}
	return 0
}

// runListDevices prints the available capture devices as "id: name" lines,
// a fixed format scripts can split on the colon.
func runListDevices() int {
	devices, err := malgocapture.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enumerate capture devices: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Println("no capture devices found")
		return 0
	}
	printDevices(os.Stdout, devices)
	return 0
}

func printDevices(w io.Writer, devices []malgocapture.Device) {
	for _, d := range devices {
		fmt.Fprintf(w, "%d: %s\n", d.ID, d.Name)
	}
}

func printStartupSummary(cfg *config.Config) {
	out := os.Stderr
	fmt.Fprintln(out, "╔════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║          voxtype — startup summary         ║")
	fmt.Fprintln(out, "╠════════════════════════════════════════════╣")
	printField(out, "Sample rate", fmt.Sprintf("%d Hz", cfg.Audio.SampleRate))
	printField(out, "VAD backend", string(cfg.VAD.Backend))
	printField(out, "Recognizer", cfg.Recognizer.ModelPath)
	printField(out, "Output mode", string(cfg.Output.Mode))
	if cfg.Output.CommandsEnabled() {
		printField(out, "Voice commands", "enabled")
	} else {
		printField(out, "Voice commands", "disabled")
	}
	if cfg.Correction.Enabled {
		printField(out, "Correction", cfg.Correction.Model)
	} else {
		printField(out, "Correction", "(disabled)")
	}
	if cfg.History.PostgresDSN != "" {
		printField(out, "History", "postgres")
	} else {
		printField(out, "History", "in-memory")
	}
	if cfg.Server.ListenAddr != "" {
		printField(out, "Listen addr", cfg.Server.ListenAddr)
	}
	fmt.Fprintln(out, "╚════════════════════════════════════════════╝")
}

func printField(out *os.File, name, value string) {
	if len(value) > 24 {
		value = value[:21] + "..."
	}
	fmt.Fprintf(out, "║  %-15s : %-24s ║\n", name, value)
}
