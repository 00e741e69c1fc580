// Package app wires the voxtype subsystems together: audio capture, voice
// activity detection, speech recognition, the segmentation loop, the text
// pipeline (correction, spoken commands, output) and the optional HTTP
// endpoint for metrics, health probes and the live feed.
//
// The App owns the lifecycle of everything it constructs. Subsystems that
// need teardown register a closer during init; Shutdown runs them in order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/voxtype/voxtype/internal/command"
	"github.com/voxtype/voxtype/internal/config"
	"github.com/voxtype/voxtype/internal/correct"
	"github.com/voxtype/voxtype/internal/feed"
	"github.com/voxtype/voxtype/internal/health"
	"github.com/voxtype/voxtype/internal/history"
	"github.com/voxtype/voxtype/internal/observe"
	"github.com/voxtype/voxtype/internal/segmenter"
	"github.com/voxtype/voxtype/internal/sink"
	"github.com/voxtype/voxtype/pkg/audio"
	malgocapture "github.com/voxtype/voxtype/pkg/audio/malgo"
	llmopenai "github.com/voxtype/voxtype/pkg/provider/llm/openai"
	"github.com/voxtype/voxtype/pkg/provider/stt"
	"github.com/voxtype/voxtype/pkg/provider/stt/whisper"
	"github.com/voxtype/voxtype/pkg/provider/vad"
	"github.com/voxtype/voxtype/pkg/provider/vad/energy"
	"github.com/voxtype/voxtype/pkg/provider/vad/silero"
)

// httpShutdownTimeout bounds the graceful drain of the HTTP listener once the
// run context is cancelled.
const httpShutdownTimeout = 5 * time.Second

// Option customises App construction. Options exist primarily so tests can
// inject mock collaborators instead of real devices and models.
type Option func(*App)

// WithSource injects an audio source, skipping microphone initialization.
func WithSource(s audio.Source) Option {
	return func(a *App) { a.source = s }
}

// WithClassifier injects a voice activity classifier, skipping backend
// construction from config.
func WithClassifier(c vad.Classifier) Option {
	return func(a *App) { a.classifier = c }
}

// WithRecognizer injects a speech recognizer, skipping whisper model loading.
func WithRecognizer(r stt.Recognizer) Option {
	return func(a *App) { a.recognizer = r }
}

// WithOutput injects the text output target, skipping output mode selection.
func WithOutput(o Output) Option {
	return func(a *App) { a.output = o }
}

// WithLevelVar hands the App the slog level variable backing its logger so
// config reloads can retune verbosity at runtime.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.levelVar = lv }
}

// App is the assembled voxtype daemon.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	levelVar *slog.LevelVar

	metrics    *observe.Metrics
	capture    *malgocapture.Capture
	source     audio.Source
	classifier vad.Classifier
	recognizer stt.Recognizer
	corrector  *correct.Corrector
	output     Output
	buffer     *history.Buffer
	pool       *pgxpool.Pool
	broadcast  *feed.Broadcaster
	pipeline   *pipeline
	detector   *segmenter.Detector
	httpServer *http.Server

	closers  []func() error
	stopOnce sync.Once
}

// New constructs the full pipeline from cfg. cfg must already be validated
// via the config loader. On error, everything initialized so far is torn down
// before returning.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger}
	for _, o := range opts {
		o(a)
	}

	inits := []func(context.Context) error{
		a.initMetrics,
		a.initSource,
		a.initClassifier,
		a.initRecognizer,
		a.initHistory,
		a.initPipeline,
		a.initDetector,
		a.initHTTP,
	}
	for _, init := range inits {
		if err := init(ctx); err != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
			_ = a.Shutdown(shutdownCtx)
			cancel()
			return nil, err
		}
	}
	return a, nil
}

// ─── Init ────────────────────────────────────────────────────────────────────

func (a *App) initMetrics(context.Context) error {
	m, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("app: create metrics: %w", err)
	}
	a.metrics = m
	return nil
}

func (a *App) initSource(context.Context) error {
	if a.source != nil {
		return nil
	}

	deviceID, err := resolveDevice(a.cfg.Audio.DeviceID)
	if err != nil {
		return err
	}

	capture, err := malgocapture.New(malgocapture.Config{
		SampleRate: a.cfg.Audio.SampleRate,
		BufferMs:   a.cfg.Audio.BufferMs,
		DeviceID:   deviceID,
	})
	if err != nil {
		return fmt.Errorf("app: init capture: %w", err)
	}
	a.capture = capture
	a.source = capture
	a.closers = append(a.closers, capture.Close)
	return nil
}

func (a *App) initClassifier(context.Context) error {
	if a.classifier != nil {
		return nil
	}

	switch a.cfg.VAD.Backend {
	case config.VADSilero:
		c, err := silero.New(silero.Config{
			ModelPath:  a.cfg.VAD.ModelPath,
			SampleRate: a.cfg.Audio.SampleRate,
			Threshold:  float32(a.cfg.VAD.Threshold),
		})
		if err != nil {
			return fmt.Errorf("app: init silero vad: %w", err)
		}
		a.classifier = c
		a.closers = append(a.closers, c.Close)
	case config.VADEnergy:
		c, err := energy.New(a.cfg.Audio.SampleRate)
		if err != nil {
			return fmt.Errorf("app: init energy vad: %w", err)
		}
		a.classifier = c
	default:
		return fmt.Errorf("app: unknown vad backend %q", a.cfg.VAD.Backend)
	}
	return nil
}

func (a *App) initRecognizer(context.Context) error {
	if a.recognizer != nil {
		return nil
	}

	r, err := whisper.New(a.cfg.Recognizer.ModelPath,
		whisper.WithLanguage(a.cfg.Recognizer.Language),
		whisper.WithThreads(a.cfg.Recognizer.Threads),
		whisper.WithTranslate(a.cfg.Recognizer.Translate),
	)
	if err != nil {
		return fmt.Errorf("app: init recognizer: %w", err)
	}
	a.recognizer = r
	a.closers = append(a.closers, r.Close)
	return nil
}

func (a *App) initHistory(ctx context.Context) error {
	a.buffer = history.NewBuffer(a.cfg.History.RecentSize, a.cfg.History.RecentMaxAge.Std())

	if a.cfg.History.PostgresDSN == "" {
		return nil
	}

	pool, err := pgxpool.New(ctx, a.cfg.History.PostgresDSN)
	if err != nil {
		return fmt.Errorf("app: connect history store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("app: ping history store: %w", err)
	}

	store := history.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("app: migrate history store: %w", err)
	}

	a.pool = pool
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})
	return nil
}

func (a *App) initPipeline(context.Context) error {
	if a.cfg.Correction.Enabled {
		var provOpts []llmopenai.Option
		if a.cfg.Correction.BaseURL != "" {
			provOpts = append(provOpts, llmopenai.WithBaseURL(a.cfg.Correction.BaseURL))
		}
		provider, err := llmopenai.New(a.cfg.Correction.APIKey, a.cfg.Correction.Model, provOpts...)
		if err != nil {
			return fmt.Errorf("app: init correction provider: %w", err)
		}
		a.corrector = correct.New(provider, a.cfg.Correction.Dictionary)
	}

	if a.output == nil {
		switch a.cfg.Output.Mode {
		case config.OutputType:
			typer, err := sink.NewXdotool()
			if err != nil {
				return fmt.Errorf("app: init output: %w", err)
			}
			a.output = typer
		case config.OutputStdout:
			a.output = sink.NewWriter(os.Stdout, "\n")
		default:
			return fmt.Errorf("app: unknown output mode %q", a.cfg.Output.Mode)
		}
	}

	var store history.Inserter
	if a.pool != nil {
		store = history.NewPostgresStore(a.pool)
	}
	recorder := history.NewRecorder(a.buffer, store, a.logger)
	a.broadcast = feed.New(a.logger, a.buffer, a.cfg.History.RecentSize)

	a.pipeline = newPipeline(a.logger, a.metrics, a.corrector, command.New(), a.output,
		namedSink{name: "history", sink: recorder},
		namedSink{name: "feed", sink: a.broadcast},
	)
	a.pipeline.setCommandsEnabled(a.cfg.Output.CommandsEnabled())
	return nil
}

func (a *App) initDetector(context.Context) error {
	d, err := segmenter.New(a.source, a.classifier, a.recognizer, a.pipeline, segmenter.Config{
		SampleRate:   a.cfg.Audio.SampleRate,
		BufferMs:     a.cfg.Audio.BufferMs,
		SilenceMs:    a.cfg.Audio.SilenceMs,
		MinStepMs:    a.cfg.Audio.MinStepMs,
		VADThreshold: a.cfg.VAD.Threshold,
	},
		segmenter.WithLogger(a.logger),
		segmenter.WithMetrics(a.metrics),
	)
	if err != nil {
		return fmt.Errorf("app: init detector: %w", err)
	}
	a.detector = d
	return nil
}

func (a *App) initHTTP(context.Context) error {
	if a.cfg.Server.ListenAddr == "" {
		return nil
	}

	checkers := []health.Checker{
		health.CaptureChecker(a.captureRunning),
	}
	if a.pool != nil {
		checkers = append(checkers, health.PingChecker("history", a.pool.Ping))
	}

	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /feed", a.broadcast)

	a.httpServer = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// captureRunning reports device state for the readiness probe. With an
// injected source there is no device, so the probe always passes.
func (a *App) captureRunning() bool {
	if a.capture == nil {
		return true
	}
	return a.capture.Running()
}

// resolveDevice maps a device name substring from config to a capture device
// index. Empty means the system default.
func resolveDevice(name string) (int, error) {
	if name == "" {
		return -1, nil
	}
	devices, err := malgocapture.ListDevices()
	if err != nil {
		return -1, fmt.Errorf("app: list capture devices: %w", err)
	}
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			return d.ID, nil
		}
	}
	return -1, fmt.Errorf("app: no capture device matching %q", name)
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run starts capture, the detection loop and the HTTP endpoint, then blocks
// until ctx is cancelled or a subsystem fails. A clean cancellation returns
// nil.
func (a *App) Run(ctx context.Context) error {
	if a.capture != nil {
		if err := a.capture.Start(); err != nil {
			return fmt.Errorf("app: start capture: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.detector.Run(gctx)
	})

	if a.httpServer != nil {
		g.Go(func() error {
			a.logger.Info("http endpoint listening", "addr", a.httpServer.Addr)
			if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("app: http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
			defer cancel()
			return a.httpServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// TogglePause flips dictation between active and paused and reports whether
// it is paused afterwards. Wired to SIGUSR1 so a hotkey daemon can bind it.
func (a *App) TogglePause() bool {
	paused := a.pipeline.togglePause()
	if paused {
		a.logger.Info("dictation paused")
	} else {
		a.logger.Info("dictation resumed")
	}
	return paused
}

// ApplyConfig reacts to a config file change. Hot-reloadable settings take
// effect immediately; anything else is logged as requiring a restart.
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)
	if d.Empty() {
		return
	}

	if d.LogLevelChanged {
		if a.levelVar != nil {
			a.levelVar.Set(d.NewLogLevel.Slog())
			a.logger.Info("log level changed", "level", d.NewLogLevel)
		} else {
			a.logger.Warn("log level change ignored, no level var wired")
		}
	}
	if d.DictionaryChanged {
		if a.corrector != nil {
			a.corrector.SetDictionary(d.NewDictionary)
			a.logger.Info("correction dictionary reloaded", "terms", len(d.NewDictionary))
		} else {
			a.logger.Warn("dictionary change ignored, correction is disabled")
		}
	}
	if d.CommandsChanged {
		a.pipeline.setCommandsEnabled(d.NewCommandsEnabled)
		a.logger.Info("spoken commands toggled", "enabled", d.NewCommandsEnabled)
	}
	if d.RestartRequired {
		a.logger.Warn("config changes require a restart to take effect")
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, the rest are skipped
// and the context error is returned. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.logger.Info("shutting down", "closers", len(a.closers))

		if a.capture != nil {
			if err := a.capture.Stop(); err != nil {
				a.logger.Warn("capture stop error", "err", err)
			}
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.logger.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.logger.Warn("closer error", "index", i, "err", err)
			}
		}

		a.logger.Info("shutdown complete")
	})
	return shutdownErr
}
