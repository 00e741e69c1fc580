// Package config provides the configuration schema and loader for the
// voxtype dictation daemon.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps l to the corresponding slog level. Unknown values map to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// VADBackend selects the voice activity detection implementation.
type VADBackend string

const (
	// VADSilero uses the Silero ONNX model.
	VADSilero VADBackend = "silero"

	// VADEnergy uses a lightweight RMS energy heuristic. No model file
	// needed, but noticeably worse in noisy rooms.
	VADEnergy VADBackend = "energy"
)

// IsValid reports whether b is a recognised backend.
func (b VADBackend) IsValid() bool {
	return b == VADSilero || b == VADEnergy
}

// OutputMode selects where finalized text is delivered.
type OutputMode string

const (
	// OutputType injects text as keystrokes into the focused window.
	OutputType OutputMode = "type"

	// OutputStdout writes text lines to standard output.
	OutputStdout OutputMode = "stdout"
)

// IsValid reports whether m is a recognised output mode.
func (m OutputMode) IsValid() bool {
	return m == OutputType || m == OutputStdout
}

// Duration is a time.Duration that unmarshals from YAML strings like "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	Server     ServerConfig     `yaml:"server"`
	Audio      AudioConfig      `yaml:"audio"`
	VAD        VADConfig        `yaml:"vad"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Output     OutputConfig     `yaml:"output"`
	Correction CorrectionConfig `yaml:"correction"`
	History    HistoryConfig    `yaml:"history"`
}

// ServerConfig holds settings for the HTTP endpoint serving metrics, health
// probes and the live feed.
type ServerConfig struct {
	// ListenAddr is the TCP address to listen on (e.g. "127.0.0.1:9130").
	// Empty disables the HTTP server entirely.
	ListenAddr string `yaml:"listen_addr"`
}

// AudioConfig holds capture and segmentation timing parameters.
type AudioConfig struct {
	// SampleRate is the capture sample rate in Hz. Default: 16000.
	SampleRate int `yaml:"sample_rate"`

	// DeviceID selects a capture device by name substring. Empty uses the
	// system default device.
	DeviceID string `yaml:"device_id"`

	// BufferMs is how much trailing audio is kept and fetched per cycle.
	// Values below 1000 are raised to 1000.
	BufferMs int `yaml:"buffer_ms"`

	// SilenceMs is the trailing window classified for voice activity.
	// Values below 500 are raised to 500.
	SilenceMs int `yaml:"silence_ms"`

	// MinStepMs is the minimum time between poll cycles. Values below 100
	// are raised to 100.
	MinStepMs int `yaml:"min_step_ms"`
}

// VADConfig selects and tunes the voice activity detector.
type VADConfig struct {
	// Backend selects the implementation. Default: energy.
	Backend VADBackend `yaml:"backend"`

	// ModelPath is the Silero ONNX model file. Required for the silero
	// backend, ignored otherwise.
	ModelPath string `yaml:"model_path"`

	// Threshold is the voice probability above which a window counts as
	// speech. Must be in (0, 1). Default: 0.6.
	Threshold float64 `yaml:"threshold"`
}

// RecognizerConfig configures the whisper.cpp recognizer.
type RecognizerConfig struct {
	// ModelPath is the ggml model file. Required.
	ModelPath string `yaml:"model_path"`

	// Language is the spoken language hint (e.g. "en", "auto").
	Language string `yaml:"language"`

	// Threads caps inference threads. Zero uses the binding default.
	Threads int `yaml:"threads"`

	// Translate requests translation to English instead of transcription.
	Translate bool `yaml:"translate"`
}

// OutputConfig selects the text delivery mechanism.
type OutputConfig struct {
	// Mode is "type" (keystroke injection) or "stdout". Default: stdout.
	Mode OutputMode `yaml:"mode"`

	// Commands turns spoken editing commands ("new line", "stop dictation")
	// on or off. Unset means enabled.
	Commands *bool `yaml:"commands_enabled"`
}

// CorrectionConfig configures the optional LLM correction stage.
type CorrectionConfig struct {
	// Enabled turns correction on. Requires APIKey and Model.
	Enabled bool `yaml:"enabled"`

	// APIKey authenticates against the OpenAI-compatible endpoint.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier, e.g. "gpt-4o-mini".
	Model string `yaml:"model"`

	// BaseURL overrides the default API endpoint, e.g. for a local server.
	BaseURL string `yaml:"base_url"`

	// Dictionary is the user's personal vocabulary the corrector may fix
	// words towards. An empty dictionary disables correction requests.
	Dictionary []string `yaml:"dictionary"`
}

// HistoryConfig configures utterance history.
type HistoryConfig struct {
	// PostgresDSN enables durable history when non-empty.
	PostgresDSN string `yaml:"postgres_dsn"`

	// RecentSize caps the in-memory recent buffer. Default: 100.
	RecentSize int `yaml:"recent_size"`

	// RecentMaxAge evicts buffered entries older than this. Default: 1h.
	RecentMaxAge Duration `yaml:"recent_max_age"`
}

// CommandsEnabled reports the effective value of output.commands_enabled,
// defaulting to true when unset.
func (c OutputConfig) CommandsEnabled() bool {
	if c.Commands == nil {
		return true
	}
	return *c.Commands
}

// Default returns a Config populated with default values. Load decodes on
// top of these, so omitted fields keep their defaults.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Audio: AudioConfig{
			SampleRate: 16000,
			BufferMs:   30000,
			SilenceMs:  1000,
			MinStepMs:  100,
		},
		VAD: VADConfig{
			Backend:   VADEnergy,
			Threshold: 0.6,
		},
		Recognizer: RecognizerConfig{
			Language: "en",
		},
		Output: OutputConfig{
			Mode: OutputStdout,
		},
		History: HistoryConfig{
			RecentSize:   100,
			RecentMaxAge: Duration(time.Hour),
		},
	}
}
