package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Floor values for the segmentation timing parameters. Anything lower makes
// the detector either miss speech onsets or spin on the capture buffer.
const (
	MinBufferMs  = 1000
	MinSilenceMs = 500
	MinStepMs    = 100
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default], clamps
// timing parameters to their floors and validates the result. Useful in
// tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	Clamp(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Clamp raises the segmentation timing parameters to their floor values,
// logging a warning for each adjustment.
func Clamp(cfg *Config) {
	if cfg.Audio.BufferMs < MinBufferMs {
		slog.Warn("audio.buffer_ms below floor, raising",
			"configured", cfg.Audio.BufferMs, "floor", MinBufferMs)
		cfg.Audio.BufferMs = MinBufferMs
	}
	if cfg.Audio.SilenceMs < MinSilenceMs {
		slog.Warn("audio.silence_ms below floor, raising",
			"configured", cfg.Audio.SilenceMs, "floor", MinSilenceMs)
		cfg.Audio.SilenceMs = MinSilenceMs
	}
	if cfg.Audio.MinStepMs < MinStepMs {
		slog.Warn("audio.min_step_ms below floor, raising",
			"configured", cfg.Audio.MinStepMs, "floor", MinStepMs)
		cfg.Audio.MinStepMs = MinStepMs
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Audio
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate))
	}
	if cfg.Audio.SilenceMs > cfg.Audio.BufferMs {
		errs = append(errs, fmt.Errorf("audio.silence_ms (%d) must not exceed audio.buffer_ms (%d)", cfg.Audio.SilenceMs, cfg.Audio.BufferMs))
	}

	// VAD
	if !cfg.VAD.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("vad.backend %q is invalid; valid values: silero, energy", cfg.VAD.Backend))
	}
	if cfg.VAD.Backend == VADSilero {
		if cfg.VAD.ModelPath == "" {
			errs = append(errs, errors.New("vad.model_path is required for the silero backend"))
		}
		if cfg.Audio.SampleRate != 8000 && cfg.Audio.SampleRate != 16000 {
			errs = append(errs, fmt.Errorf("the silero backend supports sample rates 8000 and 16000, got %d", cfg.Audio.SampleRate))
		}
	}
	if cfg.VAD.Threshold <= 0 || cfg.VAD.Threshold >= 1 {
		errs = append(errs, fmt.Errorf("vad.threshold %g is out of range (0, 1)", cfg.VAD.Threshold))
	}

	// Recognizer
	if cfg.Recognizer.ModelPath == "" {
		errs = append(errs, errors.New("recognizer.model_path is required"))
	}
	if cfg.Recognizer.Threads < 0 {
		errs = append(errs, fmt.Errorf("recognizer.threads must not be negative, got %d", cfg.Recognizer.Threads))
	}

	// Output
	if !cfg.Output.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("output.mode %q is invalid; valid values: type, stdout", cfg.Output.Mode))
	}

	// Correction
	if cfg.Correction.Enabled {
		if cfg.Correction.APIKey == "" {
			errs = append(errs, errors.New("correction.api_key is required when correction is enabled"))
		}
		if cfg.Correction.Model == "" {
			errs = append(errs, errors.New("correction.model is required when correction is enabled"))
		}
		if len(cfg.Correction.Dictionary) == 0 {
			slog.Warn("correction is enabled but the dictionary is empty; no corrections will be requested")
		}
	}

	// History
	if cfg.History.RecentSize <= 0 {
		errs = append(errs, fmt.Errorf("history.recent_size must be positive, got %d", cfg.History.RecentSize))
	}
	if cfg.History.RecentMaxAge <= 0 {
		errs = append(errs, fmt.Errorf("history.recent_max_age must be positive, got %s", cfg.History.RecentMaxAge.Std()))
	}

	return errors.Join(errs...)
}
