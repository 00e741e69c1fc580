package config_test

import (
	"testing"

	"github.com/voxtype/voxtype/internal/config"
)

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()
	valid := []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError}
	for _, l := range valid {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	for _, l := range []config.LogLevel{"", "trace", "INFO"} {
		if l.IsValid() {
			t.Errorf("%q should be invalid", l)
		}
	}
}

func TestVADBackendIsValid(t *testing.T) {
	t.Parallel()
	if !config.VADSilero.IsValid() || !config.VADEnergy.IsValid() {
		t.Error("built-in backends must be valid")
	}
	if config.VADBackend("webrtc").IsValid() {
		t.Error("unknown backend must be invalid")
	}
}

func TestOutputModeIsValid(t *testing.T) {
	t.Parallel()
	if !config.OutputType.IsValid() || !config.OutputStdout.IsValid() {
		t.Error("built-in modes must be valid")
	}
	if config.OutputMode("clipboard").IsValid() {
		t.Error("unknown mode must be invalid")
	}
}

func TestCommandsEnabledDefault(t *testing.T) {
	t.Parallel()

	var out config.OutputConfig
	if !out.CommandsEnabled() {
		t.Error("unset commands_enabled must default to true")
	}

	off := false
	out.Commands = &off
	if out.CommandsEnabled() {
		t.Error("explicit false must disable commands")
	}
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Recognizer.ModelPath = "/models/ggml-base.en.bin"
	config.Clamp(cfg)
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("defaults plus a model path must validate, got: %v", err)
	}
}
