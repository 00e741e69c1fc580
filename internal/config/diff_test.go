package config_test

import (
	"testing"

	"github.com/voxtype/voxtype/internal/config"
)

func baseConfig() *config.Config {
	cfg := config.Default()
	cfg.Recognizer.ModelPath = "/models/ggml-base.en.bin"
	return cfg
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()

	old := baseConfig()
	new := baseConfig()

	d := config.Diff(old, new)
	if !d.Empty() {
		t.Errorf("identical configs must produce an empty diff, got %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()

	old := baseConfig()
	new := baseConfig()
	new.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("log level change not detected: %+v", d)
	}
	if d.RestartRequired {
		t.Error("log level is hot-reloadable, restart must not be required")
	}
}

func TestDiff_Dictionary(t *testing.T) {
	t.Parallel()

	old := baseConfig()
	new := baseConfig()
	new.Correction.Dictionary = []string{"Kubernetes", "voxtype"}

	d := config.Diff(old, new)
	if !d.DictionaryChanged {
		t.Error("dictionary change not detected")
	}
	if len(d.NewDictionary) != 2 {
		t.Errorf("want new dictionary carried in diff, got %v", d.NewDictionary)
	}
	if d.RestartRequired {
		t.Error("dictionary is hot-reloadable, restart must not be required")
	}
}

func TestDiff_Commands(t *testing.T) {
	t.Parallel()

	off := false
	old := baseConfig()
	new := baseConfig()
	new.Output.Commands = &off

	d := config.Diff(old, new)
	if !d.CommandsChanged || d.NewCommandsEnabled {
		t.Errorf("commands toggle not detected: %+v", d)
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*config.Config){
		"listen addr":  func(c *config.Config) { c.Server.ListenAddr = ":9999" },
		"sample rate":  func(c *config.Config) { c.Audio.SampleRate = 8000 },
		"vad backend":  func(c *config.Config) { c.VAD.Backend = config.VADSilero },
		"model path":   func(c *config.Config) { c.Recognizer.ModelPath = "/other.bin" },
		"output mode":  func(c *config.Config) { c.Output.Mode = config.OutputType },
		"postgres dsn": func(c *config.Config) { c.History.PostgresDSN = "postgres://x" },
		"correction":   func(c *config.Config) { c.Correction.APIKey = "sk-new" },
	}

	for name, mutate := range cases {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			old := baseConfig()
			new := baseConfig()
			mutate(new)

			d := config.Diff(old, new)
			if !d.RestartRequired {
				t.Errorf("%s change must require restart", name)
			}
		})
	}
}
