package config

import "slices"

// ConfigDiff describes what changed between two configs. Only a few fields
// can be applied to a running daemon; everything touching the capture
// device, the models or the network endpoint needs a restart.
type ConfigDiff struct {
	// LogLevelChanged is true when log_level changed. NewLogLevel holds the
	// new value.
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// DictionaryChanged is true when correction.dictionary changed.
	// NewDictionary holds the new vocabulary.
	DictionaryChanged bool
	NewDictionary     []string

	// CommandsChanged is true when output.commands_enabled changed.
	// NewCommandsEnabled holds the new value.
	CommandsChanged    bool
	NewCommandsEnabled bool

	// RestartRequired is true when fields changed that cannot be applied to
	// a running daemon.
	RestartRequired bool
}

// Empty reports whether the diff contains no changes at all.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.DictionaryChanged && !d.CommandsChanged && !d.RestartRequired
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.LogLevel
	}

	if !slices.Equal(old.Correction.Dictionary, new.Correction.Dictionary) {
		d.DictionaryChanged = true
		d.NewDictionary = new.Correction.Dictionary
	}

	if old.Output.CommandsEnabled() != new.Output.CommandsEnabled() {
		d.CommandsChanged = true
		d.NewCommandsEnabled = new.Output.CommandsEnabled()
	}

	d.RestartRequired = restartRequired(old, new)
	return d
}

// restartRequired reports whether any field changed that a running daemon
// cannot pick up.
func restartRequired(old, new *Config) bool {
	switch {
	case old.Server != new.Server:
		return true
	case old.Audio != new.Audio:
		return true
	case old.VAD != new.VAD:
		return true
	case old.Recognizer != new.Recognizer:
		return true
	case old.Output.Mode != new.Output.Mode:
		return true
	case old.History != new.History:
		return true
	case old.Correction.Enabled != new.Correction.Enabled,
		old.Correction.APIKey != new.Correction.APIKey,
		old.Correction.Model != new.Correction.Model,
		old.Correction.BaseURL != new.Correction.BaseURL:
		return true
	}
	return false
}
