package config

import (
	"io"
	"time"
)

// DurationConfig reads integer values and scales them into durations.
type DurationConfig interface {
	// GetSecond returns the value of key multiplied by time.Second.
	GetSecond(key string) time.Duration
	// GetMinute returns the value of key multiplied by time.Minute.
	GetMinute(key string) time.Duration
	// GetHour returns the value of key multiplied by time.Hour.
	GetHour(key string) time.Duration
}

// Config is the read side of the application configuration.
//
// Missing keys yield the zero value of the requested type; callers that need
// a default apply it themselves.
type Config interface {
	io.Closer
	DurationConfig

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetArray returns a list value. Both YAML sequences and comma separated
	// strings (the form environment overrides take) are accepted.
	GetArray(key string) []string

	// GetBinary returns a base64 encoded value decoded into bytes.
	GetBinary(key string) []byte

	// GetStringMap returns the raw mapping stored under key. Nested keys keep
	// the spelling used in the source file.
	GetStringMap(key string) map[string]any

	// OnChange registers fn to run after the underlying source has been
	// reloaded successfully. Sources that never change never call fn.
	OnChange(fn func())
}
