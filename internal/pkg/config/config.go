package config

import (
	"io"
	"time"
)

// Config is the read-only view of the passcode service settings. Missing or
// unconvertible keys yield the zero value; callers apply their own defaults.
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetMillisecond, GetSecond and GetMinute read an integer and scale it to
	// a duration, matching the *_millis, *_seconds and *_minutes key suffixes.
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetArray accepts a YAML sequence or a comma separated string.
	GetArray(key string) []string
	// GetMap parses "k1:v1,k2:v2".
	GetMap(key string) map[string]string
}
