// Package config reads layered application settings: a YAML file watched for
// changes, overridden by GOSIGNUP_* environment variables.
package config

import (
	"io"
	"time"
)

// Config retrieves configuration values. Missing or malformed keys yield the
// zero value, so callers apply their own defaults.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond, GetMinute and GetHour scale an integer value to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray splits a "<element1>,<element2>,..." value. Blank elements are dropped.
	GetArray(key string) []string
}
