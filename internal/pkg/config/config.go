package config

import (
	"io"
	"time"
)

// TimeConfig reads integer keys as durations. The unit is part of the method
// name, so "modules.auth.otp_ttl_minutes" is read with GetMinute.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
}

// NumberConfig reads numeric keys. Missing or malformed values read as zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetFloat64(key string) float64
}

// Config is the read-only view of the application settings handed to every
// init step and module. Keys are dotted paths into the YAML file and may be
// overridden by OTPGATE_* environment variables.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	GetBool(key string) bool
	GetString(key string) string
	// GetArray accepts a YAML list or a comma separated string. Empty
	// elements are dropped.
	GetArray(key string) []string
}
