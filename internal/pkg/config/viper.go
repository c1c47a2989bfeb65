package config

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variables that override file values.
// The key "mail.password" is overridden by OTPGATE_MAIL_PASSWORD.
const EnvPrefix = "OTPGATE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "otpgate")
	v.SetDefault("app.server.http.address", ":8080")
	v.SetDefault("app.server.http.read_timeout_seconds", 10)
	v.SetDefault("app.server.http.read_header_timeout_seconds", 5)
	v.SetDefault("app.server.http.write_timeout_seconds", 10)
	v.SetDefault("app.server.http.idle_timeout_seconds", 60)
	v.SetDefault("app.server.http.shutdown_timeout_seconds", 10)
	v.SetDefault("app.server.task_timeout_seconds", 10)
	v.SetDefault("instrument.log_level", "info")
	v.SetDefault("modules.auth.otp_ttl_minutes", 5)
	v.SetDefault("modules.auth.max_attempts", 5)
	v.SetDefault("modules.auth.session_ttl_hours", 48)
	v.SetDefault("modules.auth.cookie.name", "otpgate_session")
	v.SetDefault("session.driver", "memory")
	v.SetDefault("session.redis.prefix", "otpgate:session:")
	v.SetDefault("mail.driver", "log")
}

// Viper is the viper-backed Config. File-based instances reload on change;
// reads and reloads are serialised because the maintenance middleware reads
// config on every request.
type Viper struct {
	mu     sync.RWMutex
	v      *viper.Viper
	closed bool
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper reads the file at pathFile, typed by its extension, and watches it.
// A reload that fails to parse keeps the previous values.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(pathFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	vc := &Viper{v: v}
	v.OnConfigChange(func(fsnotify.Event) { vc.reload(pathFile) })
	v.WatchConfig()

	return vc, nil
}

func (vc *Viper) reload(pathFile string) {
	next := newViper()
	next.SetConfigFile(pathFile)
	if err := next.ReadInConfig(); err != nil {
		slog.Error("config reload failed", "path", pathFile, "error", err)
		return
	}

	vc.mu.Lock()
	defer vc.mu.Unlock()
	if vc.closed {
		return
	}
	vc.v = next
	slog.Info("config reloaded", "path", pathFile)
}

// NewViperFromBytes parses data as configType ("yaml", "json", "toml"). Used by
// tests; the result is never reloaded.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func read[T any](vc *Viper, get func(*viper.Viper) T) T {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return get(vc.v)
}

func (vc *Viper) duration(key string, unit time.Duration) time.Duration {
	return time.Duration(read(vc, func(v *viper.Viper) int64 { return v.GetInt64(key) })) * unit
}

func (vc *Viper) GetInt(key string) int {
	return read(vc, func(v *viper.Viper) int { return v.GetInt(key) })
}

func (vc *Viper) GetInt32(key string) int32 {
	return read(vc, func(v *viper.Viper) int32 { return v.GetInt32(key) })
}

func (vc *Viper) GetFloat64(key string) float64 {
	return read(vc, func(v *viper.Viper) float64 { return v.GetFloat64(key) })
}

func (vc *Viper) GetBool(key string) bool {
	return read(vc, func(v *viper.Viper) bool { return v.GetBool(key) })
}

func (vc *Viper) GetString(key string) string {
	return read(vc, func(v *viper.Viper) string { return v.GetString(key) })
}

func (vc *Viper) GetSecond(key string) time.Duration { return vc.duration(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.duration(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration   { return vc.duration(key, time.Hour) }

// GetArray returns a YAML list as-is or splits a scalar on commas, trimming
// items and dropping empty ones. A missing key yields an empty slice.
func (vc *Viper) GetArray(key string) []string {
	raw := read(vc, func(v *viper.Viper) []string {
		if s, ok := v.Get(key).(string); ok {
			return strings.Split(s, ",")
		}
		return v.GetStringSlice(key)
	})

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Close stops applying reloads. viper offers no way to stop the watcher
// itself.
func (vc *Viper) Close() error {
	vc.mu.Lock()
	vc.closed = true
	vc.mu.Unlock()
	return nil
}
