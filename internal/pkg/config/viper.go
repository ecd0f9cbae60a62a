package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// GOSIGNUP_MODULES_SIGNUP_DELIVERY_POLICY overrides modules.signup.delivery_policy.
const EnvPrefix = "GOSIGNUP"

// ErrConfigTypeRequired is returned by NewViperFromBytes when configType is blank.
var ErrConfigTypeRequired = errors.New("config type is required")

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper loads the file at file, its type taken from the extension, and
// reloads it whenever it changes on disk. A failed reload keeps the last
// good values.
func NewViper(file string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(filepath.Clean(file))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", file, "error", err)
			return
		}
		slog.Info("config reloaded", "path", file)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory. configType is any
// format viper reads, e.g. "yaml".
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, ErrConfigTypeRequired
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func (c *Viper) GetBool(key string) bool       { return c.v.GetBool(key) }
func (c *Viper) GetString(key string) string   { return c.v.GetString(key) }
func (c *Viper) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *Viper) GetInt32(key string) int32     { return c.v.GetInt32(key) }
func (c *Viper) GetInt64(key string) int64     { return c.v.GetInt64(key) }
func (c *Viper) GetUint64(key string) uint64   { return c.v.GetUint64(key) }
func (c *Viper) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

func (c *Viper) GetSecond(key string) time.Duration { return c.scaled(key, time.Second) }
func (c *Viper) GetMinute(key string) time.Duration { return c.scaled(key, time.Minute) }
func (c *Viper) GetHour(key string) time.Duration   { return c.scaled(key, time.Hour) }

func (c *Viper) scaled(key string, unit time.Duration) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * unit
}

// GetBinary returns nil when the value is not valid base64.
func (c *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(c.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

// GetArray also accepts a YAML sequence.
func (c *Viper) GetArray(key string) []string {
	var items []string
	switch raw := c.v.Get(key).(type) {
	case []any:
		items = lo.Map(raw, func(item any, _ int) string { return fmt.Sprint(item) })
	case []string:
		items = raw
	default:
		items = strings.Split(c.v.GetString(key), ",")
	}
	return lo.FilterMap(items, func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	})
}

// Close implements io.Closer. Viper holds no resources.
func (c *Viper) Close() error {
	return nil
}
