// Package config reads service settings from the environment, optionally
// layered over a YAML/JSON/TOML file named by CONFIG_FILE. Environment
// variables always win; an empty value counts as unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Loader struct {
	v *viper.Viper
}

// Load builds a Loader. It only fails when CONFIG_FILE is set and unreadable.
func Load() (*Loader, error) {
	v := viper.New()
	v.AutomaticEnv()
	if file := strings.TrimSpace(os.Getenv("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return &Loader{v: v}, nil
}

func (l *Loader) raw(key string) string {
	return strings.TrimSpace(l.v.GetString(key))
}

func (l *Loader) String(key, fallback string) string {
	if v := l.raw(key); v != "" {
		return v
	}
	return fallback
}

func (l *Loader) RequiredString(key string) (string, error) {
	v := l.raw(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func (l *Loader) Port(key, fallback string) (string, error) {
	v := l.String(key, fallback)
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%s must be a valid TCP port (got %q)", key, v)
	}
	return v, nil
}

func (l *Loader) Int(key string, fallback int) (int, error) {
	v := l.raw(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got %q)", key, v)
	}
	return n, nil
}

func (l *Loader) Duration(key string, fallback time.Duration) (time.Duration, error) {
	v := l.raw(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 5m (got %q)", key, v)
	}
	return d, nil
}

func (l *Loader) Float(key string, fallback float64) (float64, error) {
	v := l.raw(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number (got %q)", key, v)
	}
	return f, nil
}

// Bool treats anything other than false/0/no/off as true.
func (l *Loader) Bool(key string, fallback bool) bool {
	switch strings.ToLower(l.raw(key)) {
	case "":
		return fallback
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}
