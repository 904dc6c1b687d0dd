package main

import (
	"errors"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/config"
)

type settings struct {
	ServiceName string
	LogLevel    string
	Port        string
	BookingURL  string
	JWTSecret   string

	CORSOrigins        string
	BodyLimitBytes     int
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimitFailOpen  bool
}

func loadSettings(l *config.Loader) (settings, error) {
	s := settings{
		ServiceName:       l.String("SERVICE_NAME", "gateway-service"),
		LogLevel:          l.String("LOG_LEVEL", "info"),
		BookingURL:        l.String("BOOKING_URL", "http://booking-service:8083"),
		JWTSecret:         l.String("JWT_SECRET", ""),
		CORSOrigins:       l.String("CORS_ALLOWED_ORIGINS", ""),
		RedisAddr:         l.String("REDIS_ADDR", ""),
		RedisPassword:     l.String("REDIS_PASSWORD", ""),
		RateLimitFailOpen: l.Bool("RATE_LIMIT_FAIL_OPEN", true),
	}

	var err error
	if s.Port, err = l.Port("PORT", "8080"); err != nil {
		return settings{}, err
	}
	if s.BodyLimitBytes, err = l.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20); err != nil {
		return settings{}, err
	}
	if s.RequestTimeout, err = l.Duration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return settings{}, err
	}
	if s.RateLimitPerMinute, err = l.Int("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return settings{}, err
	}
	if s.RedisDB, err = l.Int("REDIS_DB", 0); err != nil {
		return settings{}, err
	}
	if s.JWTSecret == "" {
		return settings{}, errors.New("JWT_SECRET is required")
	}
	return s, nil
}
