package main

import (
	"errors"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
)

type settings struct {
	ServiceName string
	LogLevel    string
	Port        string

	KafkaBrokers []string
	GroupID      string
	Topic        string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	WorkerConcurrency int
	MaxRetry          int
	ShutdownTimeout   time.Duration

	SMTPHost        string // empty logs emails instead of sending them
	SMTPPort        string
	SMTPFrom        string
	RecipientDomain string
}

func loadSettings(l *config.Loader) (settings, error) {
	s := settings{
		ServiceName:     l.String("SERVICE_NAME", "notification-service"),
		LogLevel:        l.String("LOG_LEVEL", "info"),
		KafkaBrokers:    kafkax.SplitBrokers(l.String("KAFKA_BROKERS", "")),
		GroupID:         l.String("KAFKA_GROUP_ID", "notification-service"),
		Topic:           l.String("KAFKA_TOPIC", "reservation.created.v1"),
		RedisAddr:       l.String("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   l.String("REDIS_PASSWORD", ""),
		SMTPHost:        l.String("SMTP_HOST", ""),
		SMTPPort:        l.String("SMTP_PORT", "1025"),
		SMTPFrom:        l.String("SMTP_FROM", "no-reply@slotbook.local"),
		RecipientDomain: l.String("RECIPIENT_DOMAIN", "slotbook.local"),
	}

	var err error
	if s.Port, err = l.Port("PORT", "8085"); err != nil {
		return settings{}, err
	}
	if s.RedisDB, err = l.Int("REDIS_DB", 0); err != nil {
		return settings{}, err
	}
	if s.WorkerConcurrency, err = l.Int("WORKER_CONCURRENCY", 10); err != nil {
		return settings{}, err
	}
	if s.MaxRetry, err = l.Int("TASK_MAX_RETRY", 5); err != nil {
		return settings{}, err
	}
	if s.ShutdownTimeout, err = l.Duration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return settings{}, err
	}

	if len(s.KafkaBrokers) == 0 {
		return settings{}, errors.New("KAFKA_BROKERS is required")
	}
	if s.WorkerConcurrency < 1 {
		return settings{}, errors.New("WORKER_CONCURRENCY must be at least 1")
	}
	if s.MaxRetry < 0 {
		return settings{}, errors.New("TASK_MAX_RETRY must not be negative")
	}
	return s, nil
}
