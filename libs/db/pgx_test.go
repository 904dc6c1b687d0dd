package db

import (
	"context"
	"testing"
	"time"
)

func TestPick(t *testing.T) {
	if got := pick(int32(0), int32(10)); got != 10 {
		t.Fatalf("expected fallback 10, got %d", got)
	}
	if got := pick(int32(4), int32(10)); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if got := pick(time.Duration(0), time.Minute); got != time.Minute {
		t.Fatalf("expected 1m, got %s", got)
	}
}

func TestOpenRejectsBadURL(t *testing.T) {
	if _, err := Open(context.Background(), "://not a url", PoolOptions{}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestReadyCheckWithoutPool(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); err == nil {
		t.Fatal("expected error for nil pool")
	}
}
