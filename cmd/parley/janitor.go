package main

import (
	"context"
	"log/slog"
	"time"
)

const minJanitorInterval = time.Second

// expirer removes idle sessions.
type expirer interface {
	Expire(idle time.Duration) []string
	Len() int
}

// janitorInterval returns how often to look for sessions idle for longer
// than idle.
func janitorInterval(idle time.Duration) time.Duration {
	if interval := idle / 2; interval > minJanitorInterval {
		return interval
	}
	return minJanitorInterval
}

// expireIdle removes sessions idle for longer than idle every interval until
// ctx is done.
func expireIdle(ctx context.Context, store expirer, idle, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ids := store.Expire(idle); len(ids) > 0 {
				logger.Info("expired idle sessions", "count", len(ids), "remaining", store.Len())
			}
		}
	}
}
