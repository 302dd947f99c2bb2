package session

import (
	"context"
	"log/slog"
	"time"
)

// StartSweeper runs a background goroutine that periodically sweeps for
// expired sessions. The interval comes from the manager configuration so
// tests can tick quickly. Errors from a pass are logged and the next tick
// retries; cancelling ctx stops the loop after the in-flight pass.
func (m *Manager) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	go func() {
		defer ticker.Stop()
		slog.Info("session sweeper started", "interval", m.interval, "timeout", m.timeout)

		for {
			select {
			case <-ticker.C:
				if _, err := m.Sweep(ctx); err != nil {
					slog.Error("sweep pass failed", "error", err)
				}
			case <-ctx.Done():
				slog.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
