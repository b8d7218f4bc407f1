package clan

import (
	"context"
	"log/slog"
	"time"
)

// InactiveClans returns the clans idle for at least days, ordered by tag.
func (m *Manager) InactiveClans(days int) []*Clan {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	now := m.now()
	var out []*Clan
	for _, c := range m.dir.Clans() {
		if c.InactiveDays(now) >= days {
			out = append(out, c)
		}
	}
	return out
}

// RunSaveLoop periodically flushes the whole population to the store.
// A final flush runs on cancellation. Blocks until ctx is canceled.
func (m *Manager) RunSaveLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("clan save loop started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			if err := m.Flush(final); err != nil {
				slog.Error("final clan flush failed", "err", err)
			}
			cancel()
			slog.Info("clan save loop stopping")
			return ctx.Err()
		case <-ticker.C:
			_ = m.Flush(ctx) // logged by Flush
		}
	}
}

// RunInactivityReport periodically logs clans idle for at least warnDays.
// Blocks until ctx is canceled.
func (m *Manager) RunInactivityReport(ctx context.Context, interval time.Duration, warnDays int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := m.now()
			for _, c := range m.InactiveClans(warnDays) {
				slog.Warn("inactive clan", "tag", c.Tag(), "days", c.InactiveDays(now), "members", c.Size())
			}
		}
	}
}
