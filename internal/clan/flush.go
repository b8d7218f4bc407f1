package clan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/udisondev/clans/internal/metrics"
)

// Flush persists every clan and player, including changes that are not saved
// eagerly (Touch, kill counters, last-seen).
// A BatchStore writes everything in one transaction; other stores get one call per row.
// The population read lock is held until the store returns; Disband waits for it.
func (m *Manager) Flush(ctx context.Context) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	clans := m.dir.Clans()
	crecs := make([]Record, 0, len(clans))
	for _, c := range clans {
		crecs = append(crecs, c.Snapshot())
	}
	players := m.dir.Players()
	precs := make([]PlayerRecord, 0, len(players))
	for _, p := range players {
		precs = append(precs, p.Snapshot())
	}

	metrics.Population.WithLabelValues("clans").Set(float64(len(crecs)))
	metrics.Population.WithLabelValues("players").Set(float64(len(precs)))

	if bs, ok := m.store.(BatchStore); ok {
		start := time.Now()
		err := bs.SaveAll(ctx, crecs, precs)
		metrics.StoreDuration.WithLabelValues("save_all").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.StoreErrors.WithLabelValues("save_all").Inc()
			slog.Warn("flush failed", "clans", len(crecs), "players", len(precs), "err", err)
			return err
		}
		slog.Debug("flushed clan table", "clans", len(crecs), "players", len(precs))
		return nil
	}

	errs := []error{m.saveClans(ctx, crecs...)}
	for _, rec := range precs {
		errs = append(errs, m.savePlayer(ctx, rec))
	}
	return errors.Join(errs...)
}
