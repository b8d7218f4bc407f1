package clan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/clans/internal/metrics"
)

// defaultPersistLimit bounds concurrent store writes during fan-out operations.
const defaultPersistLimit = 8

// Manager coordinates every clan mutation: relationships, membership,
// bulletin boards and the clan lifecycle.
//
// Locking discipline:
//   - popMu is held for writing by Disband only; every other operation holds it
//     for reading, so no operation can observe a half-removed clan.
//   - Two clans are always locked in ascending tag order.
//   - A clan is locked before any of its players.
//   - Store calls run after entity locks are released, from snapshots.
type Manager struct {
	popMu sync.RWMutex

	dir      Directory
	store    Store
	settings Settings
	presence Presence

	now          func() time.Time
	persistLimit int
}

// Option configures a Manager.
type Option func(*Manager)

// WithPresence sets the presence oracle used for online checks and broadcasts.
func WithPresence(p Presence) Option {
	return func(m *Manager) { m.presence = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithPersistLimit bounds concurrent store writes during Disband.
func WithPersistLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.persistLimit = n
		}
	}
}

// NewManager creates a Manager over the given directory, store and settings.
func NewManager(dir Directory, store Store, settings Settings, opts ...Option) *Manager {
	m := &Manager{
		dir:          dir,
		store:        store,
		settings:     settings,
		presence:     nobodyOnline{},
		now:          time.Now,
		persistLimit: defaultPersistLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Clan resolves a clan by tag.
func (m *Manager) Clan(tag string) (*Clan, error) {
	c := m.dir.Clan(tag)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrClanNotFound, tag)
	}
	return c, nil
}

// Player resolves a player by name.
func (m *Manager) Player(name string) (*Player, error) {
	p := m.dir.Player(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrPlayerNotFound, name)
	}
	return p, nil
}

// --- Persistence ---

func (m *Manager) saveClans(ctx context.Context, recs ...Record) error {
	var errs []error
	for _, rec := range recs {
		start := time.Now()
		err := m.store.SaveClan(ctx, rec)
		metrics.StoreDuration.WithLabelValues("save_clan").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.StoreErrors.WithLabelValues("save_clan").Inc()
			slog.Warn("save clan failed", "tag", rec.Tag, "err", err)
			errs = append(errs, fmt.Errorf("save clan %q: %w", rec.Tag, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) savePlayer(ctx context.Context, rec PlayerRecord) error {
	start := time.Now()
	err := m.store.SavePlayer(ctx, rec)
	metrics.StoreDuration.WithLabelValues("save_player").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrors.WithLabelValues("save_player").Inc()
		slog.Warn("save player failed", "player", rec.CleanName, "err", err)
		return fmt.Errorf("save player %q: %w", rec.CleanName, err)
	}
	return nil
}

func (m *Manager) deleteClan(ctx context.Context, tag string) error {
	start := time.Now()
	err := m.store.DeleteClan(ctx, tag)
	metrics.StoreDuration.WithLabelValues("delete_clan").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrors.WithLabelValues("delete_clan").Inc()
		return fmt.Errorf("delete clan %q: %w", tag, err)
	}
	return nil
}

// savePlayerAndClan persists the player first, then the clan, reporting both failures.
func (m *Manager) savePlayerAndClan(ctx context.Context, p PlayerRecord, c Record) error {
	return errors.Join(m.savePlayer(ctx, p), m.saveClans(ctx, c))
}

// nobodyOnline is the Presence used when none is configured.
type nobodyOnline struct{}

func (nobodyOnline) IsOnline(string) bool            { return false }
func (nobodyOnline) Sink(string) (MessageSink, bool) { return nil, false }
