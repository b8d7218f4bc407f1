package clan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/clans/internal/metrics"
)

// Disband notices posted on related clans.
const (
	rivalryEndedFmt  = "%s has been disbanded.  Rivalry has ended."
	allianceEndedFmt = "%s has been disbanded.  Alliance has ended."
	disbandAnnouncer = "Clan Disbanded"
)

// Create founds a new clan with founder as its first leader.
// The clan starts verified unless settings require verification.
func (m *Manager) Create(ctx context.Context, founderName, displayTag, name string) (*Clan, error) {
	if err := validateTag(displayTag); err != nil {
		return nil, err
	}

	m.popMu.RLock()
	defer m.popMu.RUnlock()

	founder, err := m.Player(founderName)
	if err != nil {
		return nil, err
	}
	if founder.InClan() {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyInClan, founder.CleanName())
	}

	c := New(displayTag, name, !m.settings.RequireVerification(), m.now())
	if err := m.dir.Register(c); err != nil {
		return nil, err
	}

	c.mu.Lock()
	founder.mu.Lock()
	if founder.tag != "" {
		founder.mu.Unlock()
		c.mu.Unlock()
		m.dir.Remove(c.tag)
		return nil, fmt.Errorf("%w: %q", ErrAlreadyInClan, founder.cleanName)
	}
	founder.joinLocked(c.tag, c.displayTag, true, m.now())
	founder.leader = true
	c.addMemberLocked(founder.cleanName)
	pr, cr := founder.snapshotLocked(), c.snapshotLocked()
	founder.mu.Unlock()
	c.mu.Unlock()

	metrics.ClansCreated.Inc()
	slog.Info("clan created", "tag", cr.Tag, "name", name, "leader", pr.CleanName)
	return c, errors.Join(m.saveClans(ctx, cr), m.savePlayer(ctx, pr))
}

// Verify marks the clan as verified.
func (m *Manager) Verify(ctx context.Context, tag string) error {
	return m.update(ctx, tag, func(c *Clan) { c.verified = true })
}

// ChangeDisplayTag replaces the colored display tag. The normalized tag must not change.
func (m *Manager) ChangeDisplayTag(ctx context.Context, tag, displayTag string) error {
	if NormalizeTag(displayTag) != NormalizeTag(tag) {
		return fmt.Errorf("%w: %q does not match %q", ErrClanTagInvalid, displayTag, tag)
	}
	return m.update(ctx, tag, func(c *Clan) { c.displayTag = displayTag })
}

// SetCape sets the clan's cape url.
func (m *Manager) SetCape(ctx context.Context, tag, url string) error {
	return m.update(ctx, tag, func(c *Clan) { c.capeURL = url })
}

// SetFriendlyFire toggles friendly fire.
func (m *Manager) SetFriendlyFire(ctx context.Context, tag string, on bool) error {
	return m.update(ctx, tag, func(c *Clan) { c.friendlyFire = on })
}

// SetFlags replaces the opaque flags string.
func (m *Manager) SetFlags(ctx context.Context, tag, flags string) error {
	return m.update(ctx, tag, func(c *Clan) { c.flags = flags })
}

// Touch records activity on the clan. The change is persisted by the next save.
func (m *Manager) Touch(tag string) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disbanded {
		return ErrClanDisbanded
	}
	c.lastUsed = m.now().UnixMilli()
	return nil
}

// update applies fn under the clan lock and persists the result.
func (m *Manager) update(ctx context.Context, tag string, fn func(*Clan)) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.disbanded {
		c.mu.Unlock()
		return ErrClanDisbanded
	}
	fn(c)
	rec := c.snapshotLocked()
	c.mu.Unlock()

	return m.saveClans(ctx, rec)
}

// IsUnrivable reports whether settings exclude the clan from rivalries.
func (m *Manager) IsUnrivable(tag string) bool {
	return m.settings.IsUnrivable(NormalizeTag(tag))
}

// RivableCount returns the number of clans that may be declared rivals.
func (m *Manager) RivableCount() int {
	m.popMu.RLock()
	defer m.popMu.RUnlock()
	return m.rivableCount()
}

func (m *Manager) rivableCount() int {
	n := 0
	m.dir.ForEach(func(c *Clan) bool {
		if !m.settings.IsUnrivable(c.Tag()) {
			n++
		}
		return true
	})
	return n
}

// ReachedRivalLimit reports whether the clan holds more rivals than
// (rivable clans - 1) * RivalLimitPercent / 100. Advisory only.
func (m *Manager) ReachedRivalLimit(tag string) (bool, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return false, err
	}
	others := float64(m.rivableCount() - 1)
	limit := others * (float64(m.settings.RivalLimitPercent()) / 100)
	return float64(c.RivalCount()) > limit, nil
}

// Disband removes the clan for good.
//
// The store delete runs first; if it fails nothing changes. After that the clan
// is removed from the directory, every player in it is detached, and every other
// clan drops its ally/rival entry for it with a board notice. Failures past the
// delete are joined and returned; in-memory changes are kept.
func (m *Manager) Disband(ctx context.Context, tag string) error {
	m.popMu.Lock()
	defer m.popMu.Unlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	if err := m.deleteClan(ctx, c.Tag()); err != nil {
		slog.Warn("clan disband aborted", "tag", c.Tag(), "err", err)
		return fmt.Errorf("disband %q: %w", c.Tag(), err)
	}

	c.mu.Lock()
	c.disbanded = true
	verified := !m.settings.RequireVerification() || c.verified
	displayTag := c.displayTag
	title := Capitalize(c.name)
	c.mu.Unlock()

	m.dir.Remove(c.Tag())

	var (
		errMu sync.Mutex
		errs  []error
	)
	collect := func(err error) {
		if err == nil {
			return
		}
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(m.persistLimit)
	detached := 0
	for _, p := range m.dir.Players() {
		p.mu.Lock()
		if p.tag != c.Tag() {
			p.mu.Unlock()
			continue
		}
		p.leaveLocked(displayTag, verified)
		rec := p.snapshotLocked()
		p.mu.Unlock()
		detached++

		g.Go(func() error {
			collect(m.savePlayer(ctx, rec))
			return nil
		})
	}
	_ = g.Wait()

	boardSize := m.settings.BoardSize()
	for _, other := range m.dir.Clans() {
		other.mu.Lock()
		changed := false
		var notices []string
		if other.removeRivalLocked(c.Tag()) {
			n := fmt.Sprintf(rivalryEndedFmt, title)
			other.postLocked(n, boardSize)
			notices = append(notices, n)
			changed = true
		}
		if other.removeAllyLocked(c.Tag()) {
			n := fmt.Sprintf(allianceEndedFmt, title)
			other.postLocked(n, boardSize)
			notices = append(notices, n)
			changed = true
		}
		rec := other.snapshotLocked()
		other.mu.Unlock()

		if !changed {
			continue
		}
		metrics.BoardPosts.WithLabelValues("system").Add(float64(len(notices)))
		members := m.resolve(other)
		for _, n := range notices {
			m.broadcast(other, members, disbandAnnouncer, "* "+n, "clan announce")
		}
		collect(m.saveClans(ctx, rec))
	}

	metrics.ClansDisbanded.Inc()
	slog.Info("clan disbanded", "tag", c.Tag(), "players_detached", detached)
	return errors.Join(errs...)
}
