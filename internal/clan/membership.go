package clan

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/udisondev/clans/internal/metrics"
)

// Join adds the player to the clan as a non-leader.
// Joining the clan the player is already in is a no-op on the member set but
// still resets leadership. Trust is granted when TrustByDefault is on and never
// revoked by a join. A player in a different clan gets ErrAlreadyInClan.
func (m *Manager) Join(ctx context.Context, tag, playerName string) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	p, err := m.Player(playerName)
	if err != nil {
		return err
	}

	c.mu.Lock()
	p.mu.Lock()
	if c.disbanded {
		p.mu.Unlock()
		c.mu.Unlock()
		return ErrClanDisbanded
	}
	if p.tag != "" && p.tag != c.tag {
		other := p.tag
		p.mu.Unlock()
		c.mu.Unlock()
		return fmt.Errorf("%w: %q is in %q", ErrAlreadyInClan, p.cleanName, other)
	}
	p.joinLocked(c.tag, c.displayTag, m.settings.TrustByDefault(), m.now())
	c.addMemberLocked(p.cleanName)
	pr, cr := p.snapshotLocked(), c.snapshotLocked()
	p.mu.Unlock()
	c.mu.Unlock()

	metrics.MembershipChanges.WithLabelValues("join").Inc()
	slog.Info("player joined clan", "tag", cr.Tag, "player", pr.CleanName)
	return m.savePlayerAndClan(ctx, pr, cr)
}

// Leave removes the player from the clan and records the clan in the player's history.
func (m *Manager) Leave(ctx context.Context, tag, playerName string) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	p, err := m.Player(playerName)
	if err != nil {
		return err
	}

	c.mu.Lock()
	p.mu.Lock()
	if !slices.Contains(c.members, p.cleanName) {
		p.mu.Unlock()
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotMember, p.cleanName)
	}
	p.leaveLocked(c.displayTag, true)
	c.removeMemberLocked(p.cleanName)
	pr, cr := p.snapshotLocked(), c.snapshotLocked()
	p.mu.Unlock()
	c.mu.Unlock()

	metrics.MembershipChanges.WithLabelValues("leave").Inc()
	slog.Info("player left clan", "tag", cr.Tag, "player", pr.CleanName)
	return m.savePlayerAndClan(ctx, pr, cr)
}

// Promote makes a member a leader.
func (m *Manager) Promote(ctx context.Context, tag, playerName string) error {
	return m.setLeader(ctx, tag, playerName, true)
}

// Demote turns a leader back into a regular member.
func (m *Manager) Demote(ctx context.Context, tag, playerName string) error {
	return m.setLeader(ctx, tag, playerName, false)
}

func (m *Manager) setLeader(ctx context.Context, tag, playerName string, leader bool) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	p, err := m.Player(playerName)
	if err != nil {
		return err
	}

	c.mu.RLock()
	p.mu.Lock()
	if !slices.Contains(c.members, p.cleanName) {
		p.mu.Unlock()
		c.mu.RUnlock()
		return fmt.Errorf("%w: %q", ErrNotMember, p.cleanName)
	}
	p.leader = leader
	pr, cr := p.snapshotLocked(), c.snapshotLocked()
	p.mu.Unlock()
	c.mu.RUnlock()

	op := "demote"
	if leader {
		op = "promote"
	}
	metrics.MembershipChanges.WithLabelValues(op).Inc()
	slog.Info("clan rank changed", "tag", cr.Tag, "player", pr.CleanName, "leader", leader)
	return m.savePlayerAndClan(ctx, pr, cr)
}

// --- Read-through queries ---
//
// Member lists are resolved through the Directory on every call, O(members).
// Names that no longer resolve are skipped.

// Members returns the clan's resolved members in join order.
func (m *Manager) Members(tag string) ([]*Player, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return nil, err
	}
	return m.resolve(c), nil
}

// Leaders returns the clan's resolved leaders in join order.
func (m *Manager) Leaders(tag string) ([]*Player, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return nil, err
	}
	return m.leaders(c), nil
}

// NonLeaders returns the clan's non-leader members sorted by display name, case-insensitive.
func (m *Manager) NonLeaders(tag string) ([]*Player, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return nil, err
	}
	out := slices.DeleteFunc(m.resolve(c), (*Player).IsLeader)
	slices.SortFunc(out, comparePlayerNames)
	return out, nil
}

// LeaderNames returns the leaders' display names, each with prefix, joined by sep.
func (m *Manager) LeaderNames(tag, prefix, sep string) (string, error) {
	leaders, err := m.Leaders(tag)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(leaders))
	for _, p := range leaders {
		names = append(names, prefix+p.Name())
	}
	return strings.Join(names, sep), nil
}

// IsLeader reports whether the player is a member and a leader of the clan.
func (m *Manager) IsLeader(tag, playerName string) bool {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c := m.dir.Clan(tag)
	if c == nil || !c.IsMember(playerName) {
		return false
	}
	p := m.dir.Player(playerName)
	return p != nil && p.IsLeader()
}

// AllLeadersOnline reports whether every leader is online.
func (m *Manager) AllLeadersOnline(tag string) (bool, error) {
	return m.AllOtherLeadersOnline(tag, "")
}

// AllOtherLeadersOnline reports whether every leader except playerName
// (case-insensitive) is online.
func (m *Manager) AllOtherLeadersOnline(tag, playerName string) (bool, error) {
	leaders, err := m.Leaders(tag)
	if err != nil {
		return false, err
	}
	for _, p := range leaders {
		if playerName != "" && strings.EqualFold(p.Name(), playerName) {
			continue
		}
		if !m.presence.IsOnline(p.Name()) {
			return false, nil
		}
	}
	return true, nil
}

// AnyOnline reports whether at least one member is online.
func (m *Manager) AnyOnline(tag string) (bool, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return false, err
	}
	for _, name := range c.MemberNames() {
		if m.presence.IsOnline(name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) leaders(c *Clan) []*Player {
	return slices.DeleteFunc(m.resolve(c), func(p *Player) bool { return !p.IsLeader() })
}

func (m *Manager) resolve(c *Clan) []*Player {
	names := c.MemberNames()
	out := make([]*Player, 0, len(names))
	for _, name := range names {
		if p := m.dir.Player(name); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func comparePlayerNames(a, b *Player) int {
	return strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
}
