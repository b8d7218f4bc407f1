package clan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/clans/internal/metrics"
)

type relation int

const (
	relAlly relation = iota + 1
	relRival
)

func (r relation) String() string {
	if r == relAlly {
		return "ally"
	}
	return "rival"
}

// AddAlly makes the two clans allies, ending any rivalry between them on both sides.
func (m *Manager) AddAlly(ctx context.Context, tag, otherTag string) error {
	return m.addRelation(ctx, tag, otherTag, relAlly)
}

// AddRival makes the two clans rivals, ending any alliance between them on both sides.
func (m *Manager) AddRival(ctx context.Context, tag, otherTag string) error {
	return m.addRelation(ctx, tag, otherTag, relRival)
}

// RemoveAlly ends the alliance on both sides. Both clans are persisted whether or
// not anything changed; changed reports whether either side held the tag.
func (m *Manager) RemoveAlly(ctx context.Context, tag, otherTag string) (changed bool, err error) {
	return m.removeRelation(ctx, tag, otherTag, relAlly)
}

// RemoveRival ends the rivalry on both sides. See RemoveAlly.
func (m *Manager) RemoveRival(ctx context.Context, tag, otherTag string) (changed bool, err error) {
	return m.removeRelation(ctx, tag, otherTag, relRival)
}

// pair resolves two distinct clans.
func (m *Manager) pair(tag, otherTag string) (*Clan, *Clan, error) {
	a, err := m.Clan(tag)
	if err != nil {
		return nil, nil, err
	}
	b, err := m.Clan(otherTag)
	if err != nil {
		return nil, nil, err
	}
	if a == b {
		return nil, nil, fmt.Errorf("%w: %q", ErrSelfRelation, a.Tag())
	}
	return a, b, nil
}

func (m *Manager) addRelation(ctx context.Context, tag, otherTag string, rel relation) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	a, b, err := m.pair(tag, otherTag)
	if err != nil {
		return err
	}

	unlock := lockPair(a, b)
	if a.disbanded || b.disbanded {
		unlock()
		return ErrClanDisbanded
	}
	switch rel {
	case relAlly:
		a.removeRivalLocked(b.tag)
		a.addAllyLocked(b.tag)
		b.removeRivalLocked(a.tag)
		b.addAllyLocked(a.tag)
	case relRival:
		a.removeAllyLocked(b.tag)
		a.addRivalLocked(b.tag)
		b.removeAllyLocked(a.tag)
		b.addRivalLocked(a.tag)
	}
	ra, rb := a.snapshotLocked(), b.snapshotLocked()
	unlock()

	metrics.RelationshipChanges.WithLabelValues(rel.String(), "add").Inc()
	slog.Debug("clan relation added", "kind", rel, "tag", a.tag, "other", b.tag)
	return m.saveClans(ctx, ra, rb)
}

func (m *Manager) removeRelation(ctx context.Context, tag, otherTag string, rel relation) (bool, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	a, b, err := m.pair(tag, otherTag)
	if err != nil {
		return false, err
	}

	unlock := lockPair(a, b)
	if a.disbanded || b.disbanded {
		unlock()
		return false, ErrClanDisbanded
	}
	var ca, cb bool
	switch rel {
	case relAlly:
		ca = a.removeAllyLocked(b.tag)
		cb = b.removeAllyLocked(a.tag)
	case relRival:
		ca = a.removeRivalLocked(b.tag)
		cb = b.removeRivalLocked(a.tag)
	}
	ra, rb := a.snapshotLocked(), b.snapshotLocked()
	unlock()

	changed := ca || cb
	if changed {
		metrics.RelationshipChanges.WithLabelValues(rel.String(), "remove").Inc()
		slog.Debug("clan relation removed", "kind", rel, "tag", a.tag, "other", b.tag)
	}
	return changed, m.saveClans(ctx, ra, rb)
}

// relationString returns the display tags of related clans that still resolve, joined by sep.
func (m *Manager) relationString(tags []string, sep string) string {
	out := ""
	for _, t := range tags {
		c := m.dir.Clan(t)
		if c == nil {
			continue
		}
		if out != "" {
			out += sep
		}
		out += c.DisplayTag()
	}
	if out == "" {
		return "None"
	}
	return out
}

// AllyString returns the display tags of the clan's allies, or "None".
func (m *Manager) AllyString(tag, sep string) (string, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return "", err
	}
	return m.relationString(c.Allies(), sep), nil
}

// RivalString returns the display tags of the clan's rivals, or "None".
func (m *Manager) RivalString(tag, sep string) (string, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return "", err
	}
	return m.relationString(c.Rivals(), sep), nil
}
