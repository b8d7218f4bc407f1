package clan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/clans/internal/metrics"
)

// PostSystemMessage appends text to the clan's bulletin board, evicting the
// oldest entries beyond the configured size, and persists the clan.
func (m *Manager) PostSystemMessage(ctx context.Context, tag, text string) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	rec, err := m.post(c, text)
	if err != nil {
		return err
	}
	metrics.BoardPosts.WithLabelValues("system").Inc()
	return m.saveClans(ctx, rec)
}

// PostAnnouncement posts text to the board and broadcasts it to every online member.
// Returns ErrNotVerified if the clan is not verified.
func (m *Manager) PostAnnouncement(ctx context.Context, tag, announcer, text string) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	if !c.IsVerified(m.settings) {
		return fmt.Errorf("%w: %q", ErrNotVerified, c.Tag())
	}
	rec, err := m.post(c, text)
	if err != nil {
		return err
	}
	metrics.BoardPosts.WithLabelValues("announcement").Inc()
	m.broadcast(c, m.resolve(c), announcer, "* "+text, "clan announce")
	return m.saveClans(ctx, rec)
}

// DisplayBoard sends the board, with a heading, to the viewer and returns the rendered lines.
// Nothing is mutated. Returns ErrNotVerified if the clan is not verified.
func (m *Manager) DisplayBoard(tag, viewer string) ([]string, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return nil, err
	}
	if !c.IsVerified(m.settings) {
		return nil, fmt.Errorf("%w: %q", ErrNotVerified, c.Tag())
	}

	board := c.Board()
	lines := make([]string, 0, len(board)+1)
	lines = append(lines, "* "+Capitalize(c.Name())+" bulletin board")
	for _, msg := range board {
		lines = append(lines, "* "+msg)
	}

	if sink, ok := m.presence.Sink(viewer); ok {
		for _, line := range lines {
			if err := sink.Send(line); err != nil {
				slog.Debug("board delivery failed", "tag", c.Tag(), "viewer", viewer, "err", err)
				break
			}
		}
	}
	return lines, nil
}

// Announce sends a message to every online member without touching the board.
func (m *Manager) Announce(tag, announcer, text string) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	m.broadcast(c, m.resolve(c), announcer, text, "clan announce")
	return nil
}

// LeaderAnnounce sends a message to every online leader.
func (m *Manager) LeaderAnnounce(tag, announcer, text string) error {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return err
	}
	m.broadcast(c, m.leaders(c), announcer, text, "leader announce")
	return nil
}

func (m *Manager) post(c *Clan, text string) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disbanded {
		return Record{}, ErrClanDisbanded
	}
	c.postLocked(text, m.settings.BoardSize())
	return c.snapshotLocked(), nil
}

// broadcast delivers "[displayTag] text" to each recipient that has a sink.
// Delivery failures are logged and skipped.
func (m *Manager) broadcast(c *Clan, to []*Player, announcer, text, kind string) {
	msg := fmt.Sprintf("[%s] %s", c.DisplayTag(), text)
	for _, p := range to {
		sink, ok := m.presence.Sink(p.Name())
		if !ok {
			continue
		}
		if err := sink.Send(msg); err != nil {
			slog.Debug("announce delivery failed", "tag", c.Tag(), "player", p.CleanName(), "err", err)
		}
	}
	slog.Info(kind, "tag", c.Tag(), "announcer", announcer, "message", StripColors(msg))
}
