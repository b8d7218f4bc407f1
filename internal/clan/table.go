package clan

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Table holds every clan and player known to the server.
// Thread-safe: protected by RWMutex.
type Table struct {
	mu sync.RWMutex

	// Clans by normalized tag.
	clans map[string]*Clan

	// Players by lowercase name.
	players map[string]*Player
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		clans:   make(map[string]*Clan, 128),
		players: make(map[string]*Player, 512),
	}
}

// Restore fills the table from persisted records (used on start-up).
func (t *Table) Restore(clans []Record, players []PlayerRecord) error {
	for _, r := range clans {
		if err := t.Register(FromRecord(r)); err != nil {
			return err
		}
	}
	for _, r := range players {
		t.AddPlayer(PlayerFromRecord(r))
	}
	slog.Info("clan table restored", "clans", len(clans), "players", len(players))
	return nil
}

// Register adds a clan to the table.
// Returns ErrClanTagTaken if the tag is already registered.
func (t *Table) Register(c *Clan) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.clans[c.Tag()]; ok {
		return fmt.Errorf("register clan %q: %w", c.Tag(), ErrClanTagTaken)
	}
	t.clans[c.Tag()] = c
	return nil
}

// Remove removes a clan by tag and returns it, or nil if not found.
func (t *Table) Remove(tag string) *Clan {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := NormalizeTag(tag)
	c, ok := t.clans[key]
	if !ok {
		return nil
	}
	delete(t.clans, key)
	return c
}

// Clan returns a clan by tag (markup and case ignored), or nil if not found.
func (t *Table) Clan(tag string) *Clan {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clans[NormalizeTag(tag)]
}

// Count returns the number of registered clans.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clans)
}

// Clans returns a snapshot of all clans ordered by tag.
func (t *Table) Clans() []*Clan {
	t.mu.RLock()
	result := make([]*Clan, 0, len(t.clans))
	for _, c := range t.clans {
		result = append(result, c)
	}
	t.mu.RUnlock()

	slices.SortFunc(result, (*Clan).Compare)
	return result
}

// ForEach iterates over all clans.
// Return false from fn to stop iteration.
func (t *Table) ForEach(fn func(*Clan) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, c := range t.clans {
		if !fn(c) {
			return
		}
	}
}

// AddPlayer registers a player, replacing any record with the same name.
func (t *Table) AddPlayer(p *Player) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.players[p.CleanName()] = p
}

// EnsurePlayer returns the player with this name, creating it if needed.
func (t *Table) EnsurePlayer(name string) *Player {
	key := NormalizeName(name)

	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.players[key]; ok {
		return p
	}
	p := NewPlayer(name)
	t.players[key] = p
	return p
}

// Player returns a player by name (case-insensitive), or nil if not found.
func (t *Table) Player(name string) *Player {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.players[NormalizeName(name)]
}

// Players returns a snapshot of all players.
func (t *Table) Players() []*Player {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*Player, 0, len(t.players))
	for _, p := range t.players {
		result = append(result, p)
	}
	return result
}

// PlayerCount returns the number of known players.
func (t *Table) PlayerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.players)
}
