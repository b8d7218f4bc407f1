package clan

import "context"

// Store persists clans and players. Implementations must be safe for concurrent use.
type Store interface {
	SaveClan(ctx context.Context, rec Record) error
	DeleteClan(ctx context.Context, tag string) error
	SavePlayer(ctx context.Context, rec PlayerRecord) error
}

// BatchStore is implemented by stores that can write the whole population atomically.
type BatchStore interface {
	SaveAll(ctx context.Context, clans []Record, players []PlayerRecord) error
}

// Loader reads the persisted population at start-up.
type Loader interface {
	LoadClans(ctx context.Context) ([]Record, error)
	LoadPlayers(ctx context.Context) ([]PlayerRecord, error)
}

// Directory resolves clans by tag and players by name, and exposes the
// whole population for scans. Table is the in-memory implementation.
type Directory interface {
	Clan(tag string) *Clan
	Player(name string) *Player
	Clans() []*Clan
	Players() []*Player
	ForEach(fn func(*Clan) bool)
	Register(c *Clan) error
	Remove(tag string) *Clan
}

// Settings is the read-only policy surface consulted by clan operations.
type Settings interface {
	RequireVerification() bool
	BoardSize() int
	RivalLimitPercent() int
	TrustByDefault() bool
	IsUnrivable(tag string) bool
	KillWeights() KillWeights
}

// MessageSink delivers a line of text to one player.
type MessageSink interface {
	Send(msg string) error
}

// Presence answers whether players are online and how to reach them.
type Presence interface {
	IsOnline(name string) bool
	Sink(name string) (MessageSink, bool)
}
