package clan

import (
	"slices"
	"sync"
	"time"
)

// Player is a player's clan-facing record.
// Thread-safe: fields are protected by mu.
// The clan is referenced by tag only and resolved through the Directory.
type Player struct {
	mu sync.RWMutex

	name      string // display name
	cleanName string // lowercase lookup key, immutable

	tag      string // current clan tag, empty if none
	leader   bool
	trusted  bool
	joinDate int64 // Unix millis, 0 if not in a clan
	lastSeen int64 // Unix millis

	pastClans []string // display tags, "*" suffix for former leaders

	rivalKills    int
	neutralKills  int
	civilianKills int
	deaths        int
}

// NewPlayer creates a clanless player record.
func NewPlayer(name string) *Player {
	return &Player{
		name:      name,
		cleanName: NormalizeName(name),
	}
}

// Name returns the player's display name.
func (p *Player) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// CleanName returns the lowercase lookup key.
func (p *Player) CleanName() string {
	return p.cleanName // immutable, no lock needed
}

// Tag returns the current clan tag, or "" if clanless.
func (p *Player) Tag() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tag
}

// InClan reports whether the player currently belongs to a clan.
func (p *Player) InClan() bool {
	return p.Tag() != ""
}

// IsLeader returns the leader flag.
func (p *Player) IsLeader() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.leader
}

// IsTrusted returns the trust flag.
func (p *Player) IsTrusted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trusted
}

// SetTrusted sets the trust flag.
func (p *Player) SetTrusted(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trusted = v
}

// JoinDate returns when the player joined the current clan (Unix millis).
func (p *Player) JoinDate() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.joinDate
}

// LastSeen returns the last time the player was seen (Unix millis).
func (p *Player) LastSeen() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSeen
}

// SetLastSeen updates the last seen time.
func (p *Player) SetLastSeen(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen = t.UnixMilli()
}

// PastClans returns a snapshot of the past-clan history.
func (p *Player) PastClans() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.pastClans)
}

// --- Combat stats ---

// RivalKills returns kills against rival clan members.
func (p *Player) RivalKills() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rivalKills
}

// NeutralKills returns kills against members of unrelated clans.
func (p *Player) NeutralKills() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.neutralKills
}

// CivilianKills returns kills against clanless players.
func (p *Player) CivilianKills() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.civilianKills
}

// Deaths returns the death count.
func (p *Player) Deaths() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.deaths
}

// AddRivalKill increments rival kills.
func (p *Player) AddRivalKill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rivalKills++
}

// AddNeutralKill increments neutral kills.
func (p *Player) AddNeutralKill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.neutralKills++
}

// AddCivilianKill increments civilian kills.
func (p *Player) AddCivilianKill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.civilianKills++
}

// AddDeath increments deaths.
func (p *Player) AddDeath() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deaths++
}

// WeightedKills returns kills weighted by victim category.
func (p *Player) WeightedKills(w KillWeights) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.weightedKillsLocked(w)
}

func (p *Player) weightedKillsLocked(w KillWeights) float64 {
	return float64(p.rivalKills)*w.Rival +
		float64(p.neutralKills)*w.Neutral +
		float64(p.civilianKills)*w.Civilian
}

// KillWeights are the multipliers applied per victim category.
type KillWeights struct {
	Rival    float64 `yaml:"rival"`
	Neutral  float64 `yaml:"neutral"`
	Civilian float64 `yaml:"civilian"`
}

// DefaultKillWeights returns the stock weights: rival x2, neutral x1, civilian x0.
func DefaultKillWeights() KillWeights {
	return KillWeights{Rival: 2, Neutral: 1, Civilian: 0}
}

// --- Transitions. Callers hold p.mu. ---

func (p *Player) joinLocked(tag, displayTag string, trusted bool, now time.Time) {
	p.removePastClanLocked(displayTag)
	p.tag = tag
	p.leader = false
	if trusted {
		p.trusted = true
	}
	p.joinDate = now.UnixMilli()
}

// leaveLocked detaches the player. With record set, the clan is appended to the
// history, marked with "*" if the player was a leader.
func (p *Player) leaveLocked(displayTag string, record bool) {
	if record {
		entry := displayTag
		if p.leader {
			entry += "*"
		}
		p.pastClans = append(p.pastClans, entry)
	}
	p.tag = ""
	p.leader = false
	p.trusted = false
	p.joinDate = 0
}

func (p *Player) removePastClanLocked(displayTag string) {
	p.pastClans = slices.DeleteFunc(p.pastClans, func(s string) bool {
		return s == displayTag || s == displayTag+"*"
	})
}
