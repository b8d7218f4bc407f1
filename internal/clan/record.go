package clan

import "slices"

// Record is a point-in-time copy of a clan for persistence.
type Record struct {
	Tag          string
	DisplayTag   string
	Name         string
	Verified     bool
	FriendlyFire bool
	Founded      int64
	LastUsed     int64
	CapeURL      string
	Flags        string
	Members      []string
	Allies       []string
	Rivals       []string
	Board        []string
}

// PlayerRecord is a point-in-time copy of a player for persistence.
type PlayerRecord struct {
	Name          string
	CleanName     string
	Tag           string
	Leader        bool
	Trusted       bool
	JoinDate      int64
	LastSeen      int64
	PastClans     []string
	RivalKills    int
	NeutralKills  int
	CivilianKills int
	Deaths        int
}

// Snapshot returns a Record of the clan.
func (c *Clan) Snapshot() Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Clan) snapshotLocked() Record {
	return Record{
		Tag:          c.tag,
		DisplayTag:   c.displayTag,
		Name:         c.name,
		Verified:     c.verified,
		FriendlyFire: c.friendlyFire,
		Founded:      c.founded,
		LastUsed:     c.lastUsed,
		CapeURL:      c.capeURL,
		Flags:        c.flags,
		Members:      slices.Clone(c.members),
		Allies:       slices.Clone(c.allies),
		Rivals:       slices.Clone(c.rivals),
		Board:        slices.Clone(c.board),
	}
}

// FromRecord rebuilds a clan from a persisted record.
func FromRecord(r Record) *Clan {
	tag := r.Tag
	if tag == "" {
		tag = NormalizeTag(r.DisplayTag)
	}
	return &Clan{
		tag:          tag,
		displayTag:   r.DisplayTag,
		name:         r.Name,
		verified:     r.Verified,
		friendlyFire: r.FriendlyFire,
		founded:      r.Founded,
		lastUsed:     r.LastUsed,
		capeURL:      r.CapeURL,
		flags:        r.Flags,
		members:      slices.Clone(r.Members),
		allies:       slices.Clone(r.Allies),
		rivals:       slices.Clone(r.Rivals),
		board:        slices.Clone(r.Board),
	}
}

// Snapshot returns a PlayerRecord of the player.
func (p *Player) Snapshot() PlayerRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

func (p *Player) snapshotLocked() PlayerRecord {
	return PlayerRecord{
		Name:          p.name,
		CleanName:     p.cleanName,
		Tag:           p.tag,
		Leader:        p.leader,
		Trusted:       p.trusted,
		JoinDate:      p.joinDate,
		LastSeen:      p.lastSeen,
		PastClans:     slices.Clone(p.pastClans),
		RivalKills:    p.rivalKills,
		NeutralKills:  p.neutralKills,
		CivilianKills: p.civilianKills,
		Deaths:        p.deaths,
	}
}

// PlayerFromRecord rebuilds a player from a persisted record.
func PlayerFromRecord(r PlayerRecord) *Player {
	clean := r.CleanName
	if clean == "" {
		clean = NormalizeName(r.Name)
	}
	return &Player{
		name:          r.Name,
		cleanName:     clean,
		tag:           r.Tag,
		leader:        r.Leader,
		trusted:       r.Trusted,
		joinDate:      r.JoinDate,
		lastSeen:      r.LastSeen,
		pastClans:     slices.Clone(r.PastClans),
		rivalKills:    r.RivalKills,
		neutralKills:  r.NeutralKills,
		civilianKills: r.CivilianKills,
		deaths:        r.Deaths,
	}
}
