package clan

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// Common clan errors.
var (
	ErrClanNotFound   = errors.New("clan not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotMember      = errors.New("not a member of this clan")
	ErrAlreadyInClan  = errors.New("already in another clan")
	ErrSelfRelation   = errors.New("clan cannot relate to itself")
	ErrNotVerified    = errors.New("clan is not verified")
	ErrClanDisbanded  = errors.New("clan is disbanded")
	ErrClanTagTaken   = errors.New("clan tag already taken")
	ErrClanTagInvalid = errors.New("invalid clan tag")
)

// Clan represents a player clan.
// Thread-safe: all mutable fields protected by mu.
// The tag is immutable and may be read without locking.
type Clan struct {
	mu sync.RWMutex

	tag        string // normalized identity
	displayTag string // tag with color markup
	name       string

	verified     bool
	friendlyFire bool

	founded  int64 // Unix millis
	lastUsed int64 // Unix millis

	capeURL string
	flags   string

	// Lowercase player names, insertion order.
	members []string

	// Normalized tags of related clans. Exclusive and mirrored on the other clan.
	allies []string
	rivals []string

	// Bulletin board, oldest first.
	board []string

	disbanded bool
}

// New creates a new clan with founded/lastUsed set to now.
func New(displayTag, name string, verified bool, now time.Time) *Clan {
	ms := now.UnixMilli()
	return &Clan{
		tag:        NormalizeTag(displayTag),
		displayTag: displayTag,
		name:       name,
		verified:   verified,
		founded:    ms,
		lastUsed:   ms,
		members:    make([]string, 0, 8),
	}
}

// Tag returns the normalized clan tag.
func (c *Clan) Tag() string { return c.tag }

// String implements fmt.Stringer.
func (c *Clan) String() string { return c.tag }

// Compare orders clans by tag, case-insensitive.
func (c *Clan) Compare(other *Clan) int {
	return CompareTags(c.tag, other.tag)
}

// DisplayTag returns the tag with color markup.
func (c *Clan) DisplayTag() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayTag
}

// SetDisplayTag sets the display tag. The normalized tag is not affected.
func (c *Clan) SetDisplayTag(displayTag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.displayTag = displayTag
}

// Name returns the clan name, lowercased.
func (c *Clan) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strings.ToLower(c.name)
}

// SetName sets the clan name.
func (c *Clan) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// StoredVerified returns the persisted verified flag, ignoring settings.
func (c *Clan) StoredVerified() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verified
}

// IsVerified returns true if the clan is verified or verification is not required.
func (c *Clan) IsVerified(s Settings) bool {
	if !s.RequireVerification() {
		return true
	}
	return c.StoredVerified()
}

// SetVerified sets the verified flag.
func (c *Clan) SetVerified(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verified = v
}

// FriendlyFire returns whether members may damage each other.
func (c *Clan) FriendlyFire() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.friendlyFire
}

// SetFriendlyFire toggles friendly fire.
func (c *Clan) SetFriendlyFire(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.friendlyFire = on
}

// Founded returns the founding time (Unix millis).
func (c *Clan) Founded() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.founded
}

// LastUsed returns the last activity time (Unix millis).
func (c *Clan) LastUsed() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUsed
}

// SetLastUsed sets the last activity time.
func (c *Clan) SetLastUsed(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = t.UnixMilli()
}

// InactiveDays returns the whole days elapsed between lastUsed and now.
func (c *Clan) InactiveDays(now time.Time) int {
	d := now.UnixMilli() - c.LastUsed()
	if d <= 0 {
		return 0
	}
	return int(time.Duration(d) * time.Millisecond / (24 * time.Hour))
}

// CapeURL returns the cape url.
func (c *Clan) CapeURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capeURL
}

// SetCapeURL sets the cape url.
func (c *Clan) SetCapeURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capeURL = url
}

// Flags returns the opaque flags string.
func (c *Clan) Flags() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flags
}

// SetFlags sets the opaque flags string.
func (c *Clan) SetFlags(flags string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flags = flags
}

// Disbanded returns true once the clan has been disbanded.
func (c *Clan) Disbanded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disbanded
}

// --- Members ---

// IsMember reports whether the player name is in the member set.
func (c *Clan) IsMember(playerName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.members, NormalizeName(playerName))
}

// Size returns the number of members.
func (c *Clan) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// MemberNames returns a snapshot of member names in join order.
func (c *Clan) MemberNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.members)
}

// addMemberLocked appends name unless already present. Caller holds mu.
func (c *Clan) addMemberLocked(name string) bool {
	if slices.Contains(c.members, name) {
		return false
	}
	c.members = append(c.members, name)
	return true
}

// removeMemberLocked removes name. Caller holds mu.
func (c *Clan) removeMemberLocked(name string) bool {
	return removeString(&c.members, name)
}

// --- Relationships ---

// IsAlly reports whether tag is an ally.
func (c *Clan) IsAlly(tag string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.allies, NormalizeTag(tag))
}

// IsRival reports whether tag is a rival.
func (c *Clan) IsRival(tag string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.rivals, NormalizeTag(tag))
}

// Allies returns a snapshot of ally tags.
func (c *Clan) Allies() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.allies)
}

// Rivals returns a snapshot of rival tags.
func (c *Clan) Rivals() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.rivals)
}

// RivalCount returns the number of rivals.
func (c *Clan) RivalCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rivals)
}

// Single-sided primitives. Callers hold mu and are responsible for the mirror update.

func (c *Clan) addAllyLocked(tag string) {
	if !slices.Contains(c.allies, tag) {
		c.allies = append(c.allies, tag)
	}
}

func (c *Clan) removeAllyLocked(tag string) bool {
	return removeString(&c.allies, tag)
}

func (c *Clan) addRivalLocked(tag string) {
	if !slices.Contains(c.rivals, tag) {
		c.rivals = append(c.rivals, tag)
	}
}

func (c *Clan) removeRivalLocked(tag string) bool {
	return removeString(&c.rivals, tag)
}

// --- Bulletin board ---

// Board returns a snapshot of the bulletin board, oldest first.
func (c *Clan) Board() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.board)
}

// postLocked appends msg and evicts from the front until at most max entries remain.
// A non-positive max keeps only the latest message. Caller holds mu.
func (c *Clan) postLocked(msg string, max int) {
	c.board = append(c.board, msg)
	if max < 1 {
		max = 1
	}
	if over := len(c.board) - max; over > 0 {
		c.board = slices.Delete(c.board, 0, over)
	}
}

// removeString deletes the first occurrence of v from *s.
func removeString(s *[]string, v string) bool {
	i := slices.Index(*s, v)
	if i < 0 {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

// lockPair locks two distinct clans in ascending tag order and returns the unlock func.
func lockPair(a, b *Clan) func() {
	first, second := a, b
	if b.tag < a.tag {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
