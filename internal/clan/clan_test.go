package clan

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New("&4RedW", "Red Wolves", false, testNow)

	assert.Equal(t, "redw", c.Tag())
	assert.Equal(t, "&4RedW", c.DisplayTag())
	assert.Equal(t, "red wolves", c.Name())
	assert.Equal(t, testNow.UnixMilli(), c.Founded())
	assert.Equal(t, testNow.UnixMilli(), c.LastUsed())
	assert.False(t, c.StoredVerified())
	assert.Zero(t, c.Size())
	assert.Empty(t, c.Board())
}

func TestClan_IsVerified(t *testing.T) {
	s := defaultTestSettings()
	c := New("ab", "a", false, testNow)

	assert.False(t, c.IsVerified(s))

	s.requireVerification = false
	assert.True(t, c.IsVerified(s), "verification not required")

	s.requireVerification = true
	c.SetVerified(true)
	assert.True(t, c.IsVerified(s))
}

func TestClan_Members(t *testing.T) {
	c := New("ab", "a", true, testNow)

	assert.True(t, c.addMemberLocked("alice"))
	assert.False(t, c.addMemberLocked("alice"), "duplicate")
	assert.True(t, c.addMemberLocked("bob"))

	assert.Equal(t, []string{"alice", "bob"}, c.MemberNames())
	assert.True(t, c.IsMember("ALICE"))

	assert.True(t, c.removeMemberLocked("alice"))
	assert.False(t, c.removeMemberLocked("alice"))
	assert.Equal(t, []string{"bob"}, c.MemberNames())
}

func TestClan_PostBoundsBoard(t *testing.T) {
	c := New("ab", "a", true, testNow)

	for i := range 10 {
		c.postLocked(fmt.Sprintf("msg %d", i), 3)
		assert.LessOrEqual(t, len(c.Board()), 3)
	}
	assert.Equal(t, []string{"msg 7", "msg 8", "msg 9"}, c.Board())
}

func TestClan_PostNonPositiveSizeKeepsLatest(t *testing.T) {
	c := New("ab", "a", true, testNow)
	c.postLocked("one", 0)
	c.postLocked("two", 0)
	assert.Equal(t, []string{"two"}, c.Board())
}

func TestClan_InactiveDays(t *testing.T) {
	c := New("ab", "a", true, testNow)

	assert.Zero(t, c.InactiveDays(testNow))
	assert.Zero(t, c.InactiveDays(testNow.Add(23*time.Hour)))
	assert.Equal(t, 3, c.InactiveDays(testNow.Add(72*time.Hour+time.Minute)))
	assert.Zero(t, c.InactiveDays(testNow.Add(-48*time.Hour)), "clock behind last use")
}

func TestClan_SnapshotRoundTrip(t *testing.T) {
	c := New("&aAB", "Alpha", true, testNow)
	c.addMemberLocked("alice")
	c.addAllyLocked("cd")
	c.addRivalLocked("ef")
	c.postLocked("hello", 6)
	c.SetCapeURL("http://cape")
	c.SetFlags("x=1")
	c.SetFriendlyFire(true)

	rec := c.Snapshot()
	restored := FromRecord(rec)

	assert.Equal(t, rec, restored.Snapshot())

	// Snapshot is a copy.
	rec.Members[0] = "mallory"
	assert.Equal(t, []string{"alice"}, c.MemberNames())
}

func TestFromRecord_DerivesTag(t *testing.T) {
	c := FromRecord(Record{DisplayTag: "&cXY", Name: "x"})
	assert.Equal(t, "xy", c.Tag())
}

func TestLockPair_OrderIndependent(t *testing.T) {
	a := New("aa", "a", true, testNow)
	b := New("bb", "b", true, testNow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			unlock := lockPair(a, b)
			unlock()
		}
	}()
	for range 1000 {
		unlock := lockPair(b, a)
		unlock()
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "lockPair deadlocked")
	}
}
