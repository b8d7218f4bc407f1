package clan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_RegisterAndLookup(t *testing.T) {
	tbl := NewTable()
	c := New("&aAB", "a", true, testNow)

	require.NoError(t, tbl.Register(c))
	assert.Same(t, c, tbl.Clan("ab"))
	assert.Same(t, c, tbl.Clan("&cAB"), "markup and case ignored")
	assert.Equal(t, 1, tbl.Count())

	err := tbl.Register(New("AB", "dup", true, testNow))
	assert.ErrorIs(t, err, ErrClanTagTaken)

	assert.Same(t, c, tbl.Remove("AB"))
	assert.Nil(t, tbl.Remove("AB"))
	assert.Nil(t, tbl.Clan("ab"))
}

func TestTable_ClansSorted(t *testing.T) {
	tbl := NewTable()
	for _, tag := range []string{"zz", "Bb", "aa"} {
		require.NoError(t, tbl.Register(New(tag, tag, true, testNow)))
	}

	var tags []string
	for _, c := range tbl.Clans() {
		tags = append(tags, c.Tag())
	}
	assert.Equal(t, []string{"aa", "bb", "zz"}, tags)
}

func TestTable_ForEachStops(t *testing.T) {
	tbl := NewTable()
	for _, tag := range []string{"aa", "bb", "cc"} {
		require.NoError(t, tbl.Register(New(tag, tag, true, testNow)))
	}

	n := 0
	tbl.ForEach(func(*Clan) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}

func TestTable_Players(t *testing.T) {
	tbl := NewTable()

	p := tbl.EnsurePlayer("Alice")
	assert.Same(t, p, tbl.EnsurePlayer("ALICE"))
	assert.Same(t, p, tbl.Player("alice"))
	assert.Nil(t, tbl.Player("bob"))

	tbl.AddPlayer(NewPlayer("Bob"))
	assert.Equal(t, 2, tbl.PlayerCount())
	assert.Len(t, tbl.Players(), 2)
}

func TestTable_Restore(t *testing.T) {
	tbl := NewTable()
	err := tbl.Restore(
		[]Record{{Tag: "ab", DisplayTag: "AB", Name: "a", Members: []string{"alice"}}},
		[]PlayerRecord{{Name: "Alice", CleanName: "alice", Tag: "ab", Leader: true}},
	)
	require.NoError(t, err)

	require.NotNil(t, tbl.Clan("ab"))
	assert.True(t, tbl.Clan("ab").IsMember("alice"))
	assert.True(t, tbl.Player("alice").IsLeader())

	err = tbl.Restore([]Record{{Tag: "ab", DisplayTag: "AB"}}, nil)
	assert.ErrorIs(t, err, ErrClanTagTaken)
}
