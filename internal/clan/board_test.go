package clan

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostSystemMessage_EvictsOldest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.settings.boardSize = 3
	c := f.clan(t, "ab", "alpha", "alice")

	for i := range 4 {
		require.NoError(t, f.mgr.PostSystemMessage(ctx, "ab", fmt.Sprintf("m%d", i)))
	}

	assert.Equal(t, []string{"m1", "m2", "m3"}, c.Board())
	rec, ok := f.store.clan("ab")
	require.True(t, ok)
	assert.Equal(t, []string{"m1", "m2", "m3"}, rec.Board)
}

func TestPostSystemMessage_NotGatedOnVerification(t *testing.T) {
	f := newFixture(t)
	f.table.EnsurePlayer("alice")
	c, err := f.mgr.Create(context.Background(), "alice", "ab", "alpha")
	require.NoError(t, err)
	require.False(t, c.IsVerified(f.settings))

	require.NoError(t, f.mgr.PostSystemMessage(context.Background(), "ab", "hello"))
	assert.Equal(t, []string{"hello"}, c.Board())
}

func TestPostAnnouncement(t *testing.T) {
	f := newFixture(t)
	c := f.clan(t, "&aAB", "alpha", "alice")
	f.join(t, "ab", "bob")
	f.join(t, "ab", "carl")
	aliceSink := f.presence.connect("alice")
	bobSink := f.presence.connect("bob")

	require.NoError(t, f.mgr.PostAnnouncement(context.Background(), "ab", "alice", "war tonight"))

	assert.Equal(t, []string{"war tonight"}, c.Board())
	assert.Equal(t, []string{"[&aAB] * war tonight"}, aliceSink.messages())
	assert.Equal(t, []string{"[&aAB] * war tonight"}, bobSink.messages())
}

func TestPostAnnouncement_SinkFailureIgnored(t *testing.T) {
	f := newFixture(t)
	c := f.clan(t, "ab", "alpha", "alice")
	f.presence.connect("alice").fail = true

	require.NoError(t, f.mgr.PostAnnouncement(context.Background(), "ab", "alice", "x"))
	assert.Equal(t, []string{"x"}, c.Board())
}

func TestPostAnnouncement_Unverified(t *testing.T) {
	f := newFixture(t)
	f.table.EnsurePlayer("alice")
	c, err := f.mgr.Create(context.Background(), "alice", "ab", "alpha")
	require.NoError(t, err)

	err = f.mgr.PostAnnouncement(context.Background(), "ab", "alice", "x")
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Empty(t, c.Board())
}

func TestDisplayBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.clan(t, "ab", "red wolves", "alice")
	require.NoError(t, f.mgr.PostSystemMessage(ctx, "ab", "first"))
	require.NoError(t, f.mgr.PostSystemMessage(ctx, "ab", "second"))
	sink := f.presence.connect("alice")

	lines, err := f.mgr.DisplayBoard("ab", "alice")
	require.NoError(t, err)

	want := []string{"* Red Wolves bulletin board", "* first", "* second"}
	assert.Equal(t, want, lines)
	assert.Equal(t, want, sink.messages())
	assert.Equal(t, []string{"first", "second"}, c.Board(), "display does not mutate")
}

func TestDisplayBoard_Unverified(t *testing.T) {
	f := newFixture(t)
	f.table.EnsurePlayer("alice")
	_, err := f.mgr.Create(context.Background(), "alice", "ab", "alpha")
	require.NoError(t, err)

	_, err = f.mgr.DisplayBoard("ab", "alice")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestAnnounce_LeaderAnnounce(t *testing.T) {
	f := newFixture(t)
	c := f.clan(t, "ab", "alpha", "alice")
	f.join(t, "ab", "bob")
	aliceSink := f.presence.connect("alice")
	bobSink := f.presence.connect("bob")

	require.NoError(t, f.mgr.Announce("ab", "server", "hello all"))
	require.NoError(t, f.mgr.LeaderAnnounce("ab", "server", "leaders only"))

	assert.Equal(t, []string{"[ab] hello all", "[ab] leaders only"}, aliceSink.messages())
	assert.Equal(t, []string{"[ab] hello all"}, bobSink.messages())
	assert.Empty(t, c.Board())
}
