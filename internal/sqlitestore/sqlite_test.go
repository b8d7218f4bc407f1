package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/clans/internal/clan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "clans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleClan() clan.Record {
	return clan.Record{
		Tag:          "rw",
		DisplayTag:   "&4RW",
		Name:         "Red Wolves",
		Verified:     true,
		FriendlyFire: true,
		Founded:      1000,
		LastUsed:     2000,
		CapeURL:      "http://cape",
		Flags:        "a=1",
		Members:      []string{"alice", "bob"},
		Allies:       []string{"bb"},
		Rivals:       []string{"cc", "dd"},
		Board:        []string{"hello", "world"},
	}
}

func samplePlayer() clan.PlayerRecord {
	return clan.PlayerRecord{
		Name:          "Alice",
		CleanName:     "alice",
		Tag:           "rw",
		Leader:        true,
		Trusted:       true,
		JoinDate:      1500,
		LastSeen:      2500,
		PastClans:     []string{"OLD*"},
		RivalKills:    3,
		NeutralKills:  2,
		CivilianKills: 1,
		Deaths:        4,
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStore_ClanRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := sampleClan()
	require.NoError(t, s.SaveClan(ctx, rec))

	got, err := s.LoadClans(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])

	rec.Board = append(rec.Board, "again")
	rec.Rivals = nil
	require.NoError(t, s.SaveClan(ctx, rec))

	got, err = s.LoadClans(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1, "upsert keeps one row")
	assert.Equal(t, []string{"hello", "world", "again"}, got[0].Board)
	assert.Empty(t, got[0].Rivals)
}

func TestStore_DeleteClan(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveClan(ctx, sampleClan()))

	require.NoError(t, s.DeleteClan(ctx, "rw"))
	require.NoError(t, s.DeleteClan(ctx, "rw"), "missing clan is not an error")

	got, err := s.LoadClans(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_PlayerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := samplePlayer()
	require.NoError(t, s.SavePlayer(ctx, rec))

	got, err := s.LoadPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestStore_SaveAll(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	other := sampleClan()
	other.Tag, other.DisplayTag = "bb", "BB"
	bob := samplePlayer()
	bob.Name, bob.CleanName = "Bob", "bob"

	require.NoError(t, s.SaveAll(ctx,
		[]clan.Record{sampleClan(), other},
		[]clan.PlayerRecord{samplePlayer(), bob},
	))

	clans, err := s.LoadClans(ctx)
	require.NoError(t, err)
	require.Len(t, clans, 2)
	assert.Equal(t, "bb", clans[0].Tag, "ordered by tag")

	players, err := s.LoadPlayers(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 2)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clans.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveClan(ctx, sampleClan()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LoadClans(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// The store drives a full manager restore cycle.
func TestStore_RestoresManagerState(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tbl := clan.NewTable()
	tbl.EnsurePlayer("alice")
	tbl.EnsurePlayer("bob")
	mgr := clan.NewManager(tbl, s, stubSettings{})
	_, err := mgr.Create(ctx, "alice", "&4RW", "wolves")
	require.NoError(t, err)
	require.NoError(t, mgr.Join(ctx, "rw", "bob"))
	require.NoError(t, mgr.PostSystemMessage(ctx, "rw", "welcome"))

	clans, err := s.LoadClans(ctx)
	require.NoError(t, err)
	players, err := s.LoadPlayers(ctx)
	require.NoError(t, err)

	restored := clan.NewTable()
	require.NoError(t, restored.Restore(clans, players))

	c := restored.Clan("rw")
	require.NotNil(t, c)
	assert.Equal(t, []string{"alice", "bob"}, c.MemberNames())
	assert.Equal(t, []string{"welcome"}, c.Board())
	assert.True(t, restored.Player("alice").IsLeader())
	assert.Equal(t, "rw", restored.Player("bob").Tag())
}

type stubSettings struct{}

func (stubSettings) RequireVerification() bool     { return false }
func (stubSettings) BoardSize() int                { return 6 }
func (stubSettings) RivalLimitPercent() int        { return 50 }
func (stubSettings) TrustByDefault() bool          { return false }
func (stubSettings) IsUnrivable(string) bool       { return false }
func (stubSettings) KillWeights() clan.KillWeights { return clan.DefaultKillWeights() }
