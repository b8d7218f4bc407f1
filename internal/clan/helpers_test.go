package clan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory Store with per-operation failure injection.
type memStore struct {
	mu      sync.Mutex
	clans   map[string]Record
	players map[string]PlayerRecord
	deleted []string

	failDelete     bool
	failSaveClan   bool
	failSavePlayer bool
	saveClanCalls  int

	// When playerGate is set, SavePlayer signals playerEntered and blocks until the gate is closed.
	playerGate    chan struct{}
	playerEntered chan struct{}
}

func newMemStore() *memStore {
	return &memStore{
		clans:   make(map[string]Record),
		players: make(map[string]PlayerRecord),
	}
}

func (s *memStore) SaveClan(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveClanCalls++
	if s.failSaveClan {
		return errStoreDown
	}
	s.clans[rec.Tag] = rec
	return nil
}

func (s *memStore) DeleteClan(_ context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return errStoreDown
	}
	delete(s.clans, tag)
	s.deleted = append(s.deleted, tag)
	return nil
}

func (s *memStore) SavePlayer(_ context.Context, rec PlayerRecord) error {
	if s.playerGate != nil {
		select {
		case s.playerEntered <- struct{}{}:
		default:
		}
		<-s.playerGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSavePlayer {
		return errStoreDown
	}
	s.players[rec.CleanName] = rec
	return nil
}

func (s *memStore) clan(tag string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.clans[tag]
	return r, ok
}

func (s *memStore) player(name string) (PlayerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.players[name]
	return r, ok
}

// batchStore records SaveAll calls on top of memStore.
// When gate is set, SaveAll signals entered and blocks until the gate is closed.
type batchStore struct {
	*memStore
	batches int
	failAll bool

	gate    chan struct{}
	entered chan struct{}
}

func (s *batchStore) SaveAll(ctx context.Context, clans []Record, players []PlayerRecord) error {
	if s.gate != nil {
		s.entered <- struct{}{}
		<-s.gate
	}
	if s.failAll {
		return errStoreDown
	}
	s.batches++
	for _, c := range clans {
		_ = s.memStore.SaveClan(ctx, c)
	}
	for _, p := range players {
		_ = s.memStore.SavePlayer(ctx, p)
	}
	return nil
}

// testSettings is a mutable Settings for tests.
type testSettings struct {
	requireVerification bool
	boardSize           int
	rivalLimit          int
	trustByDefault      bool
	unrivable           []string
	weights             KillWeights
}

func defaultTestSettings() *testSettings {
	return &testSettings{
		requireVerification: true,
		boardSize:           6,
		rivalLimit:          50,
		weights:             DefaultKillWeights(),
	}
}

func (s *testSettings) RequireVerification() bool { return s.requireVerification }
func (s *testSettings) BoardSize() int            { return s.boardSize }
func (s *testSettings) RivalLimitPercent() int    { return s.rivalLimit }
func (s *testSettings) TrustByDefault() bool      { return s.trustByDefault }
func (s *testSettings) KillWeights() KillWeights  { return s.weights }

func (s *testSettings) IsUnrivable(tag string) bool {
	for _, t := range s.unrivable {
		if NormalizeTag(t) == NormalizeTag(tag) {
			return true
		}
	}
	return false
}

// recordingSink collects delivered messages.
type recordingSink struct {
	mu   sync.Mutex
	msgs []string
	fail bool
}

func (s *recordingSink) Send(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink closed")
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

// fakePresence marks players online and hands out recording sinks.
type fakePresence struct {
	mu    sync.Mutex
	sinks map[string]*recordingSink
}

func newFakePresence() *fakePresence {
	return &fakePresence{sinks: make(map[string]*recordingSink)}
}

func (p *fakePresence) connect(name string) *recordingSink {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &recordingSink{}
	p.sinks[strings.ToLower(name)] = s
	return s
}

func (p *fakePresence) IsOnline(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.sinks[strings.ToLower(name)]
	return ok
}

func (p *fakePresence) Sink(name string) (MessageSink, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sinks[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return s, true
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fixture is a manager wired to in-memory collaborators.
type fixture struct {
	table    *Table
	store    *memStore
	settings *testSettings
	presence *fakePresence
	mgr      *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		table:    NewTable(),
		store:    newMemStore(),
		settings: defaultTestSettings(),
		presence: newFakePresence(),
	}
	f.mgr = NewManager(f.table, f.store, f.settings,
		WithPresence(f.presence),
		WithClock(func() time.Time { return testNow }),
	)
	return f
}

// clan creates a verified clan led by leader.
func (f *fixture) clan(t *testing.T, displayTag, name, leader string) *Clan {
	t.Helper()
	f.table.EnsurePlayer(leader)
	c, err := f.mgr.Create(context.Background(), leader, displayTag, name)
	require.NoError(t, err)
	require.NoError(t, f.mgr.Verify(context.Background(), c.Tag()))
	return c
}

// join adds a fresh player to the clan.
func (f *fixture) join(t *testing.T, tag, name string) *Player {
	t.Helper()
	p := f.table.EnsurePlayer(name)
	require.NoError(t, f.mgr.Join(context.Background(), tag, name))
	return p
}
