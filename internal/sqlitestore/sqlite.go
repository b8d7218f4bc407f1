// Package sqlitestore is a single-file clan store for small deployments and tests.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/udisondev/clans/internal/clan"
)

// Store persists clans and players in SQLite. List fields are stored as JSON arrays.
// Implements clan.Store, clan.Loader and clan.BatchStore.
type Store struct {
	db *sql.DB
}

var (
	_ clan.Store      = (*Store)(nil)
	_ clan.Loader     = (*Store)(nil)
	_ clan.BatchStore = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clans (
			tag TEXT PRIMARY KEY,
			display_tag TEXT NOT NULL,
			name TEXT NOT NULL,
			verified INTEGER NOT NULL,
			friendly_fire INTEGER NOT NULL,
			founded INTEGER NOT NULL,
			last_used INTEGER NOT NULL,
			cape_url TEXT NOT NULL,
			flags TEXT NOT NULL,
			members TEXT NOT NULL,
			allies TEXT NOT NULL,
			rivals TEXT NOT NULL,
			bulletin_board TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS clan_players (
			clean_name TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			tag TEXT NOT NULL,
			leader INTEGER NOT NULL,
			trusted INTEGER NOT NULL,
			join_date INTEGER NOT NULL,
			last_seen INTEGER NOT NULL,
			past_clans TEXT NOT NULL,
			rival_kills INTEGER NOT NULL,
			neutral_kills INTEGER NOT NULL,
			civilian_kills INTEGER NOT NULL,
			deaths INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_clan_players_tag ON clan_players(tag);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

const upsertClanSQL = `
INSERT INTO clans (tag, display_tag, name, verified, friendly_fire, founded, last_used,
                   cape_url, flags, members, allies, rivals, bulletin_board)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(tag) DO UPDATE SET
	display_tag = excluded.display_tag,
	name = excluded.name,
	verified = excluded.verified,
	friendly_fire = excluded.friendly_fire,
	founded = excluded.founded,
	last_used = excluded.last_used,
	cape_url = excluded.cape_url,
	flags = excluded.flags,
	members = excluded.members,
	allies = excluded.allies,
	rivals = excluded.rivals,
	bulletin_board = excluded.bulletin_board`

const upsertPlayerSQL = `
INSERT INTO clan_players (clean_name, name, tag, leader, trusted, join_date, last_seen,
                          past_clans, rival_kills, neutral_kills, civilian_kills, deaths)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(clean_name) DO UPDATE SET
	name = excluded.name,
	tag = excluded.tag,
	leader = excluded.leader,
	trusted = excluded.trusted,
	join_date = excluded.join_date,
	last_seen = excluded.last_seen,
	past_clans = excluded.past_clans,
	rival_kills = excluded.rival_kills,
	neutral_kills = excluded.neutral_kills,
	civilian_kills = excluded.civilian_kills,
	deaths = excluded.deaths`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveClan inserts or updates a clan row.
func (s *Store) SaveClan(ctx context.Context, rec clan.Record) error {
	return saveClan(ctx, s.db, rec)
}

// SavePlayer inserts or updates a player row.
func (s *Store) SavePlayer(ctx context.Context, rec clan.PlayerRecord) error {
	return savePlayer(ctx, s.db, rec)
}

// DeleteClan removes a clan row. Deleting a missing clan is not an error.
func (s *Store) DeleteClan(ctx context.Context, tag string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM clans WHERE tag = ?`, tag); err != nil {
		return fmt.Errorf("delete clan %q: %w", tag, err)
	}
	return nil
}

// SaveAll writes every clan and player in one transaction.
func (s *Store) SaveAll(ctx context.Context, clans []clan.Record, players []clan.PlayerRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range clans {
		if err := saveClan(ctx, tx, rec); err != nil {
			return err
		}
	}
	for _, rec := range players {
		if err := savePlayer(ctx, tx, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadClans loads every clan ordered by tag.
func (s *Store) LoadClans(ctx context.Context) ([]clan.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag, display_tag, name, verified, friendly_fire, founded, last_used,
		        cape_url, flags, members, allies, rivals, bulletin_board
		 FROM clans ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("query clans: %w", err)
	}
	defer rows.Close()

	var result []clan.Record
	for rows.Next() {
		var (
			c                              clan.Record
			members, allies, rivals, board string
		)
		if err := rows.Scan(
			&c.Tag, &c.DisplayTag, &c.Name, &c.Verified, &c.FriendlyFire, &c.Founded, &c.LastUsed,
			&c.CapeURL, &c.Flags, &members, &allies, &rivals, &board,
		); err != nil {
			return nil, fmt.Errorf("scan clans: %w", err)
		}
		if err := decodeLists(c.Tag,
			list{members, &c.Members},
			list{allies, &c.Allies},
			list{rivals, &c.Rivals},
			list{board, &c.Board},
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// LoadPlayers loads every player ordered by clean name.
func (s *Store) LoadPlayers(ctx context.Context) ([]clan.PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT clean_name, name, tag, leader, trusted, join_date, last_seen,
		        past_clans, rival_kills, neutral_kills, civilian_kills, deaths
		 FROM clan_players ORDER BY clean_name`)
	if err != nil {
		return nil, fmt.Errorf("query clan_players: %w", err)
	}
	defer rows.Close()

	var result []clan.PlayerRecord
	for rows.Next() {
		var (
			p    clan.PlayerRecord
			past string
		)
		if err := rows.Scan(
			&p.CleanName, &p.Name, &p.Tag, &p.Leader, &p.Trusted, &p.JoinDate, &p.LastSeen,
			&past, &p.RivalKills, &p.NeutralKills, &p.CivilianKills, &p.Deaths,
		); err != nil {
			return nil, fmt.Errorf("scan clan_players: %w", err)
		}
		if err := decodeLists(p.CleanName, list{past, &p.PastClans}); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func saveClan(ctx context.Context, db execer, rec clan.Record) error {
	_, err := db.ExecContext(ctx, upsertClanSQL,
		rec.Tag, rec.DisplayTag, rec.Name, rec.Verified, rec.FriendlyFire, rec.Founded, rec.LastUsed,
		rec.CapeURL, rec.Flags, encodeList(rec.Members), encodeList(rec.Allies), encodeList(rec.Rivals), encodeList(rec.Board),
	)
	if err != nil {
		return fmt.Errorf("save clan %q: %w", rec.Tag, err)
	}
	return nil
}

func savePlayer(ctx context.Context, db execer, rec clan.PlayerRecord) error {
	_, err := db.ExecContext(ctx, upsertPlayerSQL,
		rec.CleanName, rec.Name, rec.Tag, rec.Leader, rec.Trusted, rec.JoinDate, rec.LastSeen,
		encodeList(rec.PastClans), rec.RivalKills, rec.NeutralKills, rec.CivilianKills, rec.Deaths,
	)
	if err != nil {
		return fmt.Errorf("save player %q: %w", rec.CleanName, err)
	}
	return nil
}

func encodeList(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(s) // []string never fails to marshal
	return string(b)
}

type list struct {
	raw string
	dst *[]string
}

func decodeLists(key string, lists ...list) error {
	for _, l := range lists {
		if err := json.Unmarshal([]byte(l.raw), l.dst); err != nil {
			return fmt.Errorf("decode list for %q: %w", key, err)
		}
	}
	return nil
}
