package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/clans/internal/clan"
)

// ClanRepository handles clan and player persistence to PostgreSQL.
// Implements clan.Store, clan.Loader and clan.BatchStore.
type ClanRepository struct {
	pool *pgxpool.Pool
}

var (
	_ clan.Store      = (*ClanRepository)(nil)
	_ clan.Loader     = (*ClanRepository)(nil)
	_ clan.BatchStore = (*ClanRepository)(nil)
)

// NewClanRepository creates a new clan repository.
func NewClanRepository(pool *pgxpool.Pool) *ClanRepository {
	return &ClanRepository{pool: pool}
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const upsertClanSQL = `
INSERT INTO clans (tag, display_tag, name, verified, friendly_fire, founded, last_used,
                   cape_url, flags, members, allies, rivals, bulletin_board)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (tag) DO UPDATE SET
    display_tag = EXCLUDED.display_tag,
    name = EXCLUDED.name,
    verified = EXCLUDED.verified,
    friendly_fire = EXCLUDED.friendly_fire,
    founded = EXCLUDED.founded,
    last_used = EXCLUDED.last_used,
    cape_url = EXCLUDED.cape_url,
    flags = EXCLUDED.flags,
    members = EXCLUDED.members,
    allies = EXCLUDED.allies,
    rivals = EXCLUDED.rivals,
    bulletin_board = EXCLUDED.bulletin_board`

const upsertPlayerSQL = `
INSERT INTO clan_players (clean_name, name, tag, leader, trusted, join_date, last_seen,
                          past_clans, rival_kills, neutral_kills, civilian_kills, deaths)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (clean_name) DO UPDATE SET
    name = EXCLUDED.name,
    tag = EXCLUDED.tag,
    leader = EXCLUDED.leader,
    trusted = EXCLUDED.trusted,
    join_date = EXCLUDED.join_date,
    last_seen = EXCLUDED.last_seen,
    past_clans = EXCLUDED.past_clans,
    rival_kills = EXCLUDED.rival_kills,
    neutral_kills = EXCLUDED.neutral_kills,
    civilian_kills = EXCLUDED.civilian_kills,
    deaths = EXCLUDED.deaths`

// SaveClan inserts or updates a clan row.
func (r *ClanRepository) SaveClan(ctx context.Context, rec clan.Record) error {
	return saveClan(ctx, r.pool, rec)
}

// SavePlayer inserts or updates a player row.
func (r *ClanRepository) SavePlayer(ctx context.Context, rec clan.PlayerRecord) error {
	return savePlayer(ctx, r.pool, rec)
}

// DeleteClan removes a clan row. Deleting a missing clan is not an error.
func (r *ClanRepository) DeleteClan(ctx context.Context, tag string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM clans WHERE tag = $1`, tag); err != nil {
		return fmt.Errorf("delete clan %q: %w", tag, err)
	}
	return nil
}

// SaveAll writes every clan and player in a single transaction.
// Either all rows are saved or none.
func (r *ClanRepository) SaveAll(ctx context.Context, clans []clan.Record, players []clan.PlayerRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

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

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadClans loads every clan ordered by tag.
func (r *ClanRepository) LoadClans(ctx context.Context) ([]clan.Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tag, display_tag, name, verified, friendly_fire, founded, last_used,
		        cape_url, flags, members, allies, rivals, bulletin_board
		 FROM clans ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("query clans: %w", err)
	}
	defer rows.Close()

	var result []clan.Record
	for rows.Next() {
		var c clan.Record
		if err := rows.Scan(
			&c.Tag, &c.DisplayTag, &c.Name, &c.Verified, &c.FriendlyFire, &c.Founded, &c.LastUsed,
			&c.CapeURL, &c.Flags, &c.Members, &c.Allies, &c.Rivals, &c.Board,
		); err != nil {
			return nil, fmt.Errorf("scan clans: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// LoadPlayers loads every player ordered by clean name.
func (r *ClanRepository) LoadPlayers(ctx context.Context) ([]clan.PlayerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT clean_name, name, tag, leader, trusted, join_date, last_seen,
		        past_clans, rival_kills, neutral_kills, civilian_kills, deaths
		 FROM clan_players ORDER BY clean_name`)
	if err != nil {
		return nil, fmt.Errorf("query clan_players: %w", err)
	}
	defer rows.Close()

	var result []clan.PlayerRecord
	for rows.Next() {
		var p clan.PlayerRecord
		if err := rows.Scan(
			&p.CleanName, &p.Name, &p.Tag, &p.Leader, &p.Trusted, &p.JoinDate, &p.LastSeen,
			&p.PastClans, &p.RivalKills, &p.NeutralKills, &p.CivilianKills, &p.Deaths,
		); err != nil {
			return nil, fmt.Errorf("scan clan_players: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func saveClan(ctx context.Context, db execer, rec clan.Record) error {
	_, err := db.Exec(ctx, upsertClanSQL,
		rec.Tag, rec.DisplayTag, rec.Name, rec.Verified, rec.FriendlyFire, rec.Founded, rec.LastUsed,
		rec.CapeURL, rec.Flags, textArray(rec.Members), textArray(rec.Allies), textArray(rec.Rivals), textArray(rec.Board),
	)
	if err != nil {
		return fmt.Errorf("save clan %q: %w", rec.Tag, err)
	}
	return nil
}

func savePlayer(ctx context.Context, db execer, rec clan.PlayerRecord) error {
	_, err := db.Exec(ctx, upsertPlayerSQL,
		rec.CleanName, rec.Name, rec.Tag, rec.Leader, rec.Trusted, rec.JoinDate, rec.LastSeen,
		textArray(rec.PastClans), rec.RivalKills, rec.NeutralKills, rec.CivilianKills, rec.Deaths,
	)
	if err != nil {
		return fmt.Errorf("save player %q: %w", rec.CleanName, err)
	}
	return nil
}

// textArray maps nil to an empty array; the columns are NOT NULL.
func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
