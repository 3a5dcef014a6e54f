// internal/database/postgres.go
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablemirror/settlers/internal/models"
)

// pgSchema is applied on connect. Nicknames are stored as a comma-joined
// text column; nicknames containing commas are rejected upstream.
const pgSchema = `
CREATE TABLE IF NOT EXISTS tables (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	num_players INT NOT NULL,
	nicknames   TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	game_over   BOOLEAN NOT NULL DEFAULT FALSE,
	winner      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS snapshots (
	table_id UUID PRIMARY KEY REFERENCES tables(id) ON DELETE CASCADE,
	data     BYTEA NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS actions (
	table_id UUID NOT NULL REFERENCES tables(id) ON DELETE CASCADE,
	idx      INT NOT NULL,
	payload  BYTEA NOT NULL,
	added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (table_id, idx)
);`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) SaveTable(ctx context.Context, rec models.TableRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tables (id, name, num_players, nicknames, created_at, updated_at, game_over, winner)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at,
			game_over = EXCLUDED.game_over,
			winner = EXCLUDED.winner`,
		rec.ID, rec.Name, rec.NumPlayers, strings.Join(rec.Nicknames, ","),
		rec.CreatedAt, rec.UpdatedAt, rec.GameOver, rec.Winner)
	if err != nil {
		return fmt.Errorf("save table %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetTable(ctx context.Context, id uuid.UUID) (models.TableRecord, error) {
	rec := models.TableRecord{ID: id}
	var nicks string
	err := s.pool.QueryRow(ctx, `
		SELECT name, num_players, nicknames, created_at, updated_at, game_over, winner
		FROM tables WHERE id = $1`, id).
		Scan(&rec.Name, &rec.NumPlayers, &nicks, &rec.CreatedAt, &rec.UpdatedAt, &rec.GameOver, &rec.Winner)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, fmt.Errorf("table %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("get table %s: %w", id, err)
	}
	rec.Nicknames = strings.Split(nicks, ",")
	return rec, nil
}

func (s *PostgresStore) ListTables(ctx context.Context) ([]models.TableRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, num_players, nicknames, created_at, updated_at, game_over, winner
		FROM tables ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var out []models.TableRecord
	for rows.Next() {
		var rec models.TableRecord
		var nicks string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.NumPlayers, &nicks,
			&rec.CreatedAt, &rec.UpdatedAt, &rec.GameOver, &rec.Winner); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		rec.Nicknames = strings.Split(nicks, ",")
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, id uuid.UUID, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO snapshots (table_id, data, saved_at) VALUES ($1, $2, now())
		ON CONFLICT (table_id) DO UPDATE SET data = EXCLUDED.data, saved_at = now()`,
		id, data)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) LoadSnapshot(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM snapshots WHERE table_id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return data, nil
}

func (s *PostgresStore) AppendAction(ctx context.Context, id uuid.UUID, index int, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO actions (table_id, idx, payload) VALUES ($1, $2, $3)`,
		id, index, payload)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 unique_violation: the same index was appended twice, which
		// means the caller's log and ours disagree.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("action %d for table %s already persisted", index, id)
		}
		return fmt.Errorf("append action %s/%d: %w", id, index, err)
	}
	return nil
}

func (s *PostgresStore) LoadActions(ctx context.Context, id uuid.UUID) ([]models.ActionRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT idx, payload, added_at FROM actions WHERE table_id = $1 ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("load actions %s: %w", id, err)
	}
	defer rows.Close()

	var out []models.ActionRow
	for rows.Next() {
		row := models.ActionRow{TableID: id}
		if err := rows.Scan(&row.Index, &row.Payload, &row.AddedAt); err != nil {
			return nil, fmt.Errorf("load actions %s: %w", id, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *PostgresStore) TruncateActions(ctx context.Context, id uuid.UUID, keep int) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM actions WHERE table_id = $1 AND idx >= $2`, id, keep)
	if err != nil {
		return fmt.Errorf("truncate actions %s: %w", id, err)
	}
	return nil
}
