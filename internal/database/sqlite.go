// internal/database/sqlite.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tablemirror/settlers/internal/models"
)

// sqliteSchema mirrors the postgres schema on SQLite types. UUIDs and
// timestamps are stored as text.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tables (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	num_players INTEGER NOT NULL,
	nicknames   TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	game_over   INTEGER NOT NULL DEFAULT 0,
	winner      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS snapshots (
	table_id TEXT PRIMARY KEY,
	data     BLOB NOT NULL,
	saved_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS actions (
	table_id TEXT NOT NULL,
	idx      INTEGER NOT NULL,
	payload  BLOB NOT NULL,
	added_at TEXT NOT NULL,
	PRIMARY KEY (table_id, idx)
);`

// SQLiteStore implements Store on an embedded database for single-binary
// local use. Pass ":memory:" for an ephemeral store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", path, err)
	}
	// The modernc driver serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent table saves.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() { s.db.Close() }

func (s *SQLiteStore) SaveTable(ctx context.Context, rec models.TableRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tables (id, name, num_players, nicknames, created_at, updated_at, game_over, winner)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at,
			game_over = excluded.game_over,
			winner = excluded.winner`,
		rec.ID.String(), rec.Name, rec.NumPlayers, strings.Join(rec.Nicknames, ","),
		rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano),
		rec.GameOver, rec.Winner)
	if err != nil {
		return fmt.Errorf("save table %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetTable(ctx context.Context, id uuid.UUID) (models.TableRecord, error) {
	rec := models.TableRecord{ID: id}
	var nicks, created, updated string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, num_players, nicknames, created_at, updated_at, game_over, winner
		FROM tables WHERE id = ?`, id.String()).
		Scan(&rec.Name, &rec.NumPlayers, &nicks, &created, &updated, &rec.GameOver, &rec.Winner)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("table %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("get table %s: %w", id, err)
	}
	rec.Nicknames = strings.Split(nicks, ",")
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return rec, nil
}

func (s *SQLiteStore) ListTables(ctx context.Context) ([]models.TableRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, num_players, nicknames, created_at, updated_at, game_over, winner
		FROM tables ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var out []models.TableRecord
	for rows.Next() {
		var rec models.TableRecord
		var idStr, nicks, created, updated string
		if err := rows.Scan(&idStr, &rec.Name, &rec.NumPlayers, &nicks,
			&created, &updated, &rec.GameOver, &rec.Winner); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		rec.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("list tables: bad id %q: %w", idStr, err)
		}
		rec.Nicknames = strings.Split(nicks, ",")
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, id uuid.UUID, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (table_id, data, saved_at) VALUES (?, ?, ?)
		ON CONFLICT (table_id) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		id.String(), data, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE table_id = ?`, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return data, nil
}

func (s *SQLiteStore) AppendAction(ctx context.Context, id uuid.UUID, index int, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actions (table_id, idx, payload, added_at) VALUES (?, ?, ?, ?)`,
		id.String(), index, payload, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append action %s/%d: %w", id, index, err)
	}
	return nil
}

func (s *SQLiteStore) LoadActions(ctx context.Context, id uuid.UUID) ([]models.ActionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, payload, added_at FROM actions WHERE table_id = ? ORDER BY idx`, id.String())
	if err != nil {
		return nil, fmt.Errorf("load actions %s: %w", id, err)
	}
	defer rows.Close()

	var out []models.ActionRow
	for rows.Next() {
		row := models.ActionRow{TableID: id}
		var added string
		if err := rows.Scan(&row.Index, &row.Payload, &added); err != nil {
			return nil, fmt.Errorf("load actions %s: %w", id, err)
		}
		row.AddedAt, _ = time.Parse(time.RFC3339Nano, added)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TruncateActions(ctx context.Context, id uuid.UUID, keep int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM actions WHERE table_id = ? AND idx >= ?`, id.String(), keep)
	if err != nil {
		return fmt.Errorf("truncate actions %s: %w", id, err)
	}
	return nil
}
