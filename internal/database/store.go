// internal/database/store.go
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tablemirror/settlers/internal/models"
)

// ErrNotFound is returned when a table, snapshot, or log is absent.
var ErrNotFound = errors.New("not found")

// Store persists tables, their latest snapshots, and their action logs.
// Resume-from-log and undo share one path: load the initial snapshot and
// replay actions.
type Store interface {
	SaveTable(ctx context.Context, rec models.TableRecord) error
	GetTable(ctx context.Context, id uuid.UUID) (models.TableRecord, error)
	ListTables(ctx context.Context) ([]models.TableRecord, error)

	SaveSnapshot(ctx context.Context, id uuid.UUID, data []byte) error
	LoadSnapshot(ctx context.Context, id uuid.UUID) ([]byte, error)

	AppendAction(ctx context.Context, id uuid.UUID, index int, payload []byte) error
	LoadActions(ctx context.Context, id uuid.UUID) ([]models.ActionRow, error)
	TruncateActions(ctx context.Context, id uuid.UUID, keep int) error

	Close()
}
