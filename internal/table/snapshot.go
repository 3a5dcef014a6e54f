// internal/table/snapshot.go
package table

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tablemirror/settlers/engine"
	"github.com/tablemirror/settlers/internal/models"
)

// snapshot is the persisted form of a table: identity plus the full engine
// snapshot, every individual mystery instance included. Stacked projections
// are never stored.
type snapshot struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Seats     []Seat          `json:"seats"`
	Operator  models.Operator `json:"operator"`
	CreatedAt time.Time       `json:"createdAt"`
	Engine    json.RawMessage `json:"engine"`
}

// Snapshot serializes the table and its complete engine state.
func (t *Table) Snapshot() ([]byte, error) {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	eng, err := t.Game.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", t.ID, err)
	}
	return json.Marshal(snapshot{
		ID:        t.ID,
		Name:      t.Name,
		Seats:     t.Seats,
		Operator:  t.Operator,
		CreatedAt: t.CreatedAt,
		Engine:    eng,
	})
}

// RestoreTable rebuilds a table from Snapshot output. The restored instance
// answers every legality question identically to the one that was saved.
func RestoreTable(data []byte) (*Table, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("restore table: %w", err)
	}
	g, err := engine.Restore(s.Engine)
	if err != nil {
		return nil, fmt.Errorf("restore table %s: %w", s.ID, err)
	}
	if len(s.Seats) != g.NumPlayers {
		return nil, fmt.Errorf("restore table %s: %d seats for %d players", s.ID, len(s.Seats), g.NumPlayers)
	}
	t := &Table{
		ID:        s.ID,
		Name:      s.Name,
		Seats:     s.Seats,
		Operator:  s.Operator,
		Game:      g,
		seatIdx:   make(map[uuid.UUID]engine.PlayerID, len(s.Seats)),
		CreatedAt: s.CreatedAt,
		UpdatedAt: time.Now(),
		log:       logrus.WithField("table", s.ID),
	}
	for i, seat := range s.Seats {
		t.seatIdx[seat.ID] = engine.PlayerID(i)
	}
	return t, nil
}
