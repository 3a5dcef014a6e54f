// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// TableRecord is the persisted metadata for one tracked game.
type TableRecord struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	NumPlayers int       `json:"numPlayers"`
	Nicknames  []string  `json:"nicknames"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	GameOver   bool      `json:"gameOver"`
	Winner     string    `json:"winner,omitempty"`
}

// Operator is an account that may run tables. A table belongs to exactly one
// operator; spectators join with the table passcode.
type Operator struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PasscodeHash string    `json:"passcodeHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ActionRow is one persisted log entry: the serialized engine action plus its
// position in the table's log.
type ActionRow struct {
	TableID uuid.UUID `json:"tableId"`
	Index   int       `json:"index"`
	Payload []byte    `json:"payload"`
	AddedAt time.Time `json:"addedAt"`
}
