package engine

import (
	"errors"
	"fmt"
)

// Validation errors reject an action and leave state untouched. They are
// recoverable: the caller reports them and the game continues. Match with
// errors.Is; applied wrapping preserves the sentinel.
var (
	ErrOccupied              = errors.New("location is occupied")
	ErrTooClose              = errors.New("adjacent plot already has a building")
	ErrDisconnected          = errors.New("not connected to own road network")
	ErrNotOwner              = errors.New("building is not owned by the player")
	ErrInsufficientPieces    = errors.New("no pieces of that kind remaining")
	ErrInsufficientResources = errors.New("cannot afford that in any consistent hand")
	ErrWrongPhase            = errors.New("action not allowed in this phase")
	ErrNotYourTurn           = errors.New("not this player's turn")
	ErrDevCardLimit          = errors.New("a development card was already played this turn")
	ErrDevCardUnplayable     = errors.New("no playable copy of that card")
	ErrBankShort             = errors.New("bank cannot supply that")
	ErrGameOver              = errors.New("game is over")
	ErrNoSuchPlayer          = errors.New("no such player")
	ErrBadAction             = errors.New("malformed action")
	ErrDiscardPending        = errors.New("discards still owed")
	ErrNoSuchMystery         = errors.New("no unresolved mystery with that id")
)

// ConsistencyError means the tracked model can no longer correspond to any
// legal table state: a count went negative, conservation broke, or a mystery
// ran out of possible types. It is fatal for the session; unlike validation
// errors it is never caused by a merely illegal request.
type ConsistencyError struct {
	Op     string // operation during which the divergence surfaced
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent state in %s: %s", e.Op, e.Detail)
}

func consistencyf(op, format string, args ...any) error {
	return &ConsistencyError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// IsConsistency reports whether err (or anything it wraps) is fatal.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
