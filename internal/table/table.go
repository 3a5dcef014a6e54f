// internal/table/table.go
package table

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tablemirror/settlers/engine"
	"github.com/tablemirror/settlers/internal/models"
)

// OnGameOverFunc is executed when a table's game reaches the victory target.
// It receives the table ID, the winner's seat UUID, and the final scores.
type OnGameOverFunc func(tableID uuid.UUID, winner uuid.UUID, scores map[uuid.UUID]int)

// EventType names the table events broadcast to connected clients.
type EventType string

const (
	EventActionApplied  EventType = "action_applied"  // Public: an action was accepted; includes derived state.
	EventActionRejected EventType = "action_rejected" // Public: an action was rejected with a validation error.
	EventConsistency    EventType = "consistency"     // Public: the tracker diverged from the table; fatal.
	EventMysteryUpdate  EventType = "mystery_update"  // Public: mystery stacks changed.
	EventStateSync      EventType = "state_sync"      // Full derived state for a late joiner.
	EventGameOver       EventType = "game_over"       // Public: a seat reached the victory target.
)

// SeatScore is one seat's public standing.
type SeatScore struct {
	Seat     uuid.UUID          `json:"seat"`
	Nickname string             `json:"nickname"`
	Points   engine.VPBreakdown `json:"points"`
	HandSize int                `json:"handSize"`
	Army     int                `json:"army"`
}

// MysteryView is a display stack annotated with the owning party's nickname.
// It is a projection; the individual entries stay inside the engine.
type MysteryView struct {
	Owner    string              `json:"owner"`
	Stack    engine.MysteryStack `json:"stack"`
}

// Outcome is the derived state returned after every accepted action and
// carried on sync events. The command layer renders it; the table never
// formats text.
type Outcome struct {
	Phase     string        `json:"phase"`
	Current   string        `json:"current"`
	TurnCount int           `json:"turnCount"`
	Scores    []SeatScore   `json:"scores"`
	Mysteries []MysteryView `json:"mysteries,omitempty"`
	Winner    string        `json:"winner,omitempty"`
	LogLen    int           `json:"logLen"`
}

// Event is the standard structure for broadcasting table changes.
type Event struct {
	Type    EventType      `json:"type"`
	TableID uuid.UUID      `json:"tableId"`
	Actor   string         `json:"actor,omitempty"`
	Action  *engine.Action `json:"action,omitempty"`
	Error   string         `json:"error,omitempty"`
	Fatal   bool           `json:"fatal,omitempty"`
	State   *Outcome       `json:"state,omitempty"`
}

// Seat binds a service-side identity to an engine seat index.
type Seat struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
}

// Table wraps one engine.Game with identity, locking, and event fan-out.
// The engine instance is exclusively owned; every mutation goes through
// Apply under the table lock.
type Table struct {
	ID    uuid.UUID
	Name  string
	Seats []Seat

	// Operator owns the table; its passcode hash gates join requests.
	Operator models.Operator

	Mu   sync.Mutex
	Game *engine.Game

	seatIdx map[uuid.UUID]engine.PlayerID

	CreatedAt time.Time
	UpdatedAt time.Time

	// Communication callbacks. Transport and persistence subscribe here;
	// the table imports neither.
	BroadcastFn func(ev Event)
	OnUpdate    func(t *Table, a engine.Action)
	OnGameOver  OnGameOverFunc

	log *logrus.Entry
}

// New creates a table for the given nicknames and layout. Seats are assigned
// in nickname order.
func New(name string, nicknames []string, layout engine.Layout) (*Table, error) {
	g, err := engine.NewGame(len(nicknames), layout)
	if err != nil {
		return nil, err
	}
	id, _ := uuid.NewRandom()
	t := &Table{
		ID:        id,
		Name:      name,
		Game:      g,
		seatIdx:   make(map[uuid.UUID]engine.PlayerID, len(nicknames)),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		log:       logrus.WithField("table", id),
	}
	for i, nick := range nicknames {
		sid, _ := uuid.NewRandom()
		t.Seats = append(t.Seats, Seat{ID: sid, Nickname: nick})
		t.seatIdx[sid] = engine.PlayerID(i)
	}
	return t, nil
}

// SeatOf resolves a seat UUID to its engine index.
func (t *Table) SeatOf(id uuid.UUID) (engine.PlayerID, bool) {
	p, ok := t.seatIdx[id]
	return p, ok
}

// SeatByNickname resolves a nickname to its engine index.
func (t *Table) SeatByNickname(nick string) (engine.PlayerID, bool) {
	for i, s := range t.Seats {
		if s.Nickname == nick {
			return engine.PlayerID(i), true
		}
	}
	return engine.NoPlayer, false
}

// Nickname returns the display name for an engine seat. The bank party gets
// a fixed label so mystery views always have an owner string.
func (t *Table) Nickname(p engine.PlayerID) string {
	if p == engine.BankParty {
		return "bank"
	}
	if p < 0 || int(p) >= len(t.Seats) {
		return ""
	}
	return t.Seats[p].Nickname
}

// CurrentSeat returns the seat whose turn it is, under the table lock.
// Command handlers run on concurrent operator connections, and a restore
// swaps the Game pointer outright, so even this read needs the lock.
func (t *Table) CurrentSeat() engine.PlayerID {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	return t.Game.Current
}

// Board returns the live game's board topology. The topology is immutable
// after construction; the lock guards the Game pointer.
func (t *Table) Board() *engine.Board {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	return t.Game.Board
}

// SeatCount returns the number of seats. Seats never change after New.
func (t *Table) SeatCount() int {
	return len(t.Seats)
}

// Apply validates and applies one engine action under the table lock,
// broadcasting the result. Validation errors are reported and leave state
// unchanged; consistency errors are broadcast as fatal. OnUpdate runs after
// the lock is released so subscribers may call back into the table.
func (t *Table) Apply(a engine.Action) (Outcome, error) {
	t.Mu.Lock()
	out, err := t.applyLocked(a)
	t.Mu.Unlock()
	if err == nil && t.OnUpdate != nil {
		t.OnUpdate(t, a)
	}
	return out, err
}

// applyLocked assumes the table lock is held.
func (t *Table) applyLocked(a engine.Action) (Outcome, error) {
	if err := t.Game.Apply(a); err != nil {
		fatal := engine.IsConsistency(err)
		ev := Event{
			Type:    EventActionRejected,
			TableID: t.ID,
			Actor:   t.Nickname(a.Actor),
			Action:  &a,
			Error:   err.Error(),
			Fatal:   fatal,
		}
		if fatal {
			ev.Type = EventConsistency
			t.log.WithError(err).Error("tracker diverged from the table")
		} else {
			t.log.WithField("kind", a.Kind).WithError(err).Debug("action rejected")
		}
		t.fireEvent(ev)
		return t.outcomeLocked(), err
	}

	t.UpdatedAt = time.Now()
	out := t.outcomeLocked()
	t.log.WithFields(logrus.Fields{
		"kind":  a.Kind,
		"actor": t.Nickname(a.Actor),
		"phase": out.Phase,
	}).Info("action applied")
	t.fireEvent(Event{
		Type:    EventActionApplied,
		TableID: t.ID,
		Actor:   t.Nickname(a.Actor),
		Action:  &a,
		State:   &out,
	})
	if t.Game.Winner != engine.NoPlayer {
		t.fireGameOver(out)
	}
	return out, nil
}

// Undo rewinds the last applied action by replaying the log from the initial
// configuration. Replay is deterministic: dice ride in the actions and
// forced mystery collapses are ordered, so the rebuilt state matches what
// the table looked like one action ago.
func (t *Table) Undo() (Outcome, error) {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	n := len(t.Game.Log)
	if n == 0 {
		return t.outcomeLocked(), fmt.Errorf("nothing to undo")
	}
	g, err := engine.Replay(t.Game.NumPlayers, t.Game.Layout, t.Game.Log[:n-1])
	if err != nil {
		return t.outcomeLocked(), fmt.Errorf("undo replay: %w", err)
	}
	t.Game = g
	t.UpdatedAt = time.Now()
	out := t.outcomeLocked()
	t.log.WithField("logLen", n-1).Info("undid last action")
	t.fireEvent(Event{Type: EventStateSync, TableID: t.ID, State: &out})
	return out, nil
}

// Outcome computes the current derived state under the table lock.
func (t *Table) Outcome() Outcome {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	return t.outcomeLocked()
}

// outcomeLocked assumes the table lock is held.
func (t *Table) outcomeLocked() Outcome {
	g := t.Game
	out := Outcome{
		Phase:     g.Phase.String(),
		Current:   t.Nickname(g.Current),
		TurnCount: g.TurnCount,
		LogLen:    len(g.Log),
	}
	for i, s := range t.Seats {
		p := engine.PlayerID(i)
		out.Scores = append(out.Scores, SeatScore{
			Seat:     s.ID,
			Nickname: s.Nickname,
			Points:   g.Breakdown(p),
			HandSize: g.EffectiveHandSize(p),
			Army:     g.ArmySize(p),
		})
	}
	for i := range t.Seats {
		for _, st := range g.MysteryStacks(engine.PlayerID(i)) {
			out.Mysteries = append(out.Mysteries, MysteryView{Owner: t.Seats[i].Nickname, Stack: st})
		}
	}
	for _, st := range g.MysteryStacks(engine.BankParty) {
		out.Mysteries = append(out.Mysteries, MysteryView{Owner: "bank", Stack: st})
	}
	if g.Winner != engine.NoPlayer {
		out.Winner = t.Nickname(g.Winner)
	}
	return out
}

// SyncState broadcasts the full derived state, for reconnecting clients.
func (t *Table) SyncState() {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	out := t.outcomeLocked()
	t.fireEvent(Event{Type: EventStateSync, TableID: t.ID, State: &out})
}

// fireEvent assumes the lock is held.
func (t *Table) fireEvent(ev Event) {
	if t.BroadcastFn == nil {
		return
	}
	t.BroadcastFn(ev)
}

// fireGameOver assumes the lock is held.
func (t *Table) fireGameOver(out Outcome) {
	t.log.WithField("winner", out.Winner).Info("game over")
	t.fireEvent(Event{Type: EventGameOver, TableID: t.ID, State: &out})
	if t.OnGameOver == nil {
		return
	}
	scores := make(map[uuid.UUID]int, len(t.Seats))
	for i, s := range t.Seats {
		scores[s.ID] = t.Game.VictoryPoints(engine.PlayerID(i))
	}
	t.OnGameOver(t.ID, t.Seats[t.Game.Winner].ID, scores)
}
