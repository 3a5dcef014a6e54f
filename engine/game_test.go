package engine

import (
	"bytes"
	"errors"
	"testing"
)

// runSetup drives both placement rounds by taking the first legal choice
// each time, returning the seat order observed across settlements.
func runSetup(t *testing.T, g *Game) []PlayerID {
	t.Helper()
	var order []PlayerID
	for g.Phase == PhaseSetup {
		actor := g.Current
		order = append(order, actor)
		plots := g.LegalSettlements(actor)
		if len(plots) == 0 {
			t.Fatalf("no legal settlements for seat %d", actor)
		}
		if err := g.Apply(Action{Kind: ActionPlaceSettlement, Actor: actor, Plot: plots[0]}); err != nil {
			t.Fatalf("setup settlement: %v", err)
		}
		paths := g.LegalRoads(actor)
		if len(paths) == 0 {
			t.Fatalf("no legal roads for seat %d", actor)
		}
		if err := g.Apply(Action{Kind: ActionPlaceRoad, Actor: actor, Path: paths[0]}); err != nil {
			t.Fatalf("setup road: %v", err)
		}
	}
	return order
}

func TestSetupSnakeOrder(t *testing.T) {
	g := newTestGame(t, 3)
	order := runSetup(t, g)

	want := []PlayerID{0, 1, 2, 2, 1, 0}
	if len(order) != len(want) {
		t.Fatalf("placements: want %d, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("placement %d: want seat %d, got %d", i, want[i], order[i])
		}
	}
	if g.Phase != PhasePreRoll {
		t.Errorf("phase after setup: want %v, got %v", PhasePreRoll, g.Phase)
	}
	if g.Current != 0 || g.TurnCount != 1 {
		t.Errorf("first turn: current %d count %d", g.Current, g.TurnCount)
	}
	checkBalance(t, g)
}

func TestSetupSecondSettlementPaysOut(t *testing.T) {
	g := newTestGame(t, 2)
	runSetup(t, g)

	// The second settlement pays one card per adjacent producing hex, the
	// first pays nothing, so no starting hand exceeds 3 cards and the bank
	// covers exactly the difference.
	for p := 0; p < g.NumPlayers; p++ {
		if n := g.Players[p].Known.Total(); n > 3 {
			t.Errorf("seat %d starting hand: %d cards", p, n)
		}
	}
	checkBalance(t, g)
}

func TestTurnCycle(t *testing.T) {
	g := newTestGame(t, 2)
	runSetup(t, g)

	if err := g.Apply(Action{Kind: ActionRoll, Actor: 0, Die1: 3, Die2: 3}); err != nil {
		t.Fatalf("roll: %v", err)
	}
	if g.Phase != PhasePostRoll {
		t.Fatalf("phase after roll: %v", g.Phase)
	}
	if err := g.Apply(Action{Kind: ActionEndTurn, Actor: 0}); err != nil {
		t.Fatalf("end turn: %v", err)
	}
	if g.Current != 1 || g.TurnCount != 2 || g.Phase != PhasePreRoll {
		t.Errorf("after end turn: current %d count %d phase %v", g.Current, g.TurnCount, g.Phase)
	}
	if err := g.Apply(Action{Kind: ActionRoll, Actor: 0, Die1: 2, Die2: 2}); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("stale actor: want ErrNotYourTurn, got %v", err)
	}
	checkBalance(t, g)
}

func TestRollSevenDiscardThenRobber(t *testing.T) {
	g := newTestGame(t, 2)
	g.Phase = PhasePreRoll
	g.Current = 0
	g.TurnCount = 1
	give(t, g, 1, Only(Ore, 8))

	if err := g.Apply(Action{Kind: ActionRoll, Actor: 0, Die1: 3, Die2: 4}); err != nil {
		t.Fatalf("roll 7: %v", err)
	}
	if g.Phase != PhaseRobber {
		t.Fatalf("phase: %v", g.Phase)
	}
	if got := g.OwedDiscards[1]; got != 4 {
		t.Fatalf("owed: want 4, got %d", got)
	}
	if got := g.LegalRobberHexes(); got != nil {
		t.Errorf("robber hexes offered while discards owed: %v", got)
	}

	err := g.Apply(Action{Kind: ActionMoveRobber, Actor: 0, Hex: 1})
	if !errors.Is(err, ErrDiscardPending) {
		t.Fatalf("robber before discard: want ErrDiscardPending, got %v", err)
	}

	if err := g.Apply(Action{Kind: ActionDiscard, Actor: 1, Give: Only(Ore, 4)}); err != nil {
		t.Fatalf("discard: %v", err)
	}
	hexes := g.LegalRobberHexes()
	if len(hexes) != NumHexes-1 {
		t.Fatalf("robber hexes: want %d, got %d", NumHexes-1, len(hexes))
	}
	if err := g.Apply(Action{Kind: ActionMoveRobber, Actor: 0, Hex: hexes[0]}); err != nil {
		t.Fatalf("move robber: %v", err)
	}
	if g.Robber != hexes[0] || g.Phase != PhasePostRoll {
		t.Errorf("after robber: hex %d phase %v", g.Robber, g.Phase)
	}
	checkBalance(t, g)
}

func TestRejectionLeavesStateIdentical(t *testing.T) {
	g := newTestGame(t, 2)
	runSetup(t, g)
	before, err := g.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	bad := []Action{
		{Kind: ActionRoll, Actor: 0, Die1: 0, Die2: 9},
		{Kind: ActionEndTurn, Actor: 0},
		{Kind: ActionPlaceSettlement, Actor: 0, Plot: 1},
		{Kind: ActionRoll, Actor: 1, Die1: 3, Die2: 3},
	}
	for _, a := range bad {
		if err := g.Apply(a); err == nil {
			t.Fatalf("%s unexpectedly accepted", a.Kind)
		}
	}

	after, err := g.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("rejected actions mutated state")
	}
}

func TestReplayMatchesLive(t *testing.T) {
	g := newTestGame(t, 3)
	runSetup(t, g)
	if err := g.Apply(Action{Kind: ActionRoll, Actor: 0, Die1: 4, Die2: 4}); err != nil {
		t.Fatalf("roll: %v", err)
	}
	if err := g.Apply(Action{Kind: ActionEndTurn, Actor: 0}); err != nil {
		t.Fatalf("end turn: %v", err)
	}

	replayed, err := Replay(g.NumPlayers, g.Layout, g.Log)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	want, err := g.Snapshot()
	if err != nil {
		t.Fatalf("snapshot live: %v", err)
	}
	got, err := replayed.Snapshot()
	if err != nil {
		t.Fatalf("snapshot replay: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Error("replayed state diverges from live state")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	g := newTestGame(t, 2)
	runSetup(t, g)
	if err := g.Apply(Action{Kind: ActionRoll, Actor: 0, Die1: 2, Die2: 6}); err != nil {
		t.Fatalf("roll: %v", err)
	}

	data, err := g.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	restored, err := Restore(data)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	again, err := restored.Snapshot()
	if err != nil {
		t.Fatalf("re-snapshot: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("snapshot not byte-stable across restore")
	}

	// The rebuilt board must answer legality the same way.
	if want, got := g.LegalRoads(0), restored.LegalRoads(0); len(want) != len(got) {
		t.Fatalf("legal roads: want %d, got %d", len(want), len(got))
	} else {
		for i := range want {
			if want[i] != got[i] {
				t.Errorf("legal road %d: want %d, got %d", i, want[i], got[i])
			}
		}
	}
}

func TestVictoryEndsGame(t *testing.T) {
	g := newTestGame(t, 2)
	g.Phase = PhasePostRoll
	g.Current = 0
	g.TurnCount = 1
	g.Players[0].SettlementPieces = MaxSettlements - 4
	g.Players[0].CityPieces = MaxCities - 3

	if got := g.VictoryPoints(0); got < VictoryTarget {
		t.Fatalf("fixture short of target: %d", got)
	}
	if err := g.Apply(Action{Kind: ActionEndTurn, Actor: 0}); err != nil {
		t.Fatalf("end turn: %v", err)
	}
	if g.Winner != 0 || g.Phase != PhaseGameOver {
		t.Fatalf("winner %d phase %v", g.Winner, g.Phase)
	}
	err := g.Apply(Action{Kind: ActionRoll, Actor: 1, Die1: 3, Die2: 3})
	if !errors.Is(err, ErrGameOver) {
		t.Errorf("post-game action: want ErrGameOver, got %v", err)
	}
}
