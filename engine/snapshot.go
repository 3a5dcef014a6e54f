package engine

import (
	"encoding/json"
	"fmt"
)

// Snapshot serializes the complete tracked state: layout, ledgers,
// buildings, turn machine, log, and every individual mystery instance with
// its weights and twin link. Stacked projections are never stored. The
// state is map-free, so identical states produce identical bytes.
func (g *Game) Snapshot() ([]byte, error) {
	return json.Marshal(g)
}

// Restore rebuilds a game from a snapshot. The board graph is derived from
// the layout, and the result is validated structurally before use so a
// corrupted snapshot surfaces here instead of as a panic later.
func Restore(data []byte) (*Game, error) {
	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	board, err := newBoard(g.Layout)
	if err != nil {
		return nil, err
	}
	g.Board = board
	if err := g.validateRestored(); err != nil {
		return nil, err
	}
	return &g, nil
}

func (g *Game) validateRestored() error {
	if g.NumPlayers < 2 || g.NumPlayers > 4 || len(g.Players) != g.NumPlayers {
		return consistencyf("restore", "%d seats with %d player records", g.NumPlayers, len(g.Players))
	}
	if len(g.PlotOwner) != NumPlots+1 || len(g.PlotKind) != NumPlots+1 || len(g.PathOwner) != NumPaths+1 {
		return consistencyf("restore", "ownership arrays have wrong sizes")
	}
	if len(g.OwedDiscards) != g.NumPlayers {
		return consistencyf("restore", "owed discards cover %d seats", len(g.OwedDiscards))
	}
	if g.Robber < 1 || g.Robber > NumHexes {
		return consistencyf("restore", "robber on hex %d", g.Robber)
	}
	if g.Current < 0 || int(g.Current) >= g.NumPlayers {
		return consistencyf("restore", "current seat %d", g.Current)
	}
	for plot := 1; plot <= NumPlots; plot++ {
		if o := g.PlotOwner[plot]; o != NoPlayer && (o < 0 || int(o) >= g.NumPlayers) {
			return consistencyf("restore", "plot %d owned by seat %d", plot, o)
		}
	}
	for path := 1; path <= NumPaths; path++ {
		if o := g.PathOwner[path]; o != NoPlayer && (o < 0 || int(o) >= g.NumPlayers) {
			return consistencyf("restore", "path %d owned by seat %d", path, o)
		}
	}

	for i := range g.Mysteries {
		e := &g.Mysteries[i]
		if int(e.ID) != i+1 {
			return consistencyf("restore", "mystery ids not dense at index %d", i)
		}
		want := NumResources
		if e.Kind == MysteryDev {
			want = NumDevTypes
		}
		if len(e.Probs) != want {
			return consistencyf("restore", "mystery %d carries %d weights", e.ID, len(e.Probs))
		}
		if e.Twin != 0 {
			t := g.mystery(e.Twin)
			if t == nil || t.Twin != e.ID {
				return consistencyf("restore", "mystery %d twin link broken", e.ID)
			}
		}
		owner := e.Owner
		if owner != BankParty && (owner < 0 || int(owner) >= g.NumPlayers) {
			return consistencyf("restore", "mystery %d owned by seat %d", e.ID, owner)
		}
	}
	if int(g.NextMysteryID) != len(g.Mysteries)+1 {
		return consistencyf("restore", "next mystery id %d with %d entries", g.NextMysteryID, len(g.Mysteries))
	}

	return g.checkConservation("restore")
}
