package engine

import (
	"fmt"
	"strings"
)

// ResourceSet is a per-type count vector indexed by Resource. It is a value
// type; arithmetic never allocates.
type ResourceSet [NumResources]int

func (s ResourceSet) String() string {
	var parts []string
	for r, n := range s {
		if n != 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, Resource(r)))
		}
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}

// Only returns a set holding n of a single type.
func Only(r Resource, n int) ResourceSet {
	var s ResourceSet
	s[r] = n
	return s
}

// Total is the number of cards in the set.
func (s ResourceSet) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

// Contains reports whether s has at least o of every type.
func (s ResourceSet) Contains(o ResourceSet) bool {
	for i := range s {
		if s[i] < o[i] {
			return false
		}
	}
	return true
}

// Add accumulates o into s.
func (s *ResourceSet) Add(o ResourceSet) {
	for i := range s {
		s[i] += o[i]
	}
}

// Sub removes o from s. Callers check Contains first; a negative count here
// is a tracking bug surfaced by the conservation check.
func (s *ResourceSet) Sub(o ResourceSet) {
	for i := range s {
		s[i] -= o[i]
	}
}

// Negative reports whether any count dropped below zero.
func (s ResourceSet) Negative() bool {
	for _, v := range s {
		if v < 0 {
			return true
		}
	}
	return false
}

// BankCap is the per-type bank stock at game start.
const BankCap = 19

// TotalResourceCards is the conservation constant: bank plus all hands.
const TotalResourceCards = BankCap * NumResources

// fullBank returns a fresh 19-per-type bank.
func fullBank() ResourceSet {
	return ResourceSet{BankCap, BankCap, BankCap, BankCap, BankCap}
}

// production computes the payout for a rolled token. Hexes carrying the
// token and not hosting the robber pay 1 per adjacent settlement and 2 per
// adjacent city. The bank shortage rule applies per type: if the bank
// cannot fully pay a type claimed by more than one player, nobody receives
// that type; a single claimant receives what remains.
func (g *Game) production(token int) []ResourceSet {
	out := make([]ResourceSet, g.NumPlayers)
	for hexID := 1; hexID <= NumHexes; hexID++ {
		hex := &g.Board.Hexes[hexID]
		if hex.Token != token || g.Robber == hexID {
			continue
		}
		res, ok := hex.Terrain.Produces()
		if !ok {
			continue
		}
		for _, pid := range hex.Plots {
			owner := g.PlotOwner[pid]
			if owner == NoPlayer {
				continue
			}
			n := 1
			if g.PlotKind[pid] == City {
				n = 2
			}
			out[owner][res] += n
		}
	}

	for r := 0; r < NumResources; r++ {
		total, claimants, last := 0, 0, -1
		for p := range out {
			if out[p][r] > 0 {
				total += out[p][r]
				claimants++
				last = p
			}
		}
		if total <= g.Bank[r] {
			continue
		}
		for p := range out {
			out[p][r] = 0
		}
		if claimants == 1 {
			out[last][r] = g.Bank[r]
		}
	}
	return out
}
