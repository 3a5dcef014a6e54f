// internal/autoplay/autoplay.go

// Package autoplay drives full games through the public engine API by
// picking uniformly among legal moves. It is a demo and stress driver, not
// an AI: it suggests nothing and searches nothing. The driver plays the
// omniscient operator, so every draw and steal is declared and the game
// never accumulates mysteries.
package autoplay

import (
	"fmt"
	"math/rand"

	"github.com/tablemirror/settlers/engine"
)

// Driver holds the decision source. All randomness, dice included, comes
// from Rng; the engine itself never rolls.
type Driver struct {
	Rng *rand.Rand

	// EndTurnBias is the chance per post-roll decision to just end the
	// turn, keeping games finite even when builds are available.
	EndTurnBias float64
}

// New creates a driver with a sensible end-turn bias.
func New(rng *rand.Rand) *Driver {
	return &Driver{Rng: rng, EndTurnBias: 0.15}
}

// MaxSteps bounds a driven game; hitting it means the driver is stuck,
// which is a bug in either the driver or the engine.
const MaxSteps = 20000

// Run plays g to completion. The returned count is the number of actions
// applied.
func (d *Driver) Run(g *engine.Game) (int, error) {
	steps := 0
	for g.Phase != engine.PhaseGameOver {
		if steps >= MaxSteps {
			return steps, fmt.Errorf("autoplay: no winner after %d actions (phase %s, turn %d)",
				steps, g.Phase, g.TurnCount)
		}
		a, err := d.Next(g)
		if err != nil {
			return steps, err
		}
		if err := g.Apply(a); err != nil {
			return steps, fmt.Errorf("autoplay: %s rejected: %w", a.Kind, err)
		}
		steps++
	}
	return steps, nil
}

// Next chooses one legal action for the current position.
func (d *Driver) Next(g *engine.Game) (engine.Action, error) {
	switch g.Phase {
	case engine.PhaseSetup:
		return d.setupAction(g)
	case engine.PhasePreRoll:
		return engine.Action{
			Kind:  engine.ActionRoll,
			Actor: g.Current,
			Die1:  1 + d.Rng.Intn(6),
			Die2:  1 + d.Rng.Intn(6),
		}, nil
	case engine.PhaseRobber:
		return d.robberAction(g)
	case engine.PhasePostRoll:
		return d.postRollAction(g)
	}
	return engine.Action{}, fmt.Errorf("autoplay: no moves in phase %s", g.Phase)
}

func (d *Driver) setupAction(g *engine.Game) (engine.Action, error) {
	p := g.Current
	if g.Setup.AwaitRoad {
		paths := g.LegalRoads(p)
		if len(paths) == 0 {
			return engine.Action{}, fmt.Errorf("autoplay: no legal setup road for seat %d", p)
		}
		return engine.Action{Kind: engine.ActionPlaceRoad, Actor: p, Path: paths[d.Rng.Intn(len(paths))]}, nil
	}
	plots := g.LegalSettlements(p)
	if len(plots) == 0 {
		return engine.Action{}, fmt.Errorf("autoplay: no legal setup plot for seat %d", p)
	}
	return engine.Action{Kind: engine.ActionPlaceSettlement, Actor: p, Plot: plots[d.Rng.Intn(len(plots))]}, nil
}

// robberAction settles owed discards first, then moves the robber and
// steals when possible. Hands are fully known in driven games, so discards
// and steals are always declared.
func (d *Driver) robberAction(g *engine.Game) (engine.Action, error) {
	for p := 0; p < g.NumPlayers; p++ {
		if g.OwedDiscards[p] == 0 {
			continue
		}
		give := d.randomSubhand(g.Players[p].Known, g.OwedDiscards[p])
		return engine.Action{Kind: engine.ActionDiscard, Actor: engine.PlayerID(p), Give: give}, nil
	}

	hexes := g.LegalRobberHexes()
	if len(hexes) == 0 {
		return engine.Action{}, fmt.Errorf("autoplay: no robber destination")
	}
	hex := hexes[d.Rng.Intn(len(hexes))]
	a := engine.Action{Kind: engine.ActionMoveRobber, Actor: g.Current, Hex: hex}

	targets := g.StealTargets(hex, g.Current)
	if len(targets) > 0 {
		victim := targets[d.Rng.Intn(len(targets))]
		stolen := d.randomCard(g.Players[victim].Known)
		a.Victim = &victim
		a.Stolen = &stolen
	}
	return a, nil
}

func (d *Driver) postRollAction(g *engine.Game) (engine.Action, error) {
	p := g.Current

	// Free roads from road building must go down before anything else
	// interesting; if no placement is legal the turn simply moves on.
	if g.Turn.FreeRoads > 0 {
		if paths := g.LegalRoads(p); len(paths) > 0 {
			return engine.Action{Kind: engine.ActionPlaceRoad, Actor: p, Path: paths[d.Rng.Intn(len(paths))]}, nil
		}
	}

	if d.Rng.Float64() >= d.EndTurnBias {
		if a, ok := d.pickBuild(g, p); ok {
			return a, nil
		}
	}
	return engine.Action{Kind: engine.ActionEndTurn, Actor: p}, nil
}

// pickBuild samples one affordable post-roll move, preferring victory
// progress: city, settlement, road, dev play, dev buy, bank trade.
func (d *Driver) pickBuild(g *engine.Game, p engine.PlayerID) (engine.Action, bool) {
	type option func() (engine.Action, bool)
	options := []option{
		func() (engine.Action, bool) {
			plots := g.LegalCityUpgrades(p)
			if len(plots) == 0 {
				return engine.Action{}, false
			}
			return engine.Action{Kind: engine.ActionUpgradeCity, Actor: p, Plot: plots[d.Rng.Intn(len(plots))]}, true
		},
		func() (engine.Action, bool) {
			plots := g.LegalSettlements(p)
			if len(plots) == 0 {
				return engine.Action{}, false
			}
			return engine.Action{Kind: engine.ActionPlaceSettlement, Actor: p, Plot: plots[d.Rng.Intn(len(plots))]}, true
		},
		func() (engine.Action, bool) {
			paths := g.LegalRoads(p)
			if len(paths) == 0 || g.Players[p].RoadPieces <= 0 {
				return engine.Action{}, false
			}
			return engine.Action{Kind: engine.ActionPlaceRoad, Actor: p, Path: paths[d.Rng.Intn(len(paths))]}, true
		},
		func() (engine.Action, bool) { return d.pickDevPlay(g, p) },
		func() (engine.Action, bool) {
			if !g.CanBuyDev(p) {
				return engine.Action{}, false
			}
			card := d.randomRemainingDev(g)
			return engine.Action{Kind: engine.ActionBuyDev, Actor: p, Declared: &card}, true
		},
		func() (engine.Action, bool) {
			trades := g.LegalBankTrades(p)
			if len(trades) == 0 {
				return engine.Action{}, false
			}
			return trades[d.Rng.Intn(len(trades))], true
		},
	}
	for _, opt := range options {
		if a, ok := opt(); ok {
			return a, true
		}
	}
	return engine.Action{}, false
}

func (d *Driver) pickDevPlay(g *engine.Game, p engine.PlayerID) (engine.Action, bool) {
	devs := g.PlayableDevs(p)
	if len(devs) == 0 {
		return engine.Action{}, false
	}
	card := devs[d.Rng.Intn(len(devs))]
	a := engine.Action{Kind: engine.ActionPlayDev, Actor: p, Card: card}

	switch card {
	case engine.Monopoly:
		r := engine.Resource(d.Rng.Intn(engine.NumResources))
		a.Resource = &r
		a.Surrendered = make([]int, g.NumPlayers)
		for i := 0; i < g.NumPlayers; i++ {
			if engine.PlayerID(i) != p {
				a.Surrendered[i] = g.Players[i].Known[r]
			}
		}
	case engine.YearOfPlenty:
		var get engine.ResourceSet
		for n := 0; n < 2; n++ {
			avail := g.Bank
			avail.Sub(get)
			r, ok := d.randomAvailable(avail)
			if !ok {
				return engine.Action{}, false
			}
			get[r]++
		}
		a.Get = get
	}
	return a, true
}

// randomSubhand draws count cards uniformly without replacement from a
// known hand.
func (d *Driver) randomSubhand(hand engine.ResourceSet, count int) engine.ResourceSet {
	var give engine.ResourceSet
	for n := 0; n < count; n++ {
		r := d.randomCard(hand)
		hand[r]--
		give[r]++
	}
	return give
}

// randomCard picks one card uniformly from a non-empty hand.
func (d *Driver) randomCard(hand engine.ResourceSet) engine.Resource {
	total := hand.Total()
	k := d.Rng.Intn(total)
	for r, n := range hand {
		if k < n {
			return engine.Resource(r)
		}
		k -= n
	}
	return engine.Brick // unreachable on a non-empty hand
}

func (d *Driver) randomAvailable(bank engine.ResourceSet) (engine.Resource, bool) {
	if bank.Total() <= 0 {
		return 0, false
	}
	return d.randomCard(bank), true
}

// randomRemainingDev draws the declared type weighted by what the physical
// deck still holds. All prior draws were declared, so the revealed counts
// are the ground truth composition.
func (d *Driver) randomRemainingDev(g *engine.Game) engine.DevCard {
	remaining := make([]int, engine.NumDevTypes)
	total := 0
	for t := 0; t < engine.NumDevTypes; t++ {
		remaining[t] = engine.InitialDevCount(engine.DevCard(t)) - g.DevRevealed[t]
		total += remaining[t]
	}
	k := d.Rng.Intn(total)
	for t, n := range remaining {
		if k < n {
			return engine.DevCard(t)
		}
		k -= n
	}
	return engine.Knight // unreachable while the pool has cards
}
