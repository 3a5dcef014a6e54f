package engine

import "fmt"

// DevPoolRemaining is how many cards are still in the bank's pool.
func (g *Game) DevPoolRemaining() int { return DevPoolSize - g.DevDrawn }

// devRemaining is how many copies of d are not yet revealed anywhere:
// still in the pool, or hidden inside someone's mystery hand.
func (g *Game) devRemaining(d DevCard) int { return devCardCounts[d] - g.DevRevealed[d] }

// buyDev draws one card for p, paying the bank. A declared type is revealed
// immediately; an undeclared draw becomes a mystery instance weighted by the
// pool composition at this moment. Either way the card is unplayable until
// next turn.
func (g *Game) buyDev(p PlayerID, declared *DevCard, seq int) error {
	if g.DevDrawn >= DevPoolSize {
		return fmt.Errorf("%w: development card pool is empty", ErrInsufficientPieces)
	}
	if declared != nil && int(*declared) >= NumDevTypes {
		return fmt.Errorf("%w: card %d", ErrBadAction, *declared)
	}
	if !g.canSpend(p, DevCardCost) {
		return fmt.Errorf("%w: development card costs %s", ErrInsufficientResources, DevCardCost)
	}
	if declared != nil && g.devRemaining(*declared) <= 0 {
		return consistencyf("buy_dev", "drawn %s declared but all %d are already revealed",
			*declared, devCardCounts[*declared])
	}

	if err := g.spend(p, DevCardCost, "buy_dev"); err != nil {
		return err
	}
	g.grant(BankParty, DevCardCost)
	g.DevDrawn++

	if declared != nil {
		d := *declared
		g.Players[p].DevKnown[d]++
		g.DevRevealed[d]++
		g.Turn.BoughtKnown[d]++
		return nil
	}
	id := g.newDevMystery(p, seq)
	g.Turn.BoughtMystery = append(g.Turn.BoughtMystery, id)
	return nil
}

// playableMystery picks the mystery instance that playing d would collapse:
// the live instance not bought this turn with the highest weight on d,
// lowest ID on ties. Zero means no candidate.
func (g *Game) playableMystery(p PlayerID, d DevCard) MysteryID {
	boughtNow := make(map[MysteryID]bool, len(g.Turn.BoughtMystery))
	for _, id := range g.Turn.BoughtMystery {
		boughtNow[id] = true
	}
	var best MysteryID
	bestP := 0.0
	for _, e := range g.unresolved(p, MysteryDev, true) {
		if boughtNow[e.ID] || e.Probs[d] <= 0 {
			continue
		}
		if e.Probs[d] > bestP {
			best, bestP = e.ID, e.Probs[d]
		}
	}
	return best
}

// CanPlayDev reports whether p holds a playable d right now: a known copy
// from an earlier turn, or a mystery from an earlier turn that could be d.
// Phase and turn ownership are the caller's concern.
func (g *Game) CanPlayDev(p PlayerID, d DevCard) bool {
	if d == VictoryCard || g.Turn.DevPlayed {
		return false
	}
	if g.Players[p].DevKnown[d] > g.Turn.BoughtKnown[d] {
		return true
	}
	return g.playableMystery(p, d) != 0
}

// playDev does the hand bookkeeping for playing d: prefers a known copy not
// bought this turn, otherwise collapses the best mystery candidate. The
// card's effect is the caller's job.
func (g *Game) playDev(p PlayerID, d DevCard) error {
	if d == VictoryCard {
		return fmt.Errorf("%w: victory point cards count passively", ErrDevCardUnplayable)
	}
	if g.Turn.DevPlayed {
		return fmt.Errorf("%w: one per turn", ErrDevCardLimit)
	}
	if g.Players[p].DevKnown[d] <= g.Turn.BoughtKnown[d] {
		id := g.playableMystery(p, d)
		if id == 0 {
			return fmt.Errorf("%w: no playable %s", ErrDevCardUnplayable, d)
		}
		if err := g.resolvePair(id, int(d), "play_dev"); err != nil {
			return err
		}
	}
	g.Players[p].DevKnown[d]--
	g.Players[p].DevPlayed[d]++
	g.Turn.DevPlayed = true
	return nil
}
