package engine

import (
	"fmt"
	"sort"
	"strings"
)

// MysteryID numbers hidden units in creation order, starting at 1.
type MysteryID int

// MysteryKind separates hidden resource units from hidden development cards.
type MysteryKind uint8

const (
	MysteryResource MysteryKind = iota
	MysteryDev
)

// MysteryEntry is ONE hidden unit attached to one party. Unobserved steals
// create a linked gain/loss pair sharing a distribution; unknown dev draws
// create a single gain. Entries are never merged: two identical steals are
// two entries with identical, independently resolvable distributions.
//
// The distribution is fixed when the entry is created. It changes only by
// consistency narrowing (impossible types dropped, rest renormalized), never
// by re-weighting on indirect evidence.
type MysteryEntry struct {
	ID    MysteryID   `json:"id"`
	Kind  MysteryKind `json:"kind"`
	Owner PlayerID    `json:"owner"` // BankParty for the bank side of discards
	Gain  bool        `json:"gain"`  // gain: owner holds +1 unknown; loss: owner owes -1
	Twin  MysteryID   `json:"twin"`  // linked entry, 0 for dev draws
	Probs []float64   `json:"probs"` // indexed by Resource or DevCard
	Seq   int         `json:"seq"`   // log index of the creating action

	Resolved   bool `json:"resolved"`
	ResolvedAs int  `json:"resolved_as"` // -1 until resolved
}

// mystery returns the entry for an ID. IDs are dense and entries append-only,
// so this is an index, not a scan.
func (g *Game) mystery(id MysteryID) *MysteryEntry {
	if id < 1 || int(id) > len(g.Mysteries) {
		return nil
	}
	return &g.Mysteries[id-1]
}

// unresolved collects live entries for one party, creation order.
func (g *Game) unresolved(owner PlayerID, kind MysteryKind, gain bool) []*MysteryEntry {
	var out []*MysteryEntry
	for i := range g.Mysteries {
		e := &g.Mysteries[i]
		if !e.Resolved && e.Owner == owner && e.Kind == kind && e.Gain == gain {
			out = append(out, e)
		}
	}
	return out
}

// knownOf resolves a party's exact-count ledger: a seat's hand or the bank.
func (g *Game) knownOf(party PlayerID) *ResourceSet {
	if party == BankParty {
		return &g.Bank
	}
	return &g.Players[party].Known
}

// EffectiveHandSize is the physical card count of a hand: tracked counts
// plus unresolved gains minus unresolved losses.
func (g *Game) EffectiveHandSize(p PlayerID) int {
	n := g.Players[p].Known.Total()
	for i := range g.Mysteries {
		e := &g.Mysteries[i]
		if e.Resolved || e.Owner != p || e.Kind != MysteryResource {
			continue
		}
		if e.Gain {
			n++
		} else {
			n--
		}
	}
	return n
}

// effectiveComposition is the expected per-type holding of a hand, counting
// unresolved mystery mass. Used to weight a new steal from this hand.
func (g *Game) effectiveComposition(p PlayerID) [NumResources]float64 {
	var comp [NumResources]float64
	for r, n := range g.Players[p].Known {
		comp[r] = float64(n)
	}
	for i := range g.Mysteries {
		e := &g.Mysteries[i]
		if e.Resolved || e.Owner != p || e.Kind != MysteryResource {
			continue
		}
		for r := 0; r < NumResources; r++ {
			if e.Gain {
				comp[r] += e.Probs[r]
			} else {
				comp[r] -= e.Probs[r]
			}
		}
	}
	return comp
}

// effectiveMarginal normalizes a hand's effective composition into the draw
// distribution of one card pulled blind from it. Shared by steals and
// unobserved discards; units of one batch are exchangeable and carry the
// same marginal.
func (g *Game) effectiveMarginal(p PlayerID, op string) ([]float64, error) {
	comp := g.effectiveComposition(p)
	total := 0.0
	for r := 0; r < NumResources; r++ {
		if comp[r] < -1e-9 {
			return nil, consistencyf(op, "player %d expected %s count %.3f", p, Resource(r), comp[r])
		}
		if comp[r] < 0 {
			comp[r] = 0
		}
		total += comp[r]
	}
	if total <= 0 {
		return nil, consistencyf(op, "player %d has an empty effective hand", p)
	}
	probs := make([]float64, NumResources)
	for r := range probs {
		probs[r] = comp[r] / total
	}
	return probs, nil
}

// newStealMystery records an unobserved robber steal as a linked pair:
// thief gains one unknown card, victim owes one. Weights are the victim's
// effective composition over hand size at this moment, frozen afterwards.
func (g *Game) newStealMystery(thief, victim PlayerID, seq int) error {
	probs, err := g.effectiveMarginal(victim, "steal")
	if err != nil {
		return err
	}

	gainID := g.NextMysteryID
	lossID := gainID + 1
	g.NextMysteryID += 2
	g.Mysteries = append(g.Mysteries,
		MysteryEntry{ID: gainID, Kind: MysteryResource, Owner: thief, Gain: true, Twin: lossID, Probs: probs, Seq: seq, ResolvedAs: -1},
		MysteryEntry{ID: lossID, Kind: MysteryResource, Owner: victim, Gain: false, Twin: gainID, Probs: append([]float64(nil), probs...), Seq: seq, ResolvedAs: -1},
	)
	return nil
}

// newDiscardMystery records one unobserved discarded card: the player owes
// one unknown card and the bank gains it. Every unit of a batch carries the
// same marginal distribution; draws without replacement are exchangeable.
func (g *Game) newDiscardMystery(p PlayerID, probs []float64, seq int) {
	lossID := g.NextMysteryID
	gainID := lossID + 1
	g.NextMysteryID += 2
	g.Mysteries = append(g.Mysteries,
		MysteryEntry{ID: lossID, Kind: MysteryResource, Owner: p, Gain: false, Twin: gainID, Probs: append([]float64(nil), probs...), Seq: seq, ResolvedAs: -1},
		MysteryEntry{ID: gainID, Kind: MysteryResource, Owner: BankParty, Gain: true, Twin: lossID, Probs: append([]float64(nil), probs...), Seq: seq, ResolvedAs: -1},
	)
}

// newDevMystery records an unknown development draw. The weight of type d is
// remaining_d / total_remaining against the pool's exact composition at draw
// time, where "remaining" discounts every revealed card. Later reveals never
// reshape this distribution.
func (g *Game) newDevMystery(buyer PlayerID, seq int) MysteryID {
	remaining := 0
	for d := 0; d < NumDevTypes; d++ {
		remaining += devCardCounts[d] - g.DevRevealed[d]
	}
	probs := make([]float64, NumDevTypes)
	for d := 0; d < NumDevTypes; d++ {
		probs[d] = float64(devCardCounts[d]-g.DevRevealed[d]) / float64(remaining)
	}
	id := g.NextMysteryID
	g.NextMysteryID++
	g.Mysteries = append(g.Mysteries,
		MysteryEntry{ID: id, Kind: MysteryDev, Owner: buyer, Gain: true, Probs: probs, Seq: seq, ResolvedAs: -1})
	return id
}

// resolvePair collapses an entry (and its twin) to ground truth, moving the
// pending unit between known ledgers. Declaring a type the distribution
// excludes means the model diverged: that is fatal, not invalid input.
func (g *Game) resolvePair(id MysteryID, as int, op string) error {
	e := g.mystery(id)
	if e == nil || e.Resolved {
		return fmt.Errorf("%w: %d", ErrNoSuchMystery, id)
	}
	if as < 0 || as >= len(e.Probs) {
		return fmt.Errorf("%w: resolution type %d out of range", ErrBadAction, as)
	}
	if e.Probs[as] == 0 {
		return consistencyf(op, "mystery %d cannot be %d: excluded by prior observations", id, as)
	}

	if e.Kind == MysteryDev {
		g.Players[e.Owner].DevKnown[as]++
		g.DevRevealed[as]++
		if g.DevRevealed[as] > devCardCounts[as] {
			return consistencyf(op, "%d %s development cards revealed, pool holds %d",
				g.DevRevealed[as], DevCard(as), devCardCounts[as])
		}
		e.Resolved = true
		e.ResolvedAs = as
		return nil
	}

	twin := g.mystery(e.Twin)
	if twin == nil || twin.Resolved {
		return consistencyf(op, "mystery %d has no live twin %d", id, e.Twin)
	}
	gainSide, lossSide := e, twin
	if !e.Gain {
		gainSide, lossSide = twin, e
	}

	if g.knownOf(lossSide.Owner)[as] == 0 {
		// The surrendered card is not in the known hand, so it must itself
		// be one of the loss side's pending gains: cascade that gain to the
		// same type, or the model has diverged.
		cover := g.coveringGain(lossSide.Owner, as, e.ID, twin.ID)
		if cover == 0 {
			return consistencyf(op, "resolving mystery %d as %s drives player %d negative",
				id, Resource(as), lossSide.Owner)
		}
		if err := g.resolvePair(cover, as, op); err != nil {
			return err
		}
		// Deep cascades can touch this pair too; re-check before moving on.
		if e.Resolved {
			if e.ResolvedAs == as {
				return nil
			}
			return consistencyf(op, "mystery %d collapsed to %d while resolving as %d", id, e.ResolvedAs, as)
		}
		if e.Probs[as] == 0 {
			return consistencyf(op, "mystery %d lost type %d to narrowing mid-cascade", id, as)
		}
	}

	gk := g.knownOf(gainSide.Owner)
	lk := g.knownOf(lossSide.Owner)
	gk[as]++
	lk[as]--
	if lk[as] < 0 {
		return consistencyf(op, "resolving mystery %d as %s drives player %d negative",
			id, Resource(as), lossSide.Owner)
	}
	if gainSide.Owner == BankParty && g.Bank[as] > BankCap {
		return consistencyf(op, "bank %s stock above %d", Resource(as), BankCap)
	}
	e.Resolved, twin.Resolved = true, true
	e.ResolvedAs, twin.ResolvedAs = as, as

	// The loss side's hand shrank; other pending losses may now be narrower.
	return g.narrowLosses(lossSide.Owner, op)
}

// coveringGain picks the unresolved resource gain of owner that a cascade
// should collapse to type as: highest weight on as, lowest ID on ties. Zero
// when no candidate exists.
func (g *Game) coveringGain(owner PlayerID, as int, skip1, skip2 MysteryID) MysteryID {
	var best MysteryID
	bestP := 0.0
	for _, e := range g.unresolved(owner, MysteryResource, true) {
		if e.ID == skip1 || e.ID == skip2 || e.Probs[as] <= 0 {
			continue
		}
		if e.Probs[as] > bestP {
			best, bestP = e.ID, e.Probs[as]
		}
	}
	return best
}

// restrict drops one type from an entry's support and renormalizes entry and
// twin. Empty support is fatal; a singleton support collapses immediately.
func (g *Game) restrict(e *MysteryEntry, drop int, op string) error {
	if e.Resolved || e.Probs[drop] == 0 {
		return nil
	}
	e.Probs[drop] = 0
	rest := 0.0
	nonzero, last := 0, -1
	for i, p := range e.Probs {
		if p > 0 {
			rest += p
			nonzero++
			last = i
		}
	}
	if nonzero == 0 {
		return consistencyf(op, "mystery %d has no possible type left", e.ID)
	}
	for i := range e.Probs {
		e.Probs[i] /= rest
	}
	if e.Twin != 0 {
		twin := g.mystery(e.Twin)
		copy(twin.Probs, e.Probs)
	}
	if nonzero == 1 {
		return g.resolvePair(e.ID, last, op)
	}
	return nil
}

// narrowLosses enforces, for every pending loss of a party, that the owed
// type is one the hand can still physically surrender: a type with a zero
// known count and no pending gain that could cover it is impossible.
func (g *Game) narrowLosses(party PlayerID, op string) error {
	known := g.knownOf(party)
	for r := 0; r < NumResources; r++ {
		if known[r] > 0 {
			continue
		}
		covered := false
		for _, gain := range g.unresolved(party, MysteryResource, true) {
			if gain.Probs[r] > 0 {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		for _, loss := range g.unresolved(party, MysteryResource, false) {
			if err := g.restrict(loss, r, op); err != nil {
				return err
			}
		}
	}
	return nil
}

// coveragePlan is a forced collapse required before a payment can happen.
type coveragePlan struct {
	id MysteryID
	as Resource
}

// planCoverage decides whether a party can pay cost in at least one hand
// consistent with its mysteries, and which gain entries must collapse to
// which types to do it. Assignment is a bipartite matching over per-type
// shortfalls; candidate order (probability desc, ID asc) makes the plan,
// and therefore replay, deterministic.
func (g *Game) planCoverage(party PlayerID, cost ResourceSet) ([]coveragePlan, bool) {
	known := g.knownOf(party)
	var units []Resource
	for r := 0; r < NumResources; r++ {
		for n := cost[r] - known[r]; n > 0; n-- {
			units = append(units, Resource(r))
		}
	}
	if len(units) == 0 {
		return nil, true
	}

	gains := g.unresolved(party, MysteryResource, true)
	if len(gains) < len(units) {
		return nil, false
	}
	assigned := make(map[MysteryID]Resource, len(units))

	var try func(r Resource, visited map[MysteryID]bool) bool
	try = func(r Resource, visited map[MysteryID]bool) bool {
		cands := make([]*MysteryEntry, 0, len(gains))
		for _, e := range gains {
			if e.Probs[r] > 0 && !visited[e.ID] {
				cands = append(cands, e)
			}
		}
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].Probs[r] != cands[j].Probs[r] {
				return cands[i].Probs[r] > cands[j].Probs[r]
			}
			return cands[i].ID < cands[j].ID
		})
		for _, e := range cands {
			visited[e.ID] = true
			prev, taken := assigned[e.ID]
			if !taken || try(prev, visited) {
				assigned[e.ID] = r
				return true
			}
		}
		return false
	}

	for _, r := range units {
		if !try(r, map[MysteryID]bool{}) {
			return nil, false
		}
	}

	plan := make([]coveragePlan, 0, len(assigned))
	for id, r := range assigned {
		plan = append(plan, coveragePlan{id: id, as: r})
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].id < plan[j].id })
	return plan, true
}

// spend removes cost from a party's hand. Shortfalls against known counts
// force mystery collapses per the coverage plan; afterwards the hand is
// narrowed. The caller routes the removed cards (bank, trade partner).
func (g *Game) spend(party PlayerID, cost ResourceSet, op string) error {
	plan, ok := g.planCoverage(party, cost)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInsufficientResources, op)
	}
	for _, step := range plan {
		// An earlier collapse can cascade and resolve a later step for us.
		if e := g.mystery(step.id); e != nil && e.Resolved {
			if e.ResolvedAs == int(step.as) {
				continue
			}
			return consistencyf(op, "mystery %d collapsed to %d while the payment needs %s",
				step.id, e.ResolvedAs, step.as)
		}
		if err := g.resolvePair(step.id, int(step.as), op); err != nil {
			return err
		}
	}
	known := g.knownOf(party)
	known.Sub(cost)
	if known.Negative() {
		return consistencyf(op, "party %d overspent after forced collapses", party)
	}
	return g.narrowLosses(party, op)
}

// canSpend is the validation half of spend.
func (g *Game) canSpend(party PlayerID, cost ResourceSet) bool {
	_, ok := g.planCoverage(party, cost)
	return ok
}

// grant adds cards to a party's hand from nowhere; callers pair it with a
// spend on the other side to preserve conservation.
func (g *Game) grant(party PlayerID, set ResourceSet) {
	g.knownOf(party).Add(set)
}

// conditionExactCount digests an observation that a player's physical
// holding of r is exactly n (a monopoly surrender). The unique consistent
// net mystery contribution is n - known; the minimal interpretation collapses
// that many gains (or losses) to r and excludes r from whatever remains.
func (g *Game) conditionExactCount(p PlayerID, r Resource, n int, op string) error {
	if n < 0 {
		return fmt.Errorf("%w: negative observed count", ErrBadAction)
	}
	delta := n - g.Players[p].Known[r]

	var gainIDs, lossIDs []MysteryID
	for _, e := range g.unresolved(p, MysteryResource, true) {
		if e.Probs[r] > 0 {
			gainIDs = append(gainIDs, e.ID)
		}
	}
	for _, e := range g.unresolved(p, MysteryResource, false) {
		if e.Probs[r] > 0 {
			lossIDs = append(lossIDs, e.ID)
		}
	}

	needGains, needLosses := 0, 0
	if delta > 0 {
		needGains = delta
	} else {
		needLosses = -delta
	}
	if needGains > len(gainIDs) || needLosses > len(lossIDs) {
		return consistencyf(op, "player %d shows %d %s, model cannot reach it (known %d, +%d/-%d candidates)",
			p, n, r, g.Players[p].Known[r], len(gainIDs), len(lossIDs))
	}

	collapse := func(ids []MysteryID, count int) error {
		byWeight := append([]MysteryID(nil), ids...)
		sort.SliceStable(byWeight, func(i, j int) bool {
			pi, pj := g.mystery(byWeight[i]).Probs[r], g.mystery(byWeight[j]).Probs[r]
			if pi != pj {
				return pi > pj
			}
			return byWeight[i] < byWeight[j]
		})
		for _, id := range byWeight[:count] {
			if e := g.mystery(id); e != nil && e.Resolved {
				if e.ResolvedAs == int(r) {
					continue
				}
				return consistencyf(op, "mystery %d collapsed to %d while the count demands %s",
					id, e.ResolvedAs, r)
			}
			if err := g.resolvePair(id, int(r), op); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collapse(gainIDs, needGains); err != nil {
		return err
	}
	if err := collapse(lossIDs, needLosses); err != nil {
		return err
	}

	if got := g.Players[p].Known[r]; got != n {
		return consistencyf(op, "player %d shows %d %s, ledger has %d after conditioning", p, n, r, got)
	}

	// Everything the player could surrender as r has been surrendered; no
	// remaining unknown unit of this hand can be r.
	for _, e := range g.unresolved(p, MysteryResource, true) {
		if err := g.restrict(e, int(r), op); err != nil {
			return err
		}
	}
	for _, e := range g.unresolved(p, MysteryResource, false) {
		if err := g.restrict(e, int(r), op); err != nil {
			return err
		}
	}
	return nil
}

// MysteryStack is a display-only grouping of identically distributed live
// entries. The underlying instances stay individual; serialization never
// stores stacks.
type MysteryStack struct {
	Owner PlayerID    `json:"owner"`
	Kind  MysteryKind `json:"kind"`
	Gain  bool        `json:"gain"`
	Count int         `json:"count"`
	Probs []float64   `json:"probs"`
	IDs   []MysteryID `json:"ids"`
}

// MysteryStacks projects a party's live entries into display stacks, in
// first-created order.
func (g *Game) MysteryStacks(owner PlayerID) []MysteryStack {
	byKey := map[string]int{}
	var out []MysteryStack
	for i := range g.Mysteries {
		e := &g.Mysteries[i]
		if e.Resolved || e.Owner != owner {
			continue
		}
		key := stackKey(e)
		idx, ok := byKey[key]
		if !ok {
			idx = len(out)
			byKey[key] = idx
			out = append(out, MysteryStack{
				Owner: e.Owner,
				Kind:  e.Kind,
				Gain:  e.Gain,
				Probs: append([]float64(nil), e.Probs...),
			})
		}
		out[idx].Count++
		out[idx].IDs = append(out[idx].IDs, e.ID)
	}
	return out
}

func stackKey(e *MysteryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%t", e.Kind, e.Gain)
	for _, p := range e.Probs {
		fmt.Fprintf(&b, "|%.9f", p)
	}
	return b.String()
}
