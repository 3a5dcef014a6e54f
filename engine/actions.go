package engine

import (
	"errors"
	"fmt"
)

// ActionKind names every recordable table event.
type ActionKind string

const (
	ActionPlaceSettlement ActionKind = "place_settlement"
	ActionPlaceRoad       ActionKind = "place_road"
	ActionUpgradeCity     ActionKind = "upgrade_city"
	ActionRoll            ActionKind = "roll"
	ActionDiscard         ActionKind = "discard"
	ActionMoveRobber      ActionKind = "move_robber"
	ActionBuyDev          ActionKind = "buy_dev"
	ActionPlayDev         ActionKind = "play_dev"
	ActionTradePlayer     ActionKind = "trade_player"
	ActionTradeBank       ActionKind = "trade_bank"
	ActionRevealMystery   ActionKind = "reveal_mystery"
	ActionEndTurn         ActionKind = "end_turn"
)

// Action is one logged table event. A single flat struct covers every kind;
// fields a kind does not use stay zero. Identifiers are 1-based, so zero is
// never a valid plot/path/hex/mystery. Pointer fields mark information the
// operator may not have: a nil Victim is a robber move without a steal, a
// nil Stolen or Declared is an unobserved card.
//
// The log of applied Actions plus the initial configuration replays the
// game exactly: dice values ride in the action, and every forced mystery
// collapse is ordered deterministically.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Actor PlayerID   `json:"actor"`

	Plot int `json:"plot,omitempty"` // place_settlement, upgrade_city
	Path int `json:"path,omitempty"` // place_road
	Hex  int `json:"hex,omitempty"`  // move_robber

	Die1 int `json:"die1,omitempty"` // roll
	Die2 int `json:"die2,omitempty"`

	Victim *PlayerID `json:"victim,omitempty"` // move_robber steal target
	Stolen *Resource `json:"stolen,omitempty"` // move_robber observed card

	Declared *DevCard `json:"declared,omitempty"` // buy_dev observed draw
	Card     DevCard  `json:"card,omitempty"`     // play_dev

	Resource    *Resource `json:"resource,omitempty"`    // monopoly target
	Surrendered []int     `json:"surrendered,omitempty"` // monopoly observed counts per seat

	Give ResourceSet `json:"give"` // trades; discard observed part
	Get  ResourceSet `json:"get"`

	Partner PlayerID `json:"partner,omitempty"` // trade_player counterparty
	Unknown int      `json:"unknown,omitempty"` // discard unobserved count

	Mystery MysteryID `json:"mystery,omitempty"` // reveal_mystery
	As      int       `json:"as,omitempty"`      // reveal_mystery outcome index
}

// Apply runs one action: cheap guards, then a full dispatch against a clone,
// then the same dispatch against the live state. Any error from the dry run
// rejects the action with the state byte-identical, including fatal
// consistency errors, which report divergence without corrupting the last
// good state. The live dispatch after a clean dry run cannot fail.
func (g *Game) Apply(a Action) error {
	if err := g.precheck(a); err != nil {
		return err
	}
	dry := g.Clone()
	if err := dry.dispatch(a); err != nil {
		return err
	}
	if err := dry.checkConservation(string(a.Kind)); err != nil {
		return err
	}
	if err := g.dispatch(a); err != nil {
		return err
	}
	g.Log = append(g.Log, a)
	if err := g.checkConservation(string(a.Kind)); err != nil {
		return err
	}
	g.checkVictory()
	return nil
}

// precheck rejects what no handler should ever see.
func (g *Game) precheck(a Action) error {
	if g.Phase == PhaseGameOver {
		return fmt.Errorf("%w: seat %d won", ErrGameOver, g.Winner)
	}
	if a.Actor < 0 || int(a.Actor) >= g.NumPlayers {
		return fmt.Errorf("%w: seat %d", ErrNoSuchPlayer, a.Actor)
	}
	switch a.Kind {
	case ActionDiscard, ActionRevealMystery:
		// any seat: discards are owed by non-current players, and
		// observations arrive whenever the table discloses them
	default:
		if a.Actor != g.Current {
			return fmt.Errorf("%w: seat %d is up", ErrNotYourTurn, g.Current)
		}
	}
	return nil
}

func (g *Game) dispatch(a Action) error {
	switch a.Kind {
	case ActionPlaceSettlement:
		return g.applyPlaceSettlement(a)
	case ActionPlaceRoad:
		return g.applyPlaceRoad(a)
	case ActionUpgradeCity:
		return g.applyUpgradeCity(a)
	case ActionRoll:
		return g.applyRoll(a)
	case ActionDiscard:
		return g.applyDiscard(a)
	case ActionMoveRobber:
		return g.applyMoveRobber(a)
	case ActionBuyDev:
		return g.applyBuyDev(a)
	case ActionPlayDev:
		return g.applyPlayDev(a)
	case ActionTradePlayer:
		return g.applyTradePlayer(a)
	case ActionTradeBank:
		return g.applyTradeBank(a)
	case ActionRevealMystery:
		return g.applyRevealMystery(a)
	case ActionEndTurn:
		return g.applyEndTurn(a)
	}
	return fmt.Errorf("%w: unknown kind %q", ErrBadAction, a.Kind)
}

func (g *Game) applyPlaceSettlement(a Action) error {
	switch g.Phase {
	case PhaseSetup:
		if g.Setup.AwaitRoad {
			return fmt.Errorf("%w: the settlement at plot %d needs its road first", ErrWrongPhase, g.Setup.LastPlot)
		}
		if err := g.settlementLegal(a.Actor, a.Plot, true); err != nil {
			return err
		}
		g.placeSettlement(a.Actor, a.Plot)
		if g.Setup.Placements >= g.NumPlayers {
			g.payoutSetup(a.Actor, a.Plot)
		}
		g.Setup.AwaitRoad = true
		g.Setup.LastPlot = a.Plot
		g.recomputeLongestRoad()
		return nil

	case PhasePostRoll:
		if err := g.settlementLegal(a.Actor, a.Plot, false); err != nil {
			return err
		}
		if err := g.spend(a.Actor, SettlementCost, "place_settlement"); err != nil {
			return err
		}
		g.grant(BankParty, SettlementCost)
		g.placeSettlement(a.Actor, a.Plot)
		g.recomputeLongestRoad()
		return nil
	}
	return fmt.Errorf("%w: no building during %s", ErrWrongPhase, g.Phase)
}

// payoutSetup grants the starting hand of a second settlement: one card per
// adjacent producing hex, token irrelevant.
func (g *Game) payoutSetup(p PlayerID, plot int) {
	for _, hexID := range g.Board.Plots[plot].Hexes {
		if res, ok := g.Board.Hexes[hexID].Terrain.Produces(); ok {
			g.Bank[res]--
			g.Players[p].Known[res]++
		}
	}
}

func (g *Game) applyPlaceRoad(a Action) error {
	switch g.Phase {
	case PhaseSetup:
		if !g.Setup.AwaitRoad {
			return fmt.Errorf("%w: place a settlement first", ErrWrongPhase)
		}
		if err := g.roadLegal(a.Actor, a.Path, g.Setup.LastPlot); err != nil {
			return err
		}
		g.placeRoad(a.Actor, a.Path)
		g.Setup.AwaitRoad = false
		g.Setup.LastPlot = 0
		g.Setup.Placements++
		if g.Setup.Placements == 2*g.NumPlayers {
			g.Phase = PhasePreRoll
			g.Current = 0
			g.TurnCount = 1
		} else {
			g.Current = g.setupSeat()
		}
		g.recomputeLongestRoad()
		return nil

	case PhasePostRoll:
		if err := g.roadLegal(a.Actor, a.Path, 0); err != nil {
			return err
		}
		if g.Turn.FreeRoads > 0 {
			g.Turn.FreeRoads--
		} else {
			if err := g.spend(a.Actor, RoadCost, "place_road"); err != nil {
				return err
			}
			g.grant(BankParty, RoadCost)
		}
		g.placeRoad(a.Actor, a.Path)
		g.recomputeLongestRoad()
		return nil
	}
	return fmt.Errorf("%w: no building during %s", ErrWrongPhase, g.Phase)
}

func (g *Game) applyUpgradeCity(a Action) error {
	if g.Phase != PhasePostRoll {
		return fmt.Errorf("%w: no building during %s", ErrWrongPhase, g.Phase)
	}
	if err := g.cityLegal(a.Actor, a.Plot); err != nil {
		return err
	}
	if err := g.spend(a.Actor, CityCost, "upgrade_city"); err != nil {
		return err
	}
	g.grant(BankParty, CityCost)
	g.upgradeCity(a.Actor, a.Plot)
	return nil
}

func (g *Game) applyRoll(a Action) error {
	if g.Phase != PhasePreRoll {
		return fmt.Errorf("%w: roll from %s", ErrWrongPhase, g.Phase)
	}
	if a.Die1 < 1 || a.Die1 > 6 || a.Die2 < 1 || a.Die2 > 6 {
		return fmt.Errorf("%w: dice %d/%d", ErrBadAction, a.Die1, a.Die2)
	}

	if a.Die1+a.Die2 == 7 {
		for p := 0; p < g.NumPlayers; p++ {
			if n := g.EffectiveHandSize(PlayerID(p)); n > DiscardLimit {
				g.OwedDiscards[p] = n / 2
			}
		}
		g.Phase = PhaseRobber
		return nil
	}

	for p, set := range g.production(a.Die1 + a.Die2) {
		if set == (ResourceSet{}) {
			continue
		}
		if err := g.spend(BankParty, set, "roll"); err != nil {
			return err
		}
		g.grant(PlayerID(p), set)
	}
	g.Phase = PhasePostRoll
	return nil
}

func (g *Game) applyDiscard(a Action) error {
	if g.Phase != PhaseRobber {
		return fmt.Errorf("%w: no discards outside the robber phase", ErrWrongPhase)
	}
	owed := g.OwedDiscards[a.Actor]
	if owed == 0 {
		return fmt.Errorf("%w: seat %d owes no discards", ErrBadAction, a.Actor)
	}
	if a.Give.Negative() || a.Unknown < 0 {
		return fmt.Errorf("%w: negative discard counts", ErrBadAction)
	}
	if got := a.Give.Total() + a.Unknown; got != owed {
		return fmt.Errorf("%w: seat %d owes %d discards, got %d", ErrBadAction, a.Actor, owed, got)
	}

	seq := len(g.Log)
	if a.Give.Total() > 0 {
		if err := g.spend(a.Actor, a.Give, "discard"); err != nil {
			return err
		}
		g.grant(BankParty, a.Give)
	}
	if a.Unknown > 0 {
		if g.EffectiveHandSize(a.Actor) < a.Unknown {
			return consistencyf("discard", "seat %d cannot cover %d unknown discards", a.Actor, a.Unknown)
		}
		probs, err := g.effectiveMarginal(a.Actor, "discard")
		if err != nil {
			return err
		}
		for i := 0; i < a.Unknown; i++ {
			g.newDiscardMystery(a.Actor, probs, seq)
		}
	}
	g.OwedDiscards[a.Actor] = 0
	return nil
}

func (g *Game) applyMoveRobber(a Action) error {
	if g.Phase != PhaseRobber {
		return fmt.Errorf("%w: the robber is not pending", ErrWrongPhase)
	}
	for p, owed := range g.OwedDiscards {
		if owed > 0 {
			return fmt.Errorf("%w: seat %d owes %d", ErrDiscardPending, p, owed)
		}
	}
	if a.Hex < 1 || a.Hex > NumHexes {
		return fmt.Errorf("%w: hex %d", ErrBadAction, a.Hex)
	}
	if a.Hex == g.Robber {
		return fmt.Errorf("%w: the robber must move off hex %d", ErrBadAction, a.Hex)
	}

	if a.Victim == nil {
		g.Robber = a.Hex
		g.Phase = PhasePostRoll
		return nil
	}

	v := *a.Victim
	if v < 0 || int(v) >= g.NumPlayers || v == a.Actor {
		return fmt.Errorf("%w: victim seat %d", ErrBadAction, v)
	}
	hosts := false
	for _, pid := range g.Board.Hexes[a.Hex].Plots {
		if g.PlotOwner[pid] == v {
			hosts = true
			break
		}
	}
	if !hosts {
		return fmt.Errorf("%w: seat %d has no building on hex %d", ErrBadAction, v, a.Hex)
	}
	if g.EffectiveHandSize(v) <= 0 {
		return fmt.Errorf("%w: seat %d holds no cards", ErrBadAction, v)
	}

	if a.Stolen != nil {
		if int(*a.Stolen) >= NumResources {
			return fmt.Errorf("%w: resource %d", ErrBadAction, *a.Stolen)
		}
		// An observed card the victim provably cannot hold is divergence,
		// not bad input.
		if err := g.spend(v, Only(*a.Stolen, 1), "steal"); err != nil {
			if errors.Is(err, ErrInsufficientResources) {
				return consistencyf("steal", "seat %d cannot hold the observed %s", v, *a.Stolen)
			}
			return err
		}
		g.grant(a.Actor, Only(*a.Stolen, 1))
	} else {
		if err := g.newStealMystery(a.Actor, v, len(g.Log)); err != nil {
			return err
		}
	}
	g.Robber = a.Hex
	g.Phase = PhasePostRoll
	return nil
}

func (g *Game) applyBuyDev(a Action) error {
	if g.Phase != PhasePostRoll {
		return fmt.Errorf("%w: buy in the build phase", ErrWrongPhase)
	}
	return g.buyDev(a.Actor, a.Declared, len(g.Log))
}

func (g *Game) applyPlayDev(a Action) error {
	if g.Phase != PhasePostRoll {
		return fmt.Errorf("%w: play in the build phase", ErrWrongPhase)
	}
	if int(a.Card) >= NumDevTypes {
		return fmt.Errorf("%w: card %d", ErrBadAction, a.Card)
	}

	switch a.Card {
	case Knight:
		if err := g.playDev(a.Actor, Knight); err != nil {
			return err
		}
		g.recomputeLargestArmy()
		g.Phase = PhaseRobber
		return nil

	case Monopoly:
		if a.Resource == nil || int(*a.Resource) >= NumResources {
			return fmt.Errorf("%w: monopoly names a resource", ErrBadAction)
		}
		if len(a.Surrendered) != g.NumPlayers {
			return fmt.Errorf("%w: surrendered counts must cover all %d seats", ErrBadAction, g.NumPlayers)
		}
		for p, n := range a.Surrendered {
			if n < 0 || (PlayerID(p) == a.Actor && n != 0) {
				return fmt.Errorf("%w: surrendered[%d] = %d", ErrBadAction, p, n)
			}
		}
		if err := g.playDev(a.Actor, Monopoly); err != nil {
			return err
		}
		r := *a.Resource
		total := 0
		for p := 0; p < g.NumPlayers; p++ {
			if PlayerID(p) == a.Actor {
				continue
			}
			n := a.Surrendered[p]
			if err := g.conditionExactCount(PlayerID(p), r, n, "monopoly"); err != nil {
				return err
			}
			if n == 0 {
				continue
			}
			if err := g.spend(PlayerID(p), Only(r, n), "monopoly"); err != nil {
				return err
			}
			total += n
		}
		g.grant(a.Actor, Only(r, total))
		return nil

	case RoadBuilding:
		if err := g.playDev(a.Actor, RoadBuilding); err != nil {
			return err
		}
		g.Turn.FreeRoads = 2
		return nil

	case YearOfPlenty:
		if a.Get.Negative() || a.Get.Total() != 2 {
			return fmt.Errorf("%w: year of plenty takes exactly 2 cards", ErrBadAction)
		}
		if !g.canSpend(BankParty, a.Get) {
			return fmt.Errorf("%w: %s", ErrBankShort, a.Get)
		}
		if err := g.playDev(a.Actor, YearOfPlenty); err != nil {
			return err
		}
		if err := g.spend(BankParty, a.Get, "year_of_plenty"); err != nil {
			return err
		}
		g.grant(a.Actor, a.Get)
		return nil
	}
	// VictoryCard and out-of-range values reject here.
	return g.playDev(a.Actor, a.Card)
}

func (g *Game) applyTradePlayer(a Action) error {
	if g.Phase != PhasePostRoll {
		return fmt.Errorf("%w: trade in the build phase", ErrWrongPhase)
	}
	if a.Partner == a.Actor || a.Partner < 0 || int(a.Partner) >= g.NumPlayers {
		return fmt.Errorf("%w: partner seat %d", ErrBadAction, a.Partner)
	}
	if a.Give.Negative() || a.Get.Negative() {
		return fmt.Errorf("%w: negative bundle", ErrBadAction)
	}
	if a.Give.Total() == 0 && a.Get.Total() == 0 {
		return fmt.Errorf("%w: empty trade", ErrBadAction)
	}

	if a.Give.Total() > 0 {
		if err := g.spend(a.Actor, a.Give, "trade_player"); err != nil {
			return err
		}
		g.grant(a.Partner, a.Give)
	}
	if a.Get.Total() > 0 {
		if err := g.spend(a.Partner, a.Get, "trade_player"); err != nil {
			return err
		}
		g.grant(a.Actor, a.Get)
	}
	return nil
}

func (g *Game) applyTradeBank(a Action) error {
	if g.Phase != PhasePostRoll {
		return fmt.Errorf("%w: trade in the build phase", ErrWrongPhase)
	}
	if a.Give.Negative() || a.Get.Negative() {
		return fmt.Errorf("%w: negative bundle", ErrBadAction)
	}
	giveType, giveN, ok := singleType(a.Give)
	if !ok {
		return fmt.Errorf("%w: give one resource type", ErrBadAction)
	}
	getType, getN, ok := singleType(a.Get)
	if !ok || getN != 1 || getType == giveType {
		return fmt.Errorf("%w: maritime trades are k given for 1 of another type", ErrBadAction)
	}
	if k := g.TradeRatio(a.Actor, giveType); giveN != k {
		return fmt.Errorf("%w: seat %d trades %s at %d:1", ErrBadAction, a.Actor, giveType, k)
	}
	if !g.canSpend(BankParty, a.Get) {
		return fmt.Errorf("%w: no %s left", ErrBankShort, getType)
	}

	if err := g.spend(a.Actor, a.Give, "trade_bank"); err != nil {
		return err
	}
	g.grant(BankParty, a.Give)
	if err := g.spend(BankParty, a.Get, "trade_bank"); err != nil {
		return err
	}
	g.grant(a.Actor, a.Get)
	return nil
}

func (g *Game) applyRevealMystery(a Action) error {
	e := g.mystery(a.Mystery)
	if e == nil || e.Resolved {
		return fmt.Errorf("%w: %d", ErrNoSuchMystery, a.Mystery)
	}
	return g.resolvePair(a.Mystery, a.As, "reveal")
}

func (g *Game) applyEndTurn(a Action) error {
	if g.Phase != PhasePostRoll {
		return fmt.Errorf("%w: end turn from %s", ErrWrongPhase, g.Phase)
	}
	g.Turn = TurnFlags{}
	g.Current = PlayerID((int(g.Current) + 1) % g.NumPlayers)
	g.TurnCount++
	g.Phase = PhasePreRoll
	return nil
}

// singleType decomposes a set that holds a positive count of exactly one
// resource type.
func singleType(s ResourceSet) (Resource, int, bool) {
	t, n, types := Resource(0), 0, 0
	for r, v := range s {
		if v > 0 {
			types++
			t, n = Resource(r), v
		}
	}
	return t, n, types == 1
}
