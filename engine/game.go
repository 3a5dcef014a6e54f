// Package engine implements a rules-accurate state tracker for the standard
// 19-hex Settlers board, plus probabilistic bookkeeping for what a single
// observer cannot see: unobserved robber steals and unknown development
// draws become individual mystery entries that narrow and collapse as the
// table discloses ground truth.
//
// The package is pure: no I/O, no logging, no third-party imports, no
// hidden randomness. Dice arrive as observed action fields and the only
// random input, the tile layout, is drawn through a caller-owned source, so
// replaying a log reproduces a game exactly.
package engine

import (
	"fmt"
)

// PlayerState is one seat's tracked holdings. Known counts are exact; the
// uncertain remainder lives in Game.Mysteries.
type PlayerState struct {
	Known            ResourceSet      `json:"known"`
	RoadPieces       int              `json:"road_pieces"`
	SettlementPieces int              `json:"settlement_pieces"`
	CityPieces       int              `json:"city_pieces"`
	DevKnown         [NumDevTypes]int `json:"dev_known"`  // held, type known to the observer
	DevPlayed        [NumDevTypes]int `json:"dev_played"` // revealed by playing
}

// TurnFlags resets at end of turn.
type TurnFlags struct {
	DevPlayed     bool             `json:"dev_played"`
	BoughtKnown   [NumDevTypes]int `json:"bought_known"`
	BoughtMystery []MysteryID      `json:"bought_mystery,omitempty"`
	FreeRoads     int              `json:"free_roads"`
}

// SetupState drives the snake-order initial placements.
type SetupState struct {
	Placements int  `json:"placements"` // completed settlement+road pairs
	AwaitRoad  bool `json:"await_road"`
	LastPlot   int  `json:"last_plot"` // settlement awaiting its road
}

// Game is the complete tracked state of one tabletop game. Everything that
// serializes is exported and map-free, so snapshots are byte-stable. Board
// is derived from Layout and rebuilt on restore.
type Game struct {
	NumPlayers int    `json:"num_players"`
	Layout     Layout `json:"layout"`
	Board      *Board `json:"-"`

	Robber  int           `json:"robber"`
	Bank    ResourceSet   `json:"bank"`
	Players []PlayerState `json:"players"`

	PlotOwner []PlayerID     `json:"plot_owner"` // 1-based, NoPlayer when empty
	PlotKind  []BuildingKind `json:"plot_kind"`
	PathOwner []PlayerID     `json:"path_owner"`

	Phase     Phase      `json:"phase"`
	Current   PlayerID   `json:"current"`
	TurnCount int        `json:"turn_count"`
	Setup     SetupState `json:"setup"`
	Turn      TurnFlags  `json:"turn"`

	// OwedDiscards holds, per seat, cards still owed after a 7.
	OwedDiscards []int `json:"owed_discards"`

	DevDrawn    int              `json:"dev_drawn"`
	DevRevealed [NumDevTypes]int `json:"dev_revealed"`

	Mysteries     []MysteryEntry `json:"mysteries"`
	NextMysteryID MysteryID      `json:"next_mystery_id"`

	LongestRoadHolder PlayerID `json:"longest_road_holder"`
	LongestRoadLen    int      `json:"longest_road_len"`
	LargestArmyHolder PlayerID `json:"largest_army_holder"`

	Winner PlayerID `json:"winner"`
	Log    []Action `json:"log"`
}

// NewGame starts a game in the setup phase. Seats are 0..numPlayers-1 and
// place in snake order. The layout is validated against the standard tile
// and token distributions.
func NewGame(numPlayers int, layout Layout) (*Game, error) {
	if numPlayers < 2 || numPlayers > 4 {
		return nil, fmt.Errorf("%w: %d players", ErrBadAction, numPlayers)
	}
	board, err := newBoard(layout)
	if err != nil {
		return nil, err
	}

	g := &Game{
		NumPlayers:        numPlayers,
		Layout:            layout,
		Board:             board,
		Robber:            layout.DesertHex(),
		Bank:              fullBank(),
		Players:           make([]PlayerState, numPlayers),
		PlotOwner:         make([]PlayerID, NumPlots+1),
		PlotKind:          make([]BuildingKind, NumPlots+1),
		PathOwner:         make([]PlayerID, NumPaths+1),
		Phase:             PhaseSetup,
		Current:           0,
		TurnCount:         0,
		OwedDiscards:      make([]int, numPlayers),
		NextMysteryID:     1,
		LongestRoadHolder: NoPlayer,
		LargestArmyHolder: NoPlayer,
		Winner:            NoPlayer,
	}
	for i := range g.PlotOwner {
		g.PlotOwner[i] = NoPlayer
	}
	for i := range g.PathOwner {
		g.PathOwner[i] = NoPlayer
	}
	for p := range g.Players {
		g.Players[p].RoadPieces = MaxRoads
		g.Players[p].SettlementPieces = MaxSettlements
		g.Players[p].CityPieces = MaxCities
	}
	return g, nil
}

// setupSeat maps a placement index to the seat placing, snake order:
// 0..n-1 forward, then n-1..0 back.
func (g *Game) setupSeat() PlayerID {
	i := g.Setup.Placements
	n := g.NumPlayers
	if i < n {
		return PlayerID(i)
	}
	return PlayerID(2*n - 1 - i)
}

// VPBreakdown itemizes a player's public score. Unrevealed mystery cards
// never count, even when their distribution has victory mass.
type VPBreakdown struct {
	Settlements  int  `json:"settlements"`
	Cities       int  `json:"cities"`
	VictoryCards int  `json:"victory_cards"`
	LongestRoad  bool `json:"longest_road"`
	LargestArmy  bool `json:"largest_army"`
	Total        int  `json:"total"`
}

// Breakdown computes the current score of one seat.
func (g *Game) Breakdown(p PlayerID) VPBreakdown {
	ps := &g.Players[p]
	b := VPBreakdown{
		Settlements:  MaxSettlements - ps.SettlementPieces,
		Cities:       MaxCities - ps.CityPieces,
		VictoryCards: ps.DevKnown[VictoryCard],
		LongestRoad:  g.LongestRoadHolder == p,
		LargestArmy:  g.LargestArmyHolder == p,
	}
	b.Total = b.Settlements + 2*b.Cities + b.VictoryCards
	if b.LongestRoad {
		b.Total += 2
	}
	if b.LargestArmy {
		b.Total += 2
	}
	return b
}

// VictoryPoints is Breakdown(p).Total.
func (g *Game) VictoryPoints(p PlayerID) int { return g.Breakdown(p).Total }

// ArmySize is the number of knights a seat has played.
func (g *Game) ArmySize(p PlayerID) int { return g.Players[p].DevPlayed[Knight] }

// checkVictory ends the game when a seat reaches the target. Seats are
// scanned from the current player so the acting player wins outright ties.
func (g *Game) checkVictory() {
	for i := 0; i < g.NumPlayers; i++ {
		p := PlayerID((int(g.Current) + i) % g.NumPlayers)
		if g.VictoryPoints(p) >= VictoryTarget {
			g.Winner = p
			g.Phase = PhaseGameOver
			return
		}
	}
}

// checkConservation verifies the card-count invariant after every applied
// action: per resource type, bank plus all known hands is exactly 19, and
// nothing is negative. Mystery pairs cancel per type, so known ledgers
// alone must carry the full constant.
func (g *Game) checkConservation(op string) error {
	if g.Bank.Negative() {
		return consistencyf(op, "bank went negative: %v", g.Bank)
	}
	var sum ResourceSet
	sum.Add(g.Bank)
	for p := range g.Players {
		if g.Players[p].Known.Negative() {
			return consistencyf(op, "player %d known counts went negative: %v", p, g.Players[p].Known)
		}
		sum.Add(g.Players[p].Known)
	}
	for r, n := range sum {
		if n != BankCap {
			return consistencyf(op, "%d %s cards in circulation, want %d", n, Resource(r), BankCap)
		}
	}
	return nil
}

// Clone deep-copies the tracked state. The board is immutable after
// construction and stays shared. Apply dispatches every action against a
// clone first, so a rejection of any flavor leaves the original untouched.
func (g *Game) Clone() *Game {
	c := *g
	c.Players = append([]PlayerState(nil), g.Players...)
	c.PlotOwner = append([]PlayerID(nil), g.PlotOwner...)
	c.PlotKind = append([]BuildingKind(nil), g.PlotKind...)
	c.PathOwner = append([]PlayerID(nil), g.PathOwner...)
	c.OwedDiscards = append([]int(nil), g.OwedDiscards...)
	c.Turn.BoughtMystery = append([]MysteryID(nil), g.Turn.BoughtMystery...)
	c.Mysteries = append([]MysteryEntry(nil), g.Mysteries...)
	for i := range c.Mysteries {
		c.Mysteries[i].Probs = append([]float64(nil), g.Mysteries[i].Probs...)
	}
	c.Log = append([]Action(nil), g.Log...)
	return &c
}

// Replay rebuilds a game from its initial configuration and applies a log.
// Undo to step N is Replay with log[:N].
func Replay(numPlayers int, layout Layout, log []Action) (*Game, error) {
	g, err := NewGame(numPlayers, layout)
	if err != nil {
		return nil, err
	}
	for i, a := range log {
		if err := g.Apply(a); err != nil {
			return nil, fmt.Errorf("replay action %d (%s): %w", i, a.Kind, err)
		}
	}
	return g, nil
}
