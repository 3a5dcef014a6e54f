package engine

// Legality queries for decision providers and display. Each returns what
// Apply would currently accept for the given seat, so an external driver
// can pick uniformly from them and never see a rejection. Dice values and
// trade bundles are the driver's to supply.

// LegalSettlements lists plots where p could place a settlement right now.
func (g *Game) LegalSettlements(p PlayerID) []int {
	var setup bool
	switch {
	case g.Phase == PhaseSetup && p == g.Current && !g.Setup.AwaitRoad:
		setup = true
	case g.Phase == PhasePostRoll && p == g.Current:
		if !g.canSpend(p, SettlementCost) {
			return nil
		}
	default:
		return nil
	}
	var out []int
	for plot := 1; plot <= NumPlots; plot++ {
		if g.settlementLegal(p, plot, setup) == nil {
			out = append(out, plot)
		}
	}
	return out
}

// LegalRoads lists paths where p could place a road right now, honoring the
// setup anchor and free roads.
func (g *Game) LegalRoads(p PlayerID) []int {
	anchor := 0
	switch {
	case g.Phase == PhaseSetup && p == g.Current && g.Setup.AwaitRoad:
		anchor = g.Setup.LastPlot
	case g.Phase == PhasePostRoll && p == g.Current:
		if g.Turn.FreeRoads == 0 && !g.canSpend(p, RoadCost) {
			return nil
		}
	default:
		return nil
	}
	var out []int
	for path := 1; path <= NumPaths; path++ {
		if g.roadLegal(p, path, anchor) == nil {
			out = append(out, path)
		}
	}
	return out
}

// LegalCityUpgrades lists plots holding settlements p could upgrade.
func (g *Game) LegalCityUpgrades(p PlayerID) []int {
	if g.Phase != PhasePostRoll || p != g.Current || !g.canSpend(p, CityCost) {
		return nil
	}
	var out []int
	for plot := 1; plot <= NumPlots; plot++ {
		if g.cityLegal(p, plot) == nil {
			out = append(out, plot)
		}
	}
	return out
}

// LegalRobberHexes lists destinations for a pending robber move. Empty
// while discards are still owed.
func (g *Game) LegalRobberHexes() []int {
	if g.Phase != PhaseRobber {
		return nil
	}
	for _, owed := range g.OwedDiscards {
		if owed > 0 {
			return nil
		}
	}
	out := make([]int, 0, NumHexes-1)
	for hex := 1; hex <= NumHexes; hex++ {
		if hex != g.Robber {
			out = append(out, hex)
		}
	}
	return out
}

// StealTargets lists seats the robber on hex could rob: a building on the
// hex and at least one card in hand.
func (g *Game) StealTargets(hex int, thief PlayerID) []PlayerID {
	if hex < 1 || hex > NumHexes {
		return nil
	}
	seen := make([]bool, g.NumPlayers)
	var out []PlayerID
	for _, pid := range g.Board.Hexes[hex].Plots {
		owner := g.PlotOwner[pid]
		if owner == NoPlayer || owner == thief || seen[owner] {
			continue
		}
		seen[owner] = true
		if g.EffectiveHandSize(owner) > 0 {
			out = append(out, owner)
		}
	}
	return out
}

// PlayableDevs lists card types p could play this turn.
func (g *Game) PlayableDevs(p PlayerID) []DevCard {
	if g.Phase != PhasePostRoll || p != g.Current {
		return nil
	}
	var out []DevCard
	for d := 0; d < NumDevTypes; d++ {
		if g.CanPlayDev(p, DevCard(d)) {
			out = append(out, DevCard(d))
		}
	}
	return out
}

// CanBuyDev reports whether p could buy a development card right now.
func (g *Game) CanBuyDev(p PlayerID) bool {
	return g.Phase == PhasePostRoll && p == g.Current &&
		g.DevDrawn < DevPoolSize && g.canSpend(p, DevCardCost)
}

// LegalBankTrades enumerates every maritime trade p could make: each
// affordable give type at its best ratio against each in-stock get type.
func (g *Game) LegalBankTrades(p PlayerID) []Action {
	if g.Phase != PhasePostRoll || p != g.Current {
		return nil
	}
	var out []Action
	for give := 0; give < NumResources; give++ {
		k := g.TradeRatio(p, Resource(give))
		if !g.canSpend(p, Only(Resource(give), k)) {
			continue
		}
		for get := 0; get < NumResources; get++ {
			if get == give || !g.canSpend(BankParty, Only(Resource(get), 1)) {
				continue
			}
			out = append(out, Action{
				Kind:  ActionTradeBank,
				Actor: p,
				Give:  Only(Resource(give), k),
				Get:   Only(Resource(get), 1),
			})
		}
	}
	return out
}
