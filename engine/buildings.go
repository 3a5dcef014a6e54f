package engine

import "fmt"

func (g *Game) validPlot(id int) error {
	if id < 1 || id > NumPlots {
		return fmt.Errorf("%w: plot %d", ErrBadAction, id)
	}
	return nil
}

func (g *Game) validPath(id int) error {
	if id < 1 || id > NumPaths {
		return fmt.Errorf("%w: path %d", ErrBadAction, id)
	}
	return nil
}

// settlementLegal checks a settlement placement without mutating. Setup
// placements skip the road-connectivity requirement, nothing else.
func (g *Game) settlementLegal(p PlayerID, plot int, setup bool) error {
	if err := g.validPlot(plot); err != nil {
		return err
	}
	if g.Players[p].SettlementPieces <= 0 {
		return fmt.Errorf("%w: settlements", ErrInsufficientPieces)
	}
	if g.PlotOwner[plot] != NoPlayer {
		return fmt.Errorf("%w: plot %d", ErrOccupied, plot)
	}
	for _, adj := range g.Board.Plots[plot].Plots {
		if g.PlotOwner[adj] != NoPlayer {
			return fmt.Errorf("%w: plot %d borders %d", ErrTooClose, plot, adj)
		}
	}
	if !setup {
		connected := false
		for _, pathID := range g.Board.Plots[plot].Paths {
			if g.PathOwner[pathID] == p {
				connected = true
				break
			}
		}
		if !connected {
			return fmt.Errorf("%w: plot %d", ErrDisconnected, plot)
		}
	}
	return nil
}

// roadLegal checks a road placement. anchor > 0 pins a setup road to the
// settlement just placed. Outside setup, connectivity comes from an own
// building on an endpoint or an own road through an endpoint not occupied
// by an opponent: an opposing building severs road-to-road continuity.
func (g *Game) roadLegal(p PlayerID, pathID, anchor int) error {
	if err := g.validPath(pathID); err != nil {
		return err
	}
	if g.Players[p].RoadPieces <= 0 {
		return fmt.Errorf("%w: roads", ErrInsufficientPieces)
	}
	if g.PathOwner[pathID] != NoPlayer {
		return fmt.Errorf("%w: path %d", ErrOccupied, pathID)
	}
	path := &g.Board.Paths[pathID]

	if anchor > 0 {
		if path.A != anchor && path.B != anchor {
			return fmt.Errorf("%w: path %d does not touch plot %d", ErrDisconnected, pathID, anchor)
		}
		return nil
	}

	for _, end := range [2]int{path.A, path.B} {
		switch g.PlotOwner[end] {
		case p:
			return nil
		case NoPlayer:
			for _, incident := range g.Board.Plots[end].Paths {
				if incident != pathID && g.PathOwner[incident] == p {
					return nil
				}
			}
		}
		// opponent building on this end: blocked through it
	}
	return fmt.Errorf("%w: path %d", ErrDisconnected, pathID)
}

// cityLegal checks an upgrade target.
func (g *Game) cityLegal(p PlayerID, plot int) error {
	if err := g.validPlot(plot); err != nil {
		return err
	}
	if g.Players[p].CityPieces <= 0 {
		return fmt.Errorf("%w: cities", ErrInsufficientPieces)
	}
	if g.PlotOwner[plot] != p || g.PlotKind[plot] != Settlement {
		return fmt.Errorf("%w: no own settlement on plot %d", ErrNotOwner, plot)
	}
	return nil
}

// Mutation halves. Legality is the caller's job; these only move pieces.

func (g *Game) placeSettlement(p PlayerID, plot int) {
	g.PlotOwner[plot] = p
	g.PlotKind[plot] = Settlement
	g.Players[p].SettlementPieces--
}

func (g *Game) placeRoad(p PlayerID, pathID int) {
	g.PathOwner[pathID] = p
	g.Players[p].RoadPieces--
}

func (g *Game) upgradeCity(p PlayerID, plot int) {
	g.PlotKind[plot] = City
	g.Players[p].CityPieces--
	g.Players[p].SettlementPieces++
}

// TradeRatio is the best maritime rate a seat has for giving r away:
// 4 bare, 3 with any generic port, 2 with the matching resource port.
func (g *Game) TradeRatio(p PlayerID, r Resource) int {
	ratio := 4
	for _, port := range g.Board.Ports {
		owned := g.PlotOwner[port.Plots[0]] == p || g.PlotOwner[port.Plots[1]] == p
		if !owned {
			continue
		}
		switch port.Kind {
		case PortGeneric:
			if ratio > 3 {
				ratio = 3
			}
		case PortFor(r):
			ratio = 2
		}
	}
	return ratio
}

// OwnedPorts lists the distinct harbors a seat has settled.
func (g *Game) OwnedPorts(p PlayerID) []PortKind {
	var out []PortKind
	seen := map[PortKind]bool{}
	for _, port := range g.Board.Ports {
		if g.PlotOwner[port.Plots[0]] == p || g.PlotOwner[port.Plots[1]] == p {
			if !seen[port.Kind] {
				seen[port.Kind] = true
				out = append(out, port.Kind)
			}
		}
	}
	return out
}
