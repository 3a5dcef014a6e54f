// internal/command/render.go
package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tablemirror/settlers/engine"
	"github.com/tablemirror/settlers/internal/table"
)

// Rendering turns the engine's structured data into operator-facing text.
// Nothing here mutates state; every reader takes the table lock itself.

// Summary renders the table's derived state, the same text an accepted
// action replies with. The demo driver prints this between moves.
func Summary(t *table.Table) string {
	return renderOutcome(t.Outcome())
}

// vulgarFraction formats simple probabilities the way the table talks about
// them. Anything non-simple falls back to a percentage.
func vulgarFraction(p float64) string {
	type frac struct {
		v float64
		s string
	}
	simple := []frac{
		{1, ""}, {0.5, "½"}, {1.0 / 3, "⅓"}, {2.0 / 3, "⅔"},
		{0.25, "¼"}, {0.75, "¾"}, {0.2, "⅕"}, {0.4, "⅖"}, {0.6, "⅗"}, {0.8, "⅘"},
		{1.0 / 6, "⅙"}, {5.0 / 6, "⅚"},
	}
	for _, f := range simple {
		if p > f.v-0.005 && p < f.v+0.005 {
			return f.s
		}
	}
	return fmt.Sprintf("%.0f%%", p*100)
}

// renderStack formats one display stack: "-2× [⅔ ore | ⅓ wool] (#3 #4)".
func renderStack(v table.MysteryView) string {
	type cell struct {
		p    float64
		name string
	}
	var cells []cell
	for i, p := range v.Stack.Probs {
		if p < 0.01 {
			continue
		}
		name := engine.Resource(i).String()
		if v.Stack.Kind == engine.MysteryDev {
			name = engine.DevCard(i).String()
		}
		cells = append(cells, cell{p, name})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].p != cells[j].p {
			return cells[i].p > cells[j].p
		}
		return cells[i].name < cells[j].name
	})
	parts := make([]string, len(cells))
	for i, c := range cells {
		if f := vulgarFraction(c.p); f != "" {
			parts[i] = f + " " + c.name
		} else {
			parts[i] = c.name
		}
	}
	sign := ""
	if !v.Stack.Gain {
		sign = "-"
	}
	ids := make([]string, len(v.Stack.IDs))
	for i, id := range v.Stack.IDs {
		ids[i] = fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("%s%d× [%s] (%s)", sign, v.Stack.Count, strings.Join(parts, " | "), strings.Join(ids, " "))
}

func renderOutcome(out table.Outcome) string {
	var b strings.Builder
	if out.Winner != "" {
		fmt.Fprintf(&b, "GAME OVER — %s wins!\n", out.Winner)
	}
	fmt.Fprintf(&b, "turn %d, %s phase, %s is up", out.TurnCount, out.Phase, out.Current)
	for _, s := range out.Scores {
		fmt.Fprintf(&b, "\n  %-12s %2d VP, %d cards", s.Nickname, s.Points.Total, s.HandSize)
		if s.Points.LongestRoad {
			b.WriteString(" [longest road]")
		}
		if s.Points.LargestArmy {
			b.WriteString(" [largest army]")
		}
	}
	for _, v := range out.Mysteries {
		fmt.Fprintf(&b, "\n  %s: %s", v.Owner, renderStack(v))
	}
	return b.String()
}

func renderSetup(t *table.Table) string {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	g := t.Game
	if g.Phase != engine.PhaseSetup {
		return "setup is complete"
	}
	next := "settlement"
	if g.Setup.AwaitRoad {
		next = fmt.Sprintf("road from plot %d", g.Setup.LastPlot)
	}
	return fmt.Sprintf("setup: %d of %d placements done; %s places a %s next",
		g.Setup.Placements, 2*g.NumPlayers, t.Nickname(g.Current), next)
}

func renderVP(t *table.Table, args []string) string {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	var b strings.Builder
	for i, s := range t.Seats {
		if len(args) == 1 && !strings.EqualFold(args[0], s.Nickname) {
			continue
		}
		bd := t.Game.Breakdown(engine.PlayerID(i))
		fmt.Fprintf(&b, "%s: %d VP (%d settlements, %d cities, %d victory cards",
			s.Nickname, bd.Total, bd.Settlements, bd.Cities, bd.VictoryCards)
		if bd.LongestRoad {
			b.WriteString(", longest road")
		}
		if bd.LargestArmy {
			b.WriteString(", largest army")
		}
		b.WriteString(")\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHands(t *table.Table, args []string) string {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	var b strings.Builder
	fmt.Fprintf(&b, "bank: %s\n", t.Game.Bank)
	for i, s := range t.Seats {
		if len(args) == 1 && !strings.EqualFold(args[0], s.Nickname) {
			continue
		}
		p := engine.PlayerID(i)
		ps := &t.Game.Players[p]
		fmt.Fprintf(&b, "%s: %s (%d effective)", s.Nickname, ps.Known, t.Game.EffectiveHandSize(p))
		var devs []string
		for d := 0; d < engine.NumDevTypes; d++ {
			if n := ps.DevKnown[d]; n > 0 {
				devs = append(devs, fmt.Sprintf("%d %s", n, engine.DevCard(d)))
			}
		}
		if len(devs) > 0 {
			fmt.Fprintf(&b, ", dev: %s", strings.Join(devs, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderMysteries(t *table.Table) string {
	out := t.Outcome()
	if len(out.Mysteries) == 0 {
		return "no unresolved mysteries"
	}
	var b strings.Builder
	for _, v := range out.Mysteries {
		fmt.Fprintf(&b, "%s: %s\n", v.Owner, renderStack(v))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBoard(t *table.Table) string {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	g := t.Game
	var b strings.Builder
	for h := 1; h <= engine.NumHexes; h++ {
		hex := g.Board.Hexes[h]
		fmt.Fprintf(&b, "hex %2d: %-9s", h, hex.Terrain)
		if hex.Token > 0 {
			fmt.Fprintf(&b, " %2d", hex.Token)
		} else {
			b.WriteString("   ")
		}
		if g.Robber == h {
			b.WriteString(" [robber]")
		}
		b.WriteString("\n")
	}
	for plot := 1; plot <= engine.NumPlots; plot++ {
		if o := g.PlotOwner[plot]; o != engine.NoPlayer {
			fmt.Fprintf(&b, "plot %2d: %s (%s)\n", plot, g.PlotKind[plot], t.Nickname(o))
		}
	}
	for path := 1; path <= engine.NumPaths; path++ {
		if o := g.PathOwner[path]; o != engine.NoPlayer {
			p := g.Board.Paths[path]
			fmt.Fprintf(&b, "path %2d (%d-%d): road (%s)\n", path, p.A, p.B, t.Nickname(o))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPorts(t *table.Table) string {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	var b strings.Builder
	for _, port := range t.Game.Board.Ports {
		fmt.Fprintf(&b, "%s port at plots %d, %d", port.Kind, port.Plots[0], port.Plots[1])
		for _, plot := range port.Plots {
			if o := t.Game.PlotOwner[plot]; o != engine.NoPlayer {
				fmt.Fprintf(&b, " — %s", t.Nickname(o))
				break
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHistory(t *table.Table) string {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	if len(t.Game.Log) == 0 {
		return "no actions yet"
	}
	var b strings.Builder
	for i, a := range t.Game.Log {
		fmt.Fprintf(&b, "%3d. %s %s", i+1, t.Nickname(a.Actor), a.Kind)
		switch a.Kind {
		case engine.ActionRoll:
			fmt.Fprintf(&b, " %d+%d", a.Die1, a.Die2)
		case engine.ActionPlaceSettlement, engine.ActionUpgradeCity:
			fmt.Fprintf(&b, " plot %d", a.Plot)
		case engine.ActionPlaceRoad:
			fmt.Fprintf(&b, " path %d", a.Path)
		case engine.ActionMoveRobber:
			fmt.Fprintf(&b, " hex %d", a.Hex)
			if a.Victim != nil {
				fmt.Fprintf(&b, " robbing %s", t.Nickname(*a.Victim))
			}
		case engine.ActionPlayDev:
			fmt.Fprintf(&b, " %s", a.Card)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderFind(t *table.Table, args []string) string {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	g := t.Game
	which := ""
	if len(args) == 1 {
		which = strings.ToLower(args[0])
	}
	var b strings.Builder
	if which == "" || which == "longroad" || which == "longestroad" {
		if g.LongestRoadHolder != engine.NoPlayer {
			fmt.Fprintf(&b, "longest road: %s with %d\n", t.Nickname(g.LongestRoadHolder), g.LongestRoadLen)
		} else {
			b.WriteString("longest road: unheld\n")
		}
		for i := range t.Seats {
			fmt.Fprintf(&b, "  %s: %d\n", t.Seats[i].Nickname, g.LongestRoadLength(engine.PlayerID(i)))
		}
	}
	if which == "" || which == "largearmy" || which == "largestarmy" {
		if g.LargestArmyHolder != engine.NoPlayer {
			fmt.Fprintf(&b, "largest army: %s with %d\n", t.Nickname(g.LargestArmyHolder), g.ArmySize(g.LargestArmyHolder))
		} else {
			b.WriteString("largest army: unheld\n")
		}
		for i := range t.Seats {
			fmt.Fprintf(&b, "  %s: %d\n", t.Seats[i].Nickname, g.ArmySize(engine.PlayerID(i)))
		}
	}
	if b.Len() == 0 {
		return "usage: !find longroad|largearmy"
	}
	return strings.TrimRight(b.String(), "\n")
}
