package engine

import "testing"

// chainWalk returns n paths forming a simple chain from a starting plot,
// plus the n+1 plots visited in order.
func chainWalk(t *testing.T, g *Game, start, n int) (paths, plots []int) {
	t.Helper()
	plots = []int{start}
	seen := map[int]bool{start: true}
	plot := start
	for len(paths) < n {
		advanced := false
		for _, pathID := range g.Board.Plots[plot].Paths {
			next := g.Board.OtherEnd(pathID, plot)
			if seen[next] {
				continue
			}
			paths = append(paths, pathID)
			plots = append(plots, next)
			seen[next] = true
			plot = next
			advanced = true
			break
		}
		if !advanced {
			t.Fatalf("chain stuck at plot %d after %d paths", plot, len(paths))
		}
	}
	return paths, plots
}

// layRoads writes road ownership directly; achievements read the plain
// ownership arrays.
func layRoads(g *Game, p PlayerID, paths []int) {
	for _, id := range paths {
		g.PathOwner[id] = p
	}
}

func TestLongestRoadLength(t *testing.T) {
	g := newTestGame(t, 2)
	if got := g.LongestRoadLength(0); got != 0 {
		t.Errorf("bare length: want 0, got %d", got)
	}

	paths, plots := chainWalk(t, g, 1, 3)
	layRoads(g, 0, paths)
	if got := g.LongestRoadLength(0); got != 3 {
		t.Errorf("chain of 3: want 3, got %d", got)
	}

	// A stub off the second plot does not lengthen the trail.
	stub := -1
	for _, cand := range g.Board.Plots[plots[1]].Paths {
		if g.PathOwner[cand] == NoPlayer {
			stub = cand
			break
		}
	}
	if stub == -1 {
		t.Fatal("no free path off plot for stub")
	}
	g.PathOwner[stub] = 0
	if got := g.LongestRoadLength(0); got != 3 {
		t.Errorf("chain with stub: want 3, got %d", got)
	}
	if got := g.LongestRoadLength(1); got != 0 {
		t.Errorf("other seat: want 0, got %d", got)
	}
}

// TestLongestRoadBlocked verifies an opposing building cuts a trail at the
// plot it occupies; the segments on either side count separately.
func TestLongestRoadBlocked(t *testing.T) {
	g := newTestGame(t, 2)
	paths, plots := chainWalk(t, g, 1, 4)
	layRoads(g, 0, paths)
	if got := g.LongestRoadLength(0); got != 4 {
		t.Errorf("chain of 4: want 4, got %d", got)
	}

	g.PlotOwner[plots[2]] = 1
	g.PlotKind[plots[2]] = Settlement
	if got := g.LongestRoadLength(0); got != 2 {
		t.Errorf("severed chain: want 2, got %d", got)
	}

	// The owner's own building does not block.
	g.PlotOwner[plots[2]] = 0
	if got := g.LongestRoadLength(0); got != 4 {
		t.Errorf("own building on trail: want 4, got %d", got)
	}
}

// TestLongestRoadLoopWithBuilding verifies a closed loop of roads scores its
// full length even when an opponent settles one of its corners: the trail can
// start on the occupied plot, it just cannot pass through it.
func TestLongestRoadLoopWithBuilding(t *testing.T) {
	g := newTestGame(t, 2)
	hex := &g.Board.Hexes[1]
	layRoads(g, 0, hex.Paths[:])
	if got := g.LongestRoadLength(0); got != 6 {
		t.Fatalf("open loop: want 6, got %d", got)
	}

	g.PlotOwner[hex.Plots[0]] = 1
	g.PlotKind[hex.Plots[0]] = Settlement
	if got := g.LongestRoadLength(0); got != 6 {
		t.Errorf("loop with opposing settlement: want 6, got %d", got)
	}

	// A second opposing corner does cut the loop into an arc.
	g.PlotOwner[hex.Plots[3]] = 1
	g.PlotKind[hex.Plots[3]] = Settlement
	if got := g.LongestRoadLength(0); got != 3 {
		t.Errorf("loop cut twice: want 3, got %d", got)
	}
}

func TestRecomputeLongestRoadTitle(t *testing.T) {
	g := newTestGame(t, 2)

	short, _ := chainWalk(t, g, 1, 4)
	layRoads(g, 0, short[:4])
	g.recomputeLongestRoad()
	if g.LongestRoadHolder != NoPlayer {
		t.Fatalf("4 roads: want no holder, got %d", g.LongestRoadHolder)
	}

	pathsA, _ := chainWalk(t, g, 1, 6)
	layRoads(g, 0, pathsA[:5])
	g.recomputeLongestRoad()
	if g.LongestRoadHolder != 0 || g.LongestRoadLen != 5 {
		t.Fatalf("5 roads: want holder 0 len 5, got %d len %d", g.LongestRoadHolder, g.LongestRoadLen)
	}

	// A tying challenger does not take the title.
	pathsB, plotsB := chainWalk(t, g, 54, 6)
	layRoads(g, 1, pathsB[:5])
	g.recomputeLongestRoad()
	if g.LongestRoadHolder != 0 {
		t.Fatalf("tie: want holder 0, got %d", g.LongestRoadHolder)
	}

	// A strict maximum does.
	layRoads(g, 1, pathsB)
	g.recomputeLongestRoad()
	if g.LongestRoadHolder != 1 || g.LongestRoadLen != 6 {
		t.Fatalf("6 roads: want holder 1 len 6, got %d len %d", g.LongestRoadHolder, g.LongestRoadLen)
	}

	// Severing the holder's chain hands the title to the runner-up.
	g.PlotOwner[plotsB[3]] = 0
	g.PlotKind[plotsB[3]] = Settlement
	g.recomputeLongestRoad()
	if g.LongestRoadHolder != 0 || g.LongestRoadLen != 5 {
		t.Fatalf("severed: want holder 0 len 5, got %d len %d", g.LongestRoadHolder, g.LongestRoadLen)
	}
}

// TestLongestRoadTieUnheld verifies a tie with no current holder leaves the
// title unheld.
func TestLongestRoadTieUnheld(t *testing.T) {
	g := newTestGame(t, 2)
	pathsA, _ := chainWalk(t, g, 1, 5)
	pathsB, _ := chainWalk(t, g, 54, 5)
	layRoads(g, 0, pathsA)
	layRoads(g, 1, pathsB)

	g.recomputeLongestRoad()
	if g.LongestRoadHolder != NoPlayer || g.LongestRoadLen != 0 {
		t.Fatalf("fresh tie: want no holder, got %d len %d", g.LongestRoadHolder, g.LongestRoadLen)
	}
}

func TestRecomputeLargestArmy(t *testing.T) {
	g := newTestGame(t, 2)

	g.Players[0].DevPlayed[Knight] = 2
	g.recomputeLargestArmy()
	if g.LargestArmyHolder != NoPlayer {
		t.Fatalf("2 knights: want no holder, got %d", g.LargestArmyHolder)
	}

	g.Players[0].DevPlayed[Knight] = 3
	g.recomputeLargestArmy()
	if g.LargestArmyHolder != 0 {
		t.Fatalf("3 knights: want holder 0, got %d", g.LargestArmyHolder)
	}

	g.Players[1].DevPlayed[Knight] = 3
	g.recomputeLargestArmy()
	if g.LargestArmyHolder != 0 {
		t.Fatalf("tie: want holder 0, got %d", g.LargestArmyHolder)
	}

	g.Players[1].DevPlayed[Knight] = 4
	g.recomputeLargestArmy()
	if g.LargestArmyHolder != 1 {
		t.Fatalf("4 knights: want holder 1, got %d", g.LargestArmyHolder)
	}
}
