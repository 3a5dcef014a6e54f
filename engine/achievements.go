package engine

// Longest Road and Largest Army. Road length is the longest trail (no
// path reused, plots may repeat) through a seat's road network, and an
// opposing building on a plot cuts the trail at that plot. The title
// needs 5+, transfers only on a strict maximum, and a tie leaves it
// with the current holder, or with nobody if the holder fell out.

// LongestRoadLength computes a seat's longest trail from scratch.
func (g *Game) LongestRoadLength(p PlayerID) int {
	visited := make([]bool, NumPaths+1)
	best := 0
	for id := 1; id <= NumPaths; id++ {
		if g.PathOwner[id] != p {
			continue
		}
		// Starting at either end covers trails that begin mid-network.
		// A trail may start on an opponent's plot; the block applies only
		// when passing through one.
		for _, start := range [2]int{g.Board.Paths[id].A, g.Board.Paths[id].B} {
			if n := g.roadTrailFrom(p, start, visited); n > best {
				best = n
			}
		}
	}
	return best
}

// roadTrail extends a trail through plot, unless an opponent holds the
// plot, which cuts the trail there.
func (g *Game) roadTrail(p PlayerID, plot int, visited []bool) int {
	if owner := g.PlotOwner[plot]; owner != NoPlayer && owner != p {
		return 0
	}
	return g.roadTrailFrom(p, plot, visited)
}

// roadTrailFrom extends a trail from plot over every unvisited own road,
// ignoring plot's occupant.
func (g *Game) roadTrailFrom(p PlayerID, plot int, visited []bool) int {
	best := 0
	for _, pathID := range g.Board.Plots[plot].Paths {
		if g.PathOwner[pathID] != p || visited[pathID] {
			continue
		}
		visited[pathID] = true
		n := 1 + g.roadTrail(p, g.Board.OtherEnd(pathID, plot), visited)
		visited[pathID] = false
		if n > best {
			best = n
		}
	}
	return best
}

// recomputeLongestRoad re-evaluates every seat and settles the title.
// Called after any road placement and after any settlement placement,
// since a new building can sever an existing trail.
func (g *Game) recomputeLongestRoad() {
	lengths := make([]int, g.NumPlayers)
	best := 0
	for i := range lengths {
		lengths[i] = g.LongestRoadLength(PlayerID(i))
		if lengths[i] > best {
			best = lengths[i]
		}
	}

	holder := g.LongestRoadHolder
	switch {
	case best < LongestRoadMin:
		holder = NoPlayer
	case holder != NoPlayer && lengths[holder] == best:
		// holder retains on ties
	default:
		holder = NoPlayer
		for i, n := range lengths {
			if n == best {
				if holder != NoPlayer {
					// tie between non-holders: title stays unheld
					holder = NoPlayer
					break
				}
				holder = PlayerID(i)
			}
		}
	}

	g.LongestRoadHolder = holder
	if holder == NoPlayer {
		g.LongestRoadLen = 0
	} else {
		g.LongestRoadLen = lengths[holder]
	}
}

// recomputeLargestArmy settles the army title after a knight play.
// Armies only grow, so the holder can never drop below a challenger
// without the challenger passing them outright.
func (g *Game) recomputeLargestArmy() {
	best := 0
	for i := 0; i < g.NumPlayers; i++ {
		if n := g.ArmySize(PlayerID(i)); n > best {
			best = n
		}
	}

	holder := g.LargestArmyHolder
	switch {
	case best < LargestArmyMin:
		holder = NoPlayer
	case holder != NoPlayer && g.ArmySize(holder) == best:
		// holder retains on ties
	default:
		holder = NoPlayer
		for i := 0; i < g.NumPlayers; i++ {
			if g.ArmySize(PlayerID(i)) == best {
				if holder != NoPlayer {
					holder = NoPlayer
					break
				}
				holder = PlayerID(i)
			}
		}
	}
	g.LargestArmyHolder = holder
}
