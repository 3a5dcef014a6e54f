package engine

import "testing"

func testBoard(t *testing.T) *Board {
	t.Helper()
	b, err := newBoard(ClassicLayout())
	if err != nil {
		t.Fatalf("newBoard: %v", err)
	}
	return b
}

// TestBoardCounts verifies the standard board interns exactly 19 hexes,
// 54 plots, 72 paths and 9 ports.
func TestBoardCounts(t *testing.T) {
	b := testBoard(t)

	for id := 1; id <= NumHexes; id++ {
		if b.Hexes[id].ID != id {
			t.Errorf("hex %d: ID = %d", id, b.Hexes[id].ID)
		}
	}
	for id := 1; id <= NumPlots; id++ {
		if b.Plots[id].ID != id {
			t.Errorf("plot %d: ID = %d", id, b.Plots[id].ID)
		}
	}
	for id := 1; id <= NumPaths; id++ {
		if b.Paths[id].ID != id {
			t.Errorf("path %d: ID = %d", id, b.Paths[id].ID)
		}
	}

	ports := 0
	for _, p := range b.Ports {
		if p.Kind != PortNone {
			ports++
		}
	}
	if ports != NumPorts {
		t.Errorf("ports: want %d, got %d", NumPorts, ports)
	}
}

// TestHexNeighborSymmetry verifies the adjacency table is mutual: if hex A
// lists hex B across edge pair {m, t}, then B lists A across {t, m}, and no
// hex lists the same neighbor or the same local edge twice. 42 interior
// edges shared out of 114 hex edges leaves the 72 distinct paths.
func TestHexNeighborSymmetry(t *testing.T) {
	shared := 0
	for id := 1; id <= NumHexes; id++ {
		seenHex := map[int]bool{}
		seenEdge := map[int]bool{}
		for _, adj := range hexNeighbors[id] {
			if adj.hex < 1 || adj.hex > NumHexes || adj.hex == id || seenHex[adj.hex] {
				t.Errorf("hex %d: neighbor %d invalid or repeated", id, adj.hex)
			}
			seenHex[adj.hex] = true
			if seenEdge[adj.edge.mine] {
				t.Errorf("hex %d: edge %d shared with two neighbors", id, adj.edge.mine)
			}
			seenEdge[adj.edge.mine] = true

			mirrored := false
			for _, back := range hexNeighbors[adj.hex] {
				if back.hex == id && back.edge.mine == adj.edge.theirs && back.edge.theirs == adj.edge.mine {
					mirrored = true
				}
			}
			if !mirrored {
				t.Errorf("hex %d -> %d over edge {%d,%d}: no mirror entry", id, adj.hex, adj.edge.mine, adj.edge.theirs)
			}
			shared++
		}
	}
	if shared != 2*(6*NumHexes-NumPaths) {
		t.Errorf("shared edge entries: want %d, got %d", 2*(6*NumHexes-NumPaths), shared)
	}
}

// TestBoardDegrees verifies per-plot and per-path adjacency degrees: a plot
// touches 1-3 hexes and 2-3 paths, and its neighbor plots mirror its paths.
func TestBoardDegrees(t *testing.T) {
	b := testBoard(t)

	degreeSum := 0
	for id := 1; id <= NumPlots; id++ {
		plot := &b.Plots[id]
		if n := len(plot.Hexes); n < 1 || n > 3 {
			t.Errorf("plot %d: %d adjacent hexes", id, n)
		}
		if n := len(plot.Paths); n < 2 || n > 3 {
			t.Errorf("plot %d: %d incident paths", id, n)
		}
		if len(plot.Plots) != len(plot.Paths) {
			t.Errorf("plot %d: %d neighbors vs %d paths", id, len(plot.Plots), len(plot.Paths))
		}
		degreeSum += len(plot.Paths)
	}
	if degreeSum != 2*NumPaths {
		t.Errorf("plot degree sum: want %d, got %d", 2*NumPaths, degreeSum)
	}

	for id := 1; id <= NumPaths; id++ {
		path := &b.Paths[id]
		if path.A >= path.B {
			t.Errorf("path %d: endpoints %d,%d not ordered", id, path.A, path.B)
		}
		if !containsInt(b.Plots[path.A].Plots, path.B) || !containsInt(b.Plots[path.B].Plots, path.A) {
			t.Errorf("path %d: endpoints %d,%d are not mutual neighbors", id, path.A, path.B)
		}
		if n := len(path.Hexes); n < 1 || n > 2 {
			t.Errorf("path %d: %d adjacent hexes", id, n)
		}
	}
}

// TestBoardHexVertices verifies each hex carries 6 distinct plots and 6
// distinct paths, and that vertex sharing works: 54 plots over 19 hexes
// means most vertices serve 2-3 hexes.
func TestBoardHexVertices(t *testing.T) {
	b := testBoard(t)

	for id := 1; id <= NumHexes; id++ {
		hex := &b.Hexes[id]
		seenPlot := map[int]bool{}
		seenPath := map[int]bool{}
		for i := 0; i < 6; i++ {
			if hex.Plots[i] < 1 || hex.Plots[i] > NumPlots || seenPlot[hex.Plots[i]] {
				t.Errorf("hex %d vertex %d: plot %d invalid or repeated", id, i, hex.Plots[i])
			}
			seenPlot[hex.Plots[i]] = true
			if hex.Paths[i] < 1 || hex.Paths[i] > NumPaths || seenPath[hex.Paths[i]] {
				t.Errorf("hex %d edge %d: path %d invalid or repeated", id, i, hex.Paths[i])
			}
			seenPath[hex.Paths[i]] = true
		}
		for i := 0; i < 6; i++ {
			a, c := hex.Plots[i], hex.Plots[(i+1)%6]
			pid := hex.Paths[i]
			path := &b.Paths[pid]
			lo, hi := a, c
			if lo > hi {
				lo, hi = hi, lo
			}
			if path.A != lo || path.B != hi {
				t.Errorf("hex %d edge %d: path %d joins %d-%d, want %d-%d", id, i, pid, path.A, path.B, lo, hi)
			}
		}
	}
}

// TestBoardPorts verifies each port spans two distinct plots and both carry
// the port kind, with 18 port plots total.
func TestBoardPorts(t *testing.T) {
	b := testBoard(t)

	seen := map[int]bool{}
	for i, port := range b.Ports {
		if port.Plots[0] == port.Plots[1] {
			t.Errorf("port %d: duplicate plot %d", i, port.Plots[0])
		}
		for _, pid := range port.Plots {
			if seen[pid] {
				t.Errorf("port %d: plot %d serves two ports", i, pid)
			}
			seen[pid] = true
			if got := b.PortAt(pid); got != port.Kind {
				t.Errorf("PortAt(%d): want %v, got %v", pid, port.Kind, got)
			}
		}
	}
	if len(seen) != 2*NumPorts {
		t.Errorf("port plots: want %d, got %d", 2*NumPorts, len(seen))
	}
}

// TestPathBetween verifies path lookup between adjacent and non-adjacent
// plots, and that OtherEnd walks a path both ways.
func TestPathBetween(t *testing.T) {
	b := testBoard(t)

	path := &b.Paths[1]
	id, ok := b.PathBetween(path.A, path.B)
	if !ok || id != 1 {
		t.Fatalf("PathBetween(%d,%d): want 1, got %d (ok=%v)", path.A, path.B, id, ok)
	}
	if id, ok = b.PathBetween(path.B, path.A); !ok || id != 1 {
		t.Errorf("PathBetween reversed: want 1, got %d (ok=%v)", id, ok)
	}
	if got := b.OtherEnd(1, path.A); got != path.B {
		t.Errorf("OtherEnd(1, %d): want %d, got %d", path.A, path.B, got)
	}
	if got := b.OtherEnd(1, path.B); got != path.A {
		t.Errorf("OtherEnd(1, %d): want %d, got %d", path.B, path.A, got)
	}

	// Two plots on opposite board corners are never adjacent.
	if _, ok := b.PathBetween(1, NumPlots); ok {
		t.Errorf("PathBetween(1, %d): unexpected path", NumPlots)
	}
}
