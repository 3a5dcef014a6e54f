package engine

// The standard board: 19 hexes in rows of 3-4-5-4-3, numbered 1..19
// left-to-right, top-to-bottom. Sharing vertices between neighboring hexes
// yields 54 plots (building corners) and 72 paths (road edges). Plots and
// paths are interned once at construction and referenced by stable 1-based
// integer IDs everywhere else; no geometry survives past this file.

const (
	NumHexes = 19
	NumPlots = 54
	NumPaths = 72
	NumPorts = 9
)

// Hex is one terrain tile. Vertex i and edge i follow the usual hex
// convention: edge i connects vertex i to vertex (i+1)%6.
type Hex struct {
	ID      int
	Terrain Terrain
	Token   int    // roll value 2..12, 0 on the desert
	Plots   [6]int // plot IDs by vertex index
	Paths   [6]int // path IDs by edge index
}

// Plot is a vertex where settlements and cities sit.
type Plot struct {
	ID    int
	Hexes []int // 1..3 adjacent hexes
	Plots []int // 2..3 plots one path away
	Paths []int // 2..3 incident paths
	Port  PortKind
}

// Path is an edge where roads sit. A < B always.
type Path struct {
	ID    int
	A, B  int   // endpoint plot IDs
	Hexes []int // 1..2 adjacent hexes
}

// Port is a harbor spanning two plots.
type Port struct {
	Kind  PortKind
	Plots [2]int
}

// Board is the immutable topology plus the tile layout. Occupancy lives on
// Game, not here, so one Board value can be shared by snapshots.
type Board struct {
	Hexes [NumHexes + 1]Hex // index 0 unused
	Plots [NumPlots + 1]Plot
	Paths [NumPaths + 1]Path
	Ports [NumPorts]Port
}

type edgePair struct{ mine, theirs int }

type hexAdj struct {
	hex  int
	edge edgePair
}

// hexNeighbors lists, per hex, the neighbors sharing an edge and the
// local->neighbor edge index correspondence. Vertices run clockwise from
// the top (0=N, 1=NE, 2=SE, 3=S, 4=SW, 5=NW), so a neighbor to the east
// shares my edge 1 as its edge 4, and so on around the compass:
// E={1,4} W={4,1} NE={0,3} SW={3,0} NW={5,2} SE={2,5}. Edge-adjacent
// hexes share exactly one edge, hence one pair per entry.
var hexNeighbors = [NumHexes + 1][]hexAdj{
	1:  {{2, edgePair{1, 4}}, {4, edgePair{3, 0}}, {5, edgePair{2, 5}}},
	2:  {{1, edgePair{4, 1}}, {3, edgePair{1, 4}}, {5, edgePair{3, 0}}, {6, edgePair{2, 5}}},
	3:  {{2, edgePair{4, 1}}, {6, edgePair{3, 0}}, {7, edgePair{2, 5}}},
	4:  {{1, edgePair{0, 3}}, {5, edgePair{1, 4}}, {8, edgePair{3, 0}}, {9, edgePair{2, 5}}},
	5:  {{1, edgePair{5, 2}}, {2, edgePair{0, 3}}, {4, edgePair{4, 1}}, {6, edgePair{1, 4}}, {9, edgePair{3, 0}}, {10, edgePair{2, 5}}},
	6:  {{2, edgePair{5, 2}}, {3, edgePair{0, 3}}, {5, edgePair{4, 1}}, {7, edgePair{1, 4}}, {10, edgePair{3, 0}}, {11, edgePair{2, 5}}},
	7:  {{3, edgePair{5, 2}}, {6, edgePair{4, 1}}, {11, edgePair{3, 0}}, {12, edgePair{2, 5}}},
	8:  {{4, edgePair{0, 3}}, {9, edgePair{1, 4}}, {13, edgePair{2, 5}}},
	9:  {{4, edgePair{5, 2}}, {5, edgePair{0, 3}}, {8, edgePair{4, 1}}, {10, edgePair{1, 4}}, {13, edgePair{3, 0}}, {14, edgePair{2, 5}}},
	10: {{5, edgePair{5, 2}}, {6, edgePair{0, 3}}, {9, edgePair{4, 1}}, {11, edgePair{1, 4}}, {14, edgePair{3, 0}}, {15, edgePair{2, 5}}},
	11: {{6, edgePair{5, 2}}, {7, edgePair{0, 3}}, {10, edgePair{4, 1}}, {12, edgePair{1, 4}}, {15, edgePair{3, 0}}, {16, edgePair{2, 5}}},
	12: {{7, edgePair{5, 2}}, {11, edgePair{4, 1}}, {16, edgePair{3, 0}}},
	13: {{8, edgePair{5, 2}}, {9, edgePair{0, 3}}, {14, edgePair{1, 4}}, {17, edgePair{2, 5}}},
	14: {{9, edgePair{5, 2}}, {10, edgePair{0, 3}}, {13, edgePair{4, 1}}, {15, edgePair{1, 4}}, {17, edgePair{3, 0}}, {18, edgePair{2, 5}}},
	15: {{10, edgePair{5, 2}}, {11, edgePair{0, 3}}, {14, edgePair{4, 1}}, {16, edgePair{1, 4}}, {18, edgePair{3, 0}}, {19, edgePair{2, 5}}},
	16: {{11, edgePair{5, 2}}, {12, edgePair{0, 3}}, {15, edgePair{4, 1}}, {19, edgePair{3, 0}}},
	17: {{13, edgePair{5, 2}}, {14, edgePair{0, 3}}, {18, edgePair{1, 4}}},
	18: {{14, edgePair{5, 2}}, {15, edgePair{0, 3}}, {17, edgePair{4, 1}}, {19, edgePair{1, 4}}},
	19: {{15, edgePair{5, 2}}, {16, edgePair{0, 3}}, {18, edgePair{4, 1}}},
}

// portSpecs pins the nine harbors to (hex, vertex pair) anchors.
var portSpecs = [NumPorts]struct {
	kind     PortKind
	hex      int
	vertices [2]int
}{
	{PortGeneric, 1, [2]int{0, 5}},
	{PortWheat, 2, [2]int{0, 1}},
	{PortOre, 7, [2]int{0, 1}},
	{PortWood, 4, [2]int{4, 5}},
	{PortGeneric, 12, [2]int{1, 2}},
	{PortBrick, 13, [2]int{4, 5}},
	{PortWool, 16, [2]int{2, 3}},
	{PortGeneric, 17, [2]int{3, 4}},
	{PortGeneric, 18, [2]int{2, 3}},
}

// newBoard interns the plot/path graph for the given layout and verifies
// the structural invariants. Iteration order is fixed, so IDs are stable
// across processes, which serialized state depends on.
func newBoard(layout Layout) (*Board, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}

	b := &Board{}
	for id := 1; id <= NumHexes; id++ {
		b.Hexes[id] = Hex{ID: id, Terrain: layout.Terrains[id], Token: layout.Tokens[id]}
	}

	type vkey struct{ hex, vertex int }
	plotAt := make(map[vkey]int, NumHexes*6)
	nextPlot := 0

	for hexID := 1; hexID <= NumHexes; hexID++ {
		for vertex := 0; vertex < 6; vertex++ {
			key := vkey{hexID, vertex}
			if _, done := plotAt[key]; done {
				continue
			}
			shared := 0
			for _, adj := range hexNeighbors[hexID] {
				if adj.hex >= hexID {
					continue // only hexes already interned can share
				}
				e := adj.edge
				v1, v2 := e.mine, (e.mine+1)%6
				n1, n2 := e.theirs, (e.theirs+1)%6
				switch vertex {
				case v1:
					if id, ok := plotAt[vkey{adj.hex, n2}]; ok {
						shared = id
					}
				case v2:
					if id, ok := plotAt[vkey{adj.hex, n1}]; ok {
						shared = id
					}
				}
				if shared != 0 {
					break
				}
			}
			if shared == 0 {
				nextPlot++
				shared = nextPlot
				b.Plots[shared] = Plot{ID: shared}
			}
			plotAt[key] = shared
		}
	}
	if nextPlot != NumPlots {
		return nil, consistencyf("board", "interned %d plots, want %d", nextPlot, NumPlots)
	}

	// Wire plot<->hex and resolve hex vertex arrays.
	for hexID := 1; hexID <= NumHexes; hexID++ {
		for vertex := 0; vertex < 6; vertex++ {
			pid := plotAt[vkey{hexID, vertex}]
			b.Hexes[hexID].Plots[vertex] = pid
			p := &b.Plots[pid]
			if !containsInt(p.Hexes, hexID) {
				p.Hexes = append(p.Hexes, hexID)
			}
		}
	}

	// Intern paths; each hex edge shares its path with at most one neighbor.
	type ekey struct{ a, b int }
	pathAt := make(map[ekey]int, NumPaths)
	nextPath := 0
	for hexID := 1; hexID <= NumHexes; hexID++ {
		hex := &b.Hexes[hexID]
		for i := 0; i < 6; i++ {
			a, c := hex.Plots[i], hex.Plots[(i+1)%6]
			lo, hi := a, c
			if lo > hi {
				lo, hi = hi, lo
			}
			id, ok := pathAt[ekey{lo, hi}]
			if !ok {
				nextPath++
				id = nextPath
				pathAt[ekey{lo, hi}] = id
				b.Paths[id] = Path{ID: id, A: lo, B: hi}
				b.Plots[lo].Paths = append(b.Plots[lo].Paths, id)
				b.Plots[hi].Paths = append(b.Plots[hi].Paths, id)
				b.Plots[lo].Plots = append(b.Plots[lo].Plots, hi)
				b.Plots[hi].Plots = append(b.Plots[hi].Plots, lo)
			}
			hex.Paths[i] = id
			if !containsInt(b.Paths[id].Hexes, hexID) {
				b.Paths[id].Hexes = append(b.Paths[id].Hexes, hexID)
			}
		}
	}
	if nextPath != NumPaths {
		return nil, consistencyf("board", "interned %d paths, want %d", nextPath, NumPaths)
	}

	for i, spec := range portSpecs {
		hex := &b.Hexes[spec.hex]
		p1 := hex.Plots[spec.vertices[0]]
		p2 := hex.Plots[spec.vertices[1]]
		b.Ports[i] = Port{Kind: spec.kind, Plots: [2]int{p1, p2}}
		b.Plots[p1].Port = spec.kind
		b.Plots[p2].Port = spec.kind
	}

	if err := b.check(); err != nil {
		return nil, err
	}
	return b, nil
}

// check verifies degree bounds and cross-references after interning.
func (b *Board) check() error {
	for id := 1; id <= NumPlots; id++ {
		p := &b.Plots[id]
		if len(p.Paths) < 2 || len(p.Paths) > 3 {
			return consistencyf("board", "plot %d has %d paths", id, len(p.Paths))
		}
		if len(p.Plots) != len(p.Paths) {
			return consistencyf("board", "plot %d adjacency mismatch", id)
		}
		if len(p.Hexes) < 1 || len(p.Hexes) > 3 {
			return consistencyf("board", "plot %d touches %d hexes", id, len(p.Hexes))
		}
	}
	for id := 1; id <= NumPaths; id++ {
		pa := &b.Paths[id]
		if pa.A == pa.B || pa.A < 1 || pa.B > NumPlots {
			return consistencyf("board", "path %d endpoints %d-%d", id, pa.A, pa.B)
		}
		if n := len(pa.Hexes); n < 1 || n > 2 {
			return consistencyf("board", "path %d touches %d hexes", id, n)
		}
	}
	for hexID := 1; hexID <= NumHexes; hexID++ {
		seen := map[int]bool{}
		for _, pid := range b.Hexes[hexID].Plots {
			if seen[pid] {
				return consistencyf("board", "hex %d repeats plot %d", hexID, pid)
			}
			seen[pid] = true
		}
	}
	return nil
}

// PathBetween returns the path joining two plots, if they are adjacent.
func (b *Board) PathBetween(a, c int) (int, bool) {
	if a < 1 || a > NumPlots || c < 1 || c > NumPlots {
		return 0, false
	}
	for _, pid := range b.Plots[a].Paths {
		p := &b.Paths[pid]
		if p.A == c || p.B == c {
			return pid, true
		}
	}
	return 0, false
}

// OtherEnd returns the far endpoint of a path from one of its plots.
func (b *Board) OtherEnd(pathID, plotID int) int {
	p := &b.Paths[pathID]
	if p.A == plotID {
		return p.B
	}
	return p.A
}

// PortAt reports the harbor on a plot, PortNone if the plot is inland.
func (b *Board) PortAt(plotID int) PortKind {
	if plotID < 1 || plotID > NumPlots {
		return PortNone
	}
	return b.Plots[plotID].Port
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
