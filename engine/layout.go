package engine

import "math/rand"

// Layout assigns a terrain and a roll token to each hex. Index 0 is unused;
// hexes are 1..19 in board order. A Layout is the only random input a game
// has: dice arrive as observed action fields.
type Layout struct {
	Terrains [NumHexes + 1]Terrain `json:"terrains"`
	Tokens   [NumHexes + 1]int     `json:"tokens"`
}

// terrainPool is the standard tile distribution.
var terrainPool = []Terrain{
	Hills, Hills, Hills,
	Mountains, Mountains, Mountains,
	Forest, Forest, Forest, Forest,
	Pasture, Pasture, Pasture, Pasture,
	Fields, Fields, Fields, Fields,
	Desert,
}

// tokenPool is the standard roll token distribution (no 7).
var tokenPool = []int{2, 3, 3, 4, 4, 5, 5, 6, 6, 8, 8, 9, 9, 10, 10, 11, 11, 12}

// ClassicLayout is the fixed beginner setup from the rulebook.
func ClassicLayout() Layout {
	var l Layout
	terrains := [NumHexes + 1]Terrain{0,
		Mountains, Pasture, Forest,
		Fields, Hills, Pasture, Hills,
		Fields, Forest, Desert, Forest, Mountains,
		Forest, Mountains, Fields, Pasture,
		Hills, Fields, Pasture,
	}
	tokens := [NumHexes + 1]int{0,
		10, 2, 9,
		12, 6, 4, 10,
		9, 11, 0, 3, 8,
		8, 3, 4, 5,
		5, 6, 11,
	}
	l.Terrains = terrains
	l.Tokens = tokens
	return l
}

// RandomLayout draws a shuffled layout from the standard distributions.
// The caller owns the random source; the engine never seeds one.
func RandomLayout(r *rand.Rand) Layout {
	var l Layout

	terrains := append([]Terrain(nil), terrainPool...)
	r.Shuffle(len(terrains), func(i, j int) { terrains[i], terrains[j] = terrains[j], terrains[i] })
	tokens := append([]int(nil), tokenPool...)
	r.Shuffle(len(tokens), func(i, j int) { tokens[i], tokens[j] = tokens[j], tokens[i] })

	ti := 0
	for id := 1; id <= NumHexes; id++ {
		l.Terrains[id] = terrains[id-1]
		if terrains[id-1] == Desert {
			l.Tokens[id] = 0
			continue
		}
		l.Tokens[id] = tokens[ti]
		ti++
	}
	return l
}

// DesertHex returns the hex carrying the desert (and the initial robber).
func (l Layout) DesertHex() int {
	for id := 1; id <= NumHexes; id++ {
		if l.Terrains[id] == Desert {
			return id
		}
	}
	return 0
}

// validate checks the tile and token distributions so an operator-entered
// layout mirrors a physically possible board.
func (l Layout) validate() error {
	var terrainCount [6]int
	for id := 1; id <= NumHexes; id++ {
		t := l.Terrains[id]
		if int(t) >= len(terrainCount) {
			return consistencyf("layout", "hex %d has invalid terrain %d", id, t)
		}
		terrainCount[t]++
	}
	want := map[Terrain]int{Desert: 1, Hills: 3, Mountains: 3, Forest: 4, Fields: 4, Pasture: 4}
	for t, n := range want {
		if terrainCount[t] != n {
			return consistencyf("layout", "%d %s tiles, want %d", terrainCount[t], t, n)
		}
	}

	tokenCount := map[int]int{}
	for id := 1; id <= NumHexes; id++ {
		tok := l.Tokens[id]
		if l.Terrains[id] == Desert {
			if tok != 0 {
				return consistencyf("layout", "desert hex %d has token %d", id, tok)
			}
			continue
		}
		if tok < 2 || tok > 12 || tok == 7 {
			return consistencyf("layout", "hex %d has invalid token %d", id, tok)
		}
		tokenCount[tok]++
	}
	for _, tok := range []int{2, 12} {
		if tokenCount[tok] != 1 {
			return consistencyf("layout", "token %d appears %d times, want 1", tok, tokenCount[tok])
		}
	}
	for _, tok := range []int{3, 4, 5, 6, 8, 9, 10, 11} {
		if tokenCount[tok] != 2 {
			return consistencyf("layout", "token %d appears %d times, want 2", tok, tokenCount[tok])
		}
	}
	return nil
}
