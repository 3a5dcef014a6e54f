package engine

import (
	"math/rand"
	"testing"
)

// TestClassicLayout verifies the beginner setup: the standard terrain
// histogram, the full token multiset, and a token-free desert.
func TestClassicLayout(t *testing.T) {
	l := ClassicLayout()
	if err := l.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	counts := map[Terrain]int{}
	for id := 1; id <= NumHexes; id++ {
		counts[l.Terrains[id]]++
	}
	want := map[Terrain]int{Hills: 3, Mountains: 3, Forest: 4, Pasture: 4, Fields: 4, Desert: 1}
	for terrain, n := range want {
		if counts[terrain] != n {
			t.Errorf("%v tiles: want %d, got %d", terrain, n, counts[terrain])
		}
	}

	desert := l.DesertHex()
	if desert < 1 || desert > NumHexes {
		t.Fatalf("DesertHex: %d", desert)
	}
	if l.Tokens[desert] != 0 {
		t.Errorf("desert token: want 0, got %d", l.Tokens[desert])
	}
}

// TestRandomLayout verifies a seeded shuffle still satisfies the layout
// invariants and is reproducible from the same source.
func TestRandomLayout(t *testing.T) {
	l1 := RandomLayout(rand.New(rand.NewSource(7)))
	if err := l1.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	l2 := RandomLayout(rand.New(rand.NewSource(7)))
	if l1 != l2 {
		t.Error("same seed should reproduce the same layout")
	}
	l3 := RandomLayout(rand.New(rand.NewSource(8)))
	if err := l3.validate(); err != nil {
		t.Fatalf("validate seed 8: %v", err)
	}
}

// TestLayoutValidateRejects verifies corrupted layouts fail fast.
func TestLayoutValidateRejects(t *testing.T) {
	l := ClassicLayout()
	l.Terrains[1] = Desert // two deserts, one hills short somewhere
	if err := l.validate(); err == nil {
		t.Error("two deserts should not validate")
	}

	l = ClassicLayout()
	desert := l.DesertHex()
	l.Tokens[desert] = 8
	if err := l.validate(); err == nil {
		t.Error("a desert with a token should not validate")
	}

	l = ClassicLayout()
	if _, err := NewGame(3, l); err != nil {
		t.Errorf("NewGame with classic layout: %v", err)
	}
}
