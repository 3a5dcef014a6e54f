// internal/autoplay/autoplay_test.go
package autoplay

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemirror/settlers/engine"
)

// TestDriverNeverProposesIllegalActions is the engine stress test: across
// several seeds and seat counts, every action the driver proposes must be
// accepted, and the engine's own conservation check runs after each one.
func TestDriverNeverProposesIllegalActions(t *testing.T) {
	for _, players := range []int{2, 3, 4} {
		for seed := int64(1); seed <= 3; seed++ {
			rng := rand.New(rand.NewSource(seed))
			g, err := engine.NewGame(players, engine.RandomLayout(rng))
			require.NoError(t, err)

			d := New(rng)
			for steps := 0; g.Phase != engine.PhaseGameOver && steps < 2000; steps++ {
				a, err := d.Next(g)
				require.NoError(t, err, "players=%d seed=%d step=%d phase=%s", players, seed, steps, g.Phase)
				require.NoError(t, g.Apply(a), "players=%d seed=%d step=%d kind=%s", players, seed, steps, a.Kind)
			}
		}
	}
}

// TestDriverCompletesSetup checks the snake draft specifically: after
// 4*players placements everyone has 2 settlements and 2 roads and the game
// is waiting for the first roll.
func TestDriverCompletesSetup(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g, err := engine.NewGame(3, engine.ClassicLayout())
	require.NoError(t, err)

	d := New(rng)
	for g.Phase == engine.PhaseSetup {
		a, err := d.Next(g)
		require.NoError(t, err)
		require.NoError(t, g.Apply(a))
	}

	assert.Equal(t, engine.PhasePreRoll, g.Phase)
	assert.Equal(t, engine.PlayerID(0), g.Current)
	for p := 0; p < g.NumPlayers; p++ {
		assert.Equal(t, engine.MaxSettlements-2, g.Players[p].SettlementPieces, "seat %d", p)
		assert.Equal(t, engine.MaxRoads-2, g.Players[p].RoadPieces, "seat %d", p)
	}
}

// TestDriverLeavesNoMysteries: the driver is an omniscient operator, so a
// driven game never accumulates unresolved hidden information.
func TestDriverLeavesNoMysteries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g, err := engine.NewGame(2, engine.RandomLayout(rng))
	require.NoError(t, err)

	d := New(rng)
	for steps := 0; g.Phase != engine.PhaseGameOver && steps < 2000; steps++ {
		a, err := d.Next(g)
		require.NoError(t, err)
		require.NoError(t, g.Apply(a))
		for _, e := range g.Mysteries {
			assert.True(t, e.Resolved, "driver created mystery %d", e.ID)
		}
	}
}
