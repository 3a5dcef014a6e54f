// internal/command/command_test.go
package command

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemirror/settlers/engine"
	"github.com/tablemirror/settlers/internal/table"
)

func TestParseBundle(t *testing.T) {
	tests := []struct {
		in      string
		want    engine.ResourceSet
		wantErr bool
	}{
		{"2wood,1brick", engine.ResourceSet{1, 2, 0, 0, 0}, false},
		{"ore", engine.ResourceSet{0, 0, 1, 0, 0}, false},
		{"3sheep", engine.ResourceSet{0, 0, 0, 0, 3}, false},
		{"1grain,1wheat", engine.ResourceSet{0, 0, 0, 2, 0}, false},
		{"", engine.ResourceSet{}, false},
		{"2gold", engine.ResourceSet{}, true},
		{"0wood", engine.ResourceSet{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBundle(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVulgarFraction(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{1, ""},
		{0.5, "½"},
		{1.0 / 3, "⅓"},
		{2.0 / 3, "⅔"},
		{0.25, "¼"},
		{0.2, "⅕"},
		{0.15, "15%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, vulgarFraction(tt.p), "p=%v", tt.p)
	}
}

func TestParsePath(t *testing.T) {
	g, err := engine.NewGame(2, engine.ClassicLayout())
	require.NoError(t, err)

	p := g.Board.Paths[1]
	byPair, err := parsePath(g.Board, fmt.Sprintf("%d-%d", p.A, p.B))
	require.NoError(t, err)
	assert.Equal(t, 1, byPair)

	byID, err := parsePath(g.Board, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, byID)

	_, err = parsePath(g.Board, "1-54")
	assert.Error(t, err, "non-adjacent plots have no path")

	_, err = parsePath(g.Board, "999")
	assert.Error(t, err)
}

func newTestTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New("test", []string{"alice", "bob"}, engine.ClassicLayout())
	require.NoError(t, err)
	return tbl
}

// run executes a command and fails the test on consistency errors.
func run(t *testing.T, d *Dispatcher, tbl *table.Table, line string) string {
	t.Helper()
	out, err := d.Execute(context.Background(), tbl, line)
	require.NoError(t, err)
	return out
}

func finishSetup(t *testing.T, d *Dispatcher, tbl *table.Table) {
	t.Helper()
	for tbl.Game.Phase == engine.PhaseSetup {
		p := tbl.Game.Current
		var line string
		if tbl.Game.Setup.AwaitRoad {
			paths := tbl.Game.LegalRoads(p)
			require.NotEmpty(t, paths)
			line = fmt.Sprintf("!build road %d", paths[0])
		} else {
			plots := tbl.Game.LegalSettlements(p)
			require.NotEmpty(t, plots)
			line = fmt.Sprintf("!build settlement %d", plots[0])
		}
		reply := run(t, d, tbl, line)
		require.NotContains(t, reply, "rejected", "setup %q: %s", line, reply)
	}
}

func TestDispatcherGameFlow(t *testing.T) {
	d := &Dispatcher{}
	tbl := newTestTable(t)

	assert.Contains(t, run(t, d, tbl, "!commands"), "!roll")
	assert.Contains(t, run(t, d, tbl, "!bogus"), "unknown command")
	assert.Equal(t, "", run(t, d, tbl, "   "))
	assert.Contains(t, run(t, d, tbl, "!setup"), "alice places a settlement")

	finishSetup(t, d, tbl)
	assert.Equal(t, "setup is complete", run(t, d, tbl, "!setup"))
	require.Equal(t, engine.PhasePreRoll, tbl.Game.Phase)
	assert.Contains(t, run(t, d, tbl, "!whoseturn"), "alice")

	// Wrong phase is reported, not fatal.
	assert.Contains(t, run(t, d, tbl, "!endturn"), "rejected")

	reply := run(t, d, tbl, "!roll 1 2")
	assert.Contains(t, reply, "post_roll")

	assert.Contains(t, run(t, d, tbl, "!vp"), "alice")
	assert.Contains(t, run(t, d, tbl, "!hand"), "bank")
	assert.Contains(t, run(t, d, tbl, "!board"), "robber")
	assert.Contains(t, run(t, d, tbl, "!ports"), "3:1")
	assert.Contains(t, run(t, d, tbl, "!find longroad"), "longest road")
	assert.Contains(t, run(t, d, tbl, "!history"), "place_settlement")
	assert.Equal(t, "no unresolved mysteries", run(t, d, tbl, "!mystery"))

	reply = run(t, d, tbl, "!endturn")
	assert.Contains(t, reply, "bob")

	// Undo rewinds the end-turn.
	reply = run(t, d, tbl, "!undo")
	assert.Contains(t, reply, "undone")
	assert.Equal(t, engine.PhasePostRoll, tbl.Game.Phase)
}

func TestDispatcherInputErrors(t *testing.T) {
	d := &Dispatcher{}
	tbl := newTestTable(t)

	assert.Contains(t, run(t, d, tbl, "!roll 9 1"), "dice are 1..6")
	assert.Contains(t, run(t, d, tbl, "!roll 1"), "usage")
	assert.Contains(t, run(t, d, tbl, "!build castle 3"), "cannot build")
	assert.Contains(t, run(t, d, tbl, "!build settlement 999"), "plot id")
	assert.Contains(t, run(t, d, tbl, "!trade nobody 1wood 1ore"), `no player "nobody"`)
	assert.Contains(t, run(t, d, tbl, "!playdev timetravel"), "unknown development card")
	assert.Contains(t, run(t, d, tbl, "!reveal 1 ore"), "no mystery")
	assert.Contains(t, run(t, d, tbl, "!save"), "no store configured")
}

// TestDispatcherConcurrentOperators exercises simultaneous command lines
// against one table, the way several connected operators would. Handlers
// must read game state through the table lock; run under -race.
func TestDispatcherConcurrentOperators(t *testing.T) {
	d := &Dispatcher{}
	tbl := newTestTable(t)
	finishSetup(t, d, tbl)

	lines := []string{
		"!whoseturn", "!vp", "!hand", "!board", "!setup",
		"!roll 1 2", "!endturn", "!mystery", "!find longroad",
	}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, line := range lines {
				_, err := d.Execute(context.Background(), tbl, line)
				assert.NoError(t, err, line)
			}
		}()
	}
	wg.Wait()
}

func TestDispatcherMysteryRendering(t *testing.T) {
	d := &Dispatcher{}
	tbl := newTestTable(t)
	finishSetup(t, d, tbl)

	// Force alice empty and bob to {2 ore, 1 wool}, conservation intact.
	alice := &tbl.Game.Players[0].Known
	tbl.Game.Bank.Add(*alice)
	*alice = engine.ResourceSet{}
	bob := &tbl.Game.Players[1].Known
	tbl.Game.Bank.Add(*bob)
	*bob = engine.ResourceSet{}
	hand := engine.ResourceSet{0, 0, 2, 0, 1}
	tbl.Game.Bank.Sub(hand)
	*bob = hand

	run(t, d, tbl, "!roll 3 4")
	require.Equal(t, engine.PhaseRobber, tbl.Game.Phase)

	var hex int
	for plot := 1; plot <= engine.NumPlots && hex == 0; plot++ {
		if tbl.Game.PlotOwner[plot] != 1 {
			continue
		}
		for _, h := range tbl.Game.Board.Plots[plot].Hexes {
			if h != tbl.Game.Robber {
				hex = h
				break
			}
		}
	}
	require.NotZero(t, hex)

	reply := run(t, d, tbl, fmt.Sprintf("!robber %d bob unknown", hex))
	assert.Contains(t, reply, "⅔ ore")
	assert.Contains(t, reply, "⅓ wool")

	mysteries := run(t, d, tbl, "!mystery")
	assert.Contains(t, mysteries, "alice")
	assert.Contains(t, mysteries, "bob")
	assert.Contains(t, mysteries, "-1×", "the victim's side is a loss stack")

	// Reveal the gain as ore: everything collapses.
	var id engine.MysteryID
	for _, e := range tbl.Game.Mysteries {
		if e.Gain {
			id = e.ID
			break
		}
	}
	require.NotZero(t, id)
	run(t, d, tbl, fmt.Sprintf("!reveal %d ore", id))
	assert.Equal(t, "no unresolved mysteries", run(t, d, tbl, "!mystery"))
	assert.Equal(t, 1, tbl.Game.Players[0].Known[engine.Ore])
}

// memStore is an in-memory command.Store for save/load tests.
type memStore struct {
	mu   sync.Mutex
	data map[uuid.UUID][]byte
}

func (m *memStore) SaveSnapshot(_ context.Context, id uuid.UUID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[uuid.UUID][]byte)
	}
	m.data[id] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) LoadSnapshot(_ context.Context, id uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("no snapshot for %s", id)
	}
	return data, nil
}

func (m *memStore) TruncateActions(context.Context, uuid.UUID, int) error { return nil }

func TestSaveAndLoadRoundTrip(t *testing.T) {
	d := &Dispatcher{Store: &memStore{}}
	tbl := newTestTable(t)
	finishSetup(t, d, tbl)

	savedLen := len(tbl.Game.Log)
	reply := run(t, d, tbl, "!save")
	assert.True(t, strings.HasPrefix(reply, "saved table"), reply)

	run(t, d, tbl, "!roll 1 2")
	run(t, d, tbl, "!endturn")
	require.Equal(t, savedLen+2, len(tbl.Game.Log))

	reply = run(t, d, tbl, "!load")
	assert.Contains(t, reply, "loaded")
	assert.Equal(t, savedLen, len(tbl.Game.Log))
	assert.Equal(t, engine.PhasePreRoll, tbl.Game.Phase)
	assert.Equal(t, engine.PlayerID(0), tbl.Game.Current)
}
