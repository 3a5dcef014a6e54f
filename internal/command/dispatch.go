// internal/command/dispatch.go
package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tablemirror/settlers/engine"
	"github.com/tablemirror/settlers/internal/table"
)

// Store is the persistence surface the command layer needs for !save, !load
// and !undo. internal/database satisfies it.
type Store interface {
	SaveSnapshot(ctx context.Context, id uuid.UUID, data []byte) error
	LoadSnapshot(ctx context.Context, id uuid.UUID) ([]byte, error)
	TruncateActions(ctx context.Context, id uuid.UUID, keep int) error
}

// Dispatcher parses chat-style operator commands, turns them into engine
// actions against one table, and renders the structured results as text.
type Dispatcher struct {
	Store Store // optional; !save and !load report unavailable when nil
}

const helpText = `Commands:
!commands                         - Show this help
!setup                            - Show initial-placement progress
!roll <d1> <d2>                   - Record the dice
!build road <path|plotA-plotB>    - Build a road
!build settlement <plot>          - Build a settlement
!upgrade <plot>                   - Upgrade a settlement to a city
!buydev [type|unknown]            - Buy a development card
!playdev knight                   - Play a knight (then !robber)
!playdev monopoly <res> [nick=n…] - Play monopoly with observed counts
!playdev roadbuilding             - Play road building (2 free roads)
!playdev invention <bundle>       - Take 2 resources from the bank
!trade <nick> <give> <get>        - Trade with a player (bundles like 2wood,1brick)
!maritimetrade <give> <get>       - Trade with the bank
!discard <nick> [bundle] [unknown <n>] - Record a 7 discard
!robber <hex> [nick [res|unknown]] - Move the robber, optionally steal
!steal <hex>                      - List who the robber on <hex> could rob
!reveal <id> <type>               - Resolve a mystery to ground truth
!endturn                          - End the current turn
!vp [nick]      !hand [nick]      !mystery
!board          !ports            !history
!find longroad|largearmy          !whoseturn
!undo           !save             !load`

// Execute runs one command line against a table. The reply is display text;
// the returned error is non-nil only when the tracker's model diverged
// (consistency failure), which the caller should surface loudly.
func (d *Dispatcher) Execute(ctx context.Context, t *table.Table, line string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return "", nil
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "!commands", "!help":
		return helpText, nil
	case "!setup":
		return renderSetup(t), nil
	case "!roll":
		return d.roll(t, args)
	case "!build":
		return d.build(t, args)
	case "!upgrade":
		return d.upgrade(t, args)
	case "!buydev":
		return d.buyDev(t, args)
	case "!playdev":
		return d.playDev(t, args)
	case "!trade":
		return d.trade(t, args)
	case "!maritimetrade":
		return d.maritimeTrade(t, args)
	case "!discard":
		return d.discard(t, args)
	case "!robber":
		return d.robber(t, args)
	case "!steal":
		return d.stealTargets(t, args)
	case "!reveal":
		return d.reveal(t, args)
	case "!endturn":
		return d.apply(t, engine.Action{Kind: engine.ActionEndTurn, Actor: t.CurrentSeat()})
	case "!vp":
		return renderVP(t, args), nil
	case "!hand", "!resources":
		return renderHands(t, args), nil
	case "!mystery":
		return renderMysteries(t), nil
	case "!board":
		return renderBoard(t), nil
	case "!ports":
		return renderPorts(t), nil
	case "!history":
		return renderHistory(t), nil
	case "!find":
		return renderFind(t, args), nil
	case "!whoseturn":
		out := t.Outcome()
		return fmt.Sprintf("%s is up (%s)", out.Current, out.Phase), nil
	case "!undo":
		return d.undo(ctx, t)
	case "!save":
		return d.save(ctx, t)
	case "!load":
		return d.load(ctx, t)
	}
	return fmt.Sprintf("unknown command %q; type !commands for help", cmd), nil
}

// apply runs one engine action and renders the result. Validation errors
// come back as reply text; consistency errors also propagate as the error.
func (d *Dispatcher) apply(t *table.Table, a engine.Action) (string, error) {
	out, err := t.Apply(a)
	if err != nil {
		if engine.IsConsistency(err) {
			return "TRACKER DIVERGED: " + err.Error(), err
		}
		return "rejected: " + err.Error(), nil
	}
	return renderOutcome(out), nil
}

func (d *Dispatcher) roll(t *table.Table, args []string) (string, error) {
	if len(args) != 2 {
		return "usage: !roll <d1> <d2>", nil
	}
	d1, d2, err := parseDice(args[0], args[1])
	if err != nil {
		return err.Error(), nil
	}
	return d.apply(t, engine.Action{Kind: engine.ActionRoll, Actor: t.CurrentSeat(), Die1: d1, Die2: d2})
}

func (d *Dispatcher) build(t *table.Table, args []string) (string, error) {
	if len(args) != 2 {
		return "usage: !build road <path> | !build settlement <plot>", nil
	}
	switch strings.ToLower(args[0]) {
	case "road":
		path, err := parsePath(t.Board(), args[1])
		if err != nil {
			return err.Error(), nil
		}
		return d.apply(t, engine.Action{Kind: engine.ActionPlaceRoad, Actor: t.CurrentSeat(), Path: path})
	case "settlement":
		plot, err := parsePlot(args[1])
		if err != nil {
			return err.Error(), nil
		}
		return d.apply(t, engine.Action{Kind: engine.ActionPlaceSettlement, Actor: t.CurrentSeat(), Plot: plot})
	}
	return fmt.Sprintf("cannot build %q", args[0]), nil
}

func (d *Dispatcher) upgrade(t *table.Table, args []string) (string, error) {
	if len(args) != 1 {
		return "usage: !upgrade <plot>", nil
	}
	plot, err := parsePlot(args[0])
	if err != nil {
		return err.Error(), nil
	}
	return d.apply(t, engine.Action{Kind: engine.ActionUpgradeCity, Actor: t.CurrentSeat(), Plot: plot})
}

func (d *Dispatcher) buyDev(t *table.Table, args []string) (string, error) {
	a := engine.Action{Kind: engine.ActionBuyDev, Actor: t.CurrentSeat()}
	if len(args) == 1 && !strings.EqualFold(args[0], "unknown") {
		card, err := parseDevCard(args[0])
		if err != nil {
			return err.Error(), nil
		}
		a.Declared = &card
	}
	return d.apply(t, a)
}

func (d *Dispatcher) playDev(t *table.Table, args []string) (string, error) {
	if len(args) == 0 {
		return "usage: !playdev <knight|monopoly|roadbuilding|invention> …", nil
	}
	card, err := parseDevCard(args[0])
	if err != nil {
		return err.Error(), nil
	}
	a := engine.Action{Kind: engine.ActionPlayDev, Actor: t.CurrentSeat(), Card: card}

	switch card {
	case engine.Monopoly:
		if len(args) < 2 {
			return "usage: !playdev monopoly <resource> [nick=count …]", nil
		}
		res, err := parseResource(args[1])
		if err != nil {
			return err.Error(), nil
		}
		a.Resource = &res
		a.Surrendered = make([]int, t.SeatCount())
		for _, pair := range args[2:] {
			nick, countStr, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Sprintf("expected nick=count, got %q", pair), nil
			}
			seat, found := t.SeatByNickname(nick)
			if !found {
				return fmt.Sprintf("no player %q", nick), nil
			}
			n, err := strconv.Atoi(countStr)
			if err != nil || n < 0 {
				return fmt.Sprintf("bad count %q", countStr), nil
			}
			a.Surrendered[seat] = n
		}
	case engine.YearOfPlenty:
		if len(args) != 2 {
			return "usage: !playdev invention <bundle of 2>", nil
		}
		get, err := parseBundle(args[1])
		if err != nil {
			return err.Error(), nil
		}
		a.Get = get
	}
	return d.apply(t, a)
}

func (d *Dispatcher) trade(t *table.Table, args []string) (string, error) {
	if len(args) != 3 {
		return "usage: !trade <nick> <give> <get>", nil
	}
	partner, ok := t.SeatByNickname(args[0])
	if !ok {
		return fmt.Sprintf("no player %q", args[0]), nil
	}
	give, err := parseBundle(args[1])
	if err != nil {
		return err.Error(), nil
	}
	get, err := parseBundle(args[2])
	if err != nil {
		return err.Error(), nil
	}
	return d.apply(t, engine.Action{
		Kind: engine.ActionTradePlayer, Actor: t.CurrentSeat(),
		Partner: partner, Give: give, Get: get,
	})
}

func (d *Dispatcher) maritimeTrade(t *table.Table, args []string) (string, error) {
	if len(args) != 2 {
		return "usage: !maritimetrade <give> <get>", nil
	}
	give, err := parseBundle(args[0])
	if err != nil {
		return err.Error(), nil
	}
	get, err := parseBundle(args[1])
	if err != nil {
		return err.Error(), nil
	}
	return d.apply(t, engine.Action{Kind: engine.ActionTradeBank, Actor: t.CurrentSeat(), Give: give, Get: get})
}

// discard records a 7 discard for any seat: known bundle, unknown count, or
// both: !discard bob 1wood,1ore unknown 2
func (d *Dispatcher) discard(t *table.Table, args []string) (string, error) {
	if len(args) < 2 {
		return "usage: !discard <nick> [bundle] [unknown <n>]", nil
	}
	seat, ok := t.SeatByNickname(args[0])
	if !ok {
		return fmt.Sprintf("no player %q", args[0]), nil
	}
	a := engine.Action{Kind: engine.ActionDiscard, Actor: seat}
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		if strings.EqualFold(rest[i], "unknown") {
			if i+1 >= len(rest) {
				return "unknown needs a count", nil
			}
			n, err := strconv.Atoi(rest[i+1])
			if err != nil || n < 1 {
				return fmt.Sprintf("bad unknown count %q", rest[i+1]), nil
			}
			a.Unknown = n
			i++
			continue
		}
		give, err := parseBundle(rest[i])
		if err != nil {
			return err.Error(), nil
		}
		a.Give.Add(give)
	}
	return d.apply(t, a)
}

func (d *Dispatcher) robber(t *table.Table, args []string) (string, error) {
	if len(args) < 1 {
		return "usage: !robber <hex> [nick [resource|unknown]]", nil
	}
	hex, err := parseHex(args[0])
	if err != nil {
		return err.Error(), nil
	}
	a := engine.Action{Kind: engine.ActionMoveRobber, Actor: t.CurrentSeat(), Hex: hex}
	if len(args) >= 2 {
		victim, ok := t.SeatByNickname(args[1])
		if !ok {
			return fmt.Sprintf("no player %q", args[1]), nil
		}
		a.Victim = &victim
		if len(args) >= 3 && !strings.EqualFold(args[2], "unknown") {
			res, err := parseResource(args[2])
			if err != nil {
				return err.Error(), nil
			}
			a.Stolen = &res
		}
	}
	return d.apply(t, a)
}

func (d *Dispatcher) stealTargets(t *table.Table, args []string) (string, error) {
	if len(args) != 1 {
		return "usage: !steal <hex>", nil
	}
	hex, err := parseHex(args[0])
	if err != nil {
		return err.Error(), nil
	}
	t.Mu.Lock()
	targets := t.Game.StealTargets(hex, t.Game.Current)
	t.Mu.Unlock()
	if len(targets) == 0 {
		return fmt.Sprintf("nobody to rob on hex %d", hex), nil
	}
	names := make([]string, len(targets))
	for i, p := range targets {
		names[i] = t.Nickname(p)
	}
	return "robbable on hex " + args[0] + ": " + strings.Join(names, ", "), nil
}

func (d *Dispatcher) reveal(t *table.Table, args []string) (string, error) {
	if len(args) != 2 {
		return "usage: !reveal <mystery-id> <type>", nil
	}
	idNum, err := strconv.Atoi(args[0])
	if err != nil || idNum < 1 {
		return fmt.Sprintf("bad mystery id %q", args[0]), nil
	}
	id := engine.MysteryID(idNum)

	t.Mu.Lock()
	var kind engine.MysteryKind
	var owner engine.PlayerID
	found := false
	for i := range t.Game.Mysteries {
		if t.Game.Mysteries[i].ID == id {
			kind = t.Game.Mysteries[i].Kind
			owner = t.Game.Mysteries[i].Owner
			found = true
			break
		}
	}
	t.Mu.Unlock()
	if !found {
		return fmt.Sprintf("no mystery %d", id), nil
	}

	var as int
	if kind == engine.MysteryDev {
		card, err := parseDevCard(args[1])
		if err != nil {
			return err.Error(), nil
		}
		as = int(card)
	} else {
		res, err := parseResource(args[1])
		if err != nil {
			return err.Error(), nil
		}
		as = int(res)
	}
	actor := owner
	if actor < 0 {
		actor = t.CurrentSeat()
	}
	return d.apply(t, engine.Action{Kind: engine.ActionRevealMystery, Actor: actor, Mystery: id, As: as})
}

// undo rewinds the table one action and drops the now-stale persisted tail,
// so the next applied action's index does not collide.
func (d *Dispatcher) undo(ctx context.Context, t *table.Table) (string, error) {
	out, err := t.Undo()
	if err != nil {
		return err.Error(), nil
	}
	if d.Store != nil {
		if err := d.Store.TruncateActions(ctx, t.ID, out.LogLen); err != nil {
			logrus.WithError(err).WithField("table", t.ID).Error("truncate actions")
		}
		if data, err := t.Snapshot(); err == nil {
			if err := d.Store.SaveSnapshot(ctx, t.ID, data); err != nil {
				logrus.WithError(err).WithField("table", t.ID).Error("persist undo snapshot")
			}
		}
	}
	return "undone\n" + renderOutcome(out), nil
}

func (d *Dispatcher) save(ctx context.Context, t *table.Table) (string, error) {
	if d.Store == nil {
		return "no store configured", nil
	}
	data, err := t.Snapshot()
	if err != nil {
		return "snapshot failed: " + err.Error(), err
	}
	if err := d.Store.SaveSnapshot(ctx, t.ID, data); err != nil {
		return "save failed: " + err.Error(), nil
	}
	return fmt.Sprintf("saved table %s (%d bytes)", t.ID, len(data)), nil
}

// load restores the saved engine state into the live table in place, so
// everything holding the table pointer sees the loaded game.
func (d *Dispatcher) load(ctx context.Context, t *table.Table) (string, error) {
	if d.Store == nil {
		return "no store configured", nil
	}
	data, err := d.Store.LoadSnapshot(ctx, t.ID)
	if err != nil {
		return "load failed: " + err.Error(), nil
	}
	restored, err := table.RestoreTable(data)
	if err != nil {
		return "load failed: " + err.Error(), nil
	}
	if restored.ID != t.ID {
		return fmt.Sprintf("snapshot is for table %s, not %s", restored.ID, t.ID), nil
	}
	t.Mu.Lock()
	t.Game = restored.Game
	t.Mu.Unlock()
	if err := d.Store.TruncateActions(ctx, t.ID, len(restored.Game.Log)); err != nil {
		logrus.WithError(err).WithField("table", t.ID).Error("truncate actions")
	}
	logrus.WithField("table", t.ID).Info("restored from snapshot")
	t.SyncState()
	return "loaded\n" + renderOutcome(t.Outcome()), nil
}
