// internal/command/parse.go
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tablemirror/settlers/engine"
)

// Input errors are the command layer's concern: the engine only ever sees
// well-formed actions. Everything in this file reports against the raw text.

// resourceAliases accepts both the tracker's names and the common tabletop
// synonyms.
var resourceAliases = map[string]engine.Resource{
	"brick":  engine.Brick,
	"wood":   engine.Wood,
	"lumber": engine.Wood,
	"ore":    engine.Ore,
	"wheat":  engine.Wheat,
	"grain":  engine.Wheat,
	"wool":   engine.Wool,
	"sheep":  engine.Wool,
}

var devAliases = map[string]engine.DevCard{
	"knight":        engine.Knight,
	"vp":            engine.VictoryCard,
	"victory":       engine.VictoryCard,
	"victory_point": engine.VictoryCard,
	"monopoly":      engine.Monopoly,
	"roadbuilding":  engine.RoadBuilding,
	"road_building": engine.RoadBuilding,
	"yearofplenty":  engine.YearOfPlenty,
	"invention":     engine.YearOfPlenty,
}

func parseResource(s string) (engine.Resource, error) {
	r, ok := resourceAliases[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown resource %q", s)
	}
	return r, nil
}

func parseDevCard(s string) (engine.DevCard, error) {
	d, ok := devAliases[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown development card %q", s)
	}
	return d, nil
}

// parseBundle reads a comma-separated resource bundle like "2wood,1brick"
// or "ore" (count defaults to 1).
func parseBundle(s string) (engine.ResourceSet, error) {
	var set engine.ResourceSet
	if s == "" || strings.EqualFold(s, "nothing") {
		return set, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i := 0
		for i < len(part) && part[i] >= '0' && part[i] <= '9' {
			i++
		}
		n := 1
		if i > 0 {
			var err error
			n, err = strconv.Atoi(part[:i])
			if err != nil || n < 1 {
				return set, fmt.Errorf("bad count in %q", part)
			}
		}
		r, err := parseResource(strings.TrimSpace(part[i:]))
		if err != nil {
			return set, err
		}
		set[r] += n
	}
	return set, nil
}

// parsePlot reads a 1-based plot id.
func parsePlot(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > engine.NumPlots {
		return 0, fmt.Errorf("plot id must be 1..%d, got %q", engine.NumPlots, s)
	}
	return n, nil
}

// parsePath reads either a 1-based path id or a plot pair like "12-13".
func parsePath(b *engine.Board, s string) (int, error) {
	if a, c, ok := strings.Cut(s, "-"); ok {
		pa, err := parsePlot(a)
		if err != nil {
			return 0, err
		}
		pc, err := parsePlot(c)
		if err != nil {
			return 0, err
		}
		id, found := b.PathBetween(pa, pc)
		if !found {
			return 0, fmt.Errorf("plots %d and %d are not adjacent", pa, pc)
		}
		return id, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > engine.NumPaths {
		return 0, fmt.Errorf("path id must be 1..%d or a plot pair like 12-13, got %q", engine.NumPaths, s)
	}
	return n, nil
}

func parseHex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > engine.NumHexes {
		return 0, fmt.Errorf("hex id must be 1..%d, got %q", engine.NumHexes, s)
	}
	return n, nil
}

func parseDice(d1, d2 string) (int, int, error) {
	a, err := strconv.Atoi(d1)
	if err != nil {
		return 0, 0, fmt.Errorf("bad die %q", d1)
	}
	b, err := strconv.Atoi(d2)
	if err != nil {
		return 0, 0, fmt.Errorf("bad die %q", d2)
	}
	if a < 1 || a > 6 || b < 1 || b > 6 {
		return 0, 0, fmt.Errorf("dice are 1..6, got %d and %d", a, b)
	}
	return a, b, nil
}
