package engine

// Resource is one of the five tradable resource types.
type Resource uint8

const (
	Brick Resource = iota
	Wood
	Ore
	Wheat
	Wool
)

// NumResources is the size of the resource index space.
const NumResources = 5

var resourceNames = [NumResources]string{"brick", "wood", "ore", "wheat", "wool"}

func (r Resource) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return "unknown"
}

// Resources lists all resource types in index order.
func Resources() [NumResources]Resource {
	return [NumResources]Resource{Brick, Wood, Ore, Wheat, Wool}
}

// Terrain is a hex tile type. Every terrain except desert produces one
// resource type.
type Terrain uint8

const (
	Desert Terrain = iota
	Hills          // brick
	Forest         // wood
	Mountains      // ore
	Fields         // wheat
	Pasture        // wool
)

var terrainNames = [...]string{"desert", "hills", "forest", "mountains", "fields", "pasture"}

func (t Terrain) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return "unknown"
}

// Produces returns the resource a terrain yields, and false for desert.
func (t Terrain) Produces() (Resource, bool) {
	switch t {
	case Hills:
		return Brick, true
	case Forest:
		return Wood, true
	case Mountains:
		return Ore, true
	case Fields:
		return Wheat, true
	case Pasture:
		return Wool, true
	}
	return 0, false
}

// DevCard is a development card type.
type DevCard uint8

const (
	Knight DevCard = iota
	VictoryCard
	Monopoly
	RoadBuilding
	YearOfPlenty
)

// NumDevTypes is the size of the development card index space.
const NumDevTypes = 5

var devCardNames = [NumDevTypes]string{"knight", "victory_point", "monopoly", "road_building", "year_of_plenty"}

func (d DevCard) String() string {
	if int(d) < len(devCardNames) {
		return devCardNames[d]
	}
	return "unknown"
}

// devCardCounts is the canonical 25-card pool composition.
var devCardCounts = [NumDevTypes]int{14, 5, 2, 2, 2}

// DevPoolSize is the total number of development cards in a fresh pool.
const DevPoolSize = 25

// InitialDevCount returns how many cards of the given type a fresh pool holds.
func InitialDevCount(d DevCard) int { return devCardCounts[d] }

// BuildingKind distinguishes the two plot occupants.
type BuildingKind uint8

const (
	Settlement BuildingKind = iota
	City
)

func (b BuildingKind) String() string {
	if b == City {
		return "city"
	}
	return "settlement"
}

// PortKind is a harbor trade benefit attached to a pair of plots.
type PortKind uint8

const (
	PortNone    PortKind = iota
	PortGeneric          // 3:1 any resource
	PortBrick            // 2:1
	PortWood
	PortOre
	PortWheat
	PortWool
)

// PortFor returns the 2:1 port kind matching a resource.
func PortFor(r Resource) PortKind { return PortBrick + PortKind(r) }

func (p PortKind) String() string {
	switch p {
	case PortGeneric:
		return "3:1"
	case PortBrick, PortWood, PortOre, PortWheat, PortWool:
		return "2:1 " + Resource(p-PortBrick).String()
	}
	return "none"
}

// PlayerID indexes a seat at the table, 0..NumPlayers-1.
type PlayerID int

const (
	// NoPlayer marks an empty plot/path or an unheld title.
	NoPlayer PlayerID = -1
	// BankParty is the counterparty of unobserved discards; it lets the
	// bank participate in mystery narrowing like any other hand.
	BankParty PlayerID = -2
)

// Phase is the turn state machine position.
type Phase uint8

const (
	PhaseSetup    Phase = iota // snake-order initial placements
	PhasePreRoll               // waiting for the dice
	PhaseRobber                // discards owed and/or robber move pending
	PhasePostRoll              // build / trade / dev window
	PhaseGameOver
)

var phaseNames = [...]string{"setup", "pre_roll", "robber", "post_roll", "game_over"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Piece pool sizes per player.
const (
	MaxRoads       = 15
	MaxSettlements = 5
	MaxCities      = 4
)

// Build costs, indexed by Resource.
var (
	RoadCost       = ResourceSet{1, 1, 0, 0, 0}
	SettlementCost = ResourceSet{1, 1, 0, 1, 1}
	CityCost       = ResourceSet{0, 0, 3, 2, 0}
	DevCardCost    = ResourceSet{0, 0, 1, 1, 1}
)

// VictoryTarget ends the game when any player reaches it.
const VictoryTarget = 10

// Achievement thresholds.
const (
	LongestRoadMin = 5
	LargestArmyMin = 3
)

// DiscardLimit: rolling a 7 costs every player holding more than this
// many cards half their hand, rounded down.
const DiscardLimit = 7
