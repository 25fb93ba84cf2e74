package panel

// Signalling panel definitions.
//
// The structures mirror the JSON diagram files in full so that a file can be
// decoded and validated, but only Diagram.Layout.Panel.Title is used by the
// server. Every key without omitempty must be present in the file (see
// checkPresence); strings may be empty.

// Direction of track marking on a tile
type Direction string

const (
	DirectionEW Direction = "EW"
	DirectionNE Direction = "NE"
	DirectionNS Direction = "NS"
	DirectionNW Direction = "NW"
	DirectionSE Direction = "SE"
	DirectionSW Direction = "SW"
)

// State of a CBus event
type State string

const (
	StateUnknown State = "UNKN"
	StateZero    State = "ZERO"
	StateOne     State = "ONE"
)

// SwitchType is the kind of control switch
type SwitchType string

const (
	SwitchToggle     SwitchType = "Toggle"
	SwitchPushButton SwitchType = "PushButton"
)

type TurnOutDirection string

const (
	TurnOutNorth TurnOutDirection = "North"
	TurnOutEast  TurnOutDirection = "East"
	TurnOutSouth TurnOutDirection = "South"
	TurnOutWest  TurnOutDirection = "West"
)

type TurnOutHand string

const (
	TurnOutLeft  TurnOutHand = "Left"
	TurnOutRight TurnOutHand = "Right"
	TurnOutWye   TurnOutHand = "Wye"
)

// TurnoutState names the CbusStates that show how a turnout is lying.
// Treated as a double bit: 0-0 in transit, 1-0 normal, 0-1 reverse, 1-1 error.
type TurnoutState struct {
	Normal  string `json:"normal"`
	Reverse string `json:"reverse"`
}

// CbusState is the state of one CBus event
type CbusState struct {
	Name  string  `json:"name"`
	Event *string `json:"event,omitempty"` // long or short format
	State State   `json:"state" validate:"oneof=UNKN ZERO ONE" jsonschema:"enum=UNKN,enum=ZERO,enum=ONE"`
}

// Panel holds the dimensions of the diagram
type Panel struct {
	Width    uint16 `json:"width"`    // in tiles
	Height   uint16 `json:"height"`   // in tiles
	TileSize uint16 `json:"tilesize"` // pixels per square tile
	Colour   string `json:"colour"`
	Margins  uint16 `json:"margins"`
	Border   uint16 `json:"border"`
	Title    string `json:"title"`
}

// Tile is a position within the panel, 1-based
type Tile struct {
	X uint16 `json:"x_coord"`
	Y uint16 `json:"y_coord"`
}

// Track is how track is drawn on a tile
type Track struct {
	Tile      Tile      `json:"tile"`
	Direction Direction `json:"direction" validate:"oneof=EW NE NS NW SE SW" jsonschema:"enum=EW,enum=NE,enum=NS,enum=NW,enum=SE,enum=SW"`
	Label     *string   `json:"label,omitempty"`
	TCState   *string   `json:"tcstate,omitempty"` // track circuit
	Spot      *string   `json:"spot,omitempty"`    // train detector
}

// Turnout is a switch/point on the diagram
type Turnout struct {
	Tile        Tile             `json:"tile"`
	Name        string           `json:"name"`
	Hand        TurnOutHand      `json:"hand" validate:"oneof=Left Right Wye" jsonschema:"enum=Left,enum=Right,enum=Wye"`
	Orientation TurnOutDirection `json:"orientation" validate:"oneof=North East South West" jsonschema:"enum=North,enum=East,enum=South,enum=West"`
	ToState     TurnoutState     `json:"tostate"`
}

// Control is a switch on the panel that actuates a turnout
type Control struct {
	Tile    Tile         `json:"tile"`
	Name    string       `json:"name"`
	Switch  SwitchType   `json:"switch" validate:"oneof=Toggle PushButton" jsonschema:"enum=Toggle,enum=PushButton"`
	Action  string       `json:"action"` // CbusState that actuates the turnout
	ToState TurnoutState `json:"tostate"`
}

// Layout is the realisation of the signalling diagram
type Layout struct {
	Panel    Panel     `json:"panel"`
	Controls []Control `json:"controls" validate:"dive"`
	Track    []Track   `json:"track" validate:"dive"`
	Turnouts []Turnout `json:"turnouts" validate:"dive"`
}

// Diagram is a complete signalling panel definition file
type Diagram struct {
	CbusStates []CbusState `json:"cbusstates" validate:"dive"`
	Layout     Layout      `json:"layout"`
}

// Definition is a validated diagram file known to the server
type Definition struct {
	Title    string `json:"title"`
	JSONFile string `json:"json_file"`
}
