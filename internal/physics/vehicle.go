package physics

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Input is the last-received control state for a vehicle. Up and Down are
// mutually exclusive for acceleration purposes; Up wins when both are held.
type Input struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Vehicle is the authoritative kinematic state of one player's car.
// Position, Velocity and Rotation are mutated only by Integrate; Input is
// overwritten verbatim on receipt of a player input message.
type Vehicle struct {
	ID       string  `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Rotation float64 `json:"rotation"` // radians, 0 points up (negative Y)
	Input    Input   `json:"input"`
}

// NewVehicle returns a vehicle at the origin with no velocity and no input.
func NewVehicle(id string) *Vehicle {
	return &Vehicle{ID: id}
}
