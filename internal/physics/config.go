package physics

// Config holds the simulation tunables. They are process-wide and shared by
// every room; there is no per-room override.
//
// Values are expressed per simulation tick, not per wall-clock second: the
// integrator applies one step per tick and the tick rate is fixed, so the
// constants must match the client exactly for consistent rendering.
type Config struct {
	Accel           float64 `yaml:"accel"`            // forward acceleration per tick
	ReverseAccel    float64 `yaml:"reverse_accel"`    // reverse acceleration per tick
	TurnRate        float64 `yaml:"turn_rate"`        // max steering delta per tick, radians
	MaxSpeed        float64 `yaml:"max_speed"`        // speed clamp, units per tick
	Drag            float64 `yaml:"drag"`             // velocity multiplier per tick, < 1
	MinTurnSpeed    float64 `yaml:"min_turn_speed"`   // steering has no effect below this speed
	TrackWidth      float64 `yaml:"track_width"`      // world units
	TrackHeight     float64 `yaml:"track_height"`     // world units
	BoundaryPadding float64 `yaml:"boundary_padding"` // hard wall inset from track edges
}

// DefaultConfig returns the reference tunables.
func DefaultConfig() Config {
	return Config{
		Accel:           0.5,
		ReverseAccel:    0.25,
		TurnRate:        0.08,
		MaxSpeed:        8,
		Drag:            0.95,
		MinTurnSpeed:    0.5,
		TrackWidth:      800,
		TrackHeight:     600,
		BoundaryPadding: 20,
	}
}
