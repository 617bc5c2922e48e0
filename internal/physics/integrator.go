package physics

import "math"

// Integrate advances a vehicle by one simulation tick using its current
// input. It is a pure state transition: no side effects beyond the vehicle
// it is given, no error outcomes.
//
// Step order is fixed: accelerate along the heading, steer (scaled by
// speed), apply drag, clamp speed, move, clamp position to the track
// bounds. The position clamp is a hard wall that reprojects the vehicle
// without zeroing velocity, so bumping the boundary feels soft.
func Integrate(v *Vehicle, cfg Config) {
	// Forward unit vector from the heading; rotation 0 points up.
	fx := math.Sin(v.Rotation)
	fy := -math.Cos(v.Rotation)

	if v.Input.Up {
		v.Velocity.X += cfg.Accel * fx
		v.Velocity.Y += cfg.Accel * fy
	} else if v.Input.Down {
		v.Velocity.X -= cfg.ReverseAccel * fx
		v.Velocity.Y -= cfg.ReverseAccel * fy
	}

	// Steering is only effective in motion, and its authority grows with
	// speed up to MaxSpeed.
	speed := math.Hypot(v.Velocity.X, v.Velocity.Y)
	if speed > cfg.MinTurnSpeed {
		turn := cfg.TurnRate * math.Min(speed, cfg.MaxSpeed) / cfg.MaxSpeed
		if v.Input.Left {
			v.Rotation -= turn
		}
		if v.Input.Right {
			v.Rotation += turn
		}
	}

	v.Velocity.X *= cfg.Drag
	v.Velocity.Y *= cfg.Drag

	speed = math.Hypot(v.Velocity.X, v.Velocity.Y)
	if speed > cfg.MaxSpeed {
		scale := cfg.MaxSpeed / speed
		v.Velocity.X *= scale
		v.Velocity.Y *= scale
	}

	v.Position.X += v.Velocity.X
	v.Position.Y += v.Velocity.Y

	v.Position.X = clamp(v.Position.X, cfg.BoundaryPadding, cfg.TrackWidth-cfg.BoundaryPadding)
	v.Position.Y = clamp(v.Position.Y, cfg.BoundaryPadding, cfg.TrackHeight-cfg.BoundaryPadding)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
