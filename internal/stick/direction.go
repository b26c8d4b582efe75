package stick

import "math"

// Direction is the coarse compass classification of a surface's offset.
type Direction string

const (
	Centered      Direction = "centered"
	Forward       Direction = "forward"
	ForwardRight  Direction = "forward_right"
	Right         Direction = "right"
	BackwardRight Direction = "backward_right"
	Backward      Direction = "backward"
	BackwardLeft  Direction = "backward_left"
	Left          Direction = "left"
	ForwardLeft   Direction = "forward_left"
)

// sectors maps 45-degree sectors measured clockwise from the positive X
// axis. Screen coordinates grow downward, so forward is negative Y.
var sectors = [8]Direction{
	Right,
	BackwardRight,
	Backward,
	BackwardLeft,
	Left,
	ForwardLeft,
	Forward,
	ForwardRight,
}

// directionFor classifies an angle in radians into one of the eight
// compass sectors. Each sector spans 45 degrees centered on its
// cardinal or intercardinal axis.
func directionFor(angle float64) Direction {
	deg := angle * 180 / math.Pi
	idx := int(math.Round(deg/45))
	return sectors[((idx%8)+8)%8]
}
