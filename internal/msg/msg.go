// Package msg defines the messages exchanged between the host and a
// controller: stamped poses and twists, trajectory points, and control modes.
package msg

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/san-kum/speedctl/internal/frame"
)

type Header struct {
	FrameID string
	Stamp   time.Time
}

type Pose struct {
	Header
	Position    r3.Vector
	Orientation frame.Quaternion
}

type Twist struct {
	Header
	Linear  r3.Vector
	Angular r3.Vector
}

// TrajectoryPoint carries [x y z yaw] in each slice. Only the first four
// entries of each are read.
type TrajectoryPoint struct {
	Positions     []float64
	Velocities    []float64
	Accelerations []float64
}

// TrajectoryDims is the number of entries each TrajectoryPoint slice must hold.
const TrajectoryDims = 4
