// Package frame names the coordinate frames the controller reads and writes,
// and provides the small amount of rotation math it needs.
//
// Two frames matter:
//
//   - the world frame (local ENU, "odom"), used for every pose
//   - the body frame (FLU, "base_link"), optionally used for twists
//
// Frame identifiers are namespaced per vehicle, e.g. "drone0/odom".
package frame

import (
	"math"
	"strings"
)

const (
	WorldBase = "odom"
	BodyBase  = "base_link"
)

// Name qualifies base with the vehicle namespace. A leading "/" marks base as
// already absolute and it is returned without the slash.
func Name(namespace, base string) string {
	if strings.HasPrefix(base, "/") {
		return strings.TrimPrefix(base, "/")
	}
	ns := strings.Trim(namespace, "/")
	if ns == "" {
		return base
	}
	return ns + "/" + base
}

// Set holds the resolved frame identifiers for one vehicle.
type Set struct {
	World string
	Body  string
}

func NewSet(namespace string) Set {
	return Set{
		World: Name(namespace, WorldBase),
		Body:  Name(namespace, BodyBase),
	}
}

type Quaternion struct {
	X, Y, Z, W float64
}

// Identity has W=1. The zero Quaternion is not a valid rotation.
var Identity = Quaternion{W: 1}

// FromYaw builds a rotation about Z only.
func FromYaw(yaw float64) Quaternion {
	s, c := math.Sincos(yaw / 2)
	return Quaternion{Z: s, W: c}
}

// Yaw extracts the heading (rotation about Z) from q.
func (q Quaternion) Yaw() float64 {
	siny := 2 * (q.W*q.Z + q.X*q.Y)
	cosy := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	return math.Atan2(siny, cosy)
}

// WrapAngle maps a to (-π, π].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// AngleMinError is the signed shortest rotation taking measured onto reference.
func AngleMinError(reference, measured float64) float64 {
	return WrapAngle(reference - measured)
}
