// Package metrics scores closed-loop runs.
package metrics

import (
	"github.com/san-kum/speedctl/internal/msg"
	"github.com/san-kum/speedctl/internal/sim"
)

// DefaultSettlingThreshold is the position error, in metres, a run must stay within to count as settled.
const DefaultSettlingThreshold = 0.1

// Default returns the metrics that make sense for a run that starts in mode.
func Default(mode msg.Mode) []sim.Metric {
	ms := []sim.Metric{NewControlEffort(), NewRejection()}
	if mode.Yaw == msg.YawAngle || mode.Control == msg.Hover {
		ms = append(ms, NewYawRMS())
	}
	switch mode.Control {
	case msg.Hover, msg.Position, msg.Trajectory:
		ms = append(ms, NewPositionRMS(), NewSettling(DefaultSettlingThreshold))
	case msg.Speed:
		ms = append(ms, NewVelocityRMS())
	case msg.SpeedInAPlane:
		ms = append(ms, NewPlaneVelocityRMS(), NewAltitudeRMS())
	}
	return ms
}
