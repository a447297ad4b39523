package msg

import (
	"fmt"
	"strings"
)

// ControlMode selects which quantity the vehicle is commanded towards.
// The zero value is unset and never runs a regulator.
type ControlMode int

const (
	ControlModeUnset ControlMode = iota
	Hover
	Position
	Speed
	SpeedInAPlane
	Trajectory
)

var controlModeNames = map[ControlMode]string{
	ControlModeUnset: "UNSET",
	Hover:            "HOVER",
	Position:         "POSITION",
	Speed:            "SPEED",
	SpeedInAPlane:    "SPEED_IN_A_PLANE",
	Trajectory:       "TRAJECTORY",
}

func (m ControlMode) String() string {
	if n, ok := controlModeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("ControlMode(%d)", int(m))
}

// YawMode selects whether heading is commanded by angle or by rate.
type YawMode int

const (
	YawModeUnset YawMode = iota
	YawAngle
	YawSpeed
)

var yawModeNames = map[YawMode]string{
	YawModeUnset: "UNSET",
	YawAngle:     "YAW_ANGLE",
	YawSpeed:     "YAW_SPEED",
}

func (m YawMode) String() string {
	if n, ok := yawModeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("YawMode(%d)", int(m))
}

type ReferenceFrame int

const (
	UndefinedFrame ReferenceFrame = iota
	LocalENUFrame
	BodyFLUFrame
	GlobalLatLongASML
)

var frameNames = map[ReferenceFrame]string{
	UndefinedFrame:    "UNDEFINED_FRAME",
	LocalENUFrame:     "LOCAL_ENU_FRAME",
	BodyFLUFrame:      "BODY_FLU_FRAME",
	GlobalLatLongASML: "GLOBAL_LAT_LONG_ASML",
}

func (f ReferenceFrame) String() string {
	if n, ok := frameNames[f]; ok {
		return n
	}
	return fmt.Sprintf("ReferenceFrame(%d)", int(f))
}

// Mode is a complete control mode as exchanged with the host.
type Mode struct {
	Control ControlMode
	Yaw     YawMode
	Frame   ReferenceFrame
}

func (m Mode) String() string {
	return m.Control.String() + "/" + m.Yaw.String() + "/" + m.Frame.String()
}

func ParseControlMode(s string) (ControlMode, error) {
	return parseEnum(controlModeNames, s, "control mode")
}

func ParseYawMode(s string) (YawMode, error) {
	return parseEnum(yawModeNames, s, "yaw mode")
}

func ParseReferenceFrame(s string) (ReferenceFrame, error) {
	return parseEnum(frameNames, s, "reference frame")
}

func parseEnum[T comparable](names map[T]string, s, what string) (T, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for v, n := range names {
		if n == want || strings.TrimSuffix(n, "_FRAME") == want {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s: %q", what, s)
}
