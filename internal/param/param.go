// Package param enumerates every tunable the speed controller accepts.
//
// Parameter names arrive from the host as dotted strings such as
// "position_control.kp.x". They are parsed once, at the boundary, into a
// [Key] (a Group/Leaf pair); everything downstream switches on the Key.
package param

import (
	"fmt"
	"sort"
	"strings"
)

// Group is a controller-group tag, the part of a name before the first dot.
type Group int

const (
	GroupPlugin Group = iota + 1
	GroupPosition
	GroupVelocity
	GroupSpeedInAPlane
	GroupTrajectory
	GroupYaw
)

var groupTags = map[Group]string{
	GroupPlugin:        "",
	GroupPosition:      "position_control",
	GroupVelocity:      "velocity_control",
	GroupSpeedInAPlane: "speed_in_a_plane_control",
	GroupTrajectory:    "trajectory_control",
	GroupYaw:           "yaw_control",
}

// Groups lists every group in declaration order.
func Groups() []Group {
	return []Group{GroupPlugin, GroupPosition, GroupVelocity, GroupSpeedInAPlane, GroupTrajectory, GroupYaw}
}

// Tag returns the name prefix of g. Plugin parameters have none.
func (g Group) Tag() string { return groupTags[g] }

func (g Group) String() string {
	switch g {
	case GroupPlugin:
		return "plugin"
	case GroupPosition, GroupVelocity, GroupSpeedInAPlane, GroupTrajectory, GroupYaw:
		return groupTags[g]
	default:
		return fmt.Sprintf("Group(%d)", int(g))
	}
}

// Leaf is the part of a name after the group tag.
type Leaf int

const (
	LeafProportionalLimitation Leaf = iota + 1
	LeafUseBypass
	LeafResetIntegral
	LeafAntiWindup
	LeafAlpha
	LeafKp
	LeafKi
	LeafKd
	LeafKpX
	LeafKpY
	LeafKpZ
	LeafKiX
	LeafKiY
	LeafKiZ
	LeafKdX
	LeafKdY
	LeafKdZ
	LeafHeightKp
	LeafHeightKi
	LeafHeightKd
	LeafSpeedKpX
	LeafSpeedKpY
	LeafSpeedKiX
	LeafSpeedKiY
	LeafSpeedKdX
	LeafSpeedKdY
)

var leafNames = map[Leaf]string{
	LeafProportionalLimitation: "proportional_limitation",
	LeafUseBypass:              "use_bypass",
	LeafResetIntegral:          "reset_integral",
	LeafAntiWindup:             "antiwindup_cte",
	LeafAlpha:                  "alpha",
	LeafKp:                     "kp",
	LeafKi:                     "ki",
	LeafKd:                     "kd",
	LeafKpX:                    "kp.x",
	LeafKpY:                    "kp.y",
	LeafKpZ:                    "kp.z",
	LeafKiX:                    "ki.x",
	LeafKiY:                    "ki.y",
	LeafKiZ:                    "ki.z",
	LeafKdX:                    "kd.x",
	LeafKdY:                    "kd.y",
	LeafKdZ:                    "kd.z",
	LeafHeightKp:               "height.kp",
	LeafHeightKi:               "height.ki",
	LeafHeightKd:               "height.kd",
	LeafSpeedKpX:               "speed.kp.x",
	LeafSpeedKpY:               "speed.kp.y",
	LeafSpeedKiX:               "speed.ki.x",
	LeafSpeedKiY:               "speed.ki.y",
	LeafSpeedKdX:               "speed.kd.x",
	LeafSpeedKdY:               "speed.kd.y",
}

func (l Leaf) String() string {
	if n, ok := leafNames[l]; ok {
		return n
	}
	return fmt.Sprintf("Leaf(%d)", int(l))
}

// Kind reports the value type l expects.
func (l Leaf) Kind() Kind {
	switch l {
	case LeafProportionalLimitation, LeafUseBypass, LeafResetIntegral:
		return KindBool
	default:
		return KindFloat
	}
}

type Term int

const (
	TermP Term = iota + 1
	TermI
	TermD
)

type Axis int

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
)

// Gain decomposes a gain leaf into its PID term and axis. Scalar gains
// report AxisNone. ok is false for leaves that are not gains.
func (l Leaf) Gain() (term Term, axis Axis, ok bool) {
	switch l {
	case LeafKp, LeafHeightKp:
		return TermP, AxisNone, true
	case LeafKi, LeafHeightKi:
		return TermI, AxisNone, true
	case LeafKd, LeafHeightKd:
		return TermD, AxisNone, true
	case LeafKpX, LeafSpeedKpX:
		return TermP, AxisX, true
	case LeafKpY, LeafSpeedKpY:
		return TermP, AxisY, true
	case LeafKpZ:
		return TermP, AxisZ, true
	case LeafKiX, LeafSpeedKiX:
		return TermI, AxisX, true
	case LeafKiY, LeafSpeedKiY:
		return TermI, AxisY, true
	case LeafKiZ:
		return TermI, AxisZ, true
	case LeafKdX, LeafSpeedKdX:
		return TermD, AxisX, true
	case LeafKdY, LeafSpeedKdY:
		return TermD, AxisY, true
	case LeafKdZ:
		return TermD, AxisZ, true
	}
	return 0, AxisNone, false
}

var (
	sharedLeaves = []Leaf{LeafResetIntegral, LeafAntiWindup, LeafAlpha}
	gains3D      = []Leaf{LeafKpX, LeafKpY, LeafKpZ, LeafKiX, LeafKiY, LeafKiZ, LeafKdX, LeafKdY, LeafKdZ}

	groupLeaves = map[Group][]Leaf{
		GroupPlugin:   {LeafProportionalLimitation, LeafUseBypass},
		GroupPosition: append(append([]Leaf{}, sharedLeaves...), gains3D...),
		GroupVelocity: append(append([]Leaf{}, sharedLeaves...), gains3D...),
		GroupSpeedInAPlane: append(append([]Leaf{}, sharedLeaves...),
			LeafHeightKp, LeafHeightKi, LeafHeightKd,
			LeafSpeedKpX, LeafSpeedKpY, LeafSpeedKiX, LeafSpeedKiY, LeafSpeedKdX, LeafSpeedKdY),
		GroupTrajectory: append(append([]Leaf{}, sharedLeaves...), gains3D...),
		GroupYaw:        append(append([]Leaf{}, sharedLeaves...), LeafKp, LeafKi, LeafKd),
	}

	byName = buildIndex()
)

func buildIndex() map[string]Key {
	idx := make(map[string]Key)
	for g, leaves := range groupLeaves {
		for _, l := range leaves {
			k := Key{Group: g, Leaf: l}
			idx[k.Name()] = k
		}
	}
	return idx
}

// Key identifies one tunable.
type Key struct {
	Group Group
	Leaf  Leaf
}

// Name is the fully qualified parameter name.
func (k Key) Name() string {
	if tag := k.Group.Tag(); tag != "" {
		return tag + "." + k.Leaf.String()
	}
	return k.Leaf.String()
}

func (k Key) String() string { return k.Name() }

// Parse maps a fully qualified name to its Key. Unknown names report false.
func Parse(name string) (Key, bool) {
	k, ok := byName[strings.TrimSpace(name)]
	return k, ok
}

// Leaves returns the leaves g accepts.
func Leaves(g Group) []Leaf {
	return append([]Leaf(nil), groupLeaves[g]...)
}

// Names returns every fully qualified name in g, sorted.
func Names(g Group) []string {
	leaves := groupLeaves[g]
	names := make([]string, 0, len(leaves))
	for _, l := range leaves {
		names = append(names, Key{Group: g, Leaf: l}.Name())
	}
	sort.Strings(names)
	return names
}
