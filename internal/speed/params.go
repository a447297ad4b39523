package speed

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/san-kum/speedctl/internal/param"
	"go.uber.org/multierr"
)

// UpdateParameter routes one (name, value) pair to its regulator. Unknown
// names are ignored. A value of the wrong type is rejected and does not
// count towards readiness.
func (c *Controller) UpdateParameter(p param.Parameter) error {
	key, ok := param.Parse(p.Name)
	if !ok {
		c.log.Debug("ignoring unknown parameter", slog.String("name", p.Name))
		return nil
	}
	if err := c.apply(key, p.Value); err != nil {
		return errors.Wrapf(ErrParameterType, "%s: %v", key, err)
	}
	if !c.params.Ready(key.Group) && c.params.Observe(key.Group, key.Name()) {
		c.log.Info("parameter group ready", slog.String("group", key.Group.String()))
	}
	return nil
}

// UpdateParameters applies every parameter and reports whether all succeeded.
// Failures do not stop the remaining parameters from being applied.
func (c *Controller) UpdateParameters(ps []param.Parameter) (bool, error) {
	var err error
	for _, p := range ps {
		err = multierr.Append(err, c.UpdateParameter(p))
	}
	return err == nil, err
}

func (c *Controller) apply(key param.Key, v param.Value) error {
	switch key.Group {
	case param.GroupPlugin:
		return c.applyPlugin(key.Leaf, v)
	case param.GroupPosition:
		return apply3D(c.reg.position, key.Leaf, v)
	case param.GroupVelocity:
		return apply3D(c.reg.velocity, key.Leaf, v)
	case param.GroupTrajectory:
		return apply3D(c.reg.trajectory, key.Leaf, v)
	case param.GroupYaw:
		return apply1D(c.reg.yaw, key.Leaf, v)
	case param.GroupSpeedInAPlane:
		return applyPlane(c.reg.planeHeight, c.reg.planeSpeed, key.Leaf, v)
	}
	return nil
}

func (c *Controller) applyPlugin(leaf param.Leaf, v param.Value) error {
	b, err := v.Bool()
	if err != nil {
		return err
	}
	switch leaf {
	case param.LeafUseBypass:
		c.useBypass = b
	case param.LeafProportionalLimitation:
		c.proportionalLimitation = b
		for _, r := range c.reg.scalars() {
			r.SetProportionalSaturationFlag(b)
		}
		for _, r := range c.reg.vectors() {
			r.SetProportionalSaturationFlag(b)
		}
	}
	return nil
}

// shared is the part of the regulator surface common to 1D and 3D handles.
type shared interface {
	SetAntiWindup(v float64)
	SetAlpha(v float64)
	SetResetIntegralSaturationFlag(b bool)
}

// applyShared reports false when leaf is not a shared leaf.
func applyShared(leaf param.Leaf, v param.Value, targets ...shared) (bool, error) {
	switch leaf {
	case param.LeafResetIntegral:
		b, err := v.Bool()
		if err != nil {
			return true, err
		}
		for _, t := range targets {
			t.SetResetIntegralSaturationFlag(b)
		}
	case param.LeafAntiWindup:
		f, err := v.Float()
		if err != nil {
			return true, err
		}
		for _, t := range targets {
			t.SetAntiWindup(f)
		}
	case param.LeafAlpha:
		f, err := v.Float()
		if err != nil {
			return true, err
		}
		for _, t := range targets {
			t.SetAlpha(f)
		}
	default:
		return false, nil
	}
	return true, nil
}

func apply1D(r Regulator, leaf param.Leaf, v param.Value) error {
	if handled, err := applyShared(leaf, v, r); handled {
		return err
	}
	term, _, ok := leaf.Gain()
	if !ok {
		return nil
	}
	f, err := v.Float()
	if err != nil {
		return err
	}
	setGain(r, term, f)
	return nil
}

func apply3D(r Regulator3D, leaf param.Leaf, v param.Value) error {
	if handled, err := applyShared(leaf, v, r); handled {
		return err
	}
	term, axis, ok := leaf.Gain()
	if !ok {
		return nil
	}
	f, err := v.Float()
	if err != nil {
		return err
	}
	setGain3D(r, term, axis, f)
	return nil
}

// applyPlane fans shared leaves out to both regulators; height gains go to
// the altitude regulator, speed gains to the horizontal one.
func applyPlane(height Regulator, speed Regulator3D, leaf param.Leaf, v param.Value) error {
	if handled, err := applyShared(leaf, v, height, speed); handled {
		return err
	}
	term, axis, ok := leaf.Gain()
	if !ok {
		return nil
	}
	f, err := v.Float()
	if err != nil {
		return err
	}
	if axis == param.AxisNone {
		setGain(height, term, f)
	} else {
		setGain3D(speed, term, axis, f)
	}
	return nil
}
