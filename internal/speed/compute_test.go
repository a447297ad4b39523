package speed_test

import (
	"math"

	"github.com/golang/geo/r3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/speedctl/internal/msg"
	"github.com/san-kum/speedctl/internal/param"
	"github.com/san-kum/speedctl/internal/speed"
)

var _ = Describe("ComputeOutput", func() {
	var c *speed.Controller

	BeforeEach(func() {
		c = newController()
	})

	It("gives HOVER and POSITION the same translational cascade", func() {
		gains := []param.Parameter{
			param.Float("position_control.kp.x", 1.5),
			param.Float("position_control.kp.y", 0.7),
			param.Float("position_control.ki.z", 0.2),
			param.Float("position_control.kd.x", 0.1),
		}
		target := r3.Vector{X: 2, Y: -1, Z: 3}
		here := r3.Vector{X: 0.5, Y: 0.5, Z: 1}

		pos := newController()
		pos.UpdateParameters(allParams())
		pos.UpdateParameters(gains)
		pos.SetMode(mode(msg.Position, msg.YawAngle), msg.Mode{})
		pos.UpdateState(pose(here, 0), twist(r3.Vector{}, 0))
		pos.UpdateReferencePose(pose(target, 0))
		a, err := pos.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())

		hov := newController()
		hov.UpdateParameters(allParams())
		hov.UpdateParameters(gains)
		hov.SetMode(mode(msg.Position, msg.YawAngle), msg.Mode{})
		hov.UpdateState(pose(target, 0), twist(r3.Vector{}, 0))
		hov.UpdateReferencePose(pose(target, 0))
		hov.SetMode(msg.Mode{Control: msg.Hover}, msg.Mode{})
		hov.UpdateState(pose(here, 0), twist(r3.Vector{}, 0))
		b, err := hov.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())

		Expect(b.Linear).To(Equal(a.Linear))
		Expect(a.Linear.X).To(BeNumerically(">", 0))
	})

	It("degrades SPEED to best effort when velocity gains are missing", func() {
		c.UpdateParameters(paramsFor(param.GroupPlugin, param.GroupPosition))
		c.SetMode(mode(msg.Speed, msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferenceTwist(twist(r3.Vector{X: 1}, 0))

		out, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Linear).To(Equal(r3.Vector{}))
		Expect(c.Flags().VelocityParamsRead).To(BeFalse())
	})

	It("passes the velocity reference through when bypassed", func() {
		c.UpdateParameters(allParams())
		c.UpdateParameter(param.Bool("use_bypass", true))
		c.SetMode(mode(msg.Speed, msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{X: 5}, 0))
		c.UpdateReferenceTwist(twist(r3.Vector{X: 1, Y: -2, Z: 0.5}, 0.25))

		out, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Linear).To(Equal(r3.Vector{X: 1, Y: -2, Z: 0.5}))
		Expect(out.Angular).To(Equal(r3.Vector{Z: 0.25}))
	})

	It("composes SPEED_IN_A_PLANE from the plane and altitude regulators", func() {
		f := &fakes{}
		c = newController(speed.WithRegulators(f.factory()))
		c.UpdateParameters(allParams())
		c.SetMode(mode(msg.SpeedInAPlane, msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferenceTwist(twist(r3.Vector{X: 1}, 0))

		out, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Linear).To(Equal(r3.Vector{X: 1, Y: 2, Z: 7}))
	})

	It("keeps bypassed plane speed but still regulates altitude", func() {
		c.UpdateParameters(allParams())
		c.UpdateParameters([]param.Parameter{
			param.Bool("use_bypass", true),
			param.Float("speed_in_a_plane_control.height.kp", 2),
		})
		c.SetMode(mode(msg.SpeedInAPlane, msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{Z: 1}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferencePose(pose(r3.Vector{Z: 1.5}, 0))
		c.UpdateReferenceTwist(twist(r3.Vector{X: 0.5, Y: 0.5, Z: 9}, 0))

		out, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Linear.X).To(Equal(0.5))
		Expect(out.Linear.Y).To(Equal(0.5))
		Expect(out.Linear.Z).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("rejects TRAJECTORY until trajectory gains arrive", func() {
		c.UpdateParameters(paramsFor(param.GroupPlugin, param.GroupPosition, param.GroupVelocity, param.GroupYaw))
		c.SetMode(mode(msg.Trajectory, msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		Expect(c.UpdateReferenceTrajectory(msg.TrajectoryPoint{
			Positions:     []float64{1, 1, 1, 0},
			Velocities:    []float64{0, 0, 0, 0},
			Accelerations: []float64{0, 0, 0, 0},
		})).To(Succeed())

		_, err := c.ComputeOutput(0.1)
		Expect(err).To(MatchError(speed.ErrNotReady))

		c.UpdateParameters(paramsFor(param.GroupTrajectory))
		_, err = c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
	})

	It("feeds trajectory velocity forward", func() {
		c.UpdateParameters(allParams())
		c.SetMode(mode(msg.Trajectory, msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferenceTrajectory(msg.TrajectoryPoint{
			Positions:     []float64{0, 0, 0, 0},
			Velocities:    []float64{1, 0, -1, 0.2},
			Accelerations: []float64{0, 0, 0, 0},
		})

		out, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Linear).To(Equal(r3.Vector{X: 1, Z: -1}))
		Expect(out.Angular.Z).To(Equal(0.2))
	})

	It("takes the short way round for yaw", func() {
		c.UpdateParameters(allParams())
		c.UpdateParameter(param.Float("yaw_control.kp", 1))
		c.SetMode(mode(msg.Position, msg.YawAngle), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, -math.Pi+0.01), twist(r3.Vector{}, 0))
		c.UpdateReferencePose(pose(r3.Vector{}, math.Pi-0.01))

		out, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.Abs(out.Angular.Z)).To(BeNumerically("~", 0.02, 1e-6))
	})

	It("rejects YAW_ANGLE until yaw gains arrive without running any regulator", func() {
		f := &fakes{}
		c = newController(speed.WithRegulators(f.factory()))
		c.UpdateParameters(paramsFor(param.GroupPlugin, param.GroupPosition))
		c.SetMode(mode(msg.Position, msg.YawAngle), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferencePose(pose(r3.Vector{X: 1}, 0))

		_, err := c.ComputeOutput(0.1)
		Expect(err).To(MatchError(speed.ErrNotReady))
		Expect(f.computes()).To(BeZero())
		Expect(c.Command()).To(Equal(speed.Command{}))
	})

	It("rejects unknown yaw modes and leaves the last command in place", func() {
		f := &fakes{}
		c = newController(speed.WithRegulators(f.factory()))
		c.UpdateParameters(allParams())
		c.SetMode(mode(msg.Position, msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferencePose(pose(r3.Vector{X: 1}, 0))
		_, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
		last := c.Command()
		computes := f.computes()

		c.SetMode(mode(msg.Position, msg.YawMode(9)), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferencePose(pose(r3.Vector{X: 1}, 0))
		_, err = c.ComputeOutput(0.1)
		Expect(err).To(MatchError(speed.ErrUnknownMode))
		Expect(c.Command()).To(Equal(last))
		Expect(f.computes()).To(Equal(computes))
	})

	It("never produces output for an unknown control mode", func() {
		f := &fakes{}
		c = newController(speed.WithRegulators(f.factory()))
		c.UpdateParameters(allParams())
		c.SetMode(mode(msg.Speed, msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferenceTwist(twist(r3.Vector{X: 1}, 0))
		_, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
		last := c.Command()
		computes := f.computes()

		c.SetMode(mode(msg.ControlMode(42), msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferencePose(pose(r3.Vector{X: 1}, 0))
		c.UpdateReferenceTwist(twist(r3.Vector{X: 1}, 0))
		_ = c.UpdateReferenceTrajectory(msg.TrajectoryPoint{
			Positions:     []float64{1, 1, 1, 0},
			Velocities:    []float64{0, 0, 0, 0},
			Accelerations: []float64{0, 0, 0, 0},
		})

		_, err = c.ComputeOutput(0.1)
		Expect(err).To(MatchError(speed.ErrUnknownMode))
		Expect(err).NotTo(MatchError(speed.ErrNotReady))
		Expect(c.Command()).To(Equal(last))
		Expect(f.computes()).To(Equal(computes))
	})

	It("reports an unknown mode before readiness", func() {
		c.SetMode(mode(msg.Position, msg.YawMode(9)), msg.Mode{})

		_, err := c.ComputeOutput(0.1)
		Expect(err).To(MatchError(speed.ErrUnknownMode))
	})

	It("recomputes the whole command every cycle", func() {
		c.UpdateParameters(allParams())
		c.UpdateParameter(param.Bool("use_bypass", true))
		c.SetMode(mode(msg.Speed, msg.YawSpeed), msg.Mode{})
		c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
		c.UpdateReferenceTwist(twist(r3.Vector{X: 1, Y: 1}, 0.5))
		_, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())

		c.UpdateReferenceTwist(twist(r3.Vector{Z: 2}, 0))
		out, err := c.ComputeOutput(0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Linear).To(Equal(r3.Vector{Z: 2}))
		Expect(c.Command()).To(Equal(speed.Command{Velocity: r3.Vector{Z: 2}}))
	})
})
