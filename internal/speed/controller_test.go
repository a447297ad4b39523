package speed_test

import (
	"errors"

	"github.com/golang/geo/r3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/speedctl/internal/msg"
	"github.com/san-kum/speedctl/internal/param"
	"github.com/san-kum/speedctl/internal/speed"
)

var _ = Describe("Controller", func() {
	var c *speed.Controller

	BeforeEach(func() {
		c = newController()
	})

	Describe("readiness gate", func() {
		It("starts with every flag cleared", func() {
			Expect(c.Flags()).To(Equal(speed.Flags{}))
			_, err := c.ComputeOutput(0.1)
			Expect(errors.Is(err, speed.ErrNotReady)).To(BeTrue())
		})

		It("needs state, plugin and position parameters and a reference", func() {
			c.SetMode(mode(msg.Position, msg.YawSpeed), mode(msg.Speed, msg.YawSpeed))

			c.UpdateParameters(paramsFor(param.GroupPlugin))
			c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
			c.UpdateReferencePose(pose(r3.Vector{X: 1}, 0))
			_, err := c.ComputeOutput(0.1)
			Expect(err).To(MatchError(speed.ErrNotReady))

			c.UpdateParameters(paramsFor(param.GroupPosition))
			_, err = c.ComputeOutput(0.1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps parameter groups ready forever once complete", func() {
			ok, err := c.UpdateParameters(allParams())
			Expect(ok).To(BeTrue())
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Flags().YawParamsRead).To(BeTrue())

			c.UpdateParameters(allParams())
			c.UpdateParameter(param.Float("yaw_control.kp", 3))
			c.SetMode(mode(msg.Speed, msg.YawSpeed), mode(msg.Speed, msg.YawSpeed))
			c.Reset()

			f := c.Flags()
			Expect(f.PluginParamsRead).To(BeTrue())
			Expect(f.PositionParamsRead).To(BeTrue())
			Expect(f.VelocityParamsRead).To(BeTrue())
			Expect(f.SpeedInAPlaneParamsRead).To(BeTrue())
			Expect(f.TrajectoryParamsRead).To(BeTrue())
			Expect(f.YawParamsRead).To(BeTrue())
		})

		It("forgets parameter readiness only on Initialize", func() {
			c.UpdateParameters(allParams())
			c.Initialize()
			Expect(c.Flags()).To(Equal(speed.Flags{}))
			Expect(c.Outstanding(param.GroupYaw)).To(HaveLen(6))
		})

		It("becomes ready regardless of delivery order", func() {
			ps := paramsFor(param.GroupYaw)
			for i := len(ps) - 1; i >= 0; i-- {
				Expect(c.Flags().YawParamsRead).To(BeFalse())
				c.UpdateParameter(ps[i])
			}
			Expect(c.Flags().YawParamsRead).To(BeTrue())
		})
	})

	Describe("mode switching", func() {
		prime := func() {
			c.UpdateState(pose(r3.Vector{X: 1}, 0), twist(r3.Vector{}, 0))
			c.UpdateReferencePose(pose(r3.Vector{X: 2}, 0))
		}

		BeforeEach(func() {
			c.SetMode(mode(msg.Position, msg.YawAngle), mode(msg.Speed, msg.YawSpeed))
			prime()
			Expect(c.Flags().StateReceived).To(BeTrue())
			Expect(c.Flags().ReferenceReceived).To(BeTrue())
		})

		for _, m := range []msg.ControlMode{msg.Position, msg.Speed, msg.SpeedInAPlane, msg.Trajectory} {
			m := m
			It("clears state and reference when switching to "+m.String(), func() {
				c.SetMode(mode(m, msg.YawSpeed), mode(msg.Speed, msg.YawSpeed))
				Expect(c.Flags().StateReceived).To(BeFalse())
				Expect(c.Flags().ReferenceReceived).To(BeFalse())
			})
		}

		It("keeps state and reference when switching to HOVER", func() {
			c.SetMode(msg.Mode{Control: msg.Hover, Yaw: msg.YawSpeed, Frame: msg.BodyFLUFrame}, mode(msg.Speed, msg.YawSpeed))
			Expect(c.Flags().StateReceived).To(BeTrue())
			Expect(c.Flags().ReferenceReceived).To(BeTrue())

			in, _ := c.Mode()
			Expect(in.Yaw).To(Equal(msg.YawAngle))
			Expect(in.Frame).To(Equal(msg.LocalENUFrame))
		})

		It("re-seats the reference on the current state", func() {
			c.SetMode(msg.Mode{Control: msg.Hover}, mode(msg.Speed, msg.YawSpeed))
			Expect(c.Reference().Position).To(Equal(r3.Vector{X: 1}))
			Expect(c.Reference().Velocity).To(Equal(r3.Vector{}))
		})

		It("always reports success", func() {
			Expect(c.SetMode(mode(msg.ControlMode(42), msg.YawSpeed), msg.Mode{})).To(BeTrue())
		})
	})

	Describe("frames", func() {
		It("uses the world frame everywhere in POSITION", func() {
			c.SetMode(mode(msg.Position, msg.YawAngle), mode(msg.Position, msg.YawAngle))
			Expect(c.DesiredPoseFrame()).To(Equal("odom"))
			Expect(c.DesiredTwistFrame()).To(Equal("odom"))
			Expect(c.OutputTwistFrame()).To(Equal("odom"))
		})

		It("namespaces frames", func() {
			c = newController(speed.WithNamespace("drone0"))
			c.SetMode(mode(msg.Trajectory, msg.YawAngle), mode(msg.Speed, msg.YawSpeed))
			Expect(c.Frames()).To(Equal(speed.Frames{
				InputPose: "drone0/odom", InputTwist: "drone0/odom", OutputTwist: "drone0/odom",
			}))
		})

		It("follows the output frame for twists in SPEED", func() {
			out := msg.Mode{Control: msg.Speed, Yaw: msg.YawSpeed, Frame: msg.BodyFLUFrame}
			c.SetMode(mode(msg.Speed, msg.YawSpeed), out)
			Expect(c.DesiredPoseFrame()).To(Equal("odom"))
			Expect(c.DesiredTwistFrame()).To(Equal("base_link"))
			Expect(c.OutputTwistFrame()).To(Equal("base_link"))

			out.Frame = msg.LocalENUFrame
			c.SetMode(mode(msg.SpeedInAPlane, msg.YawSpeed), out)
			Expect(c.DesiredTwistFrame()).To(Equal("odom"))
			Expect(c.OutputTwistFrame()).To(Equal("odom"))
		})

		It("stamps the command with the output frame", func() {
			c.UpdateParameters(allParams())
			c.SetMode(mode(msg.Speed, msg.YawSpeed), msg.Mode{Control: msg.Speed, Frame: msg.BodyFLUFrame})
			c.UpdateState(pose(r3.Vector{}, 0), twist(r3.Vector{}, 0))
			c.UpdateReferenceTwist(twist(r3.Vector{X: 1}, 0))
			out, err := c.ComputeOutput(0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.FrameID).To(Equal("base_link"))
		})
	})

	Describe("reference ingestion", func() {
		It("takes pose position only in POSITION and SPEED_IN_A_PLANE", func() {
			c.SetMode(mode(msg.Speed, msg.YawAngle), msg.Mode{})
			c.UpdateReferencePose(pose(r3.Vector{X: 5}, 0.5))
			Expect(c.Reference().Position).To(Equal(r3.Vector{}))
			Expect(c.Reference().Yaw.X).To(BeNumerically("~", 0.5, 1e-9))
			Expect(c.Flags().ReferenceReceived).To(BeFalse())

			c.SetMode(mode(msg.SpeedInAPlane, msg.YawSpeed), msg.Mode{})
			c.UpdateReferencePose(pose(r3.Vector{Z: 3}, 0.5))
			Expect(c.Reference().Position).To(Equal(r3.Vector{Z: 3}))
			Expect(c.Reference().Yaw.X).To(Equal(0.0))
			Expect(c.Flags().ReferenceReceived).To(BeTrue())
		})

		It("ignores poses in TRAJECTORY", func() {
			c.SetMode(mode(msg.Trajectory, msg.YawAngle), msg.Mode{})
			c.UpdateReferencePose(pose(r3.Vector{X: 5}, 1))
			Expect(c.Reference()).To(Equal(speed.UAVState{}))
			Expect(c.Flags().ReferenceReceived).To(BeFalse())
		})

		It("treats twists in POSITION as speed limits", func() {
			f := &fakes{}
			c = newController(speed.WithRegulators(f.factory()))
			c.SetMode(mode(msg.Position, msg.YawAngle), msg.Mode{})
			c.UpdateReferenceTwist(twist(r3.Vector{X: 1, Y: 2, Z: 0.5}, 0))

			Expect(c.SpeedLimits()).To(Equal(r3.Vector{X: 1, Y: 2, Z: 0.5}))
			Expect(c.Reference().Velocity).To(Equal(r3.Vector{}))
			Expect(c.Flags().ReferenceReceived).To(BeFalse())
			Expect(f.calls).To(ConsistOf(
				"position.saturation=(1, 2, 0.5)",
				"velocity.saturation=(1, 2, 0.5)",
				"trajectory.saturation=(1, 2, 0.5)",
			))
		})

		It("takes velocity and yaw rate in SPEED with YAW_SPEED", func() {
			c.SetMode(mode(msg.Speed, msg.YawSpeed), msg.Mode{})
			c.UpdateReferenceTwist(twist(r3.Vector{X: 1}, 0.3))
			Expect(c.Reference().Velocity).To(Equal(r3.Vector{X: 1}))
			Expect(c.Reference().Yaw.Y).To(Equal(0.3))
			Expect(c.Flags().ReferenceReceived).To(BeTrue())
		})

		It("does not take yaw rate when flying YAW_ANGLE", func() {
			c.SetMode(mode(msg.SpeedInAPlane, msg.YawAngle), msg.Mode{})
			c.UpdateReferenceTwist(twist(r3.Vector{Y: 1}, 0.3))
			Expect(c.Reference().Yaw.Y).To(Equal(0.0))
		})

		It("ignores twists in HOVER and TRAJECTORY", func() {
			for _, m := range []msg.ControlMode{msg.Hover, msg.Trajectory} {
				c = newController()
				c.SetMode(mode(m, msg.YawSpeed), msg.Mode{})
				c.UpdateReferenceTwist(twist(r3.Vector{X: 1}, 1))
				Expect(c.Reference().Velocity).To(Equal(r3.Vector{}))
				Expect(c.Flags().ReferenceReceived).To(BeFalse())
			}
		})

		It("takes full trajectory points only in TRAJECTORY", func() {
			pt := msg.TrajectoryPoint{
				Positions:     []float64{1, 2, 3, 0.4},
				Velocities:    []float64{0.1, 0.2, 0.3, 0.05},
				Accelerations: []float64{0, 0, 0, 0.01},
			}
			c.SetMode(mode(msg.Position, msg.YawAngle), msg.Mode{})
			Expect(c.UpdateReferenceTrajectory(pt)).To(Succeed())
			Expect(c.Flags().ReferenceReceived).To(BeFalse())

			c.SetMode(mode(msg.Trajectory, msg.YawAngle), msg.Mode{})
			Expect(c.UpdateReferenceTrajectory(pt)).To(Succeed())
			Expect(c.Reference()).To(Equal(speed.UAVState{
				Position: r3.Vector{X: 1, Y: 2, Z: 3},
				Velocity: r3.Vector{X: 0.1, Y: 0.2, Z: 0.3},
				Yaw:      r3.Vector{X: 0.4, Y: 0.05, Z: 0.01},
			}))
			Expect(c.Flags().ReferenceReceived).To(BeTrue())
		})

		It("rejects short trajectory points without touching the reference", func() {
			c.SetMode(mode(msg.Trajectory, msg.YawAngle), msg.Mode{})
			err := c.UpdateReferenceTrajectory(msg.TrajectoryPoint{
				Positions:     []float64{1, 2, 3},
				Velocities:    []float64{0, 0, 0, 0},
				Accelerations: []float64{0, 0, 0, 0},
			})
			Expect(err).To(MatchError(speed.ErrMalformedReference))
			Expect(c.Reference()).To(Equal(speed.UAVState{}))
			Expect(c.Flags().ReferenceReceived).To(BeFalse())
		})
	})

	Describe("parameter routing", func() {
		var f *fakes

		BeforeEach(func() {
			f = &fakes{}
			c = newController(speed.WithRegulators(f.factory()))
		})

		It("fans shared speed-in-a-plane leaves out to both regulators", func() {
			c.UpdateParameter(param.Float("speed_in_a_plane_control.alpha", 0.3))
			c.UpdateParameter(param.Bool("speed_in_a_plane_control.reset_integral", true))
			Expect(f.calls).To(Equal([]string{
				"height.alpha=0.3", "plane.alpha=0.3",
				"height.reset_integral=true", "plane.reset_integral=true",
			}))
		})

		It("sends height gains to the altitude regulator and speed gains to the plane regulator", func() {
			c.UpdateParameter(param.Float("speed_in_a_plane_control.height.kd", 0.2))
			c.UpdateParameter(param.Float("speed_in_a_plane_control.speed.ki.y", 0.1))
			Expect(f.calls).To(Equal([]string{"height.kd=0.2", "plane.ki.y=0.1"}))
		})

		It("routes groups to their own regulators", func() {
			c.UpdateParameter(param.Float("position_control.kp.x", 1))
			c.UpdateParameter(param.Float("velocity_control.kd.z", 2))
			c.UpdateParameter(param.Float("trajectory_control.antiwindup_cte", 3))
			c.UpdateParameter(param.Float("yaw_control.ki", 4))
			Expect(f.calls).To(Equal([]string{
				"position.kp.x=1", "velocity.kd.z=2", "trajectory.antiwindup=3", "yaw.ki=4",
			}))
		})

		It("fans proportional limitation out to every regulator", func() {
			c.UpdateParameter(param.Bool("proportional_limitation", true))
			Expect(f.calls).To(HaveLen(6))
			Expect(f.calls).To(ContainElement("trajectory.limit_p=true"))
		})

		It("ignores unknown names", func() {
			ok, err := c.UpdateParameters([]param.Parameter{
				param.Float("speed_control.kp.x", 1),
				param.Float("yaw_control.kp.x", 1),
				param.Float("gimbal_control.kp", 1),
			})
			Expect(ok).To(BeTrue())
			Expect(err).NotTo(HaveOccurred())
			Expect(f.calls).To(BeEmpty())
		})

		It("rejects values of the wrong type and keeps going", func() {
			ok, err := c.UpdateParameters([]param.Parameter{
				param.Float("use_bypass", 1),
				param.Bool("yaw_control.kp", true),
				param.Float("yaw_control.kd", 0.5),
			})
			Expect(ok).To(BeFalse())
			Expect(errors.Is(err, speed.ErrParameterType)).To(BeTrue())
			Expect(f.calls).To(Equal([]string{"yaw.kd=0.5"}))
			Expect(c.Outstanding(param.GroupYaw)).To(ContainElement("yaw_control.kp"))
			Expect(c.Outstanding(param.GroupPlugin)).To(ContainElement("use_bypass"))
		})
	})

	Describe("Reset", func() {
		It("is idempotent and keeps parameter readiness", func() {
			c.UpdateParameters(allParams())
			c.SetMode(mode(msg.Position, msg.YawAngle), msg.Mode{})
			c.UpdateState(pose(r3.Vector{X: 1, Y: 2}, 0.4), twist(r3.Vector{Z: 1}, 0))
			c.UpdateReferencePose(pose(r3.Vector{X: 3}, 1))
			_, err := c.ComputeOutput(0.1)
			Expect(err).NotTo(HaveOccurred())

			c.Reset()
			once := []any{c.State(), c.Reference(), c.Command(), c.Flags()}
			c.Reset()
			twice := []any{c.State(), c.Reference(), c.Command(), c.Flags()}

			Expect(twice).To(Equal(once))
			Expect(c.State()).To(Equal(speed.UAVState{}))
			Expect(c.Reference()).To(Equal(speed.UAVState{}))
			Expect(c.Command()).To(Equal(speed.Command{}))
			Expect(c.Flags().PositionParamsRead).To(BeTrue())
		})
	})
})
