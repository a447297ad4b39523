package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/speedctl/internal/sim"
)

// ControlEffort is the mean magnitude of the published velocity command.
type ControlEffort struct {
	name  string
	norms []float64
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s sim.Sample) {
	c.norms = append(c.norms, s.Command.Linear.Norm())
}

func (c *ControlEffort) Value() float64 {
	if len(c.norms) == 0 {
		return 0
	}
	return stat.Mean(c.norms, nil)
}

func (c *ControlEffort) Reset() {
	c.norms = c.norms[:0]
}
