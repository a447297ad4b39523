package metrics

import (
	"github.com/san-kum/speedctl/internal/sim"
)

// Rejection is the fraction of cycles the controller refused to command.
type Rejection struct {
	name     string
	rejected int
	samples  int
}

func NewRejection() *Rejection {
	return &Rejection{name: "rejection_ratio"}
}

func (r *Rejection) Name() string { return r.name }

func (r *Rejection) Observe(s sim.Sample) {
	r.samples++
	if !s.Accepted {
		r.rejected++
	}
}

func (r *Rejection) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return float64(r.rejected) / float64(r.samples)
}

func (r *Rejection) Reset() {
	r.rejected = 0
	r.samples = 0
}

// Settling is the time after which the position error stayed within
// threshold until the end of the run. A run that never settles reports -1.
type Settling struct {
	name      string
	threshold float64
	since     float64
	inside    bool
}

func NewSettling(threshold float64) *Settling {
	return &Settling{
		name:      "settling_time",
		threshold: threshold,
	}
}

func (s *Settling) Name() string { return s.name }

func (s *Settling) Observe(x sim.Sample) {
	within := x.Position.Sub(x.Target.Position).Norm() <= s.threshold
	switch {
	case within && !s.inside:
		s.inside = true
		s.since = x.T
	case !within:
		s.inside = false
	}
}

func (s *Settling) Value() float64 {
	if !s.inside {
		return -1
	}
	return s.since
}

func (s *Settling) Reset() {
	s.inside = false
	s.since = 0
}
