package plant

type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Step(sys System, x State, u Control, t, dt float64) State {
	dx := sys.Derive(x, u, t)
	out := make(State, len(x))
	for i := range x {
		out[i] = x[i] + dt*dx[i]
	}
	return out
}

type RK4 struct {
	k1, k2, k3, k4 State
	scratch        State
}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(State, n)
		r.k2 = make(State, n)
		r.k3 = make(State, n)
		r.k4 = make(State, n)
		r.scratch = make(State, n)
	}
}

func (r *RK4) Step(sys System, x State, u Control, t, dt float64) State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, sys.Derive(x, u, t))
	r.stage(x, r.k1, dt/2)
	copy(r.k2, sys.Derive(r.scratch, u, t+dt/2))
	r.stage(x, r.k2, dt/2)
	copy(r.k3, sys.Derive(r.scratch, u, t+dt/2))
	r.stage(x, r.k3, dt)
	copy(r.k4, sys.Derive(r.scratch, u, t+dt))

	out := make(State, n)
	dt6 := dt / 6
	for i := range out {
		out[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return out
}

func (r *RK4) stage(x, k State, h float64) {
	for i := range x {
		r.scratch[i] = x[i] + h*k[i]
	}
}
