// Package optim sweeps controller gains over a grid and keeps the set that
// scores best on a scenario.
package optim

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/san-kum/speedctl/internal/param"
	"github.com/san-kum/speedctl/internal/sim"
)

var ErrNoCandidate = errors.New("optim: no candidate completed")

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis reads "name=v1,v2,..." or "name=start:stop:step".
func ParseAxis(s string) (Axis, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return Axis{}, errors.Errorf("sweep %q: want name=values", s)
	}
	key, ok := param.Parse(name)
	if !ok || key.Leaf.Kind() != param.KindFloat {
		return Axis{}, errors.Errorf("sweep %q: not a float parameter", name)
	}
	ax := Axis{Name: key.Name()}

	if parts := strings.Split(raw, ":"); len(parts) == 3 {
		var bounds [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return Axis{}, errors.Wrapf(err, "sweep %q", name)
			}
			bounds[i] = v
		}
		start, stop, step := bounds[0], bounds[1], bounds[2]
		if step <= 0 || stop < start {
			return Axis{}, errors.Errorf("sweep %q: bad range %s", name, raw)
		}
		n := int(math.Floor((stop-start)/step+1e-9)) + 1
		for i := 0; i < n; i++ {
			ax.Values = append(ax.Values, start+float64(i)*step)
		}
		return ax, nil
	}

	for _, p := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Axis{}, errors.Wrapf(err, "sweep %q", name)
		}
		ax.Values = append(ax.Values, v)
	}
	return ax, nil
}

// BuildFunc returns a runner whose controller carries the given overrides.
type BuildFunc func(overrides []param.Parameter) (*sim.Runner, error)

type Best struct {
	Params []param.Parameter
	Value  float64
	Tried  int
	Failed int
}

type GridSearch struct {
	axes []Axis
}

func NewGridSearch(axes ...Axis) *GridSearch {
	return &GridSearch{axes: axes}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.axes) == 0 {
		return 0
	}
	n := 1
	for _, ax := range g.axes {
		n *= len(ax.Values)
	}
	return n
}

// Search flies sc once per grid point and returns the point with the lowest
// metric. Runs that fail or diverge are skipped.
func (g *GridSearch) Search(ctx context.Context, sc sim.Scenario, cfg sim.Config, build BuildFunc, metric string) (*Best, error) {
	if g.Size() == 0 {
		return nil, errors.New("optim: empty grid")
	}
	best := &Best{Value: math.Inf(1)}
	var errs error
	g.searchRecursive(ctx, 0, nil, func(point []param.Parameter) {
		best.Tried++
		v, err := evaluate(ctx, sc, cfg, build, point, metric)
		if err != nil {
			best.Failed++
			errs = multierr.Append(errs, err)
			return
		}
		if v < best.Value {
			best.Value = v
			best.Params = point
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if best.Params == nil {
		return nil, multierr.Append(ErrNoCandidate, errs)
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current []param.Parameter, visit func([]param.Parameter)) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.axes) {
		visit(current)
		return
	}
	ax := g.axes[depth]
	for _, v := range ax.Values {
		next := make([]param.Parameter, len(current), len(current)+1)
		copy(next, current)
		next = append(next, param.Float(ax.Name, v))
		g.searchRecursive(ctx, depth+1, next, visit)
	}
}

func evaluate(ctx context.Context, sc sim.Scenario, cfg sim.Config, build BuildFunc, point []param.Parameter, metric string) (float64, error) {
	r, err := build(point)
	if err != nil {
		return 0, err
	}
	res, err := r.Run(ctx, sc, cfg)
	if err != nil {
		return 0, err
	}
	v, ok := res.Metrics[metric]
	if !ok {
		return 0, errors.Errorf("optim: run has no metric %q", metric)
	}
	if math.IsNaN(v) || v < 0 {
		return 0, errors.Errorf("optim: %s unusable (%g)", metric, v)
	}
	return v, nil
}
