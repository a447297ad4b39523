// Package export renders run series as terminal plots, image files and
// interactive HTML charts.
package export

import (
	"strconv"

	"github.com/pkg/errors"
)

var ErrNoData = errors.New("export: nothing to plot")

// Line is one named series sampled at the chart's x values.
type Line struct {
	Name string
	Y    []float64
}

// Chart is a set of lines sharing an x axis.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Lines  []Line
}

func (c Chart) validate() error {
	if len(c.X) == 0 || len(c.Lines) == 0 {
		return ErrNoData
	}
	for _, l := range c.Lines {
		if len(l.Y) != len(c.X) {
			return errors.Errorf("export: line %q has %d points, x has %d", l.Name, len(l.Y), len(c.X))
		}
	}
	return nil
}

func formatTick(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
