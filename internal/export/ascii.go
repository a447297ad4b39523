package export

import (
	"github.com/guptarohit/asciigraph"
)

var asciiColors = []asciigraph.AnsiColor{
	asciigraph.Green, asciigraph.Cyan, asciigraph.Yellow, asciigraph.Magenta, asciigraph.Red,
}

// ASCII renders c for a terminal of the given width and height.
func ASCII(c Chart, width, height int) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	data := make([][]float64, len(c.Lines))
	colors := make([]asciigraph.AnsiColor, len(c.Lines))
	for i, l := range c.Lines {
		data[i] = l.Y
		colors[i] = asciiColors[i%len(asciiColors)]
	}
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(c.Title),
		asciigraph.SeriesColors(colors...),
	}
	if len(c.Lines) > 1 {
		names := make([]string, len(c.Lines))
		for i, l := range c.Lines {
			names[i] = l.Name
		}
		opts = append(opts, asciigraph.SeriesLegends(names...))
	}
	return asciigraph.PlotMany(data, opts...), nil
}
