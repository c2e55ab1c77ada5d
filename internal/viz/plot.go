package viz

import "github.com/guptarohit/asciigraph"

// Plot renders a static chart of a recorded series for terminal output.
func Plot(series []float64, caption string) string {
	return asciigraph.Plot(series,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption(caption))
}
