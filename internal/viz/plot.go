package viz

import (
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pidctl/internal/sim"
)

const (
	plotHeight = 12
	plotWidth  = 80
)

// Plot draws a single series.
func Plot(series []float64, caption string) string {
	if len(series) == 0 {
		return ""
	}
	return asciigraph.Plot(series,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
}

// PlotTracking draws state index of a result in green with the setpoint in
// yellow behind it.
func PlotTracking(result *sim.Result, index int, caption string) string {
	measured := result.Series(index)
	if len(measured) == 0 {
		return ""
	}
	if len(result.Setpoints) != len(measured) {
		return Plot(measured, caption)
	}
	return asciigraph.PlotMany([][]float64{result.Setpoints, measured},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
	)
}

// PlotControl draws the first control channel.
func PlotControl(result *sim.Result, caption string) string {
	u := make([]float64, 0, len(result.Controls))
	for _, c := range result.Controls {
		if len(c) > 0 {
			u = append(u, c[0])
		}
	}
	return Plot(u, caption)
}
