// Package render draws diagnostic images: eigenvalue spectra and feature
// heat-maps.
//
// Rendering is fire-and-forget. Failures are logged by the renderer and
// never reach the analysis code.
package render

import "context"

// Renderer draws diagnostics. name is the blob name of the image.
type Renderer interface {
	// PlotSpectrum draws values as a scatter plot; markers are the 1-based
	// positions to highlight (the eigengap candidates).
	PlotSpectrum(ctx context.Context, name string, values []float64, markers []int, title string)
	// PlotHeatmap draws vector reshaped to a square grid.
	PlotHeatmap(ctx context.Context, name string, vector []float64, title string)
}

// Noop discards all renderings.
type Noop struct{}

func (Noop) PlotSpectrum(context.Context, string, []float64, []int, string) {}
func (Noop) PlotHeatmap(context.Context, string, []float64, string)         {}
