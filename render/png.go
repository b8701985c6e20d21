package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"

	"github.com/hupe1980/lja/blobstore"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNotSquare is returned when a heat-map vector has no integer square side.
var ErrNotSquare = errors.New("render: vector length is not a perfect square")

// DefaultSide is the heat-map side length of the reference inputs (28x28 images).
const DefaultSide = 28

// Default image sizes.
const (
	HeatmapSize    = 10 * vg.Centimeter
	SpectrumWidth  = 16 * vg.Centimeter
	SpectrumHeight = 8 * vg.Centimeter
)

var (
	pointColor  = color.RGBA{R: 40, G: 80, B: 200, A: 255}
	markerColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
)

// PNG renders plots with gonum/plot and stores them as PNG files on a
// blob store.
type PNG struct {
	bs     blobstore.BlobStore
	logger *slog.Logger
	side   int

	heatmapSize          vg.Length
	spectrumW, spectrumH vg.Length
}

// PNGOption configures a PNG renderer.
type PNGOption func(*PNG)

// WithSide sets the expected heat-map side length. 0 accepts any perfect square.
func WithSide(side int) PNGOption {
	return func(p *PNG) { p.side = side }
}

// WithHeatmapSize sets the edge length of heat-map images.
func WithHeatmapSize(size vg.Length) PNGOption {
	return func(p *PNG) {
		if size > 0 {
			p.heatmapSize = size
		}
	}
}

// WithSpectrumSize sets the size of spectrum images.
func WithSpectrumSize(width, height vg.Length) PNGOption {
	return func(p *PNG) {
		if width > 0 && height > 0 {
			p.spectrumW, p.spectrumH = width, height
		}
	}
}

// WithLogger sets the logger used to report rendering failures.
func WithLogger(l *slog.Logger) PNGOption {
	return func(p *PNG) { p.logger = l }
}

// NewPNG creates a PNG renderer writing to bs.
func NewPNG(bs blobstore.BlobStore, opts ...PNGOption) *PNG {
	p := &PNG{
		bs:          bs,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		side:        DefaultSide,
		heatmapSize: HeatmapSize,
		spectrumW:   SpectrumWidth,
		spectrumH:   SpectrumHeight,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// PlotHeatmap implements Renderer.
func (p *PNG) PlotHeatmap(ctx context.Context, name string, vector []float64, title string) {
	plt, err := p.heatmap(vector, title)
	if err == nil {
		err = p.write(ctx, name, plt, p.heatmapSize, p.heatmapSize)
	}
	p.report("heatmap", name, title, err)
}

// PlotSpectrum implements Renderer.
func (p *PNG) PlotSpectrum(ctx context.Context, name string, values []float64, markers []int, title string) {
	plt, err := spectrum(values, markers, title)
	if err == nil {
		err = p.write(ctx, name, plt, p.spectrumW, p.spectrumH)
	}
	p.report("spectrum", name, title, err)
}

func (p *PNG) report(kind, name, title string, err error) {
	if err != nil {
		p.logger.Warn("render failed", "kind", kind, "name", name, "title", title, "error", err)
		return
	}
	p.logger.Debug("rendered", "kind", kind, "name", name, "title", title)
}

func (p *PNG) write(ctx context.Context, name string, plt *plot.Plot, w, h vg.Length) error {
	wt, err := plt.WriterTo(w, h, "png")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return err
	}
	return p.bs.Put(ctx, name, buf.Bytes())
}

// Side returns the side length of a square vector.
func Side(n int) (int, error) {
	side := int(math.Round(math.Sqrt(float64(n))))
	if n == 0 || side*side != n {
		return 0, fmt.Errorf("%w: %d", ErrNotSquare, n)
	}
	return side, nil
}

// squareGrid lays a vector out row-major with its first row at the top.
type squareGrid struct {
	side   int
	values []float64
}

func (g squareGrid) Dims() (c, r int)   { return g.side, g.side }
func (g squareGrid) Z(c, r int) float64 { return g.values[(g.side-1-r)*g.side+c] }
func (g squareGrid) X(c int) float64    { return float64(c) }
func (g squareGrid) Y(r int) float64    { return float64(r) }

// grayPalette runs from black to white.
type grayPalette int

func (n grayPalette) Colors() []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		out[i] = color.Gray{Y: uint8(math.Round(255 * float64(i) / float64(n-1)))}
	}
	return out
}

func (p *PNG) heatmap(vector []float64, title string) (*plot.Plot, error) {
	side, err := Side(len(vector))
	if err != nil {
		return nil, err
	}
	if p.side > 0 && side != p.side {
		return nil, fmt.Errorf("%w: side %d, want %d", ErrNotSquare, side, p.side)
	}

	hm := plotter.NewHeatMap(squareGrid{side: side, values: vector}, grayPalette(256))
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}

	plt := plot.New()
	plt.Title.Text = title
	plt.HideAxes()
	plt.Add(hm)
	return plt, nil
}

// spectrum plots values against their 1-based position and rings the
// markers.
func spectrum(values []float64, markers []int, title string) (*plot.Plot, error) {
	plt := plot.New()
	plt.Title.Text = title
	plt.X.Label.Text = "index"
	plt.Y.Label.Text = "eigenvalue"

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i + 1), Y: v}
	}
	var marked plotter.XYs
	for _, m := range markers {
		if m >= 1 && m <= len(values) {
			marked = append(marked, pts[m-1])
		}
	}

	if len(pts) > 0 {
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle = draw.GlyphStyle{Color: pointColor, Radius: vg.Points(2), Shape: draw.CircleGlyph{}}
		plt.Add(s)
	}
	if len(marked) > 0 {
		s, err := plotter.NewScatter(marked)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle = draw.GlyphStyle{Color: markerColor, Radius: vg.Points(5), Shape: draw.RingGlyph{}}
		plt.Add(s)
		plt.Legend.Add("candidates", s)
	}
	return plt, nil
}
