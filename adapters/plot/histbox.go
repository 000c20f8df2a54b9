// Package plot renders the combined box plot and histogram figure for a
// numeric column: a horizontal box plot on top and a density-normalized
// histogram with a KDE curve below, sharing one x range.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	mstats "github.com/aclements/go-moremath/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"edakit/domain/dataset"
	"edakit/internal/config"
	"edakit/internal/errors"
	"edakit/internal/profiling"
)

// boxShare is the fraction of the figure height given to the box plot
const boxShare = 0.15

// kdePoints is the number of points the density curve is sampled at
const kdePoints = 200

var (
	meanColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	medianColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	modeColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	kdeColor    = color.RGBA{R: 64, G: 64, B: 64, A: 255}
	histColor   = color.RGBA{R: 158, G: 202, B: 225, A: 255}
)

// Options control the figure layout
type Options struct {
	// Bins is the histogram bin count; zero selects Sturges' rule.
	Bins   int
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions uses the configured default figure size
func DefaultOptions() Options {
	return Options{
		Width:  vg.Length(config.DefaultPlotWidthCm) * vg.Centimeter,
		Height: vg.Length(config.DefaultPlotHeightCm) * vg.Centimeter,
	}
}

// OptionsFromConfig builds Options from loaded plot configuration
func OptionsFromConfig(cfg config.PlotConfig) Options {
	return Options{
		Width:  vg.Length(cfg.WidthCm) * vg.Centimeter,
		Height: vg.Length(cfg.HeightCm) * vg.Centimeter,
	}
}

// Figure is the pair of plots making up the histbox figure
type Figure struct {
	Column  string
	Box     *plot.Plot
	Hist    *plot.Plot
	Summary profiling.Summary
	Bins    int

	width, height vg.Length
}

// SturgesBins returns ceil(log2 n) + 1, at least 1
func SturgesBins(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// HistBox builds the figure for one numeric column of tbl. Missing values
// are excluded.
func HistBox(tbl *dataset.Table, column string, opts Options) (*Figure, error) {
	col, err := tbl.Column(column)
	if err != nil {
		return nil, err
	}
	if col.Kind() != dataset.Numeric {
		return nil, errors.InvalidInput(fmt.Sprintf("column %q is not numeric", column))
	}
	values := col.Floats()

	summary, err := profiling.NewDistributionAnalyzer().Describe(values)
	if err != nil {
		return nil, err
	}
	data := make(plotter.Values, 0, summary.Count)
	for _, v := range values {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}

	bins := opts.Bins
	if bins <= 0 {
		bins = SturgesBins(len(data))
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}

	box, err := boxPlot(data, column)
	if err != nil {
		return nil, err
	}
	hist, err := histogram(data, column, bins, summary)
	if err != nil {
		return nil, err
	}

	// the box plot shares the histogram's x range
	box.X.Min, box.X.Max = hist.X.Min, hist.X.Max

	return &Figure{
		Column:  column,
		Box:     box,
		Hist:    hist,
		Summary: summary,
		Bins:    bins,
		width:   opts.Width,
		height:  opts.Height,
	}, nil
}

func boxPlot(data plotter.Values, column string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = column
	p.HideY()

	b, err := plotter.NewBoxPlot(vg.Points(20), 0, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build box plot")
	}
	b.FillColor = histColor
	b.Horizontal = true
	p.Add(b)
	return p, nil
}

func histogram(data plotter.Values, column string, bins int, s profiling.Summary) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = column
	p.Y.Label.Text = "density"

	h, err := plotter.NewHist(data, bins)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build histogram")
	}
	h.Normalize(1)
	h.FillColor = histColor
	p.Add(h)

	if curve := kdeCurve(data, p.X.Min, p.X.Max); curve != nil {
		line, err := plotter.NewLine(curve)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build density curve")
		}
		line.Color = kdeColor
		line.Width = vg.Points(1.5)
		p.Add(line)
	}

	top := p.Y.Max
	markers := []struct {
		name  string
		x     float64
		color color.Color
	}{
		{"mean", s.Mean, meanColor},
		{"median", s.Median, medianColor},
		{"mode", s.Mode(), modeColor},
	}
	for _, m := range markers {
		if math.IsNaN(m.x) {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{{X: m.x, Y: 0}, {X: m.x, Y: top}})
		if err != nil {
			return nil, errors.Wrap(err, "failed to build "+m.name+" marker")
		}
		line.Color = m.color
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
		p.Legend.Add(m.name, line)
	}
	p.Legend.Top = true
	return p, nil
}

// kdeCurve samples a Gaussian KDE with Scott's bandwidth over [lo, hi]. It
// returns nil when the data has no spread.
func kdeCurve(data []float64, lo, hi float64) plotter.XYs {
	sample := mstats.Sample{Xs: data}
	bw := mstats.BandwidthScott(sample)
	if len(data) < 2 || !(bw > 0) || !(hi > lo) {
		return nil
	}
	kde := &mstats.KDE{Sample: sample, Kernel: mstats.GaussianKernel, Bandwidth: bw}

	pts := make(plotter.XYs, kdePoints)
	step := (hi - lo) / float64(kdePoints-1)
	for i := range pts {
		x := lo + float64(i)*step
		pts[i] = plotter.XY{X: x, Y: kde.PDF(x)}
	}
	return pts
}

// Draw renders the figure onto dc, box plot above the histogram
func (f *Figure) Draw(dc draw.Canvas) {
	h := dc.Max.Y - dc.Min.Y
	top := draw.Crop(dc, 0, 0, h*(1-boxShare), 0)
	bottom := draw.Crop(dc, 0, 0, 0, -h*boxShare)
	f.Box.Draw(top)
	f.Hist.Draw(bottom)
}

// WriteTo renders the figure in the given format (png, jpg, tiff, svg, pdf)
func (f *Figure) WriteTo(w io.Writer, format string) (int64, error) {
	c, err := newCanvas(format, f.width, f.height)
	if err != nil {
		return 0, err
	}
	f.Draw(draw.New(c))
	n, err := c.WriteTo(w)
	if err != nil {
		return n, errors.IOError("failed to write figure", err)
	}
	return n, nil
}

// Save writes the figure to path, choosing the format from its extension
func (f *Figure) Save(path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if _, err := newCanvas(format, 1, 1); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.IOError("failed to create "+path, err)
	}
	if _, err := f.WriteTo(file, format); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.IOError("failed to close "+path, err)
	}
	return nil
}

type canvasWriter interface {
	vg.CanvasSizer
	io.WriterTo
}

func newCanvas(format string, w, h vg.Length) (canvasWriter, error) {
	switch format {
	case "png":
		return vgimg.PngCanvas{Canvas: vgimg.New(w, h)}, nil
	case "jpg", "jpeg":
		return vgimg.JpegCanvas{Canvas: vgimg.New(w, h)}, nil
	case "tif", "tiff":
		return vgimg.TiffCanvas{Canvas: vgimg.New(w, h)}, nil
	case "svg":
		return vgsvg.New(w, h), nil
	case "pdf":
		return vgpdf.New(w, h), nil
	default:
		return nil, errors.InvalidArgument(fmt.Sprintf("unsupported figure format %q", format))
	}
}
