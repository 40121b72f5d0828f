package facemood

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default dimensions of the probability chart.
const (
	ChartWidth  = 640
	ChartHeight = 400
)

const (
	chartMinWidth  = 200
	chartMinHeight = 150
	// chartAxisSpace approximates the width taken by the y axis and the paddings.
	chartAxisSpace = 100
	chartBarRatio  = 0.6
)

// ErrChartSize is returned when the requested chart is too small to hold the axes.
var ErrChartSize = errors.New("chart is too small")

// barColors are taken from the qualitative "Paired" palette, sampled evenly for seven bars.
var barColors = [NumEmotions]color.NRGBA{
	{R: 0xa6, G: 0xce, B: 0xe3, A: 0xff},
	{R: 0xb2, G: 0xdf, B: 0x8a, A: 0xff},
	{R: 0xfb, G: 0x9a, B: 0x99, A: 0xff},
	{R: 0xfd, G: 0xbf, B: 0x6f, A: 0xff},
	{R: 0xca, G: 0xb2, B: 0xd6, A: 0xff},
	{R: 0xff, G: 0xff, B: 0x99, A: 0xff},
	{R: 0xb1, G: 0x59, B: 0x28, A: 0xff},
}

var (
	chartBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	chartForeground = color.NRGBA{R: 0x26, G: 0x26, B: 0x26, A: 0xff}
	chartGrid       = color.NRGBA{R: 0xe5, G: 0xe5, B: 0xe5, A: 0xff}
)

// newChart builds the bar plot of the prediction: one bar per emotion on a fixed
// [0, 1] y range with the probability printed above each bar.
func newChart(p Prediction, width int) (*plot.Plot, error) {
	plt := plot.New()
	plt.BackgroundColor = chartBackground
	plt.Y.Label.Text = "Confidence"
	plt.Y.Label.TextStyle.Color = chartForeground

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	grid.Horizontal.Color = chartGrid
	plt.Add(grid)

	barWidth := vg.Length(width-chartAxisSpace) / NumEmotions * chartBarRatio
	values := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(p)),
		Labels: make([]string, len(p)),
	}
	for i, v := range p {
		bar, err := plotter.NewBarChart(plotter.Values{float64(v)}, barWidth)
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
		bar.XMin = float64(i)
		bar.Color = barColors[i]
		bar.LineStyle.Width = 0
		plt.Add(bar)

		values.XYs[i] = plotter.XY{X: float64(i), Y: float64(v)}
		values.Labels[i] = fmt.Sprintf("%.2f", v)
	}

	labels, err := plotter.NewLabels(values)
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].Color = chartForeground
	}
	labels.Offset = vg.Point{Y: vg.Points(4)}
	plt.Add(labels)

	plt.NominalX(Labels()...)

	ticks := make([]plot.Tick, 0, 6)
	for i := 0; i <= 5; i++ {
		v := float64(i) / 5
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.1f", v)})
	}
	plt.Y.Tick.Marker = plot.ConstantTicks(ticks)
	plt.Y.Min, plt.Y.Max = 0, 1

	return plt, nil
}

// DrawChart renders the prediction as a bar chart with one bar per emotion label.
func DrawChart(p Prediction, width, height int) (*image.NRGBA, error) {
	if width < chartMinWidth || height < chartMinHeight {
		return nil, fmt.Errorf("%w: %dx%d", ErrChartSize, width, height)
	}
	if len(p) != NumEmotions {
		return nil, fmt.Errorf("%w: expected %d scores, got %d", ErrInvalidPrediction, NumEmotions, len(p))
	}

	plt, err := newChart(p, width)
	if err != nil {
		return nil, err
	}

	// At the default resolution one point maps to one pixel.
	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width), vg.Length(height)),
		vgimg.UseDPI(vgimg.DefaultDPI),
	)
	plt.Draw(draw.New(canvas))

	return ToNRGBA(canvas.Image()), nil
}
