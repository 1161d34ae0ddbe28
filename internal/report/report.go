// Package report renders group observations with gonum/plot: a bar per
// sensor for wavelength-integrated signal, and per-sensor spectra on shared
// axes. Callers may pass an existing plot to draw onto, or nil to get a fresh
// one back.
package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/plasmadiag/sightline/internal/observer"
	"github.com/plasmadiag/sightline/internal/pipeline"
	"github.com/plasmadiag/sightline/internal/units"
)

// barWidth is the drawn width of the per-sensor signal bars.
var barWidth = vg.Points(30)

// SignalValues reduces each matched pipeline to one scalar: spectral variants
// integrate their mean spectrum over the wavelength grid, scalar variants use
// the mean value directly. Pipelines with no samples yet reduce to zero.
func SignalValues(agg *observer.Aggregate) []float64 {
	values := make([]float64, len(agg.Pipelines))
	for i, p := range agg.Pipelines {
		if p.Kind().IsSpectral() {
			if mean := p.MeanSpectrum(); mean != nil {
				values[i] = mean.Total()
			}
			continue
		}
		values[i] = p.MeanValue()
	}
	return values
}

// Title builds the chart title for an aggregate: a shared non-empty pipeline
// name when the request was positional, a generic pipeline label otherwise,
// and the requested name verbatim for string requests.
func Title(groupName string, item any, agg *observer.Aggregate) string {
	switch item.(type) {
	case int:
		if name, ok := agg.SharedName(); ok {
			return fmt.Sprintf("%s: %s", groupName, name)
		}
		return fmt.Sprintf("%s: pipeline %v", groupName, item)
	default:
		return fmt.Sprintf("%s: %v", groupName, item)
	}
}

// SignalAxisLabel returns the y-axis label for wavelength-integrated signal
// of the given variant family.
func SignalAxisLabel(kind pipeline.Kind) string {
	if kind.IsRadiance() {
		return units.RadianceLabel
	}
	return units.PowerLabel
}

// SpectralAxisLabel returns the y-axis label for spectral plots of the given
// variant family, in energy or photon units.
func SpectralAxisLabel(kind pipeline.Kind, inPhotons bool) string {
	if kind.IsRadiance() {
		return units.SpectralRadianceLabel(inPhotons)
	}
	return units.SpectralPowerLabel(inPhotons)
}

// TotalSignal draws one bar per sensor holding the pipeline identified by
// item, labelled by sensor name or group position. Sensors without the
// pipeline are left out, matching the aggregation policy.
func TotalSignal(g observer.GroupView, item any, p *plot.Plot) (*plot.Plot, error) {
	agg, err := g.SamePipelines(item)
	if err != nil {
		return nil, err
	}

	if p == nil {
		p = plot.New()
	}

	bars, err := plotter.NewBarChart(plotter.Values(SignalValues(agg)), barWidth)
	if err != nil {
		return nil, fmt.Errorf("total signal bars: %w", err)
	}
	p.Add(bars)
	p.NominalX(agg.SensorLabels()...)

	p.Title.Text = Title(g.Name(), item, agg)
	p.X.Label.Text = "Line of sight"
	p.Y.Label.Text = SignalAxisLabel(agg.Kind)
	return p, nil
}

// Spectra draws the mean spectrum of each sensor holding the pipeline
// identified by item, one line per sensor on shared axes, with the legend
// keyed by sensor label. Single-bin spectra are drawn as lone markers. Only
// spectral variants can be drawn; scalar variants are rejected.
func Spectra(g observer.GroupView, item any, inPhotons bool, p *plot.Plot) (*plot.Plot, error) {
	agg, err := g.SamePipelines(item)
	if err != nil {
		return nil, err
	}
	if !agg.Kind.IsSpectral() {
		return nil, &pipeline.UnsupportedVariantError{
			Kind:   agg.Kind,
			Reason: "spectrum plotting requires a spectral pipeline",
		}
	}

	if p == nil {
		p = plot.New()
	}

	labels := agg.SensorLabels()
	for i, pipe := range agg.Pipelines {
		if err := addSpectrumLine(p, pipe, labels[i], inPhotons); err != nil {
			return nil, err
		}
	}

	p.Title.Text = Title(g.Name(), item, agg)
	p.X.Label.Text = units.WavelengthLabel
	p.Y.Label.Text = SpectralAxisLabel(agg.Kind, inPhotons)
	p.Legend.Top = true
	return p, nil
}

// SpectrumPlot draws one sensor's mean spectrum for the pipeline identified
// by item. extras controls whether the title and axis labels are set, so the
// group plot can stack several sensors on one set of axes.
func SpectrumPlot(sensor observer.Observer, item any, inPhotons, extras bool, p *plot.Plot) (*plot.Plot, error) {
	pipe, err := sensor.Pipeline(item)
	if err != nil {
		return nil, err
	}
	if !pipe.Kind().IsSpectral() {
		return nil, &pipeline.UnsupportedVariantError{
			Kind:   pipe.Kind(),
			Reason: "spectrum plotting requires a spectral pipeline",
		}
	}

	if p == nil {
		p = plot.New()
	}

	if err := addSpectrumLine(p, pipe, sensor.Name(), inPhotons); err != nil {
		return nil, err
	}

	if extras {
		if name := pipe.Name; name != "" {
			p.Title.Text = fmt.Sprintf("%s: %s", sensor.Name(), name)
		} else {
			p.Title.Text = fmt.Sprintf("%s: pipeline %v", sensor.Name(), item)
		}
		p.X.Label.Text = units.WavelengthLabel
		p.Y.Label.Text = SpectralAxisLabel(pipe.Kind(), inPhotons)
	}
	return p, nil
}

func addSpectrumLine(p *plot.Plot, pipe *pipeline.Pipeline, label string, inPhotons bool) error {
	mean := pipe.MeanSpectrum()
	if mean == nil {
		return fmt.Errorf("pipeline %q has no observed spectrum to plot", pipe.Name)
	}

	samples := mean.Samples
	if inPhotons {
		samples = mean.ToPhotons()
	}

	wavelengths := mean.Wavelengths()
	xys := make(plotter.XYs, len(samples))
	for i := range samples {
		xys[i] = plotter.XY{X: wavelengths[i], Y: samples[i]}
	}

	drawn, err := newSpectrumPlotter(xys)
	if err != nil {
		return err
	}
	p.Add(drawn)
	p.Legend.Add(label, drawn)
	return nil
}

// spectrumPlotter is drawable and usable as a legend entry.
type spectrumPlotter interface {
	plot.Plotter
	plot.Thumbnailer
}

// newSpectrumPlotter picks the drawing style for a spectrum: a single bin has
// no extent to draw a line through, so it becomes a lone marker.
func newSpectrumPlotter(xys plotter.XYs) (spectrumPlotter, error) {
	if len(xys) == 1 {
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("spectrum marker: %w", err)
		}
		return scatter, nil
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("spectrum line: %w", err)
	}
	line.Width = vg.Points(1)
	return line, nil
}
