package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/plasmadiag/sightline/internal/report"
	"github.com/plasmadiag/sightline/internal/units"
)

// handleSignals returns the aggregated per-sensor signal for one pipeline as
// JSON. Query params:
//   - group (optional; defaults to the first registered group)
//   - item (optional; pipeline index or name, defaults to 0)
func (ws *WebServer) handleSignals(w http.ResponseWriter, r *http.Request) {
	g, ok := ws.findGroup(r.URL.Query().Get("group"))
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, "no such group")
		return
	}
	item := parseItem(r.URL.Query().Get("item"))

	agg, err := g.SamePipelines(item)
	if err != nil {
		ws.writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ws.writeJSON(w, map[string]any{
		"group":  g.Name(),
		"title":  report.Title(g.Name(), item, agg),
		"kind":   agg.Kind.String(),
		"labels": agg.SensorLabels(),
		"values": report.SignalValues(agg),
	})
}

// handleSignalChart renders the aggregated signal as an ECharts bar page,
// one bar per sensor. Same query params as /api/signals.
func (ws *WebServer) handleSignalChart(w http.ResponseWriter, r *http.Request) {
	g, ok := ws.findGroup(r.URL.Query().Get("group"))
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, "no such group")
		return
	}
	item := parseItem(r.URL.Query().Get("item"))

	agg, err := g.SamePipelines(item)
	if err != nil {
		ws.writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	values := report.SignalValues(agg)
	y := make([]opts.BarData, len(values))
	for i, v := range values {
		y[i] = opts.BarData{Value: v}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Signal", Theme: "dark", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: report.Title(g.Name(), item, agg), Subtitle: report.SignalAxisLabel(agg.Kind)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: report.SignalAxisLabel(agg.Kind)}),
	)
	bar.SetXAxis(agg.SensorLabels()).
		AddSeries("signal", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleSpectraChart renders the observed mean spectra of one spectral
// pipeline across the group as an ECharts line page, one series per sensor.
// Query params:
//   - group, item as for /api/signals
//   - photons (optional; "1" or "true" converts to photon counts)
func (ws *WebServer) handleSpectraChart(w http.ResponseWriter, r *http.Request) {
	g, ok := ws.findGroup(r.URL.Query().Get("group"))
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, "no such group")
		return
	}
	item := parseItem(r.URL.Query().Get("item"))
	photons := r.URL.Query().Get("photons")
	inPhotons := photons == "1" || photons == "true"

	agg, err := g.SamePipelines(item)
	if err != nil {
		ws.writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !agg.Kind.IsSpectral() {
		ws.writeJSONError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("pipeline variant %s carries no spectrum", agg.Kind))
		return
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Spectra", Theme: "dark", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: report.Title(g.Name(), item, agg)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: units.WavelengthLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: report.SpectralAxisLabel(agg.Kind, inPhotons)}),
	)

	labels := agg.SensorLabels()
	series := 0
	for i, pipe := range agg.Pipelines {
		mean := pipe.MeanSpectrum()
		if mean == nil {
			continue
		}
		if series == 0 {
			x := make([]string, mean.Bins)
			for j, wl := range mean.Wavelengths() {
				x[j] = fmt.Sprintf("%.1f", wl)
			}
			line.SetXAxis(x)
		}
		samples := mean.Samples
		if inPhotons {
			samples = mean.ToPhotons()
		}
		data := make([]opts.LineData, len(samples))
		for j, v := range samples {
			data[j] = opts.LineData{Value: v}
		}
		line.AddSeries(labels[i], data)
		series++
	}
	if series == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no observed spectra available")
		return
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
