// Command sightline builds an instrument from a JSON layout, observes every
// group against a synthetic emission-line source, and reports the results as
// PNG plots, a SQLite run store and an optional live monitor server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gonum.org/v1/plot/vg"

	"github.com/plasmadiag/sightline/internal/config"
	"github.com/plasmadiag/sightline/internal/geometry"
	"github.com/plasmadiag/sightline/internal/monitor"
	"github.com/plasmadiag/sightline/internal/monitoring"
	"github.com/plasmadiag/sightline/internal/observer"
	"github.com/plasmadiag/sightline/internal/pipeline"
	"github.com/plasmadiag/sightline/internal/report"
	"github.com/plasmadiag/sightline/internal/spectrum"
	"github.com/plasmadiag/sightline/internal/storage"
)

var (
	configPath = flag.String("config", "", "Path to instrument layout JSON (default: built-in demo layout)")
	dbFile     = flag.String("db", "sightline_runs.db", "Path to the SQLite run store (empty disables persistence)")
	plotDir    = flag.String("plot-dir", "", "Directory to write signal and spectra PNGs (empty disables plotting)")
	listen     = flag.String("listen", "", "HTTP listen address for the monitor server (empty exits after observing)")
	runLabel   = flag.String("label", "", "Label recorded with the persisted run")
	photons    = flag.Bool("photons", false, "Plot spectra in photon rather than energy units")
)

// demoLayout is used when no -config is given: a Balmer-alpha viewing array
// plus a pair of divertor fibres, banded around 656 nm.
const demoLayout = `{
  "groups": [
    {
      "name": "midplane array",
      "pipelines": [
        {"kind": "spectral_radiance", "name": "full"},
        {"kind": "radiance", "name": "integrated"}
      ],
      "min_wavelength": 640,
      "max_wavelength": 670,
      "spectral_bins": 200,
      "pixel_samples": 100,
      "sensors": [
        {"name": "ch1", "origin": [2.0, 0, 0.2], "direction": [-1, 0, -0.1]},
        {"name": "ch2", "origin": [2.0, 0, 0.0], "direction": [-1, 0, 0]},
        {"name": "ch3", "origin": [2.0, 0, -0.2], "direction": [-1, 0, 0.1]}
      ]
    },
    {
      "name": "divertor fibres",
      "kind": "fibre_optic",
      "acceptance_angle": 10,
      "min_wavelength": 640,
      "max_wavelength": 670,
      "spectral_bins": 200,
      "pixel_samples": 100,
      "sensors": [
        {"name": "outer leg", "origin": [1.5, 0, 1.8], "direction": [0, 0, -1]},
        {"name": "inner leg", "origin": [1.2, 0, 1.8], "direction": [0.2, 0, -1]}
      ]
    }
  ]
}`

// gaussianRadiometer emits a Gaussian line on top of a flat continuum, a
// stand-in for a ray-traced plasma so the toolchain can run end to end.
type gaussianRadiometer struct {
	centreNm  float64
	widthNm   float64
	peak      float64
	continuum float64
}

func (r *gaussianRadiometer) SampleSpectrum(_ geometry.Point3D, _ geometry.Vector3D, s *spectrum.Spectrum) error {
	for i, wl := range s.Wavelengths() {
		d := (wl - r.centreNm) / r.widthNm
		s.Samples[i] = r.continuum + r.peak*math.Exp(-0.5*d*d)
	}
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("sightline: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		cfg *config.InstrumentConfig
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.Parse([]byte(demoLayout))
	}
	if err != nil {
		return err
	}

	groups, err := cfg.Build()
	if err != nil {
		return err
	}

	// Balmer-alpha at 656.28 nm.
	source := &gaussianRadiometer{centreNm: 656.28, widthNm: 1.2, peak: 5, continuum: 0.05}
	for _, g := range groups {
		for _, sensor := range g.Observers() {
			sensor.SetRadiometer(source)
		}
	}

	var db *storage.DB
	if *dbFile != "" {
		db, err = storage.Open(*dbFile)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	for _, g := range groups {
		monitoring.Logf("observing group %q (%d sensors)", g.Name(), g.Len())
		if err := g.Observe(ctx); err != nil {
			return fmt.Errorf("observe %q: %w", g.Name(), err)
		}
		if db != nil {
			run, err := db.SaveRun(ctx, g, *runLabel)
			if err != nil {
				return err
			}
			monitoring.Logf("saved run %s for group %q", run.ID, g.Name())
		}
		if *plotDir != "" {
			if err := writePlots(g); err != nil {
				return fmt.Errorf("plot %q: %w", g.Name(), err)
			}
		}
	}

	if *listen != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address: *listen,
			Groups:  groups,
			DB:      db,
		})
		return ws.Start(ctx)
	}
	return nil
}

// writePlots renders one total-signal chart per pipeline of the group, plus a
// spectra chart for the spectral ones. Pipeline sets can differ between
// sensors; the first sensor's set drives what gets plotted.
func writePlots(g observer.GroupView) error {
	if err := os.MkdirAll(*plotDir, 0o755); err != nil {
		return err
	}
	sensors := g.Observers()
	if len(sensors) == 0 {
		return nil
	}

	for i, pipe := range sensors[0].Pipelines() {
		item := any(i)
		if pipe.Name != "" {
			item = pipe.Name
		}

		p, err := report.TotalSignal(g, item, nil)
		if err != nil {
			return err
		}
		path := plotPath(g.Name(), pipe, i, "signal")
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return err
		}
		monitoring.Logf("wrote %s", path)

		if !pipe.Kind().IsSpectral() {
			continue
		}
		p, err = report.Spectra(g, item, *photons, nil)
		if err != nil {
			return err
		}
		path = plotPath(g.Name(), pipe, i, "spectra")
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return err
		}
		monitoring.Logf("wrote %s", path)
	}
	return nil
}

func plotPath(group string, pipe *pipeline.Pipeline, index int, suffix string) string {
	name := pipe.Name
	if name == "" {
		name = fmt.Sprintf("pipeline%d", index)
	}
	file := fmt.Sprintf("%s_%s_%s.png", sanitise(group), sanitise(name), suffix)
	return filepath.Join(*plotDir, file)
}

func sanitise(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}
