// Package storage persists observation runs to SQLite so signals and spectra
// can be reported after the fact. The schema is managed by embedded
// golang-migrate migrations.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/plasmadiag/sightline/internal/observer"
	"github.com/plasmadiag/sightline/internal/spectrum"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the observation store.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the store at path and applies pending
// migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db := &DB{DB: conn}
	if err := db.migrateUp(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Run identifies one persisted group observation.
type Run struct {
	ID        string
	Label     string
	Group     string
	StartedAt time.Time
}

// StoredSignal is one scalar pipeline result within a run.
type StoredSignal struct {
	SensorIndex int
	SensorName  string
	Pipeline    string
	Kind        string
	Value       float64
}

// StoredSpectrum is one spectral pipeline result within a run.
type StoredSpectrum struct {
	SensorIndex int
	SensorName  string
	Pipeline    string
	Kind        string
	Spectrum    *spectrum.Spectrum
}

// SaveRun persists the current pipeline contents of every sensor in the
// group as a new run and returns its record. Pipelines with no samples yet
// are skipped.
func (db *DB) SaveRun(ctx context.Context, group observer.GroupView, label string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Label:     label,
		Group:     group.Name(),
		StartedAt: time.Now().UTC(),
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, label, group_name, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Label, run.Group, run.StartedAt,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	for i, sensor := range group.Observers() {
		for _, pipe := range sensor.Pipelines() {
			if pipe.SampleCount() == 0 {
				continue
			}
			if pipe.Kind().IsSpectral() {
				mean := pipe.MeanSpectrum()
				for bin, value := range mean.Samples {
					if _, err := tx.ExecContext(ctx,
						`INSERT INTO spectra
						 (run_id, sensor_index, sensor_name, pipeline_name, kind, min_wavelength, max_wavelength, bins, bin, value)
						 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
						run.ID, i, sensor.Name(), pipe.Name, pipe.Kind().String(),
						mean.MinWavelength, mean.MaxWavelength, mean.Bins, bin, value,
					); err != nil {
						return nil, fmt.Errorf("insert spectrum bin: %w", err)
					}
				}
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO signals (run_id, sensor_index, sensor_name, pipeline_name, kind, value)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				run.ID, i, sensor.Name(), pipe.Name, pipe.Kind().String(), pipe.MeanValue(),
			); err != nil {
				return nil, fmt.Errorf("insert signal: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	return run, nil
}

// ListRuns returns all persisted runs, most recent first.
func (db *DB) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT run_id, label, group_name, started_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Label, &r.Group, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadSignals returns the scalar results of a run in sensor order.
func (db *DB) LoadSignals(ctx context.Context, runID string) ([]StoredSignal, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT sensor_index, sensor_name, pipeline_name, kind, value
		 FROM signals WHERE run_id = ? ORDER BY sensor_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}
	defer rows.Close()

	var signals []StoredSignal
	for rows.Next() {
		var s StoredSignal
		if err := rows.Scan(&s.SensorIndex, &s.SensorName, &s.Pipeline, &s.Kind, &s.Value); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// LoadSpectra reassembles the spectral results of a run, one spectrum per
// (sensor, pipeline) pair, in sensor order.
func (db *DB) LoadSpectra(ctx context.Context, runID string) ([]StoredSpectrum, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT sensor_index, sensor_name, pipeline_name, kind, min_wavelength, max_wavelength, bins, bin, value
		 FROM spectra WHERE run_id = ? ORDER BY sensor_index, pipeline_name, bin`, runID)
	if err != nil {
		return nil, fmt.Errorf("load spectra: %w", err)
	}
	defer rows.Close()

	var out []StoredSpectrum
	var current *StoredSpectrum
	for rows.Next() {
		var (
			sensorIdx, bins, bin       int
			sensorName, pipeName, kind string
			minW, maxW, value          float64
		)
		if err := rows.Scan(&sensorIdx, &sensorName, &pipeName, &kind, &minW, &maxW, &bins, &bin, &value); err != nil {
			return nil, fmt.Errorf("scan spectrum bin: %w", err)
		}
		if current == nil || current.SensorIndex != sensorIdx || current.Pipeline != pipeName {
			s, err := spectrum.New(minW, maxW, bins)
			if err != nil {
				return nil, fmt.Errorf("rebuild spectrum: %w", err)
			}
			out = append(out, StoredSpectrum{
				SensorIndex: sensorIdx,
				SensorName:  sensorName,
				Pipeline:    pipeName,
				Kind:        kind,
				Spectrum:    s,
			})
			current = &out[len(out)-1]
		}
		if bin >= 0 && bin < len(current.Spectrum.Samples) {
			current.Spectrum.Samples[bin] = value
		}
	}
	return out, rows.Err()
}
