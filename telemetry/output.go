package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/PufferAI/impulse-wars/config"
	"github.com/PufferAI/impulse-wars/game"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir          string
	episodesFile *os.File
	summaryFile  *os.File

	episodesHeaderWritten bool

	aggregator Aggregator
	episodes   int
}

// NewOutputManager creates a new output manager and initializes the
// output directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "episodes.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating episodes.csv: %w", err)
	}
	om.episodesFile = f

	f, err = os.Create(filepath.Join(dir, "summary.csv"))
	if err != nil {
		om.episodesFile.Close()
		return nil, fmt.Errorf("creating summary.csv: %w", err)
	}
	om.summaryFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// RecordEpisode writes per-drone rows for a finished episode and folds
// it into the run summary.
func (om *OutputManager) RecordEpisode(snap game.Snapshot) error {
	if om == nil {
		return nil
	}
	om.episodes++
	om.aggregator.Add(snap)
	records := EpisodeRecords(om.episodes, snap)

	if !om.episodesHeaderWritten {
		if err := gocsv.Marshal(records, om.episodesFile); err != nil {
			return fmt.Errorf("writing episodes: %w", err)
		}
		om.episodesHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.episodesFile); err != nil {
			return fmt.Errorf("writing episodes: %w", err)
		}
	}
	return nil
}

// Close writes the run summary and closes all files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	if err := gocsv.Marshal([]Summary{om.aggregator.Summary()}, om.summaryFile); err != nil {
		firstErr = fmt.Errorf("writing summary: %w", err)
	}
	if err := om.episodesFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := om.summaryFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
