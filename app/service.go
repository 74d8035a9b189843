package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kilianp07/fleeteffects/config"
	"github.com/kilianp07/fleeteffects/core/batch"
	coremetrics "github.com/kilianp07/fleeteffects/core/metrics"
	coremon "github.com/kilianp07/fleeteffects/core/monitoring"
	"github.com/kilianp07/fleeteffects/infra/logger"
	_ "github.com/kilianp07/fleeteffects/infra/metrics"
	"github.com/kilianp07/fleeteffects/infra/monitoring"
	"github.com/kilianp07/fleeteffects/infra/store"
	"github.com/kilianp07/fleeteffects/pkg/export"
)

// FailPrefix marks the folder of a session that aborted.
const FailPrefix = "#FAIL_"

// Service runs one effects batch and writes its outputs.
type Service struct {
	cfg    *config.Config
	batch  *config.BatchSettings
	dir    string
	banner export.Banner
	log    *logger.RunLogger
	sink   coremetrics.MetricsSink
	store  batch.DetailStore
}

// New loads the batch settings and prepares logging, metrics, monitoring and
// the per-vehicle store.
func New(cfg *config.Config, batchPath string) (*Service, error) {
	b, err := config.LoadBatchSettings(batchPath)
	if err != nil {
		return nil, err
	}
	dir := cfg.Output.Dir
	if dir == "" {
		dir = b.Folder
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output folder: %w", err)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg, err := logger.NewRunLogger("effects", filepath.Join(dir, cfg.Logging.File))
	if err != nil {
		return nil, err
	}
	svc := &Service{cfg: cfg, batch: b, dir: dir, banner: export.NewBanner(b.Name, time.Now()), log: logg}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		svc.log.Errorf("sentry: %v", err)
	} else {
		coremon.Init(mon)
	}

	if svc.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		_ = logg.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	if cfg.Output.VehicleDetail() {
		switch cfg.Output.VehicleOutputFormat {
		case config.VehicleOutputSQLite:
			st, err := store.NewSQLiteStore(filepath.Join(dir, svc.banner.Stamp+"_vehicle_effects.sqlite"))
			if err != nil {
				_ = logg.Close()
				return nil, err
			}
			svc.store = st
		case config.VehicleOutputCSV:
			svc.store = export.DetailCSV{Dir: dir, Banner: svc.banner}
		}
	}
	return svc, nil
}

// Dir is the folder outputs are written to.
func (s *Service) Dir() string { return s.dir }

// Banner identifies the run.
func (s *Service) Banner() export.Banner { return s.banner }

func (s *Service) runner(log logger.Logger) *batch.Runner {
	return &batch.Runner{
		Settings: s.batch,
		Loader:   batch.NewLoader(s.batch, s.cfg.Region, log),
		Matrix:   s.cfg.NetBenefits.Matrix(),
		Workers:  s.cfg.Sessions.Workers,
		Store:    s.store,
		Sink:     s.sink,
		Log:      log,
		RunID:    s.banner.RunID,
	}
}

// Run evaluates the batch, writes every enabled output and returns the
// manifest path. Outputs of the sessions that completed are written even when
// the batch aborts.
func (s *Service) Run(ctx context.Context) (string, error) {
	s.log.Infof("Starting effects run %s for batch %s", s.banner.Run(), s.batch.Name)
	r := s.runner(s.log.With("batch"))
	res, runErr := r.Run(ctx)
	if runErr != nil {
		s.log.Errorf("batch %s: %v", s.batch.Name, runErr)
		coremon.CaptureException(runErr, map[string]string{"batch": s.batch.Name, "run_id": s.banner.RunID})
	}
	if res == nil {
		return "", runErr
	}
	if res.Finished.IsZero() {
		res.Finished = time.Now()
	}

	w := export.Writer{Dir: s.dir, Banner: s.banner}
	var outputs []string
	var err error
	if runErr == nil {
		outputs, err = s.writeOutputs(w, res)
		if err != nil {
			s.log.Errorf("write outputs: %v", err)
		}
	}
	folders, ferr := s.markFailed(res)
	m := s.manifest(res, r.Loader.Loaded(), folders, outputs)
	path, merr := w.WriteManifest(m)
	if merr == nil {
		s.log.Infof("Wrote manifest %s", path)
	}
	s.log.Infof("Completed effects run %s in %s", s.banner.Run(), res.Finished.Sub(res.Started).Round(time.Millisecond))
	return path, errors.Join(runErr, err, ferr, merr)
}

// Check loads every table of every session without computing effects.
func (s *Service) Check() ([]batch.LoadedTable, error) {
	l := batch.NewLoader(s.batch, s.cfg.Region, s.log.With("check"))
	var errs []error
	for _, sess := range s.batch.Sessions {
		if _, err := l.Session(sess); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", sess.Name, err))
		}
	}
	return l.Loaded(), errors.Join(errs...)
}

// markFailed renames the folder of every failed session to #FAIL_<name> and
// returns the final folder of each session.
func (s *Service) markFailed(res *batch.Results) (map[string]string, error) {
	folders := map[string]string{}
	var errs []error
	for _, sr := range res.Sessions {
		name := sr.Settings.Name
		folder := filepath.Join(s.dir, name)
		if sr.Failed() {
			failed := filepath.Join(s.dir, FailPrefix+name)
			var err error
			if _, statErr := os.Stat(folder); statErr == nil {
				err = os.Rename(folder, failed)
			} else {
				err = os.MkdirAll(failed, 0o755)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("mark %s failed: %w", name, err))
			}
			folder = failed
		}
		folders[name] = folder
	}
	return folders, errors.Join(errs...)
}

// Close flushes metrics and monitoring and releases the store and log file.
func (s *Service) Close() error {
	var errs []error
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		if err := f.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush metrics: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	coremon.Flush(2 * time.Second)
	if err := s.log.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
