package app

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"edakit/adapters/excel"
	"edakit/adapters/plot"
	"edakit/adapters/stats/hypothesis"
	"edakit/domain/core"
	"edakit/domain/dataset"
	"edakit/domain/stats"
	"edakit/internal"
	"edakit/internal/config"
	"edakit/internal/errors"
	"edakit/internal/frequency"
	"edakit/internal/outliers"
	"edakit/internal/profiling"
	"edakit/ports"
)

// RunRecord is the audit entry kept for every operation
type RunRecord struct {
	ID          core.RunID    `json:"id"`
	Operation   string        `json:"operation"`
	Columns     []string      `json:"columns"`
	Fingerprint core.Hash     `json:"fingerprint"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Err         string        `json:"error,omitempty"`
}

// AnalysisService runs the exploratory operations over loaded tables. It
// is not safe for concurrent use.
type AnalysisService struct {
	cfg      *config.Config
	engine   *hypothesis.Engine
	analyzer *profiling.DistributionAnalyzer
	logger   *internal.Logger
	readers  ports.TableReaderFactory
	runs     []RunRecord
}

// NewAnalysisService creates an analysis service; nil cfg or logger select
// the defaults.
func NewAnalysisService(cfg *config.Config, logger *internal.Logger) *AnalysisService {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &AnalysisService{
		cfg:      cfg,
		engine:   hypothesis.NewEngine(),
		analyzer: profiling.NewDistributionAnalyzer(),
		logger:   logger,
		readers: func(path string) ports.TableReader {
			return excel.NewDataReader(path).WithLogger(logger)
		},
	}
}

// WithReaders replaces how Load opens dataset sources
func (s *AnalysisService) WithReaders(f ports.TableReaderFactory) *AnalysisService {
	if f != nil {
		s.readers = f
	}
	return s
}

// Config returns the configuration in use
func (s *AnalysisService) Config() *config.Config { return s.cfg }

// Engine returns the hypothesis test registry
func (s *AnalysisService) Engine() *hypothesis.Engine { return s.engine }

// Runs returns the operations performed so far, oldest first
func (s *AnalysisService) Runs() []RunRecord {
	out := make([]RunRecord, len(s.runs))
	copy(out, s.runs)
	return out
}

// TestOptions returns the hypothesis options seeded from configuration
func (s *AnalysisService) TestOptions() hypothesis.Options {
	opts := hypothesis.DefaultOptions()
	opts.Alpha = s.cfg.Analysis.Alpha
	return opts
}

// Load reads a dataset file into a table
func (s *AnalysisService) Load(path string, opts dataset.ReadOptions) (*dataset.Table, error) {
	tbl, err := s.readers(path).ReadTable(opts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded %s: %d columns, %d rows", path, tbl.Width(), tbl.Len())
	return tbl, nil
}

// Frequency builds the frequency table of one column
func (s *AnalysisService) Frequency(tbl *dataset.Table, column string, mode stats.FrequencyMode) (*frequency.Distribution, error) {
	done := s.begin("frequency", tbl, column)
	d, err := frequency.Build(tbl, column, mode)
	done(err)
	return d, err
}

// Outliers filters one column with the given whisker multiplier, which
// must not be negative. Config().Analysis.WhiskerMultiplier is the default.
func (s *AnalysisService) Outliers(tbl *dataset.Table, column string, multiplier float64) (outliers.Filtered, error) {
	done := s.begin("outliers", tbl, column)
	if multiplier < 0 || math.IsNaN(multiplier) {
		err := errors.InvalidArgument(fmt.Sprintf("whisker multiplier must be non-negative, got %v", multiplier))
		done(err)
		return outliers.Filtered{}, err
	}
	f, err := outliers.FilterColumn(tbl, column, multiplier)
	done(err)
	if err == nil {
		s.logger.Debug("outliers %s: bounds [%g, %g], kept %d", column, f.Bounds.Lower, f.Bounds.Upper, len(f.Values))
	}
	return f, err
}

// Test runs the named hypothesis test on the selected columns
func (s *AnalysisService) Test(kind stats.TestKind, tbl *dataset.Table, columns []string, opts hypothesis.Options) ([]stats.TestResult, error) {
	done := s.begin(string(kind), tbl, columns...)
	sel, err := tbl.Select(columns...)
	if err != nil {
		done(err)
		return nil, err
	}
	results, err := s.engine.Run(kind, sel, opts)
	done(err)
	for _, r := range results {
		s.logger.Debug("%s %v: statistic=%g p=%g rejected=%t", r.Test, r.Columns, r.Statistic, r.PValue, r.Rejected)
	}
	return results, err
}

// Battery runs Shapiro-Wilk on every selected column and Levene across them
func (s *AnalysisService) Battery(tbl *dataset.Table, columns []string, opts hypothesis.Options) (stats.Battery, error) {
	done := s.begin("shapiro_levene", tbl, columns...)
	sel, err := tbl.Select(columns...)
	if err != nil {
		done(err)
		return stats.Battery{}, err
	}
	b, err := hypothesis.ShapiroLevene(sel, opts)
	done(err)
	return b, err
}

// Describe summarizes one numeric column
func (s *AnalysisService) Describe(tbl *dataset.Table, column string) (profiling.Summary, error) {
	done := s.begin("describe", tbl, column)
	values, err := tbl.Numeric(column)
	if err != nil {
		done(err)
		return profiling.Summary{}, err
	}
	summary, err := s.analyzer.Describe(values)
	done(err)
	return summary, err
}

// HistBox builds the box plot and histogram figure of one column. bins <= 0
// selects Sturges' rule.
func (s *AnalysisService) HistBox(tbl *dataset.Table, column string, bins int) (*plot.Figure, error) {
	done := s.begin("histbox", tbl, column)
	opts := plot.OptionsFromConfig(s.cfg.Plot)
	opts.Bins = bins
	fig, err := plot.HistBox(tbl, column, opts)
	done(err)
	return fig, err
}

// SaveFigure writes fig to out, or to <plot dir>/<column>.png when out is
// empty. It returns the path written.
func (s *AnalysisService) SaveFigure(fig *plot.Figure, out string) (string, error) {
	if out == "" {
		out = filepath.Join(s.cfg.Plot.Dir, fig.Column+".png")
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.IOError(fmt.Sprintf("failed to create %s", dir), err)
		}
	}
	if err := fig.Save(out); err != nil {
		return "", err
	}
	s.logger.Info("saved figure %s", out)
	return out, nil
}

// begin opens a run record; the returned func closes it with the outcome
func (s *AnalysisService) begin(op string, tbl *dataset.Table, columns ...string) func(error) {
	rec := RunRecord{
		ID:        core.NewRunID(),
		Operation: op,
		Columns:   columns,
		StartedAt: time.Now(),
	}
	if tbl != nil {
		rec.Fingerprint = core.ComputeTableHash(tbl)
	}
	log := s.logger.With("run", rec.ID.String(), "operation", op)
	if rec.Fingerprint.IsEmpty() {
		log.Debug("starting %v", columns)
	} else {
		log.Debug("starting %v on table %s", columns, rec.Fingerprint.Short())
	}

	return func(err error) {
		rec.Duration = time.Since(rec.StartedAt)
		if err != nil {
			rec.Err = err.Error()
			log.Warn("failed: %v", err)
		} else {
			log.Info("completed in %s", rec.Duration)
		}
		s.runs = append(s.runs, rec)
	}
}
