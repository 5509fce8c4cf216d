package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopintent/config"
	"shopintent/db"
	"shopintent/logging"
	"shopintent/ml"
	"shopintent/pipeline"
)

// session carries what one invocation needs: resolved config, logger, result
// writer and the optional run history.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	flush   func()
	out     io.Writer
	persist bool
}

// loadConfig resolves defaults, the YAML file, SHOPINTENT_* variables and flags, in that order.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	cfg, err := config.Load(o.configPath, flags.Changed("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.Changed("model") {
		cfg.Model.Type = o.model
	}
	if flags.Changed("seed") {
		cfg.Split.Seed = o.seed
	}
	if flags.Changed("test-ratio") {
		cfg.Split.TestRatio = o.testRatio
	}
	if flags.Changed("normalize") {
		cfg.Model.Normalize = o.normalize
	}
	if flags.Changed("db") {
		cfg.Database.Path = o.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, flush, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	s := &session{cfg: cfg, logger: logger, flush: flush, out: cmd.OutOrStdout()}
	if cfg.Database.Path != "" {
		if err := db.InitDB(cfg.Database.Path); err != nil {
			flush()
			return nil, fmt.Errorf("open run history %s: %w", cfg.Database.Path, err)
		}
		s.persist = true
		logger.Debug("run history enabled", zap.String("path", cfg.Database.Path))
	}
	return s, nil
}

func (s *session) Close() {
	if s.persist {
		if err := db.CloseDB(); err != nil {
			s.logger.Warn("close run history", zap.Error(err))
		}
	}
	s.flush()
}

func (s *session) seed() int64 {
	if s.cfg.Split.Seed != 0 {
		return s.cfg.Split.Seed
	}
	return time.Now().UnixNano()
}

// classifierOptions returns the configured classifier with k overriding model.k when positive.
func (s *session) classifierOptions(k int) ml.ClassifierOptions {
	if k <= 0 {
		k = s.cfg.Model.K
	}
	return ml.ClassifierOptions{
		Type:      s.cfg.Model.Type,
		K:         k,
		MaxDepth:  s.cfg.Model.MaxTreeDepth,
		Normalize: s.cfg.Model.Normalize,
		CacheSize: s.cfg.Model.CacheSize,
	}
}

// load reads the dataset, printing the progress lines and logging quality warnings.
func (s *session) load(path string) (*pipeline.Dataset, error) {
	fmt.Fprintln(s.out, "Loading data from CSV file...")
	start := time.Now()
	dataset, err := pipeline.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	fmt.Fprintf(s.out, "Data loaded successfully from CSV file! Total rows: %d\n", dataset.Len())
	s.logger.Debug("dataset loaded",
		zap.String("path", path),
		zap.Int("rows", dataset.Len()),
		zap.Int("positives", dataset.Positives()),
		zap.Duration("elapsed", time.Since(start)))

	report := pipeline.NewInspector().Inspect(dataset)
	for _, issue := range report.Issues {
		s.logger.Warn("data quality issue",
			zap.String("rule", issue.Rule),
			zap.Int("line", issue.Line),
			zap.String("message", issue.Message))
	}
	if report.Flagged > 0 {
		s.logger.Warn("dataset has suspicious rows",
			zap.Int("flagged", report.Flagged),
			zap.Int("inspected", report.Inspected),
			zap.Strings("rules", report.RuleNames()))
	}
	return dataset, nil
}

// evaluate runs one load, split, fit, predict and score pass and prints the results.
func (s *session) evaluate(path string, k int) (*ml.Report, error) {
	dataset, err := s.load(path)
	if err != nil {
		return nil, err
	}

	seed := s.seed()
	split, err := ml.TrainTestSplit(dataset.Vectors(), dataset.Labels, s.cfg.Split.TestRatio, seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}
	opts := s.classifierOptions(k)
	clf, err := ml.NewClassifier(opts)
	if err != nil {
		return nil, err
	}
	report, err := ml.Assess(clf, split)
	if err != nil {
		return nil, err
	}

	sensitivity, specificity, err := ml.Evaluate(split.TestY, report.Predictions)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	counts := report.Counts
	fmt.Fprintf(s.out, "Correct: %d\n", counts.Correct())
	fmt.Fprintf(s.out, "Incorrect: %d\n", counts.Incorrect())
	fmt.Fprintf(s.out, "True Positive Rate: %.2f%%\n", 100*sensitivity)
	fmt.Fprintf(s.out, "True Negative Rate: %.2f%%\n", 100*specificity)

	if !counts.SensitivityDefined() {
		s.logger.Warn("test partition has no positive sessions; true positive rate reported as 0")
	}
	if !counts.SpecificityDefined() {
		s.logger.Warn("test partition has no negative sessions; true negative rate reported as 0")
	}
	s.logger.Info("evaluation finished",
		zap.String("classifier", report.Classifier),
		zap.Int64("seed", seed),
		zap.Int("train", report.TrainSize),
		zap.Int("test", report.TestSize))

	s.record(path, opts.K, seed, dataset.Len(), report)
	return report, nil
}

// record stores the run in the history database when one is configured.
// A failed write is logged, not returned.
func (s *session) record(path string, k int, seed int64, rows int, report *ml.Report) {
	if !s.persist {
		return
	}
	counts := report.Counts
	id, err := db.SaveEvaluation(&db.EvaluationRun{
		DataPath:       path,
		Classifier:     report.Classifier,
		K:              k,
		Seed:           seed,
		TestRatio:      s.cfg.Split.TestRatio,
		Rows:           rows,
		TrainSize:      report.TrainSize,
		TestSize:       report.TestSize,
		Correct:        counts.Correct(),
		Incorrect:      counts.Incorrect(),
		TruePositives:  counts.TruePositives,
		FalseNegatives: counts.FalseNegatives,
		TrueNegatives:  counts.TrueNegatives,
		FalsePositives: counts.FalsePositives,
		Sensitivity:    counts.Sensitivity(),
		Specificity:    counts.Specificity(),
	})
	if err != nil {
		s.logger.Error("save evaluation run", zap.Error(err))
		return
	}
	s.logger.Debug("evaluation run saved", zap.String("id", id))
}
