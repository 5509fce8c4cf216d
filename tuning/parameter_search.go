package tuning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"shopintent/ml"
)

// Metrics a search can rank by.
const (
	MetricBalancedAccuracy = "balanced_accuracy"
	MetricAccuracy         = "accuracy"
	MetricSensitivity      = "sensitivity"
	MetricSpecificity      = "specificity"
)

// SearchConfig configures a ParameterSearch.
type SearchConfig struct {
	Ks        []int                // candidate k values, tried in order
	Metric    string               // one of the Metric* constants
	TestRatio float64              // held-out share of rows
	Seed      int64                // split seed shared by every iteration
	Model     ml.ClassifierOptions // template; K is replaced per iteration
}

// SearchIteration records the outcome for one k.
type SearchIteration struct {
	ID       int           `json:"id"`
	K        int           `json:"k"`
	Metric   float64       `json:"metric"`
	Report   *ml.Report    `json:"report,omitempty"`
	Duration time.Duration `json:"duration"`
	Status   string        `json:"status"` // completed, failed
	Error    string        `json:"error,omitempty"`
}

// ParameterSearch is a grid search over k on a single train/test split.
type ParameterSearch struct {
	config     SearchConfig
	logger     *zap.Logger
	iterations []SearchIteration
}

func NewParameterSearch(config SearchConfig, logger *zap.Logger) *ParameterSearch {
	if config.Metric == "" {
		config.Metric = MetricBalancedAccuracy
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParameterSearch{config: config, logger: logger}
}

// Run evaluates every k and returns the best completed iteration.
func (p *ParameterSearch) Run(ctx context.Context, features [][]float64, labels []int) (*SearchIteration, error) {
	if len(p.config.Ks) == 0 {
		return nil, errors.New("no k values to search")
	}
	if _, err := metricValue(p.config.Metric, ml.ConfusionCounts{}); err != nil {
		return nil, err
	}
	split, err := ml.TrainTestSplit(features, labels, p.config.TestRatio, p.config.Seed)
	if err != nil {
		return nil, err
	}

	p.logger.Info("grid search started",
		zap.Ints("ks", p.config.Ks),
		zap.String("metric", p.config.Metric),
		zap.Int("train", len(split.TrainX)),
		zap.Int("test", len(split.TestX)))

	p.iterations = p.iterations[:0]
	best := -1
	for i, k := range p.config.Ks {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("parameter search cancelled: %w", ctx.Err())
		default:
		}

		iteration := p.runIteration(i+1, k, split)
		p.iterations = append(p.iterations, iteration)
		if iteration.Status != "completed" {
			p.logger.Warn("iteration failed", zap.Int("k", k), zap.String("error", iteration.Error))
			continue
		}
		if best < 0 || better(iteration, p.iterations[best]) {
			best = len(p.iterations) - 1
		}
		p.logger.Debug("iteration completed",
			zap.Int("k", k),
			zap.Float64("metric", iteration.Metric),
			zap.Duration("duration", iteration.Duration))
	}

	if best < 0 {
		return nil, errors.New("every iteration failed")
	}
	result := p.iterations[best]
	return &result, nil
}

func (p *ParameterSearch) runIteration(id, k int, split ml.Split) SearchIteration {
	start := time.Now()
	iteration := SearchIteration{ID: id, K: k}

	opts := p.config.Model
	opts.K = k
	clf, err := ml.NewClassifier(opts)
	if err == nil {
		iteration.Report, err = ml.Assess(clf, split)
	}
	if err == nil {
		iteration.Metric, err = metricValue(p.config.Metric, iteration.Report.Counts)
	}

	iteration.Duration = time.Since(start)
	if err != nil {
		iteration.Status = "failed"
		iteration.Error = err.Error()
		return iteration
	}
	iteration.Status = "completed"
	return iteration
}

// Iterations returns a copy of the last run's iterations in search order.
func (p *ParameterSearch) Iterations() []SearchIteration {
	return append([]SearchIteration(nil), p.iterations...)
}

// Top returns the n best completed iterations; ties prefer the smaller k.
func (p *ParameterSearch) Top(n int) []SearchIteration {
	completed := make([]SearchIteration, 0, len(p.iterations))
	for _, iteration := range p.iterations {
		if iteration.Status == "completed" {
			completed = append(completed, iteration)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return better(completed[i], completed[j])
	})
	if n > 0 && len(completed) > n {
		completed = completed[:n]
	}
	return completed
}

// better ranks a higher metric first and, on equal metrics, the smaller k.
func better(a, b SearchIteration) bool {
	if a.Metric != b.Metric {
		return a.Metric > b.Metric
	}
	return a.K < b.K
}

func metricValue(metric string, counts ml.ConfusionCounts) (float64, error) {
	switch metric {
	case MetricBalancedAccuracy:
		return counts.BalancedAccuracy(), nil
	case MetricAccuracy:
		return counts.Accuracy(), nil
	case MetricSensitivity:
		return counts.Sensitivity(), nil
	case MetricSpecificity:
		return counts.Specificity(), nil
	default:
		return 0, fmt.Errorf("unsupported metric %q", metric)
	}
}
