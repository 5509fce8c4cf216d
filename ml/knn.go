package ml

import (
	"encoding/binary"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/floats"
)

// KNN is a brute-force k-nearest-neighbor classifier using Euclidean distance.
// CacheSize > 0 memoises predictions for repeated query vectors.
type KNN struct {
	K         int
	CacheSize int
}

func NewKNN(k int) *KNN {
	return &KNN{K: k, CacheSize: 4096}
}

func (c *KNN) Name() string {
	return fmt.Sprintf("knn(k=%d)", c.K)
}

func (c *KNN) Fit(features [][]float64, labels []int) (Model, error) {
	dim, err := checkTrainingSet(features, labels)
	if err != nil {
		return nil, err
	}
	if c.K < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", c.K)
	}
	if c.K > len(features) {
		return nil, fmt.Errorf("k=%d exceeds training size %d", c.K, len(features))
	}

	model := &KNNModel{
		k:        c.K,
		dim:      dim,
		features: make([][]float64, len(features)),
		labels:   append([]int(nil), labels...),
	}
	for i, feature := range features {
		model.features[i] = append([]float64(nil), feature...)
	}
	if c.CacheSize > 0 {
		cache, err := lru.New[string, int](c.CacheSize)
		if err != nil {
			return nil, err
		}
		model.cache = cache
	}
	return model, nil
}

// KNNModel keeps the full training set; prediction scans it per query.
type KNNModel struct {
	k        int
	dim      int
	features [][]float64
	labels   []int
	cache    *lru.Cache[string, int]
}

type neighbor struct {
	dist  float64
	index int
}

func (m *KNNModel) Predict(features [][]float64) ([]int, error) {
	predictions := make([]int, len(features))
	for i, feature := range features {
		label, err := m.PredictOne(feature)
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i, err)
		}
		predictions[i] = label
	}
	return predictions, nil
}

func (m *KNNModel) PredictOne(feature []float64) (int, error) {
	if len(feature) != m.dim {
		return 0, ErrDimensionMismatch
	}
	var key string
	if m.cache != nil {
		key = vectorKey(feature)
		if label, ok := m.cache.Get(key); ok {
			return label, nil
		}
	}

	label := vote(m.nearest(feature), m.labels)
	if m.cache != nil {
		m.cache.Add(key, label)
	}
	return label, nil
}

// nearest returns the k closest training rows, closest first.
// Equal distances keep training order; NaN distances count as infinite.
func (m *KNNModel) nearest(feature []float64) []neighbor {
	best := make([]neighbor, 0, m.k)
	for i, candidate := range m.features {
		dist := floats.Distance(feature, candidate, 2)
		if math.IsNaN(dist) {
			// NaN compares false with everything; rank it last.
			dist = math.Inf(1)
		}
		if len(best) == m.k && dist >= best[len(best)-1].dist {
			continue
		}
		pos := len(best)
		for pos > 0 && best[pos-1].dist > dist {
			pos--
		}
		if len(best) < m.k {
			best = append(best, neighbor{})
		}
		copy(best[pos+1:], best[pos:len(best)-1])
		best[pos] = neighbor{dist: dist, index: i}
	}
	return best
}

// vote picks the majority label; among tied labels the one owning the closest neighbor wins.
func vote(neighbors []neighbor, labels []int) int {
	counts := make(map[int]int)
	maxCount := 0
	for _, n := range neighbors {
		label := labels[n.index]
		counts[label]++
		if counts[label] > maxCount {
			maxCount = counts[label]
		}
	}
	for _, n := range neighbors {
		if counts[labels[n.index]] == maxCount {
			return labels[n.index]
		}
	}
	return 0
}

func vectorKey(feature []float64) string {
	buf := make([]byte, 0, 8*len(feature))
	for _, v := range feature {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return string(buf)
}
