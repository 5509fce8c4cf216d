package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
)

// DecisionTree grows a binary gini tree, splitting each feature at its median.
type DecisionTree struct {
	MaxDepth int
}

func NewDecisionTree(maxDepth int) *DecisionTree {
	return &DecisionTree{MaxDepth: maxDepth}
}

func (dt *DecisionTree) Name() string {
	return fmt.Sprintf("decision_tree(depth=%d)", dt.MaxDepth)
}

func (dt *DecisionTree) Fit(features [][]float64, labels []int) (Model, error) {
	dim, err := checkTrainingSet(features, labels)
	if err != nil {
		return nil, err
	}
	maxDepth := dt.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &TreeModel{dim: dim, nodes: buildNode(features, labels, 0, maxDepth)}, nil
}

// TreeModel is a trained tree stored as a flat node array; node 0 is the root.
type TreeModel struct {
	dim   int
	nodes []TreeNode
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

type treeFile struct {
	Dim   int        `json:"dim"`
	Nodes []TreeNode `json:"nodes"`
}

func (m *TreeModel) Predict(features [][]float64) ([]int, error) {
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

func (m *TreeModel) PredictOne(feature []float64) (int, error) {
	if len(m.nodes) == 0 {
		return 0, ErrNotTrained
	}
	if len(feature) != m.dim {
		return 0, ErrDimensionMismatch
	}
	idx := 0
	for {
		node := m.nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, nil
		}
		if feature[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(m.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (m *TreeModel) Save(path string) error {
	if len(m.nodes) == 0 {
		return ErrNotTrained
	}
	payload, err := json.Marshal(treeFile{Dim: m.dim, Nodes: m.nodes})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func LoadTree(path string) (*TreeModel, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file treeFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, err
	}
	if len(file.Nodes) == 0 {
		return nil, ErrNotTrained
	}
	for _, node := range file.Nodes {
		if !node.IsLeaf && (node.FeatureIdx < 0 || node.FeatureIdx >= file.Dim) {
			return nil, errors.New("feature index out of range")
		}
	}
	return &TreeModel{dim: file.Dim, nodes: file.Nodes}, nil
}

func leaf(label int) []TreeNode {
	return []TreeNode{{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: label, IsLeaf: true}}
}

func buildNode(features [][]float64, labels []int, depth int, maxDepth int) []TreeNode {
	label := majorityLabel(labels)
	if depth >= maxDepth || isPure(labels) {
		return leaf(label)
	}

	bestFeature, threshold, ok := findBestSplit(features, labels)
	if !ok {
		return leaf(label)
	}

	leftFeatures, leftLabels, rightFeatures, rightLabels := splitData(features, labels, bestFeature, threshold)
	leftNodes := buildNode(leftFeatures, leftLabels, depth+1, maxDepth)
	rightNodes := buildNode(rightFeatures, rightLabels, depth+1, maxDepth)

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, TreeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		ClassLabel: label,
	})
	nodes = append(nodes, offsetChildren(leftNodes, 1)...)
	nodes = append(nodes, offsetChildren(rightNodes, 1+len(leftNodes))...)
	return nodes
}

// offsetChildren rebases subtree child indices after it is appended at offset.
func offsetChildren(nodes []TreeNode, offset int) []TreeNode {
	for i := range nodes {
		if nodes[i].IsLeaf {
			continue
		}
		nodes[i].LeftChild += offset
		nodes[i].RightChild += offset
	}
	return nodes
}

func findBestSplit(features [][]float64, labels []int) (int, float64, bool) {
	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64

	values := make([]float64, len(features))
	for featureIdx := 0; featureIdx < len(features[0]); featureIdx++ {
		for i := range features {
			values[i] = features[i][featureIdx]
		}
		threshold := median(values)
		leftLabels, rightLabels := splitLabels(features, labels, featureIdx, threshold)
		if len(leftLabels) == 0 || len(rightLabels) == 0 {
			continue
		}
		impurity := weightedGini(leftLabels, rightLabels)
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestFeature = featureIdx
			bestThreshold = threshold
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitData(features [][]float64, labels []int, featureIdx int, threshold float64) ([][]float64, []int, [][]float64, []int) {
	var leftFeatures, rightFeatures [][]float64
	var leftLabels, rightLabels []int
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftFeatures, leftLabels, rightFeatures, rightLabels
}

func splitLabels(features [][]float64, labels []int, featureIdx int, threshold float64) ([]int, []int) {
	var leftLabels, rightLabels []int
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftLabels, rightLabels
}

func weightedGini(leftLabels, rightLabels []int) float64 {
	leftWeight := float64(len(leftLabels))
	rightWeight := float64(len(rightLabels))
	total := leftWeight + rightWeight
	return (leftWeight/total)*gini(leftLabels) + (rightWeight/total)*gini(rightLabels)
}

func gini(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(len(labels))
		impurity -= prob * prob
	}
	return impurity
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func majorityLabel(labels []int) int {
	counts := make(map[int]int)
	bestLabel := 0
	bestCount := -1
	for _, label := range labels {
		counts[label]++
		if counts[label] > bestCount {
			bestCount = counts[label]
			bestLabel = label
		}
	}
	return bestLabel
}

func isPure(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	for _, label := range labels[1:] {
		if label != labels[0] {
			return false
		}
	}
	return true
}
