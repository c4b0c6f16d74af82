package ml

import (
	"errors"
	"fmt"

	"wine-classifier/internal/features"
)

// TreeNode is one node of a serialized decision tree. Inner nodes send a row
// left when features[FeatureIdx] <= Threshold.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// DecisionTree evaluates a node array rooted at index 0.
type DecisionTree struct {
	nodes []TreeNode
}

// NewDecisionTree validates nodes and builds the predictor. Children must sit
// after their parent in the array, which rules out cycles.
func NewDecisionTree(nodes []TreeNode) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("decision tree has no nodes")
	}
	width := len(features.InputSchema)
	for i, n := range nodes {
		if n.IsLeaf {
			continue
		}
		if n.FeatureIdx < 0 || n.FeatureIdx >= width {
			return nil, fmt.Errorf("node %d: feature index %d out of range [0,%d)", i, n.FeatureIdx, width)
		}
		for _, child := range []int{n.LeftChild, n.RightChild} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("node %d: invalid child index %d", i, child)
			}
		}
	}
	return &DecisionTree{nodes: nodes}, nil
}

// Predict walks the tree from the root to a leaf.
func (dt *DecisionTree) Predict(in features.ModelInput) (Label, error) {
	row := in.Values()
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return Label(node.ClassLabel), nil
		}
		if row[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (dt *DecisionTree) Depth() int {
	var walk func(idx int) int
	walk = func(idx int) int {
		n := dt.nodes[idx]
		if n.IsLeaf {
			return 0
		}
		return 1 + max(walk(n.LeftChild), walk(n.RightChild))
	}
	return walk(0)
}
