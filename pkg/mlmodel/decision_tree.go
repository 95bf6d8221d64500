package mlmodel

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

const numClasses = models.NumTextureClasses

// DecisionTreeNode represents a node in the decision tree
type DecisionTreeNode struct {
	IsLeaf       bool
	FeatureIndex int     // Index of feature to split on
	Threshold    float64 // Split threshold, samples <= go left
	Left         *DecisionTreeNode
	Right        *DecisionTreeNode
	SamplesCount int
	Depth        int
	// Distribution holds class frequencies at the node, indexed by TextureClass.
	Distribution [numClasses]float64
}

// DecisionTree is a CART classification tree using Gini impurity.
type DecisionTree struct {
	root            *DecisionTreeNode
	maxDepth        int // 0 = unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	numFeatures     int
	importance      []float64
	rng             *rand.Rand
}

func newDecisionTree(maxDepth, minSamplesSplit, minSamplesLeaf, maxFeatures int, rng *rand.Rand) *DecisionTree {
	if minSamplesSplit < 2 {
		minSamplesSplit = 2
	}
	if minSamplesLeaf < 1 {
		minSamplesLeaf = 1
	}
	return &DecisionTree{
		maxDepth:        maxDepth,
		minSamplesSplit: minSamplesSplit,
		minSamplesLeaf:  minSamplesLeaf,
		maxFeatures:     maxFeatures,
		rng:             rng,
	}
}

// fit grows the tree on the rows of X selected by indices. indices may
// contain duplicates (bootstrap samples).
func (dt *DecisionTree) fit(X [][]float64, y []models.TextureClass, indices []int) error {
	if len(indices) == 0 {
		return fmt.Errorf("empty training data")
	}
	dt.numFeatures = len(X[0])
	if dt.maxFeatures <= 0 || dt.maxFeatures > dt.numFeatures {
		dt.maxFeatures = dt.numFeatures
	}
	dt.importance = make([]float64, dt.numFeatures)
	dt.root = dt.buildTree(X, y, indices, 0)
	return nil
}

// buildTree recursively builds the decision tree
func (dt *DecisionTree) buildTree(X [][]float64, y []models.TextureClass, indices []int, depth int) *DecisionTreeNode {
	counts := countClasses(y, indices)
	n := len(indices)

	node := &DecisionTreeNode{
		SamplesCount: n,
		Depth:        depth,
	}
	for c, count := range counts {
		node.Distribution[c] = float64(count) / float64(n)
	}

	// Check stopping criteria
	if (dt.maxDepth > 0 && depth >= dt.maxDepth) ||
		n < dt.minSamplesSplit ||
		n < 2*dt.minSamplesLeaf ||
		isPure(counts) {
		node.IsLeaf = true
		return node
	}

	split, ok := dt.findBestSplit(X, y, indices, counts)
	if !ok {
		node.IsLeaf = true
		return node
	}

	leftIndices, rightIndices := splitData(X, indices, split.feature, split.threshold)

	dt.importance[split.feature] += float64(n)*gini(counts, n) -
		float64(len(leftIndices))*split.leftGini -
		float64(len(rightIndices))*split.rightGini

	node.FeatureIndex = split.feature
	node.Threshold = split.threshold
	node.Left = dt.buildTree(X, y, leftIndices, depth+1)
	node.Right = dt.buildTree(X, y, rightIndices, depth+1)

	return node
}

type candidateSplit struct {
	feature   int
	threshold float64
	gain      float64
	leftGini  float64
	rightGini float64
}

// findBestSplit draws features in random order and evaluates at least
// maxFeatures non-constant ones, continuing past that only while no
// improving split has been found.
func (dt *DecisionTree) findBestSplit(X [][]float64, y []models.TextureClass, indices []int, parent [numClasses]int) (candidateSplit, bool) {
	n := len(indices)
	parentGini := gini(parent, n)

	best := candidateSplit{feature: -1}
	found := false
	visited := 0

	sorted := make([]int, n)
	for _, feature := range dt.rng.Perm(dt.numFeatures) {
		if visited >= dt.maxFeatures && found {
			break
		}

		copy(sorted, indices)
		slices.SortFunc(sorted, func(a, b int) int {
			if X[a][feature] < X[b][feature] {
				return -1
			}
			if X[a][feature] > X[b][feature] {
				return 1
			}
			return a - b
		})
		if X[sorted[0]][feature] == X[sorted[n-1]][feature] {
			continue
		}
		visited++

		var left [numClasses]int
		right := parent
		for k := 0; k < n-1; k++ {
			label := y[sorted[k]]
			left[label]++
			right[label]--

			current, next := X[sorted[k]][feature], X[sorted[k+1]][feature]
			if current == next {
				continue
			}
			nLeft := k + 1
			nRight := n - nLeft
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			leftGini := gini(left, nLeft)
			rightGini := gini(right, nRight)
			weighted := (float64(nLeft)*leftGini + float64(nRight)*rightGini) / float64(n)
			gain := parentGini - weighted

			if gain > best.gain+1e-12 {
				best = candidateSplit{
					feature:   feature,
					threshold: (current + next) / 2,
					gain:      gain,
					leftGini:  leftGini,
					rightGini: rightGini,
				}
				found = true
			}
		}
	}

	return best, found
}

// splitData splits indices based on feature and threshold
func splitData(X [][]float64, indices []int, feature int, threshold float64) ([]int, []int) {
	var leftIndices, rightIndices []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			leftIndices = append(leftIndices, idx)
		} else {
			rightIndices = append(rightIndices, idx)
		}
	}
	return leftIndices, rightIndices
}

// leaf returns the leaf reached by x
func (dt *DecisionTree) leaf(x []float64) *DecisionTreeNode {
	node := dt.root
	for !node.IsLeaf {
		if x[node.FeatureIndex] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// Depth returns the maximum depth of the tree
func (dt *DecisionTree) Depth() int {
	return nodeDepth(dt.root)
}

func nodeDepth(node *DecisionTreeNode) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return node.Depth
	}
	return max(nodeDepth(node.Left), nodeDepth(node.Right))
}

// NumNodes returns the total number of nodes in the tree
func (dt *DecisionTree) NumNodes() int {
	return countNodes(dt.root)
}

func countNodes(node *DecisionTreeNode) int {
	if node == nil {
		return 0
	}
	return 1 + countNodes(node.Left) + countNodes(node.Right)
}

// normalizedImportance returns the tree's impurity decrease per feature
// scaled to sum to 1, or all zeros for a single-leaf tree.
func (dt *DecisionTree) normalizedImportance() []float64 {
	out := make([]float64, len(dt.importance))
	total := 0.0
	for _, v := range dt.importance {
		total += v
	}
	if total <= 0 {
		return out
	}
	for i, v := range dt.importance {
		out[i] = v / total
	}
	return out
}

func countClasses(y []models.TextureClass, indices []int) [numClasses]int {
	var counts [numClasses]int
	for _, idx := range indices {
		counts[y[idx]]++
	}
	return counts
}

func isPure(counts [numClasses]int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// gini calculates the Gini impurity of a class histogram
func gini(counts [numClasses]int, n int) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		impurity -= p * p
	}
	return impurity
}
