// Package mlmodel holds the feature scaler and the random forest
// classifier used to predict soil texture classes.
package mlmodel

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

// ForestOptions configures random forest training
type ForestOptions struct {
	NumTrees        int
	MaxDepth        int // 0 = grow until leaves are pure
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 = floor(sqrt(numFeatures)), at least 1
	FeatureNames    []string
	Logger          *zap.Logger
}

// RandomForest is a bagged ensemble of decision trees. It is immutable once
// TrainRandomForest returns and safe for concurrent prediction.
type RandomForest struct {
	trees        []*DecisionTree
	featureNames []string
	numFeatures  int
	maxFeatures  int
	seed         int64
}

// TrainRandomForest grows opts.NumTrees trees, each on a bootstrap sample
// of (X, y). Per-tree seeds are drawn from seed before any tree is grown,
// so the forest does not depend on goroutine scheduling.
func TrainRandomForest(X [][]float64, y []models.TextureClass, seed int64, opts ForestOptions) (*RandomForest, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("X and y must have same number of samples: %d vs %d", len(X), len(y))
	}
	numFeatures := len(X[0])
	if numFeatures == 0 {
		return nil, fmt.Errorf("training data has no features")
	}
	for i, row := range X {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), numFeatures)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("row %d has a non-finite feature value", i)
			}
		}
		if !y[i].Valid() {
			return nil, fmt.Errorf("row %d has invalid label %d", i, int(y[i]))
		}
	}

	featureNames := opts.FeatureNames
	if featureNames == nil {
		featureNames = make([]string, numFeatures)
		for j := range featureNames {
			featureNames[j] = fmt.Sprintf("feature_%d", j)
		}
	}
	if len(featureNames) != numFeatures {
		return nil, fmt.Errorf("feature names must match number of features")
	}

	numTrees := opts.NumTrees
	if numTrees <= 0 {
		numTrees = 100
	}
	maxFeatures := opts.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(numFeatures))))
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	master := rand.New(rand.NewSource(seed))
	treeSeeds := make([]int64, numTrees)
	for i := range treeSeeds {
		treeSeeds[i] = master.Int63()
	}

	rf := &RandomForest{
		trees:        make([]*DecisionTree, numTrees),
		featureNames: append([]string(nil), featureNames...),
		numFeatures:  numFeatures,
		maxFeatures:  maxFeatures,
		seed:         seed,
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range numTrees {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(treeSeeds[i]))
			tree := newDecisionTree(opts.MaxDepth, opts.MinSamplesSplit, opts.MinSamplesLeaf, maxFeatures, rng)
			if err := tree.fit(X, y, bootstrapIndices(len(X), rng)); err != nil {
				return fmt.Errorf("tree %d training failed: %w", i, err)
			}
			rf.trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("random forest trained",
		zap.Int("trees", numTrees),
		zap.Int("samples", len(X)),
		zap.Int("max_features", maxFeatures),
		zap.Int64("seed", seed),
	)
	return rf, nil
}

// bootstrapIndices draws n row indices with replacement
func bootstrapIndices(n int, rng *rand.Rand) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.Intn(n)
	}
	return indices
}

// PredictProba returns one probability per TextureClass, in canonical
// order: the mean over trees of the class frequencies at the reached leaf.
func (rf *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if rf == nil || len(rf.trees) == 0 {
		return nil, models.ErrModelNotTrained
	}
	if len(x) != rf.numFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", rf.numFeatures, len(x))
	}

	proba := make([]float64, numClasses)
	for _, tree := range rf.trees {
		leaf := tree.leaf(x)
		floats.Add(proba, leaf.Distribution[:])
	}
	floats.Scale(1/float64(len(rf.trees)), proba)
	return proba, nil
}

// Predict returns the most probable class and the full probability vector.
// Ties go to the class that comes first in canonical order.
func (rf *RandomForest) Predict(x []float64) (models.TextureClass, []float64, error) {
	proba, err := rf.PredictProba(x)
	if err != nil {
		return 0, nil, err
	}
	return models.TextureClass(floats.MaxIdx(proba)), proba, nil
}

// FeatureImportance returns the mean impurity decrease per feature,
// normalized to sum to 1.
func (rf *RandomForest) FeatureImportance() map[string]float64 {
	if rf == nil || len(rf.trees) == 0 {
		return map[string]float64{}
	}
	importance := make(map[string]float64, len(rf.featureNames))

	total := make([]float64, rf.numFeatures)
	for _, tree := range rf.trees {
		floats.Add(total, tree.normalizedImportance())
	}
	if sum := floats.Sum(total); sum > 0 {
		floats.Scale(1/sum, total)
	}
	for j, name := range rf.featureNames {
		importance[name] = total[j]
	}
	return importance
}

// ForestInfo summarizes a trained forest
type ForestInfo struct {
	NumTrees     int      `json:"num_trees"`
	NumFeatures  int      `json:"num_features"`
	MaxFeatures  int      `json:"max_features"`
	AvgDepth     float64  `json:"avg_tree_depth"`
	AvgNodes     float64  `json:"avg_nodes_per_tree"`
	FeatureNames []string `json:"feature_names"`
	Seed         int64    `json:"seed"`
}

// Info returns summary information about the random forest
func (rf *RandomForest) Info() ForestInfo {
	info := ForestInfo{
		NumTrees:     len(rf.trees),
		NumFeatures:  rf.numFeatures,
		MaxFeatures:  rf.maxFeatures,
		FeatureNames: append([]string(nil), rf.featureNames...),
		Seed:         rf.seed,
	}
	if len(rf.trees) == 0 {
		return info
	}
	for _, tree := range rf.trees {
		info.AvgDepth += float64(tree.Depth())
		info.AvgNodes += float64(tree.NumNodes())
	}
	info.AvgDepth /= float64(len(rf.trees))
	info.AvgNodes /= float64(len(rf.trees))
	return info
}
