package mlmodel

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/floats"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// separableData places each class in its own band of the first feature;
// the other two features are noise.
func separableData(perClass int, seed int64) ([][]float64, []models.TextureClass) {
	rng := rand.New(rand.NewSource(seed))
	var X [][]float64
	var y []models.TextureClass
	for _, class := range models.AllTextureClasses() {
		for i := 0; i < perClass; i++ {
			X = append(X, []float64{
				float64(class)*10 + rng.Float64()*5,
				rng.Float64() * 100,
				rng.Float64() * 100,
			})
			y = append(y, class)
		}
	}
	return X, y
}

func trainSmallForest(t *testing.T, seed int64) *RandomForest {
	t.Helper()
	X, y := separableData(20, 1)
	rf, err := TrainRandomForest(X, y, seed, ForestOptions{
		NumTrees:     25,
		FeatureNames: models.FeatureNames,
	})
	require.NoError(t, err)
	return rf
}

func TestRandomForestProbabilities(t *testing.T) {
	rf := trainSmallForest(t, 42)

	X, y := separableData(5, 99)
	correct := 0
	for i, x := range X {
		proba, err := rf.PredictProba(x)
		require.NoError(t, err)
		require.Len(t, proba, models.NumTextureClasses)
		for _, p := range proba {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		}
		assert.InDelta(t, 1, floats.Sum(proba), 1e-6)

		predicted, _, err := rf.Predict(x)
		require.NoError(t, err)
		if predicted == y[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, float64(correct)/float64(len(X)), 0.8)
}

func TestRandomForestDeterministic(t *testing.T) {
	a := trainSmallForest(t, 7)
	b := trainSmallForest(t, 7)

	X, _ := separableData(3, 5)
	for _, x := range X {
		pa, err := a.PredictProba(x)
		require.NoError(t, err)
		pb, err := b.PredictProba(x)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
	assert.Equal(t, a.FeatureImportance(), b.FeatureImportance())
}

func TestRandomForestNotTrained(t *testing.T) {
	var rf *RandomForest
	_, err := rf.PredictProba([]float64{0, 0, 0})
	assert.True(t, errors.Is(err, models.ErrModelNotTrained))

	_, err = (&RandomForest{}).PredictProba([]float64{0, 0, 0})
	assert.True(t, errors.Is(err, models.ErrModelNotTrained))

	_, _, err = (&RandomForest{}).Predict([]float64{0, 0, 0})
	assert.True(t, errors.Is(err, models.ErrModelNotTrained))

	assert.Empty(t, rf.FeatureImportance())
}

func TestRandomForestFeatureMismatch(t *testing.T) {
	rf := trainSmallForest(t, 42)
	_, err := rf.PredictProba([]float64{1, 2})
	assert.Error(t, err)
}

func TestRandomForestTieBreak(t *testing.T) {
	// A single stump whose only leaf splits evenly between Loam and Clay.
	var dist [numClasses]float64
	dist[models.Clay] = 0.5
	dist[models.Loam] = 0.5
	rf := &RandomForest{
		trees:       []*DecisionTree{{root: &DecisionTreeNode{IsLeaf: true, Distribution: dist}}},
		numFeatures: 3,
	}

	predicted, proba, err := rf.Predict([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, models.Loam, predicted, "ties go to the earlier class")
	assert.Equal(t, 0.5, proba[models.Clay])
}

func TestRandomForestFeatureImportance(t *testing.T) {
	rf := trainSmallForest(t, 42)
	importance := rf.FeatureImportance()

	require.Len(t, importance, len(models.FeatureNames))
	total := 0.0
	for _, v := range importance {
		assert.GreaterOrEqual(t, v, 0.0)
		total += v
	}
	assert.InDelta(t, 1, total, 1e-9)
	// Only clay separates the classes.
	assert.Greater(t, importance[models.FeatureClay], importance[models.FeatureSilt])
	assert.Greater(t, importance[models.FeatureClay], importance[models.FeatureSand])
}

func TestRandomForestInfo(t *testing.T) {
	rf := trainSmallForest(t, 42)
	info := rf.Info()
	assert.Equal(t, 25, info.NumTrees)
	assert.Equal(t, 3, info.NumFeatures)
	assert.Equal(t, 1, info.MaxFeatures, "floor(sqrt(3))")
	assert.Equal(t, int64(42), info.Seed)
	assert.Positive(t, info.AvgDepth)
	assert.Greater(t, info.AvgNodes, 1.0)
}

func TestRandomForestMaxDepth(t *testing.T) {
	X, y := separableData(20, 1)
	rf, err := TrainRandomForest(X, y, 42, ForestOptions{NumTrees: 10, MaxDepth: 2})
	require.NoError(t, err)
	for _, tree := range rf.trees {
		assert.LessOrEqual(t, tree.Depth(), 2)
	}
}

func TestTrainRandomForestErrors(t *testing.T) {
	X, y := separableData(2, 1)

	_, err := TrainRandomForest(nil, nil, 42, ForestOptions{})
	assert.Error(t, err)

	_, err = TrainRandomForest(X, y[:3], 42, ForestOptions{})
	assert.Error(t, err)

	bad := append([]models.TextureClass(nil), y...)
	bad[0] = models.TextureClass(17)
	_, err = TrainRandomForest(X, bad, 42, ForestOptions{})
	assert.Error(t, err)

	nan := [][]float64{{math.NaN(), 1, 2}}
	_, err = TrainRandomForest(nan, []models.TextureClass{models.Clay}, 42, ForestOptions{})
	assert.Error(t, err)

	_, err = TrainRandomForest(X, y, 42, ForestOptions{FeatureNames: []string{"only_one"}})
	assert.Error(t, err)
}

func TestGini(t *testing.T) {
	var pure [numClasses]int
	pure[models.Clay] = 10
	assert.Equal(t, 0.0, gini(pure, 10))

	var even [numClasses]int
	even[models.Clay] = 5
	even[models.Loam] = 5
	assert.InDelta(t, 0.5, gini(even, 10), 1e-12)

	assert.Equal(t, 0.0, gini([numClasses]int{}, 0))
}
