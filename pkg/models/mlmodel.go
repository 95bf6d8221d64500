package models

import (
	"fmt"
	"time"
)

// ModelType represents the type of ML model
type ModelType string

const (
	ModelTypeRandomForest ModelType = "random_forest"
)

// TrainingConfig holds configuration for model training
type TrainingConfig struct {
	TestFraction    float64 `json:"test_fraction" yaml:"test_fraction"` // e.g., 0.2 for an 80/20 split
	RandomSeed      int64   `json:"random_seed" yaml:"random_seed"`
	NumTrees        int     `json:"num_trees" yaml:"num_trees"`
	MaxDepth        int     `json:"max_depth,omitempty" yaml:"max_depth"` // 0 = grow until pure
	MinSamplesSplit int     `json:"min_samples_split,omitempty" yaml:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf,omitempty" yaml:"min_samples_leaf"`
}

// DefaultTrainingConfig mirrors the reference pipeline: 100 trees, seed 42,
// 20% held out.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		TestFraction:    0.2,
		RandomSeed:      42,
		NumTrees:        100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// Validate checks the training configuration
func (c TrainingConfig) Validate() error {
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be in (0,1), got %g", c.TestFraction)
	}
	if c.NumTrees <= 0 {
		return fmt.Errorf("num_trees must be positive, got %d", c.NumTrees)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

// ClassMetrics holds held-out metrics for one texture class
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// PerformanceMetrics holds model performance on the held-out split
type PerformanceMetrics struct {
	Accuracy        float64                               `json:"accuracy"`
	PerClass        map[TextureClass]ClassMetrics         `json:"per_class,omitempty"`
	ConfusionMatrix map[TextureClass]map[TextureClass]int `json:"confusion_matrix,omitempty"`
	Summary         string                                `json:"-"`
}

// ScalerParams exposes the fitted standardization parameters
type ScalerParams struct {
	FeatureNames []string  `json:"feature_names"`
	Means        []float64 `json:"means"`
	StdDevs      []float64 `json:"std_devs"`
}

// TrainingRun describes one completed training pass
type TrainingRun struct {
	ID                 string              `json:"id"`
	ModelType          ModelType           `json:"model_type"`
	DatasetPath        string              `json:"dataset_path"`
	Config             TrainingConfig      `json:"config"`
	TrainSize          int                 `json:"train_size"`
	TestSize           int                 `json:"test_size"`
	Scaler             ScalerParams        `json:"scaler"`
	FeatureImportance  map[string]float64  `json:"feature_importance"`
	PerformanceMetrics *PerformanceMetrics `json:"performance_metrics,omitempty"`
	Duration           time.Duration       `json:"duration"`
	TrainedAt          time.Time           `json:"trained_at"`
}

// PredictionRecord is a prediction kept in the history store
type PredictionRecord struct {
	ID            string       `json:"id"`
	RunID         string       `json:"run_id"`
	Sample        SoilSample   `json:"sample"`
	Texture       TextureClass `json:"texture"`
	ConfidencePct float64      `json:"confidence_pct"`
	CreatedAt     time.Time    `json:"created_at"`
}
