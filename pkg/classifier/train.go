package classifier

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mimir-aip/soil-texture/pkg/dataset"
	"github.com/mimir-aip/soil-texture/pkg/mlmodel"
	"github.com/mimir-aip/soil-texture/pkg/models"
)

// TrainOptions describes where the dataset lives and how to train on it.
type TrainOptions struct {
	DatasetPath string
	Dataset     dataset.Options
	Training    models.TrainingConfig
}

// Train loads the dataset and builds a Service. It returns either a fully
// trained Service or an error, never a partial one.
func Train(opts TrainOptions, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	records, err := dataset.Load(opts.DatasetPath, opts.Dataset)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded",
		zap.String("path", opts.DatasetPath),
		zap.Int("records", len(records)),
	)

	svc, err := TrainRecords(records, opts.Training, logger)
	if err != nil {
		return nil, err
	}
	svc.run.DatasetPath = opts.DatasetPath
	return svc, nil
}

// TrainRecords splits records, fits the scaler on the training part, grows
// the forest and evaluates it on the held-out part.
func TrainRecords(records []models.TrainingRecord, cfg models.TrainingConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	start := time.Now()

	train, test, err := dataset.Split(records, cfg.TestFraction, cfg.RandomSeed)
	if err != nil {
		return nil, err
	}
	trainX, trainY := dataset.Matrix(train)
	testX, testY := dataset.Matrix(test)

	scaler, err := mlmodel.FitScaler(trainX, models.FeatureNames)
	if err != nil {
		return nil, err
	}
	scaledTrain, err := scaler.TransformAll(trainX)
	if err != nil {
		return nil, fmt.Errorf("failed to scale training split: %w", err)
	}
	scaledTest, err := scaler.TransformAll(testX)
	if err != nil {
		return nil, fmt.Errorf("failed to scale test split: %w", err)
	}

	forest, err := mlmodel.TrainRandomForest(scaledTrain, trainY, cfg.RandomSeed, mlmodel.ForestOptions{
		NumTrees:        cfg.NumTrees,
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: cfg.MinSamplesSplit,
		MinSamplesLeaf:  cfg.MinSamplesLeaf,
		FeatureNames:    models.FeatureNames,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to train random forest: %w", err)
	}

	metrics, err := mlmodel.Evaluate(forest, scaledTest, testY)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate random forest: %w", err)
	}

	run := &models.TrainingRun{
		ID:                 uuid.New().String(),
		ModelType:          models.ModelTypeRandomForest,
		Config:             cfg,
		TrainSize:          len(train),
		TestSize:           len(test),
		Scaler:             scaler.Params(),
		FeatureImportance:  forest.FeatureImportance(),
		PerformanceMetrics: metrics,
		Duration:           time.Since(start),
		TrainedAt:          time.Now().UTC(),
	}

	logger.Info("model trained",
		zap.String("run_id", run.ID),
		zap.Int("train_size", run.TrainSize),
		zap.Int("test_size", run.TestSize),
		zap.Int("trees", cfg.NumTrees),
		zap.Int64("seed", cfg.RandomSeed),
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Duration("duration", run.Duration),
	)

	return NewService(scaler, forest, WithLogger(logger), WithTrainingRun(run))
}
