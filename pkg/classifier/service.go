// Package classifier is the inference entry point: it validates soil
// samples, runs them through the fitted scaler and forest and joins the
// result with the recommendation table.
package classifier

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/mimir-aip/soil-texture/pkg/models"
	"github.com/mimir-aip/soil-texture/pkg/recommendation"
)

// FeatureScaler standardizes a raw feature vector.
type FeatureScaler interface {
	Transform(x []float64) ([]float64, error)
}

// ProbabilityModel returns one probability per TextureClass.
type ProbabilityModel interface {
	PredictProba(x []float64) ([]float64, error)
}

// Service holds a fitted scaler and model for the lifetime of the process.
// Nothing in a Service changes after construction, so one instance can be
// shared by concurrent callers.
type Service struct {
	scaler FeatureScaler
	model  ProbabilityModel
	run    *models.TrainingRun
	logger *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTrainingRun attaches the summary of the training pass that produced
// the scaler and model.
func WithTrainingRun(run *models.TrainingRun) Option {
	return func(s *Service) {
		s.run = run
	}
}

// NewService wires an already fitted scaler and model.
func NewService(scaler FeatureScaler, model ProbabilityModel, opts ...Option) (*Service, error) {
	if scaler == nil || model == nil {
		return nil, models.ErrModelNotTrained
	}
	s := &Service{
		scaler: scaler,
		model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Predict validates sample and returns the most probable texture class with
// its confidence. An invalid sample is rejected before the scaler or model
// is touched.
func (s *Service) Predict(sample models.SoilSample) (*models.Prediction, error) {
	if s == nil || s.scaler == nil || s.model == nil {
		return nil, models.ErrModelNotTrained
	}
	if err := sample.Validate(); err != nil {
		s.logger.Debug("rejected soil sample", zap.Error(err))
		return nil, err
	}

	scaled, err := s.scaler.Transform(sample.Features())
	if err != nil {
		return nil, fmt.Errorf("failed to scale sample: %w", err)
	}
	proba, err := s.model.PredictProba(scaled)
	if err != nil {
		return nil, fmt.Errorf("failed to predict texture: %w", err)
	}
	if len(proba) != models.NumTextureClasses {
		return nil, fmt.Errorf("model returned %d probabilities, expected %d", len(proba), models.NumTextureClasses)
	}

	best := floats.MaxIdx(proba)
	texture := models.TextureClass(best)
	confidence := math.Min(100, math.Max(0, proba[best]*100))

	s.logger.Debug("predicted texture",
		zap.Float64("clay_pct", sample.ClayPct),
		zap.Float64("silt_pct", sample.SiltPct),
		zap.Float64("sand_pct", sample.SandPct),
		zap.String("texture", texture.Code()),
		zap.Float64("confidence_pct", confidence),
	)

	return &models.Prediction{
		Texture:       texture,
		Label:         texture.Label(),
		ConfidencePct: confidence,
		Probabilities: append([]float64(nil), proba...),
	}, nil
}

// Recommendation returns the agronomic record for t.
func (s *Service) Recommendation(t models.TextureClass) models.RecommendationRecord {
	return recommendation.Lookup(t)
}

// Diagnose predicts the texture of sample and attaches its recommendation.
func (s *Service) Diagnose(sample models.SoilSample) (*models.Diagnosis, error) {
	prediction, err := s.Predict(sample)
	if err != nil {
		return nil, err
	}
	return &models.Diagnosis{
		Sample:         sample,
		Prediction:     prediction,
		Recommendation: recommendation.Lookup(prediction.Texture),
	}, nil
}

// TrainingRun returns a copy of the training summary, or nil when the
// service was assembled without one.
func (s *Service) TrainingRun() *models.TrainingRun {
	if s == nil || s.run == nil {
		return nil
	}
	run := *s.run
	return &run
}
