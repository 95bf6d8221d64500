package metadatastore

import (
	"time"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

// MetadataStore persists training run summaries and the prediction history.
// It sits outside the classifier core: callers record what the core returns.
type MetadataStore interface {
	// Training run operations
	SaveTrainingRun(run *models.TrainingRun) error
	GetTrainingRun(id string) (*models.TrainingRun, error)
	LatestTrainingRun() (*models.TrainingRun, error)

	// Prediction history operations
	SavePrediction(record *models.PredictionRecord) error
	GetPrediction(id string) (*models.PredictionRecord, error)
	ListPredictions(limit int) ([]*models.PredictionRecord, error)
	DeletePredictionsBefore(cutoff time.Time) (int64, error)

	Close() error
}
