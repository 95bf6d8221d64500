package mlmodel

import (
	"fmt"
	"math"

	"github.com/sjwhitworth/golearn/evaluation"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

// Evaluate scores the forest on held-out, already scaled rows. Metrics are
// computed with golearn's confusion matrix helpers keyed by texture code.
func Evaluate(rf *RandomForest, X [][]float64, y []models.TextureClass) (*models.PerformanceMetrics, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("empty evaluation data")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("X and y must have same number of samples: %d vs %d", len(X), len(y))
	}

	cm := evaluation.ConfusionMatrix{}
	matrix := make(map[models.TextureClass]map[models.TextureClass]int)
	support := make(map[models.TextureClass]int)

	for i, x := range X {
		predicted, _, err := rf.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("evaluation row %d: %w", i, err)
		}
		actual := y[i]

		if cm[actual.Code()] == nil {
			cm[actual.Code()] = make(map[string]int)
		}
		cm[actual.Code()][predicted.Code()]++

		if matrix[actual] == nil {
			matrix[actual] = make(map[models.TextureClass]int)
		}
		matrix[actual][predicted]++
		support[actual]++
	}

	metrics := &models.PerformanceMetrics{
		Accuracy:        evaluation.GetAccuracy(cm),
		PerClass:        make(map[models.TextureClass]models.ClassMetrics, len(support)),
		ConfusionMatrix: matrix,
		Summary:         evaluation.GetSummary(cm),
	}
	for class, n := range support {
		code := class.Code()
		metrics.PerClass[class] = models.ClassMetrics{
			Precision: finite(evaluation.GetPrecision(code, cm)),
			Recall:    finite(evaluation.GetRecall(code, cm)),
			F1Score:   finite(evaluation.GetF1Score(code, cm)),
			Support:   n,
		}
	}

	return metrics, nil
}

// finite maps the NaN golearn yields for 0/0 ratios to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
