package mlmodel

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

// Scaler standardizes features to zero mean and unit variance using
// parameters fit once on the training split. A Scaler is never modified
// after FitScaler returns and is safe for concurrent use.
type Scaler struct {
	featureNames []string
	means        []float64
	stdDevs      []float64
}

// FitScaler computes the per-feature mean and population standard
// deviation of X. A feature with zero standard deviation cannot be
// standardized and fails the fit with a DataLoadError.
func FitScaler(X [][]float64, featureNames []string) (*Scaler, error) {
	if len(X) == 0 {
		return nil, &models.DataLoadError{Reason: "cannot fit scaler on an empty training split"}
	}
	numFeatures := len(X[0])
	if len(featureNames) != numFeatures {
		return nil, fmt.Errorf("feature names must match number of features: %d names, %d features", len(featureNames), numFeatures)
	}

	s := &Scaler{
		featureNames: append([]string(nil), featureNames...),
		means:        make([]float64, numFeatures),
		stdDevs:      make([]float64, numFeatures),
	}

	column := make([]float64, len(X))
	for j := 0; j < numFeatures; j++ {
		for i, row := range X {
			if len(row) != numFeatures {
				return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), numFeatures)
			}
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			return nil, &models.DataLoadError{
				Column: featureNames[j],
				Reason: "feature is constant across the training split and cannot be standardized",
			}
		}
		s.means[j] = mean
		s.stdDevs[j] = std
	}

	return s, nil
}

// Transform returns (x - mean) / std for each feature in a new slice.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if s == nil || len(s.means) == 0 {
		return nil, fmt.Errorf("scaler: %w", models.ErrModelNotTrained)
	}
	if len(x) != len(s.means) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.means), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.means[j]) / s.stdDevs[j]
	}
	return out, nil
}

// TransformAll applies Transform to every row of X.
func (s *Scaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

// Params returns a copy of the fitted parameters.
func (s *Scaler) Params() models.ScalerParams {
	return models.ScalerParams{
		FeatureNames: append([]string(nil), s.featureNames...),
		Means:        append([]float64(nil), s.means...),
		StdDevs:      append([]float64(nil), s.stdDevs...),
	}
}
