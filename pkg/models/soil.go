package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Feature names in the order the classifier consumes them.
const (
	FeatureClay = "clay_pct"
	FeatureSilt = "silt_pct"
	FeatureSand = "sand_pct"
)

// FeatureNames lists the model features in canonical order.
var FeatureNames = []string{FeatureClay, FeatureSilt, FeatureSand}

// SoilSample is a soil composition in percent.
type SoilSample struct {
	ClayPct float64 `json:"clay_pct"`
	SiltPct float64 `json:"silt_pct"`
	SandPct float64 `json:"sand_pct"`
}

// Features returns the sample as a feature vector in FeatureNames order.
func (s SoilSample) Features() []float64 {
	return []float64{s.ClayPct, s.SiltPct, s.SandPct}
}

// Total returns the unchecked sum of the three fractions.
func (s SoilSample) Total() float64 {
	return s.ClayPct + s.SiltPct + s.SandPct
}

// Validate checks that every fraction is in [0,100] with at most two
// decimals and that the fractions sum to exactly 100. The sum is compared
// in integer hundredths so no tolerance band is involved.
func (s SoilSample) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{FeatureClay, s.ClayPct},
		{FeatureSilt, s.SiltPct},
		{FeatureSand, s.SandPct},
	}

	var total int64
	for _, f := range fields {
		if math.IsNaN(f.value) || f.value < 0 || f.value > 100 {
			return &ValidationError{
				Constraint: ConstraintRange,
				Field:      f.name,
				Message:    fmt.Sprintf("%s must be between 0 and 100, got %g", f.name, f.value),
			}
		}
		if decimalPlaces(f.value) > 2 {
			return &ValidationError{
				Constraint: ConstraintPrecision,
				Field:      f.name,
				Message:    fmt.Sprintf("%s must have at most two decimal places, got %g", f.name, f.value),
			}
		}
		total += int64(math.Round(f.value * 100))
	}

	if total != 10000 {
		return &ValidationError{
			Constraint: ConstraintSum,
			Message:    fmt.Sprintf("sum must equal 100, got %s", strconv.FormatFloat(float64(total)/100, 'f', -1, 64)),
		}
	}
	return nil
}

// decimalPlaces counts the fraction digits of the shortest decimal form
// of v, so 0.1 has one and 25.0000000001 has ten.
func decimalPlaces(v float64) int {
	text := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(text, '.'); i >= 0 {
		return len(text) - i - 1
	}
	return 0
}

// TrainingRecord is one labeled row of the training dataset.
type TrainingRecord struct {
	ClayPct float64
	SiltPct float64
	SandPct float64
	Texture TextureClass
}

// Features returns the record's composition as a feature vector.
func (r TrainingRecord) Features() []float64 {
	return []float64{r.ClayPct, r.SiltPct, r.SandPct}
}

// Prediction is the classifier output for one sample.
type Prediction struct {
	Texture       TextureClass `json:"texture"`
	Label         string       `json:"label"`
	ConfidencePct float64      `json:"confidence_pct"`
	// Probabilities is indexed by TextureClass.
	Probabilities []float64 `json:"probabilities"`
}

// ProbabilityOf returns the predicted probability of class t.
func (p *Prediction) ProbabilityOf(t TextureClass) float64 {
	if p == nil || !t.Valid() || int(t) >= len(p.Probabilities) {
		return 0
	}
	return p.Probabilities[t]
}

// RecommendationRecord holds the agronomic advice for one texture class.
type RecommendationRecord struct {
	PrimaryCrops   string `json:"primary_crops"`
	StapleCrops    string `json:"staple_crops"`
	VegetableCrops string `json:"vegetable_crops"`
	FavorableZones string `json:"favorable_zones"`
	Irrigation     string `json:"irrigation"`
	Fertilization  string `json:"fertilization"`
	Precautions    string `json:"precautions"`
}

// Diagnosis joins a prediction with the recommendation for its class.
type Diagnosis struct {
	Sample         SoilSample           `json:"sample"`
	Prediction     *Prediction          `json:"prediction"`
	Recommendation RecommendationRecord `json:"recommendation"`
}
