package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

// Split shuffles records with seed and holds out ceil(n*testFraction) of
// them. The same records and seed always produce the same partition. The
// input slice is not modified.
func Split(records []models.TrainingRecord, testFraction float64, seed int64) (train, test []models.TrainingRecord, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0,1), got %g", testFraction)
	}

	n := len(records)
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest >= n || nTest == 0 {
		return nil, nil, &models.DataLoadError{
			Reason: fmt.Sprintf("%d records cannot be split %.0f/%.0f", n, (1-testFraction)*100, testFraction*100),
		}
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	test = make([]models.TrainingRecord, 0, nTest)
	for _, idx := range perm[:nTest] {
		test = append(test, records[idx])
	}
	train = make([]models.TrainingRecord, 0, n-nTest)
	for _, idx := range perm[nTest:] {
		train = append(train, records[idx])
	}
	return train, test, nil
}

// Matrix converts records into a feature matrix and label vector.
func Matrix(records []models.TrainingRecord) ([][]float64, []models.TextureClass) {
	X := make([][]float64, len(records))
	y := make([]models.TextureClass, len(records))
	for i, rec := range records {
		X[i] = rec.Features()
		y[i] = rec.Texture
	}
	return X, y
}
