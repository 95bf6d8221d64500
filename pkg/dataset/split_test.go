package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

func syntheticRecords(n int) []models.TrainingRecord {
	records := make([]models.TrainingRecord, n)
	for i := range records {
		clay := float64(i % 50)
		records[i] = models.TrainingRecord{
			ClayPct: clay,
			SiltPct: 20,
			SandPct: 80 - clay,
			Texture: models.TextureClass(i % models.NumTextureClasses),
		}
	}
	return records
}

func TestSplitSizes(t *testing.T) {
	records := syntheticRecords(382)

	train, test, err := Split(records, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, test, 77, "test size is ceil(382*0.2)")
	assert.Len(t, train, 305)
}

func TestSplitDeterministic(t *testing.T) {
	records := syntheticRecords(100)
	original := append([]models.TrainingRecord(nil), records...)

	train1, test1, err := Split(records, 0.25, 7)
	require.NoError(t, err)
	train2, test2, err := Split(records, 0.25, 7)
	require.NoError(t, err)

	if diff := cmp.Diff(test1, test2); diff != "" {
		t.Errorf("test split differs between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(train1, train2); diff != "" {
		t.Errorf("train split differs between runs (-first +second):\n%s", diff)
	}
	assert.Equal(t, original, records, "input must not be reordered")

	_, test3, err := Split(records, 0.25, 8)
	require.NoError(t, err)
	assert.NotEqual(t, test1, test3, "a different seed should produce a different partition")
}

func TestSplitIsPartition(t *testing.T) {
	records := syntheticRecords(60)
	for i := range records {
		records[i].SiltPct = float64(i) // make every record distinguishable
	}

	train, test, err := Split(records, 0.3, 1)
	require.NoError(t, err)

	seen := make(map[float64]int)
	for _, rec := range append(append([]models.TrainingRecord(nil), train...), test...) {
		seen[rec.SiltPct]++
	}
	assert.Len(t, seen, len(records))
	for silt, count := range seen {
		assert.Equalf(t, 1, count, "record %g appears %d times", silt, count)
	}
}

func TestSplitErrors(t *testing.T) {
	_, _, err := Split(syntheticRecords(10), 0, 42)
	assert.Error(t, err)
	_, _, err = Split(syntheticRecords(10), 1, 42)
	assert.Error(t, err)

	_, _, err = Split(syntheticRecords(1), 0.2, 42)
	var derr *models.DataLoadError
	assert.ErrorAs(t, err, &derr, "one record cannot be split")

	_, _, err = Split(nil, 0.2, 42)
	assert.ErrorAs(t, err, &derr)
}

func TestMatrix(t *testing.T) {
	records := []models.TrainingRecord{
		{ClayPct: 45, SiltPct: 15, SandPct: 40, Texture: models.Clay},
		{ClayPct: 5, SiltPct: 10, SandPct: 85, Texture: models.LoamySand},
	}
	X, y := Matrix(records)
	assert.Equal(t, [][]float64{{45, 15, 40}, {5, 10, 85}}, X)
	assert.Equal(t, []models.TextureClass{models.Clay, models.LoamySand}, y)
}
