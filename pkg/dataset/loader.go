// Package dataset reads the labeled soil texture dataset into
// TrainingRecords and splits it for training and evaluation.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

// Options describes the layout of the dataset file
type Options struct {
	Delimiter     rune
	ClayColumn    string
	SiltColumn    string
	SandColumn    string
	TextureColumn string
}

// DefaultOptions matches the reference texture.csv export.
func DefaultOptions() Options {
	return Options{
		Delimiter:     ';',
		ClayColumn:    "Argile(%)",
		SiltColumn:    "Limon(%)",
		SandColumn:    "Sable(%)",
		TextureColumn: "Soil Texture",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Delimiter == 0 {
		o.Delimiter = d.Delimiter
	}
	if o.ClayColumn == "" {
		o.ClayColumn = d.ClayColumn
	}
	if o.SiltColumn == "" {
		o.SiltColumn = d.SiltColumn
	}
	if o.SandColumn == "" {
		o.SandColumn = d.SandColumn
	}
	if o.TextureColumn == "" {
		o.TextureColumn = d.TextureColumn
	}
	return o
}

// Load opens path and parses it with Read.
func Load(path string, opts Options) ([]models.TrainingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.DataLoadError{Path: path, Reason: "cannot open dataset", Err: err}
	}
	defer f.Close()

	records, err := Read(f, opts)
	if err != nil {
		var derr *models.DataLoadError
		if errors.As(err, &derr) && derr.Path == "" {
			derr.Path = path
		}
		return nil, err
	}
	return records, nil
}

// Read parses a delimited dataset row by row. Every row is validated as it
// is read; the first bad row aborts the load.
func Read(r io.Reader, opts Options) ([]models.TrainingRecord, error) {
	opts = opts.withDefaults()

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &models.DataLoadError{Reason: "dataset is empty"}
	}
	if err != nil {
		return nil, &models.DataLoadError{Line: 1, Reason: "cannot read header", Err: err}
	}

	cols, err := locateColumns(header, opts)
	if err != nil {
		return nil, err
	}

	var records []models.TrainingRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			derr := &models.DataLoadError{Reason: "malformed row", Err: err}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				derr.Line = perr.Line
			}
			return nil, derr
		}
		if isBlank(row) {
			continue
		}

		rec, derr := parseRow(row, cols, opts)
		if derr != nil {
			derr.Line, _ = reader.FieldPos(0)
			return nil, derr
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, &models.DataLoadError{Reason: "dataset has no data rows"}
	}
	return records, nil
}

type columnIndex struct {
	clay, silt, sand, texture int
}

func locateColumns(header []string, opts Options) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		positions[strings.TrimSpace(name)] = i
	}

	find := func(name string) (int, error) {
		idx, ok := positions[strings.TrimSpace(name)]
		if !ok {
			return 0, &models.DataLoadError{Line: 1, Column: name, Reason: "required column missing"}
		}
		return idx, nil
	}

	var cols columnIndex
	var err error
	if cols.clay, err = find(opts.ClayColumn); err != nil {
		return cols, err
	}
	if cols.silt, err = find(opts.SiltColumn); err != nil {
		return cols, err
	}
	if cols.sand, err = find(opts.SandColumn); err != nil {
		return cols, err
	}
	if cols.texture, err = find(opts.TextureColumn); err != nil {
		return cols, err
	}
	return cols, nil
}

func parseRow(row []string, cols columnIndex, opts Options) (models.TrainingRecord, *models.DataLoadError) {
	var rec models.TrainingRecord

	field := func(idx int, column string) (string, *models.DataLoadError) {
		if idx >= len(row) {
			return "", &models.DataLoadError{Column: column, Reason: "row is missing this column"}
		}
		return strings.TrimSpace(row[idx]), nil
	}

	pct := func(idx int, column string) (float64, *models.DataLoadError) {
		raw, derr := field(idx, column)
		if derr != nil {
			return 0, derr
		}
		v, err := parsePercent(raw, opts.Delimiter)
		if err != nil {
			return 0, &models.DataLoadError{Column: column, Reason: "not a number", Err: err}
		}
		if math.IsNaN(v) || v < 0 || v > 100 {
			return 0, &models.DataLoadError{Column: column, Reason: fmt.Sprintf("percentage %g out of range [0,100]", v)}
		}
		return v, nil
	}

	var derr *models.DataLoadError
	if rec.ClayPct, derr = pct(cols.clay, opts.ClayColumn); derr != nil {
		return rec, derr
	}
	if rec.SiltPct, derr = pct(cols.silt, opts.SiltColumn); derr != nil {
		return rec, derr
	}
	if rec.SandPct, derr = pct(cols.sand, opts.SandColumn); derr != nil {
		return rec, derr
	}

	label, derr := field(cols.texture, opts.TextureColumn)
	if derr != nil {
		return rec, derr
	}
	texture, ok := models.TextureFromLabel(label)
	if !ok {
		return rec, &models.DataLoadError{Column: opts.TextureColumn, Reason: fmt.Sprintf("no translation for texture label %q", label)}
	}
	rec.Texture = texture

	return rec, nil
}

// parsePercent accepts a decimal comma unless the comma is the delimiter.
func parsePercent(raw string, delimiter rune) (float64, error) {
	raw = strings.TrimSuffix(raw, "%")
	if delimiter != ',' {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
