package metadatastore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// SQLiteStore provides SQLite-based persistence for training runs and predictions
type SQLiteStore struct {
	db *sql.DB
}

var _ MetadataStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-based storage instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Format: file:path?param=value
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized by SQLite anyway
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// retryOnBusy retries a database operation if it fails due to SQLITE_BUSY
// This provides an additional safety net on top of the busy_timeout pragma
func (s *SQLiteStore) retryOnBusy(operation func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") {
			// Exponential backoff: 10ms, 20ms, 40ms, 80ms, 160ms
			backoff := time.Duration(10*(1<<uint(i))) * time.Millisecond
			time.Sleep(backoff)
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
}

// initSchema creates the database schema if it doesn't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS training_runs (
		id TEXT PRIMARY KEY,
		dataset_path TEXT,
		random_seed INTEGER NOT NULL,
		num_trees INTEGER NOT NULL,
		accuracy REAL,
		trained_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		run_id TEXT,
		clay_pct REAL NOT NULL,
		silt_pct REAL NOT NULL,
		sand_pct REAL NOT NULL,
		texture TEXT NOT NULL,
		confidence_pct REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveTrainingRun saves a training run summary
func (s *SQLiteStore) SaveTrainingRun(run *models.TrainingRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal training run: %w", err)
	}

	var accuracy sql.NullFloat64
	if run.PerformanceMetrics != nil {
		accuracy = sql.NullFloat64{Float64: run.PerformanceMetrics.Accuracy, Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO training_runs (id, dataset_path, random_seed, num_trees, accuracy, trained_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	err = s.retryOnBusy(func() error {
		_, err := s.db.Exec(query,
			run.ID,
			run.DatasetPath,
			run.Config.RandomSeed,
			run.Config.NumTrees,
			accuracy,
			run.TrainedAt.UTC(),
			string(data),
		)
		return err
	}, 5)
	if err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}
	return nil
}

// GetTrainingRun retrieves a training run by ID
func (s *SQLiteStore) GetTrainingRun(id string) (*models.TrainingRun, error) {
	return s.scanTrainingRun(s.db.QueryRow(`SELECT data FROM training_runs WHERE id = ?`, id), id)
}

// LatestTrainingRun retrieves the most recent training run
func (s *SQLiteStore) LatestTrainingRun() (*models.TrainingRun, error) {
	return s.scanTrainingRun(s.db.QueryRow(`SELECT data FROM training_runs ORDER BY trained_at DESC LIMIT 1`), "latest")
}

func (s *SQLiteStore) scanTrainingRun(row *sql.Row, id string) (*models.TrainingRun, error) {
	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("training run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training run: %w", err)
	}

	var run models.TrainingRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal training run: %w", err)
	}
	return &run, nil
}

// SavePrediction appends a prediction to the history
func (s *SQLiteStore) SavePrediction(record *models.PredictionRecord) error {
	query := `
		INSERT INTO predictions (id, run_id, clay_pct, silt_pct, sand_pct, texture, confidence_pct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := s.retryOnBusy(func() error {
		_, err := s.db.Exec(query,
			record.ID,
			record.RunID,
			record.Sample.ClayPct,
			record.Sample.SiltPct,
			record.Sample.SandPct,
			record.Texture.Code(),
			record.ConfidencePct,
			record.CreatedAt.UTC(),
		)
		return err
	}, 5)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

const predictionColumns = `id, run_id, clay_pct, silt_pct, sand_pct, texture, confidence_pct, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row rowScanner) (*models.PredictionRecord, error) {
	var (
		record  models.PredictionRecord
		runID   sql.NullString
		texture string
	)
	err := row.Scan(
		&record.ID,
		&runID,
		&record.Sample.ClayPct,
		&record.Sample.SiltPct,
		&record.Sample.SandPct,
		&texture,
		&record.ConfidencePct,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.RunID = runID.String
	if record.Texture, err = models.ParseTextureClass(texture); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetPrediction retrieves a prediction by ID
func (s *SQLiteStore) GetPrediction(id string) (*models.PredictionRecord, error) {
	row := s.db.QueryRow(`SELECT `+predictionColumns+` FROM predictions WHERE id = ?`, id)
	record, err := scanPrediction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("prediction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return record, nil
}

// ListPredictions lists the most recent predictions, newest first.
// A non-positive limit returns every prediction.
func (s *SQLiteStore) ListPredictions(limit int) ([]*models.PredictionRecord, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	records := make([]*models.PredictionRecord, 0)
	for rows.Next() {
		record, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	return records, nil
}

// DeletePredictionsBefore removes predictions created before cutoff and
// returns how many were deleted
func (s *SQLiteStore) DeletePredictionsBefore(cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM predictions WHERE created_at < ?`, cutoff.UTC())
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	}, 5)
	if err != nil {
		return 0, fmt.Errorf("failed to delete predictions: %w", err)
	}
	return deleted, nil
}
