package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

var ErrNotInitialized = errors.New("database not initialized")

// InitDB opens the SQLite database and creates the schema.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS evaluation_runs (
        id VARCHAR(36) PRIMARY KEY,
        data_path TEXT NOT NULL,
        classifier VARCHAR(50) NOT NULL,
        k INTEGER,
        seed INTEGER,
        test_ratio REAL,
        row_count INTEGER,
        train_size INTEGER,
        test_size INTEGER,
        correct INTEGER,
        incorrect INTEGER,
        true_positives INTEGER,
        false_negatives INTEGER,
        true_negatives INTEGER,
        false_positives INTEGER,
        sensitivity REAL,
        specificity REAL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_evaluation_runs_created_at ON evaluation_runs(created_at);
    `

	if _, err = database.Exec(query); err != nil {
		database.Close()
		database = nil
		return err
	}
	return nil
}

func CloseDB() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

type EvaluationRun struct {
	ID             string    `json:"id"`
	DataPath       string    `json:"data_path"`
	Classifier     string    `json:"classifier"`
	K              int       `json:"k"`
	Seed           int64     `json:"seed"`
	TestRatio      float64   `json:"test_ratio"`
	Rows           int       `json:"rows"`
	TrainSize      int       `json:"train_size"`
	TestSize       int       `json:"test_size"`
	Correct        int       `json:"correct"`
	Incorrect      int       `json:"incorrect"`
	TruePositives  int       `json:"true_positives"`
	FalseNegatives int       `json:"false_negatives"`
	TrueNegatives  int       `json:"true_negatives"`
	FalsePositives int       `json:"false_positives"`
	Sensitivity    float64   `json:"sensitivity"`
	Specificity    float64   `json:"specificity"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveEvaluation stores run, assigning an ID and timestamp when unset, and returns the ID.
func SaveEvaluation(run *EvaluationRun) (string, error) {
	if database == nil {
		return "", ErrNotInitialized
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := database.Exec(`
        INSERT INTO evaluation_runs (
            id, data_path, classifier, k, seed, test_ratio, row_count, train_size, test_size,
            correct, incorrect, true_positives, false_negatives, true_negatives, false_positives,
            sensitivity, specificity, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		run.ID,
		run.DataPath,
		run.Classifier,
		run.K,
		run.Seed,
		run.TestRatio,
		run.Rows,
		run.TrainSize,
		run.TestSize,
		run.Correct,
		run.Incorrect,
		run.TruePositives,
		run.FalseNegatives,
		run.TrueNegatives,
		run.FalsePositives,
		run.Sensitivity,
		run.Specificity,
		run.CreatedAt,
	)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// LoadEvaluations returns up to limit runs, newest first. limit <= 0 returns all.
func LoadEvaluations(limit int) ([]EvaluationRun, error) {
	if database == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := database.Query(`
        SELECT id, data_path, classifier, k, seed, test_ratio, row_count, train_size, test_size,
               correct, incorrect, true_positives, false_negatives, true_negatives, false_positives,
               sensitivity, specificity, created_at
        FROM evaluation_runs
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]EvaluationRun, 0)
	for rows.Next() {
		var r EvaluationRun
		if err := rows.Scan(&r.ID, &r.DataPath, &r.Classifier, &r.K, &r.Seed, &r.TestRatio, &r.Rows,
			&r.TrainSize, &r.TestSize, &r.Correct, &r.Incorrect, &r.TruePositives, &r.FalseNegatives,
			&r.TrueNegatives, &r.FalsePositives, &r.Sensitivity, &r.Specificity, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
