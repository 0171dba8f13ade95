package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/solvire/fartemis/resolution/types"
)

// LookupRecord запись истории запусков резолюции
type LookupRecord struct {
	RunID          string    `json:"run_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Company        string    `json:"company"`
	Status         string    `json:"status"`
	ConfidenceTier string    `json:"confidence_tier"`
	BestURL        string    `json:"best_url"`
	BestHandle     string    `json:"best_handle"`
	BestScore      float64   `json:"best_score"`
	Evidence       []string  `json:"evidence"`
	CreatedAt      time.Time `json:"created_at"`
}

// LookupRepository репозиторий истории запусков на SQLite
type LookupRepository struct {
	db *sql.DB
}

// NewLookupRepository открывает базу и создает схему при необходимости
func NewLookupRepository(path string) (*LookupRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &LookupRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// initSchema создает таблицу истории запусков
func (r *LookupRepository) initSchema() error {
	query := `CREATE TABLE IF NOT EXISTS lookups (
		run_id          TEXT PRIMARY KEY,
		first_name      TEXT NOT NULL,
		last_name       TEXT NOT NULL,
		company         TEXT,
		status          TEXT NOT NULL,
		confidence_tier TEXT,
		best_url        TEXT,
		best_handle     TEXT,
		best_score      REAL,
		evidence        TEXT,
		created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close закрывает базу
func (r *LookupRepository) Close() error {
	return r.db.Close()
}

// SaveResult сохраняет итог запуска резолюции
func (r *LookupRepository) SaveResult(result *types.ResolutionResult) error {
	evidenceJSON, err := json.Marshal(result.Evidence)
	if err != nil {
		return fmt.Errorf("failed to marshal evidence: %w", err)
	}

	var bestURL, bestHandle string
	var bestScore float64
	if result.BestCandidate != nil {
		bestURL = result.BestCandidate.Candidate.URL
		bestHandle = result.BestCandidate.Candidate.ExtractedHandle
		bestScore = result.BestCandidate.TotalScore
	}

	query := `INSERT OR REPLACE INTO lookups
	          (run_id, first_name, last_name, company, status, confidence_tier,
	           best_url, best_handle, best_score, evidence, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(
		query,
		result.RunID, result.Query.FirstName, result.Query.LastName, result.Query.Company,
		string(result.Status), string(result.ConfidenceTier),
		bestURL, bestHandle, bestScore, string(evidenceJSON), result.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save lookup: %w", err)
	}
	return nil
}

// ListRecent возвращает последние запуски, новые первыми.
// Неположительный limit означает без ограничения.
func (r *LookupRepository) ListRecent(limit int) ([]LookupRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 снимает ограничение
	}

	query := `SELECT run_id, first_name, last_name, company, status, confidence_tier,
	                 best_url, best_handle, best_score, evidence, created_at
	          FROM lookups
	          ORDER BY created_at DESC
	          LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer rows.Close()

	var records []LookupRecord
	for rows.Next() {
		record, err := scanLookup(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// GetByRunID возвращает запись по идентификатору запуска.
// Возвращает nil без ошибки, если запись не найдена.
func (r *LookupRepository) GetByRunID(runID string) (*LookupRecord, error) {
	query := `SELECT run_id, first_name, last_name, company, status, confidence_tier,
	                 best_url, best_handle, best_score, evidence, created_at
	          FROM lookups
	          WHERE run_id = ?`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookup: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanLookup(rows)
}

// scanLookup читает одну строку истории
func scanLookup(rows *sql.Rows) (*LookupRecord, error) {
	var record LookupRecord
	var company, tier, bestURL, bestHandle, evidenceJSON sql.NullString
	var bestScore sql.NullFloat64

	err := rows.Scan(
		&record.RunID, &record.FirstName, &record.LastName, &company,
		&record.Status, &tier, &bestURL, &bestHandle, &bestScore,
		&evidenceJSON, &record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan lookup: %w", err)
	}

	record.Company = company.String
	record.ConfidenceTier = tier.String
	record.BestURL = bestURL.String
	record.BestHandle = bestHandle.String
	record.BestScore = bestScore.Float64

	if evidenceJSON.Valid && evidenceJSON.String != "" {
		if err := json.Unmarshal([]byte(evidenceJSON.String), &record.Evidence); err != nil {
			record.Evidence = nil
		}
	}
	return &record, nil
}
