// Package store persists completed inference runs in SQLite: the evidence
// estimates plus the posterior sample table, keyed by a generated run id.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	created_at    TEXT NOT NULL,
	dim           INTEGER NOT NULL,
	params_json   TEXT NOT NULL,
	log_evidence      REAL NOT NULL,
	log_evidence_err  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	run_id      TEXT NOT NULL,
	idx         INTEGER NOT NULL,
	values_json TEXT NOT NULL,
	PRIMARY KEY (run_id, idx),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// Store manages run persistence in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunRecord is one persisted run.
type RunRecord struct {
	ID             string
	CreatedAt      time.Time
	Parameters     []string
	LogEvidence    float64
	LogEvidenceErr float64
	Samples        [][]float64
}

// SaveRun persists a completed run and returns its generated id.
func (s *Store) SaveRun(parameters []string, logEvidence, logEvidenceErr float64, samples [][]float64) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	paramsJSON, err := json.Marshal(parameters)
	if err != nil {
		return "", fmt.Errorf("marshal parameter names: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, created_at, dim, params_json, log_evidence, log_evidence_err)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, now.Format(time.RFC3339Nano), len(parameters), string(paramsJSON),
		logEvidence, logEvidenceErr,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	for i, row := range samples {
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return "", fmt.Errorf("marshal sample %d: %w", i, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO samples (run_id, idx, values_json) VALUES (?, ?, ?)`,
			id, i, string(rowJSON),
		); err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LoadRun reads one persisted run back, samples included.
func (s *Store) LoadRun(id string) (RunRecord, error) {
	var rec RunRecord
	var createdAt, paramsJSON string
	err := s.db.QueryRow(
		`SELECT run_id, created_at, params_json, log_evidence, log_evidence_err
		 FROM runs WHERE run_id = ?`, id,
	).Scan(&rec.ID, &createdAt, &paramsJSON, &rec.LogEvidence, &rec.LogEvidenceErr)
	if err != nil {
		return RunRecord{}, fmt.Errorf("load run %s: %w", id, err)
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(paramsJSON), &rec.Parameters); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal parameter names: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT values_json FROM samples WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return RunRecord{}, fmt.Errorf("load samples: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rowJSON string
		if err := rows.Scan(&rowJSON); err != nil {
			return RunRecord{}, fmt.Errorf("scan sample: %w", err)
		}
		var values []float64
		if err := json.Unmarshal([]byte(rowJSON), &values); err != nil {
			return RunRecord{}, fmt.Errorf("unmarshal sample: %w", err)
		}
		rec.Samples = append(rec.Samples, values)
	}
	if err := rows.Err(); err != nil {
		return RunRecord{}, fmt.Errorf("iterate samples: %w", err)
	}
	return rec, nil
}

// ListRuns returns ids and creation times of all persisted runs, newest
// first.
func (s *Store) ListRuns() ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, created_at, params_json, log_evidence, log_evidence_err
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdAt, paramsJSON string
		if err := rows.Scan(&rec.ID, &createdAt, &paramsJSON,
			&rec.LogEvidence, &rec.LogEvidenceErr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &rec.Parameters); err != nil {
			return nil, fmt.Errorf("unmarshal parameter names: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
