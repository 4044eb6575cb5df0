package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/prospectml/leadscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'queued',
	request     TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	count       INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	started_at  DATETIME,
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS leads (
	job_id              TEXT NOT NULL REFERENCES jobs(id),
	position            INTEGER NOT NULL,
	company_name        TEXT NOT NULL,
	website             TEXT NOT NULL,
	quality_score       TEXT NOT NULL,
	persona_match_score REAL NOT NULL,
	source_tier         INTEGER NOT NULL,
	payload             TEXT NOT NULL,
	PRIMARY KEY (job_id, position)
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_job_id ON leads(job_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, req model.DiscoveryRequest) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal request")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, request, created_at) VALUES (?, ?, ?, ?)`,
		id, string(model.JobStatusQueued), string(reqJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
	}

	return &model.Job{
		ID:        id,
		Status:    model.JobStatusQueued,
		Request:   req,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) MarkJobRunning(ctx context.Context, jobID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, started_at = ? WHERE id = ?`,
		string(model.JobStatusRunning), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark job running %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, jobID string, leads []model.EnrichedLead) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin complete job")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, count = ?, finished_at = ? WHERE id = ?`,
		string(model.JobStatusComplete), len(leads), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete job %s", jobID)
	}
	if err := checkRowsAffected(res, "job", jobID); err != nil {
		return err
	}

	for i, lead := range leads {
		payload, err := json.Marshal(lead)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal lead")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO leads (job_id, position, company_name, website, quality_score, persona_match_score, source_tier, payload)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			jobID, i, lead.CompanyName, lead.Website,
			string(lead.QualityScore), lead.PersonaMatchScore, lead.SourceTier,
			string(payload),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert lead %d for job %s", i, jobID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit complete job")
}

func (s *SQLiteStore) FailJob(ctx context.Context, jobID string, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(model.JobStatusFailed), message, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail job %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, request, error, count, created_at, started_at, finished_at FROM jobs WHERE id = ?`,
		jobID,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM leads WHERE job_id = ? ORDER BY position`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get leads for job %s", jobID)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead payload")
		}
		var lead model.EnrichedLead
		if err := json.Unmarshal([]byte(payload), &lead); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead payload")
		}
		job.Leads = append(job.Leads, lead)
	}
	return job, eris.Wrap(rows.Err(), "sqlite: get leads iterate")
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, status, request, error, count, created_at, started_at, finished_at FROM jobs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*model.Job, error) {
	var j model.Job
	var reqJSON string
	var started, finished sql.NullTime

	err := row.Scan(&j.ID, &j.Status, &reqJSON, &j.Error, &j.Count, &j.CreatedAt, &started, &finished)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}

	if err := json.Unmarshal([]byte(reqJSON), &j.Request); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal request")
	}
	if started.Valid {
		t := started.Time
		j.StartedAt = &t
	}
	if finished.Valid {
		t := finished.Time
		j.FinishedAt = &t
	}
	return &j, nil
}
