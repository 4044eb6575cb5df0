package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/prospectml/leadscout/internal/db"
	"github.com/prospectml/leadscout/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_job":       `INSERT INTO jobs (id, status, request, created_at) VALUES ($1, $2, $3, $4)`,
	"mark_job_running": `UPDATE jobs SET status = $1, started_at = $2 WHERE id = $3`,
	"fail_job":         `UPDATE jobs SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
	"get_job":          `SELECT id, status, request, error, count, created_at, started_at, finished_at FROM jobs WHERE id = $1`,
	"get_job_leads":    `SELECT payload FROM leads WHERE job_id = $1 ORDER BY position`,
}

// leadColumns is the column order used when copying ranked leads into the
// leads table.
var leadColumns = []string{
	"job_id", "position", "company_name", "website",
	"quality_score", "persona_match_score", "source_tier", "payload",
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'queued',
	request     JSONB NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	count       INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at  TIMESTAMPTZ,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS leads (
	job_id              TEXT NOT NULL REFERENCES jobs(id),
	position            INTEGER NOT NULL,
	company_name        TEXT NOT NULL,
	website             TEXT NOT NULL,
	quality_score       TEXT NOT NULL,
	persona_match_score DOUBLE PRECISION NOT NULL,
	source_tier         INTEGER NOT NULL,
	payload             JSONB NOT NULL,
	PRIMARY KEY (job_id, position)
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_job_id ON leads(job_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, req model.DiscoveryRequest) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal request")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, status, request, created_at) VALUES ($1, $2, $3, $4)`,
		id, string(model.JobStatusQueued), reqJSON, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert job")
	}

	return &model.Job{
		ID:        id,
		Status:    model.JobStatusQueued,
		Request:   req,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) MarkJobRunning(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, started_at = $2 WHERE id = $3`,
		string(model.JobStatusRunning), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark job running %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, jobID string, leads []model.EnrichedLead) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin complete job")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE jobs SET status = $1, count = $2, finished_at = $3 WHERE id = $4`,
		string(model.JobStatusComplete), len(leads), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}

	rows := make([][]any, 0, len(leads))
	for i, lead := range leads {
		payload, err := json.Marshal(lead)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal lead")
		}
		rows = append(rows, []any{
			jobID, i, lead.CompanyName, lead.Website,
			string(lead.QualityScore), lead.PersonaMatchScore, lead.SourceTier,
			payload,
		})
	}
	if _, err := db.CopyFrom(ctx, tx, "leads", leadColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: insert leads for job %s", jobID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit complete job")
}

func (s *PostgresStore) FailJob(ctx context.Context, jobID string, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
		string(model.JobStatusFailed), message, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	var j model.Job
	var reqJSON []byte
	var startedAt, finishedAt *time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT id, status, request, error, count, created_at, started_at, finished_at FROM jobs WHERE id = $1`,
		jobID,
	).Scan(&j.ID, &j.Status, &reqJSON, &j.Error, &j.Count, &j.CreatedAt, &startedAt, &finishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}

	if err := json.Unmarshal(reqJSON, &j.Request); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal request")
	}
	j.StartedAt = startedAt
	j.FinishedAt = finishedAt

	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM leads WHERE job_id = $1 ORDER BY position`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get leads for job %s", jobID)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead payload")
		}
		var lead model.EnrichedLead
		if err := json.Unmarshal(payload, &lead); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead payload")
		}
		j.Leads = append(j.Leads, lead)
	}
	return &j, eris.Wrap(rows.Err(), "postgres: get leads iterate")
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, status, request, error, count, created_at, started_at, finished_at FROM jobs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		var reqJSON []byte
		var startedAt, finishedAt *time.Time

		if err := rows.Scan(&j.ID, &j.Status, &reqJSON, &j.Error, &j.Count, &j.CreatedAt, &startedAt, &finishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		if err := json.Unmarshal(reqJSON, &j.Request); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal request")
		}
		j.StartedAt = startedAt
		j.FinishedAt = finishedAt
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

var _ Store = (*PostgresStore)(nil)
var _ Store = (*SQLiteStore)(nil)
