package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncobase/jobqueue/job/structs"
)

// Dialects supported by the SQL repository; names match the data drivers.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

const jobColumns = `id, job_type, status, payload, result, error_message, created_at,
	started_at, completed_at, retry_count, max_retries, priority, priority_rank`

// sortColumns maps list sort keys onto columns
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"started_at":   "started_at",
	"completed_at": "completed_at",
	"priority":     "priority_rank",
	"status":       "status",
	"job_type":     "job_type",
	"retry_count":  "retry_count",
}

type sqlRepository struct {
	db      *sql.DB
	dialect string
}

// NewSQLRepository returns a job repository on db. dialect is one of
// sqlite, postgres or mysql.
func NewSQLRepository(db *sql.DB, dialect string) (JobRepository, error) {
	if db == nil {
		return nil, errors.New("repository: nil database")
	}
	switch dialect {
	case DialectSQLite, DialectPostgres, DialectMySQL:
	default:
		return nil, fmt.Errorf("repository: unsupported sql dialect %q", dialect)
	}
	return &sqlRepository{db: db, dialect: dialect}, nil
}

func (r *sqlRepository) CreateSchema(ctx context.Context) error {
	for _, stmt := range r.schema() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create jobs schema: %w", err)
		}
	}
	return nil
}

func (r *sqlRepository) schema() []string {
	if r.dialect == DialectMySQL {
		return []string{`
		CREATE TABLE IF NOT EXISTS jobs (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			job_type VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL,
			payload MEDIUMTEXT NOT NULL,
			result MEDIUMTEXT NULL,
			error_message TEXT NULL,
			created_at VARCHAR(32) NOT NULL,
			started_at VARCHAR(32) NULL,
			completed_at VARCHAR(32) NULL,
			retry_count INT NOT NULL DEFAULT 0,
			max_retries INT NOT NULL DEFAULT 3,
			priority VARCHAR(16) NOT NULL,
			priority_rank INT NOT NULL,
			INDEX idx_jobs_status (status),
			INDEX idx_jobs_job_type (job_type),
			INDEX idx_jobs_created_at (created_at),
			INDEX idx_jobs_queue (status, priority_rank, created_at)
		)`}
	}

	return []string{`
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			job_type TEXT NOT NULL,
			status TEXT NOT NULL,
			payload TEXT NOT NULL,
			result TEXT,
			error_message TEXT,
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT,
			retry_count INTEGER NOT NULL DEFAULT 0,
			max_retries INTEGER NOT NULL DEFAULT 3,
			priority TEXT NOT NULL,
			priority_rank INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_job_type ON jobs (job_type)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_queue ON jobs (status, priority_rank, created_at)`,
	}
}

func (r *sqlRepository) Create(ctx context.Context, job *structs.Job) error {
	args, err := jobArgs(job)
	if err != nil {
		return err
	}
	query := `INSERT INTO jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, r.rebind(query), args...); err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id string) (*structs.Job, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`), id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

func (r *sqlRepository) Update(ctx context.Context, job *structs.Job) error {
	query, args, err := r.updateQuery(job)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, r.rebind(query), args...); err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	return nil
}

func (r *sqlRepository) UpdateIf(ctx context.Context, job *structs.Job, from ...structs.JobStatus) (bool, error) {
	if len(from) == 0 {
		return false, errors.New("UpdateIf requires at least one expected status")
	}
	query, args, err := r.updateQuery(job)
	if err != nil {
		return false, err
	}
	in, inArgs := statusIn(from)
	query += ` AND status IN (` + in + `)`
	args = append(args, inArgs...)

	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("update job %s: %w", job.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update job %s: %w", job.ID, err)
	}
	return n > 0, nil
}

func (r *sqlRepository) updateQuery(job *structs.Job) (string, []any, error) {
	args, err := jobArgs(job)
	if err != nil {
		return "", nil, err
	}
	query := `UPDATE jobs SET job_type = ?, status = ?, payload = ?, result = ?, error_message = ?,
		created_at = ?, started_at = ?, completed_at = ?, retry_count = ?, max_retries = ?,
		priority = ?, priority_rank = ? WHERE id = ?`
	// jobArgs starts with the id; move it to the WHERE clause.
	return query, append(args[1:], args[0]), nil
}

func (r *sqlRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM jobs WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete job %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *sqlRepository) List(ctx context.Context, params *structs.ListParams) ([]*structs.Job, int64, error) {
	var (
		where []string
		args  []any
	)
	if params.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(params.Status))
	}
	if params.JobType != "" {
		where = append(where, "job_type = ?")
		args = append(args, string(params.JobType))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, r.rebind(`SELECT COUNT(*) FROM jobs`+clause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	column, ok := sortColumns[params.SortBy]
	if !ok {
		column = sortColumns[structs.DefaultSortField]
	}
	dir := "DESC"
	if params.SortOrder == "asc" {
		dir = "ASC"
	}

	query := `SELECT ` + jobColumns + ` FROM jobs` + clause +
		` ORDER BY ` + column + ` ` + dir + `, id ` + dir + ` LIMIT ? OFFSET ?`
	jobs, err := r.query(ctx, query, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, total, nil
}

func (r *sqlRepository) GetPending(ctx context.Context, limit int) ([]*structs.Job, error) {
	in, args := statusIn(structs.QueuedStatuses)
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status IN (` + in + `)
		ORDER BY priority_rank DESC, created_at ASC, id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	jobs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get pending jobs: %w", err)
	}
	return jobs, nil
}

func (r *sqlRepository) GetByStatus(ctx context.Context, status structs.JobStatus) ([]*structs.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = ? ORDER BY created_at ASC, id ASC`
	jobs, err := r.query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("get %s jobs: %w", status, err)
	}
	return jobs, nil
}

func (r *sqlRepository) CountByStatus(ctx context.Context) (map[structs.JobStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[structs.JobStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("count jobs by status: %w", err)
		}
		counts[structs.JobStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *sqlRepository) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	before, err := cutoff(days)
	if err != nil {
		return 0, err
	}
	in, args := statusIn(structs.TerminalStatuses)
	query := `DELETE FROM jobs WHERE status IN (` + in + `)
		AND completed_at IS NOT NULL AND completed_at < ?`
	args = append(args, before.Format(timeLayout))

	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("cleanup jobs: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqlRepository) query(ctx context.Context, query string, args ...any) ([]*structs.Job, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*structs.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres
func (r *sqlRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 16)
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func statusIn(statuses []structs.JobStatus) (string, []any) {
	marks := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		marks[i] = "?"
		args[i] = string(s)
	}
	return strings.Join(marks, ", "), args
}

// jobArgs returns column values in jobColumns order
func jobArgs(job *structs.Job) ([]any, error) {
	payload := job.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload of job %s: %w", job.ID, err)
	}

	var result sql.NullString
	if job.Result != nil {
		b, err := json.Marshal(job.Result)
		if err != nil {
			return nil, fmt.Errorf("encode result of job %s: %w", job.ID, err)
		}
		result = sql.NullString{String: string(b), Valid: true}
	}

	var errMsg sql.NullString
	if job.ErrorMessage != nil {
		errMsg = sql.NullString{String: *job.ErrorMessage, Valid: true}
	}

	return []any{
		job.ID,
		string(job.JobType),
		string(job.Status),
		string(payloadJSON),
		result,
		errMsg,
		job.CreatedAt.UTC().Format(timeLayout),
		formatTime(job.StartedAt),
		formatTime(job.CompletedAt),
		job.RetryCount,
		job.MaxRetries,
		string(job.Priority),
		job.Priority.Rank(),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*structs.Job, error) {
	var (
		j                                 structs.Job
		jobType, status, priority         string
		payload, createdAt                string
		result, errMsg, started, finished sql.NullString
		rank                              int
	)
	if err := s.Scan(
		&j.ID, &jobType, &status, &payload, &result, &errMsg, &createdAt,
		&started, &finished, &j.RetryCount, &j.MaxRetries, &priority, &rank,
	); err != nil {
		return nil, err
	}

	j.JobType = structs.JobType(jobType)
	j.Status = structs.JobStatus(status)
	j.Priority = structs.JobPriority(priority)

	if err := json.Unmarshal([]byte(payload), &j.Payload); err != nil {
		return nil, fmt.Errorf("decode payload of job %s: %w", j.ID, err)
	}
	if result.Valid {
		if err := json.Unmarshal([]byte(result.String), &j.Result); err != nil {
			return nil, fmt.Errorf("decode result of job %s: %w", j.ID, err)
		}
	}
	if errMsg.Valid {
		msg := errMsg.String
		j.ErrorMessage = &msg
	}

	var err error
	if j.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at of job %s: %w", j.ID, err)
	}
	if j.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("parse started_at of job %s: %w", j.ID, err)
	}
	if j.CompletedAt, err = parseTime(finished); err != nil {
		return nil, fmt.Errorf("parse completed_at of job %s: %w", j.ID, err)
	}
	return &j, nil
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
