package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"printforge/internal/app/model"
	"printforge/internal/app/repository"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS conversions (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	status              TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	file_name           TEXT NOT NULL DEFAULT '',
	file_size           INTEGER NOT NULL DEFAULT 0,
	provider            TEXT NOT NULL DEFAULT '',
	image_path          TEXT NOT NULL DEFAULT '',
	model_path          TEXT NOT NULL DEFAULT '',
	print_ready_path    TEXT NOT NULL DEFAULT '',
	export_paths        TEXT NOT NULL DEFAULT '{}',
	meta                TEXT,
	estimated_print_min INTEGER NOT NULL DEFAULT 0,
	error               TEXT NOT NULL DEFAULT '',
	retry_count         INTEGER NOT NULL DEFAULT 0,
	created_at          TIMESTAMP NOT NULL,
	updated_at          TIMESTAMP NOT NULL,
	started_at          TIMESTAMP,
	completed_at        TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_conversions_user ON conversions(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status);

CREATE TABLE IF NOT EXISTS print_jobs (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	conversion_id     TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	artifact_path     TEXT NOT NULL,
	file_name         TEXT NOT NULL DEFAULT '',
	file_size         INTEGER NOT NULL DEFAULT 0,
	settings          TEXT NOT NULL DEFAULT '{}',
	service_response  TEXT NOT NULL DEFAULT '',
	error             TEXT NOT NULL DEFAULT '',
	estimated_minutes INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL,
	submitted_at      TIMESTAMP,
	completed_at      TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_print_jobs_user ON print_jobs(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_print_jobs_status ON print_jobs(status);
`

// SQLiteStore implements repository.Store on a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database file and ensures the schema exists.
func NewSQLiteStore(dbFilePath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_busy_timeout=5000", dbFilePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const conversionColumns = `id, user_id, status, description, file_name, file_size, provider,
	image_path, model_path, print_ready_path, export_paths, meta,
	estimated_print_min, error, retry_count, created_at, updated_at, started_at, completed_at`

func (s *SQLiteStore) CreateConversion(ctx context.Context, rec *model.ConversionRecord) error {
	exports, meta, err := encodeConversionJSON(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO conversions (`+conversionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(rec.Status), rec.Description, rec.FileName, rec.FileSize, rec.Provider,
		rec.ImagePath, rec.ModelPath, rec.PrintReadyPath, exports, meta,
		rec.EstimatedPrintMin, rec.Error, rec.RetryCount, rec.CreatedAt, rec.UpdatedAt, rec.StartedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetConversion(ctx context.Context, id string) (*model.ConversionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+conversionColumns+` FROM conversions WHERE id = ?`, id)
	rec, err := scanConversion(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) ListConversionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.ConversionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+conversionColumns+` FROM conversions
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	records := make([]model.ConversionRecord, 0)
	for rows.Next() {
		rec, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) CompareAndSetConversionStatus(ctx context.Context, id string, expect model.ConversionStatus, update repository.ConversionUpdate) (bool, error) {
	rec, err := s.GetConversion(ctx, id)
	if err != nil {
		return false, err
	}
	if rec.Status != expect {
		return false, nil
	}
	repository.ApplyConversionUpdate(rec, update, time.Now().UTC())
	exports, meta, err := encodeConversionJSON(rec)
	if err != nil {
		return false, err
	}

	// The status guard in the WHERE clause is the actual linearization point;
	// the read above only computes the candidate row.
	res, err := s.db.ExecContext(ctx, `UPDATE conversions SET
		status = ?, provider = ?, model_path = ?, print_ready_path = ?, export_paths = ?, meta = ?,
		estimated_print_min = ?, error = ?, retry_count = ?, updated_at = ?, started_at = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		string(rec.Status), rec.Provider, rec.ModelPath, rec.PrintReadyPath, exports, meta,
		rec.EstimatedPrintMin, rec.Error, rec.RetryCount, rec.UpdatedAt, rec.StartedAt, rec.CompletedAt,
		id, string(expect))
	if err != nil {
		return false, fmt.Errorf("conditional update failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStore) FindStuckConversions(ctx context.Context, threshold time.Duration) ([]model.ConversionRecord, error) {
	cutoff := time.Now().UTC().Add(-threshold)
	rows, err := s.db.QueryContext(ctx, `SELECT `+conversionColumns+` FROM conversions
		WHERE status = ? AND updated_at < ?`, string(model.ConversionProcessing), cutoff)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	records := make([]model.ConversionRecord, 0)
	for rows.Next() {
		rec, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

const printJobColumns = `id, user_id, conversion_id, status, artifact_path, file_name, file_size,
	settings, service_response, error, estimated_minutes, created_at, updated_at, submitted_at, completed_at`

func (s *SQLiteStore) CreatePrintJob(ctx context.Context, job *model.PrintJob) error {
	settings, err := json.Marshal(job.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO print_jobs (`+printJobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.UserID, job.ConversionID, string(job.Status), job.ArtifactPath, job.FileName, job.FileSize,
		string(settings), job.ServiceResponse, job.Error, job.EstimatedMinutes,
		job.CreatedAt, job.UpdatedAt, job.SubmittedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert print job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPrintJob(ctx context.Context, id string) (*model.PrintJob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+printJobColumns+` FROM print_jobs WHERE id = ?`, id)
	job, err := scanPrintJob(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	return job, err
}

func (s *SQLiteStore) ListPrintJobsByUser(ctx context.Context, userID string, limit, offset int) ([]model.PrintJob, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+printJobColumns+` FROM print_jobs
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return collectPrintJobs(rows)
}

func (s *SQLiteStore) ListInFlightPrintJobs(ctx context.Context) ([]model.PrintJob, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+printJobColumns+` FROM print_jobs
		WHERE status NOT IN (?, ?, ?)`,
		string(model.JobComplete), string(model.JobFailed), string(model.JobCancelled))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return collectPrintJobs(rows)
}

func (s *SQLiteStore) CompareAndSetJobStatus(ctx context.Context, id string, expect model.PrintJobStatus, update repository.JobStatusUpdate) (bool, error) {
	job, err := s.GetPrintJob(ctx, id)
	if err != nil {
		return false, err
	}
	if job.Status != expect {
		return false, nil
	}
	repository.ApplyJobUpdate(job, update, time.Now().UTC())
	settings, err := json.Marshal(job.Settings)
	if err != nil {
		return false, fmt.Errorf("failed to encode settings: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE print_jobs SET
		status = ?, settings = ?, service_response = ?, error = ?, estimated_minutes = ?,
		updated_at = ?, submitted_at = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		string(job.Status), string(settings), job.ServiceResponse, job.Error, job.EstimatedMinutes,
		job.UpdatedAt, job.SubmittedAt, job.CompletedAt,
		id, string(expect))
	if err != nil {
		return false, fmt.Errorf("conditional update failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanConversion(row scanner) (*model.ConversionRecord, error) {
	var rec model.ConversionRecord
	var status, exports string
	var meta sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&rec.ID, &rec.UserID, &status, &rec.Description, &rec.FileName, &rec.FileSize, &rec.Provider,
		&rec.ImagePath, &rec.ModelPath, &rec.PrintReadyPath, &exports, &meta,
		&rec.EstimatedPrintMin, &rec.Error, &rec.RetryCount, &rec.CreatedAt, &rec.UpdatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = model.ConversionStatus(status)
	if err := json.Unmarshal([]byte(exports), &rec.ExportPaths); err != nil {
		return nil, fmt.Errorf("failed to decode export paths: %w", err)
	}
	if meta.Valid && meta.String != "" {
		var m model.ModelMetadata
		if err := json.Unmarshal([]byte(meta.String), &m); err != nil {
			return nil, fmt.Errorf("failed to decode model metadata: %w", err)
		}
		rec.Meta = &m
	}
	if startedAt.Valid {
		rec.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return &rec, nil
}

func scanPrintJob(row scanner) (*model.PrintJob, error) {
	var job model.PrintJob
	var status, settings string
	var submittedAt, completedAt sql.NullTime
	err := row.Scan(&job.ID, &job.UserID, &job.ConversionID, &status, &job.ArtifactPath, &job.FileName, &job.FileSize,
		&settings, &job.ServiceResponse, &job.Error, &job.EstimatedMinutes,
		&job.CreatedAt, &job.UpdatedAt, &submittedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	job.Status = model.PrintJobStatus(status)
	if err := json.Unmarshal([]byte(settings), &job.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if submittedAt.Valid {
		job.SubmittedAt = &submittedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

func collectPrintJobs(rows *sql.Rows) ([]model.PrintJob, error) {
	jobs := make([]model.PrintJob, 0)
	for rows.Next() {
		job, err := scanPrintJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func encodeConversionJSON(rec *model.ConversionRecord) (exports string, meta interface{}, err error) {
	paths := rec.ExportPaths
	if paths == nil {
		paths = map[string]string{}
	}
	b, err := json.Marshal(paths)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode export paths: %w", err)
	}
	if rec.Meta == nil {
		return string(b), nil, nil
	}
	m, err := json.Marshal(rec.Meta)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode model metadata: %w", err)
	}
	return string(b), string(m), nil
}
