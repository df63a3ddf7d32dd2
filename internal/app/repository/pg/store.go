package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"printforge/internal/app/model"
	"printforge/internal/app/repository"
)

// PostgresStore implements repository.Store on postgres, for deployments
// where multiple workers share one database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing connection.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens a connection using POSTGRES_DSN.
func Connect() (*PostgresStore, error) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = "user=postgres password=postgres dbname=printforge sslmode=disable"
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const conversionColumns = `id, user_id, status, description, file_name, file_size, provider,
	image_path, model_path, print_ready_path, export_paths, meta,
	estimated_print_min, error, retry_count, created_at, updated_at, started_at, completed_at`

func (s *PostgresStore) CreateConversion(ctx context.Context, rec *model.ConversionRecord) error {
	exports, meta, err := encodeConversionJSON(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO conversions (`+conversionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		rec.ID, rec.UserID, string(rec.Status), rec.Description, rec.FileName, rec.FileSize, rec.Provider,
		rec.ImagePath, rec.ModelPath, rec.PrintReadyPath, exports, meta,
		rec.EstimatedPrintMin, rec.Error, rec.RetryCount, rec.CreatedAt, rec.UpdatedAt, rec.StartedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetConversion(ctx context.Context, id string) (*model.ConversionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+conversionColumns+` FROM conversions WHERE id = $1`, id)
	rec, err := scanConversion(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	return rec, err
}

func (s *PostgresStore) ListConversionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.ConversionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+conversionColumns+` FROM conversions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
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

func (s *PostgresStore) CompareAndSetConversionStatus(ctx context.Context, id string, expect model.ConversionStatus, update repository.ConversionUpdate) (bool, error) {
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

	res, err := s.db.ExecContext(ctx, `UPDATE conversions SET
		status = $1, provider = $2, model_path = $3, print_ready_path = $4, export_paths = $5, meta = $6,
		estimated_print_min = $7, error = $8, retry_count = $9, updated_at = $10, started_at = $11, completed_at = $12
		WHERE id = $13 AND status = $14`,
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

func (s *PostgresStore) FindStuckConversions(ctx context.Context, threshold time.Duration) ([]model.ConversionRecord, error) {
	cutoff := time.Now().UTC().Add(-threshold)
	rows, err := s.db.QueryContext(ctx, `SELECT `+conversionColumns+` FROM conversions
		WHERE status = $1 AND updated_at < $2`, string(model.ConversionProcessing), cutoff)
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

func (s *PostgresStore) CreatePrintJob(ctx context.Context, job *model.PrintJob) error {
	settings, err := json.Marshal(job.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO print_jobs (`+printJobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		job.ID, job.UserID, job.ConversionID, string(job.Status), job.ArtifactPath, job.FileName, job.FileSize,
		string(settings), job.ServiceResponse, job.Error, job.EstimatedMinutes,
		job.CreatedAt, job.UpdatedAt, job.SubmittedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert print job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPrintJob(ctx context.Context, id string) (*model.PrintJob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+printJobColumns+` FROM print_jobs WHERE id = $1`, id)
	job, err := scanPrintJob(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	return job, err
}

func (s *PostgresStore) ListPrintJobsByUser(ctx context.Context, userID string, limit, offset int) ([]model.PrintJob, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+printJobColumns+` FROM print_jobs
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return collectPrintJobs(rows)
}

func (s *PostgresStore) ListInFlightPrintJobs(ctx context.Context) ([]model.PrintJob, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+printJobColumns+` FROM print_jobs
		WHERE status NOT IN ($1, $2, $3)`,
		string(model.JobComplete), string(model.JobFailed), string(model.JobCancelled))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return collectPrintJobs(rows)
}

func (s *PostgresStore) CompareAndSetJobStatus(ctx context.Context, id string, expect model.PrintJobStatus, update repository.JobStatusUpdate) (bool, error) {
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
		status = $1, settings = $2, service_response = $3, error = $4, estimated_minutes = $5,
		updated_at = $6, submitted_at = $7, completed_at = $8
		WHERE id = $9 AND status = $10`,
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
