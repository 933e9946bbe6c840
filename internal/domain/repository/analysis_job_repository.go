package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agrimarket/internal/common"
	"agrimarket/internal/domain/model"
)

type AnalysisJobRepository interface {
	Create(ctx context.Context, job *model.AnalysisJob) error
	FindByID(ctx context.Context, id string) (*model.AnalysisJob, error)
	UpdateStatus(ctx context.Context, id string, status model.AnalysisJobStatus, errorMessage *string) error
}

type pgAnalysisJobRepository struct {
	db *sql.DB
}

func NewPgAnalysisJobRepository(db *sql.DB) AnalysisJobRepository {
	return &pgAnalysisJobRepository{db: db}
}

func (r *pgAnalysisJobRepository) Create(ctx context.Context, job *model.AnalysisJob) error {
	query := `INSERT INTO analysis_jobs (id, crop_id, status) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, job.ID, job.CropID, job.Status)
	if err != nil {
		return fmt.Errorf("pgAnalysisJobRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAnalysisJobRepository) FindByID(ctx context.Context, id string) (*model.AnalysisJob, error) {
	query := `SELECT id, crop_id, status, error_message, created_at, updated_at
	          FROM analysis_jobs WHERE id = $1`
	job := &model.AnalysisJob{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.CropID, &job.Status, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAnalysisJobRepository.FindByID: %w", err)
	}
	return job, nil
}

func (r *pgAnalysisJobRepository) UpdateStatus(ctx context.Context, id string, status model.AnalysisJobStatus, errorMessage *string) error {
	query := `UPDATE analysis_jobs SET status = $1, error_message = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("pgAnalysisJobRepository.UpdateStatus: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
