package service

import (
	"context"
	"fmt"
	"log"

	"agrimarket/internal/common"
	"agrimarket/internal/domain/model"
	"agrimarket/internal/domain/repository"
	"agrimarket/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AnalysisQueuer pushes analysis job IDs onto the work queue. Satisfied by
// *redis.Client in production.
type AnalysisQueuer interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type AnalysisService struct {
	jobRepo  repository.AnalysisJobRepository
	cropRepo repository.CropRepository
	rdb      AnalysisQueuer
}

func NewAnalysisService(jobRepo repository.AnalysisJobRepository, cropRepo repository.CropRepository, rdb AnalysisQueuer) *AnalysisService {
	return &AnalysisService{jobRepo: jobRepo, cropRepo: cropRepo, rdb: rdb}
}

// RequestAnalysis queues a disease analysis for one of the caller's crops.
// The heavy lifting happens in the background worker; the caller gets the
// job record back immediately.
func (s *AnalysisService) RequestAnalysis(ctx context.Context, userID, cropID string) (*model.AnalysisJob, error) {
	crop, err := s.cropRepo.FindByID(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if crop.FarmerID != userID {
		return nil, common.Errorf("crop %s is not owned by the caller: %w", cropID, common.ErrForbidden)
	}

	job := &model.AnalysisJob{
		ID:     uuid.NewString(),
		CropID: cropID,
		Status: model.AnalysisJobQueued,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create analysis job: %w", err)
	}

	if err := s.rdb.LPush(ctx, config.AppConfig.AnalysisQueueName, job.ID).Err(); err != nil {
		// The job row exists but will never be picked up; mark it failed so
		// the farmer can retry instead of waiting forever.
		msg := "failed to enqueue analysis job"
		if uerr := s.jobRepo.UpdateStatus(ctx, job.ID, model.AnalysisJobFailed, &msg); uerr != nil {
			log.Printf("ERROR: Failed to mark orphaned analysis job %s as failed: %v", job.ID, uerr)
		}
		return nil, fmt.Errorf("failed to push analysis job to queue: %w", err)
	}

	log.Printf("Analysis job %s for crop %s enqueued successfully.", job.ID, cropID)
	return job, nil
}

// GetAnalysisJob lets the crop owner poll for the result.
func (s *AnalysisService) GetAnalysisJob(ctx context.Context, userID, jobID string) (*model.AnalysisJob, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	crop, err := s.cropRepo.FindByID(ctx, job.CropID)
	if err != nil {
		return nil, fmt.Errorf("failed to load crop for job %s: %w", jobID, err)
	}
	if crop.FarmerID != userID {
		return nil, common.Errorf("analysis job %s is not owned by the caller: %w", jobID, common.ErrForbidden)
	}
	return job, nil
}
