package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"agrimarket/internal/domain/model"
	"agrimarket/internal/domain/repository"
	"agrimarket/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AnalysisWorker consumes queued disease-analysis jobs and writes a mocked
// verdict onto the crop. The lock keeps a single analysis in flight at a
// time, standing in for an inference backend with one model slot.
type AnalysisWorker struct {
	rdb      *redis.Client
	jobRepo  repository.AnalysisJobRepository
	cropRepo repository.CropRepository
}

func NewAnalysisWorker(rdb *redis.Client, jobRepo repository.AnalysisJobRepository, cropRepo repository.CropRepository) *AnalysisWorker {
	return &AnalysisWorker{rdb: rdb, jobRepo: jobRepo, cropRepo: cropRepo}
}

// diseaseCatalog is the fixed set of mock verdicts. Roughly 70% of analyses
// come back healthy; the rest draw one of these.
var diseaseCatalog = []struct {
	Name   string
	Remedy string
}{
	{"Leaf Blight", "Remove affected leaves and apply a copper-based fungicide."},
	{"Powdery Mildew", "Improve air circulation and spray with a sulfur-based treatment."},
	{"Root Rot", "Reduce watering and improve soil drainage."},
	{"Bacterial Wilt", "Remove infected plants and rotate crops next season."},
	{"Aphid Infestation", "Introduce ladybugs or apply neem oil weekly."},
}

func (w *AnalysisWorker) Start(ctx context.Context) {
	log.Println("Analysis worker started, listening to queue:", config.AppConfig.AnalysisQueueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("Analysis worker stopping...")
			return
		default:
			result, err := w.rdb.BRPop(ctx, 0*time.Second, config.AppConfig.AnalysisQueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					log.Printf("Worker BRPop exiting or timed out: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}
				log.Printf("ERROR: Failed to BRPop from Redis queue '%s': %v", config.AppConfig.AnalysisQueueName, err)
				time.Sleep(5 * time.Second)
				continue
			}

			// result is an array: [queueName, value]
			if len(result) < 2 || result[1] == "" {
				log.Println("WARN: BRPop returned empty job ID.")
				continue
			}
			jobID := result[1]
			log.Printf("Worker picked up analysis job ID: %s", jobID)

			// One analysis at a time: process synchronously under the lock.
			w.processJobWithLock(ctx, jobID)
		}
	}
}

func (w *AnalysisWorker) processJobWithLock(ctx context.Context, jobID string) {
	lockValue := uuid.NewString()
	lockTTL := time.Duration(config.AppConfig.AnalysisLockTTLSeconds) * time.Second

	ok, err := w.rdb.SetNX(ctx, config.AppConfig.AnalysisLockKey, lockValue, lockTTL).Result()
	if err != nil {
		log.Printf("ERROR: Failed to attempt lock acquisition for job %s: %v", jobID, err)
		w.requeueJob(ctx, jobID)
		return
	}
	if !ok {
		log.Printf("INFO: Could not acquire analysis lock for job %s, another worker is busy. Re-queueing.", jobID)
		w.requeueJob(ctx, jobID)
		return
	}
	log.Printf("INFO: Acquired analysis lock for job %s (lock value: %s)", jobID, lockValue)

	defer func() {
		// Release only if we still hold it: compare-and-delete via Lua.
		script := redis.NewScript(`
            if redis.call("get", KEYS[1]) == ARGV[1] then
                return redis.call("del", KEYS[1])
            else
                return 0
            end
        `)
		deleted, err := script.Run(ctx, w.rdb, []string{config.AppConfig.AnalysisLockKey}, lockValue).Result()
		if err != nil {
			log.Printf("ERROR: Failed to release lock for key %s (job %s): %v", config.AppConfig.AnalysisLockKey, jobID, err)
		} else if deleted.(int64) == 1 {
			log.Printf("INFO: Released analysis lock for job %s", jobID)
		} else {
			log.Printf("WARN: Did not release lock for job %s; it might have expired or been taken by another.", jobID)
		}
	}()

	w.handleJob(ctx, jobID)
}

func (w *AnalysisWorker) requeueJob(ctx context.Context, jobID string) {
	if err := w.rdb.RPush(ctx, config.AppConfig.AnalysisQueueName, jobID).Err(); err != nil {
		log.Printf("ERROR: Failed to re-queue job %s: %v", jobID, err)
	} else {
		log.Printf("INFO: Job %s re-queued.", jobID)
	}
}

func (w *AnalysisWorker) handleJob(ctx context.Context, jobID string) {
	job, err := w.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		log.Printf("ERROR: Failed to fetch analysis job %s from DB: %v", jobID, err)
		return
	}

	if err := w.jobRepo.UpdateStatus(ctx, job.ID, model.AnalysisJobProcessing, nil); err != nil {
		log.Printf("ERROR: Failed to update job %s status to Processing: %v", job.ID, err)
	}

	// Simulate model latency so the dashboard's pending state is visible.
	delay := config.AppConfig.AnalysisMinDelayMs
	if spread := config.AppConfig.AnalysisMaxDelayMs - config.AppConfig.AnalysisMinDelayMs; spread > 0 {
		delay += rand.Intn(spread)
	}
	select {
	case <-ctx.Done():
		log.Printf("INFO: Worker shutting down, re-queueing job %s", job.ID)
		w.requeueJob(context.Background(), job.ID)
		return
	case <-time.After(time.Duration(delay) * time.Millisecond):
	}

	analysis := mockAnalysis()
	if err := w.cropRepo.UpdateDiseaseAnalysis(ctx, job.CropID, analysis); err != nil {
		errMsg := fmt.Sprintf("Failed to store analysis result for crop %s: %v", job.CropID, err)
		log.Printf("ERROR: %s (Job ID: %s)", errMsg, job.ID)
		w.jobRepo.UpdateStatus(ctx, job.ID, model.AnalysisJobFailed, &errMsg)
		return
	}

	if err := w.jobRepo.UpdateStatus(ctx, job.ID, model.AnalysisJobCompleted, nil); err != nil {
		log.Printf("ERROR: Failed to update job %s status to Completed: %v", job.ID, err)
	}
	log.Printf("INFO: Analysis job %s for crop %s completed (healthy=%t).", job.ID, job.CropID, analysis.IsHealthy)
}

// mockAnalysis stands in for a real disease-detection model.
func mockAnalysis() *model.DiseaseAnalysis {
	if rand.Float64() < 0.7 {
		confidence := 0.85 + rand.Float64()*0.14
		return &model.DiseaseAnalysis{
			IsHealthy:  true,
			Confidence: &confidence,
		}
	}

	entry := diseaseCatalog[rand.Intn(len(diseaseCatalog))]
	confidence := 0.6 + rand.Float64()*0.35
	return &model.DiseaseAnalysis{
		IsHealthy:   false,
		DiseaseName: &entry.Name,
		Confidence:  &confidence,
		Remedy:      &entry.Remedy,
	}
}
