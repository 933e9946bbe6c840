package model

import (
	"time"
)

type AnalysisJobStatus string

const (
	AnalysisJobQueued     AnalysisJobStatus = "Queued"
	AnalysisJobProcessing AnalysisJobStatus = "Processing"
	AnalysisJobCompleted  AnalysisJobStatus = "Completed"
	AnalysisJobFailed     AnalysisJobStatus = "Failed"
)

// AnalysisJob tracks one requested disease analysis for a crop. The job ID
// is what travels through the Redis queue; everything else lives in Postgres.
type AnalysisJob struct {
	ID           string            `json:"id"`
	CropID       string            `json:"crop_id"`
	Status       AnalysisJobStatus `json:"status"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
