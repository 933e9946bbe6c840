package model

import (
	"time"
)

// CropTypeAll is the sentinel filter value meaning "no type filter".
const CropTypeAll = "all"

type Crop struct {
	ID              string           `json:"id"`
	Slug            string           `json:"slug"`
	FarmerID        string           `json:"farmer_id"` // Immutable after creation
	FarmerName      string           `json:"farmer_name"`
	Name            string           `json:"name"`
	Type            string           `json:"type"` // Open string: "vegetable", "fruit", "grain", ...
	ImageURL        string           `json:"image_url"`
	Images          []CropImage      `json:"images,omitempty"`
	Location        Location         `json:"location"`
	HarvestDate     string           `json:"harvest_date"` // Calendar date string, e.g. "2025-09-14"
	Quantity        float64          `json:"quantity"`
	Unit            string           `json:"unit"` // "kg", "ton", "crate", ...
	PricePerUnit    float64          `json:"price_per_unit"`
	DiseaseAnalysis *DiseaseAnalysis `json:"disease_analysis,omitempty"`
	Published       bool             `json:"published"`
	Views           int              `json:"views"`  // Monotonically increasing
	Orders          int              `json:"orders"` // Monotonically increasing
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type CropImage struct {
	URL        string `json:"url"`
	UploadedAt int64  `json:"uploaded_at"` // Unix millis, matching upload widget timestamps
}

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// DiseaseAnalysis is a stored health assessment for a crop. The verdict is
// produced by a mocked classifier, not a real inference model.
type DiseaseAnalysis struct {
	IsHealthy   bool     `json:"is_healthy"`
	DiseaseName *string  `json:"disease_name,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Remedy      *string  `json:"remedy,omitempty"`
}
