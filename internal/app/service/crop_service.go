package service

import (
	"context"
	"fmt"

	"agrimarket/internal/common"
	"agrimarket/internal/domain/model"
	"agrimarket/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type CropService struct {
	cropRepo  repository.CropRepository
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
}

func NewCropService(cropRepo repository.CropRepository, orderRepo repository.OrderRepository, userRepo repository.UserRepository) *CropService {
	return &CropService{cropRepo: cropRepo, orderRepo: orderRepo, userRepo: userRepo}
}

type CreateCropRequest struct {
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	ImageURL     string            `json:"image_url"`
	Images       []model.CropImage `json:"images,omitempty"`
	Location     model.Location    `json:"location"`
	HarvestDate  string            `json:"harvest_date"`
	Quantity     float64           `json:"quantity"`
	Unit         string            `json:"unit"`
	PricePerUnit float64           `json:"price_per_unit"`
	Published    bool              `json:"published"`
}

type UpdateCropRequest struct {
	Name         *string            `json:"name,omitempty"`
	Type         *string            `json:"type,omitempty"`
	ImageURL     *string            `json:"image_url,omitempty"`
	Images       *[]model.CropImage `json:"images,omitempty"`
	Location     *model.Location    `json:"location,omitempty"`
	HarvestDate  *string            `json:"harvest_date,omitempty"`
	Quantity     *float64           `json:"quantity,omitempty"`
	Unit         *string            `json:"unit,omitempty"`
	PricePerUnit *float64           `json:"price_per_unit,omitempty"`
	Published    *bool              `json:"published,omitempty"`
}

// CreateCrop lists a new crop owned by the calling farmer. The owner and
// the farmer name snapshot come from the principal, never from the request.
func (s *CropService) CreateCrop(ctx context.Context, userID string, req CreateCropRequest) (*model.Crop, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}
	if user.Role != model.RoleFarmer {
		return nil, common.Errorf("only farmers can list crops: %w", common.ErrForbidden)
	}

	if req.Name == "" || req.Type == "" || req.Unit == "" || req.HarvestDate == "" {
		return nil, common.Errorf("missing required fields for crop creation: %w", common.ErrBadRequest)
	}
	if req.Quantity < 0 || req.PricePerUnit < 0 {
		return nil, common.Errorf("quantity and price_per_unit must be non-negative: %w", common.ErrValidation)
	}

	crop := &model.Crop{
		ID:           uuid.NewString(),
		FarmerID:     user.ID,
		FarmerName:   user.DisplayName(),
		Name:         req.Name,
		Type:         req.Type,
		ImageURL:     req.ImageURL,
		Images:       req.Images,
		Location:     req.Location,
		HarvestDate:  req.HarvestDate,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		PricePerUnit: req.PricePerUnit,
		Published:    req.Published,
		Views:        0,
		Orders:       0,
	}
	// Slugs are name-derived; the ID suffix keeps repeated listings of the
	// same crop name from colliding.
	crop.Slug = slug.Make(req.Name) + "-" + crop.ID[:8]

	if err := s.cropRepo.Create(ctx, crop); err != nil {
		return nil, fmt.Errorf("failed to create crop: %w", err)
	}
	return crop, nil
}

// GetFarmerCrops returns every crop owned by the caller, published or not.
func (s *CropService) GetFarmerCrops(ctx context.Context, userID string) ([]model.Crop, error) {
	return s.cropRepo.ListByFarmer(ctx, userID)
}

// GetMarketplaceCrops returns published crops, optionally filtered to an
// exact type. Unpublished listings are invisible here regardless of filter.
func (s *CropService) GetMarketplaceCrops(ctx context.Context, cropType string) ([]model.Crop, error) {
	return s.cropRepo.ListPublished(ctx, cropType)
}

// GetCrop is publicly readable by identifier; no ownership check.
func (s *CropService) GetCrop(ctx context.Context, cropID string) (*model.Crop, error) {
	return s.cropRepo.FindByID(ctx, cropID)
}

func (s *CropService) UpdateCrop(ctx context.Context, userID, cropID string, req UpdateCropRequest) (*model.Crop, error) {
	crop, err := s.loadOwnedCrop(ctx, userID, cropID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		crop.Name = *req.Name
	}
	if req.Type != nil {
		crop.Type = *req.Type
	}
	if req.ImageURL != nil {
		crop.ImageURL = *req.ImageURL
	}
	if req.Images != nil {
		crop.Images = *req.Images
	}
	if req.Location != nil {
		crop.Location = *req.Location
	}
	if req.HarvestDate != nil {
		crop.HarvestDate = *req.HarvestDate
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, common.Errorf("quantity must be non-negative: %w", common.ErrValidation)
		}
		crop.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		crop.Unit = *req.Unit
	}
	if req.PricePerUnit != nil {
		if *req.PricePerUnit < 0 {
			return nil, common.Errorf("price_per_unit must be non-negative: %w", common.ErrValidation)
		}
		crop.PricePerUnit = *req.PricePerUnit
	}
	if req.Published != nil {
		crop.Published = *req.Published
	}

	if err := s.cropRepo.Update(ctx, crop); err != nil {
		return nil, fmt.Errorf("failed to update crop: %w", err)
	}
	return crop, nil
}

// DeleteCrop removes a listing. Crops with existing orders cannot be
// deleted: the order snapshots reference the crop and silently cascading
// would destroy customers' purchase history.
func (s *CropService) DeleteCrop(ctx context.Context, userID, cropID string) error {
	if _, err := s.loadOwnedCrop(ctx, userID, cropID); err != nil {
		return err
	}

	orderCount, err := s.orderRepo.CountByCrop(ctx, cropID)
	if err != nil {
		return fmt.Errorf("failed to count dependent orders: %w", err)
	}
	if orderCount > 0 {
		return common.Errorf("crop has %d existing orders and cannot be deleted: %w", orderCount, common.ErrConflict)
	}

	if err := s.cropRepo.Delete(ctx, cropID); err != nil {
		return fmt.Errorf("failed to delete crop: %w", err)
	}
	return nil
}

// IncrementViews is safe for anonymous callers and no-ops on missing crops.
func (s *CropService) IncrementViews(ctx context.Context, cropID string) error {
	return s.cropRepo.IncrementViews(ctx, cropID)
}

// loadOwnedCrop loads the crop and verifies the caller owns it. A missing
// crop is NotFound, someone else's crop is Forbidden; the two are never
// collapsed into one error.
func (s *CropService) loadOwnedCrop(ctx context.Context, userID, cropID string) (*model.Crop, error) {
	crop, err := s.cropRepo.FindByID(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if crop.FarmerID != userID {
		return nil, common.Errorf("crop %s is not owned by the caller: %w", cropID, common.ErrForbidden)
	}
	return crop, nil
}
