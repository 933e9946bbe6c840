package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"agrimarket/internal/common"
	"agrimarket/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type CropRepository interface {
	Create(ctx context.Context, crop *model.Crop) error
	FindByID(ctx context.Context, id string) (*model.Crop, error)
	FindBySlug(ctx context.Context, slug string) (*model.Crop, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]model.Crop, error)
	// ListPublished returns published crops only. cropType filters by exact
	// type match; empty string or model.CropTypeAll disables the filter.
	ListPublished(ctx context.Context, cropType string) ([]model.Crop, error)
	Update(ctx context.Context, crop *model.Crop) error
	Delete(ctx context.Context, id string) error
	// IncrementViews is a single-statement atomic bump. Missing crops no-op.
	IncrementViews(ctx context.Context, id string) error
	UpdateDiseaseAnalysis(ctx context.Context, id string, analysis *model.DiseaseAnalysis) error
}

type pgCropRepository struct {
	db *sql.DB
}

func NewPgCropRepository(db *sql.DB) CropRepository {
	return &pgCropRepository{db: db}
}

const cropColumns = `id, slug, farmer_id, farmer_name, name, type, image_url, images,
               location, harvest_date, quantity, unit, price_per_unit,
               disease_analysis, published, views, orders, created_at, updated_at`

func (r *pgCropRepository) Create(ctx context.Context, c *model.Crop) error {
	images, err := json.Marshal(c.Images)
	if err != nil {
		return fmt.Errorf("pgCropRepository.Create marshal images: %w", err)
	}
	location, err := json.Marshal(c.Location)
	if err != nil {
		return fmt.Errorf("pgCropRepository.Create marshal location: %w", err)
	}

	query := `INSERT INTO crops (id, slug, farmer_id, farmer_name, name, type, image_url, images,
	                             location, harvest_date, quantity, unit, price_per_unit, published, views, orders)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.Slug, c.FarmerID, c.FarmerName, c.Name, c.Type, c.ImageURL, images,
		location, c.HarvestDate, c.Quantity, c.Unit, c.PricePerUnit, c.Published, c.Views, c.Orders)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("crop with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCropRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCropRepository) FindByID(ctx context.Context, id string) (*model.Crop, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *pgCropRepository) FindBySlug(ctx context.Context, slug string) (*model.Crop, error) {
	return r.findOne(ctx, "slug = $1", slug)
}

func (r *pgCropRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.Crop, error) {
	query := `SELECT ` + cropColumns + ` FROM crops WHERE ` + where
	row := r.db.QueryRowContext(ctx, query, arg)
	crop, err := scanCrop(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCropRepository.findOne: %w", err)
	}
	return crop, nil
}

func (r *pgCropRepository) ListByFarmer(ctx context.Context, farmerID string) ([]model.Crop, error) {
	query := `SELECT ` + cropColumns + ` FROM crops WHERE farmer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, farmerID)
}

func (r *pgCropRepository) ListPublished(ctx context.Context, cropType string) ([]model.Crop, error) {
	if cropType == "" || cropType == model.CropTypeAll {
		query := `SELECT ` + cropColumns + ` FROM crops WHERE published = TRUE ORDER BY created_at DESC`
		return r.list(ctx, query)
	}
	query := `SELECT ` + cropColumns + ` FROM crops WHERE published = TRUE AND type = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, cropType)
}

func (r *pgCropRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Crop, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgCropRepository.list query: %w", err)
	}
	defer rows.Close()

	crops := []model.Crop{}
	for rows.Next() {
		crop, err := scanCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("pgCropRepository.list scan: %w", err)
		}
		crops = append(crops, *crop)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCropRepository.list rows.Err: %w", err)
	}
	return crops, nil
}

// Update writes all mutable fields. The service merges partial updates into
// the loaded record first; farmer_id, views and orders are never touched here.
func (r *pgCropRepository) Update(ctx context.Context, c *model.Crop) error {
	images, err := json.Marshal(c.Images)
	if err != nil {
		return fmt.Errorf("pgCropRepository.Update marshal images: %w", err)
	}
	location, err := json.Marshal(c.Location)
	if err != nil {
		return fmt.Errorf("pgCropRepository.Update marshal location: %w", err)
	}

	query := `UPDATE crops SET
                name = $1, type = $2, image_url = $3, images = $4, location = $5,
                harvest_date = $6, quantity = $7, unit = $8, price_per_unit = $9,
                published = $10, updated_at = CURRENT_TIMESTAMP
              WHERE id = $11`
	res, err := r.db.ExecContext(ctx, query,
		c.Name, c.Type, c.ImageURL, images, location,
		c.HarvestDate, c.Quantity, c.Unit, c.PricePerUnit, c.Published, c.ID)
	if err != nil {
		return fmt.Errorf("pgCropRepository.Update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCropRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM crops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCropRepository.Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCropRepository) IncrementViews(ctx context.Context, id string) error {
	// Atomic in the database; concurrent bumps never lose an update.
	_, err := r.db.ExecContext(ctx, `UPDATE crops SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCropRepository.IncrementViews: %w", err)
	}
	return nil
}

func (r *pgCropRepository) UpdateDiseaseAnalysis(ctx context.Context, id string, analysis *model.DiseaseAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("pgCropRepository.UpdateDiseaseAnalysis marshal: %w", err)
	}
	query := `UPDATE crops SET disease_analysis = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, data, id)
	if err != nil {
		return fmt.Errorf("pgCropRepository.UpdateDiseaseAnalysis: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCrop(row rowScanner) (*model.Crop, error) {
	crop := &model.Crop{}
	var images, location, analysis []byte
	err := row.Scan(
		&crop.ID, &crop.Slug, &crop.FarmerID, &crop.FarmerName, &crop.Name, &crop.Type,
		&crop.ImageURL, &images, &location, &crop.HarvestDate, &crop.Quantity, &crop.Unit,
		&crop.PricePerUnit, &analysis, &crop.Published, &crop.Views, &crop.Orders,
		&crop.CreatedAt, &crop.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &crop.Images); err != nil {
			return nil, fmt.Errorf("unmarshal images: %w", err)
		}
	}
	if len(location) > 0 {
		if err := json.Unmarshal(location, &crop.Location); err != nil {
			return nil, fmt.Errorf("unmarshal location: %w", err)
		}
	}
	if len(analysis) > 0 {
		crop.DiseaseAnalysis = &model.DiseaseAnalysis{}
		if err := json.Unmarshal(analysis, crop.DiseaseAnalysis); err != nil {
			return nil, fmt.Errorf("unmarshal disease_analysis: %w", err)
		}
	}
	return crop, nil
}
