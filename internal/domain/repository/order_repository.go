package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agrimarket/internal/common"
	"agrimarket/internal/domain/model"
)

type OrderRepository interface {
	// Create inserts the order and bumps the referenced crop's orders
	// counter in a single transaction, so a failed insert never moves the
	// counter and concurrent orders never lose a bump.
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error
	CountByCrop(ctx context.Context, cropID string) (int, error)
}

type pgOrderRepository struct {
	db *sql.DB
}

func NewPgOrderRepository(db *sql.DB) OrderRepository {
	return &pgOrderRepository{db: db}
}

const orderColumns = `id, customer_id, customer_name, customer_email, farmer_id, farmer_name,
               crop_id, crop_name, crop_image, quantity, price_per_unit, total_price,
               delivery_address, status, created_at, updated_at`

func (r *pgOrderRepository) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgOrderRepository.Create begin tx: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	insert := `INSERT INTO orders (id, customer_id, customer_name, customer_email, farmer_id, farmer_name,
	                               crop_id, crop_name, crop_image, quantity, price_per_unit, total_price,
	                               delivery_address, status)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = tx.ExecContext(ctx, insert,
		o.ID, o.CustomerID, o.CustomerName, o.CustomerEmail, o.FarmerID, o.FarmerName,
		o.CropID, o.CropName, o.CropImage, o.Quantity, o.PricePerUnit, o.TotalPrice,
		o.DeliveryAddress, o.Status)
	if err != nil {
		return fmt.Errorf("pgOrderRepository.Create insert: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE crops SET orders = orders + 1 WHERE id = $1`, o.CropID)
	if err != nil {
		return fmt.Errorf("pgOrderRepository.Create bump crop counter: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("crop %s vanished during order creation: %w", o.CropID, common.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgOrderRepository.Create commit: %w", err)
	}
	return nil
}

func (r *pgOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order := &model.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.CustomerID, &order.CustomerName, &order.CustomerEmail,
		&order.FarmerID, &order.FarmerName, &order.CropID, &order.CropName, &order.CropImage,
		&order.Quantity, &order.PricePerUnit, &order.TotalPrice, &order.DeliveryAddress,
		&order.Status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgOrderRepository.FindByID: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, customerID)
}

func (r *pgOrderRepository) ListByFarmer(ctx context.Context, farmerID string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE farmer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, farmerID)
}

func (r *pgOrderRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgOrderRepository.list query: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(
			&o.ID, &o.CustomerID, &o.CustomerName, &o.CustomerEmail,
			&o.FarmerID, &o.FarmerName, &o.CropID, &o.CropName, &o.CropImage,
			&o.Quantity, &o.PricePerUnit, &o.TotalPrice, &o.DeliveryAddress,
			&o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgOrderRepository.list scan: %w", err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgOrderRepository.list rows.Err: %w", err)
	}
	return orders, nil
}

func (r *pgOrderRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("pgOrderRepository.UpdateStatus: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgOrderRepository) CountByCrop(ctx context.Context, cropID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE crop_id = $1`, cropID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pgOrderRepository.CountByCrop: %w", err)
	}
	return count, nil
}
