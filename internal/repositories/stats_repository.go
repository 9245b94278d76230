package repositories

import (
	"fmt"

	"oms/internal/models"

	"gorm.io/gorm"
)

// StatusCount is one row of the per-status order breakdown.
type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

// MonthlyRevenue is revenue bucketed by calendar month ("2026-08").
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// StatsRepository defines the read-side aggregates behind the admin
// dashboard. Cancelled orders never count toward revenue.
type StatsRepository interface {
	TotalOrders() (int64, error)
	TotalRevenue() (float64, error)
	LowStockProducts(threshold int) (int64, error)
	PendingOrders() (int64, error)
	StatusCounts() ([]StatusCount, error)
	MonthlyRevenue(months int) ([]MonthlyRevenue, error)
}

// GORMStatsRepository is a GORM implementation of StatsRepository.
type GORMStatsRepository struct {
	db *gorm.DB
}

// NewGORMStatsRepository creates a new instance of GORMStatsRepository.
func NewGORMStatsRepository(db *gorm.DB) *GORMStatsRepository {
	return &GORMStatsRepository{
		db: db,
	}
}

func (r *GORMStatsRepository) TotalOrders() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (r *GORMStatsRepository) TotalRevenue() (float64, error) {
	var revenue float64
	err := r.db.Model(&models.Order{}).
		Where("status <> ?", string(models.StatusCancelled)).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&revenue).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return revenue, nil
}

func (r *GORMStatsRepository) LowStockProducts(threshold int) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("stock_quantity < ?", threshold).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count low stock products: %w", err)
	}
	return count, nil
}

func (r *GORMStatsRepository) PendingOrders() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("status = ?", string(models.StatusPending)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending orders: %w", err)
	}
	return count, nil
}

func (r *GORMStatsRepository) StatusCounts() ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	return counts, nil
}

func (r *GORMStatsRepository) MonthlyRevenue(months int) ([]MonthlyRevenue, error) {
	// Month bucketing has no portable SQL spelling.
	monthExpr := "to_char(created_at, 'YYYY-MM')"
	if r.db.Dialector.Name() == "sqlite" {
		monthExpr = "strftime('%Y-%m', created_at)"
	}

	var rows []MonthlyRevenue
	err := r.db.Model(&models.Order{}).
		Where("status <> ?", string(models.StatusCancelled)).
		Select(monthExpr + " as month, SUM(total_amount) as revenue").
		Group("month").
		Order("month DESC").
		Limit(months).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly revenue: %w", err)
	}
	return rows, nil
}
