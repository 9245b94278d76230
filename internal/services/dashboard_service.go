package services

import (
	"context"
	"time"

	"oms/internal/repositories"
	"oms/pkg/cache"
)

const (
	dashboardCacheKey = "dashboard:stats"
	dashboardCacheTTL = 5 * time.Minute

	lowStockThreshold = 10
	revenueMonths     = 6
)

// DashboardStats is the aggregate payload behind the admin dashboard.
type DashboardStats struct {
	TotalOrders      int64                         `json:"total_orders"`
	TotalRevenue     float64                       `json:"total_revenue"`
	LowStockProducts int64                         `json:"low_stock_products"`
	PendingOrders    int64                         `json:"pending_orders"`
	StatusCounts     []repositories.StatusCount    `json:"status_counts"`
	MonthlyRevenue   []repositories.MonthlyRevenue `json:"monthly_revenue"`
}

// DashboardService aggregates read-side reporting for elevated roles.
type DashboardService struct {
	stats repositories.StatsRepository
	cache cache.Cache
}

// NewDashboardService creates a new DashboardService. c may be nil.
func NewDashboardService(stats repositories.StatsRepository, c cache.Cache) *DashboardService {
	return &DashboardService{
		stats: stats,
		cache: c,
	}
}

// GetStats returns the dashboard aggregates, cached for five minutes.
func (s *DashboardService) GetStats(ctx context.Context) (DashboardStats, error) {
	return cache.Remember(ctx, s.cache, dashboardCacheKey, dashboardCacheTTL, func() (DashboardStats, error) {
		var (
			stats DashboardStats
			err   error
		)
		if stats.TotalOrders, err = s.stats.TotalOrders(); err != nil {
			return stats, err
		}
		if stats.TotalRevenue, err = s.stats.TotalRevenue(); err != nil {
			return stats, err
		}
		if stats.LowStockProducts, err = s.stats.LowStockProducts(lowStockThreshold); err != nil {
			return stats, err
		}
		if stats.PendingOrders, err = s.stats.PendingOrders(); err != nil {
			return stats, err
		}
		if stats.StatusCounts, err = s.stats.StatusCounts(); err != nil {
			return stats, err
		}
		if stats.MonthlyRevenue, err = s.stats.MonthlyRevenue(revenueMonths); err != nil {
			return stats, err
		}
		return stats, nil
	})
}
