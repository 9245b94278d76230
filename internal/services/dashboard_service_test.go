package services_test

import (
	"context"
	"testing"

	"oms/internal/models"
	"oms/internal/repositories"
	"oms/internal/services"
	"oms/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockStatsRepository is a mock implementation of repositories.StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) TotalOrders() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsRepository) TotalRevenue() (float64, error) {
	args := m.Called()
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockStatsRepository) LowStockProducts(threshold int) (int64, error) {
	args := m.Called(threshold)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsRepository) PendingOrders() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsRepository) StatusCounts() ([]repositories.StatusCount, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.StatusCount), args.Error(1)
}

func (m *MockStatsRepository) MonthlyRevenue(months int) ([]repositories.MonthlyRevenue, error) {
	args := m.Called(months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.MonthlyRevenue), args.Error(1)
}

func expectFullStats(mockStats *MockStatsRepository) {
	mockStats.On("TotalOrders").Return(int64(42), nil).Once()
	mockStats.On("TotalRevenue").Return(1234.5, nil).Once()
	mockStats.On("LowStockProducts", 10).Return(int64(3), nil).Once()
	mockStats.On("PendingOrders").Return(int64(7), nil).Once()
	mockStats.On("StatusCounts").Return([]repositories.StatusCount{
		{Status: models.StatusPending, Count: 7},
		{Status: models.StatusDelivered, Count: 35},
	}, nil).Once()
	mockStats.On("MonthlyRevenue", 6).Return([]repositories.MonthlyRevenue{
		{Month: "2026-08", Revenue: 1234.5},
	}, nil).Once()
}

func TestDashboardService_GetStats(t *testing.T) {
	mockStats := new(MockStatsRepository)
	service := services.NewDashboardService(mockStats, cache.NewMemory())
	expectFullStats(mockStats)

	stats, err := service.GetStats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(42), stats.TotalOrders)
	assert.Equal(t, 1234.5, stats.TotalRevenue)
	assert.Equal(t, int64(3), stats.LowStockProducts)
	assert.Equal(t, int64(7), stats.PendingOrders)
	assert.Len(t, stats.StatusCounts, 2)
	assert.Len(t, stats.MonthlyRevenue, 1)
	mockStats.AssertExpectations(t)
}

func TestDashboardService_GetStats_Cached(t *testing.T) {
	mockStats := new(MockStatsRepository)
	service := services.NewDashboardService(mockStats, cache.NewMemory())

	// Every repository call is expected exactly once; the second read comes
	// from the cache.
	expectFullStats(mockStats)

	first, err := service.GetStats(context.Background())
	assert.NoError(t, err)
	second, err := service.GetStats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	mockStats.AssertExpectations(t)
}

func TestDashboardService_GetStats_ErrorNotCached(t *testing.T) {
	mockStats := new(MockStatsRepository)
	service := services.NewDashboardService(mockStats, cache.NewMemory())

	mockStats.On("TotalOrders").Return(int64(0), assert.AnError).Once()
	_, err := service.GetStats(context.Background())
	assert.Error(t, err)

	// A failed aggregation leaves the cache empty, so a retry hits the
	// repository again.
	expectFullStats(mockStats)
	stats, err := service.GetStats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(42), stats.TotalOrders)
	mockStats.AssertExpectations(t)
}
