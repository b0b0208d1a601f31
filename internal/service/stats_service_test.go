package service

import (
	"testing"

	"junktrunk-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatsOverview(t *testing.T) {
	productRepo := new(MockProductRepository)
	scanRepo := new(MockScanRepository)

	productRepo.On("CountAll").Return(int64(42), nil)
	productRepo.On("CountMissingImage").Return(int64(7), nil)
	scanRepo.On("CountSince", mock.AnythingOfType("time.Time")).Return(int64(5), nil)

	svc := NewStatsService(productRepo, scanRepo)

	overview, err := svc.Overview()
	require.NoError(t, err)
	assert.Equal(t, int64(42), overview.TotalProducts)
	assert.Equal(t, int64(5), overview.ScansToday)
	assert.Equal(t, int64(7), overview.MissingImages)
}

func TestStatsScanActivityWindow(t *testing.T) {
	scanRepo := new(MockScanRepository)
	data := []repository.ScanActivityData{{Date: "2026-08-31", Scans: 10, Products: 4}}
	scanRepo.On("ScanActivity", mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(data, nil)

	svc := NewStatsService(new(MockProductRepository), scanRepo)

	got, err := svc.ScanActivity(7)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
