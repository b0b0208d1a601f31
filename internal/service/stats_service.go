package service

import (
	"time"

	"junktrunk-api/internal/repository"
)

type StatsService interface {
	ScanActivity(days int) ([]repository.ScanActivityData, error)
	Overview() (*StatsOverview, error)
}

// StatsOverview is the dashboard summary.
type StatsOverview struct {
	TotalProducts int64 `json:"total_products"`
	ScansToday    int64 `json:"scans_today"`
	MissingImages int64 `json:"missing_images"`
}

type statsService struct {
	productRepo repository.ProductRepository
	scanRepo    repository.ScanRepository
}

func NewStatsService(pRepo repository.ProductRepository, sRepo repository.ScanRepository) StatsService {
	return &statsService{productRepo: pRepo, scanRepo: sRepo}
}

func (s *statsService) ScanActivity(days int) ([]repository.ScanActivityData, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.scanRepo.ScanActivity(startDate, endDate)
}

func (s *statsService) Overview() (*StatsOverview, error) {
	total, err := s.productRepo.CountAll()
	if err != nil {
		return nil, err
	}
	missing, err := s.productRepo.CountMissingImage()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	scansToday, err := s.scanRepo.CountSince(midnight)
	if err != nil {
		return nil, err
	}

	return &StatsOverview{
		TotalProducts: total,
		ScansToday:    scansToday,
		MissingImages: missing,
	}, nil
}
