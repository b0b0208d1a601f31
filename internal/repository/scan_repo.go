package repository

import (
	"time"

	"junktrunk-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScanRepository interface {
	Create(event *model.ScanEvent) error
	FindLatestByProduct(productID uuid.UUID) (*model.ScanEvent, error)
	FindSince(since time.Time, userID *uuid.UUID) ([]model.ScanEvent, error)
	CountSince(since time.Time) (int64, error)
	ScanActivity(startDate, endDate time.Time) ([]ScanActivityData, error)
}

// ScanActivityData is one day's aggregate for the activity chart.
type ScanActivityData struct {
	Date     string `json:"date"`
	Scans    int    `json:"scans"`
	Products int    `json:"products"`
}

type scanRepo struct {
	db *gorm.DB
}

func NewScanRepo(db *gorm.DB) ScanRepository {
	return &scanRepo{db}
}

func (r *scanRepo) Create(event *model.ScanEvent) error {
	return r.db.Create(event).Error
}

// FindLatestByProduct returns the most recent scan of a product, or
// gorm.ErrRecordNotFound when it has never been scanned.
func (r *scanRepo) FindLatestByProduct(productID uuid.UUID) (*model.ScanEvent, error) {
	var event model.ScanEvent
	err := r.db.Where("product_id = ?", productID).
		Order("scanned_at DESC").
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// FindSince lists scan events with their products. The preload is unscoped so
// a row whose product was since soft-deleted still renders in history.
func (r *scanRepo) FindSince(since time.Time, userID *uuid.UUID) ([]model.ScanEvent, error) {
	var events []model.ScanEvent
	query := r.db.Preload("Product", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	}).Where("scanned_at >= ?", since)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	err := query.Order("scanned_at DESC").Find(&events).Error
	return events, err
}

func (r *scanRepo) CountSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.ScanEvent{}).
		Where("scanned_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *scanRepo) ScanActivity(startDate, endDate time.Time) ([]ScanActivityData, error) {
	var results []ScanActivityData

	// Aggregate scans per day
	rows, err := r.db.Model(&model.ScanEvent{}).
		Select(`
			DATE(scanned_at) as date,
			COUNT(*) as scans,
			COUNT(DISTINCT product_id) as products
		`).
		Where("scanned_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(scanned_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data ScanActivityData
		if err := rows.Scan(&data.Date, &data.Scans, &data.Products); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}
