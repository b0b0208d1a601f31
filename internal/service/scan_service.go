package service

import (
	"context"
	"errors"
	"time"

	"junktrunk-api/internal/metrics"
	"junktrunk-api/internal/model"
	"junktrunk-api/internal/repository"
	"junktrunk-api/internal/resolver"
	"junktrunk-api/internal/ws"
	"junktrunk-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound means a brand-new barcode could not be resolved by
	// any source. No row is created in that case.
	ErrProductNotFound = errors.New("product not found in any source")
	// ErrBarcodeRequired is returned before any pipeline invocation.
	ErrBarcodeRequired = errors.New("barcode is required")
	// ErrNoFieldsToUpdate is returned by UpdateProduct for an empty patch.
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// backfillTimeout bounds the per-entry image lookup during history listing.
const backfillTimeout = 15 * time.Second

// Resolver is the slice of the resolution pipeline the store depends on.
type Resolver interface {
	Resolve(ctx context.Context, barcode string) (*resolver.Result, error)
	ResolveImage(ctx context.Context, barcode string) (string, error)
}

type ScanRequest struct {
	Barcode   string     `json:"barcode" validate:"required"`
	Price     *float64   `json:"price"`
	ImageURL  string     `json:"image_url"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	UserID    *uuid.UUID `json:"user_id"`
}

// ScanResult carries the product plus the previous scan's timestamp and
// location. The previous-scan fields are nil on the first-ever scan.
type ScanResult struct {
	Product              *model.Product
	Prices               []model.PriceEntry
	Image                string
	LastScannedAt        *time.Time
	LastScannedLatitude  *float64
	LastScannedLongitude *float64
}

// ScanHistoryEntry is one history row joined with its product's current state.
type ScanHistoryEntry struct {
	ScanID    uuid.UUID
	ScannedAt time.Time
	Latitude  *float64
	Longitude *float64
	UserID    *uuid.UUID
	Product   ScanHistoryProduct
}

type ScanHistoryProduct struct {
	ID      uuid.UUID
	Barcode string
	Name    string
	Image   string
	Prices  []model.PriceEntry
}

type ProductUpdateRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	ImageURL    *string  `json:"image_url"`
	Description *string  `json:"description"`
}

type ScanService interface {
	Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error)
	HistoryToday(ctx context.Context, userID *uuid.UUID) ([]ScanHistoryEntry, error)
	GetProduct(id uuid.UUID) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *ProductUpdateRequest) error
}

type scanService struct {
	productRepo repository.ProductRepository
	scanRepo    repository.ScanRepository
	pipeline    Resolver
	wsHub       *ws.Hub
	log         *zap.Logger
}

func NewScanService(pRepo repository.ProductRepository, sRepo repository.ScanRepository, pipeline Resolver, hub *ws.Hub, log *zap.Logger) ScanService {
	if log == nil {
		log = zap.NewNop()
	}
	return &scanService{
		productRepo: pRepo,
		scanRepo:    sRepo,
		pipeline:    pipeline,
		wsHub:       hub,
		log:         log,
	}
}

// Scan is the per-barcode state machine: the existing-record branch records
// the scan and opportunistically refreshes price/image data; the new-record
// branch resolves first and only creates a row on success.
func (s *scanService) Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, ErrBarcodeRequired
	}

	existing, err := s.productRepo.FindByBarcode(req.Barcode)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		return s.scanExisting(ctx, req, existing)
	}
	return s.scanNew(ctx, req)
}

func (s *scanService) scanExisting(ctx context.Context, req *ScanRequest, product *model.Product) (*ScanResult, error) {
	// Capture the previous scan BEFORE recording this one, so the "last
	// scanned" badge reflects the prior visit.
	previous, err := s.scanRepo.FindLatestByProduct(product.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	s.recordScan(product.ID, req)

	prices := []model.PriceEntry(product.Prices)
	image := product.ImageURL

	res, resolveErr := s.pipeline.Resolve(ctx, req.Barcode)
	if resolveErr == nil && res != nil {
		if len(res.Prices) > 0 {
			prices = res.Prices
			if err := s.productRepo.UpdatePrices(product.ID, prices); err != nil {
				s.log.Warn("failed to update prices", zap.String("barcode", req.Barcode), zap.Error(err))
			}
		}
		// Client-supplied image wins over the pipeline-discovered one.
		if req.ImageURL != "" {
			image = req.ImageURL
		} else if res.Image != "" {
			image = res.Image
		}
	} else {
		// Refresh failed entirely: keep known-good stored data.
		s.log.Info("refresh skipped, returning cached data", zap.String("barcode", req.Barcode))
	}

	if image != "" && image != product.ImageURL {
		if err := s.productRepo.UpdateImage(product.ID, image); err != nil {
			s.log.Warn("failed to update image", zap.String("barcode", req.Barcode), zap.Error(err))
		}
	}

	metrics.RecordScan("refreshed")
	s.broadcast("product_scanned", product, req.UserID)

	result := &ScanResult{
		Product: product,
		Prices:  prices,
		Image:   image,
	}
	if previous != nil {
		result.LastScannedAt = &previous.ScannedAt
		result.LastScannedLatitude = previous.Latitude
		result.LastScannedLongitude = previous.Longitude
	}
	return result, nil
}

func (s *scanService) scanNew(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	res, err := s.pipeline.Resolve(ctx, req.Barcode)
	if err != nil || res == nil {
		// No placeholder rows for unresolvable barcodes, and no scan event
		// either: there is no product to reference.
		metrics.RecordScan("not_found")
		return nil, ErrProductNotFound
	}

	image := req.ImageURL
	if image == "" {
		image = res.Image
	}

	product := &model.Product{
		Barcode:        req.Barcode,
		Name:           res.Name,
		ImageURL:       image,
		Brand:          res.Brand,
		Category:       res.Category,
		OriginPlatform: res.Platform,
		OriginURL:      res.URL,
		Prices:         datatypes.NewJSONSlice(res.Prices),
	}
	if req.Price != nil {
		d := decimal.NewFromFloat(*req.Price)
		product.Price = &d
	}

	// Two concurrent first-scans of the same barcode race here; the conflict
	// is resolved atomically by the storage layer.
	if err := s.productRepo.UpsertByBarcode(product); err != nil {
		return nil, err
	}

	s.recordScan(product.ID, req)

	metrics.RecordScan("created")
	s.broadcast("product_created", product, req.UserID)

	responseImage := product.ImageURL
	if responseImage == "" {
		responseImage = image
	}

	return &ScanResult{
		Product: product,
		Prices:  res.Prices,
		Image:   responseImage,
	}, nil
}

// recordScan appends to the audit log. A failure here is logged but does not
// fail the scan.
func (s *scanService) recordScan(productID uuid.UUID, req *ScanRequest) {
	event := &model.ScanEvent{
		ProductID: productID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		UserID:    req.UserID,
	}
	if err := s.scanRepo.Create(event); err != nil {
		s.log.Warn("failed to record scan event", zap.Error(err))
	}
}

func (s *scanService) broadcast(action string, product *model.Product, userID *uuid.UUID) {
	if s.wsHub == nil {
		return
	}
	payload := map[string]interface{}{
		"type":   "scan",
		"action": action,
		"product": map[string]interface{}{
			"id":      product.ID,
			"barcode": product.Barcode,
			"name":    product.Name,
			"image":   product.ImageURL,
		},
	}
	if userID != nil {
		payload["user_id"] = userID.String()
	}
	go s.wsHub.PublishJSON(payload)
}

// HistoryToday returns today's scans joined with current product data.
// Products with no stored image get a best-effort backfill: a failed lookup
// degrades to a null image instead of failing the listing.
func (s *scanService) HistoryToday(ctx context.Context, userID *uuid.UUID) ([]ScanHistoryEntry, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	events, err := s.scanRepo.FindSince(midnight, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]ScanHistoryEntry, 0, len(events))
	for _, event := range events {
		image := event.Product.ImageURL
		if image == "" && event.Product.Barcode != "" {
			image = s.backfillImage(ctx, &event.Product)
		}

		entries = append(entries, ScanHistoryEntry{
			ScanID:    event.ID,
			ScannedAt: event.ScannedAt,
			Latitude:  event.Latitude,
			Longitude: event.Longitude,
			UserID:    event.UserID,
			Product: ScanHistoryProduct{
				ID:      event.ProductID,
				Barcode: event.Product.Barcode,
				Name:    event.Product.Name,
				Image:   image,
				Prices:  event.Product.Prices,
			},
		})
	}
	return entries, nil
}

func (s *scanService) backfillImage(ctx context.Context, product *model.Product) string {
	ctx, cancel := context.WithTimeout(ctx, backfillTimeout)
	defer cancel()

	image, err := s.pipeline.ResolveImage(ctx, product.Barcode)
	if err != nil || image == "" {
		if err != nil {
			s.log.Warn("image backfill failed", zap.String("barcode", product.Barcode), zap.Error(err))
		}
		return ""
	}
	if err := s.productRepo.UpdateImage(product.ID, image); err != nil {
		s.log.Warn("failed to save backfilled image", zap.String("barcode", product.Barcode), zap.Error(err))
	}
	return image
}

func (s *scanService) GetProduct(id uuid.UUID) (*model.Product, error) {
	return s.productRepo.FindByID(id)
}

func (s *scanService) UpdateProduct(id uuid.UUID, req *ProductUpdateRequest) error {
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Price != nil {
		fields["price"] = decimal.NewFromFloat(*req.Price)
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if len(fields) == 0 {
		return ErrNoFieldsToUpdate
	}
	return s.productRepo.UpdateFields(id, fields)
}
