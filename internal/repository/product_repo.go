package repository

import (
	"junktrunk-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByBarcode(barcode string) (*model.Product, error)
	UpsertByBarcode(product *model.Product) error
	UpdatePrices(id uuid.UUID, prices []model.PriceEntry) error
	UpdateImage(id uuid.UUID, imageURL string) error
	UpdateFields(id uuid.UUID, fields map[string]interface{}) error
	CountAll() (int64, error)
	CountMissingImage() (int64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByBarcode(barcode string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "barcode = ?", barcode).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpsertByBarcode inserts the product or, when another request already created
// the same barcode, merges into the existing row. The conflict is resolved by
// the database so two concurrent first-scans end up with exactly one row; a
// non-null image wins over a null one. The canonical row is read back
// afterwards because the conflict path keeps the existing primary key. The
// re-read goes through a zero-ID struct: First would otherwise fold the
// caller's generated (and on conflict, losing) primary key into the WHERE
// clause and miss the winning row.
func (r *productRepo) UpsertByBarcode(product *model.Product) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "barcode"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"image_url": gorm.Expr("COALESCE(NULLIF(EXCLUDED.image_url, ''), products.image_url)"),
		}),
	}).Create(product).Error
	if err != nil {
		return err
	}

	var canonical model.Product
	if err := r.db.Where("barcode = ?", product.Barcode).First(&canonical).Error; err != nil {
		return err
	}
	*product = canonical
	return nil
}

func (r *productRepo) UpdatePrices(id uuid.UUID, prices []model.PriceEntry) error {
	return r.db.Model(&model.Product{}).
		Where("id = ?", id).
		Update("prices", datatypes.NewJSONSlice(prices)).Error
}

func (r *productRepo) UpdateImage(id uuid.UUID, imageURL string) error {
	return r.db.Model(&model.Product{}).
		Where("id = ?", id).
		Update("image_url", imageURL).Error
}

func (r *productRepo) UpdateFields(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepo) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).Count(&count).Error
	return count, err
}

func (r *productRepo) CountMissingImage() (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).
		Where("image_url IS NULL OR image_url = ''").
		Count(&count).Error
	return count, err
}
