package repository

import (
	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindAvailable(filter ProductFilter) ([]model.Product, error)
	FindByID(id uint) (*model.Product, error)
	FindBySlug(slug string) (*model.Product, error)
	FindAvailableByIDs(ids []uint) ([]model.Product, error)
	Update(product *model.Product) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}
	return nil
}

func (r *productRepository) FindAvailable(filter ProductFilter) ([]model.Product, error) {
	query := r.db.Where("available = ?", true)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		logger.Error("Failed to list available products", err, map[string]interface{}{
			"category": filter.Category,
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySlug(slug string) (*model.Product, error) {
	var product model.Product
	if err := r.db.Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindAvailableByIDs returns only the subset of ids that still exists and is
// available; cart iteration silently drops lines whose product disappeared.
func (r *productRepository) FindAvailableByIDs(ids []uint) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	var products []model.Product
	if err := r.db.Where("id IN ? AND available = ?", ids, true).Find(&products).Error; err != nil {
		logger.Error("Failed to fetch products by ids", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Update(product *model.Product) error {
	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}
