package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/oskarh/feedgate/internal/domain"
	"gorm.io/gorm"
)

// ProductRepository handles product data operations.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new ProductRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ProductRepository: repository instance bound to db.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// BulkInsert inserts a batch of product records in one statement.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - products: records to insert.
// Returns:
//   - error: non-nil if the insert fails; the whole batch is rejected.
func (r *ProductRepository) BulkInsert(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(products).Error
}

// UpdateBySKU updates the importable fields of an existing product
// identified by tenant and case-insensitive SKU.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tenantID: owning tenant.
//   - product: record carrying the new field values and the SKU key.
// Returns:
//   - error: non-nil if the update fails or no row matches.
func (r *ProductRepository) UpdateBySKU(ctx context.Context, tenantID string, product *domain.Product) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("tenant_id = ? AND LOWER(sku) = ?", tenantID, strings.ToLower(product.SKU)).
		Updates(map[string]interface{}{
			"name":             product.Name,
			"description":      product.Description,
			"category":         product.Category,
			"brand":            product.Brand,
			"image_url":        product.ImageURL,
			"tags":             product.Tags,
			"price":            product.Price,
			"compare_at_price": product.CompareAtPrice,
			"weight":           product.Weight,
			"stock_quantity":   product.StockQuantity,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no product with sku %q for tenant", product.SKU)
	}
	return nil
}

// FindBySKUs retrieves a tenant's products whose SKU matches any of the
// given values, case-insensitively.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tenantID: owning tenant.
//   - skus: SKU values to match; the caller bounds the list size.
// Returns:
//   - []domain.Product: matching records.
//   - error: non-nil if the query fails.
func (r *ProductRepository) FindBySKUs(ctx context.Context, tenantID string, skus []string) ([]domain.Product, error) {
	if len(skus) == 0 {
		return []domain.Product{}, nil
	}
	lowered := make([]string, len(skus))
	for i, s := range skus {
		lowered[i] = strings.ToLower(s)
	}
	var products []domain.Product
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(sku) IN ?", tenantID, lowered).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products by SKUs: %w", err)
	}
	return products, nil
}

// FindByNames retrieves a tenant's products whose name matches any of
// the given values, case-insensitively.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tenantID: owning tenant.
//   - names: product names to match; the caller bounds the list size.
// Returns:
//   - []domain.Product: matching records.
//   - error: non-nil if the query fails.
func (r *ProductRepository) FindByNames(ctx context.Context, tenantID string, names []string) ([]domain.Product, error) {
	if len(names) == 0 {
		return []domain.Product{}, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}
	var products []domain.Product
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(name) IN ?", tenantID, lowered).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products by names: %w", err)
	}
	return products, nil
}

// GetByID retrieves a product by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: product ID.
// Returns:
//   - *domain.Product: product record if found.
//   - error: non-nil if lookup fails.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CountByTenant counts a tenant's products.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tenantID: owning tenant.
// Returns:
//   - int64: number of records.
//   - error: non-nil if the query fails.
func (r *ProductRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
