package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ProductStatus represents the catalog status of a product record.
// Values include ProductStatusDraft, ProductStatusActive, and ProductStatusArchived.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Product represents a normalized product record in the tenant catalog.
// Fields mirror the canonical field catalog used by the import pipeline.
type Product struct {
	ID             string        `gorm:"type:text;primaryKey" json:"id"`
	TenantID       string        `gorm:"type:text;not null;index:idx_products_tenant" json:"tenant_id"`
	Name           string        `gorm:"type:text;not null;index:idx_products_name" json:"name"`
	Description    string        `gorm:"type:text" json:"description,omitempty"`
	SKU            string        `gorm:"type:text;index:idx_products_sku" json:"sku,omitempty"`
	Category       string        `gorm:"type:text;index:idx_products_category" json:"category,omitempty"`
	Brand          string        `gorm:"type:text" json:"brand,omitempty"`
	ImageURL       string        `gorm:"type:text" json:"image_url,omitempty"`
	Tags           StringArray   `gorm:"type:text" json:"tags"`
	Price          float64       `json:"price"`
	CompareAtPrice float64       `json:"compare_at_price,omitempty"`
	Weight         float64       `json:"weight,omitempty"`
	StockQuantity  int           `gorm:"default:0" json:"stock_quantity"`
	Status         ProductStatus `gorm:"type:text;index:idx_products_status;default:draft" json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName returns the database table name for Product.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Product) TableName() string {
	return "products"
}
