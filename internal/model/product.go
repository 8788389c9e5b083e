package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Product statuses.
const (
	ProductStatusDraft      = "draft"
	ProductStatusActive     = "active"
	ProductStatusInactive   = "inactive"
	ProductStatusOutOfStock = "out_of_stock"
)

// MaxQuantity is the largest stock or line quantity the INTEGER columns hold.
const MaxQuantity = math.MaxInt32

// Product represents a vendor listing in the catalog.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	VendorID    int64           `json:"vendorId" db:"vendor_id"`
	CategoryID  *int64          `json:"categoryId,omitempty" db:"category_id"`
	SKU         string          `json:"sku" db:"sku"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Status      string          `json:"status" db:"status"`
	Images      []ProductImage  `json:"images,omitempty"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductImage is an uploaded picture of a product.
type ProductImage struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"productId" db:"product_id"`
	URL       string    `json:"url" db:"url"`
	SortOrder int       `json:"sortOrder" db:"sort_order"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Category groups products in the catalog.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Limit      int
	Offset     int
	CategoryID *int64
	VendorID   *int64
	Query      string
	// Status restricts results to one status; empty means any.
	Status string
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items  []Product `json:"items"`
	Total  int64     `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// ProductRequest represents the payload for creating or updating a product.
type ProductRequest struct {
	CategoryID  *int64          `json:"categoryId,omitempty"`
	SKU         string          `json:"sku"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Status      string          `json:"status,omitempty"`
}
