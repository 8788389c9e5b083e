package repository

import (
	"context"

	"marketplace/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines the interface for account data access operations.
type UserRepository interface {
	// Create inserts a user and, when vendor is non-nil, its vendor row in the
	// same transaction. Returns model.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *model.User, vendor *model.Vendor) error

	// GetByID retrieves a user by id. Returns nil, nil when missing.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// GetByEmail retrieves a user by case-insensitive email. Returns nil, nil when missing.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetVendorByUserID retrieves the vendor owned by a user. Returns nil, nil when missing.
	GetVendorByUserID(ctx context.Context, userID int64) (*model.Vendor, error)
}

// ProductRepository defines the interface for catalog data access operations.
type ProductRepository interface {
	// List retrieves a filtered page of products and the total match count.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error)

	// GetByID retrieves a single product with its images. Returns nil, nil when missing.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products without locking them.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// LockByIDs retrieves and row-locks multiple products in ascending id order.
	LockByIDs(ctx context.Context, tx pgx.Tx, ids []int64) ([]model.Product, error)

	// DecrementStock subtracts qty from a product's stock and flips it to
	// out_of_stock when nothing is left. Returns the remaining quantity.
	DecrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) (int, error)

	// RestoreStock adds qty back to a product's stock, reactivating it when
	// it was out of stock.
	RestoreStock(ctx context.Context, tx pgx.Tx, id int64, qty int) error

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// Update overwrites the editable fields of a vendor's product.
	// Returns model.ErrProductNotFound when the vendor does not own it.
	Update(ctx context.Context, product *model.Product) error

	// AddImage appends an image to a product.
	AddImage(ctx context.Context, image *model.ProductImage) error

	// ListCategories retrieves every category ordered by name.
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// OrderRepository defines the interface for vendor order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a vendor order header within the provided transaction
	// and fills in its generated id and timestamps.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.VendorOrder) error

	// CreateOrderItems inserts multiple order lines within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderLine) error

	// AddStatusHistory appends a status transition within the provided transaction.
	AddStatusHistory(ctx context.Context, tx pgx.Tx, entry *model.StatusHistoryEntry) error

	// GetByID retrieves a vendor order with its items and history. Returns nil, nil when missing.
	GetByID(ctx context.Context, id int64) (*model.VendorOrder, error)

	// GetForUpdate row-locks a vendor order and retrieves it with its items.
	// Returns nil, nil when missing.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.VendorOrder, error)

	// UpdateStatus sets the order and payment status within the provided transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status, paymentStatus string) error

	// ListByClient retrieves a page of a client's orders, newest first.
	ListByClient(ctx context.Context, clientID int64, filter model.OrderFilter) ([]model.VendorOrder, int64, error)

	// ListByVendor retrieves a page of a vendor's orders, newest first.
	ListByVendor(ctx context.Context, vendorID int64, filter model.OrderFilter) ([]model.VendorOrder, int64, error)
}
