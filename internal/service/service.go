package service

import (
	"context"
	"io"
	"time"

	"marketplace/internal/model"
)

// Paging defaults shared by every listing.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// AuthService defines account and session operations.
type AuthService interface {
	// Register creates a client or vendor account.
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)

	// Login verifies credentials and issues a bearer session.
	Login(ctx context.Context, req *model.LoginRequest) (*model.Session, error)

	// Logout revokes a bearer token.
	Logout(ctx context.Context, token string) error

	// ResolveToken returns the identity behind a bearer token, or nil when it is unknown.
	ResolveToken(ctx context.Context, token string) (*model.Identity, error)

	// Me returns the account of the authenticated caller.
	Me(ctx context.Context, identity *model.Identity) (*model.User, error)

	// ResolveClient maps the caller to an existing client account id. Without
	// an identity, userID and email are consulted only if the fallback is enabled.
	ResolveClient(ctx context.Context, identity *model.Identity, userID *int64, email string) (int64, error)
}

// ProductService defines catalog operations.
type ProductService interface {
	// ListPublic retrieves a page of active products.
	ListPublic(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error)

	// GetPublic retrieves a sellable product with its images.
	GetPublic(ctx context.Context, id int64) (*model.Product, error)

	// ListCategories retrieves every product category.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// ListByVendor retrieves a page of a vendor's own products in any status.
	ListByVendor(ctx context.Context, vendorID int64, filter model.ProductFilter) (*model.ProductPage, error)

	// Create adds a product to a vendor's catalog.
	Create(ctx context.Context, vendorID int64, req *model.ProductRequest) (*model.Product, error)

	// Update edits a vendor's product.
	Update(ctx context.Context, vendorID, productID int64, req *model.ProductRequest) (*model.Product, error)

	// UploadImage stores an image and attaches it to a vendor's product.
	UploadImage(ctx context.Context, vendorID, productID int64, filename, contentType string, body io.Reader) (*model.ProductImage, error)
}

// CheckoutService defines cart pricing and order placement.
type CheckoutService interface {
	// Quote prices a cart per vendor without reserving stock.
	Quote(ctx context.Context, req *model.QuoteRequest) (*model.QuoteResponse, error)

	// PlaceOrder turns a cart into one confirmed order per vendor. A non-empty
	// idempotencyKey makes repeated calls return the first result.
	PlaceOrder(ctx context.Context, identity *model.Identity, req *model.CheckoutRequest, idempotencyKey string) (*model.CheckoutResult, error)
}

// OrderService defines order queries and vendor fulfilment.
type OrderService interface {
	// ListForClient retrieves a page of the client's vendor orders.
	ListForClient(ctx context.Context, clientID int64, filter model.OrderFilter) (*model.OrderPage, error)

	// GetForClient retrieves one of the client's orders with items and history.
	GetForClient(ctx context.Context, clientID, orderID int64) (*model.VendorOrder, error)

	// ListForVendor retrieves a page of the vendor's orders.
	ListForVendor(ctx context.Context, vendorID int64, filter model.OrderFilter) (*model.OrderPage, error)

	// UpdateStatus moves a vendor's order to a new status and records the change.
	UpdateStatus(ctx context.Context, vendorID, changedBy, orderID int64, req *model.StatusUpdateRequest) (*model.VendorOrder, error)
}

// SessionStore keeps bearer sessions.
type SessionStore interface {
	Save(ctx context.Context, token string, identity *model.Identity) error
	Load(ctx context.Context, token string) (*model.Identity, error)
	Delete(ctx context.Context, token string) error
	TTL() time.Duration
}

// IdempotencyStore remembers checkout results by client and key.
type IdempotencyStore interface {
	Begin(ctx context.Context, clientID int64, key string) (*model.CheckoutResult, error)
	Complete(ctx context.Context, clientID int64, key string, result *model.CheckoutResult) error
	Release(ctx context.Context, clientID int64, key string) error
}

// normalizePage clamps limit to [1, MaxPageLimit] and offset to >= 0.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
