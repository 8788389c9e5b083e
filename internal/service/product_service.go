package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"marketplace/internal/database"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	store       storage.Store
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, store storage.Store, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		store:       store,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// ListPublic retrieves a page of active products.
func (s *productService) ListPublic(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	filter.Status = model.ProductStatusActive
	return s.list(ctx, filter)
}

// ListByVendor retrieves a page of a vendor's own products.
func (s *productService) ListByVendor(ctx context.Context, vendorID int64, filter model.ProductFilter) (*model.ProductPage, error) {
	filter.VendorID = &vendorID
	return s.list(ctx, filter)
}

func (s *productService) list(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int64("total", total).
		Msg("retrieved products")

	return &model.ProductPage{
		Items:  products,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// GetPublic retrieves a product unless it is a draft or inactive.
func (s *productService) GetPublic(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil || product.Status == model.ProductStatusDraft || product.Status == model.ProductStatusInactive {
		return nil, model.NewProductNotFound(id)
	}

	return product, nil
}

// ListCategories retrieves every product category.
func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.productRepo.ListCategories(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Create adds a product to a vendor's catalog.
func (s *productService) Create(ctx context.Context, vendorID int64, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product := &model.Product{VendorID: vendorID}
	applyProductRequest(product, req)

	if err := s.productRepo.Create(ctx, product); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, model.NewValidationError(fmt.Sprintf("SKU %q already exists", product.SKU))
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Int64("product_id", product.ID).
		Int64("vendor_id", vendorID).
		Msg("product created")

	return product, nil
}

// Update edits a vendor's product.
func (s *productService) Update(ctx context.Context, vendorID, productID int64, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product := &model.Product{ID: productID, VendorID: vendorID}
	applyProductRequest(product, req)

	if err := s.productRepo.Update(ctx, product); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		if database.IsUniqueViolation(err) {
			return nil, model.NewValidationError(fmt.Sprintf("SKU %q already exists", product.SKU))
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info().
		Int64("product_id", productID).
		Int("quantity", product.Quantity).
		Str("status", product.Status).
		Msg("product updated")

	return product, nil
}

// UploadImage stores an image and attaches it to a vendor's product.
func (s *productService) UploadImage(ctx context.Context, vendorID, productID int64, filename, contentType string, body io.Reader) (*model.ProductImage, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, model.ErrUnsupportedMedia
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || product.VendorID != vendorID {
		return nil, model.NewProductNotFound(productID)
	}

	key := fmt.Sprintf("products/%d/%s%s", productID, uuid.NewString(), imageExtension(filename, mediaType))

	url, err := s.store.Put(ctx, key, mediaType, body)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to store product image")
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	image := &model.ProductImage{ProductID: productID, URL: url}
	if err := s.productRepo.AddImage(ctx, image); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	s.logger.Info().
		Int64("product_id", productID).
		Str("url", url).
		Msg("product image uploaded")

	return image, nil
}

func validateProductRequest(req *model.ProductRequest) error {
	if req == nil {
		return model.NewValidationError("request body is required")
	}
	if strings.TrimSpace(req.SKU) == "" {
		return model.NewValidationError("sku is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return model.NewValidationError("title is required")
	}
	if req.Price.IsNegative() {
		return model.NewValidationError("price cannot be negative")
	}
	if req.Quantity < 0 {
		return model.NewValidationError("quantity cannot be negative")
	}
	if req.Quantity > model.MaxQuantity {
		return model.NewValidationError(fmt.Sprintf("quantity cannot exceed %d", model.MaxQuantity))
	}

	switch req.Status {
	case "", model.ProductStatusDraft, model.ProductStatusActive, model.ProductStatusInactive, model.ProductStatusOutOfStock:
	default:
		return model.NewValidationError(fmt.Sprintf("unknown product status %q", req.Status))
	}
	return nil
}

// applyProductRequest copies the request onto product. Stock drives the
// active/out_of_stock flip; draft and inactive are left as chosen.
func applyProductRequest(product *model.Product, req *model.ProductRequest) {
	product.CategoryID = req.CategoryID
	product.SKU = strings.TrimSpace(req.SKU)
	product.Title = strings.TrimSpace(req.Title)
	product.Description = req.Description
	product.Price = req.Price.Round(2)
	product.Quantity = req.Quantity

	status := req.Status
	if status == "" {
		status = model.ProductStatusActive
	}
	switch {
	case status == model.ProductStatusActive && req.Quantity == 0:
		status = model.ProductStatusOutOfStock
	case status == model.ProductStatusOutOfStock && req.Quantity > 0:
		status = model.ProductStatusActive
	}
	product.Status = status
}

func imageExtension(filename, mediaType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
