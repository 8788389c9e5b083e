package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productColumns = `id, vendor_id, category_id, sku, title, description, price, quantity, status, created_at, updated_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.VendorID,
		&p.CategoryID,
		&p.SKU,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.Quantity,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *productRepository) collect(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// List retrieves a filtered page of products with the total match count.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if filter.VendorID != nil {
		add("vendor_id = $%d", *filter.VendorID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		add("(title ILIKE $%[1]d OR sku ILIKE $%[1]d)", "%"+q+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM catalog.vendor_products ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM catalog.vendor_products
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, productColumns, where, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// GetByID retrieves a single product with its images.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM catalog.vendor_products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, url, sort_order, created_at
		FROM catalog.product_images
		WHERE product_id = $1
		ORDER BY sort_order, id
	`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product images")
		return nil, fmt.Errorf("failed to query product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img model.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.SortOrder, &img.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product image row")
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		p.Images = append(p.Images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves multiple products by their ids.
func (r *productRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM catalog.vendor_products WHERE id = ANY($1) ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	return r.collect(rows)
}

// LockByIDs retrieves multiple products and holds a row lock on each until
// the transaction ends. Locks are taken in ascending id order.
func (r *productRepository) LockByIDs(ctx context.Context, tx pgx.Tx, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM catalog.vendor_products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	return r.collect(rows)
}

// DecrementStock subtracts qty and marks the product out_of_stock at zero or below.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) (int, error) {
	query := `
		UPDATE catalog.vendor_products
		SET quantity = quantity - $2,
			status = CASE WHEN quantity - $2 <= 0 THEN 'out_of_stock' ELSE status END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING quantity
	`

	var remaining int
	err := tx.QueryRow(ctx, query, id, qty).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.NewProductNotFound(id)
		}
		r.logger.Error().Err(err).
			Int64("product_id", id).
			Int("quantity", qty).
			Msg("failed to decrement stock")
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	r.logger.Debug().
		Int64("product_id", id).
		Int("remaining", remaining).
		Msg("stock decremented")

	return remaining, nil
}

// RestoreStock adds qty back and reactivates an out_of_stock product.
func (r *productRepository) RestoreStock(ctx context.Context, tx pgx.Tx, id int64, qty int) error {
	query := `
		UPDATE catalog.vendor_products
		SET quantity = quantity + $2,
			status = CASE WHEN status = 'out_of_stock' AND quantity + $2 > 0 THEN 'active' ELSE status END,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to restore stock")
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// The product may have been removed since the order was placed.
		r.logger.Warn().Int64("product_id", id).Msg("restock skipped for missing product")
	}

	return nil
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO catalog.vendor_products
			(vendor_id, category_id, sku, title, description, price, quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		product.VendorID,
		product.CategoryID,
		product.SKU,
		product.Title,
		product.Description,
		product.Price,
		product.Quantity,
		product.Status,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("vendor_id", product.VendorID).
			Str("sku", product.SKU).
			Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Int64("product_id", product.ID).Msg("product created successfully")

	return nil
}

// Update overwrites the editable fields of a product owned by product.VendorID.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	query := `
		UPDATE catalog.vendor_products
		SET category_id = $3,
			sku = $4,
			title = $5,
			description = $6,
			price = $7,
			quantity = $8,
			status = $9,
			updated_at = NOW()
		WHERE id = $1 AND vendor_id = $2
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		product.ID,
		product.VendorID,
		product.CategoryID,
		product.SKU,
		product.Title,
		product.Description,
		product.Price,
		product.Quantity,
		product.Status,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewProductNotFound(product.ID)
		}
		r.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// AddImage appends an image after the product's existing images.
func (r *productRepository) AddImage(ctx context.Context, image *model.ProductImage) error {
	query := `
		INSERT INTO catalog.product_images (product_id, url, sort_order)
		VALUES ($1, $2, (SELECT COALESCE(MAX(sort_order) + 1, 0) FROM catalog.product_images WHERE product_id = $1))
		RETURNING id, sort_order, created_at
	`

	err := r.pool.QueryRow(ctx, query, image.ProductID, image.URL).
		Scan(&image.ID, &image.SortOrder, &image.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", image.ProductID).Msg("failed to add product image")
		return fmt.Errorf("failed to add product image: %w", err)
	}

	return nil
}

// ListCategories retrieves every category.
func (r *productRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM catalog.product_categories ORDER BY name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
