package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `id, order_number, client_id, vendor_id, subtotal, shipping_cost, tax_amount,
	total_amount, commission_rate, commission_amount, vendor_payout, status, payment_status,
	payment_method, shipping_address, created_at, updated_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanOrder(row pgx.Row) (model.VendorOrder, error) {
	var o model.VendorOrder
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.ClientID,
		&o.VendorID,
		&o.Subtotal,
		&o.ShippingCost,
		&o.TaxAmount,
		&o.TotalAmount,
		&o.CommissionRate,
		&o.CommissionAmount,
		&o.VendorPayout,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.ShippingAddress,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a vendor order header within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.VendorOrder) error {
	query := `
		INSERT INTO orders.vendor_orders (
			order_number, client_id, vendor_id, subtotal, shipping_cost, tax_amount,
			total_amount, commission_rate, commission_amount, vendor_payout, status,
			payment_status, payment_method, shipping_address
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.OrderNumber,
		order.ClientID,
		order.VendorID,
		order.Subtotal,
		order.ShippingCost,
		order.TaxAmount,
		order.TotalAmount,
		order.CommissionRate,
		order.CommissionAmount,
		order.VendorPayout,
		order.Status,
		order.PaymentStatus,
		order.PaymentMethod,
		order.ShippingAddress,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_number", order.OrderNumber).
			Int64("vendor_id", order.VendorID).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int64("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order lines within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderLine) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO orders.vendor_order_items
			(order_id, product_id, vendor_id, sku, title, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.OrderID,
			item.ProductID,
			item.VendorID,
			item.SKU,
			item.Title,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if err := results.QueryRow().Scan(&items[i].ID); err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", items[i].OrderID).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// AddStatusHistory appends a status transition within the provided transaction.
func (r *orderRepository) AddStatusHistory(ctx context.Context, tx pgx.Tx, entry *model.StatusHistoryEntry) error {
	query := `
		INSERT INTO orders.vendor_order_status_history (order_id, from_status, to_status, note, changed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query,
		entry.OrderID,
		entry.FromStatus,
		entry.ToStatus,
		entry.Note,
		entry.ChangedBy,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", entry.OrderID).
			Str("to_status", entry.ToStatus).
			Msg("failed to add status history")
		return fmt.Errorf("failed to add status history: %w", err)
	}

	return nil
}

// GetByID retrieves a vendor order along with its items and status history.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.VendorOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders.vendor_orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if order.Items, err = r.items(ctx, r.pool, id); err != nil {
		return nil, err
	}
	if order.History, err = r.history(ctx, id); err != nil {
		return nil, err
	}

	return &order, nil
}

// GetForUpdate row-locks a vendor order and retrieves it with its items.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.VendorOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders.vendor_orders WHERE id = $1 FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	if order.Items, err = r.items(ctx, tx, id); err != nil {
		return nil, err
	}

	return &order, nil
}

// UpdateStatus sets the order and payment status within the provided transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status, paymentStatus string) error {
	query := `
		UPDATE orders.vendor_orders
		SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, status, paymentStatus)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Str("status", status).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// ListByClient retrieves a page of a client's orders.
func (r *orderRepository) ListByClient(ctx context.Context, clientID int64, filter model.OrderFilter) ([]model.VendorOrder, int64, error) {
	return r.list(ctx, "client_id", clientID, filter)
}

// ListByVendor retrieves a page of a vendor's orders.
func (r *orderRepository) ListByVendor(ctx context.Context, vendorID int64, filter model.OrderFilter) ([]model.VendorOrder, int64, error) {
	return r.list(ctx, "vendor_id", vendorID, filter)
}

// list pages orders owned through column; column is never user input.
func (r *orderRepository) list(ctx context.Context, column string, ownerID int64, filter model.OrderFilter) ([]model.VendorOrder, int64, error) {
	where := fmt.Sprintf("WHERE %s = $1 AND ($2 = '' OR status = $2)", column)

	var total int64
	countQuery := `SELECT COUNT(*) FROM orders.vendor_orders ` + where
	if err := r.pool.QueryRow(ctx, countQuery, ownerID, filter.Status).Scan(&total); err != nil {
		r.logger.Error().Err(err).Str("owner", column).Int64("owner_id", ownerID).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders.vendor_orders ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, ownerID, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Error().Err(err).Str("owner", column).Int64("owner_id", ownerID).Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.VendorOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}

func (r *orderRepository) items(ctx context.Context, q querier, orderID int64) ([]model.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, vendor_id, sku, title, quantity, unit_price, total_price
		FROM orders.vendor_order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", orderID).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderLine
	for rows.Next() {
		var item model.OrderLine
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VendorID,
			&item.SKU,
			&item.Title,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) history(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error) {
	query := `
		SELECT id, order_id, from_status, to_status, note, changed_by, created_at
		FROM orders.vendor_order_status_history
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to query status history")
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var entries []model.StatusHistoryEntry
	for rows.Next() {
		var e model.StatusHistoryEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.FromStatus, &e.ToStatus, &e.Note, &e.ChangedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return entries, nil
}
