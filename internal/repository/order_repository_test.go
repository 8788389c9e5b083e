package repository

import (
	"context"
	"testing"

	"marketplace/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(clientID, vendorID int64, number string) *model.VendorOrder {
	d := decimal.RequireFromString
	return &model.VendorOrder{
		OrderNumber:      number,
		ClientID:         clientID,
		VendorID:         vendorID,
		Subtotal:         d("60.00"),
		ShippingCost:     d("8.00"),
		TaxAmount:        d("6.00"),
		TotalAmount:      d("74.00"),
		CommissionRate:   d("10"),
		CommissionAmount: d("6.00"),
		VendorPayout:     d("54.00"),
		Status:           model.OrderStatusConfirmed,
		PaymentStatus:    model.PaymentStatusPaid,
		PaymentMethod:    "card",
		ShippingAddress: model.ShippingAddress{
			FullName:    "Ada Lovelace",
			Phone:       "555",
			AddressLine: "1 Main St",
			City:        "London",
			Country:     "UK",
		},
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := newTestOrder(1, 2, "ORD-1-AAAAAA")

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NotZero(t, order.ID)

	items := []model.OrderLine{
		{OrderID: order.ID, ProductID: 10, VendorID: 2, SKU: "A", Title: "Lamp", Quantity: 2, UnitPrice: decimal.RequireFromString("20.00"), TotalPrice: decimal.RequireFromString("40.00")},
		{OrderID: order.ID, ProductID: 11, VendorID: 2, SKU: "B", Title: "Bulb", Quantity: 1, UnitPrice: decimal.RequireFromString("20.00"), TotalPrice: decimal.RequireFromString("20.00")},
	}
	require.NoError(t, repo.CreateOrderItems(ctx, tx, items))
	assert.NotZero(t, items[0].ID)
	assert.NotZero(t, items[1].ID)

	entry := &model.StatusHistoryEntry{OrderID: order.ID, ToStatus: model.OrderStatusConfirmed, Note: "Order placed"}
	require.NoError(t, repo.AddStatusHistory(ctx, tx, entry))

	require.NoError(t, tx.Commit(ctx))

	tests := []struct {
		name          string
		orderID       int64
		expectNil     bool
		expectedItems int
	}{
		{name: "Existing order", orderID: order.ID, expectedItems: 2},
		{name: "Missing order", orderID: 987654, expectNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByID(ctx, tt.orderID)

			require.NoError(t, err)
			if tt.expectNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, "ORD-1-AAAAAA", got.OrderNumber)
			assert.True(t, decimal.RequireFromString("74").Equal(got.TotalAmount))
			assert.Equal(t, "London", got.ShippingAddress.City)
			assert.Len(t, got.Items, tt.expectedItems)
			require.Len(t, got.History, 1)
			assert.Nil(t, got.History[0].FromStatus)
			assert.Equal(t, model.OrderStatusConfirmed, got.History[0].ToStatus)
		})
	}
}

func TestOrderRepository_CreateOrderItems_Empty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	assert.NoError(t, repo.CreateOrderItems(ctx, tx, nil))
}

func TestOrderRepository_DuplicateOrderNumberRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, newTestOrder(1, 2, "ORD-DUP")))
	err = repo.CreateOrder(ctx, tx, newTestOrder(1, 3, "ORD-DUP"))
	require.Error(t, err)
	require.NoError(t, tx.Rollback(ctx))

	orders, total, err := repo.ListByClient(ctx, 1, model.OrderFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
}

func TestOrderRepository_ListAndUpdateStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	first := newTestOrder(1, 2, "ORD-A")
	second := newTestOrder(1, 3, "ORD-B")
	third := newTestOrder(9, 2, "ORD-C")
	for _, o := range []*model.VendorOrder{first, second, third} {
		require.NoError(t, repo.CreateOrder(ctx, tx, o))
	}
	require.NoError(t, tx.Commit(ctx))

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	locked, err := repo.GetForUpdate(ctx, tx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)
	require.NoError(t, repo.UpdateStatus(ctx, tx, first.ID, model.OrderStatusProcessing, model.PaymentStatusPaid))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, tx, 987654, model.OrderStatusProcessing, model.PaymentStatusPaid), model.ErrOrderNotFound)
	require.NoError(t, tx.Rollback(ctx))

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, tx, first.ID, model.OrderStatusProcessing, model.PaymentStatusPaid))
	require.NoError(t, tx.Commit(ctx))

	tests := []struct {
		name          string
		list          func() ([]model.VendorOrder, int64, error)
		expectedCount int
	}{
		{
			name: "Client orders",
			list: func() ([]model.VendorOrder, int64, error) {
				return repo.ListByClient(ctx, 1, model.OrderFilter{Limit: 10})
			},
			expectedCount: 2,
		},
		{
			name: "Vendor orders",
			list: func() ([]model.VendorOrder, int64, error) {
				return repo.ListByVendor(ctx, 2, model.OrderFilter{Limit: 10})
			},
			expectedCount: 2,
		},
		{
			name: "Vendor orders by status",
			list: func() ([]model.VendorOrder, int64, error) {
				return repo.ListByVendor(ctx, 2, model.OrderFilter{Limit: 10, Status: model.OrderStatusProcessing})
			},
			expectedCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, total, err := tt.list()

			require.NoError(t, err)
			assert.Len(t, orders, tt.expectedCount)
			assert.Equal(t, int64(tt.expectedCount), total)
		})
	}
}
