package checkout

import (
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"marketplace/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func activeProduct(id, vendorID int64, price string, qty int) model.Product {
	return model.Product{
		ID:       id,
		VendorID: vendorID,
		SKU:      "SKU-" + string(rune('A'+id)),
		Title:    "Product " + string(rune('A'+id)),
		Price:    dec(price),
		Quantity: qty,
		Status:   model.ProductStatusActive,
	}
}

func TestCoalesceLines(t *testing.T) {
	tests := []struct {
		name     string
		input    []model.CartLine
		expected []model.CartLine
	}{
		{
			name:     "Empty cart",
			input:    nil,
			expected: []model.CartLine{},
		},
		{
			name: "Duplicates are summed in first-occurrence order",
			input: []model.CartLine{
				{ProductID: 3, Quantity: 1},
				{ProductID: 1, Quantity: 2},
				{ProductID: 3, Quantity: 4},
			},
			expected: []model.CartLine{
				{ProductID: 3, Quantity: 5},
				{ProductID: 1, Quantity: 2},
			},
		},
		{
			name: "Non-positive quantities count as one",
			input: []model.CartLine{
				{ProductID: 1, Quantity: 0},
				{ProductID: 2, Quantity: -5},
				{ProductID: 1, Quantity: 0},
			},
			expected: []model.CartLine{
				{ProductID: 1, Quantity: 2},
				{ProductID: 2, Quantity: 1},
			},
		},
		{
			name: "Oversized quantities saturate instead of wrapping",
			input: []model.CartLine{
				{ProductID: 1, Quantity: math.MaxInt},
				{ProductID: 1, Quantity: math.MaxInt},
				{ProductID: 2, Quantity: model.MaxQuantity},
				{ProductID: 2, Quantity: 1},
			},
			expected: []model.CartLine{
				{ProductID: 1, Quantity: model.MaxQuantity},
				{ProductID: 2, Quantity: model.MaxQuantity},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CoalesceLines(tt.input))
		})
	}
}

func TestProductIDs_SortedAndDistinct(t *testing.T) {
	ids := ProductIDs([]model.CartLine{
		{ProductID: 9}, {ProductID: 2}, {ProductID: 9}, {ProductID: 5},
	})
	assert.Equal(t, []int64{2, 5, 9}, ids)
}

func TestValidateAddress(t *testing.T) {
	complete := model.ShippingAddress{
		FullName:    "Ada Lovelace",
		Phone:       "+44 20 7946 0000",
		AddressLine: "12 St James's Square",
		City:        "London",
		Country:     "UK",
	}
	require.NoError(t, ValidateAddress(complete))

	mutations := map[string]func(a *model.ShippingAddress){
		"missing full name": func(a *model.ShippingAddress) { a.FullName = "" },
		"blank phone":       func(a *model.ShippingAddress) { a.Phone = "   " },
		"missing line":      func(a *model.ShippingAddress) { a.AddressLine = "" },
		"missing city":      func(a *model.ShippingAddress) { a.City = "" },
		"missing country":   func(a *model.ShippingAddress) { a.Country = "" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			addr := complete
			mutate(&addr)
			assert.ErrorIs(t, ValidateAddress(addr), model.ErrIncompleteAddress)
		})
	}
}

func TestBuildOrderLines_Errors(t *testing.T) {
	inactive := activeProduct(2, 7, "10.00", 5)
	inactive.Status = model.ProductStatusInactive

	tests := []struct {
		name     string
		lines    []model.CartLine
		products []model.Product
		code     string
		message  string
	}{
		{
			name:     "Unknown product",
			lines:    []model.CartLine{{ProductID: 1, Quantity: 1}, {ProductID: 42, Quantity: 1}},
			products: []model.Product{activeProduct(1, 7, "10.00", 5)},
			code:     model.ErrCodeProductNotFound,
			message:  "Product 42 not found",
		},
		{
			name:     "Unknown product reported before inactive product",
			lines:    []model.CartLine{{ProductID: 2, Quantity: 1}, {ProductID: 42, Quantity: 1}},
			products: []model.Product{inactive},
			code:     model.ErrCodeProductNotFound,
		},
		{
			name:     "Inactive product",
			lines:    []model.CartLine{{ProductID: 2, Quantity: 1}},
			products: []model.Product{inactive},
			code:     model.ErrCodeProductNotActive,
			message:  `Product "Product C" is not available`,
		},
		{
			name:     "Insufficient stock",
			lines:    []model.CartLine{{ProductID: 1, Quantity: 6}},
			products: []model.Product{activeProduct(1, 7, "10.00", 5)},
			code:     model.ErrCodeInsufficientStock,
			message:  `Insufficient stock for "Product B": only 5 available`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := BuildOrderLines(tt.lines, tt.products)

			require.Error(t, err)
			assert.Nil(t, lines)

			de, ok := model.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, de.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, de.Message)
			}
		})
	}
}

func TestBuildOrderLines_UsesCurrentPrice(t *testing.T) {
	products := []model.Product{activeProduct(1, 7, "19.99", 10)}

	lines, err := BuildOrderLines([]model.CartLine{{ProductID: 1, Quantity: 3}}, products)

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, dec("19.99").Equal(lines[0].UnitPrice))
	assert.True(t, dec("59.97").Equal(lines[0].TotalPrice))
	assert.Equal(t, int64(7), lines[0].VendorID)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestComputeTotals_ShippingThreshold(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		shipping string
	}{
		{name: "Below threshold", subtotal: "50.00", shipping: "8"},
		{name: "Exactly at threshold", subtotal: "100.00", shipping: "8"},
		{name: "Above threshold", subtotal: "100.01", shipping: "0"},
		{name: "Well above threshold", subtotal: "120.00", shipping: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := ComputeTotals([]model.OrderLine{{TotalPrice: dec(tt.subtotal)}})
			assert.True(t, dec(tt.shipping).Equal(totals.ShippingCost), "shipping = %s", totals.ShippingCost)
		})
	}
}

func TestComputeTotals_Arithmetic(t *testing.T) {
	subtotals := []string{"0.01", "9.99", "33.33", "60.00", "99.95", "100.00", "123.45", "1000.07"}

	for _, s := range subtotals {
		t.Run(s, func(t *testing.T) {
			totals := ComputeTotals([]model.OrderLine{{TotalPrice: dec(s)}})

			assert.True(t, totals.TotalAmount.Equal(
				totals.Subtotal.Add(totals.ShippingCost).Add(totals.TaxAmount).Round(2)))
			assert.True(t, totals.CommissionAmount.Equal(totals.Subtotal.Mul(dec("0.10")).Round(2)))
			assert.True(t, totals.VendorPayout.Equal(totals.Subtotal.Sub(totals.CommissionAmount).Round(2)))
			assert.True(t, totals.TaxAmount.Equal(totals.Subtotal.Mul(dec("0.10")).Round(2)))
			assert.True(t, dec("10").Equal(totals.CommissionRate))
		})
	}
}

func TestPlan_SingleVendorScenario(t *testing.T) {
	products := []model.Product{activeProduct(1, 7, "30.00", 10)}

	partitions, err := Plan([]model.CartLine{{ProductID: 1, Quantity: 2}}, products)

	require.NoError(t, err)
	require.Len(t, partitions, 1)

	p := partitions[0]
	assert.Equal(t, int64(7), p.VendorID)
	assert.True(t, dec("60.00").Equal(p.Totals.Subtotal))
	assert.True(t, dec("8").Equal(p.Totals.ShippingCost))
	assert.True(t, dec("6.00").Equal(p.Totals.TaxAmount))
	assert.True(t, dec("74.00").Equal(p.Totals.TotalAmount))
	assert.True(t, dec("6.00").Equal(p.Totals.CommissionAmount))
	assert.True(t, dec("54.00").Equal(p.Totals.VendorPayout))
	assert.True(t, dec("74.00").Equal(GrandTotal(partitions)))
}

func TestPlan_MultiVendorSplit(t *testing.T) {
	const vendorA, vendorB = int64(11), int64(22)
	products := []model.Product{
		activeProduct(1, vendorA, "50.00", 10),
		activeProduct(2, vendorB, "25.00", 10),
		activeProduct(3, vendorA, "35.00", 10),
	}
	cart := []model.CartLine{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 2},
		{ProductID: 3, Quantity: 2},
	}

	partitions, err := Plan(cart, products)

	require.NoError(t, err)
	require.Len(t, partitions, 2)

	// First-occurrence order: vendor A appears first in the cart.
	a, b := partitions[0], partitions[1]
	assert.Equal(t, vendorA, a.VendorID)
	assert.Equal(t, vendorB, b.VendorID)

	assert.True(t, dec("120.00").Equal(a.Totals.Subtotal))
	assert.True(t, decimal.Zero.Equal(a.Totals.ShippingCost))
	assert.True(t, dec("132.00").Equal(a.Totals.TotalAmount))

	assert.True(t, dec("50.00").Equal(b.Totals.Subtotal))
	assert.True(t, dec("8").Equal(b.Totals.ShippingCost))
	assert.True(t, dec("63.00").Equal(b.Totals.TotalAmount))

	assert.True(t, dec("195.00").Equal(GrandTotal(partitions)))

	// Every order line lands in exactly one partition.
	seen := map[int64]int{}
	for _, p := range partitions {
		for _, line := range p.Lines {
			assert.Equal(t, p.VendorID, line.VendorID)
			seen[line.ProductID]++
		}
	}
	assert.Equal(t, map[int64]int{1: 1, 2: 1, 3: 1}, seen)
}

func TestPlan_PropagatesValidationError(t *testing.T) {
	_, err := Plan([]model.CartLine{{ProductID: 5, Quantity: 1}}, nil)
	assert.True(t, errors.Is(err, model.ErrProductNotFound))
}

func TestPlan_OversizedDuplicateLinesHitStockCheck(t *testing.T) {
	lines := CoalesceLines([]model.CartLine{
		{ProductID: 1, Quantity: math.MaxInt / 2},
		{ProductID: 1, Quantity: math.MaxInt / 2},
	})

	partitions, err := Plan(lines, []model.Product{activeProduct(1, 7, "30.00", 10)})

	assert.Nil(t, partitions)
	de, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeInsufficientStock, de.Code)
	assert.Contains(t, de.Message, "only 10 available")
}

func TestNewOrderNumber(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	first := NewOrderNumber(now)
	second := NewOrderNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^ORD-1700000000123-[0-9A-F]{6}$`), first)
	assert.NotEqual(t, first, second)
}

func TestVendorOrder(t *testing.T) {
	partitions, err := Plan([]model.CartLine{{ProductID: 1, Quantity: 2}}, []model.Product{activeProduct(1, 7, "30.00", 10)})
	require.NoError(t, err)

	addr := model.ShippingAddress{FullName: "A", Phone: "1", AddressLine: "L", City: "C", Country: "X"}
	order := VendorOrder(partitions[0], 99, "ORD-1", addr, model.PaymentDescriptor{Method: "card"})

	assert.Equal(t, int64(99), order.ClientID)
	assert.Equal(t, int64(7), order.VendorID)
	assert.Equal(t, model.OrderStatusConfirmed, order.Status)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "card", order.PaymentMethod)
	assert.Equal(t, addr, order.ShippingAddress)
	assert.Len(t, order.Items, 1)
}

func TestQuote(t *testing.T) {
	partitions, err := Plan([]model.CartLine{{ProductID: 1, Quantity: 2}}, []model.Product{activeProduct(1, 7, "30.00", 10)})
	require.NoError(t, err)

	quote := Quote(partitions)

	require.Len(t, quote.Vendors, 1)
	assert.True(t, dec("74").Equal(quote.TotalAmount))
	assert.True(t, dec("54").Equal(quote.Vendors[0].VendorPayout))
}
