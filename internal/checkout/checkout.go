// Package checkout holds the pricing rules of a marketplace checkout: cart
// coalescing, product validation, vendor partitioning and per-vendor totals.
// Nothing in this package touches storage.
package checkout

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// FreeShippingThreshold is the subtotal a vendor order must exceed to ship for free.
	FreeShippingThreshold = decimal.NewFromInt(100)

	// FlatShippingFee is charged on vendor orders at or below the threshold.
	FlatShippingFee = decimal.NewFromInt(8)

	// TaxRate is applied to the subtotal of every vendor order.
	TaxRate = decimal.RequireFromString("0.10")

	// CommissionRate is the platform's cut in percent.
	CommissionRate = decimal.NewFromInt(10)
)

var hundred = decimal.NewFromInt(100)

// Totals are the financial figures of one vendor order.
type Totals struct {
	Subtotal         decimal.Decimal
	ShippingCost     decimal.Decimal
	TaxAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	VendorPayout     decimal.Decimal
}

// Partition is the set of order lines fulfilled by one vendor.
type Partition struct {
	VendorID int64
	Lines    []model.OrderLine
	Totals   Totals
}

// CoalesceLines merges duplicate product ids by summing their quantities.
// Each input quantity counts as at least 1 and every sum saturates at
// model.MaxQuantity. Output order follows the first occurrence of each
// product id.
func CoalesceLines(lines []model.CartLine) []model.CartLine {
	index := make(map[int64]int, len(lines))
	out := make([]model.CartLine, 0, len(lines))

	for _, line := range lines {
		qty := clampQuantity(line.Quantity)
		if i, ok := index[line.ProductID]; ok {
			if out[i].Quantity > model.MaxQuantity-qty {
				out[i].Quantity = model.MaxQuantity
			} else {
				out[i].Quantity += qty
			}
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, model.CartLine{ProductID: line.ProductID, Quantity: qty})
	}

	return out
}

func clampQuantity(qty int) int {
	switch {
	case qty < 1:
		return 1
	case qty > model.MaxQuantity:
		return model.MaxQuantity
	}
	return qty
}

// ProductIDs returns the distinct product ids of the lines in ascending order.
// Rows are locked in this order so concurrent checkouts cannot deadlock.
func ProductIDs(lines []model.CartLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ValidateAddress checks that every mandatory shipping field is present.
func ValidateAddress(addr model.ShippingAddress) error {
	required := []string{addr.FullName, addr.Phone, addr.AddressLine, addr.City, addr.Country}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return model.ErrIncompleteAddress
		}
	}
	return nil
}

// BuildOrderLines prices coalesced cart lines against the current product
// records. Unknown products are reported before status or stock problems.
func BuildOrderLines(lines []model.CartLine, products []model.Product) ([]model.OrderLine, error) {
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, line := range lines {
		if _, ok := byID[line.ProductID]; !ok {
			return nil, model.NewProductNotFound(line.ProductID)
		}
	}

	orderLines := make([]model.OrderLine, 0, len(lines))
	for _, line := range lines {
		p := byID[line.ProductID]
		if p.Status != model.ProductStatusActive {
			return nil, model.NewProductNotActive(p.Title)
		}
		if p.Quantity < line.Quantity {
			return nil, model.NewInsufficientStock(p.Title, p.Quantity)
		}

		orderLines = append(orderLines, model.OrderLine{
			ProductID:  p.ID,
			VendorID:   p.VendorID,
			SKU:        p.SKU,
			Title:      p.Title,
			Quantity:   line.Quantity,
			UnitPrice:  p.Price,
			TotalPrice: p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
		})
	}

	return orderLines, nil
}

// ComputeTotals derives the vendor order figures from its lines.
func ComputeTotals(lines []model.OrderLine) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.TotalPrice)
	}
	subtotal = subtotal.Round(2)

	shipping := FlatShippingFee
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(TaxRate).Round(2)
	commission := subtotal.Mul(CommissionRate).Div(hundred).Round(2)

	return Totals{
		Subtotal:         subtotal,
		ShippingCost:     shipping,
		TaxAmount:        tax,
		TotalAmount:      subtotal.Add(shipping).Add(tax).Round(2),
		CommissionRate:   CommissionRate,
		CommissionAmount: commission,
		VendorPayout:     subtotal.Sub(commission).Round(2),
	}
}

// GroupByVendor splits order lines into one partition per vendor, in the
// order each vendor first appears.
func GroupByVendor(lines []model.OrderLine) []Partition {
	index := make(map[int64]int)
	var partitions []Partition

	for _, line := range lines {
		i, ok := index[line.VendorID]
		if !ok {
			i = len(partitions)
			index[line.VendorID] = i
			partitions = append(partitions, Partition{VendorID: line.VendorID})
		}
		partitions[i].Lines = append(partitions[i].Lines, line)
	}

	for i := range partitions {
		partitions[i].Totals = ComputeTotals(partitions[i].Lines)
	}

	return partitions
}

// Plan validates the cart against the products and partitions it by vendor.
func Plan(lines []model.CartLine, products []model.Product) ([]Partition, error) {
	orderLines, err := BuildOrderLines(lines, products)
	if err != nil {
		return nil, err
	}
	return GroupByVendor(orderLines), nil
}

// GrandTotal sums the total amount of every partition.
func GrandTotal(partitions []Partition) decimal.Decimal {
	total := decimal.Zero
	for _, p := range partitions {
		total = total.Add(p.Totals.TotalAmount)
	}
	return total.Round(2)
}

// NewOrderNumber builds an order number from the clock and a random suffix.
// Uniqueness is probabilistic; the orders table enforces it.
func NewOrderNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("ORD-%d-%X", now.UnixMilli(), id[:3])
}

// VendorOrder turns a partition into a confirmed, paid vendor order.
func VendorOrder(p Partition, clientID int64, orderNumber string, addr model.ShippingAddress, payment model.PaymentDescriptor) *model.VendorOrder {
	return &model.VendorOrder{
		OrderNumber:      orderNumber,
		ClientID:         clientID,
		VendorID:         p.VendorID,
		Subtotal:         p.Totals.Subtotal,
		ShippingCost:     p.Totals.ShippingCost,
		TaxAmount:        p.Totals.TaxAmount,
		TotalAmount:      p.Totals.TotalAmount,
		CommissionRate:   p.Totals.CommissionRate,
		CommissionAmount: p.Totals.CommissionAmount,
		VendorPayout:     p.Totals.VendorPayout,
		Status:           model.OrderStatusConfirmed,
		PaymentStatus:    model.PaymentStatusPaid,
		PaymentMethod:    payment.Method,
		ShippingAddress:  addr,
		Items:            p.Lines,
	}
}

// Quote converts partitions into their response shape.
func Quote(partitions []Partition) *model.QuoteResponse {
	resp := &model.QuoteResponse{
		Vendors:     make([]model.VendorQuote, 0, len(partitions)),
		TotalAmount: GrandTotal(partitions),
	}
	for _, p := range partitions {
		resp.Vendors = append(resp.Vendors, model.VendorQuote{
			VendorID:         p.VendorID,
			Items:            p.Lines,
			Subtotal:         p.Totals.Subtotal,
			ShippingCost:     p.Totals.ShippingCost,
			TaxAmount:        p.Totals.TaxAmount,
			TotalAmount:      p.Totals.TotalAmount,
			CommissionAmount: p.Totals.CommissionAmount,
			VendorPayout:     p.Totals.VendorPayout,
		})
	}
	return resp
}
