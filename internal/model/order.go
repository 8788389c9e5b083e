package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// VendorOrder is the part of a checkout fulfilled by a single vendor.
type VendorOrder struct {
	ID               int64                `json:"id" db:"id"`
	OrderNumber      string               `json:"orderNumber" db:"order_number"`
	ClientID         int64                `json:"clientId" db:"client_id"`
	VendorID         int64                `json:"vendorId" db:"vendor_id"`
	Subtotal         decimal.Decimal      `json:"subtotal" db:"subtotal"`
	ShippingCost     decimal.Decimal      `json:"shippingCost" db:"shipping_cost"`
	TaxAmount        decimal.Decimal      `json:"taxAmount" db:"tax_amount"`
	TotalAmount      decimal.Decimal      `json:"totalAmount" db:"total_amount"`
	CommissionRate   decimal.Decimal      `json:"commissionRate" db:"commission_rate"`
	CommissionAmount decimal.Decimal      `json:"commissionAmount" db:"commission_amount"`
	VendorPayout     decimal.Decimal      `json:"vendorPayout" db:"vendor_payout"`
	Status           string               `json:"status" db:"status"`
	PaymentStatus    string               `json:"paymentStatus" db:"payment_status"`
	PaymentMethod    string               `json:"paymentMethod" db:"payment_method"`
	ShippingAddress  ShippingAddress      `json:"shippingAddress" db:"shipping_address"`
	Items            []OrderLine          `json:"items,omitempty"`
	History          []StatusHistoryEntry `json:"history,omitempty"`
	CreatedAt        time.Time            `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time            `json:"updatedAt" db:"updated_at"`
}

// OrderLine is a priced line item of a vendor order.
type OrderLine struct {
	ID         int64           `json:"id,omitempty" db:"id"`
	OrderID    int64           `json:"orderId,omitempty" db:"order_id"`
	ProductID  int64           `json:"productId" db:"product_id"`
	VendorID   int64           `json:"vendorId" db:"vendor_id"`
	SKU        string          `json:"sku" db:"sku"`
	Title      string          `json:"title" db:"title"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"totalPrice" db:"total_price"`
}

// StatusHistoryEntry records one status transition of a vendor order.
type StatusHistoryEntry struct {
	ID         int64     `json:"id" db:"id"`
	OrderID    int64     `json:"orderId" db:"order_id"`
	FromStatus *string   `json:"fromStatus,omitempty" db:"from_status"`
	ToStatus   string    `json:"toStatus" db:"to_status"`
	Note       string    `json:"note,omitempty" db:"note"`
	ChangedBy  *int64    `json:"changedBy,omitempty" db:"changed_by"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Limit  int
	Offset int
	Status string
}

// StatusUpdateRequest represents the payload for moving an order to a new status.
type StatusUpdateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Items  []VendorOrder `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}
