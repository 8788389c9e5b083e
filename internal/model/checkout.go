package model

import "github.com/shopspring/decimal"

// CartLine is a client-supplied cart entry. It is never persisted.
type CartLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// ShippingAddress is copied verbatim onto every vendor order of a checkout.
type ShippingAddress struct {
	FullName    string `json:"fullName"`
	Phone       string `json:"phone"`
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
	Country     string `json:"country"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
}

// PaymentDescriptor describes how the simulated payment was made.
type PaymentDescriptor struct {
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
}

// CheckoutRequest represents the request payload for placing an order.
type CheckoutRequest struct {
	Items           []CartLine        `json:"items"`
	ShippingAddress ShippingAddress   `json:"shippingAddress"`
	Payment         PaymentDescriptor `json:"payment"`
	UserID          *int64            `json:"userId,omitempty"`
	UserEmail       string            `json:"userEmail,omitempty"`
}

// PlacedOrder summarises one vendor order created by a checkout.
type PlacedOrder struct {
	OrderID     int64           `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	VendorID    int64           `json:"vendorId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// CheckoutResult represents the response payload of a successful checkout.
type CheckoutResult struct {
	UserID      int64           `json:"userId"`
	Orders      []PlacedOrder   `json:"orders"`
	TotalOrders int             `json:"totalOrders"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// QuoteRequest represents the request payload for pricing a cart without buying it.
type QuoteRequest struct {
	Items []CartLine `json:"items"`
}

// VendorQuote is the priced vendor partition of a cart.
type VendorQuote struct {
	VendorID         int64           `json:"vendorId"`
	Items            []OrderLine     `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	ShippingCost     decimal.Decimal `json:"shippingCost"`
	TaxAmount        decimal.Decimal `json:"taxAmount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	VendorPayout     decimal.Decimal `json:"vendorPayout"`
}

// QuoteResponse represents the response payload of a cart quote.
type QuoteResponse struct {
	Vendors     []VendorQuote   `json:"vendors"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
