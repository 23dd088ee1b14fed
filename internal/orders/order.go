// Copyright (c) 2026 Kaka HQ. All rights reserved.

/*
Package orders serves the dealer order book.

Orders are the protected resource the authentication core exists to guard:
every endpoint here sits behind the access-token gate and the lenient api
rate-limit class.
*/
package orders

import "time"

// Status describes where an order sits in its fulfilment lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is a single dealer purchase order.
type Order struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference"`
	DealerName  string    `json:"dealer_name"`
	Status      Status    `json:"status"`
	TotalCents  int64     `json:"total_cents"`
	Currency    string    `json:"currency"`
	PlacedBy    string    `json:"placed_by"` // user ID of the operator who entered it
	PlacedAt    time.Time `json:"placed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
