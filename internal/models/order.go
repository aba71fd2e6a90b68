package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is a lifecycle status a partner can report for an order.
type OrderStatus string

const (
	StatusAccepted           OrderStatus = "ACCEPTED"
	StatusReadyForPickup     OrderStatus = "READY_FOR_PICKUP"
	StatusOutForDelivery     OrderStatus = "OUT_FOR_DELIVERY"
	StatusPickedUpByCustomer OrderStatus = "PICKED_UP_BY_CUSTOMER"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusAccepted, StatusReadyForPickup, StatusOutForDelivery, StatusPickedUpByCustomer:
		return true
	}
	return false
}

// StatusUpdate is the JSON body for PUT .../orders/{order_id}/status.
type StatusUpdate struct {
	Status OrderStatus `json:"status"`
}

// Attribute is an attribute attached to a product line.
type Attribute struct {
	ID       *int64 `json:"id"`
	Quantity *int   `json:"quantity"`
}

// Product is a product line with its attributes.
type Product struct {
	ID         *int64      `json:"id"`
	Quantity   *int        `json:"quantity"`
	Attributes []Attribute `json:"attributes"`
}

// Replacement swaps a purchased product for another product.
type Replacement struct {
	PurchasedProductID *int64   `json:"purchased_product_id"`
	Product            *Product `json:"product"`
}

// Modification is the JSON body for POST .../orders/{order_id}/status.
type Modification struct {
	Replacements     []Replacement `json:"replacements"`
	RemovedPurchases []string      `json:"removed_purchases"`
	AddedProducts    []Product     `json:"added_products"`
}

// Ack is the fixed acknowledgement returned by the webhook endpoints.
type Ack struct {
	Status      int    `json:"status"`
	Transaction string `json:"transaction"`
}

// EventKind distinguishes the webhook calls recorded in the event journal.
type EventKind string

const (
	EventStatusUpdate EventKind = "status_update"
	EventModification EventKind = "modification"
)

// WebhookEvent is a single accepted webhook call stored in MongoDB.
type WebhookEvent struct {
	ID         primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	EventID    string             `json:"event_id"    bson:"event_id"`
	Kind       EventKind          `json:"kind"        bson:"kind"`
	StoreID    int64              `json:"store_id"    bson:"store_id"`
	OrderID    int64              `json:"order_id"    bson:"order_id"`
	UserID     int64              `json:"user_id"     bson:"user_id"`
	Username   string             `json:"username"    bson:"username"`
	Status     OrderStatus        `json:"status"      bson:"status,omitempty"`
	Payload    string             `json:"payload"     bson:"payload"`
	ArchiveKey string             `json:"archive_key" bson:"archive_key,omitempty"`
	CreatedAt  time.Time          `json:"created_at"  bson:"created_at"`
}

// Validate checks that every required field of the modification is present.
func (m *Modification) Validate() error {
	if m.Replacements == nil || m.RemovedPurchases == nil || m.AddedProducts == nil {
		return errors.New("replacements, removed_purchases and added_products are required")
	}
	for i, r := range m.Replacements {
		if r.PurchasedProductID == nil || r.Product == nil {
			return fmt.Errorf("replacements[%d]: purchased_product_id and product are required", i)
		}
		if err := r.Product.validate(); err != nil {
			return fmt.Errorf("replacements[%d].product: %w", i, err)
		}
	}
	for i, id := range m.RemovedPurchases {
		if id == "" {
			return fmt.Errorf("removed_purchases[%d]: must be a non-empty string", i)
		}
	}
	for i, p := range m.AddedProducts {
		if err := p.validate(); err != nil {
			return fmt.Errorf("added_products[%d]: %w", i, err)
		}
	}
	return nil
}

func (p *Product) validate() error {
	if p.ID == nil || p.Quantity == nil || p.Attributes == nil {
		return errors.New("id, quantity and attributes are required")
	}
	for i, a := range p.Attributes {
		if a.ID == nil || a.Quantity == nil {
			return fmt.Errorf("attributes[%d]: id and quantity are required", i)
		}
	}
	return nil
}
