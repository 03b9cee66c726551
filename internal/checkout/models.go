package checkout

import (
	"time"

	"github.com/shopspring/decimal"
)

type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "DELIVERY"
	FulfillmentPickup   FulfillmentType = "PICKUP"
)

type CartStatus string

const (
	CartActive     CartStatus = "ACTIVE"
	CartCheckedOut CartStatus = "CHECKED_OUT"
	CartAbandoned  CartStatus = "ABANDONED"
)

type PickedStatus string

const (
	PickedPending PickedStatus = "PENDING"
	PickedPicked  PickedStatus = "PICKED"
	PickedMissing PickedStatus = "MISSING"
)

type IdempotencyStatus string

const (
	IdemInProgress IdempotencyStatus = "IN_PROGRESS"
	IdemSucceeded  IdempotencyStatus = "SUCCEEDED"
	IdemFailed     IdempotencyStatus = "FAILED"
)

type Cart struct {
	ID     int64
	UserID int64
	Status CartStatus
	Items  []CartItem
}

// CartItem carries the price snapshot taken at add-to-cart time plus the
// product name/sku materialized by the loader; checkout never re-reads the
// live catalog price.
type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	Name      string
	SKU       string
	UnitPrice decimal.Decimal
	Quantity  int
}

type InventoryRecord struct {
	ID           int64
	ProductID    int64
	BranchID     int64
	Available    int
	Reserved     int
	ReorderPoint int
}

type IdempotencyRecord struct {
	ID              int64
	UserID          int64
	Key             string
	RequestHash     string
	Status          IdempotencyStatus
	ResponsePayload []byte
	StatusCode      int
	OrderID         int64
	ExpiresAt       time.Time
}

type Order struct {
	ID              int64
	OrderNumber     string
	UserID          int64
	BranchID        int64
	FulfillmentType FulfillmentType
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	CreatedAt       time.Time
}

type OrderItem struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	Name         string
	SKU          string
	UnitPrice    decimal.Decimal
	Quantity     int
	PickedStatus PickedStatus
}

type Branch struct {
	ID       int64
	Name     string
	IsActive bool
}

// Slot times are minutes since midnight.
type DeliverySlot struct {
	ID          int64
	BranchID    int64
	DayOfWeek   int
	StartMinute int
	EndMinute   int
	IsActive    bool
}

type PaymentToken struct {
	ID        int64
	UserID    int64
	Provider  string
	IsActive  bool
	IsDefault bool
}
