package checkout

import (
	"time"

	"github.com/shopspring/decimal"
)

type PreviewRequest struct {
	CartID          int64           `json:"cart_id"`
	FulfillmentType FulfillmentType `json:"fulfillment_type"`
	BranchID        int64           `json:"branch_id,omitempty"`
	DeliverySlotID  int64           `json:"delivery_slot_id,omitempty"`
	Address         string          `json:"address,omitempty"`
}

type PreviewResponse struct {
	CartTotal       decimal.Decimal  `json:"cart_total"`
	DeliveryFee     *decimal.Decimal `json:"delivery_fee"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	MissingItems    []MissingItem    `json:"missing_items"`
	FulfillmentType FulfillmentType  `json:"fulfillment_type"`
}

type ConfirmRequest struct {
	CartID          int64           `json:"cart_id"`
	PaymentTokenID  int64           `json:"payment_token_id"`
	FulfillmentType FulfillmentType `json:"fulfillment_type"`
	BranchID        int64           `json:"branch_id,omitempty"`
	DeliverySlotID  int64           `json:"delivery_slot_id,omitempty"`
	Address         string          `json:"address,omitempty"`
	SaveAsDefault   bool            `json:"save_as_default,omitempty"`
}

type ConfirmResponse struct {
	OrderID          int64           `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	PaymentReference string          `json:"payment_reference"`
}

type OrderItemView struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	PickedStatus PickedStatus    `json:"picked_status"`
}

type OrderView struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          OrderStatus     `json:"status"`
	FulfillmentType FulfillmentType `json:"fulfillment_type"`
	BranchID        int64           `json:"branch_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []OrderItemView `json:"items"`
}

type CancelResponse struct {
	OrderID    int64     `json:"order_id"`
	CanceledAt time.Time `json:"canceled_at"`
}
