package checkout

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewOrderNumber builds a human-readable number: unix timestamp plus a 6-hex
// suffix. Collisions are unlikely but not impossible; the unique constraint
// on orders.order_number is the actual guarantee and the caller retries on
// violation.
func NewOrderNumber() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return fmt.Sprintf("ORD-%d-%s", time.Now().Unix(), strings.ToUpper(hex.EncodeToString(b)))
}

// BuildOrder materializes an order from a priced cart. Items are snapshots:
// name, sku and unit price are copied, never re-read from the catalog.
func BuildOrder(cart *Cart, ft FulfillmentType, branchID int64, totals Totals) (*Order, []OrderItem) {
	order := &Order{
		OrderNumber:     NewOrderNumber(),
		UserID:          cart.UserID,
		BranchID:        branchID,
		FulfillmentType: ft,
		Status:          StatusCreated,
		TotalAmount:     totals.TotalAmount,
	}
	items := make([]OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, OrderItem{
			ProductID:    it.ProductID,
			Name:         it.Name,
			SKU:          it.SKU,
			UnitPrice:    it.UnitPrice,
			Quantity:     it.Quantity,
			PickedStatus: PickedPending,
		})
	}
	return order, items
}
