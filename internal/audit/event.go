package audit

import "time"

const (
	ActionCreate                      = "CREATE"
	ActionCancel                      = "CANCEL"
	ActionDecrement                   = "DECREMENT"
	ActionSetDefault                  = "SET_DEFAULT"
	ActionPaymentCapturedNotCommitted = "PAYMENT_CAPTURED_NOT_COMMITTED"
)

const (
	EntityOrder              = "order"
	EntityInventory          = "inventory"
	EntityPayment            = "payment"
	EntityPaymentPreferences = "payment_preferences"
)

// Event is the append-only audit record. OldValue/NewValue hold the mutated
// fields before and after; Context carries anything else worth keeping for
// reconciliation.
type Event struct {
	EventID     string         `json:"event_id"`
	EntityType  string         `json:"entity_type"`
	Action      string         `json:"action"`
	EntityID    int64          `json:"entity_id"`
	ActorUserID int64          `json:"actor_user_id,omitempty"`
	OldValue    map[string]any `json:"old_value,omitempty"`
	NewValue    map[string]any `json:"new_value,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Producer    string         `json:"producer"`
}
