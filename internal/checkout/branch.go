package checkout

import (
	"context"
	"net/http"
)

// Delivery slots must sit inside the store's operating window and span
// exactly two hours. Minutes since midnight.
const (
	slotWindowOpen  = 6 * 60
	slotWindowClose = 22 * 60
	slotSpanMinutes = 120
)

// BranchResolver picks the fulfillment branch: a fixed, configured source
// branch for delivery, the customer's chosen branch for pickup.
type BranchResolver struct {
	Branches               BranchStore
	DeliverySourceBranchID int64
}

func (r *BranchResolver) ResolveBranch(ctx context.Context, q Querier, ft FulfillmentType, requestedBranchID int64) (int64, error) {
	if ft == FulfillmentDelivery {
		if r.DeliverySourceBranchID <= 0 {
			return 0, NewDomainError(CodeConfigError, "DELIVERY_SOURCE_BRANCH_ID is not set", http.StatusBadRequest)
		}
		b, err := r.Branches.GetBranch(ctx, q, r.DeliverySourceBranchID)
		if err != nil {
			return 0, err
		}
		if b == nil {
			return 0, NewDomainError(CodeConfigError, "configured delivery source branch does not exist", http.StatusBadRequest)
		}
		return b.ID, nil
	}
	if requestedBranchID <= 0 {
		return 0, badRequest("branch is required for pickup")
	}
	b, err := r.Branches.GetBranch(ctx, q, requestedBranchID)
	if err != nil {
		return 0, err
	}
	if b == nil || !b.IsActive {
		return 0, notFound("branch not found")
	}
	return b.ID, nil
}

// ValidateDeliverySlot is a no-op for pickup. For delivery the slot must
// exist, be active, belong to the resolved branch, and pass the window rule.
func (r *BranchResolver) ValidateDeliverySlot(ctx context.Context, q Querier, ft FulfillmentType, slotID, branchID int64) error {
	if ft != FulfillmentDelivery {
		return nil
	}
	if slotID <= 0 {
		return badRequest("delivery slot is required for delivery")
	}
	slot, err := r.Branches.GetDeliverySlot(ctx, q, slotID)
	if err != nil {
		return err
	}
	if slot == nil || !slot.IsActive {
		return notFound("delivery slot not found")
	}
	if slot.BranchID != branchID {
		return NewDomainError(CodeInvalidSlot, "delivery slot does not belong to delivery branch", http.StatusBadRequest)
	}
	return ValidateSlotWindow(slot.StartMinute, slot.EndMinute)
}

func ValidateSlotWindow(startMinute, endMinute int) error {
	if startMinute < slotWindowOpen || startMinute >= endMinute || endMinute > slotWindowClose ||
		endMinute-startMinute != slotSpanMinutes {
		return NewDomainError(CodeInvalidSlot, "delivery slot must be a 2-hour window between 06:00-22:00", http.StatusBadRequest)
	}
	return nil
}
