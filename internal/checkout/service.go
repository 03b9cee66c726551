package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grocerly/go-checkout/internal/audit"
)

// errOrderNumberTaken signals a generated order number collided with an
// existing row. The whole confirm transaction is retried with a fresh
// number; the client never sees this.
var errOrderNumberTaken = errors.New("order number already taken")

const maxOrderNumberRetries = 3

// Service is the checkout orchestrator. All mutation during confirm happens
// in one transaction held across the synchronous payment capture; the
// idempotency record is the exactly-once guard for that external charge.
type Service struct {
	DB          DB
	Carts       CartStore
	Resolver    *BranchResolver
	Inventory   InventoryStore
	Idempotency IdempotencyStore
	Orders      OrderStore
	Tokens      TokenStore
	Charger     Charger
	Audit       audit.Sink

	DeliveryMinTotal    decimal.Decimal
	DeliveryFeeUnderMin decimal.Decimal
	PaymentTimeout      time.Duration
}

// Preview computes totals and the missing-items list without locks, order
// creation or payment. It shares MissingItems and CalculateTotals with
// confirm so the two can never diverge.
func (s *Service) Preview(ctx context.Context, userID int64, req PreviewRequest) (*PreviewResponse, error) {
	ft := normalizeFulfillment(req.FulfillmentType)
	branchID, err := s.Resolver.ResolveBranch(ctx, s.DB, ft, req.BranchID)
	if err != nil {
		return nil, err
	}
	cart, err := s.loadOwnedCart(ctx, s.DB, req.CartID, userID, false)
	if err != nil {
		return nil, err
	}

	inv, err := s.Inventory.ReadRows(ctx, s.DB, productIDs(cart.Items), branchID)
	if err != nil {
		return nil, err
	}
	missing := MissingItems(cart.Items, inv)
	totals := CalculateTotals(cart.Items, ft, s.DeliveryMinTotal, s.DeliveryFeeUnderMin)

	return &PreviewResponse{
		CartTotal:       totals.CartTotal,
		DeliveryFee:     totals.DeliveryFee,
		TotalAmount:     totals.TotalAmount,
		MissingItems:    missing,
		FulfillmentType: ft,
	}, nil
}

// Confirm turns a cart into a paid order exactly once per (user, key).
// created reports whether this call built the order (201) or replayed a
// cached response (200).
func (s *Service) Confirm(ctx context.Context, userID int64, key string, req ConfirmRequest) (resp *ConfirmResponse, created bool, err error) {
	for attempt := 0; ; attempt++ {
		resp, created, err = s.confirmOnce(ctx, userID, key, req)
		if errors.Is(err, errOrderNumberTaken) && attempt < maxOrderNumberRetries {
			slog.Warn("order number collision, retrying confirm", "user_id", userID, "attempt", attempt+1)
			continue
		}
		return resp, created, err
	}
}

func (s *Service) confirmOnce(ctx context.Context, userID int64, key string, req ConfirmRequest) (*ConfirmResponse, bool, error) {
	ft := normalizeFulfillment(req.FulfillmentType)
	req.FulfillmentType = ft

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	branchID, err := s.Resolver.ResolveBranch(ctx, tx, ft, req.BranchID)
	if err != nil {
		return nil, false, err
	}
	cart, err := s.loadOwnedCart(ctx, tx, req.CartID, userID, true)
	if err != nil {
		return nil, false, err
	}
	if err := s.Resolver.ValidateDeliverySlot(ctx, tx, ft, req.DeliverySlotID, branchID); err != nil {
		return nil, false, err
	}

	requestHash := HashRequest(req)
	rec, isNew, err := s.Idempotency.GetOrCreateInProgress(ctx, tx, userID, key, requestHash)
	if err != nil {
		return nil, false, err
	}
	if !isNew {
		// Terminal SUCCEEDED record: replay the cached response verbatim.
		var cached ConfirmResponse
		if err := json.Unmarshal(rec.ResponsePayload, &cached); err != nil {
			return nil, false, err
		}
		return &cached, false, nil
	}

	inv, err := s.Inventory.LockRows(ctx, tx, productIDs(cart.Items), branchID)
	if err != nil {
		return nil, false, err
	}
	missing := MissingItems(cart.Items, inv)
	if len(missing) > 0 {
		// Nothing was consumed; persist only the FAILED mark so the key
		// stays retryable.
		if err := s.Idempotency.MarkFailed(ctx, tx, rec.ID); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, false, err
		}
		return nil, false, NewDomainError(CodeInsufficientStock, "insufficient stock for items", http.StatusConflict).
			WithDetails(map[string]any{"missing": missing})
	}

	totals := CalculateTotals(cart.Items, ft, s.DeliveryMinTotal, s.DeliveryFeeUnderMin)

	order, items := BuildOrder(cart, ft, branchID, totals)
	if err := s.Orders.InsertOrder(ctx, tx, order); err != nil {
		return nil, false, err
	}
	if err := s.Orders.InsertOrderItems(ctx, tx, order.ID, items); err != nil {
		return nil, false, err
	}
	if err := s.addFulfillmentDetails(ctx, tx, order.ID, req, branchID); err != nil {
		return nil, false, err
	}

	// Entity audits are buffered until the commit lands. Publishing them
	// earlier would leave phantom CREATE/DECREMENT events if a later step
	// rolls the rows back.
	var audits []audit.Event
	if err := s.decrementInventory(ctx, tx, cart.Items, inv, userID, &audits); err != nil {
		return nil, false, err
	}
	audits = append(audits, audit.Event{
		EntityType:  audit.EntityOrder,
		Action:      audit.ActionCreate,
		EntityID:    order.ID,
		ActorUserID: userID,
		NewValue: map[string]any{
			"order_number": order.OrderNumber,
			"total_amount": totals.TotalAmount.String(),
		},
	})

	payCtx := ctx
	if s.PaymentTimeout > 0 {
		var cancel context.CancelFunc
		payCtx, cancel = context.WithTimeout(ctx, s.PaymentTimeout)
		defer cancel()
	}
	paymentRef, err := s.Charger.Charge(payCtx, tx, req.PaymentTokenID, totals.TotalAmount)
	if err != nil {
		return nil, false, err
	}

	// Danger zone: the charge landed but the transaction has not committed.
	// Every failure from here on must leave an audit trail before the
	// rollback loses the order.
	if err := s.maybeSaveDefaultToken(ctx, tx, userID, req.PaymentTokenID, req.SaveAsDefault); err != nil {
		return nil, false, s.paymentNotCommitted(cart.ID, paymentRef, err)
	}

	resp := &ConfirmResponse{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		TotalPaid:        totals.TotalAmount,
		PaymentReference: paymentRef,
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, false, s.paymentNotCommitted(cart.ID, paymentRef, err)
	}
	if err := s.Idempotency.MarkSucceeded(ctx, tx, rec.ID, body, http.StatusCreated, order.ID); err != nil {
		return nil, false, s.paymentNotCommitted(cart.ID, paymentRef, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, s.paymentNotCommitted(cart.ID, paymentRef, err)
	}
	for _, ev := range audits {
		s.Audit.Log(ev)
	}

	slog.Info("checkout confirmed",
		"order_id", order.ID, "order_number", order.OrderNumber,
		"user_id", userID, "total", totals.TotalAmount.String())
	return resp, true, nil
}

// GetOrder returns the order with its item snapshot; owners only.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (*OrderView, error) {
	order, err := s.Orders.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, notFound("order not found")
	}
	items, err := s.Orders.ListOrderItems(ctx, s.DB, order.ID)
	if err != nil {
		return nil, err
	}
	return orderView(order, items), nil
}

// Cancel is the customer-facing CREATED -> CANCELED transition. Any other
// current status is a conflict. Inventory is not restored.
func (s *Service) Cancel(ctx context.Context, userID, orderID int64) (*CancelResponse, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := s.Orders.GetOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, notFound("order not found")
	}
	if order.Status != StatusCreated || !CanTransition(order.Status, StatusCanceled) {
		return nil, NewDomainError(CodeInvalidStatus, "order cannot be canceled in its current status", http.StatusConflict)
	}
	if err := s.Orders.UpdateStatus(ctx, tx, order.ID, StatusCanceled); err != nil {
		return nil, err
	}
	canceledAt := time.Now().UTC()
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Audit.Log(audit.Event{
		EntityType:  audit.EntityOrder,
		Action:      audit.ActionCancel,
		EntityID:    order.ID,
		ActorUserID: userID,
		OldValue:    map[string]any{"status": string(order.Status)},
		NewValue:    map[string]any{"status": string(StatusCanceled)},
		Context:     map[string]any{"canceled_at": canceledAt.Format(time.RFC3339)},
	})
	return &CancelResponse{OrderID: order.ID, CanceledAt: canceledAt}, nil
}

func (s *Service) loadOwnedCart(ctx context.Context, q Querier, cartID, userID int64, forUpdate bool) (*Cart, error) {
	cart, err := s.Carts.LoadCart(ctx, q, cartID, forUpdate)
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.UserID != userID {
		return nil, notFound("cart not found")
	}
	return cart, nil
}

func (s *Service) decrementInventory(ctx context.Context, q Querier, items []CartItem, inv map[int64]InventoryRecord, userID int64, audits *[]audit.Event) error {
	for _, it := range items {
		rec, ok := inv[it.ProductID]
		if !ok {
			continue
		}
		// MissingItems checks cart lines one at a time, so duplicate lines
		// for the same product can pass it while their combined quantity
		// overshoots the stock. The running count in inv catches that here.
		if rec.Available < it.Quantity {
			return NewDomainError(CodeInsufficientStock, "insufficient stock during decrement", http.StatusConflict)
		}
		if err := s.Inventory.ApplyDecrement(ctx, q, rec.ID, it.Quantity); err != nil {
			return err
		}
		*audits = append(*audits, audit.Event{
			EntityType:  audit.EntityInventory,
			Action:      audit.ActionDecrement,
			EntityID:    rec.ID,
			ActorUserID: userID,
			OldValue: map[string]any{
				"available_quantity": rec.Available,
				"reserved_quantity":  rec.Reserved,
			},
			NewValue: map[string]any{
				"available_quantity": rec.Available - it.Quantity,
				"reserved_quantity":  rec.Reserved,
			},
		})
		rec.Available -= it.Quantity
		inv[it.ProductID] = rec
	}
	return nil
}

func (s *Service) addFulfillmentDetails(ctx context.Context, q Querier, orderID int64, req ConfirmRequest, branchID int64) error {
	if req.FulfillmentType == FulfillmentDelivery {
		return s.Orders.InsertDeliveryDetails(ctx, q, orderID, req.DeliverySlotID, req.Address)
	}
	now := time.Now().UTC()
	return s.Orders.InsertPickupDetails(ctx, q, orderID, branchID, now, now)
}

func (s *Service) maybeSaveDefaultToken(ctx context.Context, q Querier, userID, tokenID int64, save bool) error {
	if !save {
		return nil
	}
	if err := s.Tokens.ClearDefaultTokens(ctx, q, userID); err != nil {
		return err
	}
	tok, err := s.Tokens.GetPaymentToken(ctx, q, tokenID)
	if err != nil {
		return err
	}
	if tok == nil || tok.UserID != userID {
		return nil
	}
	if err := s.Tokens.SetDefaultToken(ctx, q, tok.ID); err != nil {
		return err
	}
	s.Audit.Log(audit.Event{
		EntityType:  audit.EntityPaymentPreferences,
		Action:      audit.ActionSetDefault,
		EntityID:    tok.ID,
		ActorUserID: userID,
		NewValue:    map[string]any{"payment_token_id": tok.ID},
	})
	return nil
}

// paymentNotCommitted records the captured-but-rolled-back charge for manual
// reconciliation, then hands the original error back.
func (s *Service) paymentNotCommitted(cartID int64, paymentRef string, cause error) error {
	s.Audit.Log(audit.Event{
		EntityType: audit.EntityPayment,
		Action:     audit.ActionPaymentCapturedNotCommitted,
		EntityID:   cartID,
		Context: map[string]any{
			"reference": paymentRef,
			"cart_id":   cartID,
		},
	})
	slog.Error("payment captured but transaction not committed",
		"cart_id", cartID, "payment_ref", paymentRef, "err", cause)
	return cause
}

func normalizeFulfillment(ft FulfillmentType) FulfillmentType {
	if ft == "" {
		return FulfillmentDelivery
	}
	return ft
}

func orderView(o *Order, items []OrderItem) *OrderView {
	views := make([]OrderItemView, 0, len(items))
	for _, it := range items {
		views = append(views, OrderItemView{
			ID:           it.ID,
			ProductID:    it.ProductID,
			Name:         it.Name,
			SKU:          it.SKU,
			UnitPrice:    it.UnitPrice,
			Quantity:     it.Quantity,
			PickedStatus: it.PickedStatus,
		})
	}
	return &OrderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		FulfillmentType: o.FulfillmentType,
		BranchID:        o.BranchID,
		TotalAmount:     o.TotalAmount,
		CreatedAt:       o.CreatedAt,
		Items:           views,
	}
}
