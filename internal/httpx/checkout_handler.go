package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/grocerly/go-checkout/internal/checkout"
	"github.com/grocerly/go-checkout/internal/redisx"
)

// CheckoutService is what the handlers need from the orchestrator.
type CheckoutService interface {
	Preview(ctx context.Context, userID int64, req checkout.PreviewRequest) (*checkout.PreviewResponse, error)
	Confirm(ctx context.Context, userID int64, key string, req checkout.ConfirmRequest) (*checkout.ConfirmResponse, bool, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*checkout.OrderView, error)
	Cancel(ctx context.Context, userID, orderID int64) (*checkout.CancelResponse, error)
}

type CheckoutHandler struct {
	Service CheckoutService
	Redis   *redis.Client // optional replay/read cache; DB stays the source of truth
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout/preview", h.preview)
	r.Post("/checkout/confirm", h.confirm)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
}

// userID reads the id placed in the request by the auth layer upstream.
func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func validFulfillment(ft checkout.FulfillmentType) bool {
	return ft == "" || ft == checkout.FulfillmentDelivery || ft == checkout.FulfillmentPickup
}

func (h *CheckoutHandler) preview(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeDomain(w, "UNAUTHORIZED", "missing or invalid user", http.StatusUnauthorized)
		return
	}
	var req checkout.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomain(w, checkout.CodeBadRequest, "invalid json", http.StatusBadRequest)
		return
	}
	if req.CartID <= 0 || !validFulfillment(req.FulfillmentType) {
		writeDomain(w, checkout.CodeBadRequest, "missing or invalid fields", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.Service.Preview(ctx, uid, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CheckoutHandler) confirm(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeDomain(w, "UNAUTHORIZED", "missing or invalid user", http.StatusUnauthorized)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		writeDomain(w, checkout.CodeMissingIdempotencyKey, "Idempotency-Key header is required", http.StatusBadRequest)
		return
	}
	var req checkout.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomain(w, checkout.CodeBadRequest, "invalid json", http.StatusBadRequest)
		return
	}
	if req.CartID <= 0 || req.PaymentTokenID <= 0 || !validFulfillment(req.FulfillmentType) {
		writeDomain(w, checkout.CodeBadRequest, "missing or invalid fields", http.StatusBadRequest)
		return
	}
	if req.FulfillmentType == "" {
		req.FulfillmentType = checkout.FulfillmentDelivery
	}

	// Confirm holds its transaction across the payment call; give it more
	// room than a plain read.
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Replay fast path. The hash is part of the key, so a different payload
	// under the same Idempotency-Key misses the cache and hits the database
	// conflict check.
	replayKey := fmt.Sprintf(redisx.KeyConfirmReplay, uid, key, checkout.HashRequest(req))
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, replayKey).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	resp, created, err := h.Service.Confirm(ctx, uid, key, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		if b, err := json.Marshal(resp); err == nil {
			_ = h.Redis.Set(ctx, replayKey, b, redisx.TTLConfirmReplay).Err()
		}
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	writeJSON(w, code, resp)
}

func (h *CheckoutHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeDomain(w, "UNAUTHORIZED", "missing or invalid user", http.StatusUnauthorized)
		return
	}
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		writeDomain(w, checkout.CodeBadRequest, "invalid order id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cacheKey := fmt.Sprintf(redisx.KeyOrderCache, uid, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, cacheKey).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	view, err := h.Service.GetOrder(ctx, uid, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		if b, err := json.Marshal(view); err == nil {
			_ = h.Redis.Set(ctx, cacheKey, b, redisx.TTLOrderCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeDomain(w, "UNAUTHORIZED", "missing or invalid user", http.StatusUnauthorized)
		return
	}
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		writeDomain(w, checkout.CodeBadRequest, "invalid order id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.Service.Cancel(ctx, uid, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderCache, uid, orderID)).Err()
	}
	writeJSON(w, http.StatusOK, resp)
}
