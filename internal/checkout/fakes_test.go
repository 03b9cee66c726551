package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/grocerly/go-checkout/internal/audit"
)

// fakeTx satisfies pgx.Tx for the orchestrator, which only ever calls
// Commit and Rollback on it; everything else panics via the embedded nil.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	txs       []*fakeTx
	commitErr error
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	tx := &fakeTx{commitErr: d.commitErr}
	d.txs = append(d.txs, tx)
	return tx, nil
}

func (d *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (d *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (d *fakeDB) lastTx() *fakeTx { return d.txs[len(d.txs)-1] }

type deliveryDetail struct {
	slotID  int64
	address string
}

type pickupDetail struct {
	branchID   int64
	start, end time.Time
}

// fakeStore is an in-memory implementation of every store interface. It
// ignores the Querier; transactional visibility is not modeled, only the
// end state the orchestrator produces.
type fakeStore struct {
	carts     map[int64]*Cart
	branches  map[int64]*Branch
	slots     map[int64]*DeliverySlot
	inventory map[int64]*InventoryRecord // by inventory id
	idem      map[string]*IdempotencyRecord
	orders    map[int64]*Order
	items     map[int64][]OrderItem
	delivery  map[int64]deliveryDetail
	pickups   map[int64]pickupDetail
	tokens    map[int64]*PaymentToken

	nextID int64

	insertOrderErrs  []error // popped per InsertOrder call
	insertOrderCalls int
	markSucceededErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		carts:     map[int64]*Cart{},
		branches:  map[int64]*Branch{},
		slots:     map[int64]*DeliverySlot{},
		inventory: map[int64]*InventoryRecord{},
		idem:      map[string]*IdempotencyRecord{},
		orders:    map[int64]*Order{},
		items:     map[int64][]OrderItem{},
		delivery:  map[int64]deliveryDetail{},
		pickups:   map[int64]pickupDetail{},
		tokens:    map[int64]*PaymentToken{},
		nextID:    1000,
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) LoadCart(ctx context.Context, q Querier, cartID int64, forUpdate bool) (*Cart, error) {
	return s.carts[cartID], nil
}

func (s *fakeStore) GetBranch(ctx context.Context, q Querier, id int64) (*Branch, error) {
	return s.branches[id], nil
}

func (s *fakeStore) GetDeliverySlot(ctx context.Context, q Querier, id int64) (*DeliverySlot, error) {
	return s.slots[id], nil
}

func (s *fakeStore) LockRows(ctx context.Context, q Querier, ids []int64, branchID int64) (map[int64]InventoryRecord, error) {
	return s.readInventory(ids, branchID), nil
}

func (s *fakeStore) ReadRows(ctx context.Context, q Querier, ids []int64, branchID int64) (map[int64]InventoryRecord, error) {
	return s.readInventory(ids, branchID), nil
}

func (s *fakeStore) readInventory(ids []int64, branchID int64) map[int64]InventoryRecord {
	out := map[int64]InventoryRecord{}
	for _, rec := range s.inventory {
		if rec.BranchID != branchID {
			continue
		}
		for _, id := range ids {
			if rec.ProductID == id {
				out[rec.ProductID] = *rec
			}
		}
	}
	return out
}

func (s *fakeStore) ApplyDecrement(ctx context.Context, q Querier, inventoryID int64, qty int) error {
	rec, ok := s.inventory[inventoryID]
	if !ok || rec.Available < qty {
		return NewDomainError(CodeInsufficientStock, "insufficient stock during decrement", 409)
	}
	rec.Available -= qty
	return nil
}

func idemKey(userID int64, key string) string { return fmt.Sprintf("%d:%s", userID, key) }

func (s *fakeStore) GetOrCreateInProgress(ctx context.Context, q Querier, userID int64, key, requestHash string) (*IdempotencyRecord, bool, error) {
	rec, ok := s.idem[idemKey(userID, key)]
	if !ok {
		rec = &IdempotencyRecord{
			ID: s.id(), UserID: userID, Key: key,
			RequestHash: requestHash, Status: IdemInProgress,
			ExpiresAt: time.Now().Add(IdempotencyTTL),
		}
		s.idem[idemKey(userID, key)] = rec
		return rec, true, nil
	}
	if rec.RequestHash != requestHash {
		return nil, false, NewDomainError(CodeIdemReuseMismatch, "same Idempotency-Key used with different request payload", 409)
	}
	switch rec.Status {
	case IdemInProgress:
		return nil, false, NewDomainError(CodeIdemInProgress, "this request is already being processed", 409)
	case IdemFailed:
		rec.Status = IdemInProgress
		return rec, true, nil
	default:
		return rec, false, nil
	}
}

func (s *fakeStore) findIdem(recordID int64) *IdempotencyRecord {
	for _, rec := range s.idem {
		if rec.ID == recordID {
			return rec
		}
	}
	return nil
}

func (s *fakeStore) MarkSucceeded(ctx context.Context, q Querier, recordID int64, response []byte, statusCode int, orderID int64) error {
	if s.markSucceededErr != nil {
		return s.markSucceededErr
	}
	rec := s.findIdem(recordID)
	rec.Status = IdemSucceeded
	rec.ResponsePayload = response
	rec.StatusCode = statusCode
	rec.OrderID = orderID
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, q Querier, recordID int64) error {
	s.findIdem(recordID).Status = IdemFailed
	return nil
}

func (s *fakeStore) InsertOrder(ctx context.Context, q Querier, o *Order) error {
	s.insertOrderCalls++
	if len(s.insertOrderErrs) > 0 {
		err := s.insertOrderErrs[0]
		s.insertOrderErrs = s.insertOrderErrs[1:]
		if err != nil {
			return err
		}
	}
	o.ID = s.id()
	o.CreatedAt = time.Now().UTC()
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *fakeStore) InsertOrderItems(ctx context.Context, q Querier, orderID int64, items []OrderItem) error {
	for i := range items {
		items[i].ID = s.id()
		items[i].OrderID = orderID
	}
	s.items[orderID] = append([]OrderItem{}, items...)
	return nil
}

func (s *fakeStore) InsertDeliveryDetails(ctx context.Context, q Querier, orderID, slotID int64, address string) error {
	s.delivery[orderID] = deliveryDetail{slotID: slotID, address: address}
	return nil
}

func (s *fakeStore) InsertPickupDetails(ctx context.Context, q Querier, orderID, branchID int64, windowStart, windowEnd time.Time) error {
	s.pickups[orderID] = pickupDetail{branchID: branchID, start: windowStart, end: windowEnd}
	return nil
}

func (s *fakeStore) GetOrder(ctx context.Context, q Querier, orderID int64) (*Order, error) {
	return s.orders[orderID], nil
}

func (s *fakeStore) GetOrderForUpdate(ctx context.Context, q Querier, orderID int64) (*Order, error) {
	return s.orders[orderID], nil
}

func (s *fakeStore) ListOrderItems(ctx context.Context, q Querier, orderID int64) ([]OrderItem, error) {
	return s.items[orderID], nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, q Querier, orderID int64, status OrderStatus) error {
	s.orders[orderID].Status = status
	return nil
}

func (s *fakeStore) GetPaymentToken(ctx context.Context, q Querier, id int64) (*PaymentToken, error) {
	return s.tokens[id], nil
}

func (s *fakeStore) ClearDefaultTokens(ctx context.Context, q Querier, userID int64) error {
	for _, t := range s.tokens {
		if t.UserID == userID {
			t.IsDefault = false
		}
	}
	return nil
}

func (s *fakeStore) SetDefaultToken(ctx context.Context, q Querier, tokenID int64) error {
	s.tokens[tokenID].IsDefault = true
	return nil
}

// countingCharger wraps a Charger and counts captures.
type countingCharger struct {
	inner Charger
	calls int
}

func (c *countingCharger) Charge(ctx context.Context, q Querier, tokenID int64, amount decimal.Decimal) (string, error) {
	c.calls++
	return c.inner.Charge(ctx, q, tokenID, amount)
}

// freshIdem always hands out a new record, for tests that re-run a confirm
// transaction after a rollback the fakeStore cannot model.
type freshIdem struct {
	*fakeStore
}

func (f freshIdem) GetOrCreateInProgress(ctx context.Context, q Querier, userID int64, key, requestHash string) (*IdempotencyRecord, bool, error) {
	rec := &IdempotencyRecord{ID: f.fakeStore.id(), UserID: userID, Key: key, RequestHash: requestHash, Status: IdemInProgress}
	f.idem[idemKey(userID, key)] = rec
	return rec, true, nil
}

type recorderSink struct {
	events []audit.Event
}

func (r *recorderSink) Log(ev audit.Event) { r.events = append(r.events, ev) }

func (r *recorderSink) actions() []string {
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Action)
	}
	return out
}

func (r *recorderSink) has(action string) bool {
	for _, ev := range r.events {
		if ev.Action == action {
			return true
		}
	}
	return false
}

const (
	testUserID      = int64(42)
	testCartID      = int64(100)
	testProductID   = int64(7)
	testBranchID    = int64(1)
	testPickupBr    = int64(2)
	testSlotID      = int64(10)
	testBadSlotID   = int64(11)
	testTokenID     = int64(200)
	testInventoryID = int64(500)
)

type testEnv struct {
	svc     *Service
	db      *fakeDB
	store   *fakeStore
	charger *countingCharger
	sink    *recorderSink
}

func newTestEnv() *testEnv {
	store := newFakeStore()

	store.branches[testBranchID] = &Branch{ID: testBranchID, Name: "central warehouse", IsActive: true}
	store.branches[testPickupBr] = &Branch{ID: testPickupBr, Name: "downtown", IsActive: true}
	store.slots[testSlotID] = &DeliverySlot{ID: testSlotID, BranchID: testBranchID, StartMinute: 8 * 60, EndMinute: 10 * 60, IsActive: true}
	store.slots[testBadSlotID] = &DeliverySlot{ID: testBadSlotID, BranchID: testBranchID, StartMinute: 6 * 60, EndMinute: 9 * 60, IsActive: true}
	store.carts[testCartID] = &Cart{
		ID: testCartID, UserID: testUserID, Status: CartActive,
		Items: []CartItem{{
			ID: 1, CartID: testCartID, ProductID: testProductID,
			Name: "olive oil", SKU: "OIL-1", UnitPrice: decimal.NewFromInt(50), Quantity: 2,
		}},
	}
	store.inventory[testInventoryID] = &InventoryRecord{
		ID: testInventoryID, ProductID: testProductID, BranchID: testBranchID, Available: 5,
	}
	store.tokens[testTokenID] = &PaymentToken{ID: testTokenID, UserID: testUserID, Provider: "mockpay", IsActive: true}

	db := &fakeDB{}
	charger := &countingCharger{inner: &MockPayCharger{Tokens: store}}
	sink := &recorderSink{}

	svc := &Service{
		DB:          db,
		Carts:       store,
		Resolver:    &BranchResolver{Branches: store, DeliverySourceBranchID: testBranchID},
		Inventory:   store,
		Idempotency: store,
		Orders:      store,
		Tokens:      store,
		Charger:     charger,
		Audit:       sink,

		DeliveryMinTotal:    decimal.NewFromInt(150),
		DeliveryFeeUnderMin: decimal.NewFromInt(30),
	}
	return &testEnv{svc: svc, db: db, store: store, charger: charger, sink: sink}
}

func deliveryConfirmReq() ConfirmRequest {
	return ConfirmRequest{
		CartID:          testCartID,
		PaymentTokenID:  testTokenID,
		FulfillmentType: FulfillmentDelivery,
		DeliverySlotID:  testSlotID,
		Address:         "12 Herzl St, Tel Aviv",
	}
}
