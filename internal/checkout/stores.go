package checkout

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query subset shared by *pgxpool.Pool and pgx.Tx, so store
// methods run the same inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is what the orchestrator needs from the pool: plain reads for preview
// and transactions for confirm/cancel.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type CartStore interface {
	// LoadCart returns the cart with its items fully materialized (product
	// name/sku joined in) so the transaction's read set is frozen up front.
	LoadCart(ctx context.Context, q Querier, cartID int64, forUpdate bool) (*Cart, error)
}

type BranchStore interface {
	GetBranch(ctx context.Context, q Querier, id int64) (*Branch, error)
	GetDeliverySlot(ctx context.Context, q Querier, id int64) (*DeliverySlot, error)
}

type InventoryStore interface {
	// LockRows acquires FOR UPDATE locks on all (product, branch) rows in one
	// statement, ordered by product id. Absent rows mean zero stock.
	LockRows(ctx context.Context, q Querier, productIDs []int64, branchID int64) (map[int64]InventoryRecord, error)
	// ReadRows is the unlocked variant used by preview.
	ReadRows(ctx context.Context, q Querier, productIDs []int64, branchID int64) (map[int64]InventoryRecord, error)
	ApplyDecrement(ctx context.Context, q Querier, inventoryID int64, qty int) error
}

type IdempotencyStore interface {
	// GetOrCreateInProgress implements the absent -> IN_PROGRESS -> terminal
	// state machine for (user, key). isNew reports whether the caller owns a
	// fresh attempt; false means the record is SUCCEEDED and must be replayed.
	GetOrCreateInProgress(ctx context.Context, q Querier, userID int64, key, requestHash string) (rec *IdempotencyRecord, isNew bool, err error)
	MarkSucceeded(ctx context.Context, q Querier, recordID int64, response []byte, statusCode int, orderID int64) error
	MarkFailed(ctx context.Context, q Querier, recordID int64) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, q Querier, o *Order) error
	InsertOrderItems(ctx context.Context, q Querier, orderID int64, items []OrderItem) error
	InsertDeliveryDetails(ctx context.Context, q Querier, orderID, slotID int64, address string) error
	InsertPickupDetails(ctx context.Context, q Querier, orderID, branchID int64, windowStart, windowEnd time.Time) error
	GetOrder(ctx context.Context, q Querier, orderID int64) (*Order, error)
	GetOrderForUpdate(ctx context.Context, q Querier, orderID int64) (*Order, error)
	ListOrderItems(ctx context.Context, q Querier, orderID int64) ([]OrderItem, error)
	UpdateStatus(ctx context.Context, q Querier, orderID int64, status OrderStatus) error
}

type TokenStore interface {
	GetPaymentToken(ctx context.Context, q Querier, id int64) (*PaymentToken, error)
	ClearDefaultTokens(ctx context.Context, q Querier, userID int64) error
	SetDefaultToken(ctx context.Context, q Querier, tokenID int64) error
}
