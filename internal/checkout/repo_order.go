package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// InsertOrder fills in the generated id and created_at. A unique violation
// on order_number comes back as errOrderNumberTaken so the orchestrator can
// retry the whole transaction with a fresh number.
func (r *Repo) InsertOrder(ctx context.Context, q Querier, o *Order) error {
	err := q.QueryRow(ctx, `
		INSERT INTO orders (order_number, user_id, branch_id, fulfillment_type, status, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)
		RETURNING id, created_at`,
		o.OrderNumber, o.UserID, o.BranchID, string(o.FulfillmentType), string(o.Status), o.TotalAmount.String()).
		Scan(&o.ID, &o.CreatedAt)
	if isUniqueViolationOn(err, "order_number") {
		return errOrderNumberTaken
	}
	return err
}

func (r *Repo) InsertOrderItems(ctx context.Context, q Querier, orderID int64, items []OrderItem) error {
	for i := range items {
		it := &items[i]
		err := q.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, name, sku, unit_price, quantity, picked_status)
			VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
			RETURNING id`,
			orderID, it.ProductID, it.Name, it.SKU, it.UnitPrice.String(), it.Quantity, string(it.PickedStatus)).
			Scan(&it.ID)
		if err != nil {
			return err
		}
		it.OrderID = orderID
	}
	return nil
}

func (r *Repo) InsertDeliveryDetails(ctx context.Context, q Querier, orderID, slotID int64, address string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO order_delivery_details (order_id, delivery_slot_id, address)
		VALUES ($1, $2, $3)`, orderID, slotID, address)
	return err
}

func (r *Repo) InsertPickupDetails(ctx context.Context, q Querier, orderID, branchID int64, windowStart, windowEnd time.Time) error {
	_, err := q.Exec(ctx, `
		INSERT INTO order_pickup_details (order_id, branch_id, pickup_window_start, pickup_window_end)
		VALUES ($1, $2, $3, $4)`, orderID, branchID, windowStart, windowEnd)
	return err
}

func (r *Repo) GetOrder(ctx context.Context, q Querier, orderID int64) (*Order, error) {
	return r.scanOrder(ctx, q, orderID, false)
}

func (r *Repo) GetOrderForUpdate(ctx context.Context, q Querier, orderID int64) (*Order, error) {
	return r.scanOrder(ctx, q, orderID, true)
}

func (r *Repo) scanOrder(ctx context.Context, q Querier, orderID int64, forUpdate bool) (*Order, error) {
	sql := `
		SELECT id, order_number, user_id, branch_id, fulfillment_type, status, total_amount::text, created_at
		FROM orders WHERE id=$1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var o Order
	var ft, status, total string
	err := q.QueryRow(ctx, sql, orderID).
		Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.BranchID, &ft, &status, &total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.FulfillmentType = FulfillmentType(ft)
	o.Status = OrderStatus(status)
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) ListOrderItems(ctx context.Context, q Querier, orderID int64) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, name, sku, unit_price::text, quantity, picked_status
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		var price, picked string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.SKU, &price, &it.Quantity, &picked); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		it.PickedStatus = PickedStatus(picked)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateStatus(ctx context.Context, q Querier, orderID int64, status OrderStatus) error {
	_, err := q.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, string(status))
	return err
}
