package checkout

import (
	"context"
	"net/http"
)

// Rows are locked in ascending product id order so concurrent confirms over
// overlapping product sets always acquire locks in the same sequence.
func (r *Repo) LockRows(ctx context.Context, q Querier, ids []int64, branchID int64) (map[int64]InventoryRecord, error) {
	return r.inventoryRows(ctx, q, ids, branchID, true)
}

func (r *Repo) ReadRows(ctx context.Context, q Querier, ids []int64, branchID int64) (map[int64]InventoryRecord, error) {
	return r.inventoryRows(ctx, q, ids, branchID, false)
}

func (r *Repo) inventoryRows(ctx context.Context, q Querier, ids []int64, branchID int64, forUpdate bool) (map[int64]InventoryRecord, error) {
	if len(ids) == 0 {
		return map[int64]InventoryRecord{}, nil
	}
	sql := `
		SELECT id, product_id, branch_id, available_quantity, reserved_quantity, reorder_point
		FROM inventory
		WHERE branch_id = $1 AND product_id = ANY($2)
		ORDER BY product_id`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, sql, branchID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]InventoryRecord, len(ids))
	for rows.Next() {
		var rec InventoryRecord
		if err := rows.Scan(&rec.ID, &rec.ProductID, &rec.BranchID, &rec.Available, &rec.Reserved, &rec.ReorderPoint); err != nil {
			return nil, err
		}
		out[rec.ProductID] = rec
	}
	return out, rows.Err()
}

func (r *Repo) ApplyDecrement(ctx context.Context, q Querier, inventoryID int64, qty int) error {
	ct, err := q.Exec(ctx, `
		UPDATE inventory
		SET available_quantity = available_quantity - $2, updated_at = now()
		WHERE id = $1 AND available_quantity >= $2`, inventoryID, qty)
	if err != nil {
		return err
	}
	// The WHERE guard refuses a decrement below zero; a miss here means the
	// stock check and the update disagree about remaining quantity.
	if ct.RowsAffected() != 1 {
		return NewDomainError(CodeInsufficientStock, "insufficient stock during decrement", http.StatusConflict)
	}
	return nil
}
