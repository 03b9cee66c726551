package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (r *Repo) GetBranch(ctx context.Context, q Querier, id int64) (*Branch, error) {
	var b Branch
	err := q.QueryRow(ctx, `SELECT id, name, is_active FROM branches WHERE id=$1`, id).
		Scan(&b.ID, &b.Name, &b.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) GetDeliverySlot(ctx context.Context, q Querier, id int64) (*DeliverySlot, error) {
	var s DeliverySlot
	err := q.QueryRow(ctx, `
		SELECT id, branch_id, day_of_week, start_minute, end_minute, is_active
		FROM delivery_slots WHERE id=$1`, id).
		Scan(&s.ID, &s.BranchID, &s.DayOfWeek, &s.StartMinute, &s.EndMinute, &s.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
