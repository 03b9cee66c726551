package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (r *Repo) GetPaymentToken(ctx context.Context, q Querier, id int64) (*PaymentToken, error) {
	var t PaymentToken
	err := q.QueryRow(ctx, `
		SELECT id, user_id, provider, is_active, is_default
		FROM payment_tokens WHERE id=$1`, id).
		Scan(&t.ID, &t.UserID, &t.Provider, &t.IsActive, &t.IsDefault)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) ClearDefaultTokens(ctx context.Context, q Querier, userID int64) error {
	_, err := q.Exec(ctx, `
		UPDATE payment_tokens SET is_default=FALSE WHERE user_id=$1 AND is_default`, userID)
	return err
}

func (r *Repo) SetDefaultToken(ctx context.Context, q Querier, tokenID int64) error {
	_, err := q.Exec(ctx, `UPDATE payment_tokens SET is_default=TRUE WHERE id=$1`, tokenID)
	return err
}
