package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// GetOrCreateInProgress takes the (user, key) row lock first, so concurrent
// confirms with the same key serialize here. The insert uses ON CONFLICT DO
// NOTHING instead of catching the violation, because a failed INSERT would
// abort the surrounding transaction.
func (r *Repo) GetOrCreateInProgress(ctx context.Context, q Querier, userID int64, key, requestHash string) (*IdempotencyRecord, bool, error) {
	rec, err := r.lockIdempotencyRecord(ctx, q, userID, key)
	if err != nil {
		return nil, false, err
	}
	if rec != nil {
		return r.handleExisting(ctx, q, rec, requestHash)
	}

	var id int64
	err = q.QueryRow(ctx, `
		INSERT INTO idempotency_keys (user_id, key, request_hash, status, expires_at)
		VALUES ($1, $2, $3, $4, now() + make_interval(secs => $5))
		ON CONFLICT (user_id, key) DO NOTHING
		RETURNING id`,
		userID, key, requestHash, string(IdemInProgress), IdempotencyTTL.Seconds()).Scan(&id)
	if err == nil {
		return &IdempotencyRecord{ID: id, UserID: userID, Key: key, RequestHash: requestHash, Status: IdemInProgress}, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Lost the insert race; the winner's row exists now.
	rec, err = r.lockIdempotencyRecord(ctx, q, userID, key)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		return nil, false, errors.New("idempotency record vanished after conflict")
	}
	return r.handleExisting(ctx, q, rec, requestHash)
}

func (r *Repo) handleExisting(ctx context.Context, q Querier, rec *IdempotencyRecord, requestHash string) (*IdempotencyRecord, bool, error) {
	if rec.RequestHash != requestHash {
		return nil, false, NewDomainError(CodeIdemReuseMismatch,
			"same Idempotency-Key used with different request payload", http.StatusConflict)
	}
	switch rec.Status {
	case IdemInProgress:
		return nil, false, NewDomainError(CodeIdemInProgress,
			"this request is already being processed", http.StatusConflict)
	case IdemFailed:
		// A failed attempt consumed nothing; supersede it and run again.
		if _, err := q.Exec(ctx, `
			UPDATE idempotency_keys SET status=$2 WHERE id=$1`, rec.ID, string(IdemInProgress)); err != nil {
			return nil, false, err
		}
		rec.Status = IdemInProgress
		return rec, true, nil
	default:
		return rec, false, nil
	}
}

func (r *Repo) lockIdempotencyRecord(ctx context.Context, q Querier, userID int64, key string) (*IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var status string
	err := q.QueryRow(ctx, `
		SELECT id, user_id, key, request_hash, status,
		       COALESCE(response_payload, 'null'::jsonb), COALESCE(status_code, 0),
		       COALESCE(order_id, 0), expires_at
		FROM idempotency_keys
		WHERE user_id=$1 AND key=$2
		FOR UPDATE`, userID, key).
		Scan(&rec.ID, &rec.UserID, &rec.Key, &rec.RequestHash, &status,
			&rec.ResponsePayload, &rec.StatusCode, &rec.OrderID, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Status = IdempotencyStatus(status)
	return &rec, nil
}

func (r *Repo) MarkSucceeded(ctx context.Context, q Querier, recordID int64, response []byte, statusCode int, orderID int64) error {
	_, err := q.Exec(ctx, `
		UPDATE idempotency_keys
		SET status=$2, response_payload=$3, status_code=$4, order_id=$5
		WHERE id=$1`, recordID, string(IdemSucceeded), response, statusCode, orderID)
	return err
}

func (r *Repo) MarkFailed(ctx context.Context, q Querier, recordID int64) error {
	_, err := q.Exec(ctx, `UPDATE idempotency_keys SET status=$2 WHERE id=$1`, recordID, string(IdemFailed))
	return err
}
