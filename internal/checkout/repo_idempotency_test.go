package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// scriptedRow feeds a pre-baked scan result to a single QueryRow call.
type scriptedRow struct {
	scan func(dest ...any) error
}

func (r scriptedRow) Scan(dest ...any) error { return r.scan(dest...) }

// scriptedQuerier pops one row per QueryRow call, in order.
type scriptedQuerier struct {
	rows  []scriptedRow
	execs int
}

func (s *scriptedQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execs++
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (s *scriptedQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (s *scriptedQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row
}

func noRow(dest ...any) error { return pgx.ErrNoRows }

func idemRow(rec IdempotencyRecord) scriptedRow {
	return scriptedRow{scan: func(dest ...any) error {
		*dest[0].(*int64) = rec.ID
		*dest[1].(*int64) = rec.UserID
		*dest[2].(*string) = rec.Key
		*dest[3].(*string) = rec.RequestHash
		*dest[4].(*string) = string(rec.Status)
		*dest[5].(*[]byte) = rec.ResponsePayload
		*dest[6].(*int) = rec.StatusCode
		*dest[7].(*int64) = rec.OrderID
		*dest[8].(*time.Time) = rec.ExpiresAt
		return nil
	}}
}

// Two confirms race on the same key: this side sees no row, its insert loses
// the ON CONFLICT, and the re-read under lock finds the winner's record.
func TestGetOrCreateLostInsertRaceReplaysWinner(t *testing.T) {
	repo := &Repo{}
	winner := IdempotencyRecord{
		ID: 7, UserID: testUserID, Key: "abc", RequestHash: "h1",
		Status: IdemSucceeded, ResponsePayload: []byte(`{"order_id":9}`),
		StatusCode: 201, OrderID: 9, ExpiresAt: time.Now().Add(time.Hour),
	}
	q := &scriptedQuerier{rows: []scriptedRow{
		{scan: noRow}, // initial lock read: no row yet
		{scan: noRow}, // INSERT ... ON CONFLICT DO NOTHING returns nothing
		idemRow(winner),
	}}

	rec, isNew, err := repo.GetOrCreateInProgress(context.Background(), q, testUserID, "abc", "h1")
	if err != nil {
		t.Fatalf("get-or-create: %v", err)
	}
	if isNew {
		t.Error("lost race must not report a fresh record")
	}
	if rec.ID != 7 || rec.Status != IdemSucceeded || string(rec.ResponsePayload) != `{"order_id":9}` {
		t.Errorf("record = %+v", rec)
	}
	if len(q.rows) != 0 {
		t.Errorf("%d scripted rows unused", len(q.rows))
	}
}

func TestGetOrCreateLostInsertRaceHashMismatch(t *testing.T) {
	repo := &Repo{}
	winner := IdempotencyRecord{
		ID: 7, UserID: testUserID, Key: "abc", RequestHash: "other",
		Status: IdemInProgress, ExpiresAt: time.Now().Add(time.Hour),
	}
	q := &scriptedQuerier{rows: []scriptedRow{
		{scan: noRow},
		{scan: noRow},
		idemRow(winner),
	}}

	_, _, err := repo.GetOrCreateInProgress(context.Background(), q, testUserID, "abc", "h1")
	assertDomainCode(t, err, CodeIdemReuseMismatch, 409)
}

func TestGetOrCreateLostInsertRaceSupersedesFailed(t *testing.T) {
	repo := &Repo{}
	winner := IdempotencyRecord{
		ID: 7, UserID: testUserID, Key: "abc", RequestHash: "h1",
		Status: IdemFailed, ExpiresAt: time.Now().Add(time.Hour),
	}
	q := &scriptedQuerier{rows: []scriptedRow{
		{scan: noRow},
		{scan: noRow},
		idemRow(winner),
	}}

	rec, isNew, err := repo.GetOrCreateInProgress(context.Background(), q, testUserID, "abc", "h1")
	if err != nil {
		t.Fatalf("get-or-create: %v", err)
	}
	if !isNew || rec.Status != IdemInProgress {
		t.Errorf("FAILED record not superseded: isNew=%v status=%s", isNew, rec.Status)
	}
	if q.execs != 1 {
		t.Errorf("exec calls = %d, want 1 status update", q.execs)
	}
}
