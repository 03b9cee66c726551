package checkout

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repo implements every store interface against Postgres. It holds no
// connection of its own; callers pass the pool or transaction they want the
// statement to run in.
type Repo struct{}

var (
	_ CartStore        = (*Repo)(nil)
	_ BranchStore      = (*Repo)(nil)
	_ InventoryStore   = (*Repo)(nil)
	_ IdempotencyStore = (*Repo)(nil)
	_ OrderStore       = (*Repo)(nil)
	_ TokenStore       = (*Repo)(nil)
)

const uniqueViolationCode = "23505"

func isUniqueViolationOn(err error, constraintPart string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode &&
		strings.Contains(pgErr.ConstraintName, constraintPart)
}
