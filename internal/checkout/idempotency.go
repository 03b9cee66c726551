package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// How long a record shields its key; expired rows are garbage-collected out
// of band.
const IdempotencyTTL = 24 * time.Hour

// HashRequest digests the confirm payload so a re-used key with a different
// request is detectable. Struct field order makes the JSON canonical.
func HashRequest(req ConfirmRequest) string {
	b, err := json.Marshal(req)
	if err != nil {
		// ConfirmRequest holds only plain values.
		panic(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
