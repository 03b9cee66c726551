package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// Charger captures a payment against a stored token. The charge is an
// external side effect and is NOT covered by the database transaction; the
// orchestrator's idempotency key is the only double-charge protection.
type Charger interface {
	Charge(ctx context.Context, q Querier, tokenID int64, amount decimal.Decimal) (reference string, err error)
}

const mockPayProvider = "mockpay"

// MockPayCharger validates the stored token and returns a synthetic provider
// reference. Stands in for a real gateway adapter.
type MockPayCharger struct {
	Tokens TokenStore
}

func (c *MockPayCharger) Charge(ctx context.Context, q Querier, tokenID int64, amount decimal.Decimal) (string, error) {
	tok, err := c.Tokens.GetPaymentToken(ctx, q, tokenID)
	if err != nil {
		return "", err
	}
	if tok == nil {
		return "", NewDomainError(CodePaymentTokenNotFound, "payment token not found", http.StatusNotFound)
	}
	if !tok.IsActive {
		return "", NewDomainError(CodePaymentTokenInactive, "payment token inactive", http.StatusBadRequest)
	}
	if tok.Provider != mockPayProvider {
		return "", NewDomainError(CodeUnsupportedProvider, "payment provider not supported", http.StatusBadRequest)
	}

	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("MOCKPAY-%d-%s", tok.ID, strings.ToUpper(hex.EncodeToString(b))), nil
}
