package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrSignatureMismatch = errors.New("invalid payment signature")

// Proof is what the client submits after the gateway checkout completes.
type Proof struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

// AttemptLogger appends to the durable payment attempt log.
type AttemptLogger interface {
	Append(ctx context.Context, a Attempt) error
}

// Verifier checks gateway callback signatures. A mismatch is always
// recorded before it is surfaced. A match records nothing here; the order
// creation transaction writes the SUCCESS row.
type Verifier struct {
	Secret []byte
	Log    AttemptLogger
	Logger *zap.Logger
}

// Verify recomputes the expected signature over
// "<gatewayOrderID>|<gatewayPaymentID>" and compares in constant time.
// Never retries; the client restarts the payment flow on failure.
func (v *Verifier) Verify(ctx context.Context, userID string, p Proof) error {
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write([]byte(p.GatewayOrderID + "|" + p.GatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if hmac.Equal([]byte(expected), []byte(p.Signature)) {
		return nil
	}

	if v.Logger != nil {
		v.Logger.Warn("payment signature mismatch",
			zap.String("user_id", userID),
			zap.String("gateway_order_id", p.GatewayOrderID),
			zap.String("gateway_payment_id", p.GatewayPaymentID),
		)
	}
	attempt := Attempt{
		UserID:           userID,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		Status:           StatusFailed,
		Reason:           "signature mismatch",
	}
	if err := v.Log.Append(ctx, attempt); err != nil {
		// the audit row must exist before we reject
		return fmt.Errorf("record payment attempt: %w", err)
	}
	return ErrSignatureMismatch
}
