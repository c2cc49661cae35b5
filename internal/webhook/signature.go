package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"templatestore-backend/internal/config"
)

// SignatureHeader is the header the processor puts the body digest in.
const SignatureHeader = "X-Signature"

type Verifier struct {
	secret []byte
}

func NewVerifier(paymentCfg *config.Payment) *Verifier {
	return &Verifier{
		secret: []byte(paymentCfg.SigningSecret),
	}
}

// Verify reports whether signature is the hex HMAC-SHA256 digest of body
// under the shared secret. A missing secret or a malformed signature fails
// closed; this never panics past the boundary.
func (v *Verifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)

	return hmac.Equal(mac.Sum(nil), provided)
}

// Sign computes the hex digest the processor would send for body. Used by
// tests and by ops tooling to replay deliveries.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
