package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"serviexpress/internal/usecase/interfaces"
)

var (
	ErrWebhookSecretNotConfigured = errors.New("webhook secret not configured")
	ErrMissingSignature           = errors.New("missing webhook signature header")
	ErrSignatureMismatch          = errors.New("webhook signature mismatch")
)

var DefaultSignatureHeaders = []string{"X-Event-Signature", "Integrity-Signature", "X-Signature"}

// SignatureVerifier checks HMAC-SHA256 signatures computed with a shared
// secret over the raw request body. The signature is read from the first
// allow-listed header present, hex encoded, with an optional "sha256="
// prefix.
type SignatureVerifier struct {
	secret  []byte
	headers []string
}

var _ interfaces.ISignatureVerifier = (*SignatureVerifier)(nil)

func NewSignatureVerifier(secret string, headers []string) *SignatureVerifier {
	if len(headers) == 0 {
		headers = DefaultSignatureHeaders
	}
	return &SignatureVerifier{secret: []byte(secret), headers: headers}
}

func (v *SignatureVerifier) Verify(header http.Header, rawBody []byte) error {
	if v == nil || len(v.secret) == 0 {
		return ErrWebhookSecretNotConfigured
	}

	provided := ""
	for _, name := range v.headers {
		if s := strings.TrimSpace(header.Get(name)); s != "" {
			provided = s
			break
		}
	}
	if provided == "" {
		return ErrMissingSignature
	}
	if len(provided) > len("sha256=") && strings.EqualFold(provided[:len("sha256=")], "sha256=") {
		provided = provided[len("sha256="):]
	}

	got, err := hex.DecodeString(provided)
	if err != nil {
		return ErrSignatureMismatch
	}
	if !hmac.Equal(got, computeMAC(v.secret, rawBody)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body, the value a sender puts in the
// signature header.
func Sign(secret string, body []byte) string {
	return hex.EncodeToString(computeMAC([]byte(secret), body))
}

func computeMAC(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
