package payments

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestSignatureVerifier_Verify(t *testing.T) {
	body := []byte(`{"request_id":42,"event":"payment.accepted"}`)
	good := Sign("s3cret", body)

	tests := []struct {
		name    string
		secret  string
		headers []string
		header  http.Header
		body    []byte
		wantErr error
	}{
		{
			name:   "default header matches",
			secret: "s3cret",
			header: http.Header{"X-Event-Signature": {good}},
			body:   body,
		},
		{
			name:   "second allow-listed header with sha256 prefix",
			secret: "s3cret",
			header: http.Header{"Integrity-Signature": {"sha256=" + strings.ToUpper(good)}},
			body:   body,
		},
		{
			name:    "custom allow list ignores default headers",
			secret:  "s3cret",
			headers: []string{"X-Wompi-Signature"},
			header:  http.Header{"X-Event-Signature": {good}},
			body:    body,
			wantErr: ErrMissingSignature,
		},
		{
			name:    "tampered body",
			secret:  "s3cret",
			header:  http.Header{"X-Event-Signature": {good}},
			body:    []byte(`{"request_id":43,"event":"payment.accepted"}`),
			wantErr: ErrSignatureMismatch,
		},
		{
			name:    "wrong secret",
			secret:  "other",
			header:  http.Header{"X-Event-Signature": {good}},
			body:    body,
			wantErr: ErrSignatureMismatch,
		},
		{
			name:    "not hex",
			secret:  "s3cret",
			header:  http.Header{"X-Signature": {"zz-not-hex"}},
			body:    body,
			wantErr: ErrSignatureMismatch,
		},
		{
			name:    "missing header",
			secret:  "s3cret",
			header:  http.Header{},
			body:    body,
			wantErr: ErrMissingSignature,
		},
		{
			name:    "empty secret fails closed",
			secret:  "",
			header:  http.Header{"X-Event-Signature": {Sign("", body)}},
			body:    body,
			wantErr: ErrWebhookSecretNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewSignatureVerifier(tt.secret, tt.headers)
			err := v.Verify(tt.header, tt.body)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
