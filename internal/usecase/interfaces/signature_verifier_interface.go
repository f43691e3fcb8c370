package interfaces

import "net/http"

// ISignatureVerifier checks the integrity of a raw webhook delivery.
type ISignatureVerifier interface {
	Verify(header http.Header, rawBody []byte) error
}
