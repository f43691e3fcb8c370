package request

import "encoding/json"

// PaymentCreateRequest is the checkout payload of a request.
//
// `mp_payload` is forwarded as-is (raw JSON) to support varying Mercado Pago
// schemas. A body without the envelope is taken as the payload itself.
type PaymentCreateRequest struct {
	MPPayload json.RawMessage `json:"mp_payload"`
}
