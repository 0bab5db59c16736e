package entity

import "encoding/json"

// PaymentRequest is the inbound envelope shared by all operations. The domain object is kept
// as received so its signature can be checked over the exact bytes the client signed.
type PaymentRequest struct {
	Payment    json.RawMessage `json:"payment,omitempty"`
	Poll       json.RawMessage `json:"poll,omitempty"`
	Refund     json.RawMessage `json:"refund,omitempty"`
	MerchantId string          `json:"merchantId"`
	Hmac       string          `json:"hmac"`
}

// RefundBody returns the refund object, older clients send it under the payment key.
func (r *PaymentRequest) RefundBody() json.RawMessage {
	if len(r.Refund) > 0 {
		return r.Refund
	}
	return r.Payment
}
