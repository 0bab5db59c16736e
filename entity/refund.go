package entity

import "github.com/shopspring/decimal"

type Refund struct {
	Stamp     string          `json:"stamp"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Receiver  RefundReceiver  `json:"receiver"`
}

type RefundReceiver struct {
	Email string `json:"email"`
}

// RefundResult is the normalized refund reply.
type RefundResult struct {
	StatusCode string `json:"statusCode"`
	StatusText string `json:"statusText"`
	Raw        string `json:"raw"`
}
