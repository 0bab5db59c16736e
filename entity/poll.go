package entity

import "github.com/shopspring/decimal"

// Poll asks the gateway for the current status of a payment.
type Poll struct {
	Stamp     string          `json:"stamp"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// PollResult is the normalized poll reply.
type PollResult struct {
	Stamp     string `json:"stamp"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Raw       string `json:"raw"`
}

