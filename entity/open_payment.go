// Package entity defines data models for the payment overlay service.
package entity

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OpenPayment is the client facing description of a payment to open on the legacy payment wall.
// Amounts are minor currency units and are compared exactly.
type OpenPayment struct {
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference"`
	Stamp       string          `json:"stamp"`
	Items       []PaymentItem   `json:"items"`
	Content     json.Number     `json:"content"`
	Country     string          `json:"country"`
	Language    string          `json:"language"`
	Message     string          `json:"message"`
	Customer    Customer        `json:"customer"`
	Redirect    Redirect        `json:"redirect"`
	Delivery    Delivery        `json:"delivery"`

	// present holds the top level keys seen while decoding; nil for values built in code
	present map[string]bool
	// contentQuoted is set when content was sent as a JSON string instead of a number
	contentQuoted bool
}

type PaymentItem struct {
	Reference     string          `json:"reference"`
	Stamp         string          `json:"stamp"`
	Amount        decimal.Decimal `json:"amount"`
	Merchant      ItemMerchant    `json:"merchant"`
	Description   string          `json:"description"`
	CategoryCode  string          `json:"categoryCode"`
	DeliveryDate  string          `json:"deliveryDate"`
	VatPercentage decimal.Decimal `json:"vatPercentage"`
	Delivery      *Delivery       `json:"delivery,omitempty"`
}

// ItemMerchant identifies the sub-merchant of an item in a shop-in-shop payment.
type ItemMerchant struct {
	Id    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	VatId string `json:"vatId,omitempty"`
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	VatId     string `json:"vatId,omitempty"`
}

type Redirect struct {
	Return  string `json:"return"`
	Cancel  string `json:"cancel"`
	Reject  string `json:"reject"`
	Delayed string `json:"delayed"`
}

type Delivery struct {
	StreetAddress string `json:"streetAddress"`
	PostalCode    string `json:"postalCode"`
	City          string `json:"city"`
	Country       string `json:"country"`
	County        string `json:"county"`
}

// UnmarshalJSON decodes the payment and remembers which top level properties were sent,
// so that absent properties can be told apart from empty ones.
func (p *OpenPayment) UnmarshalJSON(data []byte) error {
	type plain OpenPayment
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = OpenPayment(decoded)
	p.present = make(map[string]bool, len(keys))
	for key, value := range keys {
		if string(value) != "null" {
			p.present[key] = true
		}
	}
	if content, ok := keys["content"]; ok {
		trimmed := bytes.TrimSpace(content)
		p.contentQuoted = len(trimmed) > 0 && trimmed[0] == '"'
	}
	return nil
}

// ContentQuoted reports whether content arrived as a string token, like "1" instead of 1.
func (p *OpenPayment) ContentQuoted() bool {
	return p.contentQuoted
}

// Has reports whether the property was present in the decoded document.
// Payments built in code report every property as present.
func (p *OpenPayment) Has(property string) bool {
	if p.present == nil {
		return true
	}
	return p.present[property]
}

// FirstItem returns the leading item, the legacy single payment format carries only one.
func (p *OpenPayment) FirstItem() PaymentItem {
	if len(p.Items) == 0 {
		return PaymentItem{}
	}
	return p.Items[0]
}

// ItemsTotal sums the item amounts.
func (p *OpenPayment) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.Amount)
	}
	return total
}
