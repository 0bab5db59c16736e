package internal

import (
	"encoding/json"
	"errors"
	"overlay/entity"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// paymentProperties is the property order used in validation reports.
var paymentProperties = []string{
	"totalAmount", "currency", "reference", "stamp", "items", "content",
	"country", "language", "message", "customer", "redirect", "delivery",
}

var emailPattern = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

var (
	errAmountNotPositive = validation.NewError("validation_amount_positive", "must be greater than zero")
	errItemsEmpty        = validation.NewError("validation_items_empty", "requires at least one item")
	errAmountMismatch    = validation.NewError("validation_amount_mismatch", "must equal the sum of item amounts")
	errNotCustomer       = validation.NewError("validation_customer", "must be a customer")
	errContentNotNumber  = validation.NewError("validation_content_number", "must be a number")
)

// PropertyReport lists the payment properties that are absent and those that failed validation.
type PropertyReport struct {
	Missing []string
	Invalid []string
}

func (r PropertyReport) Valid() bool {
	return len(r.Missing) == 0 && len(r.Invalid) == 0
}

// ValidateProperties checks an open payment. Items are only checked for presence
// and their sum, individual items are not validated.
func ValidateProperties(payment *entity.OpenPayment) PropertyReport {
	var report PropertyReport
	missing := make(map[string]bool)
	for _, property := range paymentProperties {
		if !payment.Has(property) {
			missing[property] = true
			report.Missing = append(report.Missing, property)
		}
	}

	err := validation.ValidateStruct(payment,
		validation.Field(&payment.TotalAmount, validation.By(totalAmountRule(payment))),
		validation.Field(&payment.Currency, validation.Required, validation.RuneLength(2, 0)),
		validation.Field(&payment.Reference, validation.Required, validation.RuneLength(2, 99)),
		validation.Field(&payment.Items, validation.Required),
		validation.Field(&payment.Content, validation.Required, validation.By(contentNumberRule(payment)),
			validation.In(json.Number("0"), json.Number("1"))),
		validation.Field(&payment.Country, validation.Required, validation.RuneLength(2, 0)),
		validation.Field(&payment.Language, validation.Required, validation.RuneLength(2, 0)),
		validation.Field(&payment.Message, validation.RuneLength(0, 99)),
		validation.Field(&payment.Customer, validation.By(customerRule)),
	)
	if err == nil {
		return report
	}

	var failed validation.Errors
	if !errors.As(err, &failed) {
		// rules are static, an internal error means a broken rule set; report every property
		for _, property := range paymentProperties {
			if !missing[property] {
				report.Invalid = append(report.Invalid, property)
			}
		}
		return report
	}
	for _, property := range paymentProperties {
		if _, ok := failed[property]; ok && !missing[property] {
			report.Invalid = append(report.Invalid, property)
		}
	}
	return report
}

func totalAmountRule(payment *entity.OpenPayment) validation.RuleFunc {
	return func(interface{}) error {
		if !payment.TotalAmount.IsPositive() {
			return errAmountNotPositive
		}
		if len(payment.Items) == 0 {
			return errItemsEmpty
		}
		if !payment.TotalAmount.Equal(payment.ItemsTotal()) {
			return errAmountMismatch
		}
		return nil
	}
}

func contentNumberRule(payment *entity.OpenPayment) validation.RuleFunc {
	return func(interface{}) error {
		if payment.ContentQuoted() {
			return errContentNotNumber
		}
		return nil
	}
}

func customerRule(value interface{}) error {
	customer, ok := value.(entity.Customer)
	if !ok {
		return errNotCustomer
	}
	return validation.ValidateStruct(&customer,
		validation.Field(&customer.FirstName, validation.Required, validation.RuneLength(2, 29)),
		validation.Field(&customer.LastName, validation.Required, validation.RuneLength(2, 29)),
		validation.Field(&customer.Email, validation.Required, validation.Match(emailPattern)),
	)
}

// ValidatePoll returns the invalid poll properties.
func ValidatePoll(poll *entity.Poll) []string {
	err := validation.ValidateStruct(poll,
		validation.Field(&poll.Stamp, validation.Required),
		validation.Field(&poll.Reference, validation.Required),
		validation.Field(&poll.Amount, validation.By(positiveAmount)),
		validation.Field(&poll.Currency, validation.Required, validation.RuneLength(2, 0)),
	)
	return failedProperties(err, "stamp", "reference", "amount", "currency")
}

// ValidateRefund returns the invalid refund properties.
func ValidateRefund(refund *entity.Refund) []string {
	err := validation.ValidateStruct(refund,
		validation.Field(&refund.Stamp, validation.Required),
		validation.Field(&refund.Reference, validation.Required),
		validation.Field(&refund.Amount, validation.By(positiveAmount)),
		validation.Field(&refund.Receiver, validation.By(func(value interface{}) error {
			receiver, _ := value.(entity.RefundReceiver)
			return validation.Validate(receiver.Email, validation.Required, validation.Match(emailPattern))
		})),
	)
	return failedProperties(err, "stamp", "reference", "amount", "receiver")
}

func positiveAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok || !amount.IsPositive() {
		return errAmountNotPositive
	}
	return nil
}

func failedProperties(err error, order ...string) []string {
	if err == nil {
		return nil
	}
	var failed validation.Errors
	if !errors.As(err, &failed) {
		return order
	}
	var properties []string
	for _, property := range order {
		if _, ok := failed[property]; ok {
			properties = append(properties, property)
		}
	}
	return properties
}
