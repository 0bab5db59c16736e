package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"overlay/config"
	"overlay/entity"
	"overlay/services"
)

// Payments translates client requests into legacy gateway calls. Every call is independent,
// nothing is kept between requests.
type Payments struct {
	merchants  services.MerchantStore
	gateway    services.Gateway
	logger     services.LogHandler
	paymentUrl string
	pollUrl    string
	refundUrl  string
}

func NewPayments(conf *config.Config) *Payments {
	return &Payments{
		paymentUrl: conf.Gateway.PaymentUrl,
		pollUrl:    conf.Gateway.PollUrl,
		refundUrl:  conf.Gateway.RefundUrl,
	}
}

func (p *Payments) SetMerchantStore(merchants services.MerchantStore) {
	p.merchants = merchants
}

func (p *Payments) SetGateway(gateway services.Gateway) {
	p.gateway = gateway
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
}

// OpenPayment opens a single payment on the legacy payment wall.
func (p *Payments) OpenPayment(ctx context.Context, request *entity.PaymentRequest) (*entity.PaymentWall, error) {
	reqID := GetRequestID(ctx)

	payment, merchant, err := p.preparePayment(ctx, request)
	if err != nil {
		return nil, err
	}

	legacy := NewLegacyOpenPayment(merchant.MerchantId, payment)
	if found := legacy.Validate(); len(found) > 0 {
		p.logger.Warn(fmt.Sprintf("[%s] open payment: legacy validation failed for %s, amount %s", reqID, merchant.MerchantId, legacy.Amount))
		return nil, ErrLegacyValidation(found)
	}
	legacy.Sign(NewEncryptor(merchant.Secret))

	body, err := Exchange(ctx, p.gateway, p.paymentUrl, legacy.Form())
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] open payment: gateway", reqID), err)
		return nil, err
	}
	wall, err := NormalizePaymentWall(body)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("[%s] open payment: gateway reply: %v", reqID, err))
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("[%s] open payment: wall %s with %d buttons", reqID, wall.Payment.Id, len(wall.Buttons.List)))
	return wall, nil
}

// OpenShopInShop opens an aggregator payment with items of several sub-merchants.
func (p *Payments) OpenShopInShop(ctx context.Context, request *entity.PaymentRequest) (*entity.PaymentWall, error) {
	reqID := GetRequestID(ctx)

	payment, merchant, err := p.preparePayment(ctx, request)
	if err != nil {
		return nil, err
	}

	legacy, err := NewLegacyShopInShop(merchant.AggregatorId(), payment)
	if err != nil {
		return nil, err
	}
	legacy.Sign(NewEncryptor(merchant.Secret))

	body, err := Exchange(ctx, p.gateway, p.paymentUrl, legacy.Form())
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] shop-in-shop: gateway", reqID), err)
		return nil, err
	}
	wall, err := NormalizePaymentWall(body)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("[%s] shop-in-shop: gateway reply: %v", reqID, err))
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("[%s] shop-in-shop: wall %s with %d buttons", reqID, wall.Payment.Id, len(wall.Buttons.List)))
	return wall, nil
}

// Poll asks the gateway for the status of a payment.
func (p *Payments) Poll(ctx context.Context, request *entity.PaymentRequest) (*entity.PollResult, error) {
	reqID := GetRequestID(ctx)

	merchant, payload, err := p.authorize(ctx, request.MerchantId, request.Hmac, request.Poll, "poll")
	if err != nil {
		return nil, err
	}
	var poll entity.Poll
	if err = json.Unmarshal(payload, &poll); err != nil {
		p.logger.Warn(fmt.Sprintf("[%s] poll: decode: %v", reqID, err))
		return nil, ErrInvalidProperties([]string{"poll"})
	}
	if invalid := ValidatePoll(&poll); len(invalid) > 0 {
		p.logger.Warn(fmt.Sprintf("[%s] poll: invalid properties %v", reqID, invalid))
		return nil, ErrInvalidProperties(invalid)
	}
	p.logger.Info(fmt.Sprintf("[%s] poll: merchant %s, reference %s, stamp %s", reqID, merchant.MerchantId, poll.Reference, poll.Stamp))

	legacy := NewLegacyPoll(merchant.MerchantId, &poll)
	legacy.Sign(NewEncryptor(merchant.Secret))

	body, err := Exchange(ctx, p.gateway, p.pollUrl, legacy.Form())
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] poll: gateway", reqID), err)
		return nil, err
	}
	return NormalizePoll(&poll, body)
}

// Refund asks the gateway to refund a settled payment.
func (p *Payments) Refund(ctx context.Context, request *entity.PaymentRequest) (*entity.RefundResult, error) {
	reqID := GetRequestID(ctx)

	merchant, payload, err := p.authorize(ctx, request.MerchantId, request.Hmac, request.RefundBody(), "refund")
	if err != nil {
		return nil, err
	}
	var refund entity.Refund
	if err = json.Unmarshal(payload, &refund); err != nil {
		p.logger.Warn(fmt.Sprintf("[%s] refund: decode: %v", reqID, err))
		return nil, ErrInvalidProperties([]string{"refund"})
	}
	if invalid := ValidateRefund(&refund); len(invalid) > 0 {
		p.logger.Warn(fmt.Sprintf("[%s] refund: invalid properties %v", reqID, invalid))
		return nil, ErrInvalidProperties(invalid)
	}
	p.logger.Info(fmt.Sprintf("[%s] refund: merchant %s, reference %s, amount %s, receiver %s", reqID,
		merchant.MerchantId, refund.Reference, refund.Amount, secret(refund.Receiver.Email)))

	legacy, err := NewLegacyRefund(merchant.MerchantId, &refund)
	if err != nil {
		return nil, err
	}
	legacy.Sign(NewEncryptor(merchant.Secret))

	body, err := Exchange(ctx, p.gateway, p.refundUrl, legacy.Form())
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] refund: gateway", reqID), err)
		return nil, err
	}
	return NormalizeRefund(body)
}

// preparePayment verifies the signature and validates the payment properties.
func (p *Payments) preparePayment(ctx context.Context, request *entity.PaymentRequest) (*entity.OpenPayment, *entity.MerchantParameters, error) {
	reqID := GetRequestID(ctx)

	merchant, payload, err := p.authorize(ctx, request.MerchantId, request.Hmac, request.Payment, "payment")
	if err != nil {
		return nil, nil, err
	}

	var payment entity.OpenPayment
	if err = json.Unmarshal(payload, &payment); err != nil {
		p.logger.Warn(fmt.Sprintf("[%s] payment: decode: %v", reqID, err))
		return nil, nil, ErrInvalidProperties([]string{"payment"})
	}
	p.logger.Info(fmt.Sprintf("[%s] payment: merchant %s, reference %s, stamp %s, amount %s", reqID,
		merchant.MerchantId, payment.Reference, payment.Stamp, payment.TotalAmount))

	report := ValidateProperties(&payment)
	if len(report.Missing) > 0 {
		p.logger.Warn(fmt.Sprintf("[%s] payment: missing properties %v", reqID, report.Missing))
		return nil, nil, ErrMissingProperties(report.Missing)
	}
	if len(report.Invalid) > 0 {
		p.logger.Warn(fmt.Sprintf("[%s] payment: invalid properties %v", reqID, report.Invalid))
		return nil, nil, ErrInvalidProperties(report.Invalid)
	}
	return &payment, merchant, nil
}

// authorize resolves the merchant and checks the client signature over the domain object.
// Unknown merchants are reported the same way as a wrong signature.
func (p *Payments) authorize(ctx context.Context, merchantId, hmac string, body json.RawMessage, property string) (*entity.MerchantParameters, []byte, error) {
	reqID := GetRequestID(ctx)

	if len(body) == 0 || string(body) == "null" {
		p.logger.Warn(fmt.Sprintf("[%s] %s: body missing", reqID, property))
		return nil, nil, ErrMissingProperties([]string{property})
	}
	if merchantId == "" {
		p.logger.Warn(fmt.Sprintf("[%s] %s: empty merchant id", reqID, property))
		return nil, nil, ErrInvalidHmac()
	}

	merchant, err := p.merchants.GetMerchant(ctx, merchantId)
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] %s: merchant lookup", reqID, property), err)
		return nil, nil, err
	}
	if merchant == nil || merchant.Disabled || merchant.Secret == "" {
		p.logger.Warn(fmt.Sprintf("[%s] %s: merchant %s not available", reqID, property, merchantId))
		return nil, nil, ErrInvalidHmac()
	}

	payload, err := CompactPayload(body)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("[%s] %s: compact payload: %v", reqID, property, err))
		return nil, nil, ErrInvalidProperties([]string{property})
	}
	if !NewEncryptor(merchant.Secret).VerifyPayload(payload, hmac) {
		p.logger.Warn(fmt.Sprintf("[%s] %s: hmac validation for %s failed", reqID, property, merchantId))
		return nil, nil, ErrInvalidHmac()
	}
	return merchant, payload, nil
}

// CompactPayload is the form of the domain object the client signs: the JSON as sent,
// without insignificant whitespace.
func CompactPayload(body []byte) ([]byte, error) {
	var buffer bytes.Buffer
	if err := json.Compact(&buffer, body); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
