package internal

import (
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"overlay/entity"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singlePaymentJson = `{
  "totalAmount": 100,
  "currency": "EUR",
  "reference": "12344",
  "stamp": "1501589373178",
  "items": [{"amount": 100, "vatPercentage": 24, "categoryCode": "100", "description": "Test product",
             "merchant": {"id": "375917"}, "stamp": "1", "reference": "1", "deliveryDate": "20170602"}],
  "content": 1,
  "country": "FIN",
  "language": "FI",
  "message": "Thanks",
  "customer": {"firstName": "Keijo", "lastName": "Kuluttaja", "email": "keijo@example.com"},
  "redirect": {"return": "https://shop.example/return", "cancel": "https://shop.example/cancel",
               "reject": "https://shop.example/reject", "delayed": "https://shop.example/delayed"},
  "delivery": {"streetAddress": "Katutie 12", "postalCode": "00100", "city": "Helsinki", "country": "FIN"}
}`

func TestLegacyOpenPaymentForm(t *testing.T) {
	payment := decodePayment(t, singlePaymentJson)

	legacy := NewLegacyOpenPayment("375917", payment)
	legacy.Sign(NewEncryptor(testSecret))
	form := legacy.Form()

	assert.Equal(t, "100", form.Get("AMOUNT"))
	assert.Equal(t, "0001", form.Get("VERSION"))
	assert.Equal(t, "3", form.Get("ALGORITHM"))
	assert.Equal(t, "10", form.Get("DEVICE"))
	assert.Equal(t, "0", form.Get("TYPE"))
	assert.Equal(t, "1", form.Get("CONTENT"))
	assert.Equal(t, "375917", form.Get("MERCHANT"))
	assert.Equal(t, "20170602", form.Get("DELIVERY_DATE"))
	assert.Equal(t, "Test product", form.Get("DESCRIPTION"))
	assert.Equal(t, "keijo@example.com", form.Get("EMAIL"))
	assert.Equal(t, "Katutie 12", form.Get("ADDRESS"))
	assert.Equal(t, "00100", form.Get("POSTCODE"))
	assert.Equal(t, "Helsinki", form.Get("POSTOFFICE"))
	assert.Equal(t, "317265FE824DBA853A2BBDA2E9007C2E", form.Get("MAC"))
	assert.Empty(t, form.Get("SECRET_KEY"))
	assert.Len(t, form, 26)
}

func TestLegacyOpenPaymentMacOrder(t *testing.T) {
	legacy := NewLegacyOpenPayment("375917", decodePayment(t, singlePaymentJson))

	assert.Equal(t,
		"0001+1501589373178+100+12344+Thanks+FI+375917+https://shop.example/return+https://shop.example/cancel+"+
			"https://shop.example/reject+https://shop.example/delayed+FIN+EUR+10+1+0+3+20170602+Keijo+Kuluttaja+"+
			"Katutie 12+00100+Helsinki",
		ValueString(legacy.macValues(), "+"))
}

func TestLegacyOpenPaymentMacIgnoresUnsignedFields(t *testing.T) {
	encryptor := NewEncryptor(testSecret)
	first := NewLegacyOpenPayment("375917", decodePayment(t, singlePaymentJson))
	first.Sign(encryptor)

	changed := decodePayment(t, singlePaymentJson)
	changed.Customer.Email = "other@example.com"
	changed.Items[0].Description = "Other"
	second := NewLegacyOpenPayment("375917", changed)
	second.Sign(encryptor)
	assert.Equal(t, first.Mac, second.Mac)

	changed.Stamp = "2"
	third := NewLegacyOpenPayment("375917", changed)
	third.Sign(encryptor)
	assert.NotEqual(t, first.Mac, third.Mac)
}

func TestLegacyOpenPaymentValidate(t *testing.T) {
	tests := []struct {
		amount string
		errors int
	}{
		{"100", 0},
		{"0.02", 0},
		{"0.01", 1},
		{"0", 1},
		{"-5", 1},
	}
	for _, tt := range tests {
		payment := decodePayment(t, singlePaymentJson)
		payment.TotalAmount = decimal.RequireFromString(tt.amount)
		found := NewLegacyOpenPayment("375917", payment).Validate()
		require.Len(t, found, tt.errors, tt.amount)
		if tt.errors > 0 {
			assert.Equal(t, "11001", found[0].Code)
		}
	}
}

func TestLegacyShopInShop(t *testing.T) {
	payment := decodePayment(t, validPaymentJson)
	encryptor := NewEncryptor(testSecret)

	legacy, err := NewLegacyShopInShop("400000", payment)
	require.NoError(t, err)
	legacy.Sign(encryptor)

	assert.Equal(t, encryptor.LegacyMac(legacy.Xml), legacy.Mac)
	assert.Equal(t, md5Upper(legacy.Xml+"+"+testSecret), legacy.Mac)

	raw, err := base64.StdEncoding.DecodeString(legacy.Xml)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), xml.Header))
	assert.Contains(t, string(raw), `<checkout xmlns="http://checkout.fi/request"><request type="aggregator" test="false">`)

	var document sisCheckout
	require.NoError(t, xml.Unmarshal(raw, &document))
	request := document.Request
	assert.Equal(t, "400000", request.Aggregator)
	assert.Equal(t, "0002", request.Version)
	assert.Equal(t, "10", request.Device)
	assert.Equal(t, "0", request.Type)
	assert.Equal(t, "3", request.Algorithm)
	assert.Equal(t, "false", request.Commit)
	assert.Equal(t, "12344", request.Reference)
	require.Len(t, request.Items.Items, 2)
	assert.Equal(t, "1000", request.Items.Items[0].Price.Value)
	assert.Equal(t, "24", request.Items.Items[0].Price.Vat)
	assert.Equal(t, "EUR", request.Items.Items[1].Price.Currency)
	assert.Equal(t, "375917", request.Items.Items[1].Merchant)
	assert.Equal(t, "1500", request.Items.Amount.Value)
	assert.Equal(t, "Keijo", request.Buyer.FirstName)
	assert.Equal(t, "Helsinki", request.Delivery.PostalOffice)
	assert.Equal(t, "20170602", request.Delivery.Date)
	assert.Equal(t, "default", request.Control.Type)
	assert.Equal(t, "https://shop.example/delayed", request.Control.Delayed)

	form := legacy.Form()
	assert.Equal(t, legacy.Xml, form.Get("CHECKOUT_XML"))
	assert.Equal(t, legacy.Mac, form.Get("CHECKOUT_MAC"))
}

func TestLegacyShopInShopEscapesValues(t *testing.T) {
	payment := decodePayment(t, validPaymentJson)
	payment.Message = `<b>"Tom & Jerry"</b>`

	legacy, err := NewLegacyShopInShop("400000", payment)
	require.NoError(t, err)
	raw, _ := base64.StdEncoding.DecodeString(legacy.Xml)

	var document sisCheckout
	require.NoError(t, xml.Unmarshal(raw, &document))
	assert.Equal(t, payment.Message, document.Request.Description)
}

func TestLegacyPoll(t *testing.T) {
	var poll entity.Poll
	require.NoError(t, json.Unmarshal([]byte(`{"stamp":"1501589373178","reference":"12344","amount":1000,"currency":"EUR"}`), &poll))

	legacy := NewLegacyPoll("375917", &poll)
	legacy.Sign(NewEncryptor(testSecret))
	form := legacy.Form()

	assert.Equal(t, "0001", form.Get("VERSION"))
	assert.Equal(t, "1", form.Get("FORMAT"))
	assert.Equal(t, "1", form.Get("ALGORITHM"))
	assert.Equal(t, "1000", form.Get("AMOUNT"))
	assert.Equal(t, "84FE82AE0A0153D542F1B3BAFEB828C3", form.Get("MAC"))
}

func TestLegacyRefund(t *testing.T) {
	refund := &entity.Refund{
		Stamp:     "1501589373178",
		Reference: "12344",
		Amount:    decimal.NewFromInt(500),
		Receiver:  entity.RefundReceiver{Email: "keijo@example.com"},
	}
	encryptor := NewEncryptor(testSecret)

	legacy, err := NewLegacyRefund("375917", refund)
	require.NoError(t, err)
	legacy.Sign(encryptor)

	assert.Equal(t, encryptor.Hmac(legacy.Data), legacy.Mac)
	assert.Len(t, legacy.Mac, 64)

	raw, err := base64.StdEncoding.DecodeString(legacy.Data)
	require.NoError(t, err)
	var document refundCheckout
	require.NoError(t, xml.Unmarshal(raw, &document))
	assert.Equal(t, "375917", document.Identification.Merchant)
	assert.Equal(t, "1501589373178", document.Identification.Stamp)
	assert.Equal(t, "500", document.Message.Refund.Amount)
	assert.Equal(t, "keijo@example.com", document.Message.Refund.Receiver.Email)

	form := legacy.Form()
	assert.Equal(t, legacy.Data, form.Get("data"))
	assert.Equal(t, legacy.Mac, form.Get("mac"))
}
