package internal

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"overlay/entity"

	"github.com/shopspring/decimal"
)

// Wire constants of the legacy endpoints.
const (
	singlePaymentVersion = "0001"
	shopInShopVersion    = "0002"
	paymentAlgorithm     = "3"
	paymentDevice        = "10"
	paymentType          = "0"

	pollVersion   = "0001"
	pollFormat    = "1"
	pollAlgorithm = "1"

	shopInShopNamespace = "http://checkout.fi/request"
)

// legacyMinimumAmount is the amount the legacy wall refuses, inclusive.
var legacyMinimumAmount = decimal.RequireFromString("0.01")

// LegacyOpenPayment is the flat form of the single payment endpoint.
type LegacyOpenPayment struct {
	Version      string
	Stamp        string
	Amount       string
	Reference    string
	Message      string
	Language     string
	Merchant     string
	Return       string
	Cancel       string
	Reject       string
	Delayed      string
	DeliveryDate string
	Country      string
	Currency     string
	Device       string
	Content      string
	Algorithm    string
	Type         string
	FirstName    string
	FamilyName   string
	Address      string
	PostCode     string
	PostOffice   string
	Email        string
	Description  string
	Mac          string

	amount decimal.Decimal
}

func NewLegacyOpenPayment(merchantId string, payment *entity.OpenPayment) *LegacyOpenPayment {
	item := payment.FirstItem()
	return &LegacyOpenPayment{
		Version:      singlePaymentVersion,
		Stamp:        payment.Stamp,
		Amount:       payment.TotalAmount.String(),
		Reference:    payment.Reference,
		Message:      payment.Message,
		Language:     payment.Language,
		Merchant:     merchantId,
		Return:       payment.Redirect.Return,
		Cancel:       payment.Redirect.Cancel,
		Reject:       payment.Redirect.Reject,
		Delayed:      payment.Redirect.Delayed,
		DeliveryDate: item.DeliveryDate,
		Country:      payment.Country,
		Currency:     payment.Currency,
		Device:       paymentDevice,
		Content:      payment.Content.String(),
		Algorithm:    paymentAlgorithm,
		Type:         paymentType,
		FirstName:    payment.Customer.FirstName,
		FamilyName:   payment.Customer.LastName,
		Address:      payment.Delivery.StreetAddress,
		PostCode:     payment.Delivery.PostalCode,
		PostOffice:   payment.Delivery.City,
		Email:        payment.Customer.Email,
		Description:  item.Description,
		amount:       payment.TotalAmount,
	}
}

// macValues is the signing order of the single payment form. EMAIL and DESCRIPTION are not signed.
func (l *LegacyOpenPayment) macValues() []string {
	return []string{
		l.Version, l.Stamp, l.Amount, l.Reference, l.Message, l.Language, l.Merchant,
		l.Return, l.Cancel, l.Reject, l.Delayed, l.Country, l.Currency, l.Device,
		l.Content, l.Type, l.Algorithm, l.DeliveryDate, l.FirstName, l.FamilyName,
		l.Address, l.PostCode, l.PostOffice,
	}
}

func (l *LegacyOpenPayment) Sign(encryptor *Encryptor) {
	l.Mac = encryptor.LegacyMac(l.macValues()...)
}

// Validate runs the checks the legacy wall is known to apply.
func (l *LegacyOpenPayment) Validate() []*entity.ClientError {
	var found []*entity.ClientError
	if l.amount.LessThanOrEqual(legacyMinimumAmount) {
		found = append(found, ErrLegacyAmount())
	}
	return found
}

func (l *LegacyOpenPayment) Form() url.Values {
	form := url.Values{}
	form.Set("VERSION", l.Version)
	form.Set("STAMP", l.Stamp)
	form.Set("AMOUNT", l.Amount)
	form.Set("REFERENCE", l.Reference)
	form.Set("MESSAGE", l.Message)
	form.Set("LANGUAGE", l.Language)
	form.Set("MERCHANT", l.Merchant)
	form.Set("RETURN", l.Return)
	form.Set("CANCEL", l.Cancel)
	form.Set("REJECT", l.Reject)
	form.Set("DELAYED", l.Delayed)
	form.Set("DELIVERY_DATE", l.DeliveryDate)
	form.Set("COUNTRY", l.Country)
	form.Set("CURRENCY", l.Currency)
	form.Set("DEVICE", l.Device)
	form.Set("CONTENT", l.Content)
	form.Set("ALGORITHM", l.Algorithm)
	form.Set("TYPE", l.Type)
	form.Set("FIRSTNAME", l.FirstName)
	form.Set("FAMILYNAME", l.FamilyName)
	form.Set("ADDRESS", l.Address)
	form.Set("POSTCODE", l.PostCode)
	form.Set("POSTOFFICE", l.PostOffice)
	form.Set("EMAIL", l.Email)
	form.Set("DESCRIPTION", l.Description)
	form.Set("MAC", l.Mac)
	return form
}

// shop-in-shop request document

type sisCheckout struct {
	XMLName xml.Name   `xml:"checkout"`
	Xmlns   string     `xml:"xmlns,attr"`
	Request sisRequest `xml:"request"`
}

type sisRequest struct {
	RequestType string      `xml:"type,attr"`
	Test        string      `xml:"test,attr"`
	Aggregator  string      `xml:"aggregator"`
	Version     string      `xml:"version"`
	Stamp       string      `xml:"stamp"`
	Reference   string      `xml:"reference"`
	Description string      `xml:"description"`
	Device      string      `xml:"device"`
	Content     string      `xml:"content"`
	Type        string      `xml:"type"`
	Algorithm   string      `xml:"algorithm"`
	Currency    string      `xml:"currency"`
	Commit      string      `xml:"commit"`
	Items       sisItems    `xml:"items"`
	Buyer       sisPerson   `xml:"buyer"`
	Delivery    sisDelivery `xml:"delivery"`
	Control     sisControl  `xml:"control"`
}

type sisItems struct {
	Items  []sisItem `xml:"item"`
	Amount sisAmount `xml:"amount"`
}

type sisItem struct {
	Code        string   `xml:"code"`
	Stamp       string   `xml:"stamp"`
	Description string   `xml:"description"`
	Price       sisPrice `xml:"price"`
	Merchant    string   `xml:"merchant"`
	Control     string   `xml:"control"`
	Reference   string   `xml:"reference"`
}

type sisPrice struct {
	Currency string `xml:"currency,attr"`
	Vat      string `xml:"vat,attr"`
	Value    string `xml:",chardata"`
}

type sisAmount struct {
	Currency string `xml:"currency,attr"`
	Value    string `xml:",chardata"`
}

type sisPerson struct {
	VatId        string `xml:"vatid,attr"`
	FirstName    string `xml:"firstname"`
	FamilyName   string `xml:"familyname"`
	Address      string `xml:"address"`
	PostalCode   string `xml:"postalcode"`
	PostalOffice string `xml:"postaloffice"`
	Country      string `xml:"country"`
	Email        string `xml:"email"`
	Gsm          string `xml:"gsm"`
	Language     string `xml:"language"`
}

type sisCompany struct {
	VatId string `xml:"vatid,attr"`
	Name  string `xml:",chardata"`
}

type sisDelivery struct {
	Date         string     `xml:"date"`
	Company      sisCompany `xml:"company"`
	FirstName    string     `xml:"firstname"`
	FamilyName   string     `xml:"familyname"`
	Address      string     `xml:"address"`
	PostalCode   string     `xml:"postalcode"`
	PostalOffice string     `xml:"postaloffice"`
	Country      string     `xml:"country"`
	Email        string     `xml:"email"`
	Gsm          string     `xml:"gsm"`
	Language     string     `xml:"language"`
}

type sisControl struct {
	Type    string `xml:"type,attr"`
	Return  string `xml:"return"`
	Reject  string `xml:"reject"`
	Cancel  string `xml:"cancel"`
	Delayed string `xml:"delayed"`
}

// LegacyShopInShop is the aggregator payment: a base64 XML document and its MD5 MAC.
type LegacyShopInShop struct {
	Xml string
	Mac string
}

func NewLegacyShopInShop(aggregatorId string, payment *entity.OpenPayment) (*LegacyShopInShop, error) {
	items := make([]sisItem, 0, len(payment.Items))
	for _, item := range payment.Items {
		items = append(items, sisItem{
			Code:        item.CategoryCode,
			Stamp:       item.Stamp,
			Description: item.Description,
			Price: sisPrice{
				Currency: payment.Currency,
				Vat:      item.VatPercentage.String(),
				Value:    item.Amount.String(),
			},
			Merchant:  item.Merchant.Id,
			Reference: item.Reference,
		})
	}
	document := sisCheckout{
		Xmlns: shopInShopNamespace,
		Request: sisRequest{
			RequestType: "aggregator",
			Test:        "false",
			Aggregator:  aggregatorId,
			Version:     shopInShopVersion,
			Stamp:       payment.Stamp,
			Reference:   payment.Reference,
			Description: payment.Message,
			Device:      paymentDevice,
			Content:     payment.Content.String(),
			Type:        paymentType,
			Algorithm:   paymentAlgorithm,
			Currency:    payment.Currency,
			Commit:      "false",
			Items: sisItems{
				Items: items,
				Amount: sisAmount{
					Currency: payment.Currency,
					Value:    payment.TotalAmount.String(),
				},
			},
			Buyer: sisPerson{
				VatId:        payment.Customer.VatId,
				FirstName:    payment.Customer.FirstName,
				FamilyName:   payment.Customer.LastName,
				Address:      payment.Delivery.StreetAddress,
				PostalCode:   payment.Delivery.PostalCode,
				PostalOffice: payment.Delivery.City,
				Country:      payment.Country,
				Email:        payment.Customer.Email,
				Gsm:          payment.Customer.Phone,
				Language:     payment.Language,
			},
			Delivery: sisDelivery{
				Date:         payment.FirstItem().DeliveryDate,
				FirstName:    payment.Customer.FirstName,
				FamilyName:   payment.Customer.LastName,
				Address:      payment.Delivery.StreetAddress,
				PostalCode:   payment.Delivery.PostalCode,
				PostalOffice: payment.Delivery.City,
				Country:      payment.Country,
				Email:        payment.Customer.Email,
				Gsm:          payment.Customer.Phone,
				Language:     payment.Language,
			},
			Control: sisControl{
				Type:    "default",
				Return:  payment.Redirect.Return,
				Reject:  payment.Redirect.Reject,
				Cancel:  payment.Redirect.Cancel,
				Delayed: payment.Redirect.Delayed,
			},
		},
	}
	body, err := marshalDocument(document)
	if err != nil {
		return nil, fmt.Errorf("shop-in-shop xml: %w", err)
	}
	return &LegacyShopInShop{Xml: Base64(body)}, nil
}

// Sign computes the MAC over the encoded document and the secret.
func (l *LegacyShopInShop) Sign(encryptor *Encryptor) {
	l.Mac = encryptor.LegacyMac(l.Xml)
}

func (l *LegacyShopInShop) Form() url.Values {
	form := url.Values{}
	form.Set("CHECKOUT_XML", l.Xml)
	form.Set("CHECKOUT_MAC", l.Mac)
	return form
}

// LegacyPoll is the flat form of the poll endpoint.
type LegacyPoll struct {
	Version   string
	Stamp     string
	Reference string
	Merchant  string
	Amount    string
	Currency  string
	Format    string
	Algorithm string
	Mac       string
}

func NewLegacyPoll(merchantId string, poll *entity.Poll) *LegacyPoll {
	return &LegacyPoll{
		Version:   pollVersion,
		Stamp:     poll.Stamp,
		Reference: poll.Reference,
		Merchant:  merchantId,
		Amount:    poll.Amount.String(),
		Currency:  poll.Currency,
		Format:    pollFormat,
		Algorithm: pollAlgorithm,
	}
}

func (l *LegacyPoll) macValues() []string {
	return []string{l.Version, l.Stamp, l.Reference, l.Merchant, l.Amount, l.Currency, l.Format, l.Algorithm}
}

func (l *LegacyPoll) Sign(encryptor *Encryptor) {
	l.Mac = encryptor.LegacyMac(l.macValues()...)
}

func (l *LegacyPoll) Form() url.Values {
	form := url.Values{}
	form.Set("VERSION", l.Version)
	form.Set("STAMP", l.Stamp)
	form.Set("REFERENCE", l.Reference)
	form.Set("MERCHANT", l.Merchant)
	form.Set("AMOUNT", l.Amount)
	form.Set("CURRENCY", l.Currency)
	form.Set("FORMAT", l.Format)
	form.Set("ALGORITHM", l.Algorithm)
	form.Set("MAC", l.Mac)
	return form
}

// refund request document

type refundCheckout struct {
	XMLName        xml.Name             `xml:"checkout"`
	Identification refundIdentification `xml:"identification"`
	Message        refundMessage        `xml:"message"`
}

type refundIdentification struct {
	Merchant string `xml:"merchant"`
	Stamp    string `xml:"stamp"`
}

type refundMessage struct {
	Refund refundBody `xml:"refund"`
}

type refundBody struct {
	Stamp     string         `xml:"stamp"`
	Reference string         `xml:"reference"`
	Amount    string         `xml:"amount"`
	Receiver  refundReceiver `xml:"receiver"`
}

type refundReceiver struct {
	Email string `xml:"email"`
}

// LegacyRefund is the refund request: base64 XML in data, HMAC-SHA256 of data in mac.
type LegacyRefund struct {
	Data string
	Mac  string
}

func NewLegacyRefund(merchantId string, refund *entity.Refund) (*LegacyRefund, error) {
	document := refundCheckout{
		Identification: refundIdentification{
			Merchant: merchantId,
			Stamp:    refund.Stamp,
		},
		Message: refundMessage{
			Refund: refundBody{
				Stamp:     refund.Stamp,
				Reference: refund.Reference,
				Amount:    refund.Amount.String(),
				Receiver:  refundReceiver{Email: refund.Receiver.Email},
			},
		},
	}
	body, err := marshalDocument(document)
	if err != nil {
		return nil, fmt.Errorf("refund xml: %w", err)
	}
	return &LegacyRefund{Data: Base64(body)}, nil
}

func (l *LegacyRefund) Sign(encryptor *Encryptor) {
	l.Mac = encryptor.Hmac(l.Data)
}

func (l *LegacyRefund) Form() url.Values {
	form := url.Values{}
	form.Set("data", l.Data)
	form.Set("mac", l.Mac)
	return form
}

func marshalDocument(document interface{}) ([]byte, error) {
	body, err := xml.Marshal(document)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
