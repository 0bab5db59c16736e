package internal

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"overlay/entity"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const (
	defaultTradeVersion = "0001"
	defaultTradeType    = "0"

	buttonMethod = "post"
)

// Bodies the gateway answers with HTTP 200 although the request failed.
var emptyPostErrors = []string{
	"Yhtään tietoa ei siirtynyt POST:lla checkoutille",
	"Yht채채n tietoa ei siirtynyt POST:lla checkoutille",
}

const creationFailedMarker = "Maksutapahtuman luonti ei onnistunut"

// metadata attributes of a provider node, everything else is a form field
var providerMetadata = map[string]bool{
	"name": true,
	"url":  true,
	"icon": true,
}

// xmlText is element text that remembers whether the element was present.
// Repeated elements keep the first occurrence.
type xmlText struct {
	value string
	set   bool
}

func (t *xmlText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var value string
	if err := d.DecodeElement(&value, &start); err != nil {
		return err
	}
	if !t.set {
		t.value = strings.TrimSpace(value)
		t.set = true
	}
	return nil
}

// Or returns the element text, or fallback when the element was absent.
func (t xmlText) Or(fallback string) string {
	if t.set {
		return t.value
	}
	return fallback
}

func (t xmlText) String() string {
	return t.value
}

type tradeDocument struct {
	XMLName       xml.Name
	Id            xmlText         `xml:"id"`
	Description   xmlText         `xml:"description"`
	Status        xmlText         `xml:"status"`
	Stamp         xmlText         `xml:"stamp"`
	Version       xmlText         `xml:"version"`
	Reference     xmlText         `xml:"reference"`
	Language      xmlText         `xml:"language"`
	Content       xmlText         `xml:"content"`
	DeliveryDate  xmlText         `xml:"deliveryDate"`
	Type          xmlText         `xml:"type"`
	Algorithm     xmlText         `xml:"algorithm"`
	PaymentUrl    xmlText         `xml:"paymentURL"`
	FirstName     xmlText         `xml:"firstname"`
	LastName      xmlText         `xml:"lastname"`
	CustomerEmail xmlText         `xml:"customerEmail"`
	Address       xmlText         `xml:"address"`
	PostCode      xmlText         `xml:"postcode"`
	PostOffice    xmlText         `xml:"postoffice"`
	Country       xmlText         `xml:"country"`
	ReturnUrl     xmlText         `xml:"returnURL"`
	ReturnMac     xmlText         `xml:"returnMAC"`
	CancelUrl     xmlText         `xml:"cancelURL"`
	CancelMac     xmlText         `xml:"cancelMAC"`
	RejectUrl     xmlText         `xml:"rejectURL"`
	RejectMac     xmlText         `xml:"rejectMAC"`
	DelayedUrl    xmlText         `xml:"delayedURL"`
	DelayedMac    xmlText         `xml:"delayedMAC"`
	Merchant      []tradeMerchant `xml:"merchant"`
	Payments      []tradePayments `xml:"payments"`
}

type tradeMerchant struct {
	Id             xmlText `xml:"id"`
	Company        xmlText `xml:"company"`
	VatId          xmlText `xml:"vatId"`
	Name           xmlText `xml:"name"`
	Email          xmlText `xml:"email"`
	HelpdeskNumber xmlText `xml:"helpdeskNumber"`
}

type tradePayments struct {
	Payment []tradePayment `xml:"payment"`
}

type tradePayment struct {
	Id     xmlText      `xml:"id"`
	Amount xmlText      `xml:"amount"`
	Stamp  xmlText      `xml:"stamp"`
	Banks  []tradeBanks `xml:"banks"`
}

type tradeBanks struct {
	Providers []providerNode `xml:",any"`
}

type providerNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr  `xml:",any,attr"`
	Fields  []fieldNode `xml:",any"`
}

type fieldNode struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// NormalizePaymentWall turns the gateway reply of an open payment into a PaymentWall.
// Known error bodies and unparsable replies are returned as client errors carrying the raw body.
func NormalizePaymentWall(body []byte) (*entity.PaymentWall, error) {
	if clientError := disguisedError(body); clientError != nil {
		return nil, clientError
	}

	var document tradeDocument
	if err := decodeXml(body, &document); err != nil {
		return nil, ErrLegacyGateway(fmt.Sprintf("%v; %s", err, body))
	}
	if document.XMLName.Local != "trade" {
		return nil, ErrLegacyGateway(fmt.Sprintf("unexpected root element %q; %s", document.XMLName.Local, body))
	}

	wall := &entity.PaymentWall{
		Payment:  collectPayment(&document),
		Merchant: collectMerchant(document.Merchant),
		Buttons:  collectButtons(document.Payments),
	}
	return wall, nil
}

// disguisedError recognizes failures the gateway reports with HTTP 200.
func disguisedError(body []byte) *entity.ClientError {
	text := strings.TrimSpace(string(trimBom(body)))
	for _, literal := range emptyPostErrors {
		if text == literal {
			return ErrLegacyGateway(text)
		}
	}
	if strings.Contains(text, creationFailedMarker) {
		return ErrLegacyOverlay(text)
	}
	if text != "" && !strings.HasPrefix(text, "<") {
		return ErrLegacyOverlay(text)
	}
	return nil
}

func decodeXml(body []byte, document interface{}) error {
	decoder := xml.NewDecoder(bytes.NewReader(trimBom(body)))
	decoder.CharsetReader = xmlCharset
	return decoder.Decode(document)
}

var utf8Bom = []byte("\xef\xbb\xbf")

// trimBom drops a leading UTF-8 byte order mark, optionally preceded by whitespace.
func trimBom(body []byte) []byte {
	return bytes.TrimPrefix(bytes.TrimLeft(body, " \t\r\n"), utf8Bom)
}

// xmlCharset decodes the single byte charsets the gateway has been seen to declare.
func xmlCharset(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "latin1", "iso8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

func collectPayment(document *tradeDocument) entity.WallPayment {
	return entity.WallPayment{
		Id:           document.Id.String(),
		Description:  document.Description.String(),
		Status:       document.Status.String(),
		Stamp:        document.Stamp.String(),
		Version:      document.Version.Or(defaultTradeVersion),
		Reference:    document.Reference.String(),
		Language:     document.Language.String(),
		Content:      document.Content.String(),
		DeliveryDate: document.DeliveryDate.String(),
		Type:         document.Type.Or(defaultTradeType),
		Algorithm:    document.Algorithm.String(),
		PaymentUrl:   document.PaymentUrl.String(),
		Customer: entity.WallCustomer{
			FirstName: document.FirstName.String(),
			LastName:  document.LastName.String(),
			Email:     document.CustomerEmail.String(),
		},
		Delivery: entity.WallDelivery{
			StreetAddress: document.Address.String(),
			PostalCode:    document.PostCode.String(),
			City:          document.PostOffice.String(),
			Country:       document.Country.String(),
		},
		Redirect: entity.WallRedirect{
			ReturnUrl:  document.ReturnUrl.String(),
			ReturnMac:  document.ReturnMac.String(),
			CancelUrl:  document.CancelUrl.String(),
			CancelMac:  document.CancelMac.String(),
			RejectUrl:  document.RejectUrl.String(),
			RejectMac:  document.RejectMac.String(),
			DelayedUrl: document.DelayedUrl.String(),
			DelayedMac: document.DelayedMac.String(),
		},
	}
}

func collectMerchant(merchants []tradeMerchant) entity.WallMerchant {
	if len(merchants) == 0 {
		return entity.WallMerchant{}
	}
	merchant := merchants[0]
	return entity.WallMerchant{
		Id:      merchant.Id.String(),
		Company: merchant.Company.String(),
		VatId:   merchant.VatId.String(),
		Name:    merchant.Name.String(),
		Email:   merchant.Email.String(),
		Phone:   merchant.HelpdeskNumber.String(),
	}
}

// collectButtons reads the first payments/payment block; every provider node under banks
// becomes one button.
func collectButtons(payments []tradePayments) entity.WallButtons {
	buttons := entity.WallButtons{List: []entity.PaymentButton{}}
	if len(payments) == 0 || len(payments[0].Payment) == 0 {
		return buttons
	}
	payment := payments[0].Payment[0]
	buttons.Amount = payment.Amount.String()
	buttons.Stamp = payment.Stamp.String()
	buttons.Id = payment.Id.String()
	if len(payment.Banks) == 0 {
		return buttons
	}
	for _, provider := range payment.Banks[0].Providers {
		buttons.List = append(buttons.List, providerButton(provider))
	}
	return buttons
}

func providerButton(provider providerNode) entity.PaymentButton {
	button := entity.PaymentButton{
		Method: buttonMethod,
		Fields: []entity.HiddenField{},
	}
	for _, attr := range provider.Attrs {
		switch attr.Name.Local {
		case "name":
			button.Name = attr.Value
		case "url":
			button.Action = attr.Value
		case "icon":
			button.Icon = attr.Value
		}
	}
	for _, attr := range provider.Attrs {
		if providerMetadata[attr.Name.Local] {
			continue
		}
		button.Fields = append(button.Fields, entity.HiddenField{Name: attr.Name.Local, Value: attr.Value})
	}
	for _, field := range provider.Fields {
		button.Fields = append(button.Fields, entity.HiddenField{
			Name:  field.XMLName.Local,
			Value: strings.TrimSpace(field.Value),
		})
	}
	if button.Name == "" {
		button.Name = provider.XMLName.Local
	}
	button.Group = string(SelectGroup(button.Name))
	return button
}

// pollDocument is the poll reply, <trade><status/></trade>.
type pollDocument struct {
	XMLName xml.Name
	Status  xmlText `xml:"status"`
}

// NormalizePoll reads the status from a poll reply.
func NormalizePoll(poll *entity.Poll, body []byte) (*entity.PollResult, error) {
	if clientError := disguisedError(body); clientError != nil {
		return nil, clientError
	}
	var document pollDocument
	if err := decodeXml(body, &document); err != nil {
		return nil, ErrLegacyGateway(fmt.Sprintf("%v; %s", err, body))
	}
	if !document.Status.set {
		return nil, ErrLegacyGateway(fmt.Sprintf("poll status missing; %s", body))
	}
	return &entity.PollResult{
		Stamp:     poll.Stamp,
		Reference: poll.Reference,
		Status:    document.Status.String(),
		Raw:       string(body),
	}, nil
}

// refundDocument is the refund reply. The gateway wraps the response in <checkout> but a bare
// <response> root is also seen.
type refundDocument struct {
	XMLName    xml.Name
	StatusCode xmlText `xml:"statusCode"`
	StatusText xmlText `xml:"statusText"`
	Response   struct {
		StatusCode xmlText `xml:"statusCode"`
		StatusText xmlText `xml:"statusText"`
	} `xml:"response"`
}

// NormalizeRefund reads the status of a refund reply. A reply without a status code is a gateway error.
func NormalizeRefund(body []byte) (*entity.RefundResult, error) {
	if clientError := disguisedError(body); clientError != nil {
		return nil, clientError
	}
	var document refundDocument
	if err := decodeXml(body, &document); err != nil {
		return nil, ErrLegacyGateway(fmt.Sprintf("%v; %s", err, body))
	}

	code, text := document.Response.StatusCode, document.Response.StatusText
	switch document.XMLName.Local {
	case "checkout":
	case "response":
		code, text = document.StatusCode, document.StatusText
	default:
		return nil, ErrLegacyGateway(fmt.Sprintf("unexpected root element %q; %s", document.XMLName.Local, body))
	}
	if !code.set {
		return nil, ErrLegacyGateway(fmt.Sprintf("refund status missing; %s", body))
	}
	return &entity.RefundResult{
		StatusCode: code.String(),
		StatusText: text.String(),
		Raw:        string(body),
	}, nil
}
