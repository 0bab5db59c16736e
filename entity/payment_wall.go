package entity

// PaymentWall is the normalized legacy payment wall: payment echo, merchant info and the
// payment method buttons the client renders.
type PaymentWall struct {
	Payment  WallPayment  `json:"payment"`
	Merchant WallMerchant `json:"merchant"`
	Buttons  WallButtons  `json:"buttons"`
}

type WallPayment struct {
	Id           string       `json:"id"`
	Description  string       `json:"description"`
	Status       string       `json:"status"`
	Stamp        string       `json:"stamp"`
	Version      string       `json:"version"`
	Reference    string       `json:"reference"`
	Language     string       `json:"language"`
	Content      string       `json:"content"`
	DeliveryDate string       `json:"deliveryDate"`
	Type         string       `json:"type"`
	Algorithm    string       `json:"algorithm"`
	PaymentUrl   string       `json:"paymentUrl"`
	Customer     WallCustomer `json:"customer"`
	Delivery     WallDelivery `json:"delivery"`
	Redirect     WallRedirect `json:"redirect"`
}

type WallCustomer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type WallDelivery struct {
	StreetAddress string `json:"streetAddress"`
	PostalCode    string `json:"postalCode"`
	City          string `json:"city"`
	Country       string `json:"country"`
}

type WallRedirect struct {
	ReturnUrl  string `json:"returnUrl"`
	ReturnMac  string `json:"returnMac"`
	CancelUrl  string `json:"cancelUrl"`
	CancelMac  string `json:"cancelMac"`
	RejectUrl  string `json:"rejectUrl"`
	RejectMac  string `json:"rejectMac"`
	DelayedUrl string `json:"delayedUrl"`
	DelayedMac string `json:"delayedMac"`
}

type WallMerchant struct {
	Id      string `json:"id"`
	Company string `json:"company"`
	VatId   string `json:"vatId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type WallButtons struct {
	Amount string          `json:"amount"`
	Stamp  string          `json:"stamp"`
	Id     string          `json:"id"`
	List   []PaymentButton `json:"list"`
}

// PaymentButton describes one renderable payment method: a form posting the hidden
// fields to Action.
type PaymentButton struct {
	Name   string        `json:"name"`
	Group  string        `json:"group"`
	Action string        `json:"action"`
	Method string        `json:"method"`
	Fields []HiddenField `json:"fields"`
	Icon   string        `json:"icon"`
}

type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
