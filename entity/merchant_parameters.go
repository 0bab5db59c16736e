package entity

// MerchantParameters are the legacy gateway credentials of one merchant.
type MerchantParameters struct {
	MerchantId string `json:"merchant_id" bson:"merchant_id" yaml:"id"`
	Secret     string `json:"secret" bson:"secret" yaml:"secret"`
	// Aggregator is the merchant id used for shop-in-shop payments, defaults to MerchantId
	Aggregator string `json:"aggregator,omitempty" bson:"aggregator,omitempty" yaml:"aggregator"`
	Disabled   bool   `json:"disabled" bson:"disabled" yaml:"disabled"`
}

func (m *MerchantParameters) AggregatorId() string {
	if m.Aggregator != "" {
		return m.Aggregator
	}
	return m.MerchantId
}
