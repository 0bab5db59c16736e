package services

import (
	"context"
	"overlay/entity"
)

// MerchantStore resolves the shared secret of a merchant. A nil result without error means
// the merchant is unknown.
type MerchantStore interface {
	GetMerchant(ctx context.Context, merchantId string) (*entity.MerchantParameters, error)
}
