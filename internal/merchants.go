package internal

import (
	"context"
	"fmt"
	"overlay/entity"
	"overlay/services"
)

// StaticMerchants serves merchants declared in the configuration.
type StaticMerchants struct {
	merchants map[string]entity.MerchantParameters
}

func NewStaticMerchants(merchants []entity.MerchantParameters) *StaticMerchants {
	index := make(map[string]entity.MerchantParameters, len(merchants))
	for _, merchant := range merchants {
		if merchant.MerchantId == "" {
			continue
		}
		index[merchant.MerchantId] = merchant
	}
	return &StaticMerchants{merchants: index}
}

func (s *StaticMerchants) GetMerchant(_ context.Context, merchantId string) (*entity.MerchantParameters, error) {
	merchant, ok := s.merchants[merchantId]
	if !ok {
		return nil, nil
	}
	return &merchant, nil
}

// MerchantChain asks each store in turn and returns the first merchant found.
type MerchantChain []services.MerchantStore

func (c MerchantChain) GetMerchant(ctx context.Context, merchantId string) (*entity.MerchantParameters, error) {
	for _, store := range c {
		merchant, err := store.GetMerchant(ctx, merchantId)
		if err != nil {
			return nil, fmt.Errorf("get merchant %s: %w", merchantId, err)
		}
		if merchant != nil {
			return merchant, nil
		}
	}
	return nil, nil
}
