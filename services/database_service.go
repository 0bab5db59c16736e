package services

import (
	"context"
	"overlay/entity"
)

// Database is the optional persistent backend: merchant credentials and the operator log.
type Database interface {
	WriteLogMessage(data Data) error
	GetMerchant(ctx context.Context, merchantId string) (*entity.MerchantParameters, error)
}

type Data interface {
	DataType() string
}
