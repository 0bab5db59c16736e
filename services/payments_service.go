package services

import (
	"context"
	"overlay/entity"
)

type Payments interface {
	OpenPayment(ctx context.Context, request *entity.PaymentRequest) (*entity.PaymentWall, error)
	OpenShopInShop(ctx context.Context, request *entity.PaymentRequest) (*entity.PaymentWall, error)
	Poll(ctx context.Context, request *entity.PaymentRequest) (*entity.PollResult, error)
	Refund(ctx context.Context, request *entity.PaymentRequest) (*entity.RefundResult, error)
}
