package services

import (
	"context"
	"webpay/entity"
)

// Gateway is the remote card-payment service. Errors are *entity.GatewayError.
type Gateway interface {
	CreateTransaction(ctx context.Context, buyOrder, sessionId string, amount int64, returnUrl string) (*entity.GatewayTransaction, error)
	ConfirmTransaction(ctx context.Context, token string) (*entity.ConfirmResponse, error)
}
