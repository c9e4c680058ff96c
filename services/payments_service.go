package services

import (
	"context"
	"webpay/entity"
)

// Payments is the transaction lifecycle: create, commit and status.
type Payments interface {
	Create(ctx context.Context, request *entity.TransactionRequest) (*entity.CreateResult, error)
	Commit(ctx context.Context, token string) (*entity.CommitResult, error)
	Status(ctx context.Context, token string) (*entity.StatusResult, error)
}
