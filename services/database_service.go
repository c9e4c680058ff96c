package services

import (
	"context"
)

// Database stores log lines and lifecycle events. It holds no state the facade reads back.
type Database interface {
	WriteLogMessage(ctx context.Context, data Data) error
	WriteTransactionEvent(ctx context.Context, data Data) error
}

type Data interface {
	DataType() string
}
