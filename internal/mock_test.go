package internal

import (
	"context"
	"sync"
	"webpay/entity"
	"webpay/services"
)

// scriptedGateway returns preset answers and records what it was asked.
type scriptedGateway struct {
	mu sync.Mutex

	transaction *entity.GatewayTransaction
	createErr   error
	confirm     map[string]*entity.ConfirmResponse
	confirmErr  error
	consumed    map[string]bool
	singleUse   bool

	createCalls  []entity.CreateRequest
	confirmCalls []string
}

func newScriptedGateway() *scriptedGateway {
	return &scriptedGateway{
		confirm:  make(map[string]*entity.ConfirmResponse),
		consumed: make(map[string]bool),
	}
}

func (g *scriptedGateway) CreateTransaction(_ context.Context, buyOrder, sessionId string, amount int64, returnUrl string) (*entity.GatewayTransaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls = append(g.createCalls, entity.CreateRequest{
		BuyOrder:  buyOrder,
		SessionId: sessionId,
		Amount:    amount,
		ReturnUrl: returnUrl,
	})
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.transaction, nil
}

func (g *scriptedGateway) ConfirmTransaction(_ context.Context, token string) (*entity.ConfirmResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.confirmCalls = append(g.confirmCalls, token)
	if g.confirmErr != nil {
		return nil, g.confirmErr
	}
	if g.singleUse && g.consumed[token] {
		return nil, &entity.GatewayError{Kind: entity.ErrGatewayCommit, StatusCode: 422, Message: "Invalid status 'AUTHORIZED' for transaction while authorizing"}
	}
	response, ok := g.confirm[token]
	if !ok {
		return nil, &entity.GatewayError{Kind: entity.ErrGatewayCommit, StatusCode: 404, Message: "Transaction not found"}
	}
	g.consumed[token] = true
	return response, nil
}

var _ services.Gateway = (*scriptedGateway)(nil)

// memoryDatabase keeps copies of everything written to it.
type memoryDatabase struct {
	mu     sync.Mutex
	logs   []entity.LogMessage
	events []entity.TransactionEvent
	err    error
}

func (d *memoryDatabase) WriteLogMessage(_ context.Context, data services.Data) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if message, ok := data.(*entity.LogMessage); ok {
		d.logs = append(d.logs, *message)
	}
	return d.err
}

func (d *memoryDatabase) WriteTransactionEvent(_ context.Context, data services.Data) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if event, ok := data.(*entity.TransactionEvent); ok {
		d.events = append(d.events, *event)
	}
	return d.err
}

func (d *memoryDatabase) states() []entity.TransactionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	states := make([]entity.TransactionState, 0, len(d.events))
	for _, event := range d.events {
		states = append(states, event.State)
	}
	return states
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}
