package internal

import (
	"context"
	"errors"
	"fmt"
	"time"
	"webpay/entity"
	"webpay/services"

	"go.uber.org/zap"
)

const eventWriteTimeout = 5 * time.Second

// Payments drives the Webpay Plus transaction lifecycle. It keeps no per-transaction
// state: the gateway is the only record of a transaction's outcome, so Status after
// Commit depends on the gateway still answering for the token.
type Payments struct {
	gateway  services.Gateway
	database services.Database
	logger   services.LogHandler
}

func NewPayments(gateway services.Gateway) *Payments {
	return &Payments{
		gateway: gateway,
		logger:  newLogger(zap.NewNop(), "payments", nil),
	}
}

func (p *Payments) SetDatabase(database services.Database) {
	p.database = database
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
}

// Create opens a gateway transaction. The result echoes the merchant buy order and
// amount, not the truncated values the gateway stored.
func (p *Payments) Create(ctx context.Context, request *entity.TransactionRequest) (*entity.CreateResult, error) {
	reqID := GetRequestID(ctx)
	p.logger.Info(fmt.Sprintf("[%s] create transaction: buy order %s (sent %s); session %s; amount %d; return url %s",
		reqID, request.BuyOrder, request.GatewayBuyOrder, request.SessionId, request.Amount, request.ReturnUrl))

	event := &entity.TransactionEvent{
		RequestId: reqID,
		Operation: operationCreate,
		BuyOrder:  request.GatewayBuyOrder,
		SessionId: request.SessionId,
		Amount:    request.Amount,
	}

	start := time.Now()
	transaction, err := p.gateway.CreateTransaction(ctx, request.GatewayBuyOrder, request.SessionId, request.Amount, request.ReturnUrl)
	observeGateway(operationCreate, start, err)
	if err != nil {
		gatewayErr := asGatewayError(err, entity.ErrGatewayCreate)
		p.logger.Error(fmt.Sprintf("[%s] create transaction %s", reqID, request.BuyOrder), gatewayErr)
		event.Error = gatewayErr.Details()
		p.record(ctx, event, entity.StateError)
		return nil, gatewayErr
	}

	p.logger.Info(fmt.Sprintf("[%s] transaction created: token %s; url %s", reqID, secret(transaction.Token), transaction.Url))
	event.Token = secret(transaction.Token)
	p.record(ctx, event, entity.StateCreated)

	return &entity.CreateResult{
		Success:  true,
		Url:      transaction.Url,
		Token:    transaction.Token,
		BuyOrder: request.BuyOrder,
		Amount:   request.Amount,
	}, nil
}

// Commit confirms the transaction. A declined payment is a successful call with
// Success false; only a failed gateway call returns an error.
func (p *Payments) Commit(ctx context.Context, token string) (*entity.CommitResult, error) {
	if token == "" {
		return nil, entity.NewValidationError(entity.ErrMissingToken)
	}
	reqID := GetRequestID(ctx)
	p.logger.Info(fmt.Sprintf("[%s] commit transaction: token %s", reqID, secret(token)))

	event := &entity.TransactionEvent{
		RequestId: reqID,
		Operation: operationCommit,
		Token:     secret(token),
	}
	p.record(ctx, event, entity.StateCommitPending)

	response, err := p.confirm(ctx, operationCommit, token)
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] commit transaction %s", reqID, secret(token)), err)
		event.Error = err.Details()
		p.record(ctx, event, entity.StateError)
		return nil, err
	}

	authorizationCode := "N/A"
	if response.AuthorizationCode != nil {
		authorizationCode = *response.AuthorizationCode
	}
	p.logger.Info(fmt.Sprintf("[%s] transaction committed: response code %d; authorization code %s; amount %d; buy order %s",
		reqID, response.Code(), authorizationCode, response.Amount, response.BuyOrder))

	result := normalize(response)
	if result.Success {
		p.logger.Info(fmt.Sprintf("[%s] payment approved", reqID))
	} else {
		p.logger.Warn(fmt.Sprintf("[%s] payment rejected with code %d", reqID, response.Code()))
	}

	p.recordOutcome(ctx, event, response)
	return result, nil
}

// Status reads the outcome through the gateway confirm operation, the only one that
// reveals it. Nothing is cached, so a token already consumed by Commit may be refused
// by the gateway and reported as a commit failure.
func (p *Payments) Status(ctx context.Context, token string) (*entity.StatusResult, error) {
	if token == "" {
		return nil, entity.NewValidationError(entity.ErrMissingToken)
	}
	reqID := GetRequestID(ctx)
	p.logger.Debug(fmt.Sprintf("[%s] transaction status: token %s", reqID, secret(token)))

	event := &entity.TransactionEvent{
		RequestId: reqID,
		Operation: operationStatus,
		Token:     secret(token),
	}

	response, err := p.confirm(ctx, operationStatus, token)
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] transaction status %s", reqID, secret(token)), err)
		event.Error = err.Details()
		p.record(ctx, event, entity.StateError)
		return nil, err
	}

	status := entity.StatusRejected
	if response.Approved() {
		status = entity.StatusApproved
	}

	p.recordOutcome(ctx, event, response)
	return &entity.StatusResult{
		Success:           response.Approved(),
		ResponseCode:      response.Code(),
		AuthorizationCode: response.AuthorizationCode,
		Amount:            response.Amount,
		BuyOrder:          response.BuyOrder,
		Status:            status,
	}, nil
}

func (p *Payments) confirm(ctx context.Context, operation, token string) (*entity.ConfirmResponse, *entity.GatewayError) {
	start := time.Now()
	response, err := p.gateway.ConfirmTransaction(ctx, token)
	observeGateway(operation, start, err)
	if err != nil {
		return nil, asGatewayError(err, entity.ErrGatewayCommit)
	}
	if !response.HasOutcome() {
		return nil, &entity.GatewayError{Kind: entity.ErrGatewayCommit, Message: messageIncomplete}
	}
	return response, nil
}

// normalize maps the gateway answer to the merchant result. Only response code, amount,
// buy order and session id are assumed present.
func normalize(response *entity.ConfirmResponse) *entity.CommitResult {
	result := &entity.CommitResult{
		Success:            response.Approved(),
		Vci:                response.Vci,
		Amount:             response.Amount,
		Status:             response.Status,
		BuyOrder:           response.BuyOrder,
		SessionId:          response.SessionId,
		AccountingDate:     response.AccountingDate,
		TransactionDate:    response.TransactionDate,
		AuthorizationCode:  response.AuthorizationCode,
		PaymentTypeCode:    response.PaymentTypeCode,
		ResponseCode:       response.Code(),
		InstallmentsNumber: response.InstallmentsNumber,
		Message:            entity.MessageRejected,
	}
	if response.CardDetail != nil {
		result.CardDetail.CardNumber = response.CardDetail.CardNumber
	}
	if result.Success {
		result.Message = entity.MessageApproved
	}
	return result
}

func (p *Payments) recordOutcome(ctx context.Context, event *entity.TransactionEvent, response *entity.ConfirmResponse) {
	code := response.Code()
	event.ResponseCode = &code
	event.BuyOrder = response.BuyOrder
	event.SessionId = response.SessionId
	event.Amount = response.Amount
	p.record(ctx, event, entity.StateOf(code))
}

// record counts the state and appends it to the event journal when one is configured.
func (p *Payments) record(ctx context.Context, event *entity.TransactionEvent, state entity.TransactionState) {
	observeState(state)
	if p.database == nil {
		return
	}
	event.State = state
	event.Time = time.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventWriteTimeout)
	defer cancel()
	if err := p.database.WriteTransactionEvent(ctx, event); err != nil {
		p.logger.Warn(fmt.Sprintf("[%s] write transaction event %s: %v", event.RequestId, state, err))
	}
}

// asGatewayError classifies any gateway failure under kind.
func asGatewayError(err error, kind error) *entity.GatewayError {
	var gatewayErr *entity.GatewayError
	if errors.As(err, &gatewayErr) {
		return gatewayErr.WithKind(kind)
	}
	return &entity.GatewayError{Kind: kind, Err: err}
}
