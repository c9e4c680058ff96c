package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"webpay/config"
	"webpay/entity"
	"webpay/services"
)

const (
	transactionsPath = "/rswebpaytransaction/api/webpay/v1.2/transactions"

	headerApiKeyId     = "Tbk-Api-Key-Id"
	headerApiKeySecret = "Tbk-Api-Key-Secret"

	maxResponseSize = 1 << 20

	messageIncomplete = "incomplete response from gateway"
)

// Transbank is the Webpay Plus REST client. It performs exactly one round trip per call.
type Transbank struct {
	requestUrl   string
	commerceCode string
	apiKey       string
	httpClient   *http.Client
	logger       services.LogHandler
}

func NewTransbank(conf *config.Config) *Transbank {
	return &Transbank{
		requestUrl:   conf.GatewayURL(),
		commerceCode: conf.Transbank.CommerceCode,
		apiKey:       conf.Transbank.ApiKey,
		httpClient:   NewHTTPClient(GatewayClientConfig(), 30*time.Second),
	}
}

func (t *Transbank) SetLogger(logger services.LogHandler) {
	t.logger = logger
}

func (t *Transbank) SetHTTPClient(client *http.Client) {
	t.httpClient = client
}

// CreateTransaction opens a transaction and returns the token and hosted page url.
func (t *Transbank) CreateTransaction(ctx context.Context, buyOrder, sessionId string, amount int64, returnUrl string) (*entity.GatewayTransaction, error) {
	body := entity.CreateRequest{
		BuyOrder:  buyOrder,
		SessionId: sessionId,
		Amount:    amount,
		ReturnUrl: returnUrl,
	}

	var transaction entity.GatewayTransaction
	if err := t.do(ctx, http.MethodPost, transactionsPath, &body, &transaction, entity.ErrGatewayCreate); err != nil {
		return nil, err
	}
	if transaction.Token == "" || transaction.Url == "" {
		return nil, &entity.GatewayError{Kind: entity.ErrGatewayCreate, Message: messageIncomplete}
	}
	return &transaction, nil
}

// ConfirmTransaction commits the transaction identified by token. Webpay Plus accepts
// this once per token; later calls are answered with an error.
func (t *Transbank) ConfirmTransaction(ctx context.Context, token string) (*entity.ConfirmResponse, error) {
	path := fmt.Sprintf("%s/%s", transactionsPath, url.PathEscape(token))

	var response entity.ConfirmResponse
	if err := t.do(ctx, http.MethodPut, path, nil, &response, entity.ErrGatewayCommit); err != nil {
		return nil, err
	}
	if !response.HasOutcome() {
		return nil, &entity.GatewayError{Kind: entity.ErrGatewayCommit, Message: messageIncomplete}
	}
	return &response, nil
}

func (t *Transbank) do(ctx context.Context, method, path string, in, out interface{}, kind error) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &entity.GatewayError{Kind: kind, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.requestUrl+path, reader)
	if err != nil {
		return &entity.GatewayError{Kind: kind, Err: fmt.Errorf("create http request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerApiKeyId, t.commerceCode)
	req.Header.Set(headerApiKeySecret, t.apiKey)

	response, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("request timeout or cancelled: %w", ctx.Err())
		}
		return &entity.GatewayError{Kind: kind, Err: err}
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			t.debugError("close response body", err)
		}
	}(response.Body)

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return &entity.GatewayError{Kind: kind, Err: fmt.Errorf("read response body: %w", err)}
	}
	t.debug(fmt.Sprintf("%s %s: status %d", method, secretPath(path), response.StatusCode))

	if response.StatusCode < 200 || response.StatusCode > 299 {
		var errorResponse entity.ErrorResponse
		if e := json.Unmarshal(body, &errorResponse); e != nil || errorResponse.Message == "" {
			errorResponse.Message = http.StatusText(response.StatusCode)
		}
		return &entity.GatewayError{Kind: kind, StatusCode: response.StatusCode, Message: errorResponse.Message}
	}

	if err = json.Unmarshal(body, out); err != nil {
		return &entity.GatewayError{Kind: kind, Err: fmt.Errorf("parse response: %w", err)}
	}
	return nil
}

func (t *Transbank) debug(text string) {
	if t.logger != nil {
		t.logger.Debug(text)
	}
}

func (t *Transbank) debugError(text string, err error) {
	if t.logger != nil {
		t.logger.Error(text, err)
	}
}

// secretPath masks the token segment of a commit path.
func secretPath(path string) string {
	if len(path) > len(transactionsPath)+1 {
		return transactionsPath + "/" + secret(path[len(transactionsPath)+1:])
	}
	return path
}
