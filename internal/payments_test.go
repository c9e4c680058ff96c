package internal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"webpay/entity"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupPayments() (*Payments, *scriptedGateway, *memoryDatabase) {
	gateway := newScriptedGateway()
	database := &memoryDatabase{}
	payments := NewPayments(gateway)
	payments.SetLogger(newLogger(zap.NewNop(), "payments", nil))
	payments.SetDatabase(database)
	return payments, gateway, database
}

func approvedResponse() *entity.ConfirmResponse {
	return &entity.ConfirmResponse{
		Vci:                strPtr("TSY"),
		Amount:             10000,
		Status:             strPtr("AUTHORIZED"),
		BuyOrder:           "ORDER-12345",
		SessionId:          "s1",
		CardDetail:         &entity.GatewayCardDetail{CardNumber: strPtr("6623")},
		AuthorizationCode:  strPtr("AC1"),
		PaymentTypeCode:    strPtr("VN"),
		ResponseCode:       intPtr(0),
		InstallmentsNumber: intPtr(0),
	}
}

func TestPayments_Create(t *testing.T) {
	payments, gateway, database := setupPayments()
	gateway.transaction = &entity.GatewayTransaction{Token: "T1", Url: "https://gw/pay"}
	longBuyOrder := "ORDER-" + strings.Repeat("7", 30)

	request := &entity.TransactionRequest{
		OrderId:         "o1",
		Amount:          10000,
		BuyOrder:        longBuyOrder,
		GatewayBuyOrder: longBuyOrder[:26],
		SessionId:       "session_o1_1",
		ReturnUrl:       "https://shop.cl/return",
	}

	result, err := payments.Create(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, &entity.CreateResult{
		Success:  true,
		Url:      "https://gw/pay",
		Token:    "T1",
		BuyOrder: longBuyOrder,
		Amount:   10000,
	}, result)

	require.Len(t, gateway.createCalls, 1)
	assert.Equal(t, longBuyOrder[:26], gateway.createCalls[0].BuyOrder)
	assert.Equal(t, "session_o1_1", gateway.createCalls[0].SessionId)
	assert.Equal(t, int64(10000), gateway.createCalls[0].Amount)
	assert.Equal(t, "https://shop.cl/return", gateway.createCalls[0].ReturnUrl)

	assert.Equal(t, []entity.TransactionState{entity.StateCreated}, database.states())
	assert.Equal(t, "***", database.events[0].Token)
}

func TestPayments_Create_GatewayFailure(t *testing.T) {
	payments, gateway, database := setupPayments()
	gateway.createErr = errors.New("dial tcp: connection refused")

	_, err := payments.Create(context.Background(), &entity.TransactionRequest{BuyOrder: "B", GatewayBuyOrder: "B", Amount: 1})
	require.ErrorIs(t, err, entity.ErrGatewayCreate)

	var gatewayErr *entity.GatewayError
	require.True(t, errors.As(err, &gatewayErr))
	assert.Equal(t, "payment gateway unavailable", gatewayErr.Details())
	assert.Equal(t, []entity.TransactionState{entity.StateError}, database.states())
}

func TestPayments_Create_ReclassifiesGatewayError(t *testing.T) {
	payments, gateway, _ := setupPayments()
	gateway.createErr = &entity.GatewayError{Kind: entity.ErrGatewayCommit, StatusCode: 401, Message: "Not Authorized"}

	_, err := payments.Create(context.Background(), &entity.TransactionRequest{BuyOrder: "B", GatewayBuyOrder: "B", Amount: 1})
	assert.ErrorIs(t, err, entity.ErrGatewayCreate)
	assert.NotErrorIs(t, err, entity.ErrGatewayCommit)
}

func TestPayments_Commit_Approved(t *testing.T) {
	payments, gateway, database := setupPayments()
	gateway.confirm["T1"] = approvedResponse()

	result, err := payments.Commit(context.Background(), "T1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ResponseCode)
	assert.Equal(t, entity.MessageApproved, result.Message)
	assert.Equal(t, int64(10000), result.Amount)
	assert.Equal(t, "ORDER-12345", result.BuyOrder)
	assert.Equal(t, "s1", result.SessionId)
	assert.Equal(t, "6623", *result.CardDetail.CardNumber)
	assert.Equal(t, "AC1", *result.AuthorizationCode)
	assert.Equal(t, []string{"T1"}, gateway.confirmCalls)

	assert.Equal(t, []entity.TransactionState{entity.StateCommitPending, entity.StateApproved}, database.states())
	require.NotNil(t, database.events[1].ResponseCode)
	assert.Equal(t, 0, *database.events[1].ResponseCode)
}

func TestPayments_Commit_RejectedIsNotAnError(t *testing.T) {
	payments, gateway, database := setupPayments()
	gateway.confirm["T1"] = &entity.ConfirmResponse{Amount: 10000, BuyOrder: "ORDER-12345", SessionId: "s1", ResponseCode: intPtr(-1)}

	result, err := payments.Commit(context.Background(), "T1")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, -1, result.ResponseCode)
	assert.Equal(t, entity.MessageRejected, result.Message)
	assert.Nil(t, result.CardDetail.CardNumber)
	assert.Nil(t, result.AuthorizationCode)
	assert.Nil(t, result.Vci)
	assert.Nil(t, result.InstallmentsNumber)
	assert.Equal(t, []entity.TransactionState{entity.StateCommitPending, entity.StateRejected}, database.states())
}

func TestPayments_SuccessIffResponseCodeZero(t *testing.T) {
	for _, code := range []int{0, -1, -2, -3, -4, -5, -96, -97, -98, 1, 5} {
		payments, gateway, _ := setupPayments()
		gateway.confirm["commit"] = &entity.ConfirmResponse{ResponseCode: intPtr(code)}
		gateway.confirm["status"] = &entity.ConfirmResponse{ResponseCode: intPtr(code)}

		commit, err := payments.Commit(context.Background(), "commit")
		require.NoError(t, err)
		status, err := payments.Status(context.Background(), "status")
		require.NoError(t, err)

		assert.Equal(t, code == 0, commit.Success, "commit code %d", code)
		assert.Equal(t, code == 0, status.Success, "status code %d", code)
		assert.Equal(t, commit.Success, status.Success)
	}
}

func TestPayments_Commit_MissingToken(t *testing.T) {
	payments, gateway, _ := setupPayments()

	_, err := payments.Commit(context.Background(), "")
	assert.ErrorIs(t, err, entity.ErrMissingToken)
	_, err = payments.Status(context.Background(), "")
	assert.ErrorIs(t, err, entity.ErrMissingToken)
	assert.Empty(t, gateway.confirmCalls)
}

func TestPayments_Commit_GatewayFailure(t *testing.T) {
	payments, gateway, database := setupPayments()
	gateway.confirmErr = errors.New("read: connection reset by peer")

	result, err := payments.Commit(context.Background(), "T1")
	assert.Nil(t, result)
	require.ErrorIs(t, err, entity.ErrGatewayCommit)
	assert.Equal(t, []entity.TransactionState{entity.StateCommitPending, entity.StateError}, database.states())
	assert.Equal(t, "payment gateway unavailable", database.events[1].Error)
}

func TestPayments_ResponseWithoutCodeIsNeverApproved(t *testing.T) {
	payments, gateway, database := setupPayments()
	gateway.confirm["T1"] = &entity.ConfirmResponse{Amount: 1000, BuyOrder: "B1", SessionId: "s1"}

	result, err := payments.Commit(context.Background(), "T1")
	assert.Nil(t, result)
	require.ErrorIs(t, err, entity.ErrGatewayCommit)

	status, err := payments.Status(context.Background(), "T1")
	assert.Nil(t, status)
	require.ErrorIs(t, err, entity.ErrGatewayCommit)

	assert.Equal(t, []entity.TransactionState{entity.StateCommitPending, entity.StateError, entity.StateError}, database.states())
}

func TestPayments_Status(t *testing.T) {
	payments, gateway, _ := setupPayments()
	gateway.confirm["T1"] = approvedResponse()

	status, err := payments.Status(context.Background(), "T1")
	require.NoError(t, err)

	assert.Equal(t, &entity.StatusResult{
		Success:           true,
		ResponseCode:      0,
		AuthorizationCode: strPtr("AC1"),
		Amount:            10000,
		BuyOrder:          "ORDER-12345",
		Status:            entity.StatusApproved,
	}, status)
}

func TestPayments_StatusAfterCommitIsRefused(t *testing.T) {
	payments, gateway, _ := setupPayments()
	gateway.singleUse = true
	gateway.confirm["T1"] = approvedResponse()

	_, err := payments.Commit(context.Background(), "T1")
	require.NoError(t, err)

	_, err = payments.Status(context.Background(), "T1")
	require.ErrorIs(t, err, entity.ErrGatewayCommit)
	assert.Equal(t, []string{"T1", "T1"}, gateway.confirmCalls)
}

func TestPayments_JournalFailureDoesNotFailCommit(t *testing.T) {
	payments, gateway, database := setupPayments()
	database.err = errors.New("mongo down")
	gateway.confirm["T1"] = approvedResponse()

	result, err := payments.Commit(context.Background(), "T1")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestPayments_WithoutDatabase(t *testing.T) {
	gateway := newScriptedGateway()
	gateway.confirm["T1"] = approvedResponse()
	payments := NewPayments(gateway)

	result, err := payments.Commit(context.Background(), "T1")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestPayments_Metrics(t *testing.T) {
	payments, gateway, _ := setupPayments()
	gateway.confirm["T1"] = &entity.ConfirmResponse{ResponseCode: intPtr(-1)}

	rejectedBefore := testutil.ToFloat64(transactionsTotal.WithLabelValues(string(entity.StateRejected)))
	okBefore := testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues(operationCommit, outcomeOK))
	notFoundBefore := testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues(operationStatus, outcomeRejected))

	_, err := payments.Commit(context.Background(), "T1")
	require.NoError(t, err)
	_, err = payments.Status(context.Background(), "unknown")
	require.Error(t, err)

	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(transactionsTotal.WithLabelValues(string(entity.StateRejected))))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues(operationCommit, outcomeOK)))
	assert.Equal(t, notFoundBefore+1, testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues(operationStatus, outcomeRejected)))
}
