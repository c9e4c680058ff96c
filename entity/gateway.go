package entity

// CreateRequest is the Webpay Plus body for opening a transaction.
type CreateRequest struct {
	BuyOrder  string `json:"buy_order"`
	SessionId string `json:"session_id"`
	Amount    int64  `json:"amount"`
	ReturnUrl string `json:"return_url"`
}

// GatewayTransaction holds the handle issued by the gateway at creation.
type GatewayTransaction struct {
	Token string `json:"token"`
	Url   string `json:"url"`
}

type GatewayCardDetail struct {
	CardNumber *string `json:"card_number"`
}

// ConfirmResponse is the gateway answer to a commit. Only ResponseCode, Amount,
// BuyOrder and SessionId are always present; the rest depends on the payment method.
// ResponseCode is a pointer so that an answer without an outcome is never read as approval.
type ConfirmResponse struct {
	Vci                *string            `json:"vci"`
	Amount             int64              `json:"amount"`
	Status             *string            `json:"status"`
	BuyOrder           string             `json:"buy_order"`
	SessionId          string             `json:"session_id"`
	CardDetail         *GatewayCardDetail `json:"card_detail"`
	AccountingDate     *string            `json:"accounting_date"`
	TransactionDate    *string            `json:"transaction_date"`
	AuthorizationCode  *string            `json:"authorization_code"`
	PaymentTypeCode    *string            `json:"payment_type_code"`
	ResponseCode       *int               `json:"response_code"`
	InstallmentsNumber *int               `json:"installments_number"`
}

// Approved is the single place where approval is decided.
func (r *ConfirmResponse) Approved() bool {
	return r.ResponseCode != nil && *r.ResponseCode == 0
}

// HasOutcome reports whether the gateway stated a response code.
func (r *ConfirmResponse) HasOutcome() bool {
	return r != nil && r.ResponseCode != nil
}

// Code is the response code, or -1 when the gateway stated none.
func (r *ConfirmResponse) Code() int {
	if r.ResponseCode == nil {
		return -1
	}
	return *r.ResponseCode
}

// ErrorResponse is the body Webpay Plus sends with non-2xx statuses.
type ErrorResponse struct {
	Message string `json:"error_message"`
}
