// Package entity defines data models for the Webpay Plus payment facade.
package entity

const (
	// MaxBuyOrderLength is the longest buy order Webpay Plus stores.
	MaxBuyOrderLength = 26
	// MaxSessionIdLength is the longest session id Webpay Plus stores.
	MaxSessionIdLength = 61

	MessageApproved = "Pago aprobado exitosamente"
	MessageRejected = "Pago rechazado"

	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// TransactionRequest is a validated merchant request to open a Webpay Plus transaction.
// BuyOrder keeps the merchant value; GatewayBuyOrder and SessionId are already cut
// to the gateway limits.
type TransactionRequest struct {
	OrderId         string
	Amount          int64
	BuyOrder        string
	GatewayBuyOrder string
	SessionId       string
	ReturnUrl       string
}

// CreateResult is returned to the merchant after the gateway issued a token.
// BuyOrder and Amount echo the merchant input, not what the gateway stored.
type CreateResult struct {
	Success  bool   `json:"success"`
	Url      string `json:"url"`
	Token    string `json:"token"`
	BuyOrder string `json:"buyOrder"`
	Amount   int64  `json:"amount"`
}

type CardDetail struct {
	CardNumber *string `json:"cardNumber"`
}

// CommitResult is the normalized outcome of a confirmed transaction.
// Optional gateway fields are rendered as null when the payment method does not provide them.
type CommitResult struct {
	Success            bool       `json:"success"`
	Vci                *string    `json:"vci"`
	Amount             int64      `json:"amount"`
	Status             *string    `json:"status"`
	BuyOrder           string     `json:"buyOrder"`
	SessionId          string     `json:"sessionId"`
	CardDetail         CardDetail `json:"cardDetail"`
	AccountingDate     *string    `json:"accountingDate"`
	TransactionDate    *string    `json:"transactionDate"`
	AuthorizationCode  *string    `json:"authorizationCode"`
	PaymentTypeCode    *string    `json:"paymentTypeCode"`
	ResponseCode       int        `json:"responseCode"`
	InstallmentsNumber *int       `json:"installmentsNumber"`
	Message            string     `json:"message"`
}

// StatusResult is the short summary served by the status lookup.
type StatusResult struct {
	Success           bool    `json:"success"`
	ResponseCode      int     `json:"responseCode"`
	AuthorizationCode *string `json:"authorizationCode"`
	Amount            int64   `json:"amount"`
	BuyOrder          string  `json:"buyOrder"`
	Status            string  `json:"status"`
}

// TransactionState is the lifecycle position of a transaction as observed by the facade.
type TransactionState string

const (
	StateCreated       TransactionState = "CREATED"
	StateCommitPending TransactionState = "COMMIT_PENDING"
	StateApproved      TransactionState = "APPROVED"
	StateRejected      TransactionState = "REJECTED"
	StateError         TransactionState = "ERROR"
)

// StateOf maps a gateway response code to a terminal state.
func StateOf(responseCode int) TransactionState {
	if responseCode == 0 {
		return StateApproved
	}
	return StateRejected
}

// IsTerminal reports whether no further commit can change the outcome.
// ERROR is not terminal: commit may be retried while the gateway still holds the token.
func (s TransactionState) IsTerminal() bool {
	return s == StateApproved || s == StateRejected
}
