package entity

import "time"

// LogMessage is a log line stored in the payment_log collection.
type LogMessage struct {
	Time     time.Time `json:"time" bson:"time"`
	Level    string    `json:"level" bson:"level"`
	Category string    `json:"category" bson:"category"`
	Text     string    `json:"text" bson:"text"`
	Error    string    `json:"error,omitempty" bson:"error,omitempty"`
}

func (m *LogMessage) DataType() string {
	return "log"
}

// TransactionEvent records one lifecycle transition. It is an audit trail only and is
// never read back to answer a status request.
type TransactionEvent struct {
	Time         time.Time        `json:"time" bson:"time"`
	RequestId    string           `json:"request_id" bson:"request_id"`
	Operation    string           `json:"operation" bson:"operation"`
	Token        string           `json:"token" bson:"token"`
	BuyOrder     string           `json:"buy_order" bson:"buy_order"`
	SessionId    string           `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Amount       int64            `json:"amount" bson:"amount"`
	State        TransactionState `json:"state" bson:"state"`
	ResponseCode *int             `json:"response_code,omitempty" bson:"response_code,omitempty"`
	Error        string           `json:"error,omitempty" bson:"error,omitempty"`
}

func (e *TransactionEvent) DataType() string {
	return "transaction_event"
}
