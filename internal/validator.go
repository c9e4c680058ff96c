package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"webpay/entity"

	"github.com/shopspring/decimal"
)

const returnPath = "/checkout/webpay/return"

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Validator turns untyped merchant bodies into gateway-ready requests.
type Validator struct {
	returnUrl string
	now       func() time.Time
}

func NewValidator(baseUrl string) *Validator {
	return &Validator{
		returnUrl: strings.TrimRight(baseUrl, "/") + returnPath,
		now:       time.Now,
	}
}

// TransactionRequest checks orderId, amount and buyOrder and cuts buy order and
// session id to the gateway limits. Cutting is silent and keeps the leftmost characters.
func (v *Validator) TransactionRequest(body []byte) (*entity.TransactionRequest, error) {
	data, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	orderId := stringValue(data["orderId"])
	buyOrder := stringValue(data["buyOrder"])

	var missing []string
	if orderId == "" {
		missing = append(missing, "orderId")
	}
	if isEmpty(data["amount"]) {
		missing = append(missing, "amount")
	}
	if buyOrder == "" {
		missing = append(missing, "buyOrder")
	}
	if len(missing) > 0 {
		return nil, entity.NewValidationError(entity.ErrMissingFields, missing...)
	}

	amount, err := parseAmount(data["amount"])
	if err != nil {
		return nil, err
	}

	returnUrl := stringValue(data["returnUrl"])
	if returnUrl == "" {
		returnUrl = v.returnUrl
	}

	sessionId := fmt.Sprintf("session_%s_%s", orderId, timestamp(v.now()))

	return &entity.TransactionRequest{
		OrderId:         orderId,
		Amount:          amount,
		BuyOrder:        buyOrder,
		GatewayBuyOrder: truncate(buyOrder, entity.MaxBuyOrderLength),
		SessionId:       truncate(sessionId, entity.MaxSessionIdLength),
		ReturnUrl:       returnUrl,
	}, nil
}

// CommitToken reads the token from a commit body.
func (v *Validator) CommitToken(body []byte) (string, error) {
	data, err := decodeObject(body)
	if err != nil {
		return "", err
	}
	return v.Token(stringValue(data["token"]))
}

func (v *Validator) Token(token string) (string, error) {
	if token == "" {
		return "", entity.NewValidationError(entity.ErrMissingToken)
	}
	return token, nil
}

func decodeObject(body []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var data map[string]interface{}
	if err := decoder.Decode(&data); err != nil || len(data) == 0 {
		return nil, entity.NewValidationError(entity.ErrNoData)
	}
	return data, nil
}

func parseAmount(value interface{}) (int64, error) {
	invalid := func(reason string) error {
		e := entity.NewValidationError(entity.ErrInvalidAmount)
		e.Reason = reason
		return e
	}

	switch v := value.(type) {
	case json.Number:
		// integral numbers such as 1500.0 are accepted
		amount, err := decimal.NewFromString(v.String())
		if err != nil {
			return 0, invalid(fmt.Sprintf("not a number: %s", v))
		}
		if !amount.IsInteger() {
			return 0, invalid("fractional value")
		}
		if amount.Sign() <= 0 {
			return 0, invalid("must be positive")
		}
		if amount.GreaterThan(maxAmount) {
			return 0, invalid("out of range")
		}
		return amount.IntPart(), nil
	case string:
		// text must be a plain base 10 integer: no fraction, no exponent
		amount, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, invalid(fmt.Sprintf("not an integer: %q", v))
		}
		if amount <= 0 {
			return 0, invalid("must be positive")
		}
		return amount, nil
	default:
		return 0, invalid(fmt.Sprintf("unsupported type %T", value))
	}
}

// isEmpty treats null, "", false, {} and [] as absent.
func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case map[string]interface{}:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	default:
		return false
	}
}

// stringValue reads a scalar identifier; booleans, objects and arrays yield "".
func stringValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// timestamp renders seconds since epoch with microsecond fraction, e.g. 1729260000.123456
func timestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', -1, 64)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
