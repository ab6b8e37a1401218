package transport

import (
	"encoding/json"

	"github.com/fastygo/dailywork/domain"
)

// Envelope is the body of every API response: {"code", "message", "result"}.
// Faults use the same shape with the fault's status and public message.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

// FromResult wraps a use case outcome, declined ones included.
func FromResult(res domain.Result) Envelope {
	return Envelope{
		Code:    res.Code,
		Message: res.Message,
		Result:  res.Result,
	}
}

// FromError renders a fault without its wrapped cause.
func FromError(err error) Envelope {
	status, _ := domain.StatusOf(err)
	return Envelope{
		Code:    status,
		Message: domain.PublicMessage(err),
	}
}

func NewError(status int, message string) Envelope {
	return Envelope{Code: status, Message: message}
}

// String is the JSON form, for logs.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
