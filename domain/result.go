package domain

import "net/http"

// Result is the uniform envelope every use case operation returns.
// A non-200 Code on a returned Result is a declined outcome, not a fault.
type Result struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

// OK builds a success result.
func OK(message string, payload interface{}) Result {
	return Result{Code: http.StatusOK, Message: message, Result: payload}
}

// Declined builds an expected non-success outcome.
func Declined(code int, message string) Result {
	return Result{Code: code, Message: message}
}

func (r Result) Succeeded() bool {
	return r.Code == http.StatusOK
}
