package service

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrMissingCredentials = errors.New("binance api key/secret not configured")
	ErrMalformedKline     = errors.New("malformed kline row")
)

// APIError - тело ошибки binance: {"code":-1121,"msg":"Invalid symbol."}
type APIError struct {
	Status int    `json:"-"`
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance: http %d code=%d msg=%s", e.Status, e.Code, e.Msg)
}
