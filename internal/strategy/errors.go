package strategy

import "github.com/pkg/errors"

var (
	// ErrInsufficientSeedData - на старте меньше window+1 свечей.
	ErrInsufficientSeedData = errors.New("insufficient seed data")
	// ErrPositionLimitExceeded - попытка пятого входа в одну сторону.
	ErrPositionLimitExceeded = errors.New("position limit exceeded")
	// ErrDegenerateVolatility - N около нуля, размер юнита не посчитать.
	ErrDegenerateVolatility = errors.New("degenerate volatility")
	// ErrInvalidCandle - NaN/Inf в OHLC, тик отбрасывается целиком.
	ErrInvalidCandle = errors.New("invalid candle")
)
