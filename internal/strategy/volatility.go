package strategy

import (
	"math"

	"github.com/pkg/errors"

	"turtle_bot/internal/models"
)

// TrueRange учитывает гэп относительно предыдущего закрытия.
func TrueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(prevClose-low)))
}

// Volatility - N по Уайлдеру. Старт простым средним TR за окно, дальше
// n' = ((w-1)*n + TR) / w. Это экспоненциальный фильтр с весом 1/w,
// историю он не забывает полностью, так что это не скользящее среднее.
type Volatility struct {
	window    int
	n         float64
	prevClose float64
}

func NewVolatility(window int) *Volatility {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Volatility{window: window}
}

// Initialize берёт последние window свечей из seed. У первой из них TR = high-low,
// у остальных считается от close предыдущей.
func (v *Volatility) Initialize(candles []models.Candle) error {
	if len(candles) < v.window+1 {
		return errors.Wrapf(ErrInsufficientSeedData, "volatility: got %d candles, need %d", len(candles), v.window+1)
	}
	seed := candles[len(candles)-v.window:]

	sum := seed[0].High - seed[0].Low
	for i := 1; i < len(seed); i++ {
		sum += TrueRange(seed[i].High, seed[i].Low, seed[i-1].Close)
	}
	v.n = sum / float64(v.window)
	v.prevClose = seed[len(seed)-1].Close
	return nil
}

func (v *Volatility) Update(high, low, close float64) float64 {
	tr := TrueRange(high, low, v.prevClose)
	w := float64(v.window)
	v.n = ((w-1)*v.n + tr) / w
	v.prevClose = close
	return v.n
}

func (v *Volatility) N() float64         { return v.n }
func (v *Volatility) PrevClose() float64 { return v.prevClose }
