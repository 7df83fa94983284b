package strategy

import "github.com/pkg/errors"

type Leg int

const (
	Long Leg = iota
	Short
)

func (l Leg) String() string {
	if l == Short {
		return "short"
	}
	return "long"
}

// PositionEntry - один вход: размер юнита (в USDT) и цена входа.
type PositionEntry struct {
	Size  float64 `json:"size"`
	Price float64 `json:"price"`
}

// Positions - входы по обеим сторонам в порядке добавления.
type Positions struct {
	limit int
	long  []PositionEntry
	short []PositionEntry
}

func NewPositions(limit int) *Positions {
	if limit <= 0 {
		limit = DefaultMaxUnits
	}
	return &Positions{limit: limit}
}

func (p *Positions) side(l Leg) *[]PositionEntry {
	if l == Short {
		return &p.short
	}
	return &p.long
}

func (p *Positions) Add(l Leg, size, price float64) error {
	s := p.side(l)
	if len(*s) >= p.limit {
		return errors.Wrapf(ErrPositionLimitExceeded, "%s side holds %d entries", l, len(*s))
	}
	*s = append(*s, PositionEntry{Size: size, Price: price})
	return nil
}

// Exit закрывает сторону целиком и возвращает notional по текущей цене.
// Пустая сторона даёт 0.
func (p *Positions) Exit(l Leg, price float64) float64 {
	s := p.side(l)
	var total float64
	for _, e := range *s {
		total += e.Size
	}
	*s = nil
	return price * total
}

func (p *Positions) Len(l Leg) int { return len(*p.side(l)) }

func (p *Positions) CanAdd(l Leg) bool { return p.Len(l) < p.limit }

func (p *Positions) Last(l Leg) (PositionEntry, bool) {
	s := *p.side(l)
	if len(s) == 0 {
		return PositionEntry{}, false
	}
	return s[len(s)-1], true
}

func (p *Positions) Entries(l Leg) []PositionEntry {
	s := *p.side(l)
	out := make([]PositionEntry, len(s))
	copy(out, s)
	return out
}

// MarkToMarket: price*btc + usdt + нереализованный PnL шортов.
// Лонги сюда не входят, они уже сидят в btc балансе. Так считает стратегия,
// не "чинить".
func (p *Positions) MarkToMarket(price, usdt, btc float64) float64 {
	var shortPnL float64
	for _, e := range p.short {
		shortPnL += (price - e.Price) * e.Size
	}
	return price*btc + usdt + shortPnL
}
