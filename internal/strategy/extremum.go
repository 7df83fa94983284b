package strategy

import "github.com/pkg/errors"

// ExtremumPoint - high или low и время, когда его записали (CloseTime, ms).
type ExtremumPoint struct {
	Value     float64
	Timestamp int64
}

// ExtremumTracker держит max (или min) за скользящее окно на монотонной деке.
// Для max значения строго убывают от головы к хвосту, голова и есть максимум.
type ExtremumTracker struct {
	pts []ExtremumPoint
	// stays сообщает, остаётся ли хвост при приходе нового значения
	stays func(back, v float64) bool
}

func NewMaxTracker() *ExtremumTracker {
	return &ExtremumTracker{stays: func(back, v float64) bool { return back > v }}
}

func NewMinTracker() *ExtremumTracker {
	return &ExtremumTracker{stays: func(back, v float64) bool { return back < v }}
}

// Initialize заполняет деку из стартового окна. Голова после этого равна
// свёртке max/min по seed с её временем.
func (t *ExtremumTracker) Initialize(seed []ExtremumPoint) error {
	if len(seed) == 0 {
		return errors.Wrap(ErrInsufficientSeedData, "extremum tracker: empty seed")
	}
	t.pts = make([]ExtremumPoint, 0, len(seed))
	for _, p := range seed {
		t.Update(p.Value, p.Timestamp)
	}
	return nil
}

func (t *ExtremumTracker) Update(value float64, ts int64) {
	for len(t.pts) > 0 && !t.stays(t.pts[len(t.pts)-1].Value, value) {
		t.pts = t.pts[:len(t.pts)-1]
	}
	t.pts = append(t.pts, ExtremumPoint{Value: value, Timestamp: ts})
}

// Evict выкидывает с головы всё, что старше threshold.
func (t *ExtremumTracker) Evict(threshold int64) {
	for len(t.pts) > 0 && t.pts[0].Timestamp < threshold {
		t.pts = t.pts[1:]
	}
}

func (t *ExtremumTracker) Current() (float64, bool) {
	if len(t.pts) == 0 {
		return 0, false
	}
	return t.pts[0].Value, true
}

func (t *ExtremumTracker) Len() int { return len(t.pts) }

func (t *ExtremumTracker) Points() []ExtremumPoint {
	out := make([]ExtremumPoint, len(t.pts))
	copy(out, t.pts)
	return out
}
