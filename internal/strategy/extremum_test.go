package strategy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maxSlice(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minSlice(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func TestExtremumTrackerMatchesNaiveWindow(t *testing.T) {
	const window = 20
	rnd := rand.New(rand.NewSource(42))

	for _, tc := range []struct {
		name    string
		tracker *ExtremumTracker
		naive   func([]float64) float64
	}{
		{name: "max", tracker: NewMaxTracker(), naive: maxSlice},
		{name: "min", tracker: NewMinTracker(), naive: minSlice},
	} {
		t.Run(tc.name, func(t *testing.T) {
			values := make([]float64, 0, 500)
			for i := 0; i < 500; i++ {
				// мелкая сетка, чтобы были повторы
				v := float64(rnd.Intn(50))
				ts := int64(i)
				values = append(values, v)

				tc.tracker.Evict(ts - window + 1)
				tc.tracker.Update(v, ts)

				from := 0
				if i-window+1 > 0 {
					from = i - window + 1
				}
				got, ok := tc.tracker.Current()
				require.True(t, ok)
				require.Equal(t, tc.naive(values[from:]), got, "step %d", i)
			}
		})
	}
}

func TestExtremumTrackerStaysMonotonic(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	maxT, minT := NewMaxTracker(), NewMinTracker()

	for i := 0; i < 300; i++ {
		v := float64(rnd.Intn(20))
		maxT.Evict(int64(i) - 10)
		minT.Evict(int64(i) - 10)
		maxT.Update(v, int64(i))
		minT.Update(v, int64(i))

		pts := maxT.Points()
		for j := 1; j < len(pts); j++ {
			require.Greater(t, pts[j-1].Value, pts[j].Value, "max deque at step %d", i)
			require.Less(t, pts[j-1].Timestamp, pts[j].Timestamp)
		}
		pts = minT.Points()
		for j := 1; j < len(pts); j++ {
			require.Less(t, pts[j-1].Value, pts[j].Value, "min deque at step %d", i)
		}
	}
}

func TestExtremumTrackerInitialize(t *testing.T) {
	tr := NewMaxTracker()
	err := tr.Initialize(nil)
	require.ErrorIs(t, err, ErrInsufficientSeedData)

	require.NoError(t, tr.Initialize([]ExtremumPoint{
		{Value: 3, Timestamp: 1},
		{Value: 7, Timestamp: 2},
		{Value: 5, Timestamp: 3},
		{Value: 4, Timestamp: 4},
	}))
	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, 7.0, cur)

	// голова ушла, следующий по величине занимает её место
	tr.Evict(3)
	cur, _ = tr.Current()
	assert.Equal(t, 5.0, cur)

	tr.Evict(100)
	_, ok = tr.Current()
	assert.False(t, ok)
	assert.Zero(t, tr.Len())
}
