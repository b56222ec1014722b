package ta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	v := start
	for i := range out {
		out[i] = v
		v += step
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 5)
	require.Len(t, out, 1)
	assert.InDelta(t, 3, out[0], 1e-9)

	out = SMA([]float64{1, 2, 3, 4, 5, 6}, 5)
	require.Len(t, out, 2)
	assert.InDelta(t, 4, out[1], 1e-9)

	assert.Nil(t, SMA([]float64{1, 2}, 5))
	assert.Nil(t, SMA(nil, 0))
}

func TestEMAFollowsTrend(t *testing.T) {
	values := linear(60, 100, 1)
	ema20 := EMA(values, 20)
	ema50 := EMA(values, 50)
	last20, ok := Last(ema20)
	require.True(t, ok)
	last50, ok := Last(ema50)
	require.True(t, ok)
	// The faster EMA tracks a rising series more closely.
	assert.Greater(t, last20, last50)
	assert.Less(t, last20, values[len(values)-1])
}

func TestRSIExtremes(t *testing.T) {
	rising := RSI(linear(40, 100, 1), 14)
	last, ok := Last(rising)
	require.True(t, ok)
	assert.Greater(t, last, 70.0)

	falling := RSI(linear(40, 200, -1), 14)
	last, ok = Last(falling)
	require.True(t, ok)
	assert.Less(t, last, 30.0)

	assert.Nil(t, RSI(linear(10, 100, 1), 14))
}

func TestMACDSignOfTrend(t *testing.T) {
	macdLine, signalLine := MACD(linear(80, 100, 1))
	require.NotEmpty(t, macdLine)
	require.NotEmpty(t, signalLine)

	last, _ := Last(macdLine)
	assert.Greater(t, last, 0.0, "rising series keeps the MACD line positive")

	macdLine, signalLine = MACD(linear(20, 100, 1))
	assert.Nil(t, macdLine)
	assert.Nil(t, signalLine)
}

func TestATRConstantRange(t *testing.T) {
	n := 60
	highs := constant(n, 101)
	lows := constant(n, 99)
	closes := constant(n, 100)

	series := ATR(highs, lows, closes)
	last, ok := Last(series)
	require.True(t, ok)
	assert.InDelta(t, 2.0, last, 0.5)
}

func TestOBVAccumulatesOnRisingCloses(t *testing.T) {
	closes := linear(10, 100, 1)
	volumes := constant(10, 5)

	series := OBV(closes, volumes)
	require.NotEmpty(t, series)
	last, _ := Last(series)
	assert.Greater(t, last, 0.0)

	assert.Nil(t, OBV(closes, constant(3, 5)))
}

func TestBollingerBandsFlatSeries(t *testing.T) {
	middle, upper, lower := BollingerBands(constant(30, 100), 20, 2)
	require.NotEmpty(t, middle)
	require.Len(t, upper, len(middle))
	require.Len(t, lower, len(middle))

	m, _ := Last(middle)
	u, _ := Last(upper)
	l, _ := Last(lower)
	assert.InDelta(t, 100, m, 1e-9)
	assert.InDelta(t, m, u, 1e-9, "zero variance collapses the bands")
	assert.InDelta(t, m, l, 1e-9)
}

func TestADX(t *testing.T) {
	t.Run("strong trend reads high", func(t *testing.T) {
		n := 80
		closes := linear(n, 100, 1)
		highs := make([]float64, n)
		lows := make([]float64, n)
		for i := range closes {
			highs[i] = closes[i] + 0.5
			lows[i] = closes[i] - 0.5
		}
		series := ADX(highs, lows, closes, 14)
		last, ok := Last(series)
		require.True(t, ok)
		assert.Greater(t, last, 25.0)
	})

	t.Run("flat market reads low", func(t *testing.T) {
		n := 80
		series := ADX(constant(n, 101), constant(n, 99), constant(n, 100), 14)
		last, ok := Last(series)
		require.True(t, ok)
		assert.Less(t, last, 15.0)
	})

	t.Run("insufficient data", func(t *testing.T) {
		assert.Nil(t, ADX(constant(10, 101), constant(10, 99), constant(10, 100), 14))
	})
}

func TestStdDevAndMean(t *testing.T) {
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.Zero(t, StdDev(nil))
	assert.InDelta(t, 5.0, Mean([]float64{4, 5, 6}), 1e-9)
	assert.Zero(t, Mean(nil))
}

func TestTail(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, []float64{4, 5}, Tail(values, 2))
	assert.Equal(t, values, Tail(values, 10))
	assert.Nil(t, Tail(values, 0))
}
