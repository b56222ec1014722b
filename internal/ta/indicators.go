package ta

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/cinar/indicator/v2/volume"
)

// Slice-in/slice-out wrappers over the streaming indicator API. All series
// are chronological (oldest first); outputs are shorter than inputs by the
// indicator warm-up and stay aligned to the most recent bar.

// SMA computes a simple moving average series.
func SMA(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
}

// EMA computes an exponential moving average series.
func EMA(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}
	ema := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(values)))
}

// RSI computes the relative strength index series.
func RSI(values []float64, period int) []float64 {
	if len(values) <= period || period <= 0 {
		return nil
	}
	rsi := momentum.NewRsiWithPeriod[float64](period)
	return helper.ChanToSlice(rsi.Compute(helper.SliceToChan(values)))
}

// MACD computes the MACD line and its signal line with the standard
// 12/26/9 periods.
func MACD(values []float64) (macdLine, signalLine []float64) {
	if len(values) < 26 {
		return nil, nil
	}
	macd := trend.NewMacdWithPeriod[float64](12, 26, 9)
	macdChan, signalChan := macd.Compute(helper.SliceToChan(values))
	return helper.ChanToSlice(macdChan), helper.ChanToSlice(signalChan)
}

// ATR computes the average true range series.
func ATR(highs, lows, closes []float64) []float64 {
	if len(closes) < 2 || len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}
	atr := volatility.NewAtr[float64]()
	return helper.ChanToSlice(atr.Compute(
		helper.SliceToChan(highs),
		helper.SliceToChan(lows),
		helper.SliceToChan(closes),
	))
}

// OBV computes the on-balance volume series.
func OBV(closes, volumes []float64) []float64 {
	if len(closes) < 2 || len(closes) != len(volumes) {
		return nil
	}
	obv := volume.NewObv[float64]()
	return helper.ChanToSlice(obv.Compute(
		helper.SliceToChan(closes),
		helper.SliceToChan(volumes),
	))
}

// BollingerBands computes the middle band (SMA) plus upper and lower bands
// at mult standard deviations, using the rolling window stdev.
func BollingerBands(values []float64, period int, mult float64) (middle, upper, lower []float64) {
	if len(values) < period || period <= 0 {
		return nil, nil, nil
	}
	middle = SMA(values, period)
	upper = make([]float64, len(middle))
	lower = make([]float64, len(middle))
	for i := range middle {
		window := values[i : i+period]
		sd := StdDev(window)
		upper[i] = middle[i] + mult*sd
		lower[i] = middle[i] - mult*sd
	}
	return middle, upper, lower
}

// ADX computes the average directional index with Wilder smoothing. The
// result needs at least 2*period bars of input and is empty otherwise.
func ADX(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	if period <= 0 || n < 2*period+1 || len(highs) != n || len(lows) != n {
		return nil
	}

	tr := make([]float64, n-1)
	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	for i := 1; i < n; i++ {
		tr[i-1] = trueRange(highs[i], lows[i], closes[i-1])
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}

	smTR := wilderSmooth(tr, period)
	smPlus := wilderSmooth(plusDM, period)
	smMinus := wilderSmooth(minusDM, period)

	dx := make([]float64, len(smTR))
	for i := range smTR {
		if smTR[i] == 0 {
			continue
		}
		plusDI := 100 * smPlus[i] / smTR[i]
		minusDI := 100 * smMinus[i] / smTR[i]
		sum := plusDI + minusDI
		if sum == 0 {
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
	}

	if len(dx) < period {
		return nil
	}
	adx := make([]float64, len(dx)-period+1)
	var seed float64
	for _, v := range dx[:period] {
		seed += v
	}
	adx[0] = seed / float64(period)
	for i := period; i < len(dx); i++ {
		adx[i-period+1] = (adx[i-period]*float64(period-1) + dx[i]) / float64(period)
	}
	return adx
}

// StdDev computes the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// Mean computes the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Last returns the final element of a series and false when it is empty.
func Last(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

// Tail returns at most n trailing elements of values.
func Tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if d := math.Abs(high - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// wilderSmooth applies Wilder's smoothing: a period-sum seed followed by
// prev - prev/period + current.
func wilderSmooth(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	out := make([]float64, len(values)-period+1)
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	out[0] = seed
	for i := period; i < len(values); i++ {
		out[i-period+1] = out[i-period] - out[i-period]/float64(period) + values[i]
	}
	return out
}
