package engine

import (
	"math"
	"sort"

	"github.com/tradeforge-io/signal-engine-go/internal/models"
	"github.com/tradeforge-io/signal-engine-go/internal/ta"
)

// Filter names, also the keys of BatteryResult.Results and the entries of
// SignalQuality.FilteringApplied.
const (
	FilterVolatilityRegime     = "volatility_regime"
	FilterVolumeConfirmation   = "volume_confirmation"
	FilterTrendAlignment       = "trend_alignment"
	FilterSupportResistance    = "support_resistance"
	FilterIndicatorConvergence = "indicator_convergence"
	FilterPriceAction          = "price_action"
)

// FilterInput carries the pre-fetched windows one battery run consumes.
type FilterInput struct {
	Signal   models.Signal
	Primary  models.Window
	Intraday models.Window
}

// FilterResult is the verdict of a single filter.
type FilterResult struct {
	Passed bool
	Score  float64
}

// QualityFilter pairs a stable name with its evaluation function. Filters
// are plain tagged functions, not an interface hierarchy.
type QualityFilter struct {
	Name     string
	Evaluate func(in FilterInput) FilterResult
}

// BatteryResult collects the six filter verdicts plus the derived flags
// the scorer and the decision gate consume.
type BatteryResult struct {
	Results   map[string]FilterResult
	Applied   []string
	RiskScore float64

	VolumeConfirmed     bool
	TrendAligned        bool
	PriceActionAligned  bool
	IndicatorsConverged bool
	LevelsRespected     bool
}

func defaultFilters() []QualityFilter {
	return []QualityFilter{
		{Name: FilterVolatilityRegime, Evaluate: volatilityRegimeFilter},
		{Name: FilterVolumeConfirmation, Evaluate: volumeConfirmationFilter},
		{Name: FilterTrendAlignment, Evaluate: trendAlignmentFilter},
		{Name: FilterSupportResistance, Evaluate: supportResistanceFilter},
		{Name: FilterIndicatorConvergence, Evaluate: indicatorConvergenceFilter},
		{Name: FilterPriceAction, Evaluate: priceActionFilter},
	}
}

// runFilterBattery evaluates every filter independently. No filter can
// abort the run; insufficient data degrades to the per-filter neutral
// fallback. RiskScore is the plain mean of the six scores.
func runFilterBattery(filters []QualityFilter, in FilterInput) *BatteryResult {
	out := &BatteryResult{
		Results: make(map[string]FilterResult, len(filters)),
		Applied: make([]string, 0, len(filters)),
	}

	var sum float64
	for _, f := range filters {
		res := f.Evaluate(in)
		res.Score = models.ClampScore(res.Score)
		out.Results[f.Name] = res
		out.Applied = append(out.Applied, f.Name)
		sum += res.Score

		switch f.Name {
		case FilterVolumeConfirmation:
			out.VolumeConfirmed = res.Passed
		case FilterTrendAlignment:
			out.TrendAligned = res.Passed
		case FilterPriceAction:
			out.PriceActionAligned = res.Passed
		case FilterIndicatorConvergence:
			out.IndicatorsConverged = res.Passed
		case FilterSupportResistance:
			out.LevelsRespected = res.Passed
		}
	}

	if len(filters) > 0 {
		out.RiskScore = models.ClampScore(sum / float64(len(filters)))
	}
	return out
}

// classifyVolatility buckets the current-ATR to average-ATR ratio.
func classifyVolatility(ratio float64) models.VolatilityLevel {
	switch {
	case ratio < 0.5:
		return models.VolatilityLow
	case ratio < 1.5:
		return models.VolatilityMedium
	case ratio < 2.5:
		return models.VolatilityHigh
	default:
		return models.VolatilityExtreme
	}
}

var volatilityFilterScores = map[models.VolatilityLevel]float64{
	models.VolatilityLow:     0.9,
	models.VolatilityMedium:  0.8,
	models.VolatilityHigh:    0.6,
	models.VolatilityExtreme: 0.2,
}

// atrRatio returns last ATR over the mean of the trailing 50 ATR values.
func atrRatio(w models.Window) (float64, bool) {
	series := ta.ATR(w.Highs(), w.Lows(), w.Closes())
	last, ok := ta.Last(series)
	if !ok {
		return 0, false
	}
	avg := ta.Mean(ta.Tail(series, 50))
	if avg <= 0 {
		return 0, false
	}
	return last / avg, true
}

// volatilityRegimeFilter rejects only the EXTREME bucket. Fallback is a
// pass at MEDIUM's neutral weight when fewer than 50 bars are available.
func volatilityRegimeFilter(in FilterInput) FilterResult {
	if len(in.Primary) < 50 {
		return FilterResult{Passed: true, Score: 0.7}
	}
	ratio, ok := atrRatio(in.Primary)
	if !ok {
		return FilterResult{Passed: true, Score: 0.7}
	}
	level := classifyVolatility(ratio)
	return FilterResult{
		Passed: level != models.VolatilityExtreme,
		Score:  volatilityFilterScores[level],
	}
}

// volumeConfirmationFilter checks the latest bar's volume against the mean
// of the preceding 20 bars and boosts the score when the bar's direction
// agrees with the signal.
func volumeConfirmationFilter(in FilterInput) FilterResult {
	w := in.Primary
	if len(w) < 21 {
		return FilterResult{Passed: false, Score: 0}
	}
	volumes := w.Volumes()
	last := volumes[len(volumes)-1]
	avg := ta.Mean(volumes[len(volumes)-21 : len(volumes)-1])
	if avg <= 0 {
		return FilterResult{Passed: false, Score: 0}
	}

	ratio := last / avg
	score := math.Min(ratio/2, 1)

	bar := w[len(w)-1]
	barUp := bar.Close.GreaterThan(bar.Open)
	barDown := bar.Close.LessThan(bar.Open)
	if (in.Signal == models.SignalBuy && barUp) || (in.Signal == models.SignalSell && barDown) {
		score = math.Min(score*1.15, 1)
	}

	return FilterResult{Passed: ratio > 1.2, Score: score}
}

// trendAlignmentFilter grades the EMA 20/50/100 stack against the signal
// direction. Only a fully opposed stack blocks; a mixed market without a
// clean stack either way passes at the neutral score.
func trendAlignmentFilter(in FilterInput) FilterResult {
	closes := in.Primary.Closes()
	if len(closes) < 100 {
		return FilterResult{Passed: true, Score: 0.5}
	}

	ema20, ok20 := ta.Last(ta.EMA(closes, 20))
	ema50, ok50 := ta.Last(ta.EMA(closes, 50))
	ema100, ok100 := ta.Last(ta.EMA(closes, 100))
	if !ok20 || !ok50 || !ok100 {
		return FilterResult{Passed: true, Score: 0.5}
	}

	bullishStack := ema20 > ema50 && ema50 > ema100
	bearishStack := ema20 < ema50 && ema50 < ema100

	switch in.Signal {
	case models.SignalBuy:
		if bullishStack {
			return FilterResult{Passed: true, Score: 0.9}
		}
		if bearishStack {
			return FilterResult{Passed: false, Score: 0.2}
		}
		return FilterResult{Passed: true, Score: 0.5}
	case models.SignalSell:
		if bearishStack {
			return FilterResult{Passed: true, Score: 0.9}
		}
		if bullishStack {
			return FilterResult{Passed: false, Score: 0.2}
		}
		return FilterResult{Passed: true, Score: 0.5}
	default:
		// HOLD has no directional trend requirement.
		return FilterResult{Passed: true, Score: 0.5}
	}
}

// keyLevels returns the notable price levels around the window: the three
// highest highs, the three lowest lows, and psychological round levels at
// fixed offsets from the rounded price.
func keyLevels(w models.Window, price float64) []float64 {
	highs := append([]float64(nil), w.Highs()...)
	lows := append([]float64(nil), w.Lows()...)
	sort.Sort(sort.Reverse(sort.Float64Slice(highs)))
	sort.Float64s(lows)

	var levels []float64
	for i := 0; i < 3 && i < len(highs); i++ {
		levels = append(levels, highs[i])
	}
	for i := 0; i < 3 && i < len(lows); i++ {
		levels = append(levels, lows[i])
	}

	rounded := math.Round(price)
	for _, step := range []float64{200, 100, 50, 20, 10, 5} {
		levels = append(levels, rounded+step, rounded-step)
	}
	return levels
}

// levelWidth is the proximity threshold around a level: the larger of
// 0.2% of price and the stdev of the trailing 50 closes.
func levelWidth(w models.Window, price float64) float64 {
	return math.Max(0.002*price, ta.StdDev(ta.Tail(w.Closes(), 50)))
}

// supportResistanceFilter checks whether the trade would run straight into
// a nearby level: resistance above for BUY, support below for SELL. HOLD
// only asks for clearance from the nearest level in either direction.
func supportResistanceFilter(in FilterInput) FilterResult {
	w := in.Primary
	if len(w) < 50 {
		return FilterResult{Passed: true, Score: 0.5}
	}
	last, _ := w.Last()
	price := last.Close.InexactFloat64()
	if price <= 0 {
		return FilterResult{Passed: true, Score: 0.5}
	}

	levels := keyLevels(w, price)
	width := levelWidth(w, price)

	switch in.Signal {
	case models.SignalBuy:
		if dist, ok := nearestLevelDistance(levels, price, +1); ok && dist <= width {
			return FilterResult{Passed: false, Score: 0.3}
		}
		return FilterResult{Passed: true, Score: 0.9}
	case models.SignalSell:
		if dist, ok := nearestLevelDistance(levels, price, -1); ok && dist <= width {
			return FilterResult{Passed: false, Score: 0.3}
		}
		return FilterResult{Passed: true, Score: 0.9}
	default:
		if dist, ok := nearestLevelDistance(levels, price, 0); ok && dist <= width {
			return FilterResult{Passed: false, Score: 0.4}
		}
		return FilterResult{Passed: true, Score: 0.7}
	}
}

// nearestLevelDistance returns the distance to the closest level in the
// given direction: +1 above price, -1 below price, 0 either side.
func nearestLevelDistance(levels []float64, price float64, direction int) (float64, bool) {
	best := math.Inf(1)
	found := false
	for _, level := range levels {
		switch {
		case direction > 0 && level <= price:
			continue
		case direction < 0 && level >= price:
			continue
		}
		if d := math.Abs(level - price); d < best {
			best = d
			found = true
		}
	}
	return best, found
}

// indicatorConvergenceFilter requires RSI, MACD and the Bollinger middle
// band to all lean the same way as the signal.
func indicatorConvergenceFilter(in FilterInput) FilterResult {
	closes := in.Primary.Closes()
	if len(closes) < 50 {
		return FilterResult{Passed: false, Score: 0.5}
	}

	rsi, okRSI := ta.Last(ta.RSI(closes, 14))
	macdSeries, signalSeries := ta.MACD(closes)
	macdLine, okMACD := ta.Last(macdSeries)
	signalLine, okSignal := ta.Last(signalSeries)
	middleSeries, _, _ := ta.BollingerBands(closes, 20, 2)
	middle, okBB := ta.Last(middleSeries)
	if !okRSI || !okMACD || !okSignal || !okBB {
		return FilterResult{Passed: false, Score: 0.5}
	}

	price := closes[len(closes)-1]
	var converged bool
	switch in.Signal {
	case models.SignalBuy:
		converged = rsi > 50 && macdLine > signalLine && price > middle
	case models.SignalSell:
		converged = rsi < 50 && macdLine < signalLine && price < middle
	default:
		converged = false
	}

	if converged {
		return FilterResult{Passed: true, Score: 0.9}
	}
	return FilterResult{Passed: false, Score: 0.4}
}

// bodyRatioThreshold is the minimum candle body share of its full range
// for the bar to count as decisive.
const bodyRatioThreshold = 0.55

// priceActionFilter inspects the latest 15m candle: a decisive body in the
// signal's direction confirms, anything else does not. HOLD is confirmed
// by an indecisive body. Fewer than 5 intraday bars is not enough context
// to grade a single candle against.
func priceActionFilter(in FilterInput) FilterResult {
	if len(in.Intraday) < 5 {
		return FilterResult{Passed: false, Score: 0.5}
	}
	bar, ok := in.Intraday.Last()
	if !ok {
		return FilterResult{Passed: false, Score: 0.5}
	}

	high := bar.High.InexactFloat64()
	low := bar.Low.InexactFloat64()
	open := bar.Open.InexactFloat64()
	closePx := bar.Close.InexactFloat64()

	fullRange := high - low
	var ratio float64
	if fullRange > 0 {
		ratio = math.Abs(closePx-open) / fullRange
	}

	var aligned bool
	switch in.Signal {
	case models.SignalBuy:
		aligned = closePx > open && ratio > bodyRatioThreshold
	case models.SignalSell:
		aligned = closePx < open && ratio > bodyRatioThreshold
	default:
		aligned = ratio <= bodyRatioThreshold
	}

	if aligned {
		return FilterResult{Passed: true, Score: 0.85}
	}
	return FilterResult{Passed: false, Score: 0.45}
}
