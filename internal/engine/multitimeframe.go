package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

// ladderWeights is the vote weight of each ladder timeframe; slower
// timeframes carry more weight than the two fastest.
var ladderWeights = map[models.Timeframe]float64{
	models.Timeframe1m:  0.15,
	models.Timeframe5m:  0.15,
	models.Timeframe15m: 0.25,
	models.Timeframe1h:  0.25,
	models.Timeframe4h:  0.20,
}

// minDominantWeight is the weighted vote a BUY or SELL must collect to
// beat the HOLD default.
const minDominantWeight = 0.1

// MultiTimeframeResult is the aggregated view across the ladder.
type MultiTimeframeResult struct {
	Alignment   map[models.Timeframe]models.Signal
	Confidence  map[models.Timeframe]float64
	Consistency float64
	Dominant    models.Signal
	Divergences []string
}

// analyzeTimeframes fetches a prediction for every ladder timeframe
// concurrently and aggregates the votes. A timeframe whose fetch fails or
// returns nothing contributes a neutral {HOLD, 0.5} snapshot.
func (e *Engine) analyzeTimeframes(ctx context.Context, symbol string) *MultiTimeframeResult {
	type tfSnapshot struct {
		tf         models.Timeframe
		signal     models.Signal
		confidence float64
	}

	results := make(chan tfSnapshot, len(models.LadderTimeframes))
	var wg sync.WaitGroup

	for _, tf := range models.LadderTimeframes {
		wg.Add(1)
		go func(tf models.Timeframe) {
			defer wg.Done()
			snap := tfSnapshot{tf: tf, signal: models.SignalHold, confidence: 0.5}
			pred, err := e.predictions.predict(ctx, symbol, tf)
			if err != nil {
				e.logger.WithSymbol(symbol).WithTimeframe(string(tf)).WithError(err).Debug("ladder prediction failed, using neutral")
			} else if pred != nil {
				snap.signal = pred.Action
				snap.confidence = pred.Confidence
			}
			results <- snap
		}(tf)
	}

	wg.Wait()
	close(results)

	alignment := make(map[models.Timeframe]models.Signal, len(models.LadderTimeframes))
	confidence := make(map[models.Timeframe]float64, len(models.LadderTimeframes))
	for snap := range results {
		alignment[snap.tf] = snap.signal
		confidence[snap.tf] = snap.confidence
	}

	return &MultiTimeframeResult{
		Alignment:   alignment,
		Confidence:  confidence,
		Consistency: consistencyScore(alignment),
		Dominant:    dominantSignal(alignment, confidence),
		Divergences: ladderDivergences(alignment),
	}
}

// consistencyScore rewards agreement between the short pair (1m/5m), the
// medium pair (15m/1h) and a 4h that either confirms 1h or stays neutral.
func consistencyScore(alignment map[models.Timeframe]models.Signal) float64 {
	var score float64
	if alignment[models.Timeframe1m] == alignment[models.Timeframe5m] &&
		alignment[models.Timeframe1m] != models.SignalHold {
		score += 0.30
	}
	if alignment[models.Timeframe15m] == alignment[models.Timeframe1h] &&
		alignment[models.Timeframe15m] != models.SignalHold {
		score += 0.40
	}
	if alignment[models.Timeframe4h] == alignment[models.Timeframe1h] ||
		alignment[models.Timeframe4h] == models.SignalHold {
		score += 0.30
	}
	return models.ClampScore(score)
}

// dominantSignal runs the confidence-weighted vote between BUY and SELL.
// HOLD timeframes carry no vote weight; a directional winner needs both a
// majority over the other side and weight above minDominantWeight.
func dominantSignal(alignment map[models.Timeframe]models.Signal, confidence map[models.Timeframe]float64) models.Signal {
	var buyWeight, sellWeight float64
	for tf, weight := range ladderWeights {
		switch alignment[tf] {
		case models.SignalBuy:
			buyWeight += weight * confidence[tf]
		case models.SignalSell:
			sellWeight += weight * confidence[tf]
		}
	}

	if buyWeight > sellWeight && buyWeight > minDominantWeight {
		return models.SignalBuy
	}
	if sellWeight > buyWeight && sellWeight > minDominantWeight {
		return models.SignalSell
	}
	return models.SignalHold
}

// ladderDivergences lists adjacent timeframe pairs that actively disagree,
// meaning both sides are non-HOLD and opposite.
func ladderDivergences(alignment map[models.Timeframe]models.Signal) []string {
	var out []string
	for i := 0; i < len(models.LadderTimeframes)-1; i++ {
		fast := models.LadderTimeframes[i]
		slow := models.LadderTimeframes[i+1]
		a, b := alignment[fast], alignment[slow]
		if a != models.SignalHold && b != models.SignalHold && a != b {
			out = append(out, fmt.Sprintf("%s=%s vs %s=%s", fast, a, slow, b))
		}
	}
	return out
}
