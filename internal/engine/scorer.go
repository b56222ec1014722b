package engine

import (
	"fmt"
	"strings"

	"github.com/tradeforge-io/signal-engine-go/internal/config"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

// Quality score component weights. They sum to 1, so the score is a convex
// combination of components already in [0,1].
var qualityWeights = struct {
	confidence, consistency, volume, timing, trend, confluence, volatility float64
}{
	confidence:  0.25,
	consistency: 0.20,
	volume:      0.15,
	timing:      0.15,
	trend:       0.10,
	confluence:  0.10,
	volatility:  0.05,
}

// volatilityAdjustments is the calm-market bonus component per level.
var volatilityAdjustments = map[models.VolatilityLevel]float64{
	models.VolatilityLow:     0.9,
	models.VolatilityMedium:  0.8,
	models.VolatilityHigh:    0.6,
	models.VolatilityExtreme: 0.2,
}

// computeQualityScore folds every evaluated component into the final
// quality score. Boolean confirmations enter as 1.0 or a 0.3 floor.
func computeQualityScore(confidence, consistency, timing, confluence float64,
	volumeConfirmed, trendAligned bool, level models.VolatilityLevel) float64 {

	volumeScore := 0.3
	if volumeConfirmed {
		volumeScore = 1.0
	}
	trendScore := 0.3
	if trendAligned {
		trendScore = 1.0
	}
	adjustment, ok := volatilityAdjustments[level]
	if !ok {
		adjustment = volatilityAdjustments[models.VolatilityMedium]
	}

	score := qualityWeights.confidence*confidence +
		qualityWeights.consistency*consistency +
		qualityWeights.volume*volumeScore +
		qualityWeights.timing*timing +
		qualityWeights.trend*trendScore +
		qualityWeights.confluence*confluence +
		qualityWeights.volatility*adjustment
	return models.ClampScore(score)
}

// Thresholds is a per-volatility-level acceptance floor.
type Thresholds struct {
	MinScore      float64
	MinConfidence float64
}

// DecisionPolicy is the ordered short-circuit gate that turns an evaluated
// signal into an execute/skip verdict. Decide never mutates its input and
// is idempotent.
type DecisionPolicy struct {
	thresholds     map[models.VolatilityLevel]Thresholds
	fallback       Thresholds
	volumeRequired bool
	trendRequired  bool

	minConsistency float64
	minTiming      float64
}

// NewDecisionPolicy builds the gate from engine configuration. Unknown
// threshold keys are ignored; a level missing from configuration falls
// back to the global minimum quality score.
func NewDecisionPolicy(cfg config.EngineConfig) *DecisionPolicy {
	thresholds := make(map[models.VolatilityLevel]Thresholds, len(cfg.Thresholds))
	for key, th := range cfg.Thresholds {
		level := models.VolatilityLevel(strings.ToUpper(key))
		switch level {
		case models.VolatilityLow, models.VolatilityMedium, models.VolatilityHigh, models.VolatilityExtreme:
			thresholds[level] = Thresholds{MinScore: th.MinScore, MinConfidence: th.MinConfidence}
		}
	}

	return &DecisionPolicy{
		thresholds:     thresholds,
		fallback:       Thresholds{MinScore: cfg.MinQualityScore, MinConfidence: 0.65},
		volumeRequired: cfg.VolumeConfirmationRequired,
		trendRequired:  cfg.TrendAlignmentRequired,
		minConsistency: 0.6,
		minTiming:      0.5,
	}
}

// Decide applies the rejection rules in order and returns the verdict with
// a human-readable reason.
func (p *DecisionPolicy) Decide(q *models.SignalQuality) (bool, string) {
	th, ok := p.thresholds[q.VolatilityLevel]
	if !ok {
		th = p.fallback
	}

	if q.QualityScore < th.MinScore {
		return false, fmt.Sprintf("quality score %.2f below %.2f minimum for %s volatility",
			q.QualityScore, th.MinScore, q.VolatilityLevel)
	}
	if q.Confidence < th.MinConfidence {
		return false, fmt.Sprintf("confidence %.2f below %.2f minimum for %s volatility",
			q.Confidence, th.MinConfidence, q.VolatilityLevel)
	}
	if p.volumeRequired && !q.VolumeConfirmation {
		return false, "volume confirmation required but not present"
	}
	if p.trendRequired && !q.TrendAligned {
		return false, "trend alignment required but not present"
	}
	if q.VolatilityLevel == models.VolatilityExtreme {
		return false, "extreme volatility, execution suspended"
	}
	if q.Consistency < p.minConsistency {
		return false, fmt.Sprintf("timeframe consistency %.2f below %.2f minimum",
			q.Consistency, p.minConsistency)
	}
	if q.TimingScore < p.minTiming {
		return false, fmt.Sprintf("timing score %.2f below %.2f minimum",
			q.TimingScore, p.minTiming)
	}

	return true, fmt.Sprintf("signal approved with quality score %.2f", q.QualityScore)
}
