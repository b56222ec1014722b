package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

func TestComputeQualityScore(t *testing.T) {
	t.Run("weighted combination", func(t *testing.T) {
		// 0.25*0.8 + 0.20*1.0 + 0.15*1.0 + 0.15*0.7 + 0.10*1.0 + 0.10*1.0 + 0.05*0.9
		score := computeQualityScore(0.8, 1.0, 0.7, 1.0, true, true, models.VolatilityLow)
		assert.InDelta(t, 0.9, score, 1e-9)
	})

	t.Run("boolean floors", func(t *testing.T) {
		// 0.15*0.3 + 0.10*0.3 instead of the full weights.
		withFlags := computeQualityScore(0.8, 1.0, 0.7, 1.0, true, true, models.VolatilityMedium)
		withoutFlags := computeQualityScore(0.8, 1.0, 0.7, 1.0, false, false, models.VolatilityMedium)
		assert.InDelta(t, 0.175, withFlags-withoutFlags, 1e-9)
	})

	t.Run("extreme volatility drags the adjustment component", func(t *testing.T) {
		low := computeQualityScore(0.8, 1.0, 0.7, 1.0, true, true, models.VolatilityLow)
		extreme := computeQualityScore(0.8, 1.0, 0.7, 1.0, true, true, models.VolatilityExtreme)
		assert.InDelta(t, 0.05*(0.9-0.2), low-extreme, 1e-9)
	})

	t.Run("result is clamped", func(t *testing.T) {
		score := computeQualityScore(1.0, 1.0, 1.0, 1.0, true, true, models.VolatilityLow)
		assert.LessOrEqual(t, score, 1.0)
		assert.GreaterOrEqual(t, score, 0.0)
	})
}

func acceptableSignal() *models.SignalQuality {
	return &models.SignalQuality{
		Symbol:             "BTC/USDT",
		Timeframe:          models.Timeframe1h,
		Signal:             models.SignalBuy,
		Confidence:         0.82,
		QualityScore:       0.80,
		Consistency:        0.70,
		TimingScore:        0.65,
		VolatilityLevel:    models.VolatilityMedium,
		VolumeConfirmation: true,
		TrendAligned:       true,
	}
}

func TestDecisionPolicy(t *testing.T) {
	policy := NewDecisionPolicy(defaultEngineConfig())

	t.Run("acceptable signal approved", func(t *testing.T) {
		ok, reason := policy.Decide(acceptableSignal())
		assert.True(t, ok)
		assert.Contains(t, reason, "approved")
	})

	t.Run("quality below adaptive threshold", func(t *testing.T) {
		q := acceptableSignal()
		q.QualityScore = 0.74
		ok, reason := policy.Decide(q)
		assert.False(t, ok)
		assert.Contains(t, reason, "quality score")
		assert.Contains(t, reason, "MEDIUM")
	})

	t.Run("confidence below adaptive threshold", func(t *testing.T) {
		q := acceptableSignal()
		q.Confidence = 0.69
		ok, reason := policy.Decide(q)
		assert.False(t, ok)
		assert.Contains(t, reason, "confidence")
	})

	t.Run("thresholds tighten with volatility", func(t *testing.T) {
		q := acceptableSignal()
		q.VolatilityLevel = models.VolatilityHigh
		// 0.80 passes MEDIUM's 0.75 floor but not HIGH's 0.85.
		ok, _ := policy.Decide(q)
		assert.False(t, ok)
	})

	t.Run("missing volume confirmation", func(t *testing.T) {
		q := acceptableSignal()
		q.VolumeConfirmation = false
		ok, reason := policy.Decide(q)
		assert.False(t, ok)
		assert.Contains(t, reason, "volume confirmation")
	})

	t.Run("missing trend alignment", func(t *testing.T) {
		q := acceptableSignal()
		q.TrendAligned = false
		ok, reason := policy.Decide(q)
		assert.False(t, ok)
		assert.Contains(t, reason, "trend alignment")
	})

	t.Run("extreme volatility rejects even perfect scores", func(t *testing.T) {
		q := acceptableSignal()
		q.VolatilityLevel = models.VolatilityExtreme
		q.QualityScore = 0.99
		q.Confidence = 0.99
		ok, reason := policy.Decide(q)
		assert.False(t, ok)
		assert.Contains(t, reason, "extreme volatility")
	})

	t.Run("low consistency", func(t *testing.T) {
		q := acceptableSignal()
		q.Consistency = 0.59
		ok, reason := policy.Decide(q)
		assert.False(t, ok)
		assert.Contains(t, reason, "consistency")
	})

	t.Run("poor timing", func(t *testing.T) {
		q := acceptableSignal()
		q.TimingScore = 0.49
		ok, reason := policy.Decide(q)
		assert.False(t, ok)
		assert.Contains(t, reason, "timing")
	})

	t.Run("null signal is rejected", func(t *testing.T) {
		q := models.NewNullSignal("BTC/USDT", models.Timeframe1h, "no prediction available")
		ok, _ := policy.Decide(q)
		assert.False(t, ok)
	})
}

func TestDecideIsIdempotent(t *testing.T) {
	policy := NewDecisionPolicy(defaultEngineConfig())
	q := acceptableSignal()
	before := *q

	ok1, reason1 := policy.Decide(q)
	ok2, reason2 := policy.Decide(q)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, reason1, reason2)
	assert.Equal(t, before, *q, "Decide must not mutate the signal")
}

func TestDecisionPolicyFallbackThresholds(t *testing.T) {
	cfg := defaultEngineConfig()
	cfg.Thresholds = nil
	policy := NewDecisionPolicy(cfg)

	q := acceptableSignal()
	q.QualityScore = 0.72
	ok, _ := policy.Decide(q)
	require.True(t, ok, "0.72 clears the global 0.70 fallback floor")

	q.QualityScore = 0.69
	ok, _ = policy.Decide(q)
	assert.False(t, ok)
}
