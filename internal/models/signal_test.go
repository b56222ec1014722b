package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSignal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Signal
	}{
		{"buy stays buy", "BUY", SignalBuy},
		{"long maps to buy", "LONG", SignalBuy},
		{"lowercase long", "long", SignalBuy},
		{"sell stays sell", "SELL", SignalSell},
		{"short maps to sell", "SHORT", SignalSell},
		{"hold stays hold", "HOLD", SignalHold},
		{"unknown degrades to hold", "MOON", SignalHold},
		{"empty degrades to hold", "", SignalHold},
		{"whitespace trimmed", "  buy  ", SignalBuy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSignal(tt.input))
		})
	}
}

func TestSessionForTime(t *testing.T) {
	tests := []struct {
		name    string
		hour    int
		session TradingSession
		factor  float64
	}{
		{"asian early morning", 2, SessionAsian, 0.7},
		{"european opens at 7", 7, SessionEuropean, 0.9},
		{"european mid morning", 10, SessionEuropean, 0.9},
		{"overlap at 13", 13, SessionOverlap, 1.1},
		{"overlap at 14", 14, SessionOverlap, 1.1},
		{"us after overlap", 15, SessionUS, 1.0},
		{"us evening", 20, SessionUS, 1.0},
		{"asian after us close", 21, SessionAsian, 0.7},
		{"asian midnight", 0, SessionAsian, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := time.Date(2026, 3, 10, tt.hour, 30, 0, 0, time.UTC)
			session, factor := SessionForTime(ts)
			assert.Equal(t, tt.session, session)
			assert.InDelta(t, tt.factor, factor, 1e-9)
		})
	}
}

func TestSessionForTimeConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 18:00 UTC+5 is 13:00 UTC, inside the overlap window.
	session, factor := SessionForTime(time.Date(2026, 3, 10, 18, 0, 0, 0, loc))
	assert.Equal(t, SessionOverlap, session)
	assert.InDelta(t, 1.1, factor, 1e-9)
}

func TestTradingSessionValues(t *testing.T) {
	tests := []struct {
		session TradingSession
		value   string
	}{
		{SessionAsian, "ASIAN"},
		{SessionEuropean, "EUROPEAN"},
		{SessionUS, "US"},
		{SessionOverlap, "OVERLAP"},
		{SessionUnknown, "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.value, string(tt.session))
	}
}

func TestNewNullSignal(t *testing.T) {
	q := NewNullSignal("BTC/USDT", Timeframe1h, "no prediction available")

	assert.Equal(t, SignalHold, q.Signal)
	assert.Equal(t, "BTC/USDT", q.Symbol)
	assert.Equal(t, Timeframe1h, q.Timeframe)
	assert.Zero(t, q.QualityScore)
	assert.Zero(t, q.Confidence)
	assert.Zero(t, q.Consistency)
	assert.Zero(t, q.TimingScore)
	assert.Zero(t, q.RiskScore)
	require.NotEmpty(t, q.RejectionReasons)
	assert.Contains(t, q.RejectionReasons, "no prediction available")
	assert.True(t, q.IsNull())
	assert.NotEmpty(t, q.ID)
}

func TestNewNullSignalDefaultReason(t *testing.T) {
	q := NewNullSignal("ETH/USDT", Timeframe15m)
	require.NotEmpty(t, q.RejectionReasons)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-0.3))
	assert.Equal(t, 1.0, ClampScore(1.7))
	assert.Equal(t, 0.42, ClampScore(0.42))
}

func TestTimeframe(t *testing.T) {
	assert.True(t, Timeframe1m.Valid())
	assert.True(t, Timeframe4h.Valid())
	assert.False(t, Timeframe("2h").Valid())
	assert.Equal(t, 15*time.Minute, Timeframe15m.Duration())
	assert.Equal(t, 4*time.Hour, Timeframe4h.Duration())
	assert.Len(t, LadderTimeframes, 5)
}
