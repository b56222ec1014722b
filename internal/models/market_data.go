package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe identifies a candle interval.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
)

// LadderTimeframes is the fixed ladder used for multi-timeframe analysis,
// ordered from fastest to slowest.
var LadderTimeframes = []Timeframe{
	Timeframe1m,
	Timeframe5m,
	Timeframe15m,
	Timeframe1h,
	Timeframe4h,
}

// Duration returns the candle interval as a time.Duration.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case Timeframe1m:
		return time.Minute
	case Timeframe5m:
		return 5 * time.Minute
	case Timeframe15m:
		return 15 * time.Minute
	case Timeframe1h:
		return time.Hour
	case Timeframe4h:
		return 4 * time.Hour
	default:
		return time.Hour
	}
}

// Valid reports whether the timeframe is one of the supported intervals.
func (t Timeframe) Valid() bool {
	switch t {
	case Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h:
		return true
	}
	return false
}

// Candle is a single OHLCV bar. Prices and volume are carried as decimals
// at the storage boundary; indicator math converts to float64.
type Candle struct {
	Timestamp time.Time       `json:"timestamp" db:"ts"`
	Open      decimal.Decimal `json:"open" db:"open"`
	High      decimal.Decimal `json:"high" db:"high"`
	Low       decimal.Decimal `json:"low" db:"low"`
	Close     decimal.Decimal `json:"close" db:"close"`
	Volume    decimal.Decimal `json:"volume" db:"volume"`
}

// Window is a chronologically ordered candle series (oldest first).
type Window []Candle

// Closes returns the close series as float64 values.
func (w Window) Closes() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

// Highs returns the high series as float64 values.
func (w Window) Highs() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.High.InexactFloat64()
	}
	return out
}

// Lows returns the low series as float64 values.
func (w Window) Lows() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Low.InexactFloat64()
	}
	return out
}

// Volumes returns the volume series as float64 values.
func (w Window) Volumes() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Volume.InexactFloat64()
	}
	return out
}

// Last returns the most recent candle and false when the window is empty.
func (w Window) Last() (Candle, bool) {
	if len(w) == 0 {
		return Candle{}, false
	}
	return w[len(w)-1], true
}
