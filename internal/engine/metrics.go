package engine

import (
	"sync"
	"time"

	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

// emaAlpha is the smoothing factor of the running averages.
const emaAlpha = 0.2

// Summary is a point-in-time snapshot of processing metrics.
type Summary struct {
	Processed   int64 `json:"processed"`
	Approved    int64 `json:"approved"`
	Rejected    int64 `json:"rejected"`
	NullSignals int64 `json:"null_signals"`

	AvgQualityScore float64 `json:"avg_quality_score"`
	AvgConfidence   float64 `json:"avg_confidence"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`

	RejectionReasons map[string]int64 `json:"rejection_reasons"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// Recorder accumulates evaluation and decision metrics. All updates are
// serialized behind one mutex.
type Recorder struct {
	mu sync.Mutex

	processed   int64
	approved    int64
	rejected    int64
	nullSignals int64

	avgQuality    float64
	avgConfidence float64
	avgLatencyMs  float64

	rejectionReasons map[string]int64
}

func NewRecorder() *Recorder {
	return &Recorder{
		rejectionReasons: make(map[string]int64),
	}
}

// RecordEvaluation folds one completed evaluation into the aggregates.
func (r *Recorder) RecordEvaluation(q *models.SignalQuality, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.processed++
	if q.IsNull() {
		r.nullSignals++
	}
	r.avgQuality = ewma(r.avgQuality, q.QualityScore, r.processed)
	r.avgConfidence = ewma(r.avgConfidence, q.Confidence, r.processed)
	r.avgLatencyMs = ewma(r.avgLatencyMs, float64(latency.Milliseconds()), r.processed)
}

// RecordDecision counts a gate verdict and buckets the rejection reason.
func (r *Recorder) RecordDecision(approved bool, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if approved {
		r.approved++
		return
	}
	r.rejected++
	r.rejectionReasons[reason]++
}

// Snapshot returns a copy of the current aggregates.
func (r *Recorder) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	reasons := make(map[string]int64, len(r.rejectionReasons))
	for k, v := range r.rejectionReasons {
		reasons[k] = v
	}

	return Summary{
		Processed:        r.processed,
		Approved:         r.approved,
		Rejected:         r.rejected,
		NullSignals:      r.nullSignals,
		AvgQualityScore:  r.avgQuality,
		AvgConfidence:    r.avgConfidence,
		AvgLatencyMs:     r.avgLatencyMs,
		RejectionReasons: reasons,
		GeneratedAt:      time.Now().UTC(),
	}
}

// ewma seeds with the first sample, then applies exponential smoothing.
func ewma(prev, sample float64, count int64) float64 {
	if count <= 1 {
		return sample
	}
	return prev + emaAlpha*(sample-prev)
}
