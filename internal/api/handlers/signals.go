package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradeforge-io/signal-engine-go/internal/engine"
	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
	"github.com/tradeforge-io/signal-engine-go/internal/monitor"
	"github.com/tradeforge-io/signal-engine-go/internal/notify"
)

// SignalHandler serves the evaluation and decision endpoints.
type SignalHandler struct {
	engine   *engine.Engine
	notifier *notify.TelegramNotifier
	logger   logging.Logger
}

func NewSignalHandler(eng *engine.Engine, notifier *notify.TelegramNotifier, logger logging.Logger) *SignalHandler {
	return &SignalHandler{
		engine:   eng,
		notifier: notifier,
		logger:   logger.WithComponent("signal_handler"),
	}
}

// EvaluationResponse pairs an evaluated signal with its gate verdict.
type EvaluationResponse struct {
	Signal    *models.SignalQuality `json:"signal"`
	Execute   bool                  `json:"execute"`
	Reason    string                `json:"reason"`
	Timestamp time.Time             `json:"timestamp"`
}

// EvaluateSignal evaluates one symbol and runs the decision gate over the
// result. The evaluation itself never fails; a null signal with rejection
// reasons is still a 200.
func (h *SignalHandler) EvaluateSignal(c *gin.Context) {
	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol parameter is required"})
		return
	}

	timeframe := models.Timeframe(c.DefaultQuery("timeframe", string(h.engine.PrimaryTimeframe())))
	if !timeframe.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported timeframe"})
		return
	}

	start := time.Now()
	quality := h.engine.ProcessSignal(c.Request.Context(), symbol, timeframe)
	execute, reason := h.engine.ShouldExecuteSignal(quality)

	if execute {
		h.notifier.NotifyApproved(c.Request.Context(), quality, reason)
	}

	h.logger.LogAPIRequest(c.Request.Method, c.FullPath(), http.StatusOK, time.Since(start).Milliseconds())
	c.JSON(http.StatusOK, EvaluationResponse{
		Signal:    quality,
		Execute:   execute,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

// DecideSignal runs the decision gate over a caller-supplied evaluation,
// without re-evaluating. Useful for replaying stored signals against the
// current policy.
func (h *SignalHandler) DecideSignal(c *gin.Context) {
	var quality models.SignalQuality
	if err := c.ShouldBindJSON(&quality); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signal payload: " + err.Error()})
		return
	}

	execute, reason := h.engine.ShouldExecuteSignal(&quality)
	c.JSON(http.StatusOK, gin.H{
		"execute":   execute,
		"reason":    reason,
		"timestamp": time.Now().UTC(),
	})
}

// SummaryResponse is the processing summary plus resource stats.
type SummaryResponse struct {
	Summary   engine.Summary        `json:"summary"`
	Resources monitor.ResourceStats `json:"resources"`
}

// GetSummary reports processing metrics and resource usage.
func (h *SignalHandler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, SummaryResponse{
		Summary:   h.engine.ProcessingSummary(),
		Resources: monitor.Snapshot(c.Request.Context()),
	})
}
