package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot(t *testing.T) {
	stats := Snapshot(context.Background())

	assert.Greater(t, stats.HeapAllocMB, 0.0)
	assert.Greater(t, stats.HeapSysMB, 0.0)
	assert.Greater(t, stats.NumGoroutine, 0)
	assert.GreaterOrEqual(t, stats.CPUPercent, 0.0)
	assert.GreaterOrEqual(t, stats.MemoryPercent, 0.0)
}
