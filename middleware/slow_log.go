package middleware

import (
	"context"
	"time"

	"github.com/seamdb/seam/core"
	"github.com/seamdb/seam/logger"
)

// SlowLog warns about reads that exceed a duration threshold.
type SlowLog struct {
	Threshold time.Duration
	log       logger.Logger
}

// NewSlowLog creates a slow-query logger. Queries at or above threshold are
// reported through l at warn level.
func NewSlowLog(threshold time.Duration, l logger.Logger) *SlowLog {
	return &SlowLog{Threshold: threshold, log: l}
}

func (m *SlowLog) Name() string { return "SlowLog" }

// Process times the rest of the chain and logs when it was slow.
func (m *SlowLog) Process(ctx context.Context, q *core.Query, next core.QueryFunc) (*core.Result, error) {
	start := time.Now()
	res, err := next(ctx, q)
	if d := time.Since(start); d >= m.Threshold && m.log != nil {
		m.log.Warn("slow query (%v): %s", d, q.SQL)
	}
	return res, err
}
