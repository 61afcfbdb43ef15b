package store

import (
	"context"
	"time"

	"github.com/docsched/docsched/internal/metrics"
)

// observeDB times a repository call. Use as:
//
//	defer observeDB(ctx, "audits.append")()
func observeDB(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveDBLatency(ctx, operation, start)
	}
}
