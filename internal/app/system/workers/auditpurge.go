// internal/app/system/workers/auditpurge.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/carbonhub/internal/app/store/audit"
	"github.com/dalemusser/carbonhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// AuditPurge is a background worker that permanently removes soft-deleted
// audit events once their restore window has elapsed.
type AuditPurge struct {
	audit    *audit.Store
	log      *zap.Logger
	interval time.Duration
	window   time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewAuditPurge creates a new audit purge worker.
//
// Parameters:
//   - auditStore: the audit event store
//   - logger: zap logger for logging
//   - interval: how often to run the purge (e.g., 1 hour)
//   - window: how long soft-deleted events stay restorable (e.g., 30 days)
func NewAuditPurge(auditStore *audit.Store, logger *zap.Logger, interval, window time.Duration) *AuditPurge {
	return &AuditPurge{
		audit:    auditStore,
		log:      logger,
		interval: interval,
		window:   window,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background purge loop.
func (w *AuditPurge) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("audit purge worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("restore_window", w.window))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *AuditPurge) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("audit purge worker stopped")
}

func (w *AuditPurge) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.purge()
		}
	}
}

func (w *AuditPurge) purge() {
	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Batch(), w.log, "audit purge sweep")
	defer cancel()

	count, err := w.audit.PurgeDeleted(ctx, w.window)
	if err != nil {
		w.log.Error("failed to purge deleted audit events", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("purged deleted audit events", zap.Int64("count", count))
	}
}
