package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/printshare/internal/logger"
	"github.com/MrSnakeDoc/printshare/internal/printsvc"
)

// DefaultSyncInterval is how often installed printers are re-read while
// sharing is enabled.
const DefaultSyncInterval = 30 * time.Second

// Resyncer is satisfied by *printsvc.Service.
type Resyncer interface {
	Resync(ctx context.Context) (printsvc.ResyncResult, error)
}

// PrinterSync keeps DNS-SD records aligned with printers that are added or
// removed after sharing was enabled.
type PrinterSync struct {
	svc      Resyncer
	logger   logger.Logger
	interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewPrinterSync creates a new printer sync job. A zero interval uses
// DefaultSyncInterval.
func NewPrinterSync(svc Resyncer, log logger.Logger, interval time.Duration) *PrinterSync {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PrinterSync{
		svc:      svc,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the periodic resync in the background.
func (ps *PrinterSync) Start(ctx context.Context) {
	ticker := time.NewTicker(ps.interval)
	go func() {
		defer close(ps.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ps.Sync(ctx)
			case <-ps.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight pass to finish.
// Safe to call more than once, and only after Start.
func (ps *PrinterSync) Stop() {
	ps.stopOnce.Do(func() { close(ps.stopCh) })
	<-ps.done
}

// Sync runs a single pass.
func (ps *PrinterSync) Sync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, ps.interval)
	defer cancel()

	res, err := ps.svc.Resync(ctx)
	if err != nil {
		ps.logger.Warn("printer resync failed", logger.Error(err))
		return
	}
	if !res.Changed() {
		ps.logger.Debug("printer resync: nothing to do")
	}
}
