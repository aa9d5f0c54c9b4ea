package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/printshare/internal/logger"
	"github.com/MrSnakeDoc/printshare/internal/printsvc"
)

type countingResyncer struct {
	calls atomic.Int32
	err   error
}

func (c *countingResyncer) Resync(context.Context) (printsvc.ResyncResult, error) {
	c.calls.Add(1)
	return printsvc.ResyncResult{}, c.err
}

func TestPrinterSync_RunsPeriodically(t *testing.T) {
	r := &countingResyncer{}
	ps := NewPrinterSync(r, logger.New("error", false), 10*time.Millisecond)

	ps.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	ps.Stop()

	if got := r.calls.Load(); got < 3 {
		t.Fatalf("expected at least 3 passes, got %d", got)
	}

	after := r.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if r.calls.Load() != after {
		t.Error("sync kept running after Stop")
	}
	ps.Stop()
}

func TestPrinterSync_StopsWithContext(t *testing.T) {
	r := &countingResyncer{err: errors.New("scheduler down")}
	ps := NewPrinterSync(r, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	ps.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		ps.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}

func TestNewPrinterSync_DefaultInterval(t *testing.T) {
	ps := NewPrinterSync(&countingResyncer{}, nil, 0)
	if ps.interval != DefaultSyncInterval {
		t.Errorf("interval = %v, want %v", ps.interval, DefaultSyncInterval)
	}
}
