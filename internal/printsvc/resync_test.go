package printsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/printshare/internal/domain"
)

func (b *fakeBackend) setPrinters(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.printers = nil
	for _, n := range names {
		b.printers = append(b.printers, domain.Printer{SystemName: n})
	}
}

func TestResyncWhileDisabled(t *testing.T) {
	b := labelWriterHost()
	adv := newFakeAdvertiser()
	svc, _ := newTestService(b, adv, "station1")

	res, err := svc.Resync(context.Background())
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if res.Changed() || len(adv.names()) != 0 {
		t.Errorf("resync must not advertise while sharing is off, got %+v %v", res, adv.names())
	}
}

func TestResyncFollowsPrinterChanges(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{}
	b.setPrinters("LabelWriter", "Office")
	adv := newFakeAdvertiser()
	svc, rec := newTestService(b, adv, "station1")

	if _, err := svc.EnableSharing(ctx); err != nil {
		t.Fatalf("EnableSharing: %v", err)
	}

	b.setPrinters("LabelWriter", "Garage")
	res, err := svc.Resync(ctx)
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if res.Added != 1 || res.Withdrawn != 1 {
		t.Errorf("expected one added and one withdrawn, got %+v", res)
	}
	names := adv.names()
	if !names["LabelWriter - station1"] || !names["Garage - station1"] || names["Office - station1"] {
		t.Errorf("unexpected live records %v", names)
	}
	if st := svc.Status(ctx); st.Advertised != 2 || !st.Enabled {
		t.Errorf("unexpected status %+v", st)
	}
	if rec.advertised != 2 {
		t.Errorf("recorder saw %d advertised, want 2", rec.advertised)
	}

	res, err = svc.Resync(ctx)
	if err != nil || res.Changed() {
		t.Errorf("second pass should be a no-op, got %+v %v", res, err)
	}
}

func TestResyncFallsBackToServerRecord(t *testing.T) {
	ctx := context.Background()
	b := labelWriterHost()
	adv := newFakeAdvertiser()
	svc, _ := newTestService(b, adv, "station1")

	if _, err := svc.EnableSharing(ctx); err != nil {
		t.Fatalf("EnableSharing: %v", err)
	}
	b.setPrinters()
	if _, err := svc.Resync(ctx); err != nil {
		t.Fatalf("Resync: %v", err)
	}
	names := adv.names()
	if len(names) != 1 || !names["printshare - station1"] {
		t.Errorf("expected only the server record, got %v", names)
	}
}

func TestResyncKeepsRecordsWhenBackendFails(t *testing.T) {
	ctx := context.Background()
	b := labelWriterHost()
	adv := newFakeAdvertiser()
	svc, _ := newTestService(b, adv, "station1")

	if _, err := svc.EnableSharing(ctx); err != nil {
		t.Fatalf("EnableSharing: %v", err)
	}
	b.mu.Lock()
	b.listErr = domain.Errorf(domain.KindBackendUnavailable, "scheduler down")
	b.mu.Unlock()

	if _, err := svc.Resync(ctx); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected BackendUnavailable, got %v", err)
	}
	if names := adv.names(); !names["LabelWriter - station1"] {
		t.Errorf("records must survive a failed listing, got %v", names)
	}
}

func TestResyncReportsConflicts(t *testing.T) {
	ctx := context.Background()
	b := labelWriterHost()
	adv := newFakeAdvertiser()
	adv.conflict["Office - station1"] = true
	svc, _ := newTestService(b, adv, "station1")

	if _, err := svc.EnableSharing(ctx); err != nil {
		t.Fatalf("EnableSharing: %v", err)
	}
	b.setPrinters("LabelWriter", "Office")
	res, err := svc.Resync(ctx)
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if res.Added != 0 || len(res.Conflicts) != 1 || res.Conflicts[0] != "Office - station1" {
		t.Errorf("unexpected result %+v", res)
	}
}
