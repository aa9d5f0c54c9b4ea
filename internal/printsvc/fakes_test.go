package printsvc

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/printshare/internal/advertise"
	"github.com/MrSnakeDoc/printshare/internal/domain"
)

type submitCall struct {
	system  string
	payload domain.Payload
}

type fakeBackend struct {
	mu        sync.Mutex
	printers  []domain.Printer
	listErr   error
	submitErr error
	submits   []submitCall
}

func (b *fakeBackend) Kind() domain.BackendKind { return domain.BackendCUPS }

func (b *fakeBackend) ListPrinters(context.Context) ([]domain.Printer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]domain.Printer(nil), b.printers...), nil
}

func (b *fakeBackend) Submit(_ context.Context, system string, p domain.Payload) (domain.JobHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return domain.JobHandle{}, b.submitErr
	}
	b.submits = append(b.submits, submitCall{system: system, payload: p})
	return domain.JobHandle{ID: "17", Printer: system}, nil
}

func (b *fakeBackend) Available(context.Context) error { return b.listErr }

type fakeAdvertiser struct {
	mu       sync.Mutex
	next     uint64
	live     map[string]advertise.Record
	conflict map[string]bool
	fail     map[string]error
	browse   []advertise.Entry
	closed   bool
	released []string
}

func newFakeAdvertiser() *fakeAdvertiser {
	return &fakeAdvertiser{
		live:     map[string]advertise.Record{},
		conflict: map[string]bool{},
		fail:     map[string]error{},
	}
}

func (a *fakeAdvertiser) Register(_ context.Context, rec advertise.Record) (advertise.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.fail[rec.Name]; err != nil {
		return advertise.Handle{}, err
	}
	if a.conflict[rec.Name] {
		return advertise.Handle{}, domain.Errorf(domain.KindAdvertisementConflict, "%q taken", rec.Name)
	}
	a.live[rec.Name] = rec
	return advertise.Handle{Name: rec.Name}, nil
}

func (a *fakeAdvertiser) Unregister(h advertise.Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.live[h.Name]; ok {
		delete(a.live, h.Name)
		a.released = append(a.released, h.Name)
	}
	return nil
}

func (a *fakeAdvertiser) Browse(context.Context) ([]advertise.Entry, error) {
	return a.browse, nil
}

func (a *fakeAdvertiser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.live = map[string]advertise.Record{}
	return nil
}

func (a *fakeAdvertiser) names() map[string]bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := map[string]bool{}
	for n := range a.live {
		out[n] = true
	}
	return out
}

type countingRecorder struct {
	mu         sync.Mutex
	outcomes   map[string]int
	advertised int
}

func (r *countingRecorder) JobSubmitted(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func (r *countingRecorder) Advertised(n int) {
	r.mu.Lock()
	r.advertised = n
	r.mu.Unlock()
}
