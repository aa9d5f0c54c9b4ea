// Package printsvc implements the print sharing operations on top of a
// backend and an advertiser. HTTP concerns live in internal/httpserver.
package printsvc

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/MrSnakeDoc/printshare/internal/advertise"
	"github.com/MrSnakeDoc/printshare/internal/backend"
	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// Recorder receives service-level measurements.
type Recorder interface {
	JobSubmitted(outcome string)
	Advertised(n int)
}

type nopRecorder struct{}

func (nopRecorder) JobSubmitted(string) {}
func (nopRecorder) Advertised(int)      {}

type Options struct {
	HostIdentity string
	// Port is published in every DNS-SD record.
	Port     int
	Logger   logger.Logger
	Recorder Recorder
}

// Service holds the process-wide sharing state. Enable and disable are
// serialized; status, listing and printing run concurrently.
type Service struct {
	backend backend.Backend
	adv     advertise.Advertiser
	host    string
	port    int
	log     logger.Logger
	rec     Recorder

	mu        sync.Mutex
	handles   []advertise.Handle
	conflicts []string

	enabled    atomic.Bool
	advertised atomic.Int64
}

func New(b backend.Backend, a advertise.Advertiser, opts Options) *Service {
	s := &Service{
		backend: b,
		adv:     a,
		host:    strings.TrimSpace(opts.HostIdentity),
		port:    opts.Port,
		log:     opts.Logger,
		rec:     opts.Recorder,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}
	return s
}

// Status is the answer to GET /status.
type Status struct {
	Enabled          bool               `json:"enabled"`
	BackendAvailable bool               `json:"backendAvailable"`
	BackendKind      domain.BackendKind `json:"backendKind"`
	BackendError     string             `json:"backendError,omitempty"`
	Advertised       int                `json:"advertised"`
	HostIdentity     string             `json:"hostIdentity"`
}

func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		Enabled:          s.enabled.Load(),
		BackendAvailable: true,
		BackendKind:      s.backend.Kind(),
		Advertised:       int(s.advertised.Load()),
		HostIdentity:     s.host,
	}
	if err := s.backend.Available(ctx); err != nil {
		st.BackendAvailable = false
		st.BackendError = domain.MessageOf(err)
	}
	return st
}

// Enabled reports the sharing flag without taking the transition lock.
func (s *Service) Enabled() bool { return s.enabled.Load() }

// ListPrinters enumerates the host's printers with display names applied.
func (s *Service) ListPrinters(ctx context.Context) ([]domain.Printer, error) {
	printers, err := s.backend.ListPrinters(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Decorate(printers, s.host), nil
}
