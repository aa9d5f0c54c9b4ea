package printsvc

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/printshare/internal/advertise"
	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// SharingResult is the answer to /enable and /disable.
type SharingResult struct {
	Enabled    bool     `json:"enabled"`
	Advertised int      `json:"advertised"`
	Conflicts  []string `json:"conflicts"`
}

// EnableSharing advertises one record per printer (or a single server record
// when there are none). Name conflicts are reported and skipped; any other
// registration failure withdraws everything this call registered.
func (s *Service) EnableSharing(ctx context.Context) (SharingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled.Load() {
		return s.resultLocked(), nil
	}

	records, err := s.desiredRecords(ctx)
	if err != nil {
		return SharingResult{}, err
	}

	var (
		registered []advertise.Handle
		conflicts  = []string{}
	)
	for _, rec := range records {
		h, err := s.adv.Register(ctx, rec)
		if err == nil {
			registered = append(registered, h)
			continue
		}
		if errors.Is(err, domain.ErrAdvertisementConflict) {
			s.log.Warn("advertisement conflict", logger.String("name", rec.Name), logger.Error(err))
			conflicts = append(conflicts, rec.Name)
			continue
		}

		s.log.Error("advertisement failed, rolling back", logger.String("name", rec.Name), logger.Error(err))
		for _, done := range registered {
			if uerr := s.adv.Unregister(done); uerr != nil {
				s.log.Warn("rollback unregister failed", logger.String("name", done.Name), logger.Error(uerr))
			}
		}
		return SharingResult{}, err
	}

	s.handles = registered
	s.conflicts = conflicts
	s.enabled.Store(true)
	s.setAdvertised(len(registered))

	s.log.Info("sharing enabled",
		logger.Int("advertised", len(registered)),
		logger.Strings("conflicts", conflicts))
	return s.resultLocked(), nil
}

// DisableSharing withdraws every record. It is idempotent and never fails:
// release errors are logged and the state is cleared regardless.
func (s *Service) DisableSharing(_ context.Context) (SharingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked()
	return s.resultLocked(), nil
}

func (s *Service) releaseLocked() {
	if !s.enabled.Load() && len(s.handles) == 0 {
		return
	}
	for _, h := range s.handles {
		if err := s.adv.Unregister(h); err != nil {
			s.log.Warn("unregister failed", logger.String("name", h.Name), logger.Error(err))
		}
	}
	n := len(s.handles)
	s.handles = nil
	s.conflicts = nil
	s.enabled.Store(false)
	s.setAdvertised(0)
	s.log.Info("sharing disabled", logger.Int("withdrawn", n))
}

// desiredRecords is the record set matching the printers installed right now.
func (s *Service) desiredRecords(ctx context.Context) ([]advertise.Record, error) {
	printers, err := s.ListPrinters(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]advertise.Record, 0, len(printers))
	for _, p := range printers {
		records = append(records, advertise.PrinterRecord(p.DisplayName, p.SystemName, s.host, s.port))
	}
	if len(records) == 0 {
		s.log.Info("no printers found, advertising server record only")
		records = append(records, advertise.ServerRecord(s.host, s.port))
	}
	return records, nil
}

func (s *Service) resultLocked() SharingResult {
	conflicts := make([]string, len(s.conflicts))
	copy(conflicts, s.conflicts)
	return SharingResult{
		Enabled:    s.enabled.Load(),
		Advertised: len(s.handles),
		Conflicts:  conflicts,
	}
}

func (s *Service) setAdvertised(n int) {
	s.advertised.Store(int64(n))
	s.rec.Advertised(n)
}

// Close withdraws all records and shuts the advertiser down. Safe to call
// whether or not sharing was ever enabled.
func (s *Service) Close() error {
	s.mu.Lock()
	s.releaseLocked()
	s.mu.Unlock()
	return s.adv.Close()
}
