package printsvc

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/printshare/internal/advertise"
	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// ResyncResult counts what a Resync pass changed.
type ResyncResult struct {
	Added     int
	Withdrawn int
	Conflicts []string
}

// Changed reports whether the pass touched any record.
func (r ResyncResult) Changed() bool { return r.Added > 0 || r.Withdrawn > 0 }

// Resync brings the advertised records in line with the installed printers
// while sharing is enabled: records of removed printers are withdrawn and new
// printers are registered. It does nothing when sharing is off. A failed
// listing leaves the current records untouched.
func (s *Service) Resync(ctx context.Context) (ResyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled.Load() {
		return ResyncResult{}, nil
	}

	records, err := s.desiredRecords(ctx)
	if err != nil {
		return ResyncResult{}, err
	}

	want := make(map[string]advertise.Record, len(records))
	for _, rec := range records {
		want[rec.Name] = rec
	}

	var res ResyncResult
	kept := s.handles[:0]
	have := make(map[string]bool, len(s.handles))
	for _, h := range s.handles {
		if _, ok := want[h.Name]; ok {
			kept = append(kept, h)
			have[h.Name] = true
			continue
		}
		if err := s.adv.Unregister(h); err != nil {
			s.log.Warn("unregister failed", logger.String("name", h.Name), logger.Error(err))
		}
		res.Withdrawn++
	}
	s.handles = kept

	conflicts := []string{}
	for _, rec := range records {
		if have[rec.Name] {
			continue
		}
		h, err := s.adv.Register(ctx, rec)
		switch {
		case err == nil:
			s.handles = append(s.handles, h)
			res.Added++
		case errors.Is(err, domain.ErrAdvertisementConflict):
			conflicts = append(conflicts, rec.Name)
		default:
			// Left out of the record set; the next pass retries it.
			s.log.Warn("advertisement failed during resync", logger.String("name", rec.Name), logger.Error(err))
		}
	}
	s.conflicts = conflicts
	res.Conflicts = append([]string{}, conflicts...)
	s.setAdvertised(len(s.handles))

	if res.Changed() {
		s.log.Info("advertisements resynced",
			logger.Int("added", res.Added),
			logger.Int("withdrawn", res.Withdrawn),
			logger.Int("advertised", len(s.handles)))
	}
	return res, nil
}
