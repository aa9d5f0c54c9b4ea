package printsvc

import (
	"context"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/printshare/internal/domain"
)

// Discovered is a printer shared by another host on the segment.
type Discovered struct {
	Name         string `json:"name"`
	SystemName   string `json:"systemName"`
	HostIdentity string `json:"hostIdentity"`
	Address      string `json:"address"`
	Port         int    `json:"port"`
	Sharing      bool   `json:"sharing"`
}

// Discover browses for printer records published by other hosts.
func (s *Service) Discover(ctx context.Context) ([]Discovered, error) {
	entries, err := s.adv.Browse(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Discovered, 0, len(entries))
	for _, e := range entries {
		if e.TXT["kind"] == "server" {
			continue
		}
		system, host := domain.SplitDisplayName(e.Instance)
		if v := e.TXT["raw_name"]; v != "" {
			system = v
		}
		if v := e.TXT["hostname"]; v != "" {
			host = v
		}
		if s.host != "" && strings.EqualFold(host, s.host) {
			continue
		}
		out = append(out, Discovered{
			Name:         e.Instance,
			SystemName:   system,
			HostIdentity: host,
			Address:      e.Addr,
			Port:         e.Port,
			Sharing:      e.TXT["sharing"] == "true",
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
