// Package query answers outage lookups for the HTTP API: fetch the open
// outages for a county, normalize them and apply the optional filters.
package query

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
)

// Result is the response to one outage query.
type Result struct {
	County         string          `json:"county"`
	RefNum         *string         `json:"refnum"`
	LocationFilter *string         `json:"locationFilter"`
	Count          int             `json:"count"`
	Outages        []domain.Outage `json:"outages"`
}

// Service runs outage queries against a fetcher. It holds no mutable state,
// so concurrent callers are independent.
type Service struct {
	fetcher domain.OutageFetcher
	logger  *slog.Logger
}

// NewService creates a query service.
func NewService(fetcher domain.OutageFetcher, logger *slog.Logger) *Service {
	return &Service{fetcher: fetcher, logger: logger}
}

// Outages fetches, normalizes and filters outages for q. Fetch failures are
// returned unchanged and wrap domain.ErrUpstreamFetch.
func (s *Service) Outages(ctx context.Context, q domain.Query) (Result, error) {
	raws, err := s.fetcher.FetchOpenOutages(ctx, q.County)
	if err != nil {
		return Result{}, err
	}

	outages := domain.Filter(domain.NormalizeAll(raws), q.RefNum, q.Location)
	if outages == nil {
		outages = []domain.Outage{}
	}
	s.logger.Debug("outage query served",
		"county", q.County, "fetched", len(raws), "matched", len(outages))

	return Result{
		County:         q.County,
		RefNum:         optional(q.RefNum),
		LocationFilter: optional(q.Location),
		Count:          len(outages),
		Outages:        outages,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
