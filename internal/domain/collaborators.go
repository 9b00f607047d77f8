package domain

import "context"

// OutageFetcher retrieves the open, approved outage records for a county,
// ordered by start date descending.
type OutageFetcher interface {
	FetchOpenOutages(ctx context.Context, county string) ([]RawOutageRecord, error)
}

// Notifier delivers a message about newly detected outages. Implementations
// are invoked at most once per poll cycle with a non-empty batch.
type Notifier interface {
	Notify(ctx context.Context, county string, outages []Outage) error
}
