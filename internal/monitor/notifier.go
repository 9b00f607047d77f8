package monitor

import (
	"context"
	"errors"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
)

// MultiNotifier delivers to every notifier in order. One failing channel does
// not stop the others; failures are joined.
type MultiNotifier []domain.Notifier

func (m MultiNotifier) Notify(ctx context.Context, county string, outages []domain.Outage) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, county, outages); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
