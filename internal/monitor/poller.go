// Package monitor runs the change-detection loop: fetch the open outages for
// one county, notify once about outages not seen before, then persist the
// grown set of known outage keys.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/observability"
	"github.com/couchcryptid/water-outage-monitor/internal/state"
)

// Options configure one poller.
type Options struct {
	County   string
	RefNum   string
	Location string
	Interval time.Duration
	// Baseline records the first fetch of an empty state without notifying.
	Baseline bool
}

// CycleResult summarizes one fetch-compare-notify-persist cycle.
type CycleResult struct {
	CycleID   string
	Fetched   int
	New       []domain.Outage
	Notified  bool
	Baselined bool
	FetchErr  error
	NotifyErr error
	SaveErr   error
}

// Poller owns the in-memory MonitorState for one county.
type Poller struct {
	opts     Options
	fetcher  domain.OutageFetcher
	notifier domain.Notifier
	store    state.Store
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu     sync.Mutex
	state  *state.MonitorState
	cycles int
}

// New creates a Poller.
func New(opts Options, fetcher domain.OutageFetcher, notifier domain.Notifier, store state.Store,
	clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics,
) *Poller {
	return &Poller{
		opts:     opts,
		fetcher:  fetcher,
		notifier: notifier,
		store:    store,
		clock:    clock,
		logger:   logger.With("county", opts.County),
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a cycle has fetched successfully.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("poller has not completed a successful fetch yet")
	}
	return nil
}

// Known returns the number of outage keys held in state.
func (p *Poller) Known() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		return 0
	}
	return p.state.Len()
}

// LoadState reads the persisted state. Read failures, and state recorded for
// another county, degrade to an empty state. County names compare without
// regard to case.
func (p *Poller) LoadState(ctx context.Context) {
	st, err := p.store.Load(ctx)
	if err != nil {
		p.logger.Warn("state unreadable, starting empty", "error", err)
		st = state.New(p.opts.County)
	}
	if st.County != "" && !strings.EqualFold(st.County, p.opts.County) {
		p.logger.Warn("state belongs to another county, starting empty", "state_county", st.County)
		st = state.New(p.opts.County)
	}
	st.County = p.opts.County

	p.mu.Lock()
	p.state = st
	p.mu.Unlock()

	p.metrics.KnownOutages.Set(float64(st.Len()))
	p.logger.Info("state loaded", "known", st.Len())
}

// Run loads the state, then cycles until ctx is cancelled. Cancellation is
// only observed between cycles.
func (p *Poller) Run(ctx context.Context) error {
	p.LoadState(ctx)
	p.logger.Info("poller started", "interval", p.opts.Interval)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	for {
		if ctx.Err() != nil {
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		}

		p.RunCycle(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		case <-p.clock.After(p.opts.Interval):
		}
	}
}

// RunCycle performs one cycle. It is not interrupted by cancellation of ctx;
// each outbound call is bounded by its own timeout instead.
func (p *Poller) RunCycle(ctx context.Context) CycleResult {
	ctx = context.WithoutCancel(ctx)
	start := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		p.state = state.New(p.opts.County)
	}

	res := CycleResult{CycleID: uuid.NewString()}
	log := p.logger.With("cycle_id", res.CycleID)

	raws, err := p.fetcher.FetchOpenOutages(ctx, p.opts.County)
	if err != nil {
		res.FetchErr = err
		p.metrics.PollCycles.WithLabelValues("fetch_error").Inc()
		log.Error("fetch failed, skipping cycle", "error", err)
		return res
	}
	p.ready.Store(true)

	outages := domain.Filter(domain.NormalizeAll(raws), p.opts.RefNum, p.opts.Location)
	res.Fetched = len(outages)
	p.metrics.OutagesFetched.Set(float64(len(outages)))

	res.New = Delta(p.state, outages)
	firstRun := p.cycles == 0 && p.state.Len() == 0
	p.cycles++

	switch {
	case len(res.New) == 0:
	case p.opts.Baseline && firstRun:
		res.Baselined = true
		log.Info("baseline recorded without notification", "outages", len(res.New))
	default:
		p.metrics.NewOutages.Add(float64(len(res.New)))
		res.NotifyErr = p.notifier.Notify(ctx, p.opts.County, res.New)
		if res.NotifyErr != nil {
			p.metrics.Notifications.WithLabelValues("error").Inc()
			log.Error("notification failed", "error", res.NotifyErr, "new", len(res.New))
		} else {
			res.Notified = true
			p.metrics.Notifications.WithLabelValues("success").Inc()
		}
	}

	// Every fetched key becomes known whatever the notification outcome.
	now := p.clock.Now()
	for _, o := range outages {
		p.state.Mark(o.Key(), o.Title, now)
	}
	p.metrics.KnownOutages.Set(float64(p.state.Len()))

	if err := p.store.Save(ctx, p.state); err != nil {
		res.SaveErr = err
		p.metrics.StateSaveErrors.Inc()
		log.Error("state save failed", "error", err)
	}

	p.metrics.PollCycles.WithLabelValues("success").Inc()
	p.metrics.PollCycleDuration.Observe(p.clock.Since(start).Seconds())
	log.Info("poll cycle complete",
		"fetched", res.Fetched, "new", len(res.New), "known", p.state.Len())
	return res
}

// Delta returns the outages whose key is not yet in st, in input order.
// Duplicate keys within outages are reported once.
func Delta(st *state.MonitorState, outages []domain.Outage) []domain.Outage {
	var fresh []domain.Outage
	seen := make(map[string]struct{}, len(outages))
	for _, o := range outages {
		key := o.Key()
		if st.Has(key) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, o)
	}
	return fresh
}
