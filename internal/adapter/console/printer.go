package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/report"
)

// Printer writes outage summaries to a terminal. As a domain.Notifier it
// prints each batch of new outages.
type Printer struct {
	mu       sync.Mutex
	w        io.Writer
	verbose  bool
	heading  *color.Color
	label    *color.Color
	open     *color.Color
	closed   *color.Color
	muted    *color.Color
	refnum   string
	location string
}

// NewPrinter creates a Printer. Verbose output includes descriptions.
// Colour is disabled when noColor is set.
func NewPrinter(w io.Writer, verbose, noColor bool, refnum, location string) *Printer {
	p := &Printer{
		w:        w,
		verbose:  verbose,
		heading:  color.New(color.Bold, color.FgCyan),
		label:    color.New(color.Bold),
		open:     color.New(color.FgRed),
		closed:   color.New(color.FgGreen),
		muted:    color.New(color.FgHiBlack),
		refnum:   refnum,
		location: location,
	}
	if noColor {
		for _, c := range []*color.Color{p.heading, p.label, p.open, p.closed, p.muted} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Notify(_ context.Context, county string, outages []domain.Outage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heading.Fprintf(p.w, "%d new outage(s) in %s\n", len(outages), county)
	p.printAll(outages)
	return nil
}

// Print writes the current outages for county, or a no-match notice.
func (p *Printer) Print(county string, outages []domain.Outage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(outages) == 0 {
		p.muted.Fprint(p.w, report.Text(county, p.refnum, p.location, nil))
		return
	}
	for _, line := range report.Header(county, p.refnum, p.location) {
		p.heading.Fprintln(p.w, line)
	}
	p.printAll(outages)
}

func (p *Printer) printAll(outages []domain.Outage) {
	for _, o := range outages {
		p.muted.Fprintln(p.w, report.Rule())
		fields := report.Fields(o)
		for i, line := range report.Align(fields) {
			label, value, _ := strings.Cut(line, ": ")
			fmt.Fprintf(p.w, "%s: %s\n", p.label.Sprint(label), p.value(fields[i], value))
		}
		if p.verbose && o.Description != "" {
			fmt.Fprintln(p.w)
			fmt.Fprintln(p.w, o.Description)
		}
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) value(f report.Field, v string) string {
	if f.Label != "Status" {
		return v
	}
	if strings.EqualFold(v, "open") {
		return p.open.Sprint(v)
	}
	return p.closed.Sprint(v)
}
