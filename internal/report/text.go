// Package report renders outages as plain text for email bodies and the
// terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
)

const ruleWidth = 60

// Field is one labelled line of an outage block.
type Field struct {
	Label string
	Value string
}

// Fields returns the labelled summary lines for o, without the description.
func Fields(o domain.Outage) []Field {
	location := o.Location
	if o.County != "" {
		location = strings.TrimPrefix(location+", "+o.County, ", ")
	}
	return []Field{
		{"Title", o.Title},
		{"Location", location},
		{"Status", o.Status},
		{"Reference", o.ReferenceOr("(unknown)")},
		{"Start", timeValue(o.StartHuman, o.StartEpochMillis)},
		{"End", timeValue(o.EndHuman, o.EndEpochMillis)},
	}
}

// Rule is the separator printed above each outage.
func Rule() string {
	return strings.Repeat("-", ruleWidth)
}

// Align pads each label to the widest display width in fields and returns
// "label: value" lines.
func Align(fields []Field) []string {
	width := 0
	for _, f := range fields {
		if w := runewidth.StringWidth(f.Label); w > width {
			width = w
		}
	}
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, runewidth.FillRight(f.Label, width)+": "+f.Value)
	}
	return lines
}

// Header returns the opening lines naming the county and any active filters.
func Header(county, refnum, location string) []string {
	lines := []string{"Water.ie outage update", "", "County: " + county}
	if refnum != "" {
		lines = append(lines, "Reference filter: "+refnum)
	}
	if location != "" {
		lines = append(lines, "Location filter: "+location)
	}
	return append(lines, "")
}

// Text renders the full message for outages.
func Text(county, refnum, location string, outages []domain.Outage) string {
	if len(outages) == 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "No matching open outages found.\nCounty: %s\n", county)
		if refnum != "" {
			fmt.Fprintf(&b, "Reference filter: %s\n", refnum)
		}
		if location != "" {
			fmt.Fprintf(&b, "Location filter: %s\n", location)
		}
		return b.String()
	}

	lines := Header(county, refnum, location)
	for _, o := range outages {
		lines = append(lines, Rule())
		lines = append(lines, Align(Fields(o))...)
		if o.Description != "" {
			lines = append(lines, "", "Description:", o.Description)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func timeValue(human *string, ms *int64) string {
	h := "(none)"
	if human != nil {
		h = *human
	}
	if ms == nil {
		return h
	}
	return fmt.Sprintf("%s (raw: %d)", h, *ms)
}
