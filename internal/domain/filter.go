package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Query is a validated outage query. RefNum and Location are empty when the
// caller did not supply them.
type Query struct {
	County   string
	RefNum   string
	Location string
}

// NewQuery trims its inputs and rejects a missing county.
func NewQuery(county, refnum, location string) (Query, error) {
	q := Query{
		County:   strings.TrimSpace(county),
		RefNum:   strings.TrimSpace(refnum),
		Location: strings.TrimSpace(location),
	}
	if q.County == "" {
		return Query{}, fmt.Errorf("%w: county", ErrMissingParameter)
	}
	return q, nil
}

// Filter keeps the outages matching every supplied criterion, preserving
// input order. A blank refnum or location is treated as absent.
//
// refnum must equal the outage reference exactly (case-sensitive).
// location is matched case-insensitively as a substring of the outage
// location or description.
func Filter(outages []Outage, refnum, location string) []Outage {
	refnum = strings.TrimSpace(refnum)
	needle := foldText(strings.TrimSpace(location))
	if refnum == "" && needle == "" {
		return outages
	}

	out := make([]Outage, 0, len(outages))
	for _, o := range outages {
		if refnum != "" && (o.Reference == nil || *o.Reference != refnum) {
			continue
		}
		if needle != "" && !strings.Contains(foldText(o.Location), needle) &&
			!strings.Contains(foldText(o.Description), needle) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// foldText lower-cases s after NFC normalization so composed and decomposed
// fadas ("á" vs "a" + U+0301) compare equal.
func foldText(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
