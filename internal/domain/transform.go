package domain

import (
	"encoding/json"
	"html"
	"math"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // Europe/Dublin must resolve in minimal containers.

	"github.com/spf13/cast"
)

// Upstream field names.
const (
	FieldObjectID    = "OBJECTID"
	FieldGlobalID    = "GLOBALID"
	FieldTitle       = "TITLE"
	FieldStatus      = "STATUS"
	FieldLocation    = "LOCATION"
	FieldCounty      = "COUNTY"
	FieldStartDate   = "STARTDATE"
	FieldEndDate     = "ENDDATE"
	FieldReference   = "REFERENCENUM"
	FieldDescription = "DESCRIPTION"
)

// HumanTimeLayout is the rendering used for StartHuman and EndHuman.
const HumanTimeLayout = "2006-01-02 15:04:05 MST"

// millisThreshold separates millisecond epochs from second epochs.
const millisThreshold = 1e12

// maxEpochMillis bounds representable instants (±100,000,000 days).
const maxEpochMillis = 8.64e15

var (
	// referenceRe matches reference codes such as "MAY00102991".
	referenceRe = regexp.MustCompile(`[A-Z]{3}[0-9]{8}`)

	lineBreakRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockCloseRe = regexp.MustCompile(`(?i)</(?:div|p|li|tr|h[1-6]|ul|ol|table|blockquote|section)\s*>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)

	irishTime = loadIrishTime()
)

func loadIrishTime() *time.Location {
	loc, err := time.LoadLocation("Europe/Dublin")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Normalize converts one raw upstream record into an Outage. It is total
// over any input and has no side effects.
func Normalize(raw RawOutageRecord) Outage {
	description := StripHTML(textField(raw, FieldDescription))

	start := epochMillis(raw, FieldStartDate)
	end := epochMillis(raw, FieldEndDate)

	return Outage{
		ObjectID:         objectID(raw),
		GlobalID:         textField(raw, FieldGlobalID),
		Title:            textField(raw, FieldTitle),
		Status:           textField(raw, FieldStatus),
		Location:         textField(raw, FieldLocation),
		County:           textField(raw, FieldCounty),
		StartEpochMillis: start,
		EndEpochMillis:   end,
		StartHuman:       formatEpoch(start),
		EndHuman:         formatEpoch(end),
		Reference:        deriveReference(textField(raw, FieldReference), description),
		Description:      description,
	}
}

// NormalizeAll normalizes records in order.
func NormalizeAll(raws []RawOutageRecord) []Outage {
	out := make([]Outage, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// StripHTML turns an HTML description fragment into plain text. Line-break
// tags and closing block tags become newlines, other tags are removed, and
// the result is trimmed line by line with blank lines dropped. Entities are
// unescaped only after tags are gone, so escaped brackets stay as text.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = blockCloseRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, ln := range lines {
		if ln = strings.TrimSpace(ln); ln != "" {
			kept = append(kept, ln)
		}
	}
	return strings.Join(kept, "\n")
}

// ExtractReference returns the first reference code in text, or "".
func ExtractReference(text string) string {
	return referenceRe.FindString(text)
}

// deriveReference prefers an explicit, non-blank reference field verbatim
// over a code found in the description.
func deriveReference(explicit, description string) *string {
	if strings.TrimSpace(explicit) != "" {
		return &explicit
	}
	if ref := ExtractReference(description); ref != "" {
		return &ref
	}
	return nil
}

// textField returns the field as a string, or "" when it is absent, null or
// not representable as text.
func textField(raw RawOutageRecord, name string) string {
	v, ok := raw.Lookup(name)
	if !ok || v == nil {
		return ""
	}
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// numberField returns the field as a finite float64.
func numberField(raw RawOutageRecord, name string) (float64, bool) {
	v, ok := raw.Lookup(name)
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case bool:
		return 0, false
	case json.Number:
		v = t.String()
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false
		}
		v = strings.TrimSpace(t)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func objectID(raw RawOutageRecord) *int64 {
	f, ok := numberField(raw, FieldObjectID)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return nil
	}
	id := int64(f)
	return &id
}

// epochMillis reads an epoch field and normalizes it to milliseconds.
// Values at or below millisThreshold in magnitude are taken as seconds.
func epochMillis(raw RawOutageRecord, name string) *int64 {
	v, ok := numberField(raw, name)
	if !ok {
		return nil
	}
	if math.Abs(v) <= millisThreshold {
		v *= 1000
	}
	if math.Abs(v) > maxEpochMillis {
		return nil
	}
	ms := int64(math.Round(v))
	return &ms
}

// formatEpoch renders an epoch in Irish local time. A nil epoch yields nil.
func formatEpoch(ms *int64) *string {
	if ms == nil {
		return nil
	}
	s := time.UnixMilli(*ms).In(irishTime).Format(HumanTimeLayout)
	return &s
}
