package domain

import "strings"

// RawOutageRecord is one upstream record as returned by the data source.
// Field presence and casing are not guaranteed.
type RawOutageRecord map[string]any

// Feature is a single entry of an ArcGIS feature set. Esri JSON responses
// populate Attributes; GeoJSON responses populate Properties.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
	Properties map[string]any `json:"properties"`
	Geometry   map[string]any `json:"geometry,omitempty"`
}

// FeatureSet is the body of an ArcGIS query response.
type FeatureSet struct {
	Features []Feature `json:"features"`
}

// RecordsFromFeatures flattens features into raw records, preferring
// Properties and falling back to Attributes. Features carrying neither
// produce an empty record so the response order and length are kept.
func RecordsFromFeatures(features []Feature) []RawOutageRecord {
	records := make([]RawOutageRecord, 0, len(features))
	for _, f := range features {
		switch {
		case len(f.Properties) > 0:
			records = append(records, RawOutageRecord(f.Properties))
		case len(f.Attributes) > 0:
			records = append(records, RawOutageRecord(f.Attributes))
		default:
			records = append(records, RawOutageRecord{})
		}
	}
	return records
}

// Lookup returns the value stored under name. An exact match wins; otherwise
// a case-insensitive match is used, choosing the lexically smallest key when
// several spellings are present so the result does not depend on map order.
func (r RawOutageRecord) Lookup(name string) (any, bool) {
	if v, ok := r[name]; ok {
		return v, true
	}
	var (
		match string
		found bool
	)
	for k := range r {
		if strings.EqualFold(k, name) && (!found || k < match) {
			match, found = k, true
		}
	}
	if !found {
		return nil, false
	}
	return r[match], true
}
