// Package domain models Irish public water-outage records.
//
// # Data Source
//
// Outage records come from the Uisce Éireann (Water.ie) water advisory layer
// published as an ArcGIS FeatureServer. The query endpoint returns a JSON
// feature set; each feature carries its fields under "attributes" (Esri JSON)
// or "properties" (GeoJSON). [RecordsFromFeatures] accepts either shape and
// yields one [RawOutageRecord] per feature.
//
// # Field Conventions
//
// Field names are upper-case ArcGIS names:
//
//	OBJECTID      integer primary key, unique within one county response
//	GLOBALID      "{GUID}" secondary key
//	TITLE, STATUS, LOCATION, COUNTY
//	STARTDATE     epoch timestamp, usually milliseconds
//	ENDDATE       epoch timestamp or null while the outage is ongoing
//	REFERENCENUM  reference code, often empty
//	DESCRIPTION   HTML fragment (<br>, <div>, entities)
//
// Casing is not guaranteed across layer revisions, so lookups fall back to a
// case-insensitive match. Values may arrive as numbers, numeric strings or
// json.Number and are converted tolerantly.
//
// Reference codes:
//
//	Three upper-case letters and eight digits, e.g. "MAY00102991" or
//	"COR00098700". The letters usually abbreviate the county. When
//	REFERENCENUM is empty the first such code in the plain-text description
//	is used.
//
// Epochs:
//
//	Values with magnitude above 1e12 are milliseconds; smaller values are
//	seconds. Zero is a valid instant. Human-readable times are rendered in
//	Europe/Dublin.
//
// # Identity
//
// Change detection keys outages by OBJECTID, falling back to GLOBALID and
// then to a SHA-256 digest of title, location and start time. See [Outage.Key].
package domain
