package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Outage is the canonical representation of one upstream outage record.
// String fields are never absent; missing values are empty strings.
type Outage struct {
	ObjectID         *int64  `json:"objectId"`
	GlobalID         string  `json:"globalId"`
	Title            string  `json:"title"`
	Status           string  `json:"status"`
	Location         string  `json:"location"`
	County           string  `json:"county"`
	StartEpochMillis *int64  `json:"startEpochMillis"`
	EndEpochMillis   *int64  `json:"endEpochMillis"`
	StartHuman       *string `json:"startHuman"`
	EndHuman         *string `json:"endHuman"`
	Reference        *string `json:"reference"`
	Description      string  `json:"description"`
}

// Key returns the de-duplication key used by change detection: the object
// ID when present, else the global ID, else a digest of the descriptive
// fields.
func (o Outage) Key() string {
	if o.ObjectID != nil {
		return strconv.FormatInt(*o.ObjectID, 10)
	}
	if o.GlobalID != "" {
		return "global:" + o.GlobalID
	}

	var start string
	if o.StartEpochMillis != nil {
		start = strconv.FormatInt(*o.StartEpochMillis, 10)
	}
	input := fmt.Sprintf("%s|%s|%s|%s", o.County, o.Title, o.Location, start)
	hash := sha256.Sum256([]byte(input))
	return "hash:" + hex.EncodeToString(hash[:8])
}

// ReferenceOr returns the reference code, or fallback when none is known.
func (o Outage) ReferenceOr(fallback string) string {
	if o.Reference == nil || *o.Reference == "" {
		return fallback
	}
	return *o.Reference
}
