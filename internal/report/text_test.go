package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func sampleOutage() domain.Outage {
	return domain.Outage{
		ObjectID:         ptr(int64(1234)),
		Title:            "Burst main",
		Status:           "Open",
		Location:         "Ballina",
		County:           "Mayo",
		StartEpochMillis: ptr(int64(1718870400000)),
		StartHuman:       ptr("2024-06-20 09:00:00 IST"),
		Reference:        ptr("MAY00102991"),
		Description:      "Repairs underway\nSupply restored by 18:00",
	}
}

func TestAlign(t *testing.T) {
	lines := Align([]Field{{"Start", "a"}, {"Reference", "b"}, {"Tír", "c"}})
	assert.Equal(t, []string{
		"Start    : a",
		"Reference: b",
		"Tír      : c",
	}, lines)
}

func TestFields(t *testing.T) {
	f := Fields(sampleOutage())
	assert.Equal(t, Field{"Location", "Ballina, Mayo"}, f[1])
	assert.Equal(t, Field{"Reference", "MAY00102991"}, f[3])
	assert.Equal(t, Field{"Start", "2024-06-20 09:00:00 IST (raw: 1718870400000)"}, f[4])
	assert.Equal(t, Field{"End", "(none)"}, f[5])
}

func TestFields_Unknowns(t *testing.T) {
	f := Fields(domain.Outage{County: "Mayo"})
	assert.Equal(t, "Mayo", f[1].Value)
	assert.Equal(t, "(unknown)", f[3].Value)
}

func TestText(t *testing.T) {
	got := Text("Mayo", "", "ballina", []domain.Outage{sampleOutage()})

	assert.True(t, strings.HasPrefix(got, "Water.ie outage update\n\nCounty: Mayo\nLocation filter: ballina\n\n"))
	assert.Contains(t, got, Rule()+"\nTitle    : Burst main\n")
	assert.Contains(t, got, "Reference: MAY00102991\n")
	assert.Contains(t, got, "Description:\nRepairs underway\nSupply restored by 18:00\n")
	assert.NotContains(t, got, "Reference filter")
}

func TestText_Empty(t *testing.T) {
	got := Text("Mayo", "ABC12345678", "", nil)
	assert.Equal(t, "No matching open outages found.\nCounty: Mayo\nReference filter: ABC12345678\n", got)
}
