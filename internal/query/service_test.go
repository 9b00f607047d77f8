package query_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/query"
)

type stubFetcher struct {
	county  string
	records []domain.RawOutageRecord
	err     error
}

func (s *stubFetcher) FetchOpenOutages(_ context.Context, county string) ([]domain.RawOutageRecord, error) {
	s.county = county
	return s.records, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mayoRecords() []domain.RawOutageRecord {
	return []domain.RawOutageRecord{
		{"OBJECTID": 3, "LOCATION": "Ballina Co. Mayo", "DESCRIPTION": "Mains repair<br>Ref MAY00000003"},
		{"OBJECTID": 2, "LOCATION": "Castlebar", "DESCRIPTION": "Affects Ballina Road"},
		{"OBJECTID": 1, "LOCATION": "Westport", "REFERENCENUM": "MAY00000001"},
	}
}

func TestService_Outages_NoFilters(t *testing.T) {
	f := &stubFetcher{records: mayoRecords()}
	svc := query.NewService(f, discardLogger())

	res, err := svc.Outages(context.Background(), domain.Query{County: "Mayo"})
	require.NoError(t, err)

	assert.Equal(t, "Mayo", f.county)
	assert.Equal(t, "Mayo", res.County)
	assert.Nil(t, res.RefNum)
	assert.Nil(t, res.LocationFilter)
	assert.Equal(t, 3, res.Count)
	require.Len(t, res.Outages, 3)
	assert.Equal(t, "Mains repair\nRef MAY00000003", res.Outages[0].Description)
	assert.Equal(t, "MAY00000003", *res.Outages[0].Reference)
}

func TestService_Outages_Filters(t *testing.T) {
	svc := query.NewService(&stubFetcher{records: mayoRecords()}, discardLogger())

	res, err := svc.Outages(context.Background(), domain.Query{County: "Mayo", Location: "ballina"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	require.NotNil(t, res.LocationFilter)
	assert.Equal(t, "ballina", *res.LocationFilter)

	res, err = svc.Outages(context.Background(), domain.Query{County: "Mayo", RefNum: "MAY00000001"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "Westport", res.Outages[0].Location)
	assert.Equal(t, "MAY00000001", *res.RefNum)
}

func TestService_Outages_EmptyResultIsNotNil(t *testing.T) {
	svc := query.NewService(&stubFetcher{}, discardLogger())

	res, err := svc.Outages(context.Background(), domain.Query{County: "Leitrim", RefNum: "ABC12345678"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.NotNil(t, res.Outages)
}

func TestService_Outages_FetchError(t *testing.T) {
	upstream := errors.Join(domain.ErrUpstreamFetch, errors.New("connection refused"))
	svc := query.NewService(&stubFetcher{err: upstream}, discardLogger())

	_, err := svc.Outages(context.Background(), domain.Query{County: "Mayo"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamFetch))
}
