package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/water-outage-monitor/internal/adapter/http"
	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/observability"
	"github.com/couchcryptid/water-outage-monitor/internal/query"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

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

func newTestServer(readyErr error, fetcher domain.OutageFetcher) (*httpadapter.Server, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	var querier httpadapter.OutageQuerier
	if fetcher != nil {
		querier = query.NewService(fetcher, discardLogger())
	}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, querier, metrics, discardLogger()), metrics
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(nil, nil)
	assert.Equal(t, http.StatusOK, get(srv, "/healthz").Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(nil, nil)
	assert.Equal(t, http.StatusOK, get(srv, "/readyz").Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(fmt.Errorf("arcgis not ready"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(nil, nil)
	rec := get(srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestOutagesRouteAbsentWithoutQuerier(t *testing.T) {
	srv, _ := newTestServer(nil, nil)
	assert.Equal(t, http.StatusNotFound, get(srv, "/api/outages?county=Mayo").Code)
}

func TestOutages_MissingCounty(t *testing.T) {
	fetcher := &stubFetcher{}
	srv, metrics := newTestServer(nil, fetcher)

	for _, target := range []string{"/api/outages", "/api/outages?county=", "/api/outages?county=%20%20&refnum=ABC12345678"} {
		rec := get(srv, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.JSONEq(t, `{"error":"Missing required parameter: county"}`, rec.Body.String())
	}
	assert.Empty(t, fetcher.county, "upstream not called")
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("400")), 0)
}

func TestOutages_Success(t *testing.T) {
	fetcher := &stubFetcher{records: []domain.RawOutageRecord{
		{"OBJECTID": 3, "TITLE": "Burst main", "LOCATION": "Ballina Co. Mayo", "COUNTY": "Mayo", "STARTDATE": 0},
		{"OBJECTID": 2, "LOCATION": "Westport", "DESCRIPTION": "Planned works<br/>MAY00102991"},
	}}
	srv, metrics := newTestServer(nil, fetcher)

	rec := get(srv, "/api/outages?county=%20Mayo%20")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Mayo", fetcher.county)

	var body struct {
		County         string           `json:"county"`
		RefNum         *string          `json:"refnum"`
		LocationFilter *string          `json:"locationFilter"`
		Count          int              `json:"count"`
		Outages        []map[string]any `json:"outages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "Mayo", body.County)
	assert.Nil(t, body.RefNum)
	assert.Nil(t, body.LocationFilter)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Outages, 2)

	first := body.Outages[0]
	assert.EqualValues(t, 3, first["objectId"])
	assert.EqualValues(t, 0, first["startEpochMillis"], "zero is a valid epoch")
	assert.NotNil(t, first["startHuman"])
	assert.Nil(t, first["endHuman"])
	assert.Nil(t, first["reference"])
	assert.Equal(t, "", first["description"])

	second := body.Outages[1]
	assert.Equal(t, "MAY00102991", second["reference"])
	assert.Equal(t, "Planned works\nMAY00102991", second["description"])
	assert.Equal(t, "", second["title"])

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("200")), 0)
}

func TestOutages_Filters(t *testing.T) {
	fetcher := &stubFetcher{records: []domain.RawOutageRecord{
		{"OBJECTID": 3, "LOCATION": "Ballina Co. Mayo", "REFERENCENUM": "ABC12345678"},
		{"OBJECTID": 2, "LOCATION": "Castlebar", "DESCRIPTION": "Affects Ballina Road"},
	}}
	srv, _ := newTestServer(nil, fetcher)

	rec := get(srv, "/api/outages?county=Mayo&location=ballina&refnum=ABC12345678")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ABC12345678", body["refnum"])
	assert.Equal(t, "ballina", body["locationFilter"])
	assert.EqualValues(t, 1, body["count"])
}

func TestOutages_EmptyResultIsArray(t *testing.T) {
	srv, _ := newTestServer(nil, &stubFetcher{})

	rec := get(srv, "/api/outages?county=Leitrim")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"county":"Leitrim","refnum":null,"locationFilter":null,"count":0,"outages":[]}`, rec.Body.String())
}

func TestOutages_UpstreamFailure(t *testing.T) {
	fetcher := &stubFetcher{err: fmt.Errorf("%w: arcgis API error: status 502", domain.ErrUpstreamFetch)}
	srv, metrics := newTestServer(nil, fetcher)

	rec := get(srv, "/api/outages?county=Mayo")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to fetch outage data", body["error"])
	assert.Contains(t, body["details"], "status 502")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("500")), 0)
}

func TestOutages_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(nil, &stubFetcher{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/outages?county=Mayo", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
