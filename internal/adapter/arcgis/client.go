package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/observability"
)

// Client implements domain.OutageFetcher against an ArcGIS FeatureServer
// layer query endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an ArcGIS query client. The timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchOpenOutages returns the open, approved outages for county ordered by
// start date descending. Every failure wraps domain.ErrUpstreamFetch.
func (c *Client) FetchOpenOutages(ctx context.Context, county string) ([]domain.RawOutageRecord, error) {
	start := time.Now()
	records, err := c.query(ctx, outageParams(county))
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		c.logger.Warn("arcgis query failed", "county", county, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
	c.logger.Debug("arcgis query complete", "county", county, "records", len(records))
	return records, nil
}

// CheckReadiness issues a zero-row count query to confirm the layer answers.
func (c *Client) CheckReadiness(ctx context.Context) error {
	params := url.Values{
		"f":               {"json"},
		"where":           {"1=0"},
		"returnCountOnly": {"true"},
	}
	if _, err := c.query(ctx, params); err != nil {
		return fmt.Errorf("arcgis not ready: %w", err)
	}
	return nil
}

// WhereClause builds the attribute filter for open, approved outages in county.
func WhereClause(county string) string {
	quoted := strings.ReplaceAll(county, "'", "''")
	return fmt.Sprintf("STATUS='Open' AND APPROVALSTATUS='Approved' AND COUNTY='%s'", quoted)
}

func outageParams(county string) url.Values {
	return url.Values{
		"f":              {"json"},
		"where":          {WhereClause(county)},
		"outFields":      {"*"},
		"returnGeometry": {"true"},
		"returnIdsOnly":  {"false"},
		"orderByFields":  {"STARTDATE DESC"},
		"outSR":          {"4326"},
	}
}

func (c *Client) query(ctx context.Context, params url.Values) ([]domain.RawOutageRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arcgis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arcgis API error: status %d: %s", resp.StatusCode, body)
	}

	var qr response
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if qr.Error != nil {
		return nil, qr.Error
	}
	return domain.RecordsFromFeatures(qr.Features), nil
}

// ArcGIS API response types.

type response struct {
	Features []domain.Feature `json:"features"`
	Error    *apiError        `json:"error,omitempty"`
}

// apiError is the error object ArcGIS returns alongside HTTP 200.
type apiError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("arcgis error %d: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}
