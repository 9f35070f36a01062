// Package voterdata provides a client for the voter-file data API: column
// metadata, column value lists, demographic counts and turnout estimates.
package voterdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/civicgrid/victory/internal/clientdata"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
)

const serviceName = "voterdata"

// Endpoint labels used in errors and metrics.
const (
	EndpointColumns  = "columns"
	EndpointValues   = "values"
	EndpointCounts   = "counts"
	EndpointEstimate = "estimate"
)

// API is the voter-file capability consumed by the matching and counting pipeline.
type API interface {
	Columns(ctx context.Context, state string) ([]Column, error)
	ColumnValues(ctx context.Context, state, column string) ([]string, error)
	Counts(ctx context.Context, state string, filter Filter, dimension string) ([]CountRow, error)
	TurnoutEstimate(ctx context.Context, state string, filter Filter, voteHistoryColumn string) (int, error)
}

// Observer receives one callback per upstream request.
type Observer interface {
	ObserveRequest(endpoint, outcome string)
}

// Config holds connection settings for the voter-file API.
type Config struct {
	BaseURL    string
	CustomerID string
	APIID      string
	APIKey     string
	Timeout    time.Duration
}

// Client is the voter-file API client.
type Client struct {
	cfg       Config
	http      Doer
	cacheRepo *clientdata.Repository
	observer  Observer
	log       zerolog.Logger
}

// NewClient creates a voter-file client.
// Every request is paced by pacer. cacheRepo is optional; nil disables caching.
func NewClient(cfg Config, pacer Pacer, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:       cfg,
		http:      NewRateLimitedClient(&http.Client{Timeout: cfg.Timeout}, pacer),
		cacheRepo: cacheRepo,
		log:       log.With().Str("client", serviceName).Logger(),
	}
}

// SetObserver registers a request observer, typically the metrics recorder.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// Columns returns the column metadata for a state.
// Stale cached data is returned when the API fails.
func (c *Client) Columns(ctx context.Context, state string) ([]Column, error) {
	state = strings.ToUpper(state)

	var cols []Column
	if c.cacheGet(clientdata.TableColumns, state, &cols, true) {
		return cols, nil
	}

	var resp columnsResponse
	err := c.getJSON(ctx, EndpointColumns, c.path("columns", state), &resp)
	if err != nil {
		if c.cacheGet(clientdata.TableColumns, state, &cols, false) {
			c.log.Warn().Err(err).Str("state", state).Msg("API failed, using stale cached columns")
			return cols, nil
		}
		return nil, err
	}

	c.cacheStore(clientdata.TableColumns, state, resp.Columns, clientdata.TTLColumns)
	return resp.Columns, nil
}

// ColumnValues returns the distinct values present in one column.
func (c *Client) ColumnValues(ctx context.Context, state, column string) ([]string, error) {
	state = strings.ToUpper(state)
	key := state + "|" + column

	var values []string
	if c.cacheGet(clientdata.TableColumnValues, key, &values, true) {
		return values, nil
	}

	var resp valuesResponse
	err := c.getJSON(ctx, EndpointValues, c.path("values", state, column), &resp)
	if err != nil {
		if c.cacheGet(clientdata.TableColumnValues, key, &values, false) {
			c.log.Warn().Err(err).Str("state", state).Str("column", column).Msg("API failed, using stale cached values")
			return values, nil
		}
		return nil, err
	}

	c.cacheStore(clientdata.TableColumnValues, key, resp.Values, clientdata.TTLColumnValues)
	return resp.Values, nil
}

// Counts returns voter counts for the filter, broken down by dimension.
// With an empty dimension a single total row is returned.
func (c *Client) Counts(ctx context.Context, state string, filter Filter, dimension string) ([]CountRow, error) {
	req := countRequest{Filters: nonNil(filter)}
	if dimension != "" {
		req.Columns = []string{dimension}
	}

	body, err := c.postJSON(ctx, EndpointCounts, c.path("count", strings.ToUpper(state)), req)
	if err != nil {
		return nil, err
	}

	rows, err := parseCountRows(body, dimension)
	if err != nil {
		return nil, domain.NewUpstreamError(serviceName, EndpointCounts, 0, err)
	}
	return rows, nil
}

// TurnoutEstimate returns how many voters in the filter voted in the given election.
func (c *Client) TurnoutEstimate(ctx context.Context, state string, filter Filter, voteHistoryColumn string) (int, error) {
	req := estimateRequest{Filters: nonNil(filter), VoteHistory: voteHistoryColumn}

	body, err := c.postJSON(ctx, EndpointEstimate, c.path("estimate", strings.ToUpper(state)), req)
	if err != nil {
		return 0, err
	}

	var resp estimateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, domain.NewUpstreamError(serviceName, EndpointEstimate, 0, fmt.Errorf("failed to decode estimate: %w", err))
	}
	if resp.Results.Count == "" {
		return 0, nil
	}
	n, err := numberToInt(string(resp.Results.Count))
	if err != nil {
		return 0, domain.NewUpstreamError(serviceName, EndpointEstimate, 0, err)
	}
	return n, nil
}

func (c *Client) path(kind string, segments ...string) string {
	parts := []string{strings.TrimRight(c.cfg.BaseURL, "/"), "records", kind, url.PathEscape(c.cfg.CustomerID), url.PathEscape(c.cfg.APIID)}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	q := url.Values{}
	q.Set("id", c.cfg.CustomerID)
	q.Set("apikey", c.cfg.APIKey)
	return strings.Join(parts, "/") + "?" + q.Encode()
}

func (c *Client) getJSON(ctx context.Context, endpoint, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	body, err := c.do(endpoint, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewUpstreamError(serviceName, endpoint, 0, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint, u string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(endpoint, req)
}

func (c *Client) do(endpoint string, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, "error")
		return nil, domain.NewUpstreamError(serviceName, endpoint, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(endpoint, "error")
		return nil, domain.NewUpstreamError(serviceName, endpoint, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		c.observe(endpoint, "http_error")
		return nil, domain.NewUpstreamError(serviceName, endpoint, resp.StatusCode, fmt.Errorf("%s", truncate(string(body), 200)))
	}

	c.observe(endpoint, "ok")
	return body, nil
}

func (c *Client) observe(endpoint, outcome string) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, outcome)
	}
}

func (c *Client) cacheGet(table, key string, out interface{}, freshOnly bool) bool {
	if c.cacheRepo == nil {
		return false
	}

	var (
		found bool
		err   error
	)
	if freshOnly {
		found, err = c.cacheRepo.GetIfFresh(table, key, out)
	} else {
		found, err = c.cacheRepo.Get(table, key, out)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Cache read failed")
		return false
	}
	if found && freshOnly {
		c.log.Debug().Str("table", table).Str("key", key).Msg("Voter data cache hit")
	}
	return found
}

func (c *Client) cacheStore(table, key string, data interface{}, ttl time.Duration) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store(table, key, data, ttl); err != nil {
		c.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache voter data")
	}
}

func nonNil(f Filter) Filter {
	if f == nil {
		return Filter{}
	}
	return f
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
