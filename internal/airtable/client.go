package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/entity"
)

const (
	// MaxPageSize is the largest page the list endpoint returns, whatever the caller asks for.
	MaxPageSize = 100

	defaultBaseURL = "https://api.airtable.com"
	defaultRPS     = 5.0
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 16 << 20
)

// ErrNotConfigured is returned before any request when credentials or the table are missing.
var ErrNotConfigured = errors.New("airtable: api key, base id and table must be configured")

// APIError carries the error payload of a non-2xx response.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Type != "" && e.Message != "":
		return fmt.Sprintf("airtable: %d %s: %s", e.StatusCode, e.Type, e.Message)
	case e.Type != "":
		return fmt.Sprintf("airtable: %d %s", e.StatusCode, e.Type)
	default:
		return fmt.Sprintf("airtable: %d: %s", e.StatusCode, e.Message)
	}
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	APIKey     string
	BaseID     string
	Table      string
	View       string
	BaseURL    string
	RPS        float64
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Page is one normalized page of the catalog.
type Page struct {
	Records    []entity.NormalizedEntry
	HasMore    bool
	NextCursor string
}

// Client lists catalog records. It never retries; callers own backoff.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	apiKey  string
	baseID  string
	table   string
	view    string
	baseURL string
}

// NewClient builds a rate-limited client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger.Named("airtable"),
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseID:  strings.TrimSpace(opts.BaseID),
		table:   strings.TrimSpace(opts.Table),
		view:    strings.TrimSpace(opts.View),
		baseURL: baseURL,
	}
}

// Configured reports whether FetchPage can issue requests.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.baseID != "" && c.table != ""
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// FetchPage reads one page starting at cursor ("" for the first page). pageSizeHint is
// clamped to MaxPageSize, and the source may return fewer records than asked for.
func (c *Client) FetchPage(ctx context.Context, filter dto.CatalogFilter, pageSizeHint int, cursor string) (Page, error) {
	if !c.Configured() {
		return Page{}, ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("airtable rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(clampPageSize(pageSizeHint)))
	if cursor != "" {
		query.Set("offset", cursor)
	}
	if formula := BuildFormula(filter); formula != "" {
		query.Set("filterByFormula", formula)
	}
	if c.view != "" {
		query.Set("view", c.view)
	}

	endpoint := fmt.Sprintf("%s/v0/%s/%s?%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(c.table), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("create airtable request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("fetching page", zap.String("table", c.table), zap.Bool("first_page", cursor == ""))

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("airtable request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("read airtable response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, parseAPIError(resp.StatusCode, body)
	}

	var payload listResponse
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return Page{}, fmt.Errorf("decode airtable response: %w", err)
	}

	records := make([]entity.NormalizedEntry, 0, len(payload.Records))
	for _, record := range payload.Records {
		records = append(records, Normalize(record))
	}

	return Page{
		Records:    records,
		HasMore:    payload.Offset != "",
		NextCursor: payload.Offset,
	}, nil
}

func clampPageSize(hint int) int {
	if hint <= 0 || hint > MaxPageSize {
		return MaxPageSize
	}
	return hint
}

// parseAPIError accepts both {"error":{"type","message"}} and {"error":"CODE"}.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var detailed struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &detailed) == nil && (detailed.Type != "" || detailed.Message != "") {
			apiErr.Type = detailed.Type
			apiErr.Message = detailed.Message
			return apiErr
		}
		var code string
		if json.Unmarshal(envelope.Error, &code) == nil && code != "" {
			apiErr.Type = code
			return apiErr
		}
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
