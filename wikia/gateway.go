// Package wikia is a client for the Wikia/Fandom wiki APIs. It resolves
// page references through redirects and disambiguation pages, exposes
// lazily loaded page facets, paginates list queries and memoizes
// idempotent lookups, all behind an optional request rate limit.
package wikia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olgasafonova/wikia-mcp-server/internal/base"
	"github.com/olgasafonova/wikia-mcp-server/metrics"
	"github.com/olgasafonova/wikia-mcp-server/tracing"
)

// API actions understood by the gateway.
const (
	ActionSearch       = "Search/List"
	ActionDetails      = "Articles/Details"
	ActionSimpleJSON   = "Articles/AsSimpleJson"
	ActionRelatedPages = "RelatedPages/List"

	// ActionQuery targets the MediaWiki api.php endpoint instead of the v1
	// REST API.
	ActionQuery = "query"
)

// Transport performs a single blocking GET and returns the HTTP status and
// raw body.
type Transport interface {
	Get(ctx context.Context, rawURL string, params url.Values, header http.Header) (int, []byte, error)
}

// Request describes one gateway call.
type Request struct {
	Action   string
	SubWiki  string
	Language string
	Params   url.Values
}

// Client talks to Wikia. It is safe for concurrent use; Pages it returns
// are not.
type Client struct {
	mu     sync.RWMutex
	config Config

	transport Transport
	extractor ListItemExtractor
	gate      *rateGate
	cache     *ResultCache
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithExtractor replaces the HTML list item extractor.
func WithExtractor(e ListItemExtractor) Option {
	return func(c *Client) {
		c.extractor = e
	}
}

// NewClient creates a new Wikia client
func NewClient(config Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	config.Language = normalizeLanguage(config.Language)
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.QueryURL == "" {
		config.QueryURL = DefaultQueryURL
	}
	if config.PageURL == "" {
		config.PageURL = DefaultPageURL
	}
	// Zero means unset. Callers that want no hops pass followRedirects=false.
	if config.MaxRedirects <= 0 {
		config.MaxRedirects = DefaultMaxRedirects
	}

	c := &Client{
		config:    config,
		extractor: HTMLExtractor{},
		gate:      newRateGate(config.RateLimit, config.RateLimitMinWait),
		cache:     NewResultCache(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = base.NewClient(
			base.WithLogger(logger),
			base.WithTimeout(config.Timeout),
			base.WithMaxConcurrent(config.MaxConcurrentRequests),
		)
	}
	return c
}

// Config returns a copy of the current configuration.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Language returns the active language code.
func (c *Client) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Language
}

// SetLanguage switches the active language and invalidates every memoized
// lookup. Pages resolved earlier keep their own language.
func (c *Client) SetLanguage(lang string) {
	lang = normalizeLanguage(lang)

	c.mu.Lock()
	changed := c.config.Language != lang
	c.config.Language = lang
	c.mu.Unlock()

	c.cache.ClearAll()
	if changed {
		c.logger.Info("Wikia language changed", "language", lang)
	}
}

// SetUserAgent sets the User-Agent header sent with every request.
func (c *Client) SetUserAgent(ua string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.UserAgent = ua
}

// SetRateLimiting enables or disables minimum request spacing. Calling it
// always resets the last-call bookkeeping. A non-positive minWait selects
// DefaultRateLimitMinWait.
func (c *Client) SetRateLimiting(enabled bool, minWait time.Duration) {
	c.mu.Lock()
	c.config.RateLimit = enabled
	if enabled {
		if minWait <= 0 {
			minWait = DefaultRateLimitMinWait
		}
		c.config.RateLimitMinWait = minWait
	}
	c.mu.Unlock()

	c.gate.reset(enabled, minWait)
}

// SetMaxRedirects changes the redirect hop bound for later resolutions. A
// non-positive n selects DefaultMaxRedirects.
func (c *Client) SetMaxRedirects(n int) {
	if n <= 0 {
		n = DefaultMaxRedirects
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.MaxRedirects = n
}

// SetURLTemplates replaces the endpoint templates. Empty arguments keep the
// current template. Memoized results are dropped when anything changes.
func (c *Client) SetURLTemplates(apiURL, queryURL, pageURL string) error {
	c.mu.Lock()
	next := c.config
	if apiURL != "" {
		next.APIURL = apiURL
	}
	if queryURL != "" {
		next.QueryURL = queryURL
	}
	if pageURL != "" {
		next.PageURL = pageURL
	}
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	changed := next.APIURL != c.config.APIURL || next.QueryURL != c.config.QueryURL || next.PageURL != c.config.PageURL
	c.config = next
	c.mu.Unlock()

	if changed {
		c.cache.ClearAll()
		c.logger.Info("Wikia URL templates changed", "api_url", next.APIURL, "query_url", next.QueryURL, "page_url", next.PageURL)
	}
	return nil
}

// Cache exposes the memo cache so callers can clear individual functions.
func (c *Client) Cache() *ResultCache {
	return c.cache
}

// request issues one API call and returns the decoded JSON document.
// Exactly one transport call is made; nothing is retried.
func (c *Client) request(ctx context.Context, req Request) (json.RawMessage, error) {
	cfg := c.Config()

	var endpoint string
	params := url.Values{}
	for k, v := range req.Params {
		params[k] = append([]string(nil), v...)
	}
	if req.Action == ActionQuery {
		endpoint = cfg.queryURL(req.Language, req.SubWiki)
		params.Set("action", "query")
	} else {
		endpoint = cfg.apiURL(req.Action, req.Language, req.SubWiki)
	}
	params.Set("format", "json")

	header := http.Header{}
	header.Set("User-Agent", cfg.UserAgent)
	header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	ctx, span := tracing.StartRequest(ctx, req.Action, req.SubWiki, req.Language,
		firstNonEmpty(params.Get("titles"), params.Get("query")))
	defer span.End()

	waited, err := c.gate.wait(ctx)
	if err != nil {
		tracing.FinishRequest(span, requestID, 0)
		tracing.RecordError(span, err, ErrorCode(err))
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}
	metrics.RecordRateLimitWait(waited)

	start := time.Now()
	status, body, err := c.transport.Get(ctx, endpoint, params, header)
	duration := time.Since(start)
	tracing.FinishRequest(span, requestID, status)

	if err == nil {
		var raw json.RawMessage
		raw, err = decodeResponse(endpoint, params, status, body, req.Action, req.SubWiki)
		if err == nil {
			metrics.RecordAPICall(req.Action, duration.Seconds(), true, "")
			c.logger.Debug("Wikia API call",
				"request_id", requestID,
				"action", req.Action,
				"sub_wiki", req.SubWiki,
				"language", req.Language,
				"status", status,
				"waited", waited,
				"duration", duration)
			return raw, nil
		}
	} else {
		err = fmt.Errorf("%s request to %s failed: %w", req.Action, req.SubWiki, err)
	}

	metrics.RecordAPICall(req.Action, duration.Seconds(), false, ErrorCode(err))
	tracing.RecordError(span, err, ErrorCode(err))
	c.logger.Debug("Wikia API call failed",
		"request_id", requestID,
		"action", req.Action,
		"sub_wiki", req.SubWiki,
		"status", status,
		"error", err)
	return nil, err
}

// fetchRaw GETs a non-API URL through the same rate gate and transport.
func (c *Client) fetchRaw(ctx context.Context, subWiki, rawURL string) ([]byte, error) {
	cfg := c.Config()
	header := http.Header{}
	header.Set("User-Agent", cfg.UserAgent)

	if _, err := c.gate.wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}
	status, body, err := c.transport.Get(ctx, rawURL, nil, header)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{Code: status, Message: http.StatusText(status), Details: rawURL, SubWiki: subWiki}
	}
	return body, nil
}

type exceptionEnvelope struct {
	Exception *struct {
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"exception"`
}

// decodeResponse classifies a response body. The HTTP status is only used
// for error reporting; the body decides.
func decodeResponse(endpoint string, params url.Values, status int, body []byte, action, subWiki string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, &MalformedResponseError{URL: endpoint, Params: params, Status: status}
	}

	if trimmed[0] == '{' {
		var env exceptionEnvelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Exception != nil {
			code := rawToInt(env.Exception.Code)
			if code == http.StatusRequestTimeout {
				return nil, &TimeoutError{
					Action:  action,
					SubWiki: subWiki,
					Query:   firstNonEmpty(params.Get("query"), params.Get("titles"), params.Get("ids")),
					Message: env.Exception.Message,
				}
			}
			return nil, &APIError{
				Code:    code,
				Message: env.Exception.Message,
				Details: rawToString(env.Exception.Details),
				SubWiki: subWiki,
			}
		}
	}
	return json.RawMessage(trimmed), nil
}

// rawToString renders a JSON scalar as plain text; strings lose their quotes.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func rawToInt(raw json.RawMessage) int {
	n, err := strconv.Atoi(strings.TrimSpace(rawToString(raw)))
	if err != nil {
		return 0
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
