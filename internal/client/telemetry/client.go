// Package telemetry executes the outbound request of a telemetry source.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/esareynor/ffws-jatim-sub001/internal/config"
	"github.com/esareynor/ffws-jatim-sub001/internal/credentials"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

const DefaultAPIKeyHeader = "X-API-Key"

// ErrHTTPStatus is matched by every *StatusError.
var ErrHTTPStatus = errors.New("telemetry: unexpected HTTP status")

type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP request failed with status %d: %s", e.Status, e.Body)
}

func (e *StatusError) Is(target error) bool { return target == ErrHTTPStatus }

type Response struct {
	Status   int
	Body     []byte
	Attempts int
	Duration time.Duration
}

// Fetcher is implemented by Client; the ingest engine depends on it so tests
// can serve canned bodies.
type Fetcher interface {
	Fetch(ctx context.Context, source *models.Source) (*Response, error)
}

type Client struct {
	http   *resty.Client
	vault  *credentials.Vault
	logger *zap.Logger
}

func New(cfg config.IngestConfig, vault *credentials.Vault, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = "ffws-ingest/1.0"
	}
	hc := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryDelay).
		SetRetryMaxWaitTime(cfg.RetryDelay).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "application/json, application/xml;q=0.9, */*;q=0.8").
		AddRetryCondition(retryable)
	return &Client{http: hc, vault: vault, logger: logger}
}

// retryable reports transient failures: transport errors, 5xx and 429.
// Other client errors are final on the first attempt.
func retryable(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

// Fetch sends the source request. Credentials are opened for the duration of
// the call only. A non-2xx status after all retries yields *StatusError.
func (c *Client) Fetch(ctx context.Context, source *models.Source) (*Response, error) {
	if source == nil {
		return nil, errors.New("telemetry: nil source")
	}
	req, err := c.build(ctx, source)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(source.APIMethod))
	if method == "" {
		method = http.MethodGet
	}
	start := time.Now()
	resp, err := req.Execute(method, source.APIURL)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", source.Code, err)
	}
	out := &Response{
		Status:   resp.StatusCode(),
		Body:     resp.Body(),
		Attempts: resp.Request.Attempt,
		Duration: time.Since(start),
	}
	if !resp.IsSuccess() {
		c.logger.Warn("source returned error status",
			zap.String("source", source.Code),
			zap.Int("status", out.Status),
			zap.Int("attempts", out.Attempts),
		)
		return out, &StatusError{Status: out.Status, Body: strings.TrimSpace(string(out.Body))}
	}
	return out, nil
}

func (c *Client) build(ctx context.Context, source *models.Source) (*resty.Request, error) {
	req := c.http.R().SetContext(ctx)

	headers, err := stringMap(source.Headers)
	if err != nil {
		return nil, fmt.Errorf("api_headers: %w", err)
	}
	req.SetHeaders(headers)

	switch strings.ToUpper(strings.TrimSpace(source.APIMethod)) {
	case "", http.MethodGet:
		params, err := stringMap(source.Params)
		if err != nil {
			return nil, fmt.Errorf("api_params: %w", err)
		}
		req.SetQueryParams(params)
	case http.MethodPost, http.MethodPut:
		body := []byte(source.Body)
		if len(body) == 0 || string(body) == "null" {
			body = []byte("{}")
		}
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	default:
		return nil, fmt.Errorf("unsupported api_method %q", source.APIMethod)
	}

	switch source.AuthType {
	case "", models.AuthNone:
		return req, nil
	}
	bundle, err := c.vault.Open(source.AuthCredentials)
	if err != nil {
		return nil, fmt.Errorf("open credentials: %w", err)
	}
	switch source.AuthType {
	case models.AuthBearer:
		if bundle.Token != "" {
			req.SetAuthToken(bundle.Token)
		}
	case models.AuthBasic:
		if bundle.Username != "" {
			req.SetBasicAuth(bundle.Username, bundle.Password)
		}
	case models.AuthAPIKey:
		name := strings.TrimSpace(bundle.Header)
		if name == "" {
			name = DefaultAPIKeyHeader
		}
		if bundle.Key != "" {
			req.SetHeader(name, bundle.Key)
		}
	default:
		return nil, fmt.Errorf("unsupported auth_type %q", source.AuthType)
	}
	return req, nil
}

// stringMap flattens a JSON object into string values for headers and query
// parameters. Nested values are sent as their JSON text.
func stringMap(raw []byte) (map[string]string, error) {
	out := map[string]string{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k, v := range m {
		switch v.(type) {
		case map[string]any, []any:
			b, _ := json.Marshal(v)
			out[k] = string(b)
		case nil:
			out[k] = ""
		default:
			out[k] = cast.ToString(v)
		}
	}
	return out, nil
}
