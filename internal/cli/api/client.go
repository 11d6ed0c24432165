// Package api is the impactctl HTTP client for the ImpactUsAll API.
package api

import (
	"context"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/logger"
	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// UserAgent identifies impactctl requests in server logs
const UserAgent = "impactctl/0.1.0"

// Client wraps a resty client bound to one API base URL
type Client struct {
	http *resty.Client
}

// New creates a client. timeout <= 0 means 30s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", UserAgent).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("HTTP request", "method", req.Method, "url", req.URL)
		return nil
	})
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP response", "status", resp.StatusCode(), "request_id", resp.Header().Get("X-Request-ID"))
		return nil
	})
	return &Client{http: c}
}

// SetToken authenticates later requests
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// do turns a non-2xx response into an *APIError
func do(resp *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return resp, ParseError(resp)
	}
	return resp, nil
}
