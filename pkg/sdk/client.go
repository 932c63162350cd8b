package chronik

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/chronik/internal/version"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 64 << 10
)

// Client talks to the chronik search API on behalf of one user.
type Client struct {
	base       *url.URL
	userID     string
	cookie     string
	httpClient *http.Client
	obs        *observer
}

// NewClient creates a Client for baseURL that authenticates as userID.
func NewClient(baseURL, userID string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{sessionCookie: DefaultSessionCookie}
	for _, o := range opts {
		o.apply(cfg)
	}

	if userID == "" {
		return nil, errors.New("chronik: user id required")
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("chronik: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("chronik: base url %q must be absolute", baseURL)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &Client{
		base:       base,
		userID:     userID,
		cookie:     cfg.sessionCookie,
		httpClient: hc,
		obs:        obs,
	}, nil
}

// Search runs q against GET /search.
func (c *Client) Search(ctx context.Context, q Query) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(q), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("chronik: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.AddCookie(&http.Cookie{Name: c.cookie, Value: c.userID})

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chronik: search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, decodeAPIError(res)
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("chronik: decode response: %w", err)
	}
	if out.Results == nil {
		out.Results = []Group{}
	}
	return &out, nil
}

func (c *Client) searchURL(q Query) string {
	u := c.base.JoinPath("search")
	v := url.Values{}
	v.Set("q", q.Q)
	for _, t := range q.Types {
		v.Add("types", string(t))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	u.RawQuery = v.Encode()
	return u.String()
}

func decodeAPIError(res *http.Response) error {
	apiErr := &APIError{Status: res.StatusCode, Message: http.StatusText(res.StatusCode)}

	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		}
		apiErr.Code = payload.Code
	}
	return apiErr
}
