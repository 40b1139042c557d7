// Package divesites is a client for the third-party dive-site directory API.
// The API has a single endpoint selected by the "mode" query parameter:
// "search" (by name), "sites" (near a point) and "detail" (one site by id).
package divesites

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/metrics"
)

// maxBody bounds how much of an upstream response is read.
const maxBody = 4 << 20

// Breaker settings. After tripFailures consecutive failed calls the client
// fails fast for openTimeout before letting a probe request through.
const (
	tripFailures = 5
	openTimeout  = 30 * time.Second
)

// Site is the detail payload for one site.
type Site struct {
	Name        string
	Lat         float64
	Lng         float64
	Description string
}

// Client calls the directory API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// New constructs a Client for baseURL whose calls give up after timeout.
// Calls fail with gobreaker.ErrOpenState while the directory is considered
// down.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "divesites",
			Timeout: openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= tripFailures
			},
			// A visitor navigating away cancels the request; that says
			// nothing about the directory's health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, _, to gobreaker.State) {
				metrics.RecordBreakerState(name, to.String())
			},
		}),
	}
}

// Search forwards params as query parameters and returns the upstream JSON
// body unchanged.
func (c *Client) Search(ctx context.Context, params map[string]any) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		if s, ok := queryValue(v); ok {
			q.Set(k, s)
		}
	}

	body, err := c.get(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("divesites.Client.Search: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("divesites.Client.Search: upstream returned non-JSON body")
	}
	return body, nil
}

// Detail fetches one site. Returns domain.ErrNotFound when the directory has
// no site with that id.
func (c *Client) Detail(ctx context.Context, id int64) (Site, error) {
	q := url.Values{}
	q.Set("mode", "detail")
	q.Set("siteid", strconv.FormatInt(id, 10))

	body, err := c.get(ctx, q)
	if err != nil {
		return Site{}, fmt.Errorf("divesites.Client.Detail: %w", err)
	}

	var resp detailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Site{}, fmt.Errorf("divesites.Client.Detail: decode: %w", err)
	}
	if resp.Site == nil || resp.Site.Name == "" {
		return Site{}, fmt.Errorf("divesites.Client.Detail: site %d: %w", id, domain.ErrNotFound)
	}

	return Site{
		Name:        resp.Site.Name,
		Lat:         float64(resp.Site.Lat),
		Lng:         float64(resp.Site.Lng),
		Description: resp.Site.Description,
	}, nil
}

func (c *Client) get(ctx context.Context, q url.Values) (_ []byte, err error) {
	start := time.Now()
	defer func() { metrics.RecordUpstreamCall("divesites", time.Since(start), err) }()

	return c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, q)
	})
}

func (c *Client) fetch(ctx context.Context, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d", res.StatusCode)
	}
	return body, nil
}

type detailResponse struct {
	Site *struct {
		Name        string    `json:"name"`
		Lat         flexFloat `json:"lat"`
		Lng         flexFloat `json:"lng"`
		Description string    `json:"description"`
	} `json:"site"`
}

// flexFloat accepts a JSON number or a numeric string; the directory sends
// coordinates as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		return fmt.Errorf("missing coordinate")
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("coordinate %q: %w", b, err)
	}
	*f = flexFloat(v)
	return nil
}

// queryValue renders a decoded JSON scalar as a query parameter value.
// Nested objects and arrays have no query form and are dropped.
func queryValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}
