// Package geocode turns coordinates into a "City, Country" label using a
// Nominatim-compatible reverse geocoding service.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/pkordes/dive-logbook/internal/metrics"
)

// ErrNoResult is returned when the service has no place for the coordinates,
// which is common far offshore.
var ErrNoResult = errors.New("no place found")

const userAgent = "dive-logbook/1.0"

// Client calls a Nominatim /reverse endpoint. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client for baseURL whose calls give up after timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Reverse returns "{place}, {country}" for the coordinates. The place is the
// most specific of city, town, village, county and state that is present.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (_ string, err error) {
	start := time.Now()
	defer func() { metrics.RecordUpstreamCall("geocoder", time.Since(start), err) }()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("zoom", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("geocode.Client.Reverse: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode.Client.Reverse: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode.Client.Reverse: upstream status %d", res.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("geocode.Client.Reverse: decode: %w", err)
	}
	if body.Error != "" || body.Address.Country == "" {
		return "", fmt.Errorf("geocode.Client.Reverse: (%v, %v): %w", lat, lng, ErrNoResult)
	}

	place := firstNonEmpty(body.Address.City, body.Address.Town, body.Address.Village,
		body.Address.County, body.Address.State)
	if place == "" {
		return body.Address.Country, nil
	}
	return place + ", " + body.Address.Country, nil
}

type reverseResponse struct {
	Error   string `json:"error"`
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
