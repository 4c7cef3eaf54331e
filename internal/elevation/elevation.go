// Package elevation looks up terrain elevation and place names for
// coordinates using public OpenStreetMap-adjacent services. Both
// lookups are best-effort: callers are expected to treat an error as
// "unavailable" and carry on without the value.
package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultElevationURL = "https://api.open-elevation.com/api/v1/lookup"
	defaultGeocodeURL   = "https://nominatim.openstreetmap.org/reverse"
	defaultTimeout      = 10 * time.Second

	// Nominatim's usage policy requires an identifying agent.
	userAgent = "cup-editor/1.0"
)

// Client queries the elevation and reverse-geocoding services.
type Client struct {
	httpClient   *http.Client
	elevationURL string
	geocodeURL   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, including its
// timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithElevationURL overrides the elevation service endpoint.
func WithElevationURL(u string) Option {
	return func(c *Client) { c.elevationURL = u }
}

// WithGeocodeURL overrides the reverse-geocoding endpoint.
func WithGeocodeURL(u string) Option {
	return func(c *Client) { c.geocodeURL = u }
}

// NewClient returns a Client with a 10 second request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: defaultTimeout},
		elevationURL: defaultElevationURL,
		geocodeURL:   defaultGeocodeURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type elevationResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// Lookup returns the terrain elevation in meters at the coordinate.
func (c *Client) Lookup(ctx context.Context, lat, lon float64) (float64, error) {
	u := fmt.Sprintf("%s?locations=%s,%s", c.elevationURL,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))

	body, err := c.get(ctx, u)
	if err != nil {
		return 0, fmt.Errorf("elevation lookup: %w", err)
	}

	var resp elevationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("elevation lookup: decoding response: %w", err)
	}
	if len(resp.Results) == 0 {
		return 0, fmt.Errorf("elevation lookup: no results for %f,%f", lat, lon)
	}
	return resp.Results[0].Elevation, nil
}

type geocodeResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// placePriority orders address components from most to least useful as
// a short waypoint name.
var placePriority = []string{"city", "town", "village", "hamlet", "suburb"}

// ReverseGeocode returns a short place name for the coordinate, taken
// from the most specific settlement-level address component available.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("zoom", "10")
	q.Set("addressdetails", "1")

	body, err := c.get(ctx, c.geocodeURL+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}

	var resp geocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("reverse geocode: decoding response: %w", err)
	}

	for _, key := range placePriority {
		if name := resp.Address[key]; name != "" {
			return name, nil
		}
	}
	if resp.DisplayName != "" {
		name, _, _ := strings.Cut(resp.DisplayName, ",")
		return strings.TrimSpace(name), nil
	}
	return "", fmt.Errorf("reverse geocode: no place name for %f,%f", lat, lon)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
