package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

const (
	defaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// ErrCityNotFound reports a geocoding query with no results.
var ErrCityNotFound = errors.New("city not found")

// Location is a geocoded place.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
	Timezone  string
}

// Client wraps the Open-Meteo geocoding and forecast APIs. No API key is
// required.
type Client struct {
	httpClient  *http.Client
	geocodeURL  string
	forecastURL string
	log         hclog.Logger
}

// NewClient creates an Open-Meteo client.
func NewClient(log hclog.Logger) *Client {
	if log == nil {
		log = hclog.Default()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		geocodeURL:  defaultGeocodeURL,
		forecastURL: defaultForecastURL,
		log:         log,
	}
}

// SetEndpoints overrides the geocoding and forecast API base URLs, for
// self-hosted Open-Meteo instances or proxies. Empty values keep the
// current endpoint.
func (c *Client) SetEndpoints(geocodeURL, forecastURL string) {
	if geocodeURL != "" {
		c.geocodeURL = geocodeURL
	}
	if forecastURL != "" {
		c.forecastURL = forecastURL
	}
}

// Geocode resolves a city name to coordinates and a timezone via the
// first geocoding match. An empty result set returns ErrCityNotFound.
func (c *Client) Geocode(ctx context.Context, city string) (*Location, error) {
	query := url.Values{}
	query.Set("name", city)
	query.Set("count", "1")
	query.Set("language", "en")
	query.Set("format", "json")

	var response struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Timezone  string  `json:"timezone"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, c.geocodeURL, query, &response); err != nil {
		return nil, err
	}

	if len(response.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}

	first := response.Results[0]
	return &Location{
		Name:      first.Name,
		Latitude:  first.Latitude,
		Longitude: first.Longitude,
		Timezone:  first.Timezone,
	}, nil
}

// getJSON performs a GET and decodes the JSON response, surfacing
// Open-Meteo's in-body error field as an error.
func (c *Client) getJSON(ctx context.Context, baseURL string, query url.Values, out interface{}) error {
	fullURL := baseURL + "?" + query.Encode()
	reqID := uuid.NewString()
	started := time.Now()
	c.log.Debug("weather: GET", "url", baseURL, "request_id", reqID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Open-Meteo reports problems in-body with an error flag, sometimes
	// alongside a non-2xx status.
	var apiErr struct {
		Error  bool   `json:"error"`
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error {
		reason := apiErr.Reason
		if reason == "" {
			reason = "Unknown error"
		}
		return fmt.Errorf("weather API error: %s", reason)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("weather API error: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	c.log.Debug("weather: GET completed",
		"url", baseURL,
		"request_id", reqID,
		"status", resp.StatusCode,
		"duration", time.Since(started))
	return nil
}
