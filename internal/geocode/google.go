package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/places-api/internal/config"
	"github.com/phrazzld/places-api/internal/domain"
)

var (
	// ErrNoResults is returned when the provider knows no location for an address.
	ErrNoResults = errors.New("no location found for address")

	// ErrProvider is returned when the provider rejects the request or
	// responds with something other than a usable result.
	ErrProvider = errors.New("geocoding provider error")

	// ErrEmptyAddress is returned for blank addresses without calling the provider.
	ErrEmptyAddress = errors.New("address cannot be empty")
)

// Geocoder resolves an address to a location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Location, error)
}

// Client is a Geocoder backed by the Google Geocoding API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Geocoder = (*Client)(nil)

// NewClient creates a Client from cfg.
func NewClient(cfg config.GeocoderConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("geocoder API key cannot be empty")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid geocoder base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "geocoder")),
	}, nil
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the location of the first result for address.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Location{}, ErrEmptyAddress
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Location{}, fmt.Errorf("failed to build geocode request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%w: request failed: %w", ErrProvider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.Location{}, fmt.Errorf("%w: unexpected status %d", ErrProvider, resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Location{}, fmt.Errorf("%w: invalid response body: %w", ErrProvider, err)
	}

	c.logger.Debug("geocode response",
		slog.String("status", body.Status),
		slog.Int("results", len(body.Results)),
		slog.Duration("duration", time.Since(start)))

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.Location{}, ErrNoResults
	default:
		return domain.Location{}, fmt.Errorf("%w: %s %s", ErrProvider, body.Status, body.ErrorMessage)
	}
	if len(body.Results) == 0 {
		return domain.Location{}, ErrNoResults
	}

	loc := body.Results[0].Geometry.Location
	return domain.Location{Lat: loc.Lat, Lon: loc.Lng}, nil
}
