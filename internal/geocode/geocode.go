// Package geocode turns free-form addresses into coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iyhunko/gas-app/internal/config"
	"github.com/iyhunko/gas-app/internal/metrics"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Coordinates is a geocoding result.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Geocoder resolves an address. A miss is reported as nil coordinates and a nil error.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

// Nop never finds anything.
type Nop struct{}

func (Nop) Geocode(context.Context, string) (*Coordinates, error) { return nil, nil }

// Nominatim queries a Nominatim-compatible search API.
type Nominatim struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	client    *http.Client
	limiter   *rate.Limiter
}

// New returns a Nominatim geocoder for conf, or Nop when no URL is configured.
func New(conf config.Geocoder) Geocoder {
	if conf.URL == "" {
		return Nop{}
	}
	return NewNominatim(conf, http.DefaultClient)
}

// NewNominatim creates a Nominatim client that sends at most conf.Rate lookups per second.
func NewNominatim(conf config.Geocoder, client *http.Client) *Nominatim {
	limit := rate.Inf
	if conf.Rate > 0 {
		limit = rate.Limit(conf.Rate)
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(conf.URL, "/"),
		userAgent: conf.UserAgent,
		timeout:   conf.Timeout,
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Geocode looks address up. The lookup, including time spent waiting for the
// rate limiter, is bounded by the configured timeout.
func (n *Nominatim) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		return nil, nil
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	coords, err := n.lookup(ctx, address)
	switch {
	case err != nil:
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
	case coords == nil:
		metrics.GeocodeLookups.WithLabelValues("miss").Inc()
	default:
		metrics.GeocodeLookups.WithLabelValues("hit").Inc()
	}
	return coords, err
}

func (n *Nominatim) lookup(ctx context.Context, address string) (*Coordinates, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoder rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoder request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read geocoder response: %w", err)
	}
	return parseResult(body)
}

func parseResult(body []byte) (*Coordinates, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("geocoder returned invalid JSON")
	}
	first := gjson.GetBytes(body, "0")
	if !first.Exists() {
		return nil, nil
	}

	lat, err := coordinate(first.Get("lat"))
	if err != nil {
		return nil, fmt.Errorf("bad latitude: %w", err)
	}
	lng, err := coordinate(first.Get("lon"))
	if err != nil {
		return nil, fmt.Errorf("bad longitude: %w", err)
	}
	return &Coordinates{Lat: lat, Lng: lng}, nil
}

// coordinate accepts both the string and the number encoding of a coordinate.
func coordinate(v gjson.Result) (float64, error) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), nil
	case gjson.String:
		return strconv.ParseFloat(v.Str, 64)
	}
	return 0, fmt.Errorf("unexpected value %q", v.Raw)
}

// Lookup runs g and logs failures. It returns nil on any miss, error or timeout
// so callers can treat geocoding as best-effort.
func Lookup(ctx context.Context, g Geocoder, address string) *Coordinates {
	coords, err := g.Geocode(ctx, address)
	if err != nil {
		slog.Warn("geocoding failed", slog.String("address", address), slog.Any("err", err))
		return nil
	}
	return coords
}
