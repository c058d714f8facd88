package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap search endpoint
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent identifies the client as required by the usage policy
	DefaultUserAgent = "geobench/1.0"
)

// Nominatim geocodes place names with the OpenStreetMap Nominatim API.
// Requests are spaced at least MinInterval apart.
type Nominatim struct {
	BaseURL     string
	UserAgent   string
	CountryCode string
	MinInterval time.Duration

	httpClient *http.Client
	mu         sync.Mutex
	last       time.Time
}

// NewNominatim returns a client for the public endpoint restricted to the
// given ISO country code (empty for worldwide)
func NewNominatim(countryCode string) *Nominatim {
	return &Nominatim{
		BaseURL:     DefaultNominatimURL,
		UserAgent:   DefaultUserAgent,
		CountryCode: strings.ToLower(countryCode),
		MinInterval: time.Second,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Locate implements Geocoder
func (n *Nominatim) Locate(ctx context.Context, name string) (model.City, error) {
	query := url.Values{}
	query.Set("q", name)
	query.Set("format", "json")
	query.Set("limit", "1")
	if n.CountryCode != "" {
		query.Set("countrycodes", n.CountryCode)
	}

	if err := n.wait(ctx); err != nil {
		return model.City{}, helper.NewError("nominatim", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(n.BaseURL, "/")+"/search?"+query.Encode(), nil)
	if err != nil {
		return model.City{}, helper.NewError("nominatim request", err)
	}
	req.Header.Set("User-Agent", n.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return model.City{}, helper.NewError("nominatim request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return model.City{}, helper.NewError("nominatim request", fmt.Errorf("search failed: %s (%s)", resp.Status, strings.TrimSpace(string(body))))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return model.City{}, helper.NewError("nominatim decode", err)
	}
	if len(places) == 0 {
		return model.City{}, helper.NewError("nominatim", fmt.Errorf("%w: city %q", model.ErrNotFound, name))
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return model.City{}, helper.NewError("nominatim", fmt.Errorf("%w: invalid coordinates for %q", model.ErrData, name))
	}
	return model.NewCity(name, lat, lon)
}

func (n *Nominatim) wait(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if delay := n.MinInterval - time.Since(n.last); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	n.last = time.Now()
	return nil
}
