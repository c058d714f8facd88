package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// DefaultOverpassURL is the public Overpass API interpreter
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// Overpass lists the cities of a country from OpenStreetMap
type Overpass struct {
	URL       string
	UserAgent string
	// Places are the place=* values that count as cities
	Places []string

	httpClient *http.Client
}

// NewOverpass returns a client for the public interpreter listing place=city nodes
func NewOverpass() *Overpass {
	return &Overpass{
		URL:       DefaultOverpassURL,
		UserAgent: DefaultUserAgent,
		Places:    []string{"city"},
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type overpassResponse struct {
	Elements []struct {
		Type string            `json:"type"`
		Lat  float64           `json:"lat"`
		Lon  float64           `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Query returns the Overpass QL query for the cities of a country
func (o *Overpass) Query(country string) string {
	return fmt.Sprintf(`[out:json];
area["name"=%q][admin_level=2];
node[place~"^(%s)$"](area);
out;`, country, strings.Join(o.Places, "|"))
}

// FetchCities returns the city nodes of a country in response order.
// Nodes without a name are skipped.
func (o *Overpass) FetchCities(ctx context.Context, country string) ([]model.City, error) {
	form := url.Values{}
	form.Set("data", o.Query(country))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, helper.NewError("overpass request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", o.UserAgent)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, helper.NewError("overpass request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, helper.NewError("overpass request", fmt.Errorf("query failed: %s (%s)", resp.Status, strings.TrimSpace(string(body))))
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, helper.NewError("overpass decode", err)
	}

	cities := make([]model.City, 0, len(decoded.Elements))
	for _, el := range decoded.Elements {
		name := el.Tags["name"]
		if el.Type != "node" || name == "" {
			continue
		}
		cities = append(cities, model.City{Name: name, Lat: el.Lat, Lon: el.Lon})
	}

	if len(cities) == 0 {
		return nil, helper.NewError("overpass", fmt.Errorf("%w: no cities for country %q", model.ErrNotFound, country))
	}
	return cities, nil
}
