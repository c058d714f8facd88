package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/geobench/core/cache"
	"github.com/siherrmann/geobench/core/store"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// Geocoder resolves a place name to coordinates
type Geocoder interface {
	Locate(ctx context.Context, name string) (model.City, error)
}

// Chain tries each geocoder in order and returns the first hit
type Chain []Geocoder

// Locate implements Geocoder
func (c Chain) Locate(ctx context.Context, name string) (model.City, error) {
	var errs []error
	for _, g := range c {
		city, err := g.Locate(ctx, name)
		if err == nil {
			return city, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return model.City{}, helper.NewError("locate", fmt.Errorf("%w: city %q", model.ErrNotFound, name))
	}
	return model.City{}, errors.Join(errs...)
}

// StoreGeocoder looks names up in a city store, ignoring case
type StoreGeocoder struct {
	store *store.Store
}

// FromStore returns a geocoder over the cities of a store
func FromStore(s *store.Store) *StoreGeocoder {
	return &StoreGeocoder{store: s}
}

// Locate implements Geocoder
func (g *StoreGeocoder) Locate(ctx context.Context, name string) (model.City, error) {
	name = strings.TrimSpace(name)
	if city, err := g.store.Get(name); err == nil {
		return city, nil
	}
	for _, city := range g.store.Cities() {
		if strings.EqualFold(city.Name, name) {
			return city, nil
		}
	}
	return model.City{}, helper.NewError("locate", fmt.Errorf("%w: city %q", model.ErrNotFound, name))
}

// Cached remembers the results of a geocoder in a cache. Entries are stored as
// [lat, lon]; misses are stored as null so they are not looked up again.
type Cached struct {
	next   Geocoder
	cache  cache.Cache
	logger *slog.Logger
}

// NewCached wraps next with the given cache
func NewCached(next Geocoder, c cache.Cache, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: c, logger: logger}
}

// Locate implements Geocoder
func (c *Cached) Locate(ctx context.Context, name string) (model.City, error) {
	key := cacheKey(name)

	value, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("geocode cache read failed", slog.String("name", name), slog.String("error", err.Error()))
	}
	if ok {
		var coords []float64
		if err := json.Unmarshal(value, &coords); err == nil {
			if coords == nil {
				return model.City{}, helper.NewError("locate", fmt.Errorf("%w: city %q", model.ErrNotFound, name))
			}
			if len(coords) == 2 {
				return model.NewCity(name, coords[0], coords[1])
			}
		}
		c.logger.Warn("ignoring malformed geocode cache entry", slog.String("name", name))
	}

	city, err := c.next.Locate(ctx, name)
	switch {
	case err == nil:
		c.put(ctx, key, []float64{city.Lat, city.Lon})
	case errors.Is(err, model.ErrNotFound):
		c.put(ctx, key, nil)
	}
	return city, err
}

func (c *Cached) put(ctx context.Context, key string, coords []float64) {
	value, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := c.cache.Put(ctx, key, value); err != nil {
		c.logger.Warn("geocode cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func cacheKey(name string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(name))
}
