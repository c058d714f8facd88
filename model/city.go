package model

import (
	"fmt"
	"math"
	"strings"
)

// City is a named geographic entity
type City struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// NewCity validates name and coordinates and returns the city.
// Invalid records are reported with ErrData.
func NewCity(name string, lat float64, lon float64) (City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return City{}, fmt.Errorf("%w: city name is empty", ErrData)
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return City{}, fmt.Errorf("%w: latitude %v of %q is out of range", ErrData, lat, name)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return City{}, fmt.Errorf("%w: longitude %v of %q is out of range", ErrData, lon, name)
	}

	return City{Name: name, Lat: lat, Lon: lon}, nil
}

// Validate re-checks the invariants of a city built without NewCity
func (c City) Validate() error {
	_, err := NewCity(c.Name, c.Lat, c.Lon)
	return err
}
