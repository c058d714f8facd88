package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// Store holds the cities of one run in insertion order, unique by name
type Store struct {
	cities   []model.City
	index    map[string]int
	excluded []error
}

// New builds a store from the given cities.
// Duplicates keep the first occurrence; invalid cities are excluded.
func New(cities ...model.City) *Store {
	s := &Store{
		cities: make([]model.City, 0, len(cities)),
		index:  make(map[string]int, len(cities)),
	}
	for _, c := range cities {
		_ = s.Add(c.Name, c.Lat, c.Lon)
	}
	return s
}

// Add validates and appends a city. An invalid city is excluded and reported
// with model.ErrData; a duplicate name is ignored.
func (s *Store) Add(name string, lat float64, lon float64) error {
	city, err := model.NewCity(name, lat, lon)
	if err != nil {
		s.excluded = append(s.excluded, err)
		return err
	}
	if _, exists := s.index[city.Name]; exists {
		return nil
	}

	s.index[city.Name] = len(s.cities)
	s.cities = append(s.cities, city)
	return nil
}

// Cities returns a copy of the cities in insertion order
func (s *Store) Cities() []model.City {
	out := make([]model.City, len(s.cities))
	copy(out, s.cities)
	return out
}

// Len returns the number of cities
func (s *Store) Len() int {
	return len(s.cities)
}

// Get returns the city with the given name
func (s *Store) Get(name string) (model.City, error) {
	i, ok := s.index[name]
	if !ok {
		return model.City{}, fmt.Errorf("%w: city %q", model.ErrNotFound, name)
	}
	return s.cities[i], nil
}

// Excluded returns the data errors of all rejected records
func (s *Store) Excluded() []error {
	out := make([]error, len(s.excluded))
	copy(out, s.excluded)
	return out
}

type cityRecord struct {
	Name string          `json:"name"`
	Lat  json.RawMessage `json:"lat"`
	Lon  json.RawMessage `json:"lon"`
}

// LoadJSON reads [{"name": …, "lat": …, "lon": …}] records.
// Coordinates may be JSON numbers or numeric strings; missing or unparsable
// coordinates exclude the record.
func LoadJSON(r io.Reader) (*Store, error) {
	var records []cityRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, helper.NewError("decode cities", fmt.Errorf("%w: %v", model.ErrInput, err))
	}

	s := New()
	for _, rec := range records {
		lat, latErr := parseCoordinate(rec.Lat)
		lon, lonErr := parseCoordinate(rec.Lon)
		if err := errors.Join(latErr, lonErr); err != nil {
			s.excluded = append(s.excluded, fmt.Errorf("%w: city %q: %v", model.ErrData, rec.Name, err))
			continue
		}
		_ = s.Add(rec.Name, lat, lon)
	}

	return s, nil
}

func parseCoordinate(raw json.RawMessage) (float64, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return 0, errors.New("missing coordinate")
	}
	text = strings.Trim(text, `"`)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %s", raw)
	}
	return v, nil
}
