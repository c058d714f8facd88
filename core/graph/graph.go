package graph

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/siherrmann/geobench/core/store"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// GreatCircleKm returns the unrounded great-circle distance between two cities
func GreatCircleKm(a model.City, b model.City) float64 {
	from := s2.LatLngFromDegrees(a.Lat, a.Lon)
	to := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return from.Distance(to).Radians() * EarthRadiusKm
}

// Graph is the complete distance graph over a set of cities.
// It is read-only after Build and safe for concurrent readers.
type Graph struct {
	cities   []model.City
	index    map[string]int
	km       [][]float64
	excluded []error
}

// Build computes the rounded great-circle distance of every ordered pair.
// Cities with invalid coordinates are excluded; fewer than two usable cities
// is an input error.
func Build(cities []model.City) (*Graph, error) {
	return FromStore(store.New(cities...))
}

// FromStore builds the graph over the cities of a store
func FromStore(s *store.Store) (*Graph, error) {
	cities := s.Cities()
	if len(cities) < 2 {
		return nil, helper.NewError("build graph", fmt.Errorf("%w: need at least 2 cities, got %d", model.ErrInput, len(cities)))
	}

	g := &Graph{
		cities:   cities,
		index:    make(map[string]int, len(cities)),
		km:       make([][]float64, len(cities)),
		excluded: s.Excluded(),
	}
	for i, c := range cities {
		g.index[c.Name] = i
		g.km[i] = make([]float64, len(cities))
	}

	for i := range cities {
		for j := i + 1; j < len(cities); j++ {
			d := math.Round(GreatCircleKm(cities[i], cities[j]))
			g.km[i][j] = d
			g.km[j][i] = d
		}
	}

	return g, nil
}

// Len returns the number of cities in the graph
func (g *Graph) Len() int {
	return len(g.cities)
}

// Cities returns the cities in insertion order
func (g *Graph) Cities() []model.City {
	out := make([]model.City, len(g.cities))
	copy(out, g.cities)
	return out
}

// Names returns the city names in insertion order
func (g *Graph) Names() []string {
	names := make([]string, len(g.cities))
	for i, c := range g.cities {
		names[i] = c.Name
	}
	return names
}

// Excluded returns the data errors of cities left out of the graph
func (g *Graph) Excluded() []error {
	return g.excluded
}

// City returns the city with the given name
func (g *Graph) City(name string) (model.City, error) {
	i, err := g.lookup(name)
	if err != nil {
		return model.City{}, err
	}
	return g.cities[i], nil
}

// Resolve maps a loosely written name (underscores instead of spaces,
// different case) to the name of a city in the graph
func (g *Graph) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if _, ok := g.index[name]; ok {
		return name, nil
	}
	spaced := strings.ReplaceAll(name, "_", " ")
	if _, ok := g.index[spaced]; ok {
		return spaced, nil
	}
	for _, c := range g.cities {
		if strings.EqualFold(c.Name, spaced) {
			return c.Name, nil
		}
	}
	return "", helper.NewError("resolve city", fmt.Errorf("%w: city %q", model.ErrNotFound, name))
}

// Distance returns the distance in km between two different cities
func (g *Graph) Distance(a string, b string) (float64, error) {
	i, err := g.lookup(a)
	if err != nil {
		return 0, err
	}
	j, err := g.lookup(b)
	if err != nil {
		return 0, err
	}
	if i == j {
		return 0, helper.NewError("distance", fmt.Errorf("%w: distance of %q to itself is undefined", model.ErrInput, a))
	}
	return g.km[i][j], nil
}

// Nearest returns the closest other city. Ties go to the city inserted first.
func (g *Graph) Nearest(name string) (model.City, float64, error) {
	i, err := g.lookup(name)
	if err != nil {
		return model.City{}, 0, err
	}

	best := -1
	for j := range g.cities {
		if j == i {
			continue
		}
		if best == -1 || g.km[i][j] < g.km[i][best] {
			best = j
		}
	}

	return g.cities[best], g.km[i][best], nil
}

// ClosestMatching returns the neighbour of from whose distance differs least
// from targetKm. Names in exclude are not candidates. Ties go to the city
// inserted first. A nil city is returned when there are no candidates.
func (g *Graph) ClosestMatching(from string, targetKm float64, exclude ...string) (*model.City, float64, error) {
	i, err := g.lookup(from)
	if err != nil {
		return nil, 0, err
	}

	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	best := -1
	bestDiff := math.Inf(1)
	for j, c := range g.cities {
		if j == i || skip[c.Name] {
			continue
		}
		diff := math.Abs(g.km[i][j] - targetKm)
		if diff < bestDiff {
			best = j
			bestDiff = diff
		}
	}

	if best == -1 {
		return nil, 0, nil
	}
	city := g.cities[best]
	return &city, g.km[i][best], nil
}

// Neighbors returns the outgoing edges of a city in insertion order
func (g *Graph) Neighbors(name string) ([]model.DistanceEdge, error) {
	i, err := g.lookup(name)
	if err != nil {
		return nil, err
	}

	edges := make([]model.DistanceEdge, 0, len(g.cities)-1)
	for j, c := range g.cities {
		if j == i {
			continue
		}
		edges = append(edges, model.DistanceEdge{From: g.cities[i].Name, To: c.Name, Km: g.km[i][j]})
	}
	return edges, nil
}

// Edges returns all N·(N−1) directed edges in insertion order
func (g *Graph) Edges() []model.DistanceEdge {
	n := len(g.cities)
	edges := make([]model.DistanceEdge, 0, n*(n-1))
	for i := range g.cities {
		for j := range g.cities {
			if i == j {
				continue
			}
			edges = append(edges, model.DistanceEdge{From: g.cities[i].Name, To: g.cities[j].Name, Km: g.km[i][j]})
		}
	}
	return edges
}

func (g *Graph) lookup(name string) (int, error) {
	i, ok := g.index[name]
	if !ok {
		return 0, helper.NewError("lookup city", fmt.Errorf("%w: city %q", model.ErrNotFound, name))
	}
	return i, nil
}
