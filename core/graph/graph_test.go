package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/siherrmann/geobench/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle(t *testing.T) *Graph {
	t.Helper()
	g, err := Build([]model.City{
		{Name: "A", Lat: 0, Lon: 0},
		{Name: "B", Lat: 0, Lon: 1},
		{Name: "C", Lat: 1, Lon: 0},
	})
	require.NoError(t, err, "Expected no error building the graph")
	return g
}

func australia(t *testing.T) *Graph {
	t.Helper()
	g, err := Build([]model.City{
		{Name: "Perth", Lat: -31.9505, Lon: 115.8605},
		{Name: "Adelaide", Lat: -34.9285, Lon: 138.6007},
		{Name: "Melbourne", Lat: -37.8136, Lon: 144.9631},
		{Name: "Sydney", Lat: -33.8688, Lon: 151.2093},
		{Name: "Mount Isa", Lat: -20.7256, Lon: 139.4927},
	})
	require.NoError(t, err, "Expected no error building the graph")
	return g
}

func TestBuild(t *testing.T) {
	t.Run("Valid call Build", func(t *testing.T) {
		g := triangle(t)
		assert.Equal(t, 3, g.Len())
		assert.Equal(t, []string{"A", "B", "C"}, g.Names())
	})

	t.Run("Invalid cities are excluded", func(t *testing.T) {
		g, err := Build([]model.City{
			{Name: "A", Lat: 0, Lon: 0},
			{Name: "B", Lat: 0, Lon: 1},
			{Name: "Broken", Lat: 95, Lon: 0},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, g.Len())
		require.Len(t, g.Excluded(), 1)
		assert.ErrorIs(t, g.Excluded()[0], model.ErrData)
	})

	t.Run("Invalid call Build with one city", func(t *testing.T) {
		_, err := Build([]model.City{{Name: "A", Lat: 0, Lon: 0}})
		assert.ErrorIs(t, err, model.ErrInput)
	})

	t.Run("Invalid call Build with no usable cities", func(t *testing.T) {
		_, err := Build([]model.City{{Name: "A", Lat: 0, Lon: 500}, {Name: "B", Lat: -100, Lon: 0}})
		assert.ErrorIs(t, err, model.ErrInput)
	})
}

func TestDistance(t *testing.T) {
	g := triangle(t)

	t.Run("Valid call Distance", func(t *testing.T) {
		ab, err := g.Distance("A", "B")
		require.NoError(t, err)
		assert.Equal(t, 111.0, ab)

		ac, err := g.Distance("A", "C")
		require.NoError(t, err)
		assert.Equal(t, 111.0, ac)

		bc, err := g.Distance("B", "C")
		require.NoError(t, err)
		assert.Equal(t, 157.0, bc)
	})

	t.Run("Distance is symmetric", func(t *testing.T) {
		g := australia(t)
		for _, a := range g.Names() {
			for _, b := range g.Names() {
				if a == b {
					continue
				}
				ab, err := g.Distance(a, b)
				require.NoError(t, err)
				ba, err := g.Distance(b, a)
				require.NoError(t, err)
				assert.Equal(t, ab, ba, "Expected %s-%s to be symmetric", a, b)
				assert.Greater(t, ab, 0.0)
			}
		}
	})

	t.Run("Invalid call Distance with same city", func(t *testing.T) {
		_, err := g.Distance("A", "A")
		assert.ErrorIs(t, err, model.ErrInput)
	})

	t.Run("Invalid call Distance with unknown city", func(t *testing.T) {
		_, err := g.Distance("A", "Z")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestGreatCircleKm(t *testing.T) {
	perth := model.City{Name: "Perth", Lat: -31.9505, Lon: 115.8605}
	sydney := model.City{Name: "Sydney", Lat: -33.8688, Lon: 151.2093}

	assert.InDelta(t, 3290, GreatCircleKm(perth, sydney), 10)
	assert.Equal(t, 0.0, GreatCircleKm(perth, perth))
}

func TestNearest(t *testing.T) {
	t.Run("Ties go to the first inserted city", func(t *testing.T) {
		g := triangle(t)
		city, km, err := g.Nearest("A")
		require.NoError(t, err)
		assert.Equal(t, "B", city.Name)
		assert.Equal(t, 111.0, km)
	})

	t.Run("Valid call Nearest", func(t *testing.T) {
		g := australia(t)
		city, _, err := g.Nearest("Melbourne")
		require.NoError(t, err)
		assert.Equal(t, "Adelaide", city.Name)
	})

	t.Run("Invalid call Nearest with unknown city", func(t *testing.T) {
		g := triangle(t)
		_, _, err := g.Nearest("Z")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestClosestMatching(t *testing.T) {
	g := triangle(t)

	t.Run("Valid call ClosestMatching", func(t *testing.T) {
		city, km, err := g.ClosestMatching("C", 111)
		require.NoError(t, err)
		require.NotNil(t, city)
		assert.Equal(t, "A", city.Name)
		assert.Equal(t, 111.0, km)
	})

	t.Run("Excluded names are skipped", func(t *testing.T) {
		city, km, err := g.ClosestMatching("C", 111, "A")
		require.NoError(t, err)
		require.NotNil(t, city)
		assert.Equal(t, "B", city.Name)
		assert.Equal(t, 157.0, km)
	})

	t.Run("No candidates returns nil", func(t *testing.T) {
		city, _, err := g.ClosestMatching("C", 111, "A", "B")
		require.NoError(t, err)
		assert.Nil(t, city)
	})

	t.Run("Invalid call ClosestMatching with unknown city", func(t *testing.T) {
		_, _, err := g.ClosestMatching("Z", 111)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestEdges(t *testing.T) {
	g := australia(t)
	edges := g.Edges()

	assert.Len(t, edges, g.Len()*(g.Len()-1), "Expected a complete directed graph")
	for _, e := range edges {
		assert.NotEqual(t, e.From, e.To, "Expected no self loops")
		d, err := g.Distance(e.From, e.To)
		require.NoError(t, err)
		assert.Equal(t, d, e.Km)
	}

	neighbors, err := g.Neighbors("Perth")
	require.NoError(t, err)
	assert.Len(t, neighbors, g.Len()-1)
	assert.Equal(t, "Adelaide", neighbors[0].To)
}

func TestResolve(t *testing.T) {
	g := australia(t)

	for _, input := range []string{"Mount Isa", "Mount_Isa", "mount isa", " Mount Isa "} {
		name, err := g.Resolve(input)
		require.NoError(t, err, "Expected %q to resolve", input)
		assert.Equal(t, "Mount Isa", name)
	}

	_, err := g.Resolve("Atlantis")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestWriteTurtle(t *testing.T) {
	g := australia(t)

	var buf bytes.Buffer
	require.NoError(t, g.WriteTurtle(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "@prefix ns1: <http://example.org/cities#> ."))
	assert.Contains(t, out, "ns1:Mount_Isa a ns1:City ;")
	assert.Contains(t, out, "ns1:destination ns1:Adelaide")
	assert.Equal(t, g.Len()*(g.Len()-1), strings.Count(out, "ns1:destination"))
}

func TestTerm(t *testing.T) {
	assert.Equal(t, "ns1:Mount_Isa", Term("Mount Isa"))
	assert.Equal(t, "<http://example.org/cities#Kings%27_Canyon>", Term("Kings' Canyon"))

	assert.Equal(t, "Mount Isa", NameFromIRI("http://example.org/cities#Mount_Isa"))
	assert.Equal(t, "Mount Isa", NameFromIRI("ns1:Mount_Isa"))
	assert.Equal(t, "Kings' Canyon", NameFromIRI(Term("Kings' Canyon")))
}
