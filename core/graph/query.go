package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// QueryOp is the operation of a structured graph query
type QueryOp string

const (
	// OpDistance answers with the distance between From and To
	OpDistance QueryOp = "distance"
	// OpNearest answers with the distance from From to its closest city
	OpNearest QueryOp = "nearest"
	// OpClosestMatching answers with the city whose distance from From best
	// matches the distance between RefFrom and RefTo (or TargetKm)
	OpClosestMatching QueryOp = "closest_matching"
)

// Query is the structured query a language model emits for the graph strategy.
// ExcludeRefs drops RefFrom and RefTo from the closest_matching candidates.
type Query struct {
	Op          QueryOp  `json:"op"`
	From        string   `json:"from"`
	To          string   `json:"to,omitempty"`
	RefFrom     string   `json:"ref_from,omitempty"`
	RefTo       string   `json:"ref_to,omitempty"`
	TargetKm    *float64 `json:"target_km,omitempty"`
	ExcludeRefs bool     `json:"exclude_refs,omitempty"`
}

// ParseQuery decodes the first JSON object found in text.
// Markdown code fences and surrounding prose are ignored.
func ParseQuery(text string) (Query, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return Query{}, helper.NewError("parse query", fmt.Errorf("%w: no JSON object in %q", model.ErrInput, text))
	}

	var q Query
	if err := json.Unmarshal([]byte(text[start:end+1]), &q); err != nil {
		return Query{}, helper.NewError("parse query", fmt.Errorf("%w: %v", model.ErrInput, err))
	}
	q.Op = QueryOp(strings.ToLower(strings.TrimSpace(string(q.Op))))
	return q, nil
}

// Execute runs a query against the graph. Distance queries return a float64
// km value, closest_matching returns the city name.
func (g *Graph) Execute(q Query) (any, error) {
	from, err := g.Resolve(q.From)
	if err != nil {
		return nil, err
	}

	switch q.Op {
	case OpDistance:
		to, err := g.Resolve(q.To)
		if err != nil {
			return nil, err
		}
		return g.Distance(from, to)
	case OpNearest:
		_, km, err := g.Nearest(from)
		if err != nil {
			return nil, err
		}
		return km, nil
	case OpClosestMatching:
		target, exclude, err := g.queryTarget(q)
		if err != nil {
			return nil, err
		}
		city, _, err := g.ClosestMatching(from, target, exclude...)
		if err != nil || city == nil {
			return nil, err
		}
		return city.Name, nil
	default:
		return nil, helper.NewError("execute query", fmt.Errorf("%w: unknown op %q", model.ErrInput, q.Op))
	}
}

func (g *Graph) queryTarget(q Query) (float64, []string, error) {
	if q.TargetKm != nil {
		return *q.TargetKm, nil, nil
	}

	refFrom, err := g.Resolve(q.RefFrom)
	if err != nil {
		return 0, nil, err
	}
	refTo, err := g.Resolve(q.RefTo)
	if err != nil {
		return 0, nil, err
	}
	km, err := g.Distance(refFrom, refTo)
	if err != nil {
		return 0, nil, err
	}
	if !q.ExcludeRefs {
		return km, nil, nil
	}
	return km, []string{refFrom, refTo}, nil
}
