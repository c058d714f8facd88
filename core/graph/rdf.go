package graph

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Namespace is the IRI namespace of cities in the knowledge graph
const Namespace = "http://example.org/cities#"

var localName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Term returns the Turtle term of a city: ns1:Mount_Isa, or a full IRI when
// the name cannot be written as a prefixed name
func Term(name string) string {
	local := strings.ReplaceAll(name, " ", "_")
	if localName.MatchString(local) {
		return "ns1:" + local
	}
	return "<" + Namespace + url.PathEscape(local) + ">"
}

// NameFromIRI turns a city IRI or prefixed name back into a city name
func NameFromIRI(iri string) string {
	iri = strings.Trim(strings.TrimSpace(iri), "<>")
	if i := strings.LastIndex(iri, "#"); i >= 0 {
		iri = iri[i+1:]
	} else {
		iri = strings.TrimPrefix(iri, "ns1:")
	}
	if unescaped, err := url.PathUnescape(iri); err == nil {
		iri = unescaped
	}
	return strings.ReplaceAll(iri, "_", " ")
}

// WriteTurtle serialises the graph as RDF Turtle. Every city is an ns1:City
// with one blank node per destination:
//
//	ns1:Adelaide a ns1:City ;
//	    ns1:distanceTo [ ns1:destination ns1:Perth ;
//	            ns1:distance 2135 ] .
func (g *Graph) WriteTurtle(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "@prefix ns1: <%s> .\n\n", Namespace)

	for i, city := range g.cities {
		fmt.Fprintf(bw, "%s a ns1:City ;\n    ns1:distanceTo ", Term(city.Name))
		first := true
		for j, other := range g.cities {
			if i == j {
				continue
			}
			if !first {
				bw.WriteString(",\n        ")
			}
			first = false
			fmt.Fprintf(bw, "[ ns1:destination %s ;\n            ns1:distance %s ]",
				Term(other.Name), strconv.FormatFloat(g.km[i][j], 'f', -1, 64))
		}
		bw.WriteString(" .\n\n")
	}

	return bw.Flush()
}
