package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/siherrmann/geobench/core/graph"
	"github.com/siherrmann/geobench/model"
)

const answerInstruction = `Given the following question, provide a direct answer. Only return the distance (km) or the city name (text) as requested in the question. Do not include any additional information including units.`

// PlainPrompt asks the model for a bare answer without any context
func PlainPrompt(question string) string {
	return fmt.Sprintf(`%s
Do not provide any additional context except the answer.
Question:
%s

Answer:
`, answerInstruction, question)
}

// ContextPrompt adds retrieved passages to the question
func ContextPrompt(question string, results []model.RetrievalResult) string {
	var passages strings.Builder
	for _, r := range results {
		passages.WriteString(r.Passage.Text)
		passages.WriteString("\n")
	}

	return fmt.Sprintf(`You are an assistant with access to a database containing distances between cities.

%s

Question:
%s
Context:
%s`, answerInstruction, question, passages.String())
}

// GraphQueryPrompt asks the model to translate the question into a JSON graph query
func GraphQueryPrompt(question string, schema string) string {
	return fmt.Sprintf(`Convert the following natural language question into a JSON query for a city distance graph.

The graph follows this structure:
- Cities are identified by IRIs in the namespace <%s>.
- The predicate ns1:distanceTo links a city to a destination.
- The predicate ns1:distance is the distance in km.

Example:
%s
Answer with exactly one JSON object and nothing else. Supported queries:
- {"op": "distance", "from": "<city1>", "to": "<city2>"} for the distance between two cities.
- {"op": "nearest", "from": "<city>"} for the distance from a city to its closest city.
- {"op": "closest_matching", "from": "<city3>", "ref_from": "<city1>", "ref_to": "<city2>"} for the city whose distance from city3 is closest to the distance between city1 and city2.

Use the city names as they appear in the question.

Question:
%s

JSON query:`, graph.Namespace, schema, question)
}

// schemaExcerpt returns the first lines of the Turtle rendering of g
func schemaExcerpt(g *graph.Graph, maxLines int) (string, error) {
	var buf bytes.Buffer
	if err := g.WriteTurtle(&buf); err != nil {
		return "", err
	}

	lines := strings.Split(buf.String(), "\n")
	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "    ...")
	}
	return strings.Join(lines, "\n") + "\n", nil
}
