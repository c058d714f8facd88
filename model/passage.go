package model

import (
	"fmt"
	"strconv"
	"time"
)

// Passage is one retrievable sentence about the distance of a city pair
type Passage struct {
	ID         int       `json:"id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Km         float64   `json:"km"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
	// Metadata holds the structured form of Text: city1, city2 and distance
	Metadata   Metadata  `json:"metadata,omitempty"`
	Similarity *float64  `json:"similarity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPassage renders "Distance between {from} and {to} is {km} km"
func NewPassage(from string, to string, km float64) Passage {
	return Passage{
		From:     from,
		To:       to,
		Km:       km,
		Text:     fmt.Sprintf("Distance between %s and %s is %s km", from, to, strconv.FormatFloat(km, 'f', -1, 64)),
		Metadata: Metadata{
			"city1":    from,
			"city2":    to,
			"distance": km,
		},
	}
}

// RetrievalResult represents a passage retrieved by a query
type RetrievalResult struct {
	Passage         Passage `json:"passage"`
	Score           float64 `json:"score"`            // Combined score from ranking
	SimilarityScore float64 `json:"similarity_score"` // Cosine similarity score
	RetrievalMethod string  `json:"retrieval_method"` // vector or graph_neighbor
}
