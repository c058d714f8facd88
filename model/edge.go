package model

// DistanceEdge is the great-circle distance between two distinct cities,
// rounded to whole kilometres
type DistanceEdge struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Km   float64 `json:"km"`
}

// Reverse returns the edge in the opposite direction
func (e DistanceEdge) Reverse() DistanceEdge {
	return DistanceEdge{From: e.To, To: e.From, Km: e.Km}
}
