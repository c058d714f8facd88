package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Difficulty is the tier of a benchmark question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists all tiers in evaluation order
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty converts a string into a Difficulty
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInput, s)
}

// AnswerShape is the kind of value a question expects
type AnswerShape int

const (
	ShapeNumeric AnswerShape = iota
	ShapeCityName
)

// Shape returns the answer shape of the tier
func (d Difficulty) Shape() AnswerShape {
	if d == DifficultyHard {
		return ShapeCityName
	}
	return ShapeNumeric
}

// GroundTruth is the known answer of a question. Both fields nil means the
// question has no answer (unanswerable).
type GroundTruth struct {
	Km   *float64 `json:"km,omitempty"`
	City *string  `json:"city,omitempty"`
}

// NumericTruth returns a distance ground truth
func NumericTruth(km float64) GroundTruth {
	return GroundTruth{Km: &km}
}

// CityTruth returns a city ground truth together with its distance from the
// reference city of the question
func CityTruth(name string, km float64) GroundTruth {
	return GroundTruth{Km: &km, City: &name}
}

// IsNull reports whether the ground truth is missing
func (g GroundTruth) IsNull() bool {
	return g.Km == nil && g.City == nil
}

// Question is a single benchmark question with structured city references
type Question struct {
	ID          uuid.UUID   `json:"id"`
	Difficulty  Difficulty  `json:"difficulty"`
	Text        string      `json:"question"`
	Cities      []string    `json:"cities"`
	GroundTruth GroundTruth `json:"ground_truth"`
}

// QuestionNamespace seeds the name-based question IDs
var QuestionNamespace = uuid.MustParse("6f1c2a4e-5d0b-4a8e-9c53-0e8f4b7d2a61")

// NewQuestionID returns a deterministic ID for a rendered question
func NewQuestionID(index int, difficulty Difficulty, text string) uuid.UUID {
	return uuid.NewSHA1(QuestionNamespace, []byte(fmt.Sprintf("%d/%s/%s", index, difficulty, text)))
}

// Unanswerable reports whether the question has no ground truth
func (q Question) Unanswerable() bool {
	return q.GroundTruth.IsNull()
}

// Answer returns the ground truth in the shape of the question:
// a distance for easy and medium, a city name for hard, nil if unanswerable.
func (q Question) Answer() any {
	switch q.Difficulty.Shape() {
	case ShapeCityName:
		if q.GroundTruth.City != nil {
			return *q.GroundTruth.City
		}
	default:
		if q.GroundTruth.Km != nil {
			return *q.GroundTruth.Km
		}
	}
	return nil
}

type questionJSON struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Answer   any       `json:"answer"`
	AnswerKm *float64  `json:"answer_km,omitempty"`
	// AnswerCity names the closest city of a medium question
	AnswerCity *string  `json:"answer_city,omitempty"`
	Cities     []string `json:"cities"`
}

// QuestionSet groups the three questions generated from one city sample
type QuestionSet struct {
	Index  int
	Easy   Question
	Medium Question
	Hard   Question
}

// Question returns the question of the given tier
func (s QuestionSet) Question(d Difficulty) (Question, error) {
	switch d {
	case DifficultyEasy:
		return s.Easy, nil
	case DifficultyMedium:
		return s.Medium, nil
	case DifficultyHard:
		return s.Hard, nil
	}
	return Question{}, fmt.Errorf("%w: unknown difficulty %q", ErrInput, d)
}

// Questions returns the questions in evaluation order
func (s QuestionSet) Questions() []Question {
	return []Question{s.Easy, s.Medium, s.Hard}
}

// MarshalJSON writes {"index": …, "easy": {"question": …, "answer": …}, …}
func (s QuestionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index  int          `json:"index"`
		Easy   questionJSON `json:"easy"`
		Medium questionJSON `json:"medium"`
		Hard   questionJSON `json:"hard"`
	}{
		Index:  s.Index,
		Easy:   toQuestionJSON(s.Easy),
		Medium: toQuestionJSON(s.Medium),
		Hard:   toQuestionJSON(s.Hard),
	})
}

// UnmarshalJSON reads the format written by MarshalJSON
func (s *QuestionSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Index  int           `json:"index"`
		Easy   *questionJSON `json:"easy"`
		Medium *questionJSON `json:"medium"`
		Hard   *questionJSON `json:"hard"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Easy == nil || raw.Medium == nil || raw.Hard == nil {
		return fmt.Errorf("%w: question set %d is missing a difficulty", ErrInput, raw.Index)
	}

	var err error
	s.Index = raw.Index
	if s.Easy, err = fromQuestionJSON(DifficultyEasy, *raw.Easy); err != nil {
		return err
	}
	if s.Medium, err = fromQuestionJSON(DifficultyMedium, *raw.Medium); err != nil {
		return err
	}
	if s.Hard, err = fromQuestionJSON(DifficultyHard, *raw.Hard); err != nil {
		return err
	}
	return nil
}

func toQuestionJSON(q Question) questionJSON {
	out := questionJSON{
		ID:       q.ID,
		Question: q.Text,
		Answer:   q.Answer(),
		Cities:   q.Cities,
	}
	if q.Difficulty.Shape() == ShapeCityName {
		out.AnswerKm = q.GroundTruth.Km
	} else {
		out.AnswerCity = q.GroundTruth.City
	}
	return out
}

func fromQuestionJSON(d Difficulty, in questionJSON) (Question, error) {
	q := Question{
		ID:         in.ID,
		Difficulty: d,
		Text:       in.Question,
		Cities:     in.Cities,
	}

	switch v := in.Answer.(type) {
	case nil:
	case float64:
		q.GroundTruth.Km = &v
		q.GroundTruth.City = in.AnswerCity
	case string:
		q.GroundTruth.City = &v
		q.GroundTruth.Km = in.AnswerKm
	default:
		return Question{}, fmt.Errorf("%w: unsupported answer type %T for %s question", ErrInput, in.Answer, d)
	}

	return q, nil
}
