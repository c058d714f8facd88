package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Strategy identifies an answer producer under test
type Strategy string

const (
	StrategyPlain  Strategy = "plain"
	StrategyVector Strategy = "vector"
	StrategyGraph  Strategy = "graph"
)

// AnswerRecord is the raw answer of one strategy to one question
type AnswerRecord struct {
	QuestionID uuid.UUID  `json:"question_id"`
	SetIndex   int        `json:"set_index"`
	Difficulty Difficulty `json:"difficulty"`
	Strategy   Strategy   `json:"strategy"`
	Question   string     `json:"question"`
	Raw        any        `json:"answer"`
	Error      string     `json:"error,omitempty"`
}

// AnswerSet holds the answers of one strategy to one question set
type AnswerSet struct {
	Index  int
	Easy   AnswerRecord
	Medium AnswerRecord
	Hard   AnswerRecord
}

// Record returns the answer of the given tier
func (s AnswerSet) Record(d Difficulty) (AnswerRecord, error) {
	switch d {
	case DifficultyEasy:
		return s.Easy, nil
	case DifficultyMedium:
		return s.Medium, nil
	case DifficultyHard:
		return s.Hard, nil
	}
	return AnswerRecord{}, fmt.Errorf("%w: unknown difficulty %q", ErrInput, d)
}

// Set stores the record under its difficulty
func (s *AnswerSet) Set(r AnswerRecord) error {
	switch r.Difficulty {
	case DifficultyEasy:
		s.Easy = r
	case DifficultyMedium:
		s.Medium = r
	case DifficultyHard:
		s.Hard = r
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInput, r.Difficulty)
	}
	return nil
}

type answerSetJSON struct {
	Index  int          `json:"index"`
	Easy   AnswerRecord `json:"easy"`
	Medium AnswerRecord `json:"medium"`
	Hard   AnswerRecord `json:"hard"`
}

// MarshalJSON writes the same {"easy": …, "medium": …, "hard": …} shape as QuestionSet
func (s AnswerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(answerSetJSON{Index: s.Index, Easy: s.Easy, Medium: s.Medium, Hard: s.Hard})
}

// UnmarshalJSON restores the difficulty of every record from its key
func (s *AnswerSet) UnmarshalJSON(data []byte) error {
	var raw answerSetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw.Easy.Difficulty = DifficultyEasy
	raw.Medium.Difficulty = DifficultyMedium
	raw.Hard.Difficulty = DifficultyHard
	*s = AnswerSet(raw)
	return nil
}

// AnswerFile is the persisted output of one strategy run
type AnswerFile struct {
	RunID                uuid.UUID   `json:"run_id"`
	Strategy             Strategy    `json:"strategy"`
	Answers              []AnswerSet `json:"answers"`
	ExecutionTimeSeconds float64     `json:"execution_time_seconds"`
}
