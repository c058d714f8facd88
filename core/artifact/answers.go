package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

type answerFileJSON struct {
	model.AnswerFile
	Answers []json.RawMessage `json:"answers"`
}

// legacyAnswer is one entry of the flat answer list
// [{"easy": {"question": …, "answer": …}}, {"medium": …}, {"hard": …}, …]
type legacyAnswer struct {
	Question string `json:"question"`
	Answer   any    `json:"answer"`
}

// ReadAnswers loads the answers of one strategy. Both the grouped layout
// written by WriteAnswers and the flat list with one difficulty per entry are
// accepted. strategy is used when the file does not name one.
func ReadAnswers(path string, strategy model.Strategy) (model.AnswerFile, error) {
	var raw answerFileJSON
	if err := readJSON(path, &raw); err != nil {
		return model.AnswerFile{}, err
	}

	file := raw.AnswerFile
	if file.Strategy == "" {
		file.Strategy = strategy
	}

	answers, err := decodeAnswers(raw.Answers)
	if err != nil {
		return model.AnswerFile{}, helper.NewError("decode answers", err)
	}
	for i := range answers {
		for _, d := range model.Difficulties {
			record, _ := answers[i].Record(d)
			record.Strategy = file.Strategy
			record.SetIndex = answers[i].Index
			_ = answers[i].Set(record)
		}
	}
	file.Answers = answers

	return file, nil
}

func decodeAnswers(entries []json.RawMessage) ([]model.AnswerSet, error) {
	if isLegacy(entries) {
		return decodeLegacy(entries)
	}

	sets := make([]model.AnswerSet, len(entries))
	for i, entry := range entries {
		if err := json.Unmarshal(entry, &sets[i]); err != nil {
			return nil, fmt.Errorf("%w: answer set %d: %v", model.ErrInput, i, err)
		}
		if sets[i].Index == 0 {
			sets[i].Index = i
		}
	}
	return sets, nil
}

func isLegacy(entries []json.RawMessage) bool {
	if len(entries) == 0 {
		return false
	}
	var first map[string]json.RawMessage
	if err := json.Unmarshal(entries[0], &first); err != nil {
		return false
	}
	if len(first) != 1 {
		return false
	}
	_, ok := first[string(model.DifficultyEasy)]
	return ok
}

func decodeLegacy(entries []json.RawMessage) ([]model.AnswerSet, error) {
	n := len(model.Difficulties)
	if len(entries)%n != 0 {
		return nil, fmt.Errorf("%w: %d answers is not a multiple of %d", model.ErrInput, len(entries), n)
	}

	sets := make([]model.AnswerSet, len(entries)/n)
	for i, entry := range entries {
		d := model.Difficulties[i%n]

		var wrapped map[string]legacyAnswer
		if err := json.Unmarshal(entry, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: answer %d: %v", model.ErrInput, i, err)
		}
		answer, ok := wrapped[string(d)]
		if !ok {
			return nil, fmt.Errorf("%w: answer %d should be %s", model.ErrInput, i, d)
		}

		set := &sets[i/n]
		set.Index = i / n
		_ = set.Set(model.AnswerRecord{
			Difficulty: d,
			Question:   answer.Question,
			Raw:        answer.Answer,
		})
	}
	return sets, nil
}
