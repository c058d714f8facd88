package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/siherrmann/geobench/core/evaluate"
	"github.com/siherrmann/geobench/core/questions"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

const (
	QuestionsFile = "city_questions.json"
	ReportFile    = "report.json"
	MetricsFile   = "metrics.prom"
)

// AnswersFile returns the file name of the answers of a strategy
func AnswersFile(strategy model.Strategy) string {
	return fmt.Sprintf("%s_answers.json", strategy)
}

// WriteQuestions stores question sets as an indented JSON list
func WriteQuestions(path string, sets []model.QuestionSet) error {
	return writeJSON(path, sets)
}

// ReadQuestions loads question sets. Files without indexes, IDs or city
// references get them restored from the position and the question text.
func ReadQuestions(path string) ([]model.QuestionSet, error) {
	var sets []model.QuestionSet
	if err := readJSON(path, &sets); err != nil {
		return nil, err
	}

	for i := range sets {
		if sets[i].Index == 0 {
			sets[i].Index = i
		}
		for _, d := range model.Difficulties {
			q, _ := sets[i].Question(d)
			if len(q.Cities) == 0 {
				cities, err := questions.Parse(d, q.Text)
				if err != nil {
					return nil, helper.NewError("restore cities", err)
				}
				q.Cities = cities
			}
			if q.ID == uuid.Nil {
				q.ID = model.NewQuestionID(sets[i].Index, d, q.Text)
			}
			setQuestion(&sets[i], q)
		}
	}
	return sets, nil
}

func setQuestion(s *model.QuestionSet, q model.Question) {
	switch q.Difficulty {
	case model.DifficultyEasy:
		s.Easy = q
	case model.DifficultyMedium:
		s.Medium = q
	case model.DifficultyHard:
		s.Hard = q
	}
}

// WriteAnswers stores the answers of one strategy
func WriteAnswers(path string, file model.AnswerFile) error {
	return writeJSON(path, file)
}

// WriteReports stores evaluated strategies with their raw results
func WriteReports(path string, reports []evaluate.StrategyReport) error {
	return writeJSON(path, reports)
}

// ReadReports loads evaluated strategies
func ReadReports(path string) ([]evaluate.StrategyReport, error) {
	var reports []evaluate.StrategyReport
	if err := readJSON(path, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return helper.NewError("create directory", err)
		}
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return helper.NewError("marshal "+filepath.Base(path), err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0640); err != nil {
		return helper.NewError("write "+filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return helper.NewError("read "+filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return helper.NewError("decode "+filepath.Base(path), fmt.Errorf("%w: %v", model.ErrInput, err))
	}
	return nil
}
