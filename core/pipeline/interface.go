package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/geobench/model"
)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// ChatFunc sends one prompt to a chat model and returns its reply
type ChatFunc func(ctx context.Context, prompt string) (string, error)

// AskFunc answers a single benchmark question.
// A nil answer is an abstention.
type AskFunc func(ctx context.Context, question string) (any, error)

// Pipeline binds an answer producer to the strategy name it is reported under
type Pipeline struct {
	Strategy model.Strategy
	Ask      AskFunc
	logger   *slog.Logger
}

// NewPipeline creates a new answering pipeline
func NewPipeline(strategy model.Strategy, ask AskFunc) *Pipeline {
	return &Pipeline{
		Strategy: strategy,
		Ask:      ask,
		logger:   slog.Default(),
	}
}

// SetLogger sets the logger used for producer failures
func (p *Pipeline) SetLogger(logger *slog.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Answer asks one question and records the raw answer.
// Errors and panics of the producer become a nil answer with the failure in Error.
func (p *Pipeline) Answer(ctx context.Context, setIndex int, q model.Question) (record model.AnswerRecord) {
	record = model.AnswerRecord{
		QuestionID: q.ID,
		SetIndex:   setIndex,
		Difficulty: q.Difficulty,
		Strategy:   p.Strategy,
		Question:   q.Text,
	}

	defer func() {
		if r := recover(); r != nil {
			record.Raw = nil
			record.Error = fmt.Sprintf("panic: %v", r)
			p.logger.Error("Producer panicked", slog.String("strategy", string(p.Strategy)), slog.Int("set", setIndex), slog.Any("panic", r))
		}
	}()

	raw, err := p.Ask(ctx, q.Text)
	if err != nil {
		record.Error = err.Error()
		p.logger.Warn("Producer failed", slog.String("strategy", string(p.Strategy)), slog.Int("set", setIndex), slog.String("difficulty", string(q.Difficulty)), slog.String("error", err.Error()))
		return record
	}

	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	record.Raw = raw
	return record
}
