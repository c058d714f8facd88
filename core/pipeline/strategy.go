package pipeline

import (
	"context"

	"github.com/siherrmann/geobench/core/graph"
	"github.com/siherrmann/geobench/core/retrieval"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// PlainLLM answers from the model's own knowledge
func PlainLLM(chat ChatFunc) AskFunc {
	return func(ctx context.Context, question string) (any, error) {
		reply, err := chat(ctx, PlainPrompt(question))
		if err != nil {
			return nil, err
		}
		return reply, nil
	}
}

// VectorRAG retrieves distance passages similar to the question and
// gives them to the model as context
func VectorRAG(chat ChatFunc, engine *retrieval.Engine, strategy retrieval.Strategy, config model.QueryConfig) AskFunc {
	return func(ctx context.Context, question string) (any, error) {
		embedding, err := engine.Embed(question)
		if err != nil {
			return nil, err
		}

		results, err := strategy.Retrieve(ctx, embedding, config)
		if err != nil {
			return nil, helper.NewError("retrieve", err)
		}

		reply, err := chat(ctx, ContextPrompt(question, results))
		if err != nil {
			return nil, err
		}
		return reply, nil
	}
}

// GraphQuery lets the model write a structured query which is executed
// against the distance graph. The query result is the answer.
// With excludeRefs the reference cities of closest_matching are never answers.
func GraphQuery(chat ChatFunc, g *graph.Graph, excludeRefs bool) (AskFunc, error) {
	schema, err := schemaExcerpt(g, 8)
	if err != nil {
		return nil, helper.NewError("graph schema", err)
	}

	return func(ctx context.Context, question string) (any, error) {
		reply, err := chat(ctx, GraphQueryPrompt(question, schema))
		if err != nil {
			return nil, err
		}

		q, err := graph.ParseQuery(reply)
		if err != nil {
			return nil, err
		}
		if excludeRefs {
			q.ExcludeRefs = true
		}

		return g.Execute(q)
	}, nil
}
