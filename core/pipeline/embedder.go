package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/geobench/helper"
)

// DefaultEmbeddingModel produces 384-dimensional sentence embeddings
const DefaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"

// DefaultEmbeddingDim is the dimension of DefaultEmbeddingModel
const DefaultEmbeddingDim = 384

// DefaultEmbedder creates an embedder using the all-MiniLM-L6-v2 sentence transformer
func DefaultEmbedder() (EmbedFunc, error) {
	return NewEmbedder(DefaultEmbeddingModel, "onnx/model.onnx")
}

// NewEmbedder creates an embedder for a sentence transformer from the
// Hugging Face hub. The model is downloaded on first use.
func NewEmbedder(modelName string, onnxFilePath string) (EmbedFunc, error) {
	modelPath, err := helper.PrepareModel(modelName, onnxFilePath)
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		return result.Embeddings[0], nil
	}, nil
}
