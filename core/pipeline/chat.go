package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"
	"github.com/siherrmann/geobench/core/cache"
	"github.com/siherrmann/geobench/helper"
)

const (
	DefaultOpenAIModel    = "gpt-4"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultMaxTokens      = 256
)

// ChatConfig configures a chat backend
type ChatConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"`
	BaseURL  string `yaml:"base_url"`
}

// NewChat creates the chat backend named by config.Provider ("openai" or "anthropic")
func NewChat(config ChatConfig) (ChatFunc, error) {
	if config.APIKey == "" {
		return nil, helper.NewError("chat config", fmt.Errorf("missing api key for provider %q", config.Provider))
	}

	switch strings.ToLower(config.Provider) {
	case "", "openai":
		clientConfig := openai.DefaultConfig(config.APIKey)
		if config.BaseURL != "" {
			clientConfig.BaseURL = config.BaseURL
		}
		return OpenAIChat(openai.NewClientWithConfig(clientConfig), config.Model), nil
	case "anthropic":
		options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
		if config.BaseURL != "" {
			options = append(options, option.WithBaseURL(config.BaseURL))
		}
		return AnthropicChat(anthropic.NewClient(options...), config.Model), nil
	}
	return nil, helper.NewError("chat config", fmt.Errorf("unknown provider %q", config.Provider))
}

// OpenAIChat answers prompts with an OpenAI chat completion at temperature 0
func OpenAIChat(client *openai.Client, model string) ChatFunc {
	if model == "" {
		model = DefaultOpenAIModel
	}

	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       model,
			Temperature: 0,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return "", helper.NewError("openai completion", err)
		}
		if len(resp.Choices) == 0 {
			return "", helper.NewError("openai completion", fmt.Errorf("no choices returned"))
		}
		return resp.Choices[0].Message.Content, nil
	}
}

// AnthropicChat answers prompts with the Anthropic messages API at temperature 0
func AnthropicChat(client anthropic.Client, model string) ChatFunc {
	if model == "" {
		model = DefaultAnthropicModel
	}

	return func(ctx context.Context, prompt string) (string, error) {
		msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(model),
			MaxTokens:   defaultMaxTokens,
			Temperature: anthropic.Float(0),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", helper.NewError("anthropic message", err)
		}

		var text strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		return text.String(), nil
	}
}

// CachedChat memoizes replies by prompt so repeated runs do not hit the API again
func CachedChat(next ChatFunc, c cache.Cache, logger *slog.Logger) ChatFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, prompt string) (string, error) {
		sum := sha256.Sum256([]byte(prompt))
		key := "chat:" + hex.EncodeToString(sum[:])

		if raw, ok, err := c.Get(ctx, key); err != nil {
			logger.Warn("Chat cache read failed", slog.String("error", err.Error()))
		} else if ok {
			var reply string
			if err := json.Unmarshal(raw, &reply); err == nil {
				return reply, nil
			}
		}

		reply, err := next(ctx, prompt)
		if err != nil {
			return "", err
		}

		if raw, err := json.Marshal(reply); err == nil {
			if err := c.Put(ctx, key, raw); err != nil {
				logger.Warn("Chat cache write failed", slog.String("error", err.Error()))
			}
		}
		return reply, nil
	}
}
