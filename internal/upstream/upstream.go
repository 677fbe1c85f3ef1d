// Package upstream wraps the chat-completion backend the chat-with-audio
// pipeline proxies to: a generalization of the teacher's LLMChatClient/
// AgentLLM multi-provider routing, backed concretely by openai-go.
package upstream

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// TokenCallback receives each streamed content delta as it arrives.
type TokenCallback func(token string)

// ChatClient is the capability the audio pipeline needs from an upstream
// chat-completion provider: a plain call and a token-streamed call.
type ChatClient interface {
	// Complete runs params to completion and returns the full chat
	// completion response.
	Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
	// Stream runs params and invokes onToken for every content delta,
	// returning the final accumulated chunk stream error (nil on clean EOF).
	Stream(ctx context.Context, params openai.ChatCompletionNewParams, onToken TokenCallback) error
}

// OpenAIClient is the concrete ChatClient backed by openai-go, used both
// for the real OpenAI API and any OpenAI-compatible endpoint (vLLM,
// Ollama's /v1 shim, etc.) via a custom base URL.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient builds an OpenAIClient. baseURL may be empty to use
// OpenAI's default endpoint.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

func (c *OpenAIClient) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, fmt.Errorf("upstream: chat completion: %w", err)
	}
	return *resp, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, params openai.ChatCompletionNewParams, onToken TokenCallback) error {
	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			onToken(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("upstream: stream: %w", err)
	}
	return nil
}
