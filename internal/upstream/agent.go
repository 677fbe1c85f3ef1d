package upstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/nlpodyssey/openai-agents-go/agents"
	"github.com/nlpodyssey/openai-agents-go/modelsettings"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/packages/param"
)

// AgentChatClient adapts an agents.ModelProvider (any provider the
// openai-agents-go SDK supports — Anthropic, Gemini, local runtimes, etc.)
// into the gateway's ChatClient shape, for upstream providers that aren't
// plain OpenAI-compatible HTTP endpoints.
type AgentChatClient struct {
	provider     agents.ModelProvider
	defaultModel string
	maxTokens    int64
}

// NewAgentChatClient builds an AgentChatClient over provider, defaulting to
// defaultModel when a request doesn't specify one.
func NewAgentChatClient(provider agents.ModelProvider, defaultModel string, maxTokens int64) *AgentChatClient {
	return &AgentChatClient{provider: provider, defaultModel: defaultModel, maxTokens: maxTokens}
}

func (a *AgentChatClient) modelAndPrompt(params openai.ChatCompletionNewParams) (model, systemPrompt, userMessage string) {
	model = string(params.Model)
	if model == "" {
		model = a.defaultModel
	}
	var userParts []string
	for _, m := range params.Messages {
		switch {
		case m.OfSystem != nil:
			systemPrompt = m.OfSystem.Content.OfString.Value
		case m.OfUser != nil:
			userParts = append(userParts, m.OfUser.Content.OfString.Value)
		}
	}
	userMessage = strings.Join(userParts, "\n")
	return
}

func (a *AgentChatClient) newAgent(model, systemPrompt string) agents.Agent {
	return agents.New("gateway-upstream").
		WithInstructions(systemPrompt).
		WithModel(model).
		WithModelSettings(modelsettings.ModelSettings{
			MaxTokens: param.NewOpt(a.maxTokens),
		})
}

func (a *AgentChatClient) runConfig() agents.RunConfig {
	return agents.RunConfig{
		ModelProvider:   a.provider,
		MaxTurns:        1,
		TracingDisabled: true,
	}
}

func (a *AgentChatClient) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	model, systemPrompt, userMessage := a.modelAndPrompt(params)
	agent := a.newAgent(model, systemPrompt)
	runner := agents.Runner{Config: a.runConfig()}

	result, err := runner.Run(ctx, agent, userMessage)
	if err != nil {
		return openai.ChatCompletion{}, fmt.Errorf("upstream: agent run: %w", err)
	}

	resp := openai.ChatCompletion{Model: model}
	resp.Choices = []openai.ChatCompletionChoice{{
		Message: openai.ChatCompletionMessage{Content: result.FinalOutput},
	}}
	return resp, nil
}

func (a *AgentChatClient) Stream(ctx context.Context, params openai.ChatCompletionNewParams, onToken TokenCallback) error {
	model, systemPrompt, userMessage := a.modelAndPrompt(params)
	agent := a.newAgent(model, systemPrompt)
	runner := agents.Runner{Config: a.runConfig()}

	events, errCh, err := runner.RunStreamedChan(ctx, agent, userMessage)
	if err != nil {
		return fmt.Errorf("upstream: agent stream start: %w", err)
	}

	for ev := range events {
		raw, ok := ev.(agents.RawResponsesStreamEvent)
		if !ok || raw.Data.Type != "response.output_text.delta" {
			continue
		}
		onToken(raw.Data.Delta)
	}

	if streamErr := <-errCh; streamErr != nil {
		return fmt.Errorf("upstream: agent stream: %w", streamErr)
	}
	return nil
}
