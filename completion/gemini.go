package completion

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"evidenze-chat/chat"
)

// GeminiClient is the alternate completion backend on the Gemini API. The
// underlying client is created once at construction, not per call.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, messages []chat.Message, params Params) (Result, error) {
	if len(messages) == 0 {
		return Result{}, newError(KindUnknown, errors.New("empty message sequence"))
	}

	// Gemini takes the system seed as a separate instruction and names the
	// assistant role "model"; the sequence order is otherwise preserved.
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			system = &genai.Content{Parts: []*genai.Part{{Text: msg.Content}}}
		case chat.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	temperature := float32(params.Temperature)
	result, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		contents,
		&genai.GenerateContentConfig{
			SystemInstruction: system,
			MaxOutputTokens:   int32(params.MaxTokens),
			Temperature:       &temperature,
		},
	)
	if err != nil {
		return Result{}, newError(KindNetwork, err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return Result{}, newError(KindEmpty, errors.New("model returned no text"))
	}

	var usage Usage
	if result.UsageMetadata != nil {
		usage = Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	logUsage(c.model, usage)
	return Result{Text: text, Usage: usage}, nil
}
