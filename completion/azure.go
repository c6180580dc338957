package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"evidenze-chat/chat"
	"evidenze-chat/credential"
	"evidenze-chat/internal/httpclient"
	"evidenze-chat/internal/logger"
)

// AzureClient calls the Azure OpenAI chat-completions endpoint for a fixed
// deployment. Authentication is delegated to the injected credential
// provider: a static key goes into the api-key header, anything else is sent
// as a bearer token.
type AzureClient struct {
	base       *httpclient.BaseClient
	deployment string
	apiVersion string
	provider   credential.Provider
	useAPIKey  bool
	userAgent  string
}

type AzureOptions struct {
	Endpoint   string
	Deployment string
	APIVersion string
	Provider   credential.Provider
	UseAPIKey  bool
	Timeout    time.Duration
	UserAgent  string
}

func NewAzureClient(opts AzureOptions) *AzureClient {
	httpClient := httpclient.New(httpclient.Config{Timeout: opts.Timeout})
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "EvidenzeChat/1.0"
	}
	return &AzureClient{
		base:       httpclient.NewBaseClientWithClient(httpClient, opts.Endpoint),
		deployment: opts.Deployment,
		apiVersion: opts.APIVersion,
		provider:   opts.Provider,
		useAPIKey:  opts.UseAPIKey,
		userAgent:  userAgent,
	}
}

type azureChatRequest struct {
	Messages    []chat.Message `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
}

type azureChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func (c *AzureClient) Complete(ctx context.Context, messages []chat.Message, params Params) (Result, error) {
	cred, err := c.provider.Acquire(ctx)
	if err != nil {
		return Result{}, newError(KindAuth, err)
	}

	payload, err := json.Marshal(azureChatRequest{
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return Result{}, newError(KindUnknown, err)
	}

	query := url.Values{}
	query.Set("api-version", c.apiVersion)
	relPath := fmt.Sprintf("/openai/deployments/%s/chat/completions", c.deployment)

	req, err := c.base.NewJSONRequest(ctx, http.MethodPost, relPath, query, payload)
	if err != nil {
		return Result{}, newError(KindUnknown, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.useAPIKey {
		req.Header.Set("api-key", cred.Token)
	} else {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		// a timeout is indistinguishable from any other transport failure
		// for the caller: the turn fails, nothing is retried
		return Result{}, newError(KindNetwork, err)
	}
	defer resp.Body.Close()

	const maxBodySize = 5 * 1024 * 1024
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if readErr != nil {
		return Result{}, newError(KindNetwork, readErr)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, newError(classifyStatus(resp.StatusCode), fmt.Errorf("status=%d body=%s", resp.StatusCode, body))
	}

	var out azureChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, newError(KindMalformed, err)
	}
	if len(out.Choices) == 0 {
		return Result{}, newError(KindEmpty, errors.New("no choices in response"))
	}
	text := out.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return Result{}, newError(KindEmpty, errors.New("first choice has empty content"))
	}

	logUsage(c.deployment, out.Usage)
	return Result{Text: text, Usage: out.Usage}, nil
}

// logUsage records token accounting for cost observability. Nothing is
// persisted.
func logUsage(model string, usage Usage) {
	logger.InfoWithFields("completion usage", logger.Fields{
		"model":             model,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
	})
}
