package relay

import (
	"context"
	"fmt"

	"evidenze-chat/completion"
	"evidenze-chat/config"
	"evidenze-chat/credential"
	"evidenze-chat/eventbus"
	"evidenze-chat/session"
)

const cognitiveScope = "https://cognitiveservices.azure.com/.default"
const cognitiveResource = "https://cognitiveservices.azure.com/"

// FromConfig assembles the full turn pipeline (store, credential provider,
// completion client, event bus, responder) for the configured variant.
// The returned closer flushes the event bus.
func FromConfig(ctx context.Context, cfg config.AppConfig, userAgent string) (*Responder, func(), error) {
	client, model, err := newCompletionClient(ctx, cfg, userAgent)
	if err != nil {
		return nil, nil, err
	}

	bus, err := newEventBus(cfg)
	if err != nil {
		return nil, nil, err
	}

	var store session.Store
	if cfg.SessionMode == config.SessionStateless {
		store = session.NewStatelessStore(cfg.Chat.SystemPrompt)
	} else {
		store = session.NewMemoryStore(cfg.Chat.SystemPrompt)
	}

	responder := NewResponder(Options{
		Store:  store,
		Client: client,
		Bus:    bus,
		Params: completion.Params{
			MaxTokens:   cfg.Chat.MaxTokens,
			Temperature: cfg.Chat.TemperatureValue(),
		},
		Phrases:         cfg.Phrases,
		Timeout:         cfg.Chat.Timeout(),
		IncludeUserName: cfg.Chat.IncludeUserName,
		Model:           model,
		Topic:           cfg.EventBus.Topic,
	})
	return responder, bus.Close, nil
}

func newCompletionClient(ctx context.Context, cfg config.AppConfig, userAgent string) (completion.Client, string, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := completion.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, "", fmt.Errorf("building gemini client: %w", err)
		}
		return client, cfg.Gemini.Model, nil
	case config.ProviderAzure:
		provider, useAPIKey, err := newAzureProvider(cfg.Azure)
		if err != nil {
			return nil, "", err
		}
		client := completion.NewAzureClient(completion.AzureOptions{
			Endpoint:   cfg.Azure.Endpoint,
			Deployment: cfg.Azure.DeploymentName,
			APIVersion: cfg.Azure.APIVersion,
			Provider:   provider,
			UseAPIKey:  useAPIKey,
			Timeout:    cfg.Chat.Timeout(),
			UserAgent:  userAgent,
		})
		return client, cfg.Azure.DeploymentName, nil
	default:
		return nil, "", fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

func newAzureProvider(cfg config.AzureConfig) (credential.Provider, bool, error) {
	switch cfg.CredentialMode {
	case config.CredentialAPIKey:
		return credential.NewStaticKey(cfg.APIKey), true, nil
	case config.CredentialClientCredentials:
		return credential.NewCached(credential.NewEntra(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, cognitiveScope)), false, nil
	case config.CredentialManagedIdentity:
		return credential.NewCached(credential.NewManagedIdentity(cognitiveResource, cfg.ManagedIdentityClientID)), false, nil
	default:
		return nil, false, fmt.Errorf("unknown credential mode %q", cfg.CredentialMode)
	}
}

func newEventBus(cfg config.AppConfig) (eventbus.EventBus, error) {
	if cfg.EventBus.Mode == "kafka" {
		return eventbus.NewKafkaEventBus(cfg.EventBus.Brokers)
	}
	return eventbus.NewLogBus(), nil
}
