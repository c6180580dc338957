package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

// Completion providers selectable via CHAT_COMPLETION_PROVIDER.
const (
	ProviderAzure  = "azure"
	ProviderGemini = "gemini"
)

// Credential modes selectable via CHAT_CREDENTIAL_MODE.
const (
	CredentialAPIKey            = "api_key"
	CredentialManagedIdentity   = "managed_identity"
	CredentialClientCredentials = "client_credentials"
)

// Session store modes selectable via CHAT_SESSION_MODE.
const (
	SessionMemory    = "memory"
	SessionStateless = "stateless"
)

type AppConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Chat    ChatConfig    `yaml:"chat"`
	Phrases PhrasesConfig `yaml:"phrases"`
	Gemini  GeminiConfig  `yaml:"gemini"`

	// environment-sourced, filled by InitApp
	Azure    AzureConfig `yaml:"-"`
	Bot      BotConfig   `yaml:"-"`
	EventBus EventBusConfig `yaml:"-"`

	Provider    string `yaml:"-"`
	SessionMode string `yaml:"-"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChatConfig bounds the generation parameters. None of these are
// user-controlled at request time. Temperature is a pointer so an explicit
// `temperature: 0` stays distinguishable from an absent key.
type ChatConfig struct {
	SystemPrompt    string   `yaml:"system_prompt"`
	MaxTokens       int      `yaml:"max_tokens"`
	Temperature     *float64 `yaml:"temperature"`
	TimeoutSeconds  int      `yaml:"request_timeout_seconds"`
	IncludeUserName bool     `yaml:"include_user_name"`
}

// TemperatureValue returns the configured temperature, or the default when the
// key was never set.
func (c ChatConfig) TemperatureValue() float64 {
	if c.Temperature == nil {
		return 0.7
	}
	return *c.Temperature
}

func (c ChatConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PhrasesConfig holds the canned texts and the trivial-turn keyword sets.
type PhrasesConfig struct {
	Greetings     []string `yaml:"greetings"`
	HelpKeywords  []string `yaml:"help_keywords"`
	GreetingReply string   `yaml:"greeting_reply"`
	HelpReply     string   `yaml:"help_reply"`
	Apology       string   `yaml:"apology"`
	Welcome       string   `yaml:"welcome"`
	Processing    string   `yaml:"processing"`
}

type AzureConfig struct {
	Endpoint       string
	APIVersion     string
	DeploymentName string
	APIKey         string
	CredentialMode string

	// client_credentials mode
	TenantID     string
	ClientID     string
	ClientSecret string

	// managed_identity mode
	ManagedIdentityClientID string
}

type GeminiConfig struct {
	APIKey string `yaml:"-"`
	Model  string `yaml:"model"`
}

// BotConfig carries the Bot Framework app registration. Both values empty
// means local/emulator mode: inbound auth and connector tokens are skipped.
type BotConfig struct {
	AppID       string
	AppPassword string
}

type EventBusConfig struct {
	Mode    string // "log" or "kafka"
	Brokers string
	Topic   string
}

var config *AppConfig

// InitApp loads .env, config.yaml and the environment, then validates the
// values required by the selected provider and credential mode. It panics on
// a broken configuration so the process never starts half-wired.
func InitApp() {
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}

	var c AppConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		panic(err)
	}

	fillFromEnv(&c)
	applyDefaults(&c)
	if err := validate(&c); err != nil {
		panic(err)
	}
	config = &c
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}
	return *config
}

func fillFromEnv(c *AppConfig) {
	c.Provider = envOr("CHAT_COMPLETION_PROVIDER", ProviderAzure)
	c.SessionMode = envOr("CHAT_SESSION_MODE", SessionMemory)

	c.Azure = AzureConfig{
		Endpoint:                os.Getenv("AZURE_OPENAI_ENDPOINT"),
		APIVersion:              envOr("AZURE_OPENAI_API_VERSION", "2024-02-15-preview"),
		DeploymentName:          os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"),
		APIKey:                  os.Getenv("AZURE_OPENAI_API_KEY"),
		CredentialMode:          envOr("CHAT_CREDENTIAL_MODE", CredentialAPIKey),
		TenantID:                os.Getenv("AZURE_TENANT_ID"),
		ClientID:                os.Getenv("AZURE_CLIENT_ID"),
		ClientSecret:            os.Getenv("AZURE_CLIENT_SECRET"),
		ManagedIdentityClientID: os.Getenv("AZURE_MANAGED_IDENTITY_CLIENT_ID"),
	}
	c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")

	c.Bot = BotConfig{
		AppID:       os.Getenv("MicrosoftAppId"),
		AppPassword: os.Getenv("MicrosoftAppPassword"),
	}

	c.EventBus = EventBusConfig{
		Mode:    envOr("EVENTBUS_MODE", "log"),
		Brokers: os.Getenv("KAFKA_BROKERS"),
		Topic:   envOr("EVENTBUS_TOPIC", "chat.turns"),
	}
}

// applyDefaults fills the generation parameters left unset in config.yaml.
func applyDefaults(c *AppConfig) {
	if c.Chat.MaxTokens <= 0 {
		c.Chat.MaxTokens = 500
	}
	if c.Chat.Temperature == nil {
		t := 0.7
		c.Chat.Temperature = &t
	}
}

func validate(c *AppConfig) error {
	if c.Chat.SystemPrompt == "" {
		return fmt.Errorf("config: chat.system_prompt is required")
	}

	switch c.Provider {
	case ProviderAzure:
		if c.Azure.Endpoint == "" {
			return fmt.Errorf("config: AZURE_OPENAI_ENDPOINT is required")
		}
		if c.Azure.DeploymentName == "" {
			return fmt.Errorf("config: AZURE_OPENAI_DEPLOYMENT_NAME is required")
		}
		switch c.Azure.CredentialMode {
		case CredentialAPIKey:
			if c.Azure.APIKey == "" {
				return fmt.Errorf("config: AZURE_OPENAI_API_KEY is required in api_key mode")
			}
		case CredentialClientCredentials:
			if c.Azure.TenantID == "" || c.Azure.ClientID == "" || c.Azure.ClientSecret == "" {
				return fmt.Errorf("config: AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET are required in client_credentials mode")
			}
		case CredentialManagedIdentity:
			// client id optional: system-assigned identity has none
		default:
			return fmt.Errorf("config: unknown credential mode %q", c.Azure.CredentialMode)
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("config: GEMINI_API_KEY is required for the gemini provider")
		}
		if c.Gemini.Model == "" {
			return fmt.Errorf("config: gemini.model is required for the gemini provider")
		}
	default:
		return fmt.Errorf("config: unknown completion provider %q", c.Provider)
	}

	switch c.SessionMode {
	case SessionMemory, SessionStateless:
	default:
		return fmt.Errorf("config: unknown session mode %q", c.SessionMode)
	}

	switch c.EventBus.Mode {
	case "log":
	case "kafka":
		if c.EventBus.Brokers == "" {
			return fmt.Errorf("config: KAFKA_BROKERS is required in kafka eventbus mode")
		}
	default:
		return fmt.Errorf("config: unknown eventbus mode %q", c.EventBus.Mode)
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetBasePath walks up from the working directory until it finds config.yaml,
// so binaries can run from any subdirectory of the checkout.
func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
