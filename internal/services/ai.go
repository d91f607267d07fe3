package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/launchdeck/launchdeck/backend/pkg/logger"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/launchdeck/launchdeck/backend/internal/config"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned when a hosted provider is selected without a key.
var ErrMissingAPIKey = errors.New("LLM API key is not configured")

// TextGenerator produces a completion for a single-turn prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// AIService calls the configured LLM provider.
type AIService struct {
	config *config.LLMConfig
}

func NewAIService(cfg *config.LLMConfig) *AIService {
	return &AIService{config: cfg}
}

// ModelName returns the model identifier recorded on scoring rows.
func (s *AIService) ModelName() string {
	if s.config.Provider == "" || s.config.Provider == "openai" {
		return s.config.Model
	}
	return s.config.Provider + "/" + s.config.Model
}

// Generate sends prompt to the provider. The caller owns the deadline.
func (s *AIService) Generate(ctx context.Context, prompt string) (string, error) {
	if s.config.Provider != "ollama" && strings.TrimSpace(s.config.APIKey) == "" {
		return "", ErrMissingAPIKey
	}

	logger.Infof("[AI] Using provider: %s, model: %s, prompt length: %d chars", s.config.Provider, s.config.Model, len(prompt))

	var (
		content string
		err     error
	)
	switch s.config.Provider {
	case "anthropic":
		content, err = s.callAnthropic(ctx, prompt)
	case "ollama":
		content, err = s.callOllama(ctx, prompt)
	case "gemini":
		content, err = s.callGemini(ctx, prompt)
	case "azure":
		content, err = s.callAzure(ctx, prompt)
	default:
		// openai and other OpenAI-compatible services
		content, err = s.callOpenAI(ctx, prompt)
	}
	if err != nil {
		return "", err
	}

	logger.Infof("[AI] %s response length: %d chars", s.config.Provider, len(content))
	return content, nil
}

func (s *AIService) temperature() float32 {
	if s.config.Temperature > 0 {
		return float32(s.config.Temperature)
	}
	return 0.2
}

func (s *AIService) maxTokens() int {
	if s.config.MaxTokens > 0 {
		return s.config.MaxTokens
	}
	return 2048
}

// callOpenAI handles OpenAI and OpenAI-compatible APIs (including custom endpoints)
func (s *AIService) callOpenAI(ctx context.Context, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(s.config.APIKey)
	if s.config.BaseURL != "" {
		clientConfig.BaseURL = s.config.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: s.temperature(),
		MaxTokens:   s.maxTokens(),
	})
	if err != nil {
		logger.Warnf("[AI] OpenAI API error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// callAnthropic handles Anthropic Claude API using the native SDK
func (s *AIService) callAnthropic(ctx context.Context, prompt string) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(s.config.APIKey)}
	if s.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.config.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := s.config.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(s.maxTokens()),
		Temperature: anthropic.Float(float64(s.temperature())),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		logger.Warnf("[AI] Anthropic API error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}

// callOllama handles Ollama API using the native SDK
func (s *AIService) callOllama(ctx context.Context, prompt string) (string, error) {
	baseURL := s.config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := s.config.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{
			"temperature": s.temperature(),
			"num_predict": s.maxTokens(),
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		logger.Warnf("[AI] Ollama API error: %v", err)
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	return content.String(), nil
}

// callGemini handles Google Gemini API using the native SDK
func (s *AIService) callGemini(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: s.config.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := s.config.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(s.temperature()),
		MaxOutputTokens: int32(s.maxTokens()),
	})
	if err != nil {
		logger.Warnf("[AI] Gemini API error: %v", err)
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return resp.Text(), nil
}

// callAzure handles Azure OpenAI API using special configuration
func (s *AIService) callAzure(ctx context.Context, prompt string) (string, error) {
	// Azure requires BaseURL format: https://{resource-name}.openai.azure.com
	// Model field is used as deployment name
	cfg := openai.DefaultAzureConfig(s.config.APIKey, s.config.BaseURL)
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: s.temperature(),
		MaxTokens:   s.maxTokens(),
	})
	if err != nil {
		logger.Warnf("[AI] Azure OpenAI API error: %v", err)
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from Azure OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
