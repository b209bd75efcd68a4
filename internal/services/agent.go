package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/huangang/feedback360/internal/config"
	"github.com/huangang/feedback360/internal/models"
	"github.com/huangang/feedback360/pkg/logger"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Agent is the external natural-language collaborator: one prompt in, one text reply out.
type Agent interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// AgentService tries the configured providers in order until one answers.
type AgentService struct {
	providers []config.ProviderConfig
	timeout   time.Duration
	call      func(ctx context.Context, p config.ProviderConfig, prompt string) (string, error)
}

func NewAgentService(cfg *config.AgentConfig) *AgentService {
	s := &AgentService{
		providers: cfg.Providers,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	s.call = s.callProvider
	return s
}

func (s *AgentService) Invoke(ctx context.Context, prompt string) (string, error) {
	if len(s.providers) == 0 {
		return "", fmt.Errorf("%w: no agent provider configured", models.ErrAgentCall)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.Infof("[Agent] Prompt length: %d chars", len(prompt))

	var lastErr error
	for i, p := range s.providers {
		logger.Infof("[Agent] Attempting provider %d/%d: %s (model: %s)", i+1, len(s.providers), providerLabel(p), p.Model)

		content, err := s.call(ctx, p, prompt)
		if err == nil && strings.TrimSpace(content) == "" {
			err = fmt.Errorf("empty response")
		}
		if err == nil {
			logger.Infof("[Agent] Success with provider: %s, response length: %d chars", providerLabel(p), len(content))
			return content, nil
		}

		lastErr = err
		logger.Warnf("[Agent] Provider %s failed: %v, trying next...", providerLabel(p), err)

		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("%w: all providers failed: %w", models.ErrAgentCall, lastErr)
}

func providerLabel(p config.ProviderConfig) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Provider
}

func (s *AgentService) callProvider(ctx context.Context, p config.ProviderConfig, prompt string) (string, error) {
	switch p.Provider {
	case "anthropic":
		return callAnthropic(ctx, p, prompt)
	case "ollama":
		return callOllama(ctx, p, prompt)
	case "gemini":
		return callGemini(ctx, p, prompt)
	case "azure":
		return callAzure(ctx, p, prompt)
	case "bedrock":
		return callBedrock(ctx, p, prompt)
	default:
		// openai and other OpenAI-compatible services
		return callOpenAI(ctx, p, prompt)
	}
}

func temperatureOf(p config.ProviderConfig) float32 {
	if p.Temperature > 0 {
		return float32(p.Temperature)
	}
	return 0.3
}

func maxTokensOf(p config.ProviderConfig) int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return 4096
}

func callOpenAI(ctx context.Context, p config.ProviderConfig, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(p.APIKey)
	if p.BaseURL != "" {
		clientConfig.BaseURL = p.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	model := p.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperatureOf(p),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// callAzure expects BaseURL https://{resource-name}.openai.azure.com; Model is the deployment name.
func callAzure(ctx context.Context, p config.ProviderConfig, prompt string) (string, error) {
	client := openai.NewClientWithConfig(openai.DefaultAzureConfig(p.APIKey, p.BaseURL))

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperatureOf(p),
	})
	if err != nil {
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from Azure OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func callAnthropic(ctx context.Context, p config.ProviderConfig, prompt string) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(p.APIKey)}
	if p.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(p.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := p.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokensOf(p)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
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

func callOllama(ctx context.Context, p config.ProviderConfig, prompt string) (string, error) {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := p.Model
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
			"temperature": temperatureOf(p),
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	return content.String(), nil
}

func callGemini(ctx context.Context, p config.ProviderConfig, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: p.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return resp.Text(), nil
}

// Claude message format on Bedrock.
type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockRequest struct {
	Messages         []bedrockMessage `json:"messages"`
	MaxTokens        int              `json:"max_tokens"`
	Temperature      float32          `json:"temperature,omitempty"`
	AnthropicVersion string           `json:"anthropic_version"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// callBedrock uses the default AWS credential chain (env, shared config, IAM role).
func callBedrock(ctx context.Context, p config.ProviderConfig, prompt string) (string, error) {
	region := p.Region
	if region == "" {
		region = "us-east-1"
	}
	model := p.Model
	if model == "" {
		model = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := bedrockruntime.NewFromConfig(awsCfg)

	body, err := json.Marshal(bedrockRequest{
		Messages:         []bedrockMessage{{Role: "user", Content: prompt}},
		MaxTokens:        maxTokensOf(p),
		Temperature:      temperatureOf(p),
		AnthropicVersion: "bedrock-2023-05-31",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("Bedrock API error: %w", err)
	}

	var out bedrockResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("failed to decode Bedrock response: %w", err)
	}

	var content strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}
