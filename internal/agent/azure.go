package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imroc/req/v3"
)

// AzureConfig holds the Azure OpenAI connection settings
type AzureConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	Timeout    time.Duration
}

// AzureOpenAIClient talks to the Azure OpenAI chat-completions REST endpoint
type AzureOpenAIClient struct {
	client     *req.Client
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
}

// NewAzureOpenAIClient creates a client for the configured deployment
func NewAzureOpenAIClient(cfg AzureConfig) *AzureOpenAIClient {
	client := req.C()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &AzureOpenAIClient{
		client:     client,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		deployment: cfg.Deployment,
		apiVersion: cfg.APIVersion,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// maxCompletionTokens bounds the length of a single reply
const maxCompletionTokens = 4000

// Complete sends a system/user message pair and returns the model's reply.
// An empty reply is returned as-is; the caller decides how to surface it.
func (c *AzureOpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)

	body := chatCompletionRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxCompletionTokens: maxCompletionTokens,
	}

	var result chatCompletionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("api-key", c.apiKey).
		SetBody(&body).
		SetSuccessResult(&result).
		SetErrorResult(&result).
		Post(url)
	if err != nil {
		return "", fmt.Errorf("azure openai request: %w", err)
	}

	if resp.IsErrorState() {
		if result.Error != nil {
			return "", fmt.Errorf("azure openai: %s (%s)", result.Error.Message, result.Error.Code)
		}
		return "", fmt.Errorf("azure openai: unexpected status %s", resp.Status)
	}

	if len(result.Choices) == 0 {
		return "", nil
	}
	return result.Choices[0].Message.Content, nil
}
