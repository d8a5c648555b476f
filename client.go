package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultDescribeModel  = "gpt-4-vision-preview"
	defaultDescribeTokens = 300

	describeInstruction = "Give me an accurate recreation of the photo. Use lots of descriptions."
)

// Fixed generation parameters
const (
	GenerationCount = 1
	GenerationSize  = "1024x1024"
)

// OpenAIConfig holds connection settings for the image and chat endpoints
type OpenAIConfig struct {
	BaseURL           string
	APIKey            string
	DescribeModel     string
	DescribeMaxTokens int
}

// OpenAIClient talks to the image-generation and chat-completion APIs
type OpenAIClient struct {
	baseURL       string
	describeModel string
	maxTokens     int
	httpClient    *http.Client
	log           *logrus.Entry
}

// NewOpenAIClient creates a client whose requests go through rt
func NewOpenAIClient(cfg OpenAIConfig, rt http.RoundTripper, log *logrus.Entry) (*OpenAIClient, error) {
	if rt == nil {
		return nil, fmt.Errorf("round tripper is required")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if cfg.DescribeModel == "" {
		cfg.DescribeModel = defaultDescribeModel
	}
	if cfg.DescribeMaxTokens <= 0 {
		cfg.DescribeMaxTokens = defaultDescribeTokens
	}

	transport := rt
	if cfg.APIKey != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"}),
			Base:   rt,
		}
	}

	return &OpenAIClient{
		baseURL:       baseURL,
		describeModel: cfg.DescribeModel,
		maxTokens:     cfg.DescribeMaxTokens,
		httpClient:    &http.Client{Transport: transport},
		log:           log.WithField("component", "openai"),
	}, nil
}

// GenerationRequest is the body of an image-generation call
type GenerationRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	Count  int    `json:"n"`
	Size   string `json:"size"`
}

// NewGenerationRequest fills in the fixed count and size
func NewGenerationRequest(model, prompt string) GenerationRequest {
	return GenerationRequest{
		Model:  model,
		Prompt: prompt,
		Count:  GenerationCount,
		Size:   GenerationSize,
	}
}

// Chat structures
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate requests one image for req and returns its URL
func (c *OpenAIClient) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	body, err := c.post(ctx, "/images/generations", req)
	if err != nil {
		return "", err
	}

	url, err := ValidateGeneration(body)
	if err != nil {
		var sve *StructuralValidationError
		if errors.As(err, &sve) {
			return "", err
		}
		return "", fmt.Errorf("image generation: %w", err)
	}
	return url, nil
}

// Describe asks the chat model for a detailed description of img
func (c *OpenAIClient) Describe(ctx context.Context, img *CapturedImage) (string, error) {
	reqBody := chatRequest{
		Model: c.describeModel,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContent{
					{Type: "text", Text: describeInstruction},
					{Type: "image_url", ImageURL: &chatImageURL{URL: img.DataURL()}},
				},
			},
		},
		MaxTokens: c.maxTokens,
	}

	body, err := c.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == "" {
		return "", &StructuralValidationError{Missing: []string{"choices[0].message.content"}}
	}

	content := resp.Choices[0].Message.Content
	c.log.WithField("length", len(content)).Debug("description received")
	return content, nil
}

// post sends payload as JSON and returns the raw response body, whatever the status
func (c *OpenAIClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	entry := c.log.WithFields(logrus.Fields{"path": path, "status": resp.StatusCode})
	if resp.StatusCode >= 300 {
		var apiErr apiErrorBody
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != nil {
			entry = entry.WithField("api_error", apiErr.Error.Message)
		}
		entry.Warn("API returned a non-success status")
	} else {
		entry.Debug("API response received")
	}
	return body, nil
}
