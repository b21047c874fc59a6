package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"claim-analyze-pipeline/llm"
)

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		FinishReason string `json:"finish_reason,omitempty"`
		Message      struct {
			Refusal string `json:"refusal,omitempty"`
			Content any    `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client represents an OpenAI API client
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		client:   &http.Client{},
	}
}

// SourceName identifies this provider in saved analyses
func (c *Client) SourceName() string {
	return "ChatGPT"
}

// encodeToDataURL converts attachment bytes to a base64 data URL
func encodeToDataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// Invoke sends the prompt through the chat completions API, attaching the
// payload as an image part when present.
func (c *Client) Invoke(ctx context.Context, prompt string, payload []byte, mimeType string) (string, error) {
	userContent := []any{
		TextContent{Type: "text", Text: prompt},
	}
	if len(payload) > 0 {
		userContent = append(userContent, ImageContent{
			Type: "image_url",
			ImageURL: ImageURL{
				URL: encodeToDataURL(payload, mimeType),
			},
		})
	}

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role:    "user",
				Content: userContent,
			},
		},
	}

	return c.chat(ctx, reqBody)
}

func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	translationPrompt := fmt.Sprintf("Translate the following text to %s. Maintain the original meaning and tone. Respond with the translation only.\n\n%s", targetLanguage, text)

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role:    "user",
				Content: translationPrompt,
			},
		},
	}

	out, err := c.chat(ctx, reqBody)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) chat(ctx context.Context, reqBody ChatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", llm.ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API error (status %d): %s", llm.ErrUnavailable, resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", llm.ErrUnavailable, err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", llm.ErrUnavailable)
	}

	choice := chatResp.Choices[0]
	if choice.Message.Refusal != "" || choice.FinishReason == "content_filter" {
		return "", fmt.Errorf("%w: %s", llm.ErrRefused, choice.Message.Refusal)
	}

	// Extract the text content from the response
	if contentStr, ok := choice.Message.Content.(string); ok {
		return contentStr, nil
	}

	// If content is not a string, try to marshal it back to JSON
	contentJSON, err := json.Marshal(choice.Message.Content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}

	return string(contentJSON), nil
}
