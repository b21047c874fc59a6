package gemini

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

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMimeType string  `json:"response_mime_type,omitempty"`
}

type geminiRequest struct {
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
	Contents         []content        `json:"contents"`
}

type geminiResponse struct {
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback"`
	Candidates []struct {
		FinishReason string `json:"finishReason,omitempty"`
		Content      struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Client talks to the Gemini generateContent endpoint over plain HTTP.
type Client struct {
	apiKey    string
	model     string
	http      *http.Client
	endpoints []string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{},
		// try v1beta first, then v1
		endpoints: []string{
			fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", model, apiKey),
			fmt.Sprintf("https://generativelanguage.googleapis.com/v1/models/%s:generateContent?key=%s", model, apiKey),
		},
	}
}

func (c *Client) SourceName() string {
	return "Gemini"
}

// Invoke sends the prompt, attaching the payload as a second content part
// when present. A video is never sent frame-by-frame; callers pass a single
// representative key-frame instead.
func (c *Client) Invoke(ctx context.Context, prompt string, payload []byte, mimeType string) (string, error) {
	parts := []part{{Text: prompt}}
	if len(payload) > 0 {
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		parts = append(parts, part{
			InlineData: &inlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(payload),
			},
		})
	}

	reqBody := geminiRequest{
		GenerationConfig: generationConfig{Temperature: 0.2},
		Contents: []content{
			{
				Role:  "user",
				Parts: parts,
			},
		},
	}

	return c.generateContent(ctx, reqBody)
}

func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	prompt := fmt.Sprintf("Translate the following text to %s. Maintain the original meaning and tone. Respond with the translation only, no extra commentary.\n\n%s", targetLanguage, text)
	reqBody := geminiRequest{
		GenerationConfig: generationConfig{Temperature: 0.1},
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					{Text: prompt},
				},
			},
		},
	}
	out, err := c.generateContent(ctx, reqBody)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) generateContent(ctx context.Context, body geminiRequest) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for _, ep := range c.endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep, bytes.NewBuffer(data))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
			continue
		}
		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: failed to read response: %v", llm.ErrUnavailable, err)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("%w: API error (status %d): %s", llm.ErrUnavailable, resp.StatusCode, string(bodyBytes))
			// retry next endpoint if available
			continue
		}
		var gr geminiResponse
		if err := json.Unmarshal(bodyBytes, &gr); err != nil {
			lastErr = fmt.Errorf("%w: failed to parse response: %v", llm.ErrUnavailable, err)
			continue
		}
		if gr.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", llm.ErrRefused, gr.PromptFeedback.BlockReason)
		}
		if len(gr.Candidates) == 0 {
			lastErr = fmt.Errorf("%w: no candidates in response", llm.ErrUnavailable)
			continue
		}
		cand := gr.Candidates[0]
		if cand.FinishReason == "SAFETY" || cand.FinishReason == "PROHIBITED_CONTENT" {
			return "", fmt.Errorf("%w: candidate blocked (%s)", llm.ErrRefused, cand.FinishReason)
		}
		// find first text part
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
		lastErr = fmt.Errorf("%w: no text part in response", llm.ErrUnavailable)
	}
	return "", lastErr
}
