// Package ai wraps the OpenAI chat-completions endpoint for portfolio
// copy generation. One HTTP call per generation; quota enforcement
// lives in the entitlement layer, not here.
package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codecanvas_backend/internal/model"
)

var ErrExternalService = errors.New("ai: provider request failed")

type Client struct {
	APIKey  string
	Model   string
	BaseURL string

	httpClient *http.Client
}

func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    "https://api.openai.com/v1",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

var systemPrompts = map[string]string{
	model.AIGenerationBio:     "You write short, confident professional bios for developer portfolio sites. Two to three sentences, first person, no buzzword lists.",
	model.AIGenerationProject: "You write crisp project descriptions for portfolio sites. One short paragraph focusing on what the project does and the problem it solves.",
	model.AIGenerationSkills:  "You summarize a developer's skills into one readable paragraph grouped by theme. No bullet points.",
}

// GenerateContent produces one piece of portfolio copy. kind selects
// the prompt; input is the user's raw material (repo list, notes, job
// history).
func (c *Client) GenerateContent(kind, input string) (string, error) {
	system, ok := systemPrompts[kind]
	if !ok {
		return "", fmt.Errorf("unknown generation kind %q", kind)
	}
	return c.complete(system, input, 400)
}

// GeneratePortfolioContent drafts section content for a whole
// portfolio from the synced profile data.
func (c *Client) GeneratePortfolioContent(title string, sections []string, material string) (map[string]string, error) {
	system := "You draft portfolio website copy. Answer with strict JSON: an object mapping each requested section name to its text. No markdown fences."
	user := fmt.Sprintf("Portfolio title: %s\nSections: %s\nMaterial:\n%s",
		title, strings.Join(sections, ", "), material)

	raw, err := c.complete(system, user, 1200)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: provider returned non-JSON draft", ErrExternalService)
	}
	return out, nil
}

func (c *Client) complete(system, user string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrExternalService, resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrExternalService, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrExternalService)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
