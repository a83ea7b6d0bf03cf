package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/example/recallengine/pkg/models"
)

// OpenAIAdvisor implements Advisor against the OpenAI chat completions API.
type OpenAIAdvisor struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewOpenAI creates an advisor from the OPENAI_API_KEY environment variable.
func NewOpenAI() (*OpenAIAdvisor, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	return &OpenAIAdvisor{
		apiKey:      apiKey,
		apiURL:      "https://api.openai.com/v1/chat/completions",
		model:       "gpt-4o-mini",
		maxTokens:   400,
		temperature: 0.2,
		client:      &http.Client{},
	}, nil
}

// message is a message in the chat completion conversation.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is a request to the chat completions API.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// chatResponse is a response from the chat completions API.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You are a spaced-repetition scheduling assistant. " +
	"Respond with JSON only, no prose."

// complete sends one chat completion and returns the raw content string.
func (c *OpenAIAdvisor) complete(ctx context.Context, prompt string) (string, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// SuggestIntervals implements Advisor. A malformed or incomplete response is
// an error; the caller falls back to the deterministic formulas.
func (c *OpenAIAdvisor) SuggestIntervals(ctx context.Context, states []models.MemoryState) ([]IntervalRecommendation, error) {
	var sb strings.Builder
	sb.WriteString("Suggest the next review interval in days for each item. ")
	sb.WriteString(`Return a JSON array of {"item_id","interval_days","rationale"}.` + "\n")
	for _, s := range states {
		fmt.Fprintf(&sb, "item %s: stability %.2f days, retrievability %.2f, streak +%d/-%d, phase %s\n",
			s.ItemID, s.Stability, s.Retrievability,
			s.ConsecutiveSuccesses, s.ConsecutiveFailures, s.Phase)
	}

	content, err := c.complete(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	var recs []IntervalRecommendation
	if err := json.Unmarshal([]byte(content), &recs); err != nil {
		return nil, fmt.Errorf("malformed interval response: %v", err)
	}
	if len(recs) != len(states) {
		return nil, fmt.Errorf("interval response covered %d of %d items", len(recs), len(states))
	}
	for _, r := range recs {
		if r.IntervalDays <= 0 {
			return nil, fmt.Errorf("non-positive interval for item %s", r.ItemID)
		}
	}
	return recs, nil
}

// SuggestReviewWindows implements Advisor.
func (c *OpenAIAdvisor) SuggestReviewWindows(ctx context.Context, profile LearnerProfile) ([]TimeWindow, error) {
	prompt := fmt.Sprintf(
		"Suggest up to two daily review windows for a learner with mean recall quality %.2f, "+
			"preferred hour %d, and about %.1f reviews per day. "+
			`Return a JSON array of {"start_hour","end_hour","label"} with hours 0-23.`,
		profile.MeanQuality, profile.PreferredHour, profile.ReviewsPerDay,
	)

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var windows []TimeWindow
	if err := json.Unmarshal([]byte(content), &windows); err != nil {
		return nil, fmt.Errorf("malformed window response: %v", err)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("empty window response")
	}
	for _, w := range windows {
		if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 || w.EndHour < w.StartHour {
			return nil, fmt.Errorf("invalid window %d-%d", w.StartHour, w.EndHour)
		}
	}
	return windows, nil
}
