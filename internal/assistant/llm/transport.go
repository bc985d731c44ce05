package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// postJSON performs one JSON round trip and decodes the response into out,
// classifying every failure into the tier taxonomy.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) *TierError {
	payload, err := json.Marshal(body)
	if err != nil {
		return &TierError{Provider: provider, Kind: KindNetwork, Err: fmt.Errorf("marshal request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &TierError{Provider: provider, Kind: KindNetwork, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return transportError(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TierError{
			Provider: provider,
			Kind:     KindHTTPStatus,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt))),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TierError{Provider: provider, Kind: KindEmptyResponse, Err: fmt.Errorf("unparsable response: %w", err)}
	}
	return nil
}

// chatCompletionsCall speaks the OpenAI-compatible chat completions shape
// shared by the groq and openrouter tiers.
func chatCompletionsCall(ctx context.Context, client *http.Client, provider, url, apiKey, model string, messages []Message, maxTokens int, temperature float64) (string, error) {
	reqBody := struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature,omitempty"`
		MaxTokens   int       `json:"max_tokens,omitempty"`
	}{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	if terr := postJSON(ctx, client, provider, url, headers, reqBody, &out); terr != nil {
		return "", terr
	}
	if len(out.Choices) == 0 {
		return "", &TierError{Provider: provider, Kind: KindEmptyResponse, Err: fmt.Errorf("no choices in response")}
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", &TierError{Provider: provider, Kind: KindEmptyResponse, Err: fmt.Errorf("blank completion")}
	}
	return text, nil
}

// withSystem prepends the built system prompt to the conversation.
func withSystem(req Request) []Message {
	msgs := make([]Message, 0, len(req.Messages)+1)
	msgs = append(msgs, Message{Role: RoleSystem, Content: BuildSystemPrompt(req.Role, req.Context)})
	return append(msgs, req.Messages...)
}
