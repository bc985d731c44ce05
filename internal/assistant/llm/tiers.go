package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/orbitcrm/assist/config"
)

// genOptions carries the generation knobs shared by every tier.
type genOptions struct {
	maxTokens   int
	temperature float64
}

func missingKey(provider string) *TierError {
	return &TierError{Provider: provider, Kind: KindMissingCredential, Err: fmt.Errorf("api key not configured")}
}

// --- Tier 1: groq, rotating model pool -------------------------------------

// GroqClient is the primary tier. Every attempt advances its model
// rotation, so retries within the tier land on different models.
type GroqClient struct {
	cfg  config.TierConfig
	opts genOptions
	pool *rotator
	http *http.Client
}

func NewGroqClient(cfg config.TierConfig, opts genOptions) *GroqClient {
	return &GroqClient{
		cfg:  cfg,
		opts: opts,
		pool: newRotator(cfg.Models),
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *GroqClient) Name() string { return "groq" }

func (c *GroqClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", missingKey(c.Name())
	}
	model := c.pool.next()
	if model == "" {
		return "", &TierError{Provider: c.Name(), Kind: KindMissingCredential, Err: fmt.Errorf("model pool empty")}
	}
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://api.groq.com/openai/v1"
	}
	return chatCompletionsCall(ctx, c.http, c.Name(), base+"/chat/completions", c.cfg.APIKey, model, withSystem(req), c.opts.maxTokens, c.opts.temperature)
}

// --- Tier 2: openrouter -----------------------------------------------------

type OpenRouterClient struct {
	cfg  config.TierConfig
	opts genOptions
	http *http.Client
}

func NewOpenRouterClient(cfg config.TierConfig, opts genOptions) *OpenRouterClient {
	return &OpenRouterClient{cfg: cfg, opts: opts, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *OpenRouterClient) Name() string { return "openrouter" }

func (c *OpenRouterClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", missingKey(c.Name())
	}
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://openrouter.ai/api/v1"
	}
	return chatCompletionsCall(ctx, c.http, c.Name(), base+"/chat/completions", c.cfg.APIKey, c.cfg.Model, withSystem(req), c.opts.maxTokens, c.opts.temperature)
}

// --- Tier 3: gemini ----------------------------------------------------------

type GeminiClient struct {
	cfg  config.TierConfig
	opts genOptions
	http *http.Client
}

func NewGeminiClient(cfg config.TierConfig, opts genOptions) *GeminiClient {
	return &GeminiClient{cfg: cfg, opts: opts, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *GeminiClient) Name() string { return "gemini" }

func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", missingKey(c.Name())
	}
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://generativelanguage.googleapis.com"
	}

	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	var contents []content
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}
	body := struct {
		SystemInstruction content   `json:"system_instruction"`
		Contents          []content `json:"contents"`
		GenerationConfig  struct {
			MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
			Temperature     float64 `json:"temperature,omitempty"`
		} `json:"generationConfig"`
	}{
		SystemInstruction: content{Parts: []part{{Text: BuildSystemPrompt(req.Role, req.Context)}}},
		Contents:          contents,
	}
	body.GenerationConfig.MaxOutputTokens = c.opts.maxTokens
	body.GenerationConfig.Temperature = c.opts.temperature

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []part `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", base, c.cfg.Model, c.cfg.APIKey)
	if terr := postJSON(ctx, c.http, c.Name(), url, nil, body, &out); terr != nil {
		return "", terr
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", &TierError{Provider: c.Name(), Kind: KindEmptyResponse, Err: fmt.Errorf("no candidates in response")}
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &TierError{Provider: c.Name(), Kind: KindEmptyResponse, Err: fmt.Errorf("blank candidate")}
	}
	return text, nil
}

// --- Tier 4: cohere ----------------------------------------------------------

type CohereClient struct {
	cfg  config.TierConfig
	opts genOptions
	http *http.Client
}

func NewCohereClient(cfg config.TierConfig, opts genOptions) *CohereClient {
	return &CohereClient{cfg: cfg, opts: opts, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *CohereClient) Name() string { return "cohere" }

func (c *CohereClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", missingKey(c.Name())
	}
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://api.cohere.com"
	}

	type histItem struct {
		Role    string `json:"role"`
		Message string `json:"message"`
	}
	var history []histItem
	message := ""
	for i, m := range req.Messages {
		if i == len(req.Messages)-1 && m.Role == RoleUser {
			message = m.Content
			break
		}
		role := "USER"
		if m.Role == RoleAssistant {
			role = "CHATBOT"
		}
		history = append(history, histItem{Role: role, Message: m.Content})
	}
	if message == "" && len(req.Messages) > 0 {
		message = req.Messages[len(req.Messages)-1].Content
	}

	body := struct {
		Model       string     `json:"model"`
		Message     string     `json:"message"`
		ChatHistory []histItem `json:"chat_history,omitempty"`
		Preamble    string     `json:"preamble,omitempty"`
		MaxTokens   int        `json:"max_tokens,omitempty"`
		Temperature float64    `json:"temperature,omitempty"`
	}{
		Model:       c.cfg.Model,
		Message:     message,
		ChatHistory: history,
		Preamble:    BuildSystemPrompt(req.Role, req.Context),
		MaxTokens:   c.opts.maxTokens,
		Temperature: c.opts.temperature,
	}
	var out struct {
		Text string `json:"text"`
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	if terr := postJSON(ctx, c.http, c.Name(), base+"/v1/chat", headers, body, &out); terr != nil {
		return "", terr
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", &TierError{Provider: c.Name(), Kind: KindEmptyResponse, Err: fmt.Errorf("blank reply")}
	}
	return text, nil
}

// --- Tier 5: huggingface inference -------------------------------------------

type HuggingFaceClient struct {
	cfg  config.TierConfig
	opts genOptions
	http *http.Client
}

func NewHuggingFaceClient(cfg config.TierConfig, opts genOptions) *HuggingFaceClient {
	return &HuggingFaceClient{cfg: cfg, opts: opts, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *HuggingFaceClient) Name() string { return "huggingface" }

func (c *HuggingFaceClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", missingKey(c.Name())
	}
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://api-inference.huggingface.co"
	}

	// The inference API takes a single flattened prompt.
	var sb strings.Builder
	sb.WriteString(BuildSystemPrompt(req.Role, req.Context))
	sb.WriteString("\n\n")
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("Assistant:")

	body := struct {
		Inputs     string `json:"inputs"`
		Parameters struct {
			MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
			Temperature    float64 `json:"temperature,omitempty"`
			ReturnFullText bool    `json:"return_full_text"`
		} `json:"parameters"`
	}{Inputs: sb.String()}
	body.Parameters.MaxNewTokens = c.opts.maxTokens
	body.Parameters.Temperature = c.opts.temperature

	var out []struct {
		GeneratedText string `json:"generated_text"`
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	url := base + "/models/" + c.cfg.Model
	if terr := postJSON(ctx, c.http, c.Name(), url, headers, body, &out); terr != nil {
		return "", terr
	}
	if len(out) == 0 {
		return "", &TierError{Provider: c.Name(), Kind: KindEmptyResponse, Err: fmt.Errorf("no generations in response")}
	}
	text := strings.TrimSpace(out[0].GeneratedText)
	if text == "" {
		return "", &TierError{Provider: c.Name(), Kind: KindEmptyResponse, Err: fmt.Errorf("blank generation")}
	}
	return text, nil
}
