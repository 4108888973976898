package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fitserver/internal/backoff"
	"fitserver/internal/infra"
)

const (
	openAIProviderName   = "openai"
	openAIDefaultTimeout = 90 * time.Second
)

// OpenAIOptions configures the OpenAI gateway.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	Organization string
	HTTPClient   *http.Client
	Logger       *infra.Logger
	Policy       *backoff.Policy
}

// OpenAI implements Gateway against the chat completions API.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	org     string
	client  *http.Client
	logger  *infra.Logger
	policy  backoff.Policy
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewOpenAI constructs the gateway with sane defaults.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	policy := backoff.NewRateLimitAware(5, 20*time.Second, 120*time.Second, 2)
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	return &OpenAI{
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		model:   model,
		org:     opts.Organization,
		client:  client,
		logger:  opts.Logger,
		policy:  policy,
	}, nil
}

// Name implements Gateway.
func (o *OpenAI) Name() string { return openAIProviderName }

// GenerateText implements Gateway.
func (o *OpenAI) GenerateText(ctx context.Context, prompt string, schema Schema) (*Result, error) {
	content, _ := json.Marshal(prompt)
	messages := []openAIMessage{{Role: "user", Content: content}}
	return generateWithRetry(ctx, o.policy, o.logger, o.Name(), schema, func(ctx context.Context) ([]byte, error) {
		return o.call(ctx, messages)
	})
}

// GenerateVision implements Gateway.
func (o *OpenAI) GenerateVision(ctx context.Context, prompt, imageRef string, schema Schema) (*Result, error) {
	parts := []openAIContentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &openAIImageURL{URL: imageRef}},
	}
	content, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("openai: encode vision content: %w", err)
	}
	messages := []openAIMessage{{Role: "user", Content: content}}
	return generateWithRetry(ctx, o.policy, o.logger, o.Name(), schema, func(ctx context.Context) ([]byte, error) {
		return o.call(ctx, messages)
	})
}

func (o *OpenAI) call(ctx context.Context, messages []openAIMessage) ([]byte, error) {
	payload := openAIRequest{
		Model:          o.model,
		Messages:       messages,
		Temperature:    0.4,
		ResponseFormat: &openAIResponseFormat{Type: "json_object"},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.org != "" {
		httpReq.Header.Set("OpenAI-Organization", o.org)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return nil, o.decodeError(resp)
	}
	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Provider: openAIProviderName, Status: resp.StatusCode, Code: "decode_failed", Message: err.Error()}
	}
	if len(out.Choices) == 0 {
		return nil, &Error{Provider: openAIProviderName, Status: resp.StatusCode, Code: "empty_response", Message: "no choices returned"}
	}
	text := extractJSONFragment(out.Choices[0].Message.Content)
	if text == "" {
		return nil, &Error{Provider: openAIProviderName, Status: resp.StatusCode, Code: "empty_response", Message: "no message content"}
	}
	return []byte(text), nil
}

func (o *OpenAI) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	perr := &Error{
		Provider:   openAIProviderName,
		Status:     resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
	var decoded openAIErrorResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		perr.Message = decoded.Error.Message
		perr.Code = decoded.Error.Code
		if perr.Code == "" {
			perr.Code = decoded.Error.Type
		}
	}
	return perr
}

var _ Gateway = (*OpenAI)(nil)
