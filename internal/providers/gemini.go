package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitserver/internal/backoff"
	"fitserver/internal/infra"
)

const (
	geminiProviderName   = "gemini"
	geminiDefaultTimeout = 90 * time.Second
)

// GeminiOptions configures the Gemini gateway.
type GeminiOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
	Policy     *backoff.Policy
}

// Gemini implements Gateway against the generativelanguage API.
type Gemini struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *infra.Logger
	policy  backoff.Policy
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"fileData,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGemini constructs the gateway with sane defaults.
func NewGemini(opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	policy := backoff.NewRateLimitAware(5, 20*time.Second, 120*time.Second, 2)
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	return &Gemini{
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  client,
		logger:  opts.Logger,
		policy:  policy,
	}, nil
}

// Name implements Gateway.
func (g *Gemini) Name() string { return geminiProviderName }

// GenerateText implements Gateway.
func (g *Gemini) GenerateText(ctx context.Context, prompt string, schema Schema) (*Result, error) {
	parts := []geminiPart{{Text: prompt}}
	return generateWithRetry(ctx, g.policy, g.logger, g.Name(), schema, func(ctx context.Context) ([]byte, error) {
		return g.call(ctx, parts)
	})
}

// GenerateVision implements Gateway.
func (g *Gemini) GenerateVision(ctx context.Context, prompt, imageRef string, schema Schema) (*Result, error) {
	parts := []geminiPart{
		{Text: prompt},
		{FileData: &geminiFileData{MimeType: "image/jpeg", FileURI: imageRef}},
	}
	return generateWithRetry(ctx, g.policy, g.logger, g.Name(), schema, func(ctx context.Context) ([]byte, error) {
		return g.call(ctx, parts)
	})
}

func (g *Gemini) call(ctx context.Context, parts []geminiPart) ([]byte, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.4,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return nil, g.decodeError(resp)
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Provider: geminiProviderName, Status: resp.StatusCode, Code: "decode_failed", Message: err.Error()}
	}
	text := extractJSONFragment(g.extractText(out))
	if text == "" {
		return nil, &Error{Provider: geminiProviderName, Status: resp.StatusCode, Code: "empty_response", Message: "no candidate text"}
	}
	return []byte(text), nil
}

func (g *Gemini) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	perr := &Error{
		Provider:   geminiProviderName,
		Status:     resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
	var decoded geminiErrorResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		perr.Code = decoded.Error.Status
		perr.Message = decoded.Error.Message
	}
	return perr
}

func (g *Gemini) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
}

func (g *Gemini) extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

var _ Gateway = (*Gemini)(nil)
