package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"fitserver/internal/domain"
)

const openAIMealBody = `{"choices":[{"message":{"content":"{\"title\":\"Cutting Week\",\"dietary_style\":\"high-protein\",\"days\":[{\"name\":\"Day 1\",\"meals\":[{\"name\":\"Breakfast\",\"items\":[{\"name\":\"Eggs\",\"calories\":210}]}]}]}"}}]}`

func newTestOpenAI(t *testing.T, rt roundTripFunc, attempts int) *OpenAI {
	t.Helper()
	o, err := NewOpenAI(OpenAIOptions{
		APIKey:     "dummy",
		HTTPClient: &http.Client{Transport: rt},
		Policy:     fastPolicy(attempts),
	})
	if err != nil {
		t.Fatalf("NewOpenAI returned error: %v", err)
	}
	return o
}

func TestOpenAIGenerateTextParsesSchema(t *testing.T) {
	o := newTestOpenAI(t, func(r *http.Request) (*http.Response, error) {
		if got := r.Header.Get("Authorization"); got != "Bearer dummy" {
			t.Fatalf("authorization header = %q", got)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Fatal("response_format json_object not requested")
		}
		return jsonResponse(200, openAIMealBody), nil
	}, 3)

	res, err := o.GenerateText(context.Background(), "prompt", SchemaFor(domain.CategoryMeal))
	if err != nil {
		t.Fatalf("GenerateText returned error: %v", err)
	}
	if res.Artifact.Meal == nil || res.Artifact.Meal.Title != "Cutting Week" {
		t.Fatalf("unexpected artifact: %+v", res.Artifact)
	}
}

func TestOpenAIInsufficientQuotaPropagates(t *testing.T) {
	o := newTestOpenAI(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(429, `{"error":{"message":"You exceeded your current quota, please check your plan and billing details.","type":"insufficient_quota","code":"insufficient_quota"}}`), nil
	}, 3)

	_, err := o.GenerateText(context.Background(), "prompt", SchemaFor(domain.CategoryMeal))
	if err == nil {
		t.Fatal("expected quota error, got nil")
	}
	if !IsQuotaExhausted(err) {
		t.Fatalf("IsQuotaExhausted(%v) = false", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"30", 30 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"45s", 45 * time.Second},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := parseRetryAfter(tc.in); got != tc.want {
			t.Fatalf("parseRetryAfter(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestProviderErrorRateLimitSignals(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		want bool
	}{
		{"status_429", &Error{Status: 429}, true},
		{"code", &Error{Status: 400, Code: "rate_limit_exceeded"}, true},
		{"message", &Error{Status: 503, Message: "Too many requests, slow down"}, true},
		{"server_error", &Error{Status: 500, Message: "internal"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.RateLimited(); got != tc.want {
				t.Fatalf("RateLimited() = %v, want %v", got, tc.want)
			}
		})
	}
}
