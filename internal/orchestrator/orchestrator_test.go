package orchestrator

import (
	"context"
	"errors"
	"testing"

	"fitserver/internal/domain"
	"fitserver/internal/infra"
	"fitserver/internal/providers"
)

type fakeGateway struct {
	name   string
	text   func(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error)
	vision func(ctx context.Context, prompt, imageRef string, schema providers.Schema) (*providers.Result, error)
}

func (f *fakeGateway) Name() string { return f.name }

func (f *fakeGateway) GenerateText(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error) {
	if f.text != nil {
		return f.text(ctx, prompt, schema)
	}
	return nil, errors.New("text not implemented")
}

func (f *fakeGateway) GenerateVision(ctx context.Context, prompt, imageRef string, schema providers.Schema) (*providers.Result, error) {
	if f.vision != nil {
		return f.vision(ctx, prompt, imageRef, schema)
	}
	return nil, errors.New("vision not implemented")
}

func workoutResult(provider string) *providers.Result {
	return &providers.Result{
		Provider: provider,
		Artifact: providers.StaticArtifact(domain.CategoryWorkout),
	}
}

func quotaErr(provider string) error {
	return &providers.Error{Provider: provider, Status: 429, Code: "insufficient_quota", Message: "quota exceeded"}
}

func newTestOrchestrator(t *testing.T, defaultName string, gateways ...providers.Gateway) *Orchestrator {
	t.Helper()
	byName := make(map[string]providers.Gateway, len(gateways))
	for _, g := range gateways {
		byName[g.Name()] = g
	}
	o, err := New(defaultName, byName, infra.NewLogger("test"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return o
}

func TestFallbackOnQuotaExhaustionRestoresDefault(t *testing.T) {
	// Scenario: provider A default, A reports quota exhaustion, B succeeds.
	primaryCalls, fallbackCalls := 0, 0
	a := &fakeGateway{name: "gemini", text: func(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error) {
		primaryCalls++
		return nil, quotaErr("gemini")
	}}
	b := &fakeGateway{name: "openai", text: func(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error) {
		fallbackCalls++
		return workoutResult("openai"), nil
	}}
	o := newTestOrchestrator(t, "gemini", a, b)

	res, err := o.Generate(context.Background(), domain.CategoryWorkout, domain.Payload{Goal: "strength"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.Provider != "openai" {
		t.Fatalf("result provider = %q, want openai", res.Provider)
	}
	if primaryCalls != 1 || fallbackCalls != 1 {
		t.Fatalf("calls = (%d, %d), want (1, 1)", primaryCalls, fallbackCalls)
	}
	if got := o.CurrentProvider(); got != "gemini" {
		t.Fatalf("CurrentProvider() = %q after fallback, want gemini", got)
	}

	// The next call starts on the default again.
	a.text = func(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error) {
		primaryCalls++
		return workoutResult("gemini"), nil
	}
	res, err = o.Generate(context.Background(), domain.CategoryWorkout, domain.Payload{})
	if err != nil {
		t.Fatalf("second Generate returned error: %v", err)
	}
	if res.Provider != "gemini" {
		t.Fatalf("second call provider = %q, want gemini", res.Provider)
	}
}

func TestFallbackFailurePropagatesAndRestoresDefault(t *testing.T) {
	a := &fakeGateway{name: "gemini", text: func(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error) {
		return nil, quotaErr("gemini")
	}}
	fallbackErr := errors.New("openai: upstream unavailable")
	b := &fakeGateway{name: "openai", text: func(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error) {
		return nil, fallbackErr
	}}
	o := newTestOrchestrator(t, "gemini", a, b)

	_, err := o.Generate(context.Background(), domain.CategoryWorkout, domain.Payload{})
	if !errors.Is(err, fallbackErr) {
		t.Fatalf("Generate returned %v, want the fallback's error", err)
	}
	if got := o.CurrentProvider(); got != "gemini" {
		t.Fatalf("CurrentProvider() = %q after failed fallback, want gemini", got)
	}
}

func TestNonQuotaFailureDoesNotTriggerFallback(t *testing.T) {
	transient := errors.New("gemini: connection reset")
	a := &fakeGateway{name: "gemini", text: func(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error) {
		return nil, transient
	}}
	fallbackCalls := 0
	b := &fakeGateway{name: "openai", text: func(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error) {
		fallbackCalls++
		return workoutResult("openai"), nil
	}}
	o := newTestOrchestrator(t, "gemini", a, b)

	_, err := o.Generate(context.Background(), domain.CategoryWorkout, domain.Payload{})
	if !errors.Is(err, transient) {
		t.Fatalf("Generate returned %v, want the primary's error", err)
	}
	if fallbackCalls != 0 {
		t.Fatalf("fallback invoked %d times for a non-quota failure", fallbackCalls)
	}
}

func TestSingleProviderQuotaFailurePropagates(t *testing.T) {
	a := &fakeGateway{name: "gemini", text: func(ctx context.Context, prompt string, schema providers.Schema) (*providers.Result, error) {
		return nil, quotaErr("gemini")
	}}
	o := newTestOrchestrator(t, "gemini", a)

	_, err := o.Generate(context.Background(), domain.CategoryWorkout, domain.Payload{})
	if !providers.IsQuotaExhausted(err) {
		t.Fatalf("Generate returned %v, want the quota error when no alternate exists", err)
	}
}

func TestVisionCategoriesUseVisionCapability(t *testing.T) {
	visionCalls := 0
	a := &fakeGateway{name: "gemini", vision: func(ctx context.Context, prompt, imageRef string, schema providers.Schema) (*providers.Result, error) {
		visionCalls++
		if imageRef != "https://img.example/scan.jpg" {
			t.Fatalf("imageRef = %q", imageRef)
		}
		if schema.Category != domain.CategoryInbodyScan {
			t.Fatalf("schema category = %q", schema.Category)
		}
		return &providers.Result{Provider: "gemini", Artifact: &domain.Artifact{
			Category: domain.CategoryInbodyScan,
			Inbody:   &domain.InbodyReport{WeightKg: 72.5, SkeletalMuscleKg: 33.1, BodyFatPercent: 18.2},
		}}, nil
	}}
	o := newTestOrchestrator(t, "gemini", a)

	res, err := o.Generate(context.Background(), domain.CategoryInbodyScan, domain.Payload{ImageRef: "https://img.example/scan.jpg"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if visionCalls != 1 {
		t.Fatalf("vision calls = %d, want 1", visionCalls)
	}
	if res.Artifact.Inbody == nil {
		t.Fatal("missing inbody artifact")
	}
}

func TestSetDefaultProvider(t *testing.T) {
	a := &fakeGateway{name: "gemini"}
	b := &fakeGateway{name: "openai"}
	o := newTestOrchestrator(t, "gemini", a, b)

	if err := o.SetDefaultProvider("openai"); err != nil {
		t.Fatalf("SetDefaultProvider returned error: %v", err)
	}
	if got := o.CurrentProvider(); got != "openai" {
		t.Fatalf("CurrentProvider() = %q, want openai", got)
	}
	if err := o.SetDefaultProvider("unknown"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
