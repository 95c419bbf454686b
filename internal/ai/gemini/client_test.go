package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// fakeCaller replays a queue of canned responses and errors.
type fakeCaller struct {
	responses []fakeResponse
	calls     int
	prompts   []string
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeCaller) generate(_ context.Context, _, prompt string) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)

	if len(f.responses) == 0 {
		return nil, errors.New("fakeCaller: queue exhausted")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	return textResponse(next.text), nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func newTestGenerator(caller contentCaller, maxRetries int) *Generator {
	return &Generator{
		caller:     caller,
		model:      defaultModel,
		maxRetries: maxRetries,
		logger:     zap.NewNop(),
	}
}

func withoutSleep(t *testing.T) {
	t.Helper()
	original := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = original })
}

func TestGenerateContentSuccess(t *testing.T) {
	caller := &fakeCaller{responses: []fakeResponse{{text: "  hello  "}}}
	g := newTestGenerator(caller, 3)

	got, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
	if caller.calls != 1 {
		t.Errorf("expected 1 call, got %d", caller.calls)
	}
}

func TestGenerateContentRetriesTransientErrors(t *testing.T) {
	withoutSleep(t)

	caller := &fakeCaller{responses: []fakeResponse{
		{err: genai.APIError{Code: 500, Status: "Internal"}},
		{err: genai.APIError{Code: 429, Status: "ResourceExhausted"}},
		{text: "recovered"},
	}}
	g := newTestGenerator(caller, 3)

	got, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "recovered" {
		t.Errorf("got %q, want %q", got, "recovered")
	}
	if caller.calls != 3 {
		t.Errorf("expected 3 calls, got %d", caller.calls)
	}
}

func TestGenerateContentExhaustsRetries(t *testing.T) {
	withoutSleep(t)

	caller := &fakeCaller{responses: []fakeResponse{
		{err: genai.APIError{Code: 503, Status: "Unavailable"}},
		{err: genai.APIError{Code: 503, Status: "Unavailable"}},
	}}
	g := newTestGenerator(caller, 2)

	_, err := g.GenerateContent(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if caller.calls != 2 {
		t.Errorf("expected 2 calls, got %d", caller.calls)
	}
}

func TestGenerateContentDoesNotRetryPermanentErrors(t *testing.T) {
	caller := &fakeCaller{responses: []fakeResponse{
		{err: genai.APIError{Code: 400, Status: "InvalidArgument"}},
	}}
	g := newTestGenerator(caller, 3)

	_, err := g.GenerateContent(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if caller.calls != 1 {
		t.Errorf("expected 1 call, got %d", caller.calls)
	}
}

func TestGenerateContentEmptyPrompt(t *testing.T) {
	g := newTestGenerator(&fakeCaller{}, 3)

	if _, err := g.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestGenerateContentCancelledContext(t *testing.T) {
	caller := &fakeCaller{responses: []fakeResponse{
		{err: genai.APIError{Code: 500, Status: "Internal"}},
	}}
	g := newTestGenerator(caller, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.GenerateContent(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCollectTextMultipleParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "one"}, {Text: ""}, {Text: "two"}}}},
		},
	}

	got, err := collectText(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "one\ntwo" {
		t.Errorf("got %q, want %q", got, "one\ntwo")
	}
}

func TestCollectTextEmptyResponse(t *testing.T) {
	if _, err := collectText(&genai.GenerateContentResponse{}); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", genai.APIError{Code: 429}, true},
		{"server error", genai.APIError{Code: 502}, true},
		{"bad request", genai.APIError{Code: 400}, false},
		{"unauthorized", genai.APIError{Code: 401}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Retryable(tc.err); got != tc.want {
				t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
