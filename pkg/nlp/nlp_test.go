package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/soundprediction/sympto/pkg/types"
)

// fakeClient counts calls and fails until succeedAfter calls have been made.
type fakeClient struct {
	calls        int
	succeedAfter int
	err          error
	content      string
}

func (f *fakeClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	f.calls++
	if f.calls <= f.succeedAfter {
		return nil, f.err
	}
	return &types.Response{Content: f.content}, nil
}

func (f *fakeClient) ChatJSON(ctx context.Context, messages []types.Message) (string, error) {
	resp, err := f.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return RepairJSON(resp.Content)
}

func (f *fakeClient) Close() error { return nil }

func fastRetryConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetryClientEventualSuccess(t *testing.T) {
	fake := &fakeClient{
		succeedAfter: 2,
		err:          errors.New("rate limit exceeded"),
		content:      "ok",
	}
	client := NewRetryClient(fake, fastRetryConfig(3))

	resp, err := client.Chat(context.Background(), []types.Message{NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 calls, got %d", fake.calls)
	}
}

func TestRetryClientNonRetryable(t *testing.T) {
	fake := &fakeClient{
		succeedAfter: 10,
		err:          errors.New("invalid api key"),
	}
	client := NewRetryClient(fake, fastRetryConfig(3))

	_, err := client.Chat(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", fake.calls)
	}
}

func TestRetryClientExhaustion(t *testing.T) {
	fake := &fakeClient{
		succeedAfter: 10,
		err:          errors.New("503 service unavailable"),
	}
	client := NewRetryClient(fake, fastRetryConfig(2))

	_, err := client.Chat(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", fake.calls)
	}
}

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{errors.New("429 Too Many Requests"), true},
		{errors.New("connection reset by peer"), true},
		{errors.New("request timeout"), true},
		{errors.New("invalid request body"), false},
		{nil, false},
	}

	for _, tc := range cases {
		if got := isRetryableError(tc.err); got != tc.retryable {
			t.Errorf("isRetryableError(%v) = %v, want %v", tc.err, got, tc.retryable)
		}
	}
}

func TestRepairJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose prefix", `Here is the JSON: {"a": 1}`, `{"a": 1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RepairJSON(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRepairJSONFixesTrailingComma(t *testing.T) {
	out, err := RepairJSON(`{"symptoms": ["fever", "cough",]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed struct {
		Symptoms []string `json:"symptoms"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("repaired output is not valid JSON: %v", err)
	}
	if len(parsed.Symptoms) != 2 {
		t.Errorf("expected 2 symptoms, got %d", len(parsed.Symptoms))
	}
}
