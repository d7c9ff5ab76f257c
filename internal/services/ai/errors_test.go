package ai

import (
	"errors"
	"testing"
)

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		if got := ExtractAPIError(nil); got != nil {
			t.Errorf("ExtractAPIError(nil) = %v, want nil", got)
		}
	})

	t.Run("non rate limit error", func(t *testing.T) {
		t.Parallel()
		if got := ExtractAPIError(errors.New("connection refused")); got != nil {
			t.Errorf("ExtractAPIError() = %v, want nil", got)
		}
	})

	t.Run("rate limit with json payload", func(t *testing.T) {
		t.Parallel()
		err := errors.New(`POST "https://api.openai.com/v1/chat/completions": 429 Too Many Requests {"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}`)
		apiErr := ExtractAPIError(err)
		if apiErr == nil {
			t.Fatal("expected APIError")
		}
		if apiErr.StatusCode != 429 {
			t.Errorf("StatusCode = %d, want 429", apiErr.StatusCode)
		}
		if apiErr.Message != "Rate limit reached" {
			t.Errorf("Message = %q", apiErr.Message)
		}
		if apiErr.IsPermanent {
			t.Error("rate limit should not be permanent")
		}
	})

	t.Run("insufficient quota is permanent", func(t *testing.T) {
		t.Parallel()
		err := errors.New(`429 {"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}`)
		apiErr := ExtractAPIError(err)
		if apiErr == nil {
			t.Fatal("expected APIError")
		}
		if !apiErr.IsPermanent {
			t.Error("quota exhaustion should be permanent")
		}
		if !IsQuotaError(apiErr) {
			t.Error("IsQuotaError should report true")
		}
	})
}

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain 429", err: errors.New("429 Too Many Requests"), want: true},
		{name: "rate limit text", err: errors.New("rate limit reached"), want: true},
		{name: "unrelated", err: errors.New("dial tcp: timeout"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
