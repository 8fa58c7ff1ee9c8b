package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAuthError(t *testing.T) {
	err := NewAuthError("test auth error")

	expected := "authentication failed: test auth error"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrAuthFailed) {
		t.Error("Expected AuthError to match ErrAuthFailed")
	}

	if !err.Is(NewAuthError("target")) {
		t.Error("Expected error to be auth error type")
	}

	if err.Is(NewAPIError(400, "test", "other error")) {
		t.Error("Expected error not to match different type")
	}

	if err.Is(errors.New("standard error")) {
		t.Error("Expected error not to match standard error")
	}
}

func TestAuthErrorDefaultMessage(t *testing.T) {
	err := NewAuthError("")
	if !strings.Contains(err.Error(), "API key") {
		t.Errorf("Error() = %s, expected mention of API key", err.Error())
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(400, "test-endpoint", "test API error")

	expected := "API error [400] at test-endpoint: test API error"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	noStatus := NewAPIError(0, "test-endpoint", "boom")
	if noStatus.Error() != "API error at test-endpoint: boom" {
		t.Errorf("Error() = %s", noStatus.Error())
	}
}

func TestAPIErrorWithBodyTruncates(t *testing.T) {
	body := strings.Repeat("x", maxBodySize+100)
	err := NewAPIErrorWithBody(500, "ep", "server error", body)

	if len(err.Body) != maxBodySize {
		t.Errorf("len(Body) = %d, want %d", len(err.Body), maxBodySize)
	}
	if GetResponseBody(err) != err.Body {
		t.Error("GetResponseBody should return the stored body")
	}
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("https://example.test", cause)

	if !errors.Is(err, cause) {
		t.Error("NetworkError should unwrap to its cause")
	}
	if !IsNetworkError(fmt.Errorf("send: %w", err)) {
		t.Error("IsNetworkError should see through wrapping")
	}
	if GetEndpoint(err) != "https://example.test" {
		t.Errorf("GetEndpoint() = %s", GetEndpoint(err))
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("test timeout error")

	expected := "request timed out: test timeout error"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
	if !errors.Is(err, ErrStreamStalled) {
		t.Error("TimeoutError should match ErrStreamStalled")
	}
	if !IsTimeoutError(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsTimeoutError should see through wrapping")
	}
	if NewTimeoutError("").Error() != "request timed out" {
		t.Error("unexpected default timeout message")
	}
}

func TestUsageLimitError(t *testing.T) {
	err := NewUsageLimitError("test usage limit error")

	expected := "usage limit exceeded: test usage limit error"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
	if !IsRateLimitError(err) {
		t.Error("UsageLimitError should be a rate limit error")
	}
	if !IsRateLimitError(NewAPIError(429, "ep", "slow down")) {
		t.Error("HTTP 429 should be a rate limit error")
	}
	if IsRateLimitError(NewAPIError(500, "ep", "boom")) {
		t.Error("HTTP 500 should not be a rate limit error")
	}
}

func TestBlockedError(t *testing.T) {
	err := NewBlockedError("SAFETY")

	if err.Error() != "content blocked: SAFETY" {
		t.Errorf("Error() = %s", err.Error())
	}
	if !IsBlockedError(err) {
		t.Error("IsBlockedError should match")
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError("unexpected token", "candidates.0")

	if !strings.Contains(err.Error(), "candidates.0") {
		t.Errorf("Error() = %s, expected path", err.Error())
	}
	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("ParseError should match ErrInvalidResponse")
	}
	if NewParseError("bad", "").Error() != "parse error: bad" {
		t.Error("unexpected message without path")
	}
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("API_KEY", ErrMissingAPIKey)

	if !errors.Is(err, ErrMissingAPIKey) {
		t.Error("ConfigError should unwrap to ErrMissingAPIKey")
	}
	if !IsConfigError(fmt.Errorf("load: %w", err)) {
		t.Error("IsConfigError should see through wrapping")
	}
	if !strings.Contains(err.Error(), "API_KEY") {
		t.Errorf("Error() = %s, expected field name", err.Error())
	}
}

func TestHelpersOnPlainErrors(t *testing.T) {
	plain := errors.New("plain")

	if GetHTTPStatus(plain) != 0 {
		t.Error("GetHTTPStatus should be 0 for plain errors")
	}
	if GetEndpoint(plain) != "" {
		t.Error("GetEndpoint should be empty for plain errors")
	}
	if IsAuthError(plain) || IsNetworkError(plain) || IsTimeoutError(plain) {
		t.Error("plain error should not match typed helpers")
	}
}
