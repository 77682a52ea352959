package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/c360studio/prospect/llm"
)

func TestAnthropicBuildURL(t *testing.T) {
	p := &AnthropicProvider{}

	tests := []struct {
		base string
		want string
	}{
		{"", "https://api.anthropic.com/v1/messages"},
		{"https://proxy.internal/", "https://proxy.internal/v1/messages"},
	}

	for _, tt := range tests {
		if got := p.BuildURL(tt.base); got != tt.want {
			t.Errorf("BuildURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestAnthropicSetHeaders(t *testing.T) {
	p := &AnthropicProvider{}

	req, _ := http.NewRequest(http.MethodPost, "http://x", nil)
	p.SetHeaders(req, "sk-ant")

	if got := req.Header.Get("x-api-key"); got != "sk-ant" {
		t.Errorf("x-api-key = %q", got)
	}
	if got := req.Header.Get("anthropic-version"); got != anthropicVersion {
		t.Errorf("anthropic-version = %q", got)
	}
}

func TestAnthropicBuildRequestBodyLiftsSystemMessage(t *testing.T) {
	p := &AnthropicProvider{}

	body, err := p.BuildRequestBody("claude-sonnet-4-5", []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["system"] != "be brief" {
		t.Errorf("system = %v, system message not lifted", decoded["system"])
	}
	msgs := decoded["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v, system message must not remain in history", msgs)
	}
	// max_tokens is mandatory for this API.
	if decoded["max_tokens"] != float64(4096) {
		t.Errorf("max_tokens = %v, want default 4096", decoded["max_tokens"])
	}
}

func TestAnthropicParseResponse(t *testing.T) {
	p := &AnthropicProvider{}

	body := `{
		"model": "claude-sonnet-4-5",
		"content": [
			{"type": "text", "text": "part one "},
			{"type": "tool_use", "text": "ignored"},
			{"type": "text", "text": "part two"}
		],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 20, "output_tokens": 10}
	}`

	resp, err := p.ParseResponse([]byte(body), "claude-sonnet-4-5")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "part one part two" {
		t.Errorf("Content = %q, want concatenated text blocks", resp.Content)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d", resp.Usage.TotalTokens)
	}
	if resp.FinishReason != "end_turn" {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
}
