package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/c360studio/prospect/llm"
)

func TestOpenAIBuildURL(t *testing.T) {
	p := &OpenAIProvider{}

	tests := []struct {
		base string
		want string
	}{
		{"", "https://api.openai.com/v1/chat/completions"},
		{"https://openrouter.ai/api/v1", "https://openrouter.ai/api/v1/chat/completions"},
		{"http://localhost:11434/v1/", "http://localhost:11434/v1/chat/completions"},
		{"http://localhost:8000/v1/chat/completions", "http://localhost:8000/v1/chat/completions"},
	}

	for _, tt := range tests {
		if got := p.BuildURL(tt.base); got != tt.want {
			t.Errorf("BuildURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestOpenAISetHeaders(t *testing.T) {
	p := &OpenAIProvider{}

	req, _ := http.NewRequest(http.MethodPost, "http://x", nil)
	p.SetHeaders(req, "sk-key")
	if got := req.Header.Get("Authorization"); got != "Bearer sk-key" {
		t.Errorf("Authorization = %q", got)
	}

	// Local servers run without a key; no empty Bearer header.
	req2, _ := http.NewRequest(http.MethodPost, "http://x", nil)
	p.SetHeaders(req2, "")
	if got := req2.Header.Get("Authorization"); got != "" {
		t.Errorf("Authorization = %q, want unset", got)
	}
}

func TestOpenAIBuildRequestBody(t *testing.T) {
	p := &OpenAIProvider{}
	temp := 0.3

	body, err := p.BuildRequestBody("gpt-4o-mini", []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}, &temp, 1024)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", decoded["model"])
	}
	if decoded["temperature"] != 0.3 {
		t.Errorf("temperature = %v", decoded["temperature"])
	}
	if decoded["max_tokens"] != float64(1024) {
		t.Errorf("max_tokens = %v", decoded["max_tokens"])
	}
	if msgs := decoded["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v", msgs)
	}
}

func TestOpenAIBuildRequestBodyOmitsOptionals(t *testing.T) {
	p := &OpenAIProvider{}

	body, err := p.BuildRequestBody("m", []llm.Message{{Role: "user", Content: "x"}}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["temperature"]; ok {
		t.Error("temperature should be omitted when nil")
	}
	if _, ok := decoded["max_tokens"]; ok {
		t.Error("max_tokens should be omitted when zero")
	}
}

func TestOpenAIParseResponse(t *testing.T) {
	p := &OpenAIProvider{}

	body := `{
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "hi there"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`

	resp, err := p.ParseResponse([]byte(body), "gpt-4o-mini")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "hi there" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d", resp.Usage.TotalTokens)
	}
}

func TestOpenAIParseResponseNoChoices(t *testing.T) {
	p := &OpenAIProvider{}
	if _, err := p.ParseResponse([]byte(`{"choices": []}`), "m"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestProvidersRegistered(t *testing.T) {
	for _, name := range []string{"openai", "anthropic"} {
		if llm.GetProvider(name) == nil {
			t.Errorf("provider %q not registered by init", name)
		}
	}
}
