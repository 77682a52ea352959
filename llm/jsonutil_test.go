package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"summary": "fine"}`,
			want:  `{"summary": "fine"}`,
		},
		{
			name:  "json code fence",
			input: "Here you go:\n```json\n{\"summary\": \"fenced\"}\n```\nDone.",
			want:  `{"summary": "fenced"}`,
		},
		{
			name:  "plain code fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "surrounded by prose",
			input: `Sure! {"a": 1} Hope that helps.`,
			want:  `{"a": 1}`,
		},
		{
			name:  "trailing comma removed",
			input: `{"a": 1, "b": [1, 2,],}`,
			want:  `{"a": 1, "b": [1, 2]}`,
		},
		{
			name:  "no json at all",
			input: "I could not find anything.",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractJSONStripsComments(t *testing.T) {
	input := `{
	"url": "https://example.com", // keep the URL intact
	"note": "value" // trailing comment
}`

	got := ExtractJSON(input)

	var decoded map[string]string
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("cleaned JSON does not parse: %v\n%s", err, got)
	}
	if decoded["url"] != "https://example.com" {
		t.Errorf("url = %q, comment stripping damaged the string value", decoded["url"])
	}
}

func TestStripLineComment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"key": "value" // comment`, `"key": "value"`},
		{`"url": "https://x.io",`, `"url": "https://x.io",`},
		{`plain line`, `plain line`},
		{`"esc \" quote" // gone`, `"esc \" quote"`},
	}

	for _, tt := range tests {
		if got := stripLineComment(tt.input); got != tt.want {
			t.Errorf("stripLineComment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
