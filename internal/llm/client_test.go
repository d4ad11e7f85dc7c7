package llm

import "testing"

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON unchanged",
			input: `{"summary":"hi"}`,
			want:  `{"summary":"hi"}`,
		},
		{
			name:  "strips json fenced block",
			input: "```json\n{\"summary\":\"hi\"}\n```",
			want:  `{"summary":"hi"}`,
		},
		{
			name:  "strips plain fenced block",
			input: "```\n{\"summary\":\"hi\"}\n```",
			want:  `{"summary":"hi"}`,
		},
		{
			name:  "trims surrounding prose",
			input: "Sure, here's the JSON:\n{\"summary\":\"hi\"}\nHope that helps!",
			want:  `{"summary":"hi"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanJSONResponse(tt.input)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
