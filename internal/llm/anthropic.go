package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const insightSystemPrompt = `You are a research assistant maintaining a personal knowledge base. Given a saved link's title and summary, plus a short list of other links the reader has previously saved that are related, write one or two sentences connecting this link to what came before -- what pattern or theme it continues, or what new angle it adds.

Keep it factual and specific. Do not restate the summary. If no related links are given, note briefly what makes this link worth revisiting on its own.`

type AnthropicClient struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{
		client: &client,
		model:  anthropic.ModelClaudeHaiku4_5,
	}
}

// GenerateInsight implements InsightGenerator.
func (c *AnthropicClient) GenerateInsight(title, summary string, related []RelatedContext) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nSummary: %s\n\n", title, summary)
	if len(related) == 0 {
		sb.WriteString("No related links found yet.\n")
	} else {
		sb.WriteString("Related links previously saved:\n")
		for _, r := range related {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", r.Title, r.URL, r.Summary)
		}
	}

	resp, err := c.client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: insightSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(sb.String())),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic insight: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("anthropic insight: empty response")
	}
	return strings.TrimSpace(resp.Content[0].Text), nil
}
