package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const summarizeSystemPrompt = `You are a research assistant maintaining a personal knowledge base. Given the markdown content of a saved link, and any text recognized from images on the page, produce a concise summary a reader can scan later to recall what the page was about.

Rules:
- 2 to 4 sentences, neutral tone, no editorializing
- Capture the concrete facts: what the page is, who/what it is about, and why it might have been saved
- Also produce 3 to 6 short topical tags

Output as JSON only, no other text:
{
  "summary": "concise summary",
  "tags": ["tag1", "tag2"]
}`

const ocrHeading = "\n\n## Text recognized from images\n\n"

type OpenAIClient struct {
	client         *openai.Client
	chatModel      openai.ChatModel
	embeddingModel openai.EmbeddingModel
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		client:         &client,
		chatModel:      openai.ChatModelGPT4oMini,
		embeddingModel: openai.EmbeddingModelTextEmbedding3Small,
	}
}

// Summarize implements Summarizer. On a JSON parse failure it falls back to
// using the raw LLM text as the summary with empty tags, per spec.md
// section 4.3.1 step 2.
func (c *OpenAIClient) Summarize(markdown, ocrText string) (*SummaryResult, error) {
	userPrompt := markdown
	if ocrText != "" {
		userPrompt += ocrHeading + ocrText
	}

	resp, err := c.client.Chat.Completions.New(context.Background(), openai.ChatCompletionNewParams{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarizeSystemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai summarize: empty response")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var parsed SummaryResult
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return &SummaryResult{Summary: resp.Choices[0].Message.Content, Tags: nil}, nil
	}
	return &parsed, nil
}

// Embed implements Embedder using OpenAI's embeddings endpoint.
func (c *OpenAIClient) Embed(text string) ([]float32, error) {
	resp, err := c.client.Embeddings.New(context.Background(), openai.EmbeddingNewParams{
		Model: c.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: empty response")
	}

	embedding := resp.Data[0].Embedding
	vec := make([]float32, len(embedding))
	for i, f := range embedding {
		vec[i] = float32(f)
	}
	return vec, nil
}
