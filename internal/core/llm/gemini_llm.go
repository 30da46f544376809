package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/dreammend/internal/core"
)

// GeminiResponder drives the therapy conversation with a Gemini chat session
// rebuilt from the stored history on every turn.
type GeminiResponder struct {
	client    *genai.Client
	modelName string
}

var _ core.Responder = (*GeminiResponder)(nil)

func NewGeminiResponder(ctx context.Context, apiKey, modelName string) (*GeminiResponder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiResponder{client: cl, modelName: modelName}, nil
}

func (g *GeminiResponder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiResponder) Invoke(ctx context.Context, in core.Invocation) (core.Response, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	cs := m.StartChat()
	history, input := toHistory(in.History, in.Input)
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(input))
	if err != nil {
		return core.Response{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return core.Response{}, fmt.Errorf("gemini generate: empty response")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return parseReply(b.String()), nil
}

// toHistory converts stored turns into alternating chat contents. Consecutive
// turns from one side are merged, and a trailing user turn that never got a
// reply is folded into the outgoing input.
func toHistory(turns []core.Turn, input string) ([]*genai.Content, string) {
	type block struct {
		role  string
		texts []string
	}
	var blocks []block
	for _, t := range turns {
		role := "model"
		if t.FromUser {
			role = "user"
		}
		if n := len(blocks); n > 0 && blocks[n-1].role == role {
			blocks[n-1].texts = append(blocks[n-1].texts, t.Text)
			continue
		}
		blocks = append(blocks, block{role: role, texts: []string{t.Text}})
	}

	if n := len(blocks); n > 0 && blocks[n-1].role == "user" {
		input = strings.Join(append(blocks[n-1].texts, input), "\n\n")
		blocks = blocks[:n-1]
	}

	out := make([]*genai.Content, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, &genai.Content{Role: b.role, Parts: []genai.Part{genai.Text(strings.Join(b.texts, "\n\n"))}})
	}
	return out, input
}

// parseReply strips the finish marker and reports whether it was present.
func parseReply(text string) core.Response {
	finished := strings.Contains(text, finishMarker)
	if finished {
		text = strings.ReplaceAll(text, finishMarker, "")
	}
	return core.Response{Text: strings.TrimSpace(text), IsFinished: finished}
}
