package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/dreammend/internal/core"
	"github.com/markdave123-py/dreammend/internal/models"
)

const (
	// BatchEmbedContents accepts at most 100 requests.
	maxEmbedBatch = 100
	maxBodyRunes  = 8000
)

// DreamEmbedder turns dream entries into retrieval vectors. Entries are
// embedded as titled documents so the title weighs on similarity.
type DreamEmbedder struct {
	client    *genai.Client
	modelName string
}

var _ core.EmbeddingProvider = (*DreamEmbedder)(nil)

func NewDreamEmbedder(ctx context.Context, apiKey, modelName string) (*DreamEmbedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini embed client: %w", err)
	}
	return &DreamEmbedder{client: cl, modelName: modelName}, nil
}

func (d *DreamEmbedder) Close() error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}

// NewDreamDocument shapes an entry for embedding. The body is the abstract
// followed by the rewritten dream without the summary follow-up line.
func NewDreamDocument(e models.DreamEntry) core.DreamDocument {
	parts := make([]string, 0, 2)
	for _, p := range []string{e.Abstract, strings.ReplaceAll(e.RewrittenDream, core.SummaryFollowUp, "")} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return core.DreamDocument{
		Title: strings.TrimSpace(e.Title),
		Body:  truncateRunes(strings.Join(parts, "\n\n"), maxBodyRunes),
	}
}

// EmbedDreams returns one vector per document, in order.
func (d *DreamEmbedder) EmbedDreams(ctx context.Context, docs []core.DreamDocument) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	em := d.client.EmbeddingModel(d.modelName)
	em.TaskType = genai.TaskTypeRetrievalDocument

	out := make([][]float32, 0, len(docs))
	for _, chunk := range chunkDocuments(docs, maxEmbedBatch) {
		batch := em.NewBatch()
		for _, doc := range chunk {
			body := doc.Body
			if body == "" {
				body = doc.Title
			}
			if doc.Title != "" {
				batch.AddContentWithTitle(doc.Title, genai.Text(body))
			} else {
				batch.AddContent(genai.Text(body))
			}
		}

		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini embed dreams: %w", err)
		}
		if len(resp.Embeddings) != len(chunk) {
			return nil, fmt.Errorf("gemini embed dreams: got %d vectors for %d entries", len(resp.Embeddings), len(chunk))
		}
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}
	return out, nil
}

func chunkDocuments(docs []core.DreamDocument, size int) [][]core.DreamDocument {
	var chunks [][]core.DreamDocument
	for len(docs) > size {
		chunks = append(chunks, docs[:size])
		docs = docs[size:]
	}
	if len(docs) > 0 {
		chunks = append(chunks, docs)
	}
	return chunks
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
