package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/dreammend/internal/core"
	"github.com/markdave123-py/dreammend/internal/core/llm"
	"github.com/markdave123-py/dreammend/internal/metrics"
	"github.com/markdave123-py/dreammend/internal/models"
)

const (
	queueSize    = 64
	batchSize    = 16
	batchTimeout = 2 * time.Minute
)

// EmbeddingStore persists the vector computed for a dream entry.
type EmbeddingStore interface {
	SetDreamEntryEmbedding(ctx context.Context, id int64, embedding []float32) error
}

// DreamIndexer embeds dream entries in the background so they can be
// searched by similarity.
//
// jobs: bounded in-memory queue of entries waiting to be embedded.
type DreamIndexer struct {
	store    EmbeddingStore
	embedder core.EmbeddingProvider
	logger   *slog.Logger
	jobs     chan models.DreamEntry
}

func NewDreamIndexer(store EmbeddingStore, embedder core.EmbeddingProvider, logger *slog.Logger) *DreamIndexer {
	return &DreamIndexer{
		store:    store,
		embedder: embedder,
		logger:   logger,
		jobs:     make(chan models.DreamEntry, queueSize),
	}
}

// Run starts numWorkers workers and blocks until ctx is cancelled.
func (i *DreamIndexer) Run(ctx context.Context, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	for w := 1; w <= numWorkers; w++ {
		g.Go(func() error {
			i.work(gctx, w)
			return nil
		})
	}
	return g.Wait()
}

// Enqueue schedules an entry for embedding. It never blocks; when the queue
// is full the entry is dropped and stays unindexed until its next update.
func (i *DreamIndexer) Enqueue(entry models.DreamEntry) {
	select {
	case i.jobs <- entry:
		metrics.IndexerJobsTotal.WithLabelValues("queued").Inc()
	default:
		metrics.IndexerJobsTotal.WithLabelValues("dropped").Inc()
		i.logger.Warn("indexer queue full, dropping entry", slog.Int64("entry_id", entry.ID))
	}
}

func (i *DreamIndexer) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			i.logger.Debug("indexer worker stopping", slog.Int("worker", worker))
			return
		case first := <-i.jobs:
			batch := i.drain(first)
			if err := i.processBatch(ctx, batch); err != nil {
				metrics.IndexerJobsTotal.WithLabelValues("failed").Add(float64(len(batch)))
				i.logger.Error("indexing failed",
					slog.Int("worker", worker),
					slog.Int("entries", len(batch)),
					slog.Any("err", err),
				)
				continue
			}
			metrics.IndexerJobsTotal.WithLabelValues("indexed").Add(float64(len(batch)))
		}
	}
}

// drain collects up to batchSize queued entries without waiting.
func (i *DreamIndexer) drain(first models.DreamEntry) []models.DreamEntry {
	batch := []models.DreamEntry{first}
	for len(batch) < batchSize {
		select {
		case e := <-i.jobs:
			batch = append(batch, e)
		default:
			return batch
		}
	}
	return batch
}

func (i *DreamIndexer) processBatch(ctx context.Context, batch []models.DreamEntry) error {
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	docs := make([]core.DreamDocument, len(batch))
	for n, e := range batch {
		docs[n] = llm.NewDreamDocument(e)
	}

	vectors, err := i.embedder.EmbedDreams(ctx, docs)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embed: got %d vectors for %d entries", len(vectors), len(batch))
	}

	for n, e := range batch {
		if err := i.store.SetDreamEntryEmbedding(ctx, e.ID, vectors[n]); err != nil {
			// the entry may have been deleted since it was queued
			i.logger.Warn("store embedding", slog.Int64("entry_id", e.ID), slog.Any("err", err))
		}
	}
	return nil
}
