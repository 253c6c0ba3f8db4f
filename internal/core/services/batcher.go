package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
	"github.com/custodia-labs/localrag/internal/logger"
	"github.com/custodia-labs/localrag/internal/metrics"
)

// BatcherConfig configures the embedding batcher.
type BatcherConfig struct {
	// BatchSize is the number of texts per embedding request. Required.
	BatchSize int

	// Concurrency is the number of requests in flight. Values below 1
	// run batches sequentially.
	Concurrency int

	// RequestsPerSecond paces requests. Zero disables pacing.
	RequestsPerSecond float64

	// Dimensions is the expected vector length. Zero accepts the length
	// of the first vector returned.
	Dimensions int
}

// Batcher splits texts into fixed-size batches and embeds them, keeping
// output aligned with input.
type Batcher struct {
	embedder driven.EmbeddingService
	cfg      BatcherConfig
	limiter  *rate.Limiter
}

// NewBatcher creates a batcher. A non-positive batch size is a
// configuration error.
func NewBatcher(embedder driven.EmbeddingService, cfg BatcherConfig) (*Batcher, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding service is required", domain.ErrConfiguration)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrConfiguration, cfg.BatchSize)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	b := &Batcher{embedder: embedder, cfg: cfg}
	if cfg.RequestsPerSecond > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return b, nil
}

// Embed returns one vector per text in input order. Any failed batch
// fails the whole call.
func (b *Batcher) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	batches := (len(texts) + b.cfg.BatchSize - 1) / b.cfg.BatchSize
	logger.Debug("Embedding %d texts in %d batches of up to %d", len(texts), batches, b.cfg.BatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	for start := 0; start < len(texts); start += b.cfg.BatchSize {
		end := min(start+b.cfg.BatchSize, len(texts))
		g.Go(func() error {
			return b.embedBatch(gctx, texts[start:end], vectors[start:end])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := b.checkDimensions(vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// embedBatch embeds one batch into out, which has the batch's length.
func (b *Batcher) embedBatch(ctx context.Context, texts []string, out [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	got, err := b.embedder.EmbedBatch(ctx, texts)
	metrics.ObserveEmbedding(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%w: embed batch: %w", domain.ErrEmbeddingService, err)
	}
	if len(got) != len(texts) {
		return fmt.Errorf("%w: requested %d embeddings, received %d",
			domain.ErrEmbeddingService, len(texts), len(got))
	}
	copy(out, got)
	return nil
}

// checkDimensions verifies every vector has the same, expected, length.
func (b *Batcher) checkDimensions(vectors [][]float32) error {
	want := b.cfg.Dimensions
	if want == 0 {
		want = len(vectors[0])
	}
	if want == 0 {
		return fmt.Errorf("%w: %w: empty embedding vector", domain.ErrEmbeddingService, domain.ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != want {
			return fmt.Errorf("%w: %w: vector %d has %d dimensions, expected %d",
				domain.ErrEmbeddingService, domain.ErrDimensionMismatch, i, len(v), want)
		}
	}
	return nil
}
