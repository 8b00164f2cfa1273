package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/seethb/GraphRAG/pkg/ai"
)

const embedChunkSize = 16

// ChunkRange calls fn with [start, end) index ranges covering total items in
// chunks of at most chunkSize. It stops at the first error.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// EmbedAll computes embeddings for texts concurrently in bounded chunks.
// The result has the same length as texts; entries whose embedding failed
// (or whose text is blank) are nil. A disabled gateway yields all nils.
func EmbedAll(ctx context.Context, gateway *ai.Gateway, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	if gateway == nil || !gateway.Enabled() {
		return out
	}

	batch := gateway.BatchCapable()
	_ = ChunkRange(len(texts), embedChunkSize, func(start, end int) error {
		if batch {
			copy(out[start:end], gateway.TryEmbedBatch(ctx, texts[start:end]))
			return nil
		}
		eg, egCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			idx := i
			eg.Go(func() error {
				out[idx] = gateway.TryEmbed(egCtx, texts[idx])
				return nil
			})
		}
		return eg.Wait()
	})
	return out
}
