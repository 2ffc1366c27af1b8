// Package providers turns search parameters into raw leads and feeds them
// into a session.
package providers

import (
	"context"
	"time"

	"leadgen_backend/internal/leadgen/domain"
)

// Provider is one lead source.
type Provider interface {
	ID() string
	Supports(params domain.SearchParams) bool
	Fetch(ctx context.Context, params domain.SearchParams) ([]domain.RawLead, error)
}

// EmitFunc receives one batch from a streaming provider. Returning an error
// stops the stream.
type EmitFunc func(batch []domain.RawLead) error

// StreamingProvider is implemented by providers that can deliver results
// incrementally. The runner prefers FetchStream when it is available.
type StreamingProvider interface {
	Provider
	FetchStream(ctx context.Context, params domain.SearchParams, emit EmitFunc) error
}

// streamChunks emits leads in fixed-size batches, pausing between them.
func streamChunks(ctx context.Context, leads []domain.RawLead, size int, delay time.Duration, emit EmitFunc) error {
	if size <= 0 {
		size = len(leads)
	}
	for start := 0; start < len(leads); start += size {
		if start > 0 {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
		end := min(start+size, len(leads))
		if err := emit(leads[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
