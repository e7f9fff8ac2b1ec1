package honeypot

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds parallel pipeline runs within one batch.
// Items sharing a session ID still serialize on the per-session lock.
const batchConcurrency = 8

// BatchItem is the per-item envelope of a batch response: either a
// response or an error message, never both.
type BatchItem struct {
	Response *EngageResponse `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// EngageBatch processes up to MaxBatchSize messages. Item failures are
// reported in their envelope; one bad item never fails the batch.
// Results are positionally aligned with the input.
func (s *Service) EngageBatch(ctx context.Context, reqs []EngageRequest) ([]BatchItem, error) {
	if len(reqs) > MaxBatchSize {
		return nil, ErrBatchTooLong
	}

	items := make([]BatchItem, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			resp, err := s.Engage(ctx, req)
			if err != nil {
				items[i] = BatchItem{Error: err.Error()}
				return nil
			}
			items[i] = BatchItem{Response: resp}
			return nil
		})
	}

	// Goroutines never return errors; Wait only joins them.
	_ = g.Wait()
	return items, nil
}
