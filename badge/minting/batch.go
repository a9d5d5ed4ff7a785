package minting

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// BatchFailure pairs a failed snapshot with its error.
type BatchFailure struct {
	Snapshot *model.AchievementSnapshot
	Err      error
}

// BatchResult partitions a batch into issued credentials and per-item
// failures. Every input snapshot appears in exactly one of the two lists;
// ordering within each list is not guaranteed to match the input.
type BatchResult struct {
	Issued   []*model.Credential
	Failures []BatchFailure
}

// IssueBatch issues each snapshot independently with bounded concurrency.
// One item's validation or ledger failure never aborts its siblings; caller
// cancellation propagates to every in-flight mint.
func (s *Service) IssueBatch(ctx context.Context, snaps []*model.AchievementSnapshot) *BatchResult {
	type itemResult struct {
		cred *model.Credential
		err  error
	}
	results := make([]itemResult, len(snaps))

	// Item funcs always return nil so a failing item cannot cancel the
	// group; each goroutine writes to its own slot.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)

	for i, snap := range snaps {
		i, snap := i, snap
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = itemResult{err: err}
				return nil
			}
			ictx, cancel := context.WithTimeout(gctx, s.itemTimeout)
			defer cancel()

			cred, err := s.Issue(ictx, snap)
			results[i] = itemResult{cred: cred, err: err}
			return nil
		})
	}
	// Wait never returns an error here; see above.
	_ = g.Wait()

	out := &BatchResult{}
	for i, res := range results {
		if res.err != nil {
			out.Failures = append(out.Failures, BatchFailure{Snapshot: snaps[i], Err: res.err})
			continue
		}
		out.Issued = append(out.Issued, res.cred)
	}

	s.log.Info().
		Int("requested", len(snaps)).
		Int("issued", len(out.Issued)).
		Int("failed", len(out.Failures)).
		Msg("batch mint finished")
	return out
}
