package verification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// VerifyBatch fans out one independent pipeline per reference with bounded
// concurrency. The result always holds exactly one report per input ref: a
// slow or failing ref never blocks its siblings, and an infrastructure
// fault on one ref is folded into that ref's report instead of failing the
// batch.
func (s *Service) VerifyBatch(ctx context.Context, refs []string) map[string]*model.VerificationReport {
	reports := make([]*model.VerificationReport, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				reports[i] = s.failureReport(ref, err)
				return nil
			}
			ictx, cancel := context.WithTimeout(gctx, s.itemTimeout)
			defer cancel()

			report, err := s.Verify(ictx, ref)
			if err != nil {
				report = s.failureReport(ref, err)
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*model.VerificationReport, len(refs))
	for i, ref := range refs {
		out[ref] = reports[i]
	}
	return out
}

// failureReport converts an infrastructure fault into a complete, failed
// report so batch callers still get one entry for the ref.
func (s *Service) failureReport(ref string, err error) *model.VerificationReport {
	detail := fmt.Sprintf("verification aborted: %v", err)
	report := &model.VerificationReport{
		RequestID:     uuid.NewString(),
		CredentialRef: ref,
		GeneratedAt:   s.now().UTC(),
		OverallValid:  false,
		Errors:        []string{detail},
		StageResults: []model.StageResult{{
			Stage:  model.StageLedger,
			Passed: false,
			Detail: detail,
		}},
	}
	return report
}
