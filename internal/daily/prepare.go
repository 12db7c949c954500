package daily

import (
	"context"
)

// OwnerOutcome is one owner's line in a batch run.
type OwnerOutcome struct {
	Owner   uint64  `json:"owner"`
	Skipped bool    `json:"skipped"`
	Result  *Result `json:"result,omitempty"`
	Err     string  `json:"error,omitempty"`
}

type BatchResult struct {
	Period
	Owners []OwnerOutcome `json:"owners"`
	Failed int            `json:"failed"`
}

// PrepareNextMonth assigns the month after clock's for every owner that has
// no bucket there yet. One owner's failure is recorded and the batch moves on.
func (r *Reconciler) PrepareNextMonth(ctx context.Context, clock Clock) (*BatchResult, error) {
	next := clock.Period().Next()

	owners, err := r.Store.ListOwners(ctx)
	if err != nil {
		return nil, persistErr("list owners", err)
	}

	out := &BatchResult{Period: next, Owners: make([]OwnerOutcome, 0, len(owners))}
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		oc := OwnerOutcome{Owner: owner}
		existing, err := r.Store.ListSummaries(ctx, owner, next.First(), next.Last())
		switch {
		case err != nil:
			oc.Err = persistErr("list daily summaries", err).Error()
		case len(existing) > 0:
			oc.Skipped = true
		default:
			res, err := r.Assign(ctx, owner, next, clock)
			if err != nil {
				oc.Err = err.Error()
			} else {
				oc.Result = res
			}
		}

		if oc.Err != "" {
			out.Failed++
			r.log().Error("prepare next month failed", "owner", owner, "period", next.Token(), "err", oc.Err)
		}
		out.Owners = append(out.Owners, oc)
	}

	r.log().Info("prepare next month done", "period", next.Token(), "owners", len(owners), "failed", out.Failed)
	return out, nil
}
