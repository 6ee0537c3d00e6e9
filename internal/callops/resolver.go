package callops

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"outdial-platform/internal/candidate"
	"outdial-platform/internal/phone"
)

// MatchInput is the identifying information an external event carries. Any
// field may be empty; the provider omits fields depending on webhook type
// and version.
type MatchInput struct {
	// VapiCallID is the provider's call identifier.
	VapiCallID string
	// CandidateIDHint is the raw candidateId metadata planted at dial time.
	CandidateIDHint string
	// Phone is the customer number as the provider formatted it.
	Phone string
}

// Matcher locates a candidate for one identification strategy. ok=false
// means "this strategy has nothing", not an error.
type Matcher func(ctx context.Context, store candidate.Store, in MatchInput) (candidate.Candidate, bool, error)

// defaultMatchers is the strict priority order: provider call id, then
// metadata candidate id, then phone number. Resolution stops at the first
// hit, so a call-id match always beats a phone match.
var defaultMatchers = []Matcher{
	matchByVapiCallID,
	matchByCandidateIDHint,
	matchByPhone,
}

// Resolve maps an external event to a local candidate, or reports ok=false
// when no strategy matched. Unmatched events are the caller's to log and
// drop; no candidate is ever created implicitly.
func Resolve(ctx context.Context, store candidate.Store, in MatchInput) (candidate.Candidate, bool, error) {
	for _, m := range defaultMatchers {
		c, ok, err := m(ctx, store, in)
		if err != nil {
			return candidate.Candidate{}, false, err
		}
		if ok {
			return c, true, nil
		}
	}
	return candidate.Candidate{}, false, nil
}

func matchByVapiCallID(ctx context.Context, store candidate.Store, in MatchInput) (candidate.Candidate, bool, error) {
	if in.VapiCallID == "" {
		return candidate.Candidate{}, false, nil
	}
	c, err := store.FindByVapiCallID(ctx, in.VapiCallID)
	if errors.Is(err, candidate.ErrNotFound) {
		return candidate.Candidate{}, false, nil
	}
	if err != nil {
		return candidate.Candidate{}, false, err
	}
	return c, true, nil
}

func matchByCandidateIDHint(ctx context.Context, store candidate.Store, in MatchInput) (candidate.Candidate, bool, error) {
	if in.CandidateIDHint == "" {
		return candidate.Candidate{}, false, nil
	}
	id, err := strconv.ParseInt(in.CandidateIDHint, 10, 64)
	if err != nil {
		return candidate.Candidate{}, false, nil
	}
	c, err := store.Get(ctx, id)
	if errors.Is(err, candidate.ErrNotFound) {
		return candidate.Candidate{}, false, nil
	}
	if err != nil {
		return candidate.Candidate{}, false, err
	}
	return c, true, nil
}

// matchByPhone compares normalized numbers. Candidates with a call in
// flight (calling) or still queued (pending) are preferred, most recently
// updated first; only when none match is the status filter dropped.
func matchByPhone(ctx context.Context, store candidate.Store, in MatchInput) (candidate.Candidate, bool, error) {
	if in.Phone == "" {
		return candidate.Candidate{}, false, nil
	}
	all, err := store.List(ctx)
	if err != nil {
		return candidate.Candidate{}, false, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	for _, c := range all {
		if c.Status != candidate.StatusCalling && c.Status != candidate.StatusPending {
			continue
		}
		if phone.SameNumber(c.Phone, in.Phone) {
			return c, true, nil
		}
	}
	for _, c := range all {
		if phone.SameNumber(c.Phone, in.Phone) {
			return c, true, nil
		}
	}
	return candidate.Candidate{}, false, nil
}
