package harness

import (
	"fmt"

	"github.com/rbergm/diploma-thesis/internal/canonical"
	"github.com/rbergm/diploma-thesis/internal/hint"
	"github.com/rbergm/diploma-thesis/internal/querymodel"
	"github.com/rbergm/diploma-thesis/internal/selector"
)

// Property names accepted in Scenario.Properties.
const (
	PropIdempotent     = "idempotent"
	PropScopeMonotonic = "scope_monotonic"
	PropRoleExclusive  = "role_exclusive"
	PropEmptySafe      = "empty_safe"
)

// AllProperties lists every checkable property in evaluation order.
var AllProperties = []string{PropIdempotent, PropScopeMonotonic, PropRoleExclusive, PropEmptySafe}

// PropertyError reports a violated invariant.
type PropertyError struct {
	Property string
	Message  string
}

// Error implements the error interface.
func (e *PropertyError) Error() string {
	return fmt.Sprintf("property %s violated: %s", e.Property, e.Message)
}

// CheckProperties evaluates the named properties on q under policy and
// opts. Unknown names are reported as errors.
func CheckProperties(q *querymodel.Query, policy selector.Policy, opts hint.Options, names []string) []error {
	var errs []error
	for _, name := range names {
		var err error
		switch name {
		case PropIdempotent:
			err = checkIdempotent(q, policy, opts)
		case PropScopeMonotonic:
			err = checkScopeMonotonic(q, policy)
		case PropRoleExclusive:
			err = checkRoleExclusive(q, policy)
		case PropEmptySafe:
			err = checkEmptySafe(q, opts)
		default:
			err = fmt.Errorf("unknown property %q", name)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func checkIdempotent(q *querymodel.Query, policy selector.Policy, opts hint.Options) error {
	first, err := selector.Select(q, policy)
	if err != nil {
		return &PropertyError{Property: PropIdempotent, Message: err.Error()}
	}
	second, err := selector.Select(q, policy)
	if err != nil {
		return &PropertyError{Property: PropIdempotent, Message: err.Error()}
	}

	fp1, err := canonical.Fingerprint(first.Directives)
	if err != nil {
		return err
	}
	fp2, err := canonical.Fingerprint(second.Directives)
	if err != nil {
		return err
	}
	if fp1 != fp2 {
		return &PropertyError{Property: PropIdempotent, Message: fmt.Sprintf("directive fingerprints differ: %s vs %s", fp1, fp2)}
	}

	h1 := hint.Serialize(hint.Annotate(q, first.Directives), opts)
	h2 := hint.Serialize(hint.Annotate(q, second.Directives), opts)
	if h1 != h2 {
		return &PropertyError{Property: PropIdempotent, Message: fmt.Sprintf("serialized hints differ: %q vs %q", h1, h2)}
	}
	return nil
}

func checkScopeMonotonic(q *querymodel.Query, policy selector.Policy) error {
	first, err := selector.Select(q, selector.Policy{IdxTarget: policy.IdxTarget, NLJScope: selector.ScopeFirst})
	if err != nil {
		return &PropertyError{Property: PropScopeMonotonic, Message: err.Error()}
	}
	all, err := selector.Select(q, selector.Policy{IdxTarget: policy.IdxTarget, NLJScope: selector.ScopeAll})
	if err != nil {
		return &PropertyError{Property: PropScopeMonotonic, Message: err.Error()}
	}

	chosen := make(map[string]string, len(all.Directives))
	for _, d := range all.Directives {
		chosen[d.Edge.Key()] = d.IndexScan.Identity()
	}
	for _, d := range first.Directives {
		side, ok := chosen[d.Edge.Key()]
		if !ok {
			return &PropertyError{Property: PropScopeMonotonic, Message: fmt.Sprintf("edge %s hinted under first but not under all", d.Edge)}
		}
		if side != d.IndexScan.Identity() {
			return &PropertyError{Property: PropScopeMonotonic, Message: fmt.Sprintf("edge %s index-scans %s under first but %s under all", d.Edge, d.IndexScan.Identity(), side)}
		}
	}
	return nil
}

func checkRoleExclusive(q *querymodel.Query, policy selector.Policy) error {
	sel, err := selector.Select(q, policy)
	if err != nil {
		return &PropertyError{Property: PropRoleExclusive, Message: err.Error()}
	}

	seen := make(map[string]bool, len(sel.Directives))
	for _, d := range sel.Directives {
		if d.Depth < 1 {
			return &PropertyError{Property: PropRoleExclusive, Message: fmt.Sprintf("directive on %s outside a subquery", d.Edge)}
		}
		if !d.Edge.Has(d.IndexScan) || !d.Edge.Has(d.Probe) {
			return &PropertyError{Property: PropRoleExclusive, Message: fmt.Sprintf("directive sides %s/%s are not endpoints of %s", d.IndexScan.Identity(), d.Probe.Identity(), d.Edge)}
		}
		key := d.Edge.Key()
		if seen[key] {
			return &PropertyError{Property: PropRoleExclusive, Message: fmt.Sprintf("edge %s hinted twice", d.Edge)}
		}
		seen[key] = true

		idxRole, err := q.KeyRole(d.Edge, d.IndexScan)
		if err != nil {
			return &PropertyError{Property: PropRoleExclusive, Message: err.Error()}
		}
		probeRole, err := q.KeyRole(d.Edge, d.Probe)
		if err != nil {
			return &PropertyError{Property: PropRoleExclusive, Message: err.Error()}
		}
		if idxRole != policy.IdxTarget || probeRole == policy.IdxTarget {
			return &PropertyError{Property: PropRoleExclusive, Message: fmt.Sprintf("edge %s: index side is %s, probe side is %s, target %s", d.Edge, idxRole, probeRole, policy.IdxTarget)}
		}
	}
	return nil
}

func checkEmptySafe(q *querymodel.Query, opts hint.Options) error {
	empty := hint.Annotate(q, nil)

	stripped := opts
	stripped.StripEmpty = true
	if got := hint.Serialize(empty, stripped); got != "" {
		return &PropertyError{Property: PropEmptySafe, Message: fmt.Sprintf("stripped empty hint is %q", got)}
	}

	kept := opts
	kept.StripEmpty = false
	want := hint.CommentOpen + "\n" + hint.CommentClose
	if got := hint.Serialize(empty, kept); got != want {
		return &PropertyError{Property: PropEmptySafe, Message: fmt.Sprintf("empty marker is %q, want %q", got, want)}
	}

	if got := empty.Apply(stripped); got != q.Text() {
		return &PropertyError{Property: PropEmptySafe, Message: "applying an empty hint changed the query text"}
	}
	return nil
}
