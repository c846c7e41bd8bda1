package selector

import (
	"fmt"
	"strings"

	"github.com/rbergm/diploma-thesis/internal/querymodel"
)

// NLJScope controls how many join edges per subquery receive a directive.
type NLJScope string

const (
	// ScopeFirst hints only the innermost join edge of each subquery.
	ScopeFirst NLJScope = "first"
	// ScopeAll hints every join edge of each subquery.
	ScopeAll NLJScope = "all"
)

// Default policy values.
const (
	DefaultIdxTarget = querymodel.RoleFK
	DefaultNLJScope  = ScopeFirst
)

// ValidIdxTargets and ValidNLJScopes list the accepted flag values.
var (
	ValidIdxTargets = []string{"pk", "fk"}
	ValidNLJScopes  = []string{string(ScopeFirst), string(ScopeAll)}
)

// Policy configures a selection pass.
type Policy struct {
	// IdxTarget is the key role that becomes the index-scanned side.
	IdxTarget querymodel.KeyRole

	// NLJScope selects how many edges per subquery are hinted.
	NLJScope NLJScope
}

// DefaultPolicy returns idx_target=fk, nlj_scope=first.
func DefaultPolicy() Policy {
	return Policy{IdxTarget: DefaultIdxTarget, NLJScope: DefaultNLJScope}
}

// NewPolicy validates and combines the textual flag values.
func NewPolicy(idxTarget, nljScope string) (Policy, error) {
	target, err := ParseIdxTarget(idxTarget)
	if err != nil {
		return Policy{}, err
	}
	scope, err := ParseNLJScope(nljScope)
	if err != nil {
		return Policy{}, err
	}
	return Policy{IdxTarget: target, NLJScope: scope}, nil
}

// ParseIdxTarget parses "pk" or "fk". Empty selects the default.
func ParseIdxTarget(s string) (querymodel.KeyRole, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultIdxTarget, nil
	}
	role, err := querymodel.ParseKeyRole(s)
	if err != nil {
		return querymodel.RoleNone, fmt.Errorf("invalid idx-target %q: must be one of %v", s, ValidIdxTargets)
	}
	return role, nil
}

// ParseNLJScope parses "first" or "all". Empty selects the default.
func ParseNLJScope(s string) (NLJScope, error) {
	switch NLJScope(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultNLJScope, nil
	case ScopeFirst:
		return ScopeFirst, nil
	case ScopeAll:
		return ScopeAll, nil
	default:
		return "", fmt.Errorf("invalid nlj-scope %q: must be one of %v", s, ValidNLJScopes)
	}
}

// Validate checks that the policy fields hold supported values.
func (p Policy) Validate() error {
	if p.IdxTarget != querymodel.RolePK && p.IdxTarget != querymodel.RoleFK {
		return fmt.Errorf("invalid idx-target %s: must be one of %v", p.IdxTarget, ValidIdxTargets)
	}
	if p.NLJScope != ScopeFirst && p.NLJScope != ScopeAll {
		return fmt.Errorf("invalid nlj-scope %q: must be one of %v", p.NLJScope, ValidNLJScopes)
	}
	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("idx_target=%s nlj_scope=%s", p.IdxTarget, p.NLJScope)
}
