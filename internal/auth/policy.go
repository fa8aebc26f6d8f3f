package auth

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"nextstop/internal/session"
)

//go:embed policy.rego
var policyModule string

// Scope names the part of the API a request wants.
type Scope string

const (
	ScopeUser  Scope = "user"
	ScopeAdmin Scope = "admin"
)

type Input struct {
	Authenticated bool     `json:"authenticated"`
	Scope         Scope    `json:"scope"`
	UserID        int64    `json:"userId"`
	Roles         []string `json:"roles"`
	Method        string   `json:"method"`
	Path          string   `json:"path"`
}

// Policy evaluates the embedded access policy.
type Policy struct {
	query rego.PreparedEvalQuery
}

func NewPolicy(ctx context.Context) (*Policy, error) {
	q, err := rego.New(
		rego.Query("data.nextstop.authz.allow"),
		rego.Module("policy.rego", policyModule),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: preparing policy: %w", err)
	}
	return &Policy{query: q}, nil
}

func InputFor(sess session.Session, scope Scope, method, path string) Input {
	roles := sess.User.Roles
	if roles == nil {
		roles = []string{}
	}
	return Input{
		Authenticated: sess.IsAuthenticated(),
		Scope:         scope,
		UserID:        sess.User.ID,
		Roles:         roles,
		Method:        method,
		Path:          path,
	}
}

func (p *Policy) Allow(ctx context.Context, in Input) (bool, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return false, fmt.Errorf("auth: evaluating policy: %w", err)
	}
	return rs.Allowed(), nil
}
