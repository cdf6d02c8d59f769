// Package engine evaluates the maintenance admission policy with OPA Rego.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"
)

const gateQuery = "data.libmanage.gate.allow"

// DefaultGatePolicy admits everything while maintenance is off and only admins while it is on.
const DefaultGatePolicy = `package libmanage.gate

default allow := false

allow if {
	not input.maintenance
}

allow if {
	input.authenticated
	some role in input.roles
	role == "ADMIN"
}
`

// ErrNoResult is returned when the policy does not define allow as a boolean.
var ErrNoResult = errors.New("policy: query returned no boolean result")

// OPAEvaluator runs a gate policy prepared once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy. An empty policy selects DefaultGatePolicy.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if strings.TrimSpace(policy) == "" {
		policy = DefaultGatePolicy
	}
	pq, err := rego.New(
		rego.Query(gateQuery),
		rego.Module("gate.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile gate policy: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// LoadPolicyFile reads a rego module from path. An empty path returns the default policy.
func LoadPolicyFile(path string) (string, error) {
	if path == "" {
		return DefaultGatePolicy, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read gate policy: %w", err)
	}
	return string(b), nil
}

// Allow evaluates the policy for in.
func (e *OPAEvaluator) Allow(ctx context.Context, in GateInput) (bool, error) {
	roles := in.Roles
	if roles == nil {
		roles = []string{}
	}
	input := map[string]interface{}{
		"method":        in.Method,
		"path":          in.Path,
		"maintenance":   in.Maintenance,
		"authenticated": in.Authenticated,
		"roles":         roles,
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval gate policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, ErrNoResult
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, ErrNoResult
	}
	return v, nil
}

// HealthCheck evaluates the prepared policy against a fixed input.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.Allow(ctx, GateInput{Path: "/healthz", Method: "GET"})
	return err
}
