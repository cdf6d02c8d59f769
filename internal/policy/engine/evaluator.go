package engine

import "context"

// GateInput is what the admission policy sees for one request.
type GateInput struct {
	Method        string   `json:"method"`
	Path          string   `json:"path"`
	Maintenance   bool     `json:"maintenance"`
	Authenticated bool     `json:"authenticated"`
	Roles         []string `json:"roles"`
}

// Evaluator decides whether a request is admitted.
type Evaluator interface {
	Allow(ctx context.Context, in GateInput) (bool, error)
}
