package agent

import "context"

// Reviewer decides whether a proposed operation invocation may proceed.
// A denial is not an error: the assistant reports the denial back to the
// model and continues.
type Reviewer interface {
	Review(ctx context.Context, operation, arguments string) (Decision, error)
}

// Decision is a reviewer's verdict on one invocation.
type Decision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// AutoApprove approves every invocation. Used when no human gate is
// configured.
type AutoApprove struct{}

func (AutoApprove) Review(context.Context, string, string) (Decision, error) {
	return Decision{Approved: true}, nil
}

// ReviewerFunc adapts a function to the Reviewer interface.
type ReviewerFunc func(ctx context.Context, operation, arguments string) (Decision, error)

func (f ReviewerFunc) Review(ctx context.Context, operation, arguments string) (Decision, error) {
	return f(ctx, operation, arguments)
}

// ReadOnlyReviewer approves safe methods and denies everything else.
// Catalog operation methods are embedded in the tool description, so the
// reviewer receives the operation name and resolves the method itself.
type ReadOnlyReviewer struct {
	IsWrite func(operation string) bool
}

func (r ReadOnlyReviewer) Review(_ context.Context, operation, _ string) (Decision, error) {
	if r.IsWrite != nil && r.IsWrite(operation) {
		return Decision{Approved: false, Reason: "write operations require approval"}, nil
	}
	return Decision{Approved: true}, nil
}
