// Package policy answers "may this session perform this action on this
// resource". Predicates are pure functions of the session snapshot and the
// resource; they gate which controls the display layer offers and which
// calls the CLI issues, but the remote authority always has the final word.
package policy

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/cedar-policy/cedar-go"

	"github.com/Kacegz/teactl/pkg/catalog"
	"github.com/Kacegz/teactl/pkg/session"
)

//go:embed policies.cedar
var policiesContent []byte

// Actions evaluated by the policy set.
const (
	actionMutate = "mutate"
	actionCreate = "create"
	actionRate   = "rate"
)

// anonymousPrincipal stands in for an unauthenticated session; policies
// only consult the context record, never the principal identity itself.
const anonymousPrincipal = "anonymous"

// Evaluator wraps the Cedar policy engine. All gating decisions in the
// client flow through this single component.
type Evaluator struct {
	policies *cedar.PolicySet
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator with the embedded policies.
func NewEvaluator(logger *slog.Logger) (*Evaluator, error) {
	return NewEvaluatorFromBytes(policiesContent, logger)
}

// NewEvaluatorFromBytes creates an evaluator from policy bytes (for testing).
func NewEvaluatorFromBytes(policyContent []byte, logger *slog.Logger) (*Evaluator, error) {
	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", policyContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policies: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Evaluator{
		policies: ps,
		logger:   logger,
	}, nil
}

// CanMutate reports whether the session may edit or delete the tea.
// Elevation always overrides ownership.
func (e *Evaluator) CanMutate(s session.Snapshot, tea catalog.Tea) bool {
	owner := s.Authenticated && s.Claims != nil && s.Claims.Subject == tea.CreatedBy
	return e.authorize(s, actionMutate, tea.ID, cedar.RecordMap{
		"authenticated": cedar.Boolean(s.Authenticated),
		"elevated":      cedar.Boolean(s.Elevated),
		"owner":         cedar.Boolean(owner),
	})
}

// CanCreate reports whether the session may create teas.
func (e *Evaluator) CanCreate(s session.Snapshot) bool {
	return e.authorize(s, actionCreate, "new", cedar.RecordMap{
		"authenticated": cedar.Boolean(s.Authenticated),
		"elevated":      cedar.Boolean(s.Elevated),
	})
}

// CanRate reports whether the session may submit a rating for the tea
// given its prior-rating status.
func (e *Evaluator) CanRate(s session.Snapshot, tea catalog.Tea, prior catalog.RatingStatus) bool {
	return e.authorize(s, actionRate, tea.ID, cedar.RecordMap{
		"authenticated": cedar.Boolean(s.Authenticated),
		"has_rated":     cedar.Boolean(prior.HasRated()),
	})
}

// authorize evaluates one request against the policy set. Evaluation has no
// side effects beyond a debug log of the decision.
func (e *Evaluator) authorize(s session.Snapshot, action, resourceID string, ctx cedar.RecordMap) bool {
	subject := anonymousPrincipal
	if s.Claims != nil {
		subject = s.Claims.Subject
	}

	req := cedar.Request{
		Principal: cedar.NewEntityUID("User", cedar.String(subject)),
		Action:    cedar.NewEntityUID("Action", cedar.String(action)),
		Resource:  cedar.NewEntityUID("Tea", cedar.String(resourceID)),
		Context:   cedar.NewRecord(ctx),
	}

	decision, diagnostic := cedar.Authorize(e.policies, cedar.EntityMap{}, req)

	for _, evalErr := range diagnostic.Errors {
		e.logger.Error("policy evaluation error",
			"policy", evalErr.PolicyID,
			"error", evalErr.Message,
		)
	}

	allowed := decision == cedar.Allow
	e.logger.Debug("gating decision",
		"principal", subject,
		"action", action,
		"resource", resourceID,
		"decision", allowed,
	)
	return allowed
}
