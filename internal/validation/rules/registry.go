package rules

import (
	"strings"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

// Strategy is the marker interface for rule evaluators. Every strategy is
// also a GroupStrategy or an EntityStrategy; the engine type-switches to
// decide the fan-out.
type Strategy interface {
	RuleID() string
}

// GroupStrategy evaluates once over the whole evaluation context. Used
// by global and company-level rules.
type GroupStrategy interface {
	Strategy
	EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome
}

// EntityStrategy evaluates per entity, filtered by AppliesTo. Used by
// role-filtered and universal director rules.
type EntityStrategy interface {
	Strategy
	AppliesTo(e *domain.ResolvedEntity) bool
	EvaluateEntity(ec *EvalContext, rule *domain.RuleDefinition, e *domain.ResolvedEntity) []domain.RuleOutcome
}

// Registry maps rule IDs to their evaluation strategies.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy. Later registrations for the same rule ID win,
// which lets tests substitute strategies. Rule IDs are matched without
// regard to case.
func (r *Registry) Register(s Strategy) {
	r.strategies[strings.ToUpper(s.RuleID())] = s
}

// Find returns the strategy for a rule ID, or nil.
func (r *Registry) Find(ruleID string) Strategy {
	return r.strategies[strings.ToUpper(ruleID)]
}

// DefaultRegistry wires every built-in rule strategy.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Global
	r.Register(&DirectorCount{})

	// Universal director rules
	r.Register(&PassportPhoto{})
	r.Register(&Signature{})
	r.Register(&AddressProof{})

	// Nationality-filtered director rules
	r.Register(&IndianDirectorPAN{})
	r.Register(&IndianDirectorAadhaar{})
	r.Register(&AadhaarPANLinkage{})
	r.Register(&AadhaarPANNameMatch{})
	r.Register(&ForeignDirectorDocs{})

	// Company rules
	r.Register(&CompanyAddressProof{})
	r.Register(&NOCValidation{})
	r.Register(&NOCOwnerValidation{})
	r.Register(&NOCMultipleSignatures{})
	r.Register(&TenantEBNameMatch{})
	r.Register(&ConsentLetterValidation{})
	r.Register(&BoardResolutionValidation{})

	// Trademark rules
	r.Register(&TrademarkApplicantDocs{})
	r.Register(&TrademarkVerificationDocs{})

	return r
}
