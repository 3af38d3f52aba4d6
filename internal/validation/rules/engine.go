package rules

import (
	"fmt"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/pkg/logger"
)

// State is the engine lifecycle phase. Transitions only move forward:
// Idle -> RulesLoaded -> Evaluating -> Done.
type State int

const (
	StateIdle State = iota
	StateRulesLoaded
	StateEvaluating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRulesLoaded:
		return "rules_loaded"
	case StateEvaluating:
		return "evaluating"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Engine dispatches an active rule set against an evaluation context.
// One engine serves one validation run.
type Engine struct {
	registry *Registry
	log      *logger.Logger
	state    State
	ruleSet  *domain.RuleSet
}

// NewEngine creates an idle engine over the given strategy registry.
func NewEngine(registry *Registry, log *logger.Logger) *Engine {
	return &Engine{
		registry: registry,
		log:      log.WithComponent("rules"),
		state:    StateIdle,
	}
}

// State returns the current lifecycle phase.
func (e *Engine) State() State { return e.state }

// LoadRules accepts the rule set for this run. Valid only while idle.
func (e *Engine) LoadRules(rs *domain.RuleSet) error {
	if e.state != StateIdle {
		return fmt.Errorf("rules: cannot load rules in state %s", e.state)
	}
	if rs == nil || len(rs.Rules) == 0 {
		return fmt.Errorf("rules: empty rule set")
	}
	e.ruleSet = rs
	e.state = StateRulesLoaded
	return nil
}

// Evaluate runs every active rule against the context, in rule-set order.
// Inactive rules are skipped. A rule ID with no registered strategy is a
// logged no-op. A panic inside one strategy becomes a failed outcome for
// that rule and evaluation continues.
func (e *Engine) Evaluate(ec *EvalContext) ([]domain.RuleOutcome, error) {
	if e.state != StateRulesLoaded {
		return nil, fmt.Errorf("rules: cannot evaluate in state %s", e.state)
	}
	e.state = StateEvaluating

	var outcomes []domain.RuleOutcome
	for i := range e.ruleSet.Rules {
		rule := &e.ruleSet.Rules[i]
		if !rule.IsActive {
			continue
		}

		strategy := e.registry.Find(rule.RuleID)
		if strategy == nil {
			e.log.Warn().Str("rule_id", rule.RuleID).Msg("no strategy registered for rule, skipping")
			continue
		}

		outcomes = append(outcomes, e.dispatch(strategy, ec, rule)...)
	}

	e.state = StateDone
	return outcomes, nil
}

func (e *Engine) dispatch(strategy Strategy, ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	switch s := strategy.(type) {
	case EntityStrategy:
		var out []domain.RuleOutcome
		for i := range ec.Entities {
			entity := &ec.Entities[i]
			if !s.AppliesTo(entity) {
				continue
			}
			out = append(out, e.safeEvaluate(rule, entity.Key, func() []domain.RuleOutcome {
				return s.EvaluateEntity(ec, rule, entity)
			})...)
		}
		return out
	case GroupStrategy:
		return e.safeEvaluate(rule, domain.SubjectAll, func() []domain.RuleOutcome {
			return s.EvaluateGroup(ec, rule)
		})
	default:
		e.log.Warn().Str("rule_id", rule.RuleID).Msg("strategy implements no evaluation interface")
		return nil
	}
}

// safeEvaluate converts a panicking strategy into a failed outcome so a
// single bad rule cannot abort the run.
func (e *Engine) safeEvaluate(rule *domain.RuleDefinition, subject string, fn func() []domain.RuleOutcome) (out []domain.RuleOutcome) {
	defer func() {
		if p := recover(); p != nil {
			e.log.Error().
				Str("rule_id", rule.RuleID).
				Str("subject", subject).
				Interface("panic", p).
				Msg("rule evaluation panicked")
			out = []domain.RuleOutcome{{
				RuleID:  rule.RuleID,
				Subject: subject,
				Status:  domain.OutcomeFailed,
				Message: fmt.Sprintf("rule evaluation error: %v", p),
			}}
		}
	}()
	return fn()
}
