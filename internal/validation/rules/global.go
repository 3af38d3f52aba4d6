package rules

import (
	"fmt"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

// DirectorCount enforces the board size window. It runs once per
// evaluation, over the whole entity group.
type DirectorCount struct{}

func (DirectorCount) RuleID() string { return domain.RuleDirectorCount }

func (DirectorCount) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	min := rule.IntCondition("min_directors", 2)
	max := rule.IntCondition("max_directors", 5)
	count := len(ec.Entities)

	if count < min {
		return []domain.RuleOutcome{failed(rule.RuleID, domain.SubjectAll,
			fmt.Sprintf("Insufficient directors. Found %d, minimum required is %d.", count, min))}
	}
	if count > max {
		return []domain.RuleOutcome{failed(rule.RuleID, domain.SubjectAll,
			fmt.Sprintf("Too many directors. Found %d, maximum allowed is %d.", count, max))}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, domain.SubjectAll)}
}
