package rules

import (
	"sort"
	"time"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

// ResolvedTrademark is one trademark application after document resolution.
type ResolvedTrademark struct {
	BrandName string
	Documents map[string]domain.ExtractionResult
}

// EvalContext carries everything a rule may consult. It is assembled once
// per run, after document resolution and fact prefetching, and is never
// mutated during evaluation.
type EvalContext struct {
	ServiceID string
	Now       time.Time

	// Entities are the directors, ordered by key for deterministic output.
	Entities []domain.ResolvedEntity

	// Company holds the resolved company-level documents.
	Company domain.ResolvedEntity

	// Applicant and Trademarks are populated for trademark validations.
	Applicant  *domain.ResolvedEntity
	Trademarks []ResolvedTrademark

	// Preconditions are caller-supplied reference values (registered
	// company address, property owner name, ...). A name or address rule
	// whose precondition is absent does not run.
	Preconditions map[string]string

	// Linkage maps entity key to its pre-fetched Aadhaar-PAN linkage fact.
	Linkage map[string]domain.LinkageFact
}

// Precondition returns the named reference value and whether it was supplied.
func (ec *EvalContext) Precondition(key string) (string, bool) {
	v, ok := ec.Preconditions[key]
	return v, ok && v != ""
}

// SortEntities orders the entity slice by key. Evaluation and reporting
// both depend on this ordering being stable.
func SortEntities(entities []domain.ResolvedEntity) {
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Key < entities[j].Key
	})
}
