package extract

import (
	"context"
	"strings"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

// Extractor defines the interface for pulling structured fields out of a
// document image. Implementations can be swapped in without changing the
// resolver or service layer.
type Extractor interface {
	// CanExtract returns true if this extractor handles the given document slot
	CanExtract(slot string) bool

	// Extract produces fields from raw document bytes.
	// The byte slice must not be retained after the call returns.
	Extract(ctx context.Context, data []byte, slot string) (*domain.ExtractionResult, error)

	// Name returns the extractor name for logging/audit
	Name() string
}

// Registry holds all registered extractors and dispatches to the right one
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates a new extractor registry
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// FindExtractors returns all extractors that can handle the given slot,
// in registration order. This supports fallback: if the primary extractor
// fails (e.g. the vision service is down), the next one can try.
func (r *Registry) FindExtractors(slot string) []Extractor {
	var result []Extractor
	for _, e := range r.extractors {
		if e.CanExtract(slot) {
			result = append(result, e)
		}
	}
	return result
}

// isPhotoSlot reports whether a document slot holds a plain photographic
// artifact (a face photo or signature) rather than a text document.
func isPhotoSlot(slot string) bool {
	s := strings.ToLower(slot)
	return strings.Contains(s, "photo") || strings.Contains(s, "signature")
}
