// Package resolver turns the documents supplied for each entity into
// extraction results. Documents within one entity resolve concurrently;
// a global semaphore caps extraction pressure across concurrent
// validation runs. A failure on one document never aborts the others.
package resolver

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/internal/validation/extract"
	"github.com/complyflow/complyflow-backend/pkg/logger"
)

// maxWorkersPerEntity bounds the per-entity worker pool: min(#docs, 10).
const maxWorkersPerEntity = 10

// Fetcher resolves a document reference to raw bytes.
type Fetcher interface {
	Fetch(ctx context.Context, in domain.DocumentInput) ([]byte, error)
}

// Resolver coordinates fetching and extraction for entity documents.
type Resolver struct {
	fetcher     Fetcher
	registry    *extract.Registry
	global      *semaphore.Weighted
	taskTimeout time.Duration
	log         *logger.Logger
}

// New creates a resolver. globalConcurrency caps in-flight extraction
// tasks across all requests; taskTimeout bounds each document task.
func New(fetcher Fetcher, registry *extract.Registry, globalConcurrency int64, taskTimeout time.Duration, log *logger.Logger) *Resolver {
	if globalConcurrency <= 0 {
		globalConcurrency = 32
	}
	if taskTimeout <= 0 {
		taskTimeout = 45 * time.Second
	}
	return &Resolver{
		fetcher:     fetcher,
		registry:    registry,
		global:      semaphore.NewWeighted(globalConcurrency),
		taskTimeout: taskTimeout,
		log:         log.WithComponent("resolver"),
	}
}

type task struct {
	slot  string
	input domain.DocumentInput
}

// ResolveEntity resolves every document slot of one entity concurrently
// and returns the entity with all slots mapped to terminal results.
func (r *Resolver) ResolveEntity(ctx context.Context, key, nationality string, docs map[string]domain.DocumentInput) domain.ResolvedEntity {
	entity := domain.ResolvedEntity{
		Key:         key,
		Nationality: nationality,
		Documents:   make(map[string]domain.ExtractionResult, len(docs)),
	}
	if len(docs) == 0 {
		return entity
	}

	workers := len(docs)
	if workers > maxWorkersPerEntity {
		workers = maxWorkersPerEntity
	}

	tasks := make(chan task)
	results := make(chan domain.ExtractionResult)

	for i := 0; i < workers; i++ {
		go func() {
			for t := range tasks {
				results <- r.resolveOne(ctx, key, t)
			}
		}()
	}

	go func() {
		for slot, input := range docs {
			tasks <- task{slot: slot, input: input}
		}
		close(tasks)
	}()

	for i := 0; i < len(docs); i++ {
		res := <-results
		entity.Documents[res.Slot] = res
	}

	return entity
}

// resolveOne runs a single document task end to end. Panics inside fetch
// or extraction are converted into a failed result so one bad document
// cannot take down the batch.
func (r *Resolver) resolveOne(ctx context.Context, entityKey string, t task) (res domain.ExtractionResult) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().
				Str("entity", entityKey).
				Str("slot", t.slot).
				Interface("panic", p).
				Msg("document task panicked")
			res = domain.ExtractionResult{
				Slot:   t.slot,
				Status: domain.ExtractionFailed,
				Error:  fmt.Sprintf("internal error: %v", p),
			}
		}
	}()

	if t.input.IsZero() {
		return domain.ExtractionResult{
			Slot:   t.slot,
			Status: domain.ExtractionMissing,
			Error:  "not uploaded",
		}
	}

	if err := r.global.Acquire(ctx, 1); err != nil {
		return domain.ExtractionResult{
			Slot:   t.slot,
			Status: domain.ExtractionFailed,
			Error:  fmt.Sprintf("resolution cancelled: %v", err),
		}
	}
	defer r.global.Release(1)

	taskCtx, cancel := context.WithTimeout(ctx, r.taskTimeout)
	defer cancel()

	data, err := r.fetcher.Fetch(taskCtx, t.input)
	if err != nil {
		return domain.ExtractionResult{
			Slot:   t.slot,
			Status: domain.ExtractionFailed,
			Error:  err.Error(),
		}
	}
	hash := extract.ContentHash(data)

	chain := r.registry.FindExtractors(t.slot)
	if len(chain) == 0 {
		return domain.ExtractionResult{
			Slot:        t.slot,
			Status:      domain.ExtractionFailed,
			ContentHash: hash,
			Error:       "no extractor registered for document",
		}
	}

	var lastErr error
	for i, e := range chain {
		result, err := e.Extract(taskCtx, data, t.slot)
		if err != nil {
			r.log.Warn().
				Str("entity", entityKey).
				Str("slot", t.slot).
				Str("extractor", e.Name()).
				Err(err).
				Msg("extractor failed, trying next")
			lastErr = err
			continue
		}
		// A success without any extracted fields is as unusable as an
		// error; hand the document to the next extractor when one remains.
		if result.Status == domain.ExtractionOK && len(result.Fields) == 0 && i < len(chain)-1 {
			r.log.Warn().
				Str("entity", entityKey).
				Str("slot", t.slot).
				Str("extractor", e.Name()).
				Msg("extractor returned no fields, trying next")
			lastErr = fmt.Errorf("extractor %s returned no fields", e.Name())
			continue
		}
		result.Slot = t.slot
		result.ContentHash = hash
		return *result
	}

	return domain.ExtractionResult{
		Slot:        t.slot,
		Status:      domain.ExtractionFailed,
		ContentHash: hash,
		Error:       lastErr.Error(),
	}
}
