package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"
)

// effectTimeout bounds a single handler so a hung side effect cannot
// block the transition that already committed.
const effectTimeout = 5 * time.Second

// EffectFunc is one side-effect implementation. It receives the record
// that transitioned, after its new status was persisted.
type EffectFunc func(ctx context.Context, record domain.Record) error

// EffectRunner performs the automated consequences of a transition.
// Handlers run in registry order, each inside its own isolation
// boundary: a failing or panicking handler is logged and skipped, and
// never aborts the primary state change or the handlers after it.
type EffectRunner struct {
	registry *domain.Registry
	records  domain.RecordRepository
	logger   *slog.Logger
	handlers map[string]EffectFunc
}

// NewEffectRunner creates a runner with the built-in handlers registered.
func NewEffectRunner(registry *domain.Registry, records domain.RecordRepository, logger *slog.Logger) *EffectRunner {
	r := &EffectRunner{
		registry: registry,
		records:  records,
		logger:   logger,
		handlers: make(map[string]EffectFunc),
	}

	r.Register(domain.EffectCascadePropertyAvailable, r.cascadePropertyAvailable)
	r.Register(domain.EffectClearPropertyLetDate, r.clearPropertyLetDate)
	r.Register(domain.EffectMarkPropertyTenanted, r.markPropertyStatus(domain.PropertyTenanted))
	r.Register(domain.EffectSetPropertyLetDate, r.setPropertyLetDate)
	r.Register(domain.EffectMarkPropertySSTC, r.markPropertyStatus(domain.PropertySSTC))
	r.Register(domain.EffectMarkPropertyCompleted, r.markPropertyStatus(domain.PropertyCompleted))

	return r
}

// Register binds a handler name to an implementation. Names not bound
// by any registry transition are harmless; bindings without a handler
// are logged and skipped at execution time.
func (r *EffectRunner) Register(name string, fn EffectFunc) {
	r.handlers[name] = fn
}

// Run executes the side effects bound to (record.Domain, from, to) and
// returns the names of those that actually succeeded, in execution
// order. It never returns an error: side effects are best-effort once
// the status write has committed.
func (r *EffectRunner) Run(ctx context.Context, record domain.Record, from, to domain.Status) []string {
	names := r.registry.SideEffects(record.Domain, from, to)
	executed := make([]string, 0, len(names))

	for _, name := range names {
		fn, ok := r.handlers[name]
		if !ok {
			r.logger.WarnContext(ctx, "no handler registered for side effect",
				"effect", name,
				"domain", record.Domain,
				"entity_id", record.ID,
			)
			continue
		}

		if err := r.runOne(ctx, fn, record); err != nil {
			r.logger.ErrorContext(ctx, "side effect failed",
				"effect", name,
				"domain", record.Domain,
				"entity_id", record.ID,
				"from", from,
				"to", to,
				"error", err,
			)
			continue
		}

		executed = append(executed, name)
	}

	return executed
}

// runOne invokes a single handler inside its isolation boundary,
// converting panics to errors and bounding execution time.
func (r *EffectRunner) runOne(ctx context.Context, fn EffectFunc, record domain.Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panicked: %v", p)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, effectTimeout)
	defer cancel()

	return fn(ctx, record)
}

// linkedProperty loads the property a record points at.
func (r *EffectRunner) linkedProperty(ctx context.Context, record domain.Record) (domain.Record, error) {
	if record.PropertyID == "" {
		return domain.Record{}, errors.New("record has no linked property")
	}
	property, err := r.records.GetByID(ctx, domain.DomainProperty, record.PropertyID)
	if err != nil {
		return domain.Record{}, fmt.Errorf("loading linked property %q: %w", record.PropertyID, err)
	}
	return property, nil
}

// cascadePropertyAvailable returns the linked property to the market
// when its tenancy ends.
func (r *EffectRunner) cascadePropertyAvailable(ctx context.Context, record domain.Record) error {
	property, err := r.linkedProperty(ctx, record)
	if err != nil {
		return err
	}
	property.Status = domain.PropertyAvailable
	return r.records.Update(ctx, property)
}

func (r *EffectRunner) clearPropertyLetDate(ctx context.Context, record domain.Record) error {
	property, err := r.linkedProperty(ctx, record)
	if err != nil {
		return err
	}
	property.LetDate = nil
	return r.records.Update(ctx, property)
}

func (r *EffectRunner) setPropertyLetDate(ctx context.Context, record domain.Record) error {
	property, err := r.linkedProperty(ctx, record)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	property.LetDate = &now
	return r.records.Update(ctx, property)
}

// markPropertyStatus builds a handler that writes the given status to
// the linked property. The write bypasses transition validation: a
// cascade reflects a fact already decided by the owning record.
func (r *EffectRunner) markPropertyStatus(status domain.Status) EffectFunc {
	return func(ctx context.Context, record domain.Record) error {
		property, err := r.linkedProperty(ctx, record)
		if err != nil {
			return err
		}
		property.Status = status
		return r.records.Update(ctx, property)
	}
}
