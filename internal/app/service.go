package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"
)

// WorkflowService orchestrates status transitions across the four
// agency domains: validate, persist, run side effects, record the
// audit entry, publish the event.
type WorkflowService struct {
	registry  *domain.Registry
	records   domain.RecordRepository
	log       domain.TransitionLog
	publisher domain.EventPublisher
	validator domain.TransitionValidator
	effects   *EffectRunner
	logger    *slog.Logger
}

// NewWorkflowService creates a service with the given adapters.
func NewWorkflowService(
	registry *domain.Registry,
	records domain.RecordRepository,
	log domain.TransitionLog,
	publisher domain.EventPublisher,
	validator domain.TransitionValidator,
	effects *EffectRunner,
	logger *slog.Logger,
) *WorkflowService {
	return &WorkflowService{
		registry:  registry,
		records:   records,
		log:       log,
		publisher: publisher,
		validator: validator,
		effects:   effects,
		logger:    logger,
	}
}

// CreateRecord persists a new record in its domain's initial status.
func (s *WorkflowService) CreateRecord(ctx context.Context, d domain.Domain, reference, propertyID string) (domain.Record, error) {
	if !s.registry.IsRegistered(d) {
		return domain.Record{}, &domain.UnknownDomainError{Domain: d, Valid: s.registry.Domains()}
	}

	id, err := generateID()
	if err != nil {
		return domain.Record{}, fmt.Errorf("generating record id: %w", err)
	}

	record := domain.NewRecord(s.registry, d, id, reference, propertyID)

	if err := s.records.Create(ctx, record); err != nil {
		return domain.Record{}, fmt.Errorf("creating record: %w", err)
	}

	return record, nil
}

// GetRecord returns a record by domain and id.
func (s *WorkflowService) GetRecord(ctx context.Context, d domain.Domain, id string) (domain.Record, error) {
	if !s.registry.IsRegistered(d) {
		return domain.Record{}, &domain.UnknownDomainError{Domain: d, Valid: s.registry.Domains()}
	}
	return s.records.GetByID(ctx, d, id)
}

// ListRecords returns records matching the given filter.
func (s *WorkflowService) ListRecords(ctx context.Context, filter domain.ListFilter) ([]domain.Record, error) {
	if !s.registry.IsRegistered(filter.Domain) {
		return nil, &domain.UnknownDomainError{Domain: filter.Domain, Valid: s.registry.Domains()}
	}
	return s.records.List(ctx, filter)
}

// ChangeStatus applies a requested status change to a record. Only an
// unknown domain, a missing record, an illegal transition, or a lost
// update race fail the operation; side-effect and audit failures are
// logged and absorbed, because the persisted status is the source of
// truth once written.
func (s *WorkflowService) ChangeStatus(ctx context.Context, d domain.Domain, id string, next domain.Status, userID, notes string, metadata map[string]any) (domain.TransitionResult, error) {
	if !s.registry.IsRegistered(d) {
		return domain.TransitionResult{}, &domain.UnknownDomainError{Domain: d, Valid: s.registry.Domains()}
	}

	record, err := s.records.GetByID(ctx, d, id)
	if err != nil {
		return domain.TransitionResult{}, err
	}

	previous := record.Status
	if err := s.validator.Validate(ctx, d, previous, next); err != nil {
		return domain.TransitionResult{}, err
	}

	record.Status = next
	if err := s.records.Update(ctx, record); err != nil {
		return domain.TransitionResult{}, fmt.Errorf("updating record status: %w", err)
	}

	executed := s.effects.Run(ctx, record, previous, next)

	entry := domain.TransitionRecord{
		Domain:      d,
		EntityID:    id,
		FromStatus:  previous,
		ToStatus:    next,
		UserID:      userID,
		Notes:       notes,
		Metadata:    metadata,
		SideEffects: executed,
		CreatedAt:   time.Now().UTC(),
	}
	if entry.UserID == "" {
		entry.UserID = domain.DefaultUserID
	}

	if err := s.log.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "recording transition failed",
			"domain", d, "entity_id", id, "from", previous, "to", next, "error", err)
	}

	if err := s.publisher.Publish(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "publishing transition event failed",
			"domain", d, "entity_id", id, "from", previous, "to", next, "error", err)
	}

	return domain.TransitionResult{
		Success:              true,
		Message:              fmt.Sprintf("%s moved from %q to %q", d, previous, next),
		PreviousStatus:       previous,
		NewStatus:            next,
		Domain:               d,
		EntityID:             id,
		SideEffectsExecuted:  executed,
		TransitionsAvailable: s.registry.ValidTransitions(d, next),
	}, nil
}

// AvailableTransitions reports what a record can do next: the statuses
// reachable in one hop and the side effects each would trigger.
func (s *WorkflowService) AvailableTransitions(ctx context.Context, d domain.Domain, id string) (domain.TransitionOptions, error) {
	if !s.registry.IsRegistered(d) {
		return domain.TransitionOptions{}, &domain.UnknownDomainError{Domain: d, Valid: s.registry.Domains()}
	}

	record, err := s.records.GetByID(ctx, d, id)
	if err != nil {
		return domain.TransitionOptions{}, err
	}

	available := s.registry.ValidTransitions(d, record.Status)
	effects := make(map[string][]string)
	for _, next := range available {
		if bound := s.registry.SideEffects(d, record.Status, next); len(bound) > 0 {
			effects[string(next)] = bound
		}
	}

	return domain.TransitionOptions{
		Domain:        d,
		EntityID:      id,
		CurrentStatus: record.Status,
		Available:     available,
		SideEffects:   effects,
	}, nil
}

// History returns a record's full transition history, oldest first.
func (s *WorkflowService) History(ctx context.Context, d domain.Domain, id string) ([]domain.TransitionRecord, error) {
	if !s.registry.IsRegistered(d) {
		return nil, &domain.UnknownDomainError{Domain: d, Valid: s.registry.Domains()}
	}
	return s.log.History(ctx, domain.HistoryFilter{Domain: &d, EntityID: id})
}
