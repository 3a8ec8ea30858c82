package domain

import "context"

// RecordRepository defines the persistence contract for workflow records.
type RecordRepository interface {
	Create(ctx context.Context, record Record) error
	GetByID(ctx context.Context, d Domain, id string) (Record, error)
	List(ctx context.Context, filter ListFilter) ([]Record, error)
	// Update persists the record, comparing-and-swapping on Version.
	// It returns ErrVersionConflict when the stored row has moved on.
	Update(ctx context.Context, record Record) error
}

// ListFilter holds optional criteria for listing records.
type ListFilter struct {
	Domain Domain
	Status *Status
	Limit  int
	Offset int
}

// TransitionLog defines the append-only audit trail contract.
// Entries are write-once; no update or delete operation exists.
type TransitionLog interface {
	Append(ctx context.Context, record TransitionRecord) error
	// History lists entries matching the filter, ordered by creation
	// time ascending so a record's full status chain can be replayed.
	History(ctx context.Context, filter HistoryFilter) ([]TransitionRecord, error)
}

// HistoryFilter holds optional criteria for listing transition records.
type HistoryFilter struct {
	Domain   *Domain
	EntityID string
	Limit    int
	Offset   int
}

// EventPublisher defines the contract for emitting transition events.
type EventPublisher interface {
	Publish(ctx context.Context, record TransitionRecord) error
}

// TransitionValidator is the single authority for whether a status
// change is allowed. It assumes the caller has already established a
// registered domain.
type TransitionValidator interface {
	// Validate returns an *IllegalTransitionError when (current → next)
	// is not in the domain's transition table.
	Validate(ctx context.Context, d Domain, current, next Status) error
}
