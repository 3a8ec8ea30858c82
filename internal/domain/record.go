package domain

import "time"

// DefaultUserID is the actor recorded on transitions until real auth
// context is wired in.
const DefaultUserID = "system"

// Record is a workflow record: the engine's view of one CRM entity
// (a property, tenancy, vendor instruction, or applicant).
type Record struct {
	ID        string
	Domain    Domain
	Reference string // human-readable agency reference, e.g. an address
	Status    Status
	// PropertyID links tenancies and vendor instructions to the
	// property they act on. Empty when no link exists.
	PropertyID string
	// LetDate is set on a property when its tenancy goes active and
	// cleared when the tenancy ends.
	LetDate   *time.Time
	Version   int64 // optimistic concurrency token, bumped on every update
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord creates a record in its domain's initial status.
func NewRecord(reg *Registry, d Domain, id, reference, propertyID string) Record {
	now := time.Now().UTC()
	return Record{
		ID:         id,
		Domain:     d,
		Reference:  reference,
		Status:     reg.InitialStatus(d),
		PropertyID: propertyID,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TransitionRecord is one immutable audit entry: a transition that was
// executed. Entries are append-only; no update or delete exists.
type TransitionRecord struct {
	Domain      Domain
	EntityID    string
	FromStatus  Status
	ToStatus    Status
	UserID      string
	Notes       string
	Metadata    map[string]any
	SideEffects []string // handler names that actually ran
	CreatedAt   time.Time
}

// TransitionResult is returned to callers of ChangeStatus for
// serialization into an HTTP response.
type TransitionResult struct {
	Success              bool
	Message              string
	PreviousStatus       Status
	NewStatus            Status
	Domain               Domain
	EntityID             string
	SideEffectsExecuted  []string
	TransitionsAvailable []Status // one hop from the new status
}

// TransitionOptions describes what a record can do next: its current
// status, the reachable statuses, and the side effects each candidate
// transition would trigger (keyed by destination status).
type TransitionOptions struct {
	Domain        Domain
	EntityID      string
	CurrentStatus Status
	Available     []Status
	SideEffects   map[string][]string
}
