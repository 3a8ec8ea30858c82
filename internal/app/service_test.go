package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/app"
	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"
)

// --- Mocks ---

type mockLog struct {
	entries []domain.TransitionRecord
	fail    error
}

func (m *mockLog) Append(_ context.Context, rec domain.TransitionRecord) error {
	if m.fail != nil {
		return m.fail
	}
	m.entries = append(m.entries, rec)
	return nil
}

func (m *mockLog) History(_ context.Context, filter domain.HistoryFilter) ([]domain.TransitionRecord, error) {
	var out []domain.TransitionRecord
	for _, rec := range m.entries {
		if filter.Domain != nil && rec.Domain != *filter.Domain {
			continue
		}
		if filter.EntityID != "" && rec.EntityID != filter.EntityID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type mockPublisher struct {
	published []domain.TransitionRecord
	fail      error
}

func (m *mockPublisher) Publish(_ context.Context, rec domain.TransitionRecord) error {
	if m.fail != nil {
		return m.fail
	}
	m.published = append(m.published, rec)
	return nil
}

// passValidator delegates straight to the registry tables.
type passValidator struct {
	registry *domain.Registry
}

func (v *passValidator) Validate(_ context.Context, d domain.Domain, current, next domain.Status) error {
	if v.registry.CanTransition(d, current, next) {
		return nil
	}
	return &domain.IllegalTransitionError{
		Domain: d, From: current, To: next,
		Allowed: v.registry.ValidTransitions(d, current),
	}
}

type serviceFixture struct {
	svc  *app.WorkflowService
	repo *mockRepo
	log  *mockLog
	pub  *mockPublisher
	sink *capturingHandler
}

func newServiceFixture() *serviceFixture {
	reg := domain.NewRegistry()
	repo := newMockRepo()
	log := &mockLog{}
	pub := &mockPublisher{}
	logger, sink := newCapturingLogger()

	effects := app.NewEffectRunner(reg, repo, logger)
	svc := app.NewWorkflowService(reg, repo, log, pub, &passValidator{registry: reg}, effects, logger)

	return &serviceFixture{svc: svc, repo: repo, log: log, pub: pub, sink: sink}
}

// --- Tests ---

func TestCreateRecord(t *testing.T) {
	f := newServiceFixture()

	record, err := f.svc.CreateRecord(context.Background(), domain.DomainApplicant, "J. Smith", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.Status != domain.ApplicantNew {
		t.Errorf("Status = %q, want %q", record.Status, domain.ApplicantNew)
	}
	if record.ID == "" {
		t.Error("ID should not be empty")
	}

	stored, err := f.repo.GetByID(context.Background(), domain.DomainApplicant, record.ID)
	if err != nil {
		t.Fatalf("record not found in repo: %v", err)
	}
	if stored.Reference != "J. Smith" {
		t.Errorf("stored Reference = %q, want %q", stored.Reference, "J. Smith")
	}
}

func TestCreateRecord_UnknownDomain(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.CreateRecord(context.Background(), "widget", "w-1", "")
	var domErr *domain.UnknownDomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("expected UnknownDomainError, got %v", err)
	}
	if domErr.Domain != "widget" {
		t.Errorf("Domain = %q, want %q", domErr.Domain, "widget")
	}
	if len(domErr.Valid) != 4 {
		t.Errorf("Valid = %v, want the four registered domains", domErr.Valid)
	}
}

func TestChangeStatus_LegalTransition(t *testing.T) {
	f := newServiceFixture()
	tenancy, _ := newLinkedTenancy(f.repo)

	result, err := f.svc.ChangeStatus(context.Background(),
		domain.DomainTenancy, tenancy.ID, domain.TenancyTerminated, "agent-7", "early termination", map[string]any{"reason": "arrears"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Error("Success = false, want true")
	}
	if result.PreviousStatus != domain.TenancyActive {
		t.Errorf("PreviousStatus = %q, want %q", result.PreviousStatus, domain.TenancyActive)
	}
	if result.NewStatus != domain.TenancyTerminated {
		t.Errorf("NewStatus = %q, want %q", result.NewStatus, domain.TenancyTerminated)
	}
	if len(result.TransitionsAvailable) != 0 {
		t.Errorf("TransitionsAvailable = %v, want empty (terminated is terminal)", result.TransitionsAvailable)
	}

	// The status write persisted.
	stored, _ := f.repo.GetByID(context.Background(), domain.DomainTenancy, tenancy.ID)
	if stored.Status != domain.TenancyTerminated {
		t.Errorf("stored status = %q, want %q", stored.Status, domain.TenancyTerminated)
	}

	// The cascade ran: linked property is back on the market.
	property, _ := f.repo.GetByID(context.Background(), domain.DomainProperty, "p-1")
	if property.Status != domain.PropertyAvailable {
		t.Errorf("property status = %q, want %q", property.Status, domain.PropertyAvailable)
	}
	found := false
	for _, name := range result.SideEffectsExecuted {
		if name == domain.EffectCascadePropertyAvailable {
			found = true
		}
	}
	if !found {
		t.Errorf("SideEffectsExecuted = %v, want it to include %q", result.SideEffectsExecuted, domain.EffectCascadePropertyAvailable)
	}

	// One audit entry, with actor and metadata preserved.
	if len(f.log.entries) != 1 {
		t.Fatalf("got %d audit entries, want 1", len(f.log.entries))
	}
	entry := f.log.entries[0]
	if entry.UserID != "agent-7" {
		t.Errorf("UserID = %q, want %q", entry.UserID, "agent-7")
	}
	if entry.Notes != "early termination" {
		t.Errorf("Notes = %q, want %q", entry.Notes, "early termination")
	}
	if entry.Metadata["reason"] != "arrears" {
		t.Errorf("Metadata[reason] = %v, want arrears", entry.Metadata["reason"])
	}

	// The event was published.
	if len(f.pub.published) != 1 {
		t.Fatalf("got %d published events, want 1", len(f.pub.published))
	}
}

func TestChangeStatus_IllegalTransition(t *testing.T) {
	f := newServiceFixture()
	reg := domain.NewRegistry()

	tenancy := domain.NewRecord(reg, domain.DomainTenancy, "t-1", "AST", "")
	f.repo.put(tenancy) // draft

	_, err := f.svc.ChangeStatus(context.Background(),
		domain.DomainTenancy, "t-1", domain.TenancyActive, "", "", nil)

	var trErr *domain.IllegalTransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected IllegalTransitionError, got %v", err)
	}
	if len(trErr.Allowed) != 1 || trErr.Allowed[0] != domain.TenancyOfferAccepted {
		t.Errorf("Allowed = %v, want [offer_accepted]", trErr.Allowed)
	}

	// Nothing was written.
	stored, _ := f.repo.GetByID(context.Background(), domain.DomainTenancy, "t-1")
	if stored.Status != domain.TenancyDraft {
		t.Errorf("stored status = %q, want unchanged draft", stored.Status)
	}
	if len(f.log.entries) != 0 {
		t.Errorf("got %d audit entries, want 0", len(f.log.entries))
	}
}

func TestChangeStatus_UnknownDomain(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.ChangeStatus(context.Background(), "widget", "w-1", "live", "", "", nil)
	var domErr *domain.UnknownDomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("expected UnknownDomainError, got %v", err)
	}
	if len(f.log.entries) != 0 {
		t.Errorf("audit entries written for unknown domain: %d", len(f.log.entries))
	}
}

func TestChangeStatus_RecordNotFound(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.ChangeStatus(context.Background(), domain.DomainTenancy, "nope", domain.TenancyActive, "", "", nil)
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestChangeStatus_DefaultsActor(t *testing.T) {
	f := newServiceFixture()
	tenancy, _ := newLinkedTenancy(f.repo)

	if _, err := f.svc.ChangeStatus(context.Background(),
		domain.DomainTenancy, tenancy.ID, domain.TenancyEnded, "", "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.log.entries[0].UserID != domain.DefaultUserID {
		t.Errorf("UserID = %q, want %q", f.log.entries[0].UserID, domain.DefaultUserID)
	}
}

// A side-effect failure must not block the transition or surface to the caller.
func TestChangeStatus_SideEffectFailureDoesNotBlock(t *testing.T) {
	f := newServiceFixture()
	reg := domain.NewRegistry()

	// Linked property is missing, so both cascade effects will fail.
	tenancy := domain.NewRecord(reg, domain.DomainTenancy, "t-1", "orphan AST", "p-gone")
	tenancy.Status = domain.TenancyActive
	f.repo.put(tenancy)

	result, err := f.svc.ChangeStatus(context.Background(),
		domain.DomainTenancy, "t-1", domain.TenancyTerminated, "", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.SideEffectsExecuted) != 0 {
		t.Errorf("SideEffectsExecuted = %v, want empty", result.SideEffectsExecuted)
	}

	stored, _ := f.repo.GetByID(context.Background(), domain.DomainTenancy, "t-1")
	if stored.Status != domain.TenancyTerminated {
		t.Errorf("stored status = %q, want %q", stored.Status, domain.TenancyTerminated)
	}

	// The audit entry still records the transition, with no effects.
	if len(f.log.entries) != 1 {
		t.Fatalf("got %d audit entries, want 1", len(f.log.entries))
	}
	if len(f.log.entries[0].SideEffects) != 0 {
		t.Errorf("audit SideEffects = %v, want empty", f.log.entries[0].SideEffects)
	}
}

// An audit write failure is logged and absorbed; the transition stands.
func TestChangeStatus_AuditFailureDoesNotBlock(t *testing.T) {
	f := newServiceFixture()
	tenancy, _ := newLinkedTenancy(f.repo)
	f.log.fail = errors.New("disk full")

	result, err := f.svc.ChangeStatus(context.Background(),
		domain.DomainTenancy, tenancy.ID, domain.TenancyEnded, "", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("Success = false, want true")
	}

	stored, _ := f.repo.GetByID(context.Background(), domain.DomainTenancy, tenancy.ID)
	if stored.Status != domain.TenancyEnded {
		t.Errorf("stored status = %q, want %q", stored.Status, domain.TenancyEnded)
	}

	found := false
	for _, msg := range f.sink.messages() {
		if msg == "recording transition failed" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 'recording transition failed' log record, got %v", f.sink.messages())
	}
}

func TestChangeStatus_PublishFailureDoesNotBlock(t *testing.T) {
	f := newServiceFixture()
	tenancy, _ := newLinkedTenancy(f.repo)
	f.pub.fail = errors.New("queue unavailable")

	result, err := f.svc.ChangeStatus(context.Background(),
		domain.DomainTenancy, tenancy.ID, domain.TenancyEnded, "", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("Success = false, want true")
	}
}

// After N transitions the audit log holds N entries whose from/to
// statuses form a contiguous chain.
func TestChangeStatus_AuditChainIsContiguous(t *testing.T) {
	f := newServiceFixture()
	reg := domain.NewRegistry()

	tenancy := domain.NewRecord(reg, domain.DomainTenancy, "t-1", "AST", "")
	f.repo.put(tenancy)

	steps := []domain.Status{
		domain.TenancyOfferAccepted,
		domain.TenancyReferencing,
		domain.TenancyDocumentation,
		domain.TenancyMoveInPrep,
		domain.TenancyActive,
		domain.TenancyEnded,
	}

	for _, next := range steps {
		if _, err := f.svc.ChangeStatus(context.Background(),
			domain.DomainTenancy, "t-1", next, "", "", nil); err != nil {
			t.Fatalf("ChangeStatus(%q) failed: %v", next, err)
		}
	}

	history, err := f.svc.History(context.Background(), domain.DomainTenancy, "t-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != len(steps) {
		t.Fatalf("got %d history entries, want %d", len(history), len(steps))
	}
	for i := 0; i < len(history)-1; i++ {
		if history[i].ToStatus != history[i+1].FromStatus {
			t.Errorf("chain broken at %d: %q → %q then %q", i, history[i].FromStatus, history[i].ToStatus, history[i+1].FromStatus)
		}
	}
	if history[0].FromStatus != domain.TenancyDraft {
		t.Errorf("chain starts at %q, want draft", history[0].FromStatus)
	}
	if history[len(history)-1].ToStatus != domain.TenancyEnded {
		t.Errorf("chain ends at %q, want ended", history[len(history)-1].ToStatus)
	}
}

func TestAvailableTransitions(t *testing.T) {
	f := newServiceFixture()
	tenancy, _ := newLinkedTenancy(f.repo)

	options, err := f.svc.AvailableTransitions(context.Background(), domain.DomainTenancy, tenancy.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if options.CurrentStatus != domain.TenancyActive {
		t.Errorf("CurrentStatus = %q, want %q", options.CurrentStatus, domain.TenancyActive)
	}
	if len(options.Available) != 2 {
		t.Errorf("Available = %v, want [ended terminated]", options.Available)
	}

	effects, ok := options.SideEffects[string(domain.TenancyTerminated)]
	if !ok {
		t.Fatalf("SideEffects missing %q: %v", domain.TenancyTerminated, options.SideEffects)
	}
	if len(effects) != 2 {
		t.Errorf("effects for terminated = %v, want 2", effects)
	}
}

func TestAvailableTransitions_UnknownDomain(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.AvailableTransitions(context.Background(), "widget", "w-1")
	var domErr *domain.UnknownDomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("expected UnknownDomainError, got %v", err)
	}
}
