package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/adapter/otel"
	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock repository ---

type recordKey struct {
	domain domain.Domain
	id     string
}

type mockRepo struct {
	records map[recordKey]domain.Record
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[recordKey]domain.Record)}
}

func (m *mockRepo) Create(_ context.Context, r domain.Record) error {
	m.records[recordKey{r.Domain, r.ID}] = r
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, d domain.Domain, id string) (domain.Record, error) {
	r, ok := m.records[recordKey{d, id}]
	if !ok {
		return domain.Record{}, domain.ErrRecordNotFound
	}
	return r, nil
}

func (m *mockRepo) List(_ context.Context, filter domain.ListFilter) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(m.records))
	for k, r := range m.records {
		if k.domain == filter.Domain {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, r domain.Record) error {
	key := recordKey{r.Domain, r.ID}
	if _, ok := m.records[key]; !ok {
		return domain.ErrRecordNotFound
	}
	m.records[key] = r
	return nil
}

// --- Tests ---

func TestTracingRepository_Create_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	registry := domain.NewRegistry()
	record := domain.NewRecord(registry, domain.DomainProperty, "p-1", "12 Portland Street", "")
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "RecordRepository.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "RecordRepository.Create")
	}

	assertAttribute(t, spans[0], "record.domain", "property")
	assertAttribute(t, spans[0], "record.id", "p-1")
	assertAttribute(t, spans[0], "record.status", "available")
}

func TestTracingRepository_GetByID_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	registry := domain.NewRegistry()
	record := domain.NewRecord(registry, domain.DomainTenancy, "t-1", "T-2026-001", "p-1")
	inner.records[recordKey{domain.DomainTenancy, "t-1"}] = record

	got, err := repo.GetByID(context.Background(), domain.DomainTenancy, "t-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "t-1" {
		t.Errorf("ID = %q, want %q", got.ID, "t-1")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "RecordRepository.GetByID" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "RecordRepository.GetByID")
	}

	assertAttribute(t, spans[0], "record.domain", "tenancy")
}

func TestTracingRepository_GetByID_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	_, err := repo.GetByID(context.Background(), domain.DomainProperty, "nonexistent")
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}

	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingRepository_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	registry := domain.NewRegistry()
	inner.records[recordKey{domain.DomainProperty, "p-1"}] = domain.NewRecord(registry, domain.DomainProperty, "p-1", "12 Portland Street", "")
	inner.records[recordKey{domain.DomainProperty, "p-2"}] = domain.NewRecord(registry, domain.DomainProperty, "p-2", "7 Kings Road", "")

	records, err := repo.List(context.Background(), domain.ListFilter{Domain: domain.DomainProperty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "filter.domain", "property")
	assertAttribute(t, spans[0], "result.count", "2")
}

func TestTracingRepository_Update_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	registry := domain.NewRegistry()
	record := domain.NewRecord(registry, domain.DomainProperty, "p-1", "12 Portland Street", "")
	inner.records[recordKey{domain.DomainProperty, "p-1"}] = record

	record.Status = domain.PropertyUnderOffer
	if err := repo.Update(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "RecordRepository.Update" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "RecordRepository.Update")
	}

	assertAttribute(t, spans[0], "record.status", "under_offer")
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
