package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"
)

const tracerName = "github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/adapter/otel"

// TracingRepository wraps a domain.RecordRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.RecordRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.RecordRepository.
var _ domain.RecordRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.RecordRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, record domain.Record) error {
	ctx, span := r.tracer.Start(ctx, "RecordRepository.Create",
		trace.WithAttributes(
			attribute.String("record.domain", string(record.Domain)),
			attribute.String("record.id", record.ID),
			attribute.String("record.status", string(record.Status)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, d domain.Domain, id string) (domain.Record, error) {
	ctx, span := r.tracer.Start(ctx, "RecordRepository.GetByID",
		trace.WithAttributes(
			attribute.String("record.domain", string(d)),
			attribute.String("record.id", id),
		),
	)
	defer span.End()

	record, err := r.next.GetByID(ctx, d, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return record, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Record, error) {
	ctx, span := r.tracer.Start(ctx, "RecordRepository.List",
		trace.WithAttributes(
			attribute.String("filter.domain", string(filter.Domain)),
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	records, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(records)))
	}
	return records, err
}

func (r *TracingRepository) Update(ctx context.Context, record domain.Record) error {
	ctx, span := r.tracer.Start(ctx, "RecordRepository.Update",
		trace.WithAttributes(
			attribute.String("record.domain", string(record.Domain)),
			attribute.String("record.id", record.ID),
			attribute.String("record.status", string(record.Status)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
