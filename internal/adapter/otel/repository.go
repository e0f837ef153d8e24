package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zithekhosa/propflow/internal/domain"
)

const tracerName = "github.com/zithekhosa/propflow/internal/adapter/otel"

func recordResult(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// TracingTenancyRepository wraps a domain.TenancyRepository with
// OpenTelemetry tracing. Each method creates a span with semantic
// attributes and records errors.
type TracingTenancyRepository struct {
	next   domain.TenancyRepository
	tracer trace.Tracer
}

// Compile-time check: TracingTenancyRepository implements domain.TenancyRepository.
var _ domain.TenancyRepository = (*TracingTenancyRepository)(nil)

// NewTracingTenancyRepository creates a tracing decorator around the given repository.
func NewTracingTenancyRepository(next domain.TenancyRepository) *TracingTenancyRepository {
	return &TracingTenancyRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingTenancyRepository) Create(ctx context.Context, t domain.Tenancy) error {
	ctx, span := r.tracer.Start(ctx, "TenancyRepository.Create",
		trace.WithAttributes(
			attribute.String("tenancy.id", t.ID),
			attribute.String("tenancy.property_id", t.PropertyID),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, t)
	recordResult(span, err)
	return err
}

func (r *TracingTenancyRepository) GetByID(ctx context.Context, id string) (domain.Tenancy, error) {
	ctx, span := r.tracer.Start(ctx, "TenancyRepository.GetByID",
		trace.WithAttributes(attribute.String("tenancy.id", id)),
	)
	defer span.End()

	tenancy, err := r.next.GetByID(ctx, id)
	recordResult(span, err)
	return tenancy, err
}

func (r *TracingTenancyRepository) List(ctx context.Context, filter domain.TenancyFilter) ([]domain.Tenancy, error) {
	ctx, span := r.tracer.Start(ctx, "TenancyRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	tenancies, err := r.next.List(ctx, filter)
	recordResult(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(tenancies)))
	}
	return tenancies, err
}

func (r *TracingTenancyRepository) Update(ctx context.Context, t domain.Tenancy) error {
	ctx, span := r.tracer.Start(ctx, "TenancyRepository.Update",
		trace.WithAttributes(
			attribute.String("tenancy.id", t.ID),
			attribute.String("tenancy.state", string(t.State)),
			attribute.Int("tenancy.version", t.Version),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, t)
	recordResult(span, err)
	return err
}

// TracingMaintenanceRepository wraps a domain.MaintenanceRepository with
// OpenTelemetry tracing.
type TracingMaintenanceRepository struct {
	next   domain.MaintenanceRepository
	tracer trace.Tracer
}

var _ domain.MaintenanceRepository = (*TracingMaintenanceRepository)(nil)

// NewTracingMaintenanceRepository creates a tracing decorator around the given repository.
func NewTracingMaintenanceRepository(next domain.MaintenanceRepository) *TracingMaintenanceRepository {
	return &TracingMaintenanceRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingMaintenanceRepository) Create(ctx context.Context, m domain.MaintenanceRequest) error {
	ctx, span := r.tracer.Start(ctx, "MaintenanceRepository.Create",
		trace.WithAttributes(
			attribute.String("request.id", m.ID),
			attribute.String("request.property_id", m.PropertyID),
			attribute.String("request.priority", string(m.Priority)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, m)
	recordResult(span, err)
	return err
}

func (r *TracingMaintenanceRepository) GetByID(ctx context.Context, id string) (domain.MaintenanceRequest, error) {
	ctx, span := r.tracer.Start(ctx, "MaintenanceRepository.GetByID",
		trace.WithAttributes(attribute.String("request.id", id)),
	)
	defer span.End()

	request, err := r.next.GetByID(ctx, id)
	recordResult(span, err)
	return request, err
}

func (r *TracingMaintenanceRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.MaintenanceRequest, error) {
	ctx, span := r.tracer.Start(ctx, "MaintenanceRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	requests, err := r.next.List(ctx, filter)
	recordResult(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(requests)))
	}
	return requests, err
}

func (r *TracingMaintenanceRepository) Update(ctx context.Context, m domain.MaintenanceRequest) error {
	ctx, span := r.tracer.Start(ctx, "MaintenanceRepository.Update",
		trace.WithAttributes(
			attribute.String("request.id", m.ID),
			attribute.String("request.state", string(m.State)),
			attribute.Int("request.version", m.Version),
			attribute.Int("request.bids", len(m.Bids)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, m)
	recordResult(span, err)
	return err
}

// TracingCommissionRepository wraps a domain.CommissionRepository with
// OpenTelemetry tracing.
type TracingCommissionRepository struct {
	next   domain.CommissionRepository
	tracer trace.Tracer
}

var _ domain.CommissionRepository = (*TracingCommissionRepository)(nil)

// NewTracingCommissionRepository creates a tracing decorator around the given repository.
func NewTracingCommissionRepository(next domain.CommissionRepository) *TracingCommissionRepository {
	return &TracingCommissionRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingCommissionRepository) Create(ctx context.Context, d domain.CommissionDeal) error {
	ctx, span := r.tracer.Start(ctx, "CommissionRepository.Create",
		trace.WithAttributes(
			attribute.String("deal.id", d.ID),
			attribute.String("deal.type", string(d.DealType)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, d)
	recordResult(span, err)
	return err
}

func (r *TracingCommissionRepository) GetByID(ctx context.Context, id string) (domain.CommissionDeal, error) {
	ctx, span := r.tracer.Start(ctx, "CommissionRepository.GetByID",
		trace.WithAttributes(attribute.String("deal.id", id)),
	)
	defer span.End()

	deal, err := r.next.GetByID(ctx, id)
	recordResult(span, err)
	return deal, err
}

func (r *TracingCommissionRepository) List(ctx context.Context, filter domain.DealFilter) ([]domain.CommissionDeal, error) {
	ctx, span := r.tracer.Start(ctx, "CommissionRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	deals, err := r.next.List(ctx, filter)
	recordResult(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(deals)))
	}
	return deals, err
}

func (r *TracingCommissionRepository) Update(ctx context.Context, d domain.CommissionDeal) error {
	ctx, span := r.tracer.Start(ctx, "CommissionRepository.Update",
		trace.WithAttributes(
			attribute.String("deal.id", d.ID),
			attribute.String("deal.state", string(d.State)),
			attribute.Int("deal.version", d.Version),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, d)
	recordResult(span, err)
	return err
}
