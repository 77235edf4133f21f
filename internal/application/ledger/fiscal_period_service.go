package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FiscalPeriodService maintains fiscal periods and is the gate every posting
// passes through
type FiscalPeriodService struct {
	uow     shared.UnitOfWork
	periods ledger.FiscalPeriodRepository
	entries ledger.JournalEntryRepository
	metrics Metrics
	logger  *zap.Logger
}

// NewFiscalPeriodService creates a new FiscalPeriodService
func NewFiscalPeriodService(uow shared.UnitOfWork, periods ledger.FiscalPeriodRepository, entries ledger.JournalEntryRepository, metrics Metrics, logger *zap.Logger) *FiscalPeriodService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &FiscalPeriodService{uow: uow, periods: periods, entries: entries, metrics: metrics, logger: logger}
}

// ResolveOpenPeriod returns the open period containing date. A missing period
// and a period that is not open both fail with ErrNoOpenPeriod.
func (s *FiscalPeriodService) ResolveOpenPeriod(ctx context.Context, tenantID uuid.UUID, date time.Time) (*ledger.FiscalPeriod, error) {
	period, err := s.periods.FindContaining(ctx, tenantID, date)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ledger.NewNoOpenPeriodError(date)
		}
		return nil, fmt.Errorf("failed to resolve fiscal period: %w", err)
	}
	if err := period.EnsureAcceptsPostingOn(date); err != nil {
		return nil, err
	}
	return period, nil
}

// CreatePeriod opens a new period that must not overlap an existing one
func (s *FiscalPeriodService) CreatePeriod(ctx context.Context, tenantID uuid.UUID, req CreateFiscalPeriodRequest) (*FiscalPeriodResponse, error) {
	period, err := ledger.NewFiscalPeriod(tenantID, req.Code, req.StartDate, req.EndDate, req.FiscalYear, req.PeriodNumber, req.IsAdjustment)
	if err != nil {
		return nil, err
	}

	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		overlap, err := s.periods.ExistsOverlapping(ctx, tenantID, period.StartDate, period.EndDate, uuid.Nil)
		if err != nil {
			return fmt.Errorf("failed to check period overlap: %w", err)
		}
		if overlap {
			return shared.NewDomainError(ledger.CodePeriodOverlap,
				fmt.Sprintf("Period %s overlaps an existing fiscal period", period.Code))
		}
		return s.periods.Save(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fiscal period created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", period.Code),
		zap.Time("start_date", period.StartDate),
		zap.Time("end_date", period.EndDate),
	)
	resp := ToFiscalPeriodResponse(period)
	return &resp, nil
}

// GetPeriod returns one period
func (s *FiscalPeriodService) GetPeriod(ctx context.Context, tenantID, id uuid.UUID) (*FiscalPeriodResponse, error) {
	period, err := s.periods.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToFiscalPeriodResponse(period)
	return &resp, nil
}

// ListPeriods lists periods ordered by start date
func (s *FiscalPeriodService) ListPeriods(ctx context.Context, tenantID uuid.UUID, f FiscalPeriodListFilter) (shared.Paginated[FiscalPeriodResponse], error) {
	filter := ledger.FiscalPeriodFilter{
		Filter:     pageFilter(f.Page, f.PageSize, f.Search, "", ""),
		FiscalYear: f.FiscalYear,
	}
	if f.Status != "" {
		status := ledger.PeriodStatus(f.Status)
		filter.Status = &status
	}

	periods, err := s.periods.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[FiscalPeriodResponse]{}, err
	}
	total, err := s.periods.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[FiscalPeriodResponse]{}, err
	}
	items := make([]FiscalPeriodResponse, len(periods))
	for i, p := range periods {
		items[i] = ToFiscalPeriodResponse(p)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// ClosePeriod closes an open period; postings dated inside it are rejected afterwards
func (s *FiscalPeriodService) ClosePeriod(ctx context.Context, tenantID, id uuid.UUID) (*FiscalPeriodResponse, error) {
	return s.transition(ctx, tenantID, id, "close", (*ledger.FiscalPeriod).Close)
}

// ReopenPeriod reopens a closed period
func (s *FiscalPeriodService) ReopenPeriod(ctx context.Context, tenantID, id uuid.UUID) (*FiscalPeriodResponse, error) {
	return s.transition(ctx, tenantID, id, "reopen", (*ledger.FiscalPeriod).Reopen)
}

// LockPeriod locks a closed period for good
func (s *FiscalPeriodService) LockPeriod(ctx context.Context, tenantID, id uuid.UUID) (*FiscalPeriodResponse, error) {
	return s.transition(ctx, tenantID, id, "lock", (*ledger.FiscalPeriod).Lock)
}

// DeletePeriod soft deletes a period no journal entry references
func (s *FiscalPeriodService) DeletePeriod(ctx context.Context, tenantID, id uuid.UUID) error {
	var code string
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		period, err := s.periods.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		used, err := s.entries.CountByPeriod(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("failed to count period entries: %w", err)
		}
		if used > 0 {
			return shared.NewDomainError(ledger.CodePeriodInUse,
				fmt.Sprintf("fiscal period %s has %d journal entries", period.Code, used))
		}
		code = period.Code
		return s.periods.Delete(ctx, period)
	})
	if err != nil {
		return err
	}

	s.logger.Info("fiscal period deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", code),
	)
	return nil
}

func (s *FiscalPeriodService) transition(ctx context.Context, tenantID, id uuid.UUID, op string, apply func(*ledger.FiscalPeriod) error) (*FiscalPeriodResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fiscal_period", op, telemetry.TenantAttr(tenantID))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	var period *ledger.FiscalPeriod
	var from ledger.PeriodStatus
	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		p, err := s.periods.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		from = p.Status
		if err := apply(p); err != nil {
			return err
		}
		period = p
		return s.periods.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(telemetry.AttrPeriodCode.String(period.Code))
	s.metrics.RecordPeriodStatusChange(ctx, from.String(), period.Status.String())
	s.logger.Info("fiscal period status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", period.Code),
		zap.String("from", from.String()),
		zap.String("to", period.Status.String()),
	)
	resp := ToFiscalPeriodResponse(period)
	return &resp, nil
}
