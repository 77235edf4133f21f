package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JournalEntryService serves manual entries and journal queries. Manual
// entries pass the same period gate and aggregate checks as automatic ones,
// but stay drafts until posted explicitly.
type JournalEntryService struct {
	uow       shared.UnitOfWork
	accounts  ledger.AccountRepository
	entries   ledger.JournalEntryRepository
	allocator ledger.EntryNumberAllocator
	gate      PeriodGate
	metrics   Metrics
	logger    *zap.Logger
}

// NewJournalEntryService creates a new JournalEntryService
func NewJournalEntryService(
	uow shared.UnitOfWork,
	accounts ledger.AccountRepository,
	entries ledger.JournalEntryRepository,
	allocator ledger.EntryNumberAllocator,
	gate PeriodGate,
	metrics Metrics,
	logger *zap.Logger,
) *JournalEntryService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &JournalEntryService{
		uow:       uow,
		accounts:  accounts,
		entries:   entries,
		allocator: allocator,
		gate:      gate,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateManualEntry drafts an entry with the requested lines, posting it
// right away when req.Post is set
func (s *JournalEntryService) CreateManualEntry(ctx context.Context, tenantID uuid.UUID, req CreateManualEntryRequest) (*JournalEntryResponse, error) {
	var entry *ledger.JournalEntry
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		period, err := s.gate.ResolveOpenPeriod(ctx, tenantID, req.EntryDate)
		if err != nil {
			return err
		}
		number, err := s.allocator.NextEntryNumber(ctx, tenantID, req.EntryDate.Year())
		if err != nil {
			return fmt.Errorf("failed to allocate entry number: %w", err)
		}

		actor := actorFrom(ctx)
		entry, err = ledger.NewJournalEntry(tenantID, number, period.ID, req.EntryDate, actor,
			ledger.SourceTypeManual, nil, req.SourceReference, req.Description)
		if err != nil {
			return err
		}

		accounts, err := s.loadAccounts(ctx, tenantID, lineAccountIDs(req.Lines))
		if err != nil {
			return err
		}
		for _, line := range req.Lines {
			if err := addRequestedLine(entry, accounts, line); err != nil {
				return err
			}
		}

		if req.Post {
			if err := entry.Post(actor); err != nil {
				return err
			}
			if err := applyBalances(ctx, s.accounts, entry, accounts); err != nil {
				return err
			}
		}
		return s.entries.Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("manual journal entry created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_number", entry.EntryNumber),
		zap.Int("lines", len(entry.Lines)),
		zap.Bool("posted", entry.IsPosted()),
	)
	if entry.IsPosted() {
		s.recordPosted(ctx, entry)
	}
	resp := ToJournalEntryResponse(entry)
	return &resp, nil
}

// AddLine appends a line to a draft entry
func (s *JournalEntryService) AddLine(ctx context.Context, tenantID, entryID uuid.UUID, req JournalLineRequest) (*JournalEntryResponse, error) {
	var entry *ledger.JournalEntry
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.entries.FindByIDForTenant(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		accounts, err := s.loadAccounts(ctx, tenantID, []uuid.UUID{req.AccountID})
		if err != nil {
			return err
		}
		if err := addRequestedLine(entry, accounts, req); err != nil {
			return err
		}
		return s.entries.Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	resp := ToJournalEntryResponse(entry)
	return &resp, nil
}

// PostEntry posts a draft entry and applies it to account balances. The
// period gate is checked again: the period may have closed since drafting.
func (s *JournalEntryService) PostEntry(ctx context.Context, tenantID, entryID uuid.UUID) (resp *JournalEntryResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "journal_entry", "post", telemetry.TenantAttr(tenantID))
	defer func() { telemetry.EndSpan(span, err) }()

	var entry *ledger.JournalEntry
	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.entries.FindByIDForTenant(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if _, err := s.gate.ResolveOpenPeriod(ctx, tenantID, entry.EntryDate); err != nil {
			return err
		}
		if err := entry.Post(actorFrom(ctx)); err != nil {
			return err
		}
		accounts, err := s.loadAccounts(ctx, tenantID, entry.AccountIDs())
		if err != nil {
			return err
		}
		if err := applyBalances(ctx, s.accounts, entry, accounts); err != nil {
			return err
		}
		return s.entries.Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.recordPosted(ctx, entry)
	s.logger.Info("journal entry posted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_number", entry.EntryNumber),
		zap.String("total", entry.TotalDebit.String()),
	)
	out := ToJournalEntryResponse(entry)
	return &out, nil
}

// DeleteDraft removes a draft entry and its lines. Posted entries are immutable.
func (s *JournalEntryService) DeleteDraft(ctx context.Context, tenantID, entryID uuid.UUID) error {
	var number string
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		entry, err := s.entries.FindByIDForTenant(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		number = entry.EntryNumber
		return s.entries.Delete(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.logger.Info("draft journal entry deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_number", number),
	)
	return nil
}

// GetByID returns an entry with its lines and their account code and name
func (s *JournalEntryService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntryResponse, error) {
	entry, err := s.entries.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToJournalEntryResponse(entry)
	return &resp, nil
}

// List lists entry headers matching the filter
func (s *JournalEntryService) List(ctx context.Context, tenantID uuid.UUID, f JournalEntryListFilter) (shared.Paginated[JournalEntryResponse], error) {
	filter := ledger.JournalEntryFilter{
		Filter:         pageFilter(f.Page, f.PageSize, f.Search, f.OrderBy, f.OrderDir),
		SourceID:       f.SourceID,
		FiscalPeriodID: f.FiscalPeriodID,
		FromDate:       f.FromDate,
		ToDate:         f.ToDate,
	}
	if f.Status != "" {
		status := ledger.EntryStatus(f.Status)
		filter.Status = &status
	}
	if f.SourceType != "" {
		sourceType := ledger.SourceType(f.SourceType)
		filter.SourceType = &sourceType
	}

	entries, err := s.entries.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[JournalEntryResponse]{}, err
	}
	total, err := s.entries.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[JournalEntryResponse]{}, err
	}
	items := make([]JournalEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = ToJournalEntryResponse(e)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// NextEntryNumber previews the number the next entry of year would get
// without consuming it
func (s *JournalEntryService) NextEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (string, error) {
	if year <= 0 {
		year = time.Now().Year()
	}
	return s.allocator.PeekEntryNumber(ctx, tenantID, year)
}

func (s *JournalEntryService) loadAccounts(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*ledger.Account, error) {
	found, err := s.accounts.FindByIDsForTenant(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	accounts := make(map[uuid.UUID]*ledger.Account, len(found))
	for _, a := range found {
		accounts[a.ID] = a
	}
	for _, id := range ids {
		if _, ok := accounts[id]; !ok {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", fmt.Sprintf("Account %s not found", id))
		}
	}
	return accounts, nil
}

func (s *JournalEntryService) recordPosted(ctx context.Context, entry *ledger.JournalEntry) {
	total, _ := entry.TotalDebit.Float64()
	s.metrics.RecordEntryPosted(ctx, entry.TenantID, entry.SourceType.String(), total)
}

func addRequestedLine(entry *ledger.JournalEntry, accounts map[uuid.UUID]*ledger.Account, req JournalLineRequest) error {
	var opts []ledger.LineOption
	if req.PartnerID != nil {
		opts = append(opts, ledger.WithPartner(*req.PartnerID))
	}
	currency, err := foreignCurrencyOption(req)
	if err != nil {
		return err
	}
	if currency != nil {
		opts = append(opts, currency)
	}
	_, err = entry.AddLine(accounts[req.AccountID], req.Debit, req.Credit, req.Description, opts...)
	return err
}

// foreignCurrencyOption returns nil when the line carries no foreign amount
func foreignCurrencyOption(req JournalLineRequest) (ledger.LineOption, error) {
	if req.CurrencyCode == "" && req.ExchangeRate == nil && req.OriginalAmount == nil {
		return nil, nil
	}
	if req.CurrencyCode == "" || req.ExchangeRate == nil || req.OriginalAmount == nil {
		return nil, shared.NewDomainError(ledger.CodeInvalidForeignCurrency,
			"currency_code, exchange_rate and original_amount must be given together")
	}
	if !req.ExchangeRate.IsPositive() || !req.OriginalAmount.IsPositive() {
		return nil, shared.NewDomainError(ledger.CodeInvalidForeignCurrency,
			"exchange_rate and original_amount must be positive")
	}
	return ledger.WithForeignCurrency(req.CurrencyCode, *req.ExchangeRate, *req.OriginalAmount), nil
}

func lineAccountIDs(lines []JournalLineRequest) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	return ids
}
