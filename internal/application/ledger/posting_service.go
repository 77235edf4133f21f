package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RoleSourceAccount stands for an account named by the event itself, such as
// the bank account of a payment
const RoleSourceAccount ledger.AccountRole = "source_account"

// PeriodGate resolves the open fiscal period for a posting date
type PeriodGate interface {
	ResolveOpenPeriod(ctx context.Context, tenantID uuid.UUID, date time.Time) (*ledger.FiscalPeriod, error)
}

// PostingSide selects the account of one side of an automatic posting: a
// mapped role, with an optional fallback role, or an explicit account.
type PostingSide struct {
	Role      ledger.AccountRole
	Fallback  ledger.AccountRole
	AccountID uuid.UUID
}

// RoleSide selects the account mapped to role
func RoleSide(role, fallback ledger.AccountRole) PostingSide {
	return PostingSide{Role: role, Fallback: fallback}
}

// AccountSide selects a specific account
func AccountSide(id uuid.UUID) PostingSide {
	return PostingSide{Role: RoleSourceAccount, AccountID: id}
}

// PostingRequest describes a two-line entry generated from a business event
type PostingRequest struct {
	TenantID        uuid.UUID
	EventID         uuid.UUID
	EventType       string
	Date            time.Time
	SourceType      ledger.SourceType
	SourceID        uuid.UUID
	SourceReference string
	Description     string
	Amount          decimal.Decimal
	Debit           PostingSide
	Credit          PostingSide
	// MappingRequired makes a missing account fatal whatever the strict setting
	MappingRequired bool
}

// PostingOutcome reports what a posting did
type PostingOutcome int

const (
	OutcomePosted PostingOutcome = iota
	// OutcomeDuplicate means the event was already posted
	OutcomeDuplicate
	// OutcomeSkipped means an account was missing under the lenient policy
	OutcomeSkipped
)

// PostingResult is the result of Post. Entry is nil unless Outcome is OutcomePosted.
type PostingResult struct {
	Outcome PostingOutcome
	Entry   *ledger.JournalEntry
}

// PostingService builds, posts and persists automatic journal entries in one
// unit of work: open period, accounts, entry number, balanced lines, posting
// and account balances commit or roll back together.
type PostingService struct {
	uow       shared.UnitOfWork
	accounts  ledger.AccountRepository
	entries   ledger.JournalEntryRepository
	allocator ledger.EntryNumberAllocator
	gate      PeriodGate
	resolver  *AccountResolver
	strict    bool
	metrics   Metrics
	logger    *zap.Logger
}

// PostingServiceOption configures a PostingService
type PostingServiceOption func(*PostingService)

// WithStrictAccountMapping sets whether a missing account fails every posting.
// Strict is the default.
func WithStrictAccountMapping(strict bool) PostingServiceOption {
	return func(s *PostingService) {
		s.strict = strict
	}
}

// WithPostingMetrics reports posting outcomes to metrics
func WithPostingMetrics(metrics Metrics) PostingServiceOption {
	return func(s *PostingService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// NewPostingService creates a new PostingService
func NewPostingService(
	uow shared.UnitOfWork,
	accounts ledger.AccountRepository,
	entries ledger.JournalEntryRepository,
	allocator ledger.EntryNumberAllocator,
	gate PeriodGate,
	resolver *AccountResolver,
	logger *zap.Logger,
	opts ...PostingServiceOption,
) *PostingService {
	s := &PostingService{
		uow:       uow,
		accounts:  accounts,
		entries:   entries,
		allocator: allocator,
		gate:      gate,
		resolver:  resolver,
		strict:    true,
		metrics:   noopMetrics{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errSkipPosting unwinds the unit of work when a lenient posting is skipped
var errSkipPosting = errors.New("posting skipped")

// Post runs req inside the unit of work carried by ctx, or a new one
func (s *PostingService) Post(ctx context.Context, req PostingRequest) (result PostingResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "post",
		telemetry.TenantAttr(req.TenantID),
		telemetry.AttrEventID.String(req.EventID.String()),
		telemetry.AttrEventType.String(req.EventType),
		telemetry.AttrSourceType.String(req.SourceType.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	log := s.logger.With(
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("event_id", req.EventID.String()),
		zap.String("event_type", req.EventType),
		zap.String("source_reference", req.SourceReference),
	)

	if !req.Amount.IsPositive() {
		return PostingResult{}, shared.NewDomainError(ledger.CodeInvalidLineAmount,
			fmt.Sprintf("Posting amount must be positive, got %s", req.Amount.String()))
	}

	var skippedRole ledger.AccountRole
	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		if req.EventID != uuid.Nil {
			exists, err := s.entries.ExistsBySourceEvent(ctx, req.TenantID, req.EventID)
			if err != nil {
				return fmt.Errorf("failed to check existing entry: %w", err)
			}
			if exists {
				result.Outcome = OutcomeDuplicate
				return nil
			}
		}

		period, err := s.gate.ResolveOpenPeriod(ctx, req.TenantID, req.Date)
		if err != nil {
			return err
		}

		debit, credit, missing, err := s.resolveAccounts(ctx, req)
		if err != nil {
			return err
		}
		if missing != "" {
			if s.strict || req.MappingRequired {
				return ledger.NewAccountMappingMissingError(missing, s.prefixOf(missing))
			}
			skippedRole = missing
			return errSkipPosting
		}

		number, err := s.allocator.NextEntryNumber(ctx, req.TenantID, req.Date.Year())
		if err != nil {
			return fmt.Errorf("failed to allocate entry number: %w", err)
		}

		actor := actorFrom(ctx)
		sourceID := req.SourceID
		entry, err := ledger.NewJournalEntry(req.TenantID, number, period.ID, req.Date, actor,
			req.SourceType, &sourceID, req.SourceReference, req.Description)
		if err != nil {
			return err
		}
		if req.EventID != uuid.Nil {
			entry.SetSourceEvent(req.EventID)
		}
		if _, err := entry.AddLine(debit, req.Amount, decimal.Zero, req.Description); err != nil {
			return err
		}
		if _, err := entry.AddLine(credit, decimal.Zero, req.Amount, req.Description); err != nil {
			return err
		}
		if err := entry.Post(actor); err != nil {
			return err
		}
		if err := applyBalances(ctx, s.accounts, entry, map[uuid.UUID]*ledger.Account{
			debit.ID:  debit,
			credit.ID: credit,
		}); err != nil {
			return err
		}
		if err := s.entries.Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to save journal entry: %w", err)
		}

		result = PostingResult{Outcome: OutcomePosted, Entry: entry}
		return nil
	})

	if errors.Is(err, errSkipPosting) {
		log.Warn("account mapping missing, event not posted",
			zap.String("role", string(skippedRole)),
			zap.String("prefix", s.prefixOf(skippedRole)),
		)
		s.metrics.RecordPostingSkipped(ctx, req.EventType, string(skippedRole))
		return PostingResult{Outcome: OutcomeSkipped}, nil
	}
	if err != nil {
		log.Error("failed to post journal entry", zap.Error(err))
		return PostingResult{}, err
	}

	switch result.Outcome {
	case OutcomeDuplicate:
		log.Info("event already posted, skipping")
	case OutcomePosted:
		span.SetAttributes(telemetry.AttrEntryNumber.String(result.Entry.EntryNumber))
		total, _ := result.Entry.TotalDebit.Float64()
		s.metrics.RecordEntryPosted(ctx, req.TenantID, req.SourceType.String(), total)
		log.Info("journal entry posted",
			zap.String("entry_id", result.Entry.ID.String()),
			zap.String("entry_number", result.Entry.EntryNumber),
			zap.String("amount", req.Amount.String()),
		)
	}
	return result, nil
}

// resolveAccounts loads both accounts inside the unit of work. A non-empty
// role is returned when that side has no usable account.
func (s *PostingService) resolveAccounts(ctx context.Context, req PostingRequest) (debit, credit *ledger.Account, missing ledger.AccountRole, err error) {
	debitID, missing, err := s.resolveSide(ctx, req.TenantID, req.Debit)
	if err != nil || missing != "" {
		return nil, nil, missing, err
	}
	creditID, missing, err := s.resolveSide(ctx, req.TenantID, req.Credit)
	if err != nil || missing != "" {
		return nil, nil, missing, err
	}

	found, err := s.accounts.FindByIDsForTenant(ctx, req.TenantID, []uuid.UUID{debitID, creditID})
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to load accounts: %w", err)
	}
	byID := make(map[uuid.UUID]*ledger.Account, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	debit, credit = byID[debitID], byID[creditID]
	if debit == nil || credit == nil {
		// the cached mapping points at an account that is gone
		s.resolver.Invalidate(req.TenantID)
		if debit == nil {
			return nil, nil, req.Debit.Role, nil
		}
		return nil, nil, req.Credit.Role, nil
	}
	return debit, credit, "", nil
}

func (s *PostingService) resolveSide(ctx context.Context, tenantID uuid.UUID, side PostingSide) (uuid.UUID, ledger.AccountRole, error) {
	if side.AccountID != uuid.Nil {
		return side.AccountID, "", nil
	}
	id, ok, err := s.resolver.Resolve(ctx, tenantID, side.Role)
	if err != nil {
		return uuid.Nil, "", err
	}
	if ok {
		return id, "", nil
	}
	if side.Fallback != "" {
		if id, ok, err = s.resolver.Resolve(ctx, tenantID, side.Fallback); err != nil || ok {
			return id, "", err
		}
	}
	return uuid.Nil, side.Role, nil
}

func (s *PostingService) prefixOf(role ledger.AccountRole) string {
	if role == RoleSourceAccount {
		return ""
	}
	return s.resolver.Prefix(role)
}

// applyBalances moves the balances of the entry's accounts and registers them
// with the unit of work
func applyBalances(ctx context.Context, repo ledger.AccountRepository, entry *ledger.JournalEntry, accounts map[uuid.UUID]*ledger.Account) error {
	for i := range entry.Lines {
		line := &entry.Lines[i]
		account, ok := accounts[line.AccountID]
		if !ok {
			return fmt.Errorf("account %s of line %d is not loaded", line.AccountID, line.LineNumber)
		}
		if err := account.ApplyPostedLine(entry, line); err != nil {
			return err
		}
	}
	for _, account := range accounts {
		if err := repo.Save(ctx, account); err != nil {
			return fmt.Errorf("failed to save account %s: %w", account.Code, err)
		}
	}
	return nil
}

// actorFrom returns the authenticated user, or uuid.Nil for system postings
func actorFrom(ctx context.Context) uuid.UUID {
	if id := logger.GetUserID(ctx); id != nil {
		return *id
	}
	return uuid.Nil
}
