package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
)

type resolvedMapping struct {
	accounts  map[ledger.AccountRole]uuid.UUID
	expiresAt time.Time
}

// AccountResolver resolves account roles to the tenant's accounts through the
// configured prefix mapping. The chart is scanned once per tenant and the
// result is reused until it expires or the chart changes.
//
// Only account IDs are cached: callers load the accounts inside their own
// unit of work so that balance updates are version checked.
type AccountResolver struct {
	accounts ledger.AccountRepository
	mapping  ledger.AccountMapping
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	cache map[uuid.UUID]resolvedMapping
}

// AccountResolverOption configures an AccountResolver
type AccountResolverOption func(*AccountResolver)

// WithMappingTTL expires resolved mappings after ttl; zero keeps them until invalidated
func WithMappingTTL(ttl time.Duration) AccountResolverOption {
	return func(r *AccountResolver) {
		r.ttl = ttl
	}
}

// WithResolverClock overrides the clock used for expiry
func WithResolverClock(now func() time.Time) AccountResolverOption {
	return func(r *AccountResolver) {
		r.now = now
	}
}

// NewAccountResolver creates a resolver for mapping, which must be valid
func NewAccountResolver(accounts ledger.AccountRepository, mapping ledger.AccountMapping, opts ...AccountResolverOption) (*AccountResolver, error) {
	if err := mapping.Validate(); err != nil {
		return nil, fmt.Errorf("invalid account mapping: %w", err)
	}
	r := &AccountResolver{
		accounts: accounts,
		mapping:  mapping,
		now:      time.Now,
		cache:    make(map[uuid.UUID]resolvedMapping),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Prefix returns the code prefix configured for role
func (r *AccountResolver) Prefix(role ledger.AccountRole) string {
	return r.mapping[role]
}

// Resolve returns the ID of the account filling role, or false when the
// tenant has no postable account with the role's prefix
func (r *AccountResolver) Resolve(ctx context.Context, tenantID uuid.UUID, role ledger.AccountRole) (uuid.UUID, bool, error) {
	resolved, err := r.load(ctx, tenantID)
	if err != nil {
		return uuid.Nil, false, err
	}
	id, ok := resolved[role]
	return id, ok, nil
}

// Invalidate drops the cached mapping of a tenant
func (r *AccountResolver) Invalidate(tenantID uuid.UUID) {
	r.mu.Lock()
	delete(r.cache, tenantID)
	r.mu.Unlock()
}

func (r *AccountResolver) load(ctx context.Context, tenantID uuid.UUID) (map[ledger.AccountRole]uuid.UUID, error) {
	r.mu.RLock()
	cached, ok := r.cache[tenantID]
	r.mu.RUnlock()
	if ok && (cached.expiresAt.IsZero() || r.now().Before(cached.expiresAt)) {
		return cached.accounts, nil
	}

	isHeader, isActive := false, true
	accounts, err := r.accounts.FindAllForTenant(ctx, tenantID, ledger.AccountFilter{
		IsHeader: &isHeader,
		IsActive: &isActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load chart of accounts: %w", err)
	}

	resolved := make(map[ledger.AccountRole]uuid.UUID, len(r.mapping))
	for _, role := range ledger.AllAccountRoles() {
		if a := r.mapping.Match(role, accounts); a != nil {
			resolved[role] = a.ID
		}
	}

	entry := resolvedMapping{accounts: resolved}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.mu.Lock()
	r.cache[tenantID] = entry
	r.mu.Unlock()
	return resolved, nil
}
