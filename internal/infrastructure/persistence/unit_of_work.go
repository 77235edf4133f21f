package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionKey struct{}

// GormUnitOfWork implements shared.UnitOfWork on a GORM transaction.
//
// Repositories register inserts, updates and deletes on the Session carried
// by the context. Nothing is written until the outermost Execute returns nil;
// the flush then diffs every change against the snapshot taken when the
// entity was loaded, stamps tenant and actor metadata, turns deletes of
// soft-deletable entities into updates, writes the changes, writes one audit
// log per change and finally stores the entities' domain events in the outbox.
type GormUnitOfWork struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
	logger *zap.Logger
	now    func() time.Time
}

// UnitOfWorkOption configures a GormUnitOfWork
type UnitOfWorkOption func(*GormUnitOfWork)

// WithOutboxSaver stores domain events raised by flushed entities in the outbox
func WithOutboxSaver(saver shared.OutboxEventSaver) UnitOfWorkOption {
	return func(u *GormUnitOfWork) {
		u.outbox = saver
	}
}

// WithUnitOfWorkLogger sets the logger used for flush diagnostics
func WithUnitOfWorkLogger(l *zap.Logger) UnitOfWorkOption {
	return func(u *GormUnitOfWork) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithClock overrides the time source used for stamps and audit records
func WithClock(now func() time.Time) UnitOfWorkOption {
	return func(u *GormUnitOfWork) {
		if now != nil {
			u.now = now
		}
	}
}

// NewGormUnitOfWork creates a unit of work bound to db
func NewGormUnitOfWork(db *gorm.DB, opts ...UnitOfWorkOption) *GormUnitOfWork {
	u := &GormUnitOfWork{
		db:     db,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// SetOutboxSaver attaches the outbox after construction; the saver usually
// depends on serializers built later in the wiring.
func (u *GormUnitOfWork) SetOutboxSaver(saver shared.OutboxEventSaver) {
	u.outbox = saver
}

// Execute runs fn in a transaction, or inside the transaction already carried by ctx
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session := newSession(tx)
		txCtx := context.WithValue(ctx, sessionKey{}, session)
		if err := fn(txCtx); err != nil {
			return err
		}
		return u.flush(txCtx, session)
	})
}

// DB returns the transaction of the session in ctx, or the root connection
func (u *GormUnitOfWork) DB(ctx context.Context) *gorm.DB {
	if s := SessionFromContext(ctx); s != nil {
		return s.tx
	}
	return u.db.WithContext(ctx)
}

// SessionFromContext returns the session of the enclosing unit of work, or nil
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

type changeKind int

const (
	changeSave changeKind = iota
	changeDelete
)

type entityKey struct {
	name string
	id   uuid.UUID
}

type trackedEntity struct {
	snapshot shared.AuditSnapshot
	version  int
}

// Change is one entity registered for the next flush
type Change struct {
	Entity shared.Auditable
	// TenantID owns the audit record; entities without their own tenant
	// (journal entry lines) take it from the aggregate.
	TenantID uuid.UUID
	Writer   Writer
}

type pendingChange struct {
	Change
	kind changeKind
}

// Session collects the changes of one unit of work
type Session struct {
	tx       *gorm.DB
	tracked  map[entityKey]trackedEntity
	entities map[entityKey]shared.Auditable
	changes  []*pendingChange
	index    map[entityKey]*pendingChange
}

func newSession(tx *gorm.DB) *Session {
	return &Session{
		tx:       tx,
		tracked:  make(map[entityKey]trackedEntity),
		entities: make(map[entityKey]shared.Auditable),
		index:    make(map[entityKey]*pendingChange),
	}
}

func keyOf(e shared.Auditable) entityKey {
	return entityKey{name: e.AuditEntityName(), id: e.AuditEntityID()}
}

// Track records the loaded state of an entity and returns the instance the
// session hands out for it. A later Save of the entity is an update diffed
// against this snapshot.
//
// The session is an identity map: when the entity was already loaded, the
// first instance is returned and e is discarded, so two loads of the same row
// in one unit of work see each other's unflushed changes.
func (s *Session) Track(e shared.Auditable) shared.Auditable {
	key := keyOf(e)
	if known, ok := s.entities[key]; ok {
		return known
	}
	t := trackedEntity{snapshot: e.AuditSnapshot()}
	if v, ok := e.(shared.Versioned); ok {
		t.version = v.GetVersion()
	}
	s.tracked[key] = t
	s.entities[key] = e
	return e
}

// PendingSaves returns the entities registered for insert or update, in order
func (s *Session) PendingSaves() []shared.Auditable {
	saves := make([]shared.Auditable, 0, len(s.changes))
	for _, c := range s.changes {
		if c.kind == changeSave {
			saves = append(saves, c.Entity)
		}
	}
	return saves
}

// IsTracked reports whether the entity was loaded in this session
func (s *Session) IsTracked(e shared.Auditable) bool {
	_, ok := s.tracked[keyOf(e)]
	return ok
}

// Save registers an insert, or an update when the entity was loaded in this session
func (s *Session) Save(c Change) {
	s.register(c, changeSave)
}

// Delete registers the removal of an entity
func (s *Session) Delete(c Change) {
	s.register(c, changeDelete)
}

// Pending returns the number of registered changes
func (s *Session) Pending() int {
	return len(s.changes)
}

func (s *Session) register(c Change, kind changeKind) {
	key := keyOf(c.Entity)
	if existing, ok := s.index[key]; ok {
		existing.Change = c
		existing.kind = kind
		return
	}
	pc := &pendingChange{Change: c, kind: kind}
	s.changes = append(s.changes, pc)
	s.index[key] = pc
}

func (u *GormUnitOfWork) flush(ctx context.Context, s *Session) error {
	if len(s.changes) == 0 {
		return nil
	}

	now := u.now()
	ctxTenant := logger.GetTenantID(ctx)
	actor := logger.GetUserID(ctx)

	auditLogs := make([]*models.AuditLogModel, 0, len(s.changes))
	events := make([]shared.DomainEvent, 0)
	sources := make([]shared.EventSource, 0)

	for _, pc := range s.changes {
		key := keyOf(pc.Entity)
		tracked, loaded := s.tracked[key]

		var (
			action shared.AuditAction
			before shared.AuditSnapshot
			after  shared.AuditSnapshot
		)
		switch {
		case pc.kind == changeSave && !loaded:
			action = shared.AuditActionInsert
			after = pc.Entity.AuditSnapshot()
		case pc.kind == changeSave:
			action = shared.AuditActionUpdate
			before = tracked.snapshot
			after = pc.Entity.AuditSnapshot()
		default:
			before = tracked.snapshot
			if !loaded {
				before = pc.Entity.AuditSnapshot()
			}
			if sd, ok := pc.Entity.(shared.SoftDeletable); ok {
				action = shared.AuditActionSoftDelete
				sd.SoftDelete(actor, now)
				after = pc.Entity.AuditSnapshot()
			} else {
				action = shared.AuditActionHardDelete
			}
		}

		oldValues, newValues, changed := shared.Diff(before, after)
		if action == shared.AuditActionUpdate && len(changed) == 0 {
			continue
		}

		if st, ok := pc.Entity.(shared.Stampable); ok {
			switch action {
			case shared.AuditActionInsert:
				st.StampCreated(ctxTenant, actor, now)
			case shared.AuditActionUpdate, shared.AuditActionSoftDelete:
				st.StampUpdated(actor, now)
			}
		}
		if action != shared.AuditActionInsert && action != shared.AuditActionHardDelete {
			bumpVersion(pc.Entity, tracked.version, loaded)
		}

		var err error
		switch action {
		case shared.AuditActionInsert:
			err = pc.Writer.insert(s.tx)
		case shared.AuditActionUpdate, shared.AuditActionSoftDelete:
			err = pc.Writer.update(s.tx, tracked.version, loaded)
		case shared.AuditActionHardDelete:
			err = pc.Writer.delete(s.tx)
		}
		if err != nil {
			return fmt.Errorf("failed to %s %s %s: %w",
				actionVerb(action), pc.Entity.AuditEntityName(), pc.Entity.AuditEntityID(), err)
		}

		tenantID := auditTenant(pc, ctxTenant)
		auditLog := ledger.NewAuditLog(tenantID, actor, pc.Entity, action, oldValues, newValues, changed, now)
		model, err := models.AuditLogModelFromDomain(auditLog)
		if err != nil {
			return err
		}
		auditLogs = append(auditLogs, model)

		if src, ok := pc.Entity.(shared.EventSource); ok {
			sources = append(sources, src)
			events = append(events, src.GetDomainEvents()...)
		}
	}

	if len(auditLogs) > 0 {
		if err := s.tx.Create(&auditLogs).Error; err != nil {
			return fmt.Errorf("failed to write audit logs: %w", err)
		}
	}

	if len(events) > 0 {
		if u.outbox != nil {
			if err := u.outbox.SaveEvents(ctx, s.tx, events...); err != nil {
				return fmt.Errorf("failed to save domain events to outbox: %w", err)
			}
		} else {
			u.logger.Debug("no outbox configured, dropping domain events", zap.Int("count", len(events)))
		}
	}
	for _, src := range sources {
		src.ClearDomainEvents()
	}

	u.logger.Debug("unit of work flushed",
		zap.Int("changes", len(s.changes)),
		zap.Int("audit_logs", len(auditLogs)),
		zap.Int("events", len(events)),
	)

	s.changes = nil
	s.index = make(map[entityKey]*pendingChange)
	return nil
}

// bumpVersion makes sure an updated aggregate leaves with a new version, even
// when the change did not go through a domain method that increments it.
func bumpVersion(e shared.Auditable, original int, loaded bool) {
	v, ok := e.(shared.Versioned)
	if !ok || !loaded {
		return
	}
	if v.GetVersion() == original {
		v.IncrementVersion()
	}
}

func auditTenant(pc *pendingChange, ctxTenant uuid.UUID) uuid.UUID {
	if t, ok := pc.Entity.(interface{ GetTenantID() uuid.UUID }); ok && t.GetTenantID() != uuid.Nil {
		return t.GetTenantID()
	}
	if pc.TenantID != uuid.Nil {
		return pc.TenantID
	}
	return ctxTenant
}

func actionVerb(a shared.AuditAction) string {
	switch a {
	case shared.AuditActionInsert:
		return "insert"
	case shared.AuditActionHardDelete:
		return "delete"
	default:
		return "update"
	}
}

// Writer persists one registered entity. Model is called at flush time, after
// stamping, so the row reflects the final state of the entity.
type Writer struct {
	Model func() any
	// Versioned updates are guarded by the version read when the entity was loaded
	Versioned bool
}

func (w Writer) insert(tx *gorm.DB) error {
	return tx.Omit(clause.Associations).Create(w.Model()).Error
}

func (w Writer) update(tx *gorm.DB, originalVersion int, loaded bool) error {
	model := w.Model()
	q := tx.Model(model).Select("*").Omit(clause.Associations)
	if w.Versioned && loaded {
		q = q.Where("version = ?", originalVersion)
	}
	result := q.Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (w Writer) delete(tx *gorm.DB) error {
	result := tx.Delete(w.Model())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IsConcurrencyConflict reports whether err comes from a failed version check
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, shared.ErrConcurrencyConflict)
}

var _ shared.UnitOfWork = (*GormUnitOfWork)(nil)
