package shared

import "context"

// UnitOfWork runs fn inside one database transaction. Repository writes made
// with the context passed to fn are flushed, audited and committed together
// when the outermost Execute returns nil; any error rolls everything back.
// A nested Execute joins the transaction already carried by ctx.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}
