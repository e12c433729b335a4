package store

import "context"

// StoreCommand is one atomic unit of work against the store, executed
// with a backend-specific context Ctx (pgx.Tx for the Postgres backend,
// the only StoreCommandExecutor here) so a command never has to know
// which backend it is running against (§4.10).
type StoreCommand[Ctx any] interface {
	// Execute runs the command's reads and writes against tx. A command
	// returning an error aborts the whole batch it was submitted with.
	Execute(ctx context.Context, tx Ctx) error
}

// StoreCommandExecutor submits one or more StoreCommands to run as a
// single atomic transaction against the store (§4.10 "unit-of-work
// commands executed atomically").
type StoreCommandExecutor[Ctx any] interface {
	ExecuteCommands(ctx context.Context, commands []StoreCommand[Ctx]) error
}

// CommandFunc adapts a plain function to StoreCommand, the way the
// teacher's storage layer favors small single-purpose closures over
// implementing an interface per call site.
type CommandFunc[Ctx any] func(ctx context.Context, tx Ctx) error

// Execute implements StoreCommand.
func (f CommandFunc[Ctx]) Execute(ctx context.Context, tx Ctx) error { return f(ctx, tx) }
