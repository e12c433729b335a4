// Package authpool bounds the work done against a freshly accepted, not
// yet authorized connection (§4.2) so a burst of inbound dials cannot
// starve whatever else shares the process with the authorization
// handshake.
//
// Grounded on original_source/libsplinter/src/network/auth/pool.rs's
// ThreadPool/JobExecutor/ShutdownSignaler split, generalized from a
// fixed-size OS thread pool to a goroutine pool bounded by
// golang.org/x/sync/errgroup.SetLimit — internal/dispatch.Dispatcher
// already made the same OS-thread-pool-to-bounded-goroutine-pool
// translation for handler execution, and this package mirrors it for
// the authorization path specifically.
package authpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool bounds concurrent authorization jobs to size at a time, tied to
// ctx's lifetime.
type Pool struct {
	group *errgroup.Group
}

// New builds a Pool admitting at most size jobs concurrently.
func New(ctx context.Context, size int) *Pool {
	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(size)
	return &Pool{group: group}
}

// Executor returns a handle callers submit jobs through. Mirrors the
// original's JobExecutor/ThreadPool split: many callers can hold an
// Executor without owning the Pool's lifecycle.
func (p *Pool) Executor() Executor {
	return Executor{group: p.group}
}

// Wait blocks until every submitted job has returned, reporting the
// first non-nil error, if any. Mirrors ThreadPool::join_all.
func (p *Pool) Wait() error {
	return p.group.Wait()
}

// Executor submits jobs to a Pool. Safe for concurrent use and cheap to
// copy, like the original's JobExecutor.
type Executor struct {
	group *errgroup.Group
}

// Execute submits f to run on the pool, blocking only if every slot is
// already in use. f's error, if any, surfaces through the owning Pool's
// Wait.
func (e Executor) Execute(f func() error) {
	e.group.Go(f)
}
