package application

import "context"

// UnitOfWork scopes one invocation: account writes and ledger transfers made
// with the context passed to fn commit together or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopUoW runs fn directly; used with stores that apply each write atomically.
type NoopUoW struct{}

func (NoopUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
