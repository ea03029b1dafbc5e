package repositories

import (
	"context"
)

// UnitOfWork runs repository calls in one transaction scope. The
// aggregator uses it to make "create settlement + claim orders" a single
// atomic step, and the state machine to pair each transition with its
// audit entry.
type UnitOfWork interface {
	// Do executes fn inside a transaction; the ctx it passes carries the
	// transaction handle for the repositories.
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
