package ports

import "context"

// TxRunner executes fn as a single atomic unit against the store. Every
// repository call made with the ctx passed to fn commits or rolls back
// together.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
