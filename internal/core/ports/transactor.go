package ports

import "context"

// Transactor runs fn inside a single store transaction. The transaction is
// carried by the context passed to fn; repositories pick it up from there.
// Nested calls join the outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
