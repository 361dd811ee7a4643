package repositories

import "context"

// ApplicationTxRunner is implemented by application stores that can run several writes as one
// unit of work. fn receives a writer bound to the transaction; returning an error rolls
// everything back.
//
// Stores without transactions do not implement it and the workflow service compensates
// instead, reverting each write it already made.
type ApplicationTxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, w ApplicationWriter) error) error
}
