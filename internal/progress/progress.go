// Package progress persists each log follower's cursor: the offset of the
// next event it has yet to process.
package progress

import (
	"context"

	"github.com/snipelabs/sniper/internal/eventlog"
	"github.com/snipelabs/sniper/internal/persistence"
)

// Tracker records, per service, that every event below the stored offset
// has been durably processed. An absent record means "resume at the log's
// start offset".
type Tracker interface {
	// Load reads a service's cursor outside a transaction.
	Load(ctx context.Context, conn persistence.Connection, serviceID string) (*eventlog.Offset, error)

	// LoadTx reads a service's cursor inside a transaction.
	LoadTx(ctx context.Context, tx persistence.Transaction, serviceID string) (*eventlog.Offset, error)

	// StoreTx advances a service's cursor. It must run in the same
	// transaction as the side effects it commits for; otherwise
	// at-least-once processing degenerates into possible silent loss.
	StoreTx(ctx context.Context, tx persistence.Transaction, serviceID string, offset eventlog.Offset) error
}
