package audit

import (
	"context"

	"github.com/coviddx/platform/internal/shared/types"
)

// Log is the surface handlers use to append to and read the audit
// chain. An interface so recording can be exercised in tests without a
// live event store.
type Log interface {
	// Record appends an entry continuing the hash chain.
	Record(ctx context.Context, actorID types.ID, actorRole, action, resource string, resourceID *types.ID, details map[string]any) (*AuditEntry, error)

	// List reads entries oldest first.
	List(ctx context.Context, filter ListFilter) ([]*AuditEntry, error)

	// Verify checks the whole chain. Returns the sequence of the first
	// broken entry, or -1 when intact.
	Verify(ctx context.Context) (int64, error)
}

// Ensure the KurrentDB-backed recorder satisfies the interface
var _ Log = (*Recorder)(nil)
