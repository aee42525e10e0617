// Package audittest provides an in-memory audit log for tests.
package audittest

import (
	"context"

	"github.com/coviddx/platform/internal/audit"
	"github.com/coviddx/platform/internal/shared/types"
)

// Log implements audit.Log in memory, chaining entries the same way
// the real recorder does.
type Log struct {
	Entries []*audit.AuditEntry
}

var _ audit.Log = (*Log)(nil)

// Record appends an entry continuing the in-memory chain.
func (l *Log) Record(ctx context.Context, actorID types.ID, actorRole, action, resource string, resourceID *types.ID, details map[string]any) (*audit.AuditEntry, error) {
	prevHash := ""
	if n := len(l.Entries); n > 0 {
		prevHash = l.Entries[n-1].Hash
	}

	entry := audit.NewEntry(actorID, actorRole, action, resource, resourceID, details, prevHash)
	entry.Sequence = int64(len(l.Entries)) + 1
	l.Entries = append(l.Entries, entry)
	return entry, nil
}

// List returns recorded entries oldest first.
func (l *Log) List(ctx context.Context, filter audit.ListFilter) ([]*audit.AuditEntry, error) {
	var entries []*audit.AuditEntry
	for _, entry := range l.Entries {
		if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.Resource != "" && entry.Resource != filter.Resource {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Verify checks the in-memory chain.
func (l *Log) Verify(ctx context.Context) (int64, error) {
	if i := audit.VerifyChain(l.Entries); i >= 0 {
		return l.Entries[i].Sequence, nil
	}
	return -1, nil
}
