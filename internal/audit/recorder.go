package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	"github.com/google/uuid"

	"github.com/coviddx/platform/internal/shared/errors"
	"github.com/coviddx/platform/internal/shared/metrics"
	"github.com/coviddx/platform/internal/shared/types"
)

const (
	// StreamName is the single stream holding the audit chain.
	StreamName = "coviddx-audit"
	// EntryEventType is the event type of audit entries.
	EntryEventType = "AuditEntry"
)

// chainStore is the slice of the event store the recorder needs.
type chainStore interface {
	// head returns the newest entry, or nil when the chain is empty.
	head(ctx context.Context) (*AuditEntry, error)
	// append writes an entry to the end of the chain.
	append(ctx context.Context, entry *AuditEntry) error
	// read returns up to max entries, oldest first.
	read(ctx context.Context, max uint64) ([]*AuditEntry, error)
}

// Recorder appends audit entries to an append-only store, so recorded
// history cannot be edited in place; the hash chain additionally pins
// the order.
type Recorder struct {
	store chainStore

	mu       sync.Mutex
	lastHash string
	sequence int64
}

// NewRecorder creates an audit recorder on an existing KurrentDB
// client.
func NewRecorder(client *esdb.Client) *Recorder {
	return &Recorder{store: &kurrentStore{client: client}}
}

func newRecorder(store chainStore) *Recorder {
	return &Recorder{store: store}
}

// Initialize loads the chain head so new entries continue the existing
// chain after a restart.
func (r *Recorder) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.store.head(ctx)
	if err != nil {
		return err
	}
	if entry != nil {
		r.lastHash = entry.Hash
		r.sequence = entry.Sequence
	}

	return nil
}

// Record appends a new entry to the chain.
func (r *Recorder) Record(ctx context.Context, actorID types.ID, actorRole, action, resource string, resourceID *types.ID, details map[string]any) (*AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := NewEntry(actorID, actorRole, action, resource, resourceID, details, r.lastHash)
	entry.Sequence = r.sequence + 1

	if err := r.store.append(ctx, entry); err != nil {
		return nil, err
	}

	r.lastHash = entry.Hash
	r.sequence = entry.Sequence
	metrics.RecordAuditEntry()

	return entry, nil
}

// List reads entries oldest first, applying the filter in memory. The
// stream for a demo deployment stays small; a projection would replace
// this at scale.
func (r *Recorder) List(ctx context.Context, filter ListFilter) ([]*AuditEntry, error) {
	maxEvents := uint64(1000)
	if filter.Limit > 0 {
		maxEvents = uint64(filter.Limit)
	}

	all, err := r.store.read(ctx, maxEvents)
	if err != nil {
		return nil, err
	}

	var entries []*AuditEntry
	for _, entry := range all {
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

// Verify reads the whole chain and checks it. Returns the sequence of
// the first broken entry, or -1 when the chain is intact.
func (r *Recorder) Verify(ctx context.Context) (int64, error) {
	entries, err := r.List(ctx, ListFilter{})
	if err != nil {
		return 0, err
	}

	if i := VerifyChain(entries); i >= 0 {
		return entries[i].Sequence, nil
	}
	return -1, nil
}

// kurrentStore persists the chain in a single KurrentDB stream.
type kurrentStore struct {
	client *esdb.Client
}

func (s *kurrentStore) head(ctx context.Context) (*AuditEntry, error) {
	stream, err := s.client.ReadStream(ctx, StreamName, esdb.ReadStreamOptions{
		Direction: esdb.Backwards,
		From:      esdb.End{},
	}, 1)
	if err != nil {
		// A missing stream means an empty chain.
		if esdbErr, ok := esdb.FromError(err); ok && esdbErr.Code() == esdb.ErrorCodeResourceNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read audit stream")
	}
	defer stream.Close()

	event, err := stream.Recv()
	if err != nil {
		return nil, nil
	}
	if event.Event == nil || event.Event.EventType != EntryEventType {
		return nil, nil
	}

	var entry AuditEntry
	if err := json.Unmarshal(event.Event.Data, &entry); err != nil {
		return nil, nil
	}
	return &entry, nil
}

func (s *kurrentStore) append(ctx context.Context, entry *AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to marshal audit entry")
	}

	eventData := esdb.EventData{
		EventID:     uuid.New(),
		EventType:   EntryEventType,
		ContentType: esdb.ContentTypeJson,
		Data:        data,
		Metadata:    []byte(fmt.Sprintf(`{"sequence":%d,"hash":"%s"}`, entry.Sequence, entry.Hash)),
	}

	if _, err := s.client.AppendToStream(ctx, StreamName, esdb.AppendToStreamOptions{}, eventData); err != nil {
		return errors.Wrap(err, "failed to append audit entry")
	}
	return nil
}

func (s *kurrentStore) read(ctx context.Context, max uint64) ([]*AuditEntry, error) {
	stream, err := s.client.ReadStream(ctx, StreamName, esdb.ReadStreamOptions{
		Direction: esdb.Forwards,
		From:      esdb.Start{},
	}, max)
	if err != nil {
		if esdbErr, ok := esdb.FromError(err); ok && esdbErr.Code() == esdb.ErrorCodeResourceNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read audit stream")
	}
	defer stream.Close()

	var entries []*AuditEntry
	for {
		event, err := stream.Recv()
		if err != nil {
			break
		}
		if event.Event == nil || event.Event.EventType != EntryEventType {
			continue
		}

		var entry AuditEntry
		if err := json.Unmarshal(event.Event.Data, &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}
