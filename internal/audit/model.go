// Package audit keeps a hash-chained, append-only record of the
// actions that matter for a diagnosis platform: who uploaded and
// classified scans, who built reports, who activated accounts.
package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/coviddx/platform/internal/shared/types"
)

// Audited actions.
const (
	ActionAccountRegistered = "account.registered"
	ActionAccountActivated  = "account.activated"
	ActionAccountLogin      = "account.login"
	ActionScanClassified    = "scan.classified"
	ActionReportBuilt       = "report.built"
)

// AuditEntry is one immutable record in the audit chain. Each entry
// carries the hash of its predecessor, so any rewrite of history breaks
// verification from that point on.
type AuditEntry struct {
	ID        types.ID  `json:"id"`
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`
	PrevHash  string    `json:"prev_hash,omitempty"`

	ActorID   types.ID `json:"actor_id"`
	ActorRole string   `json:"actor_role"`

	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID *types.ID `json:"resource_id,omitempty"`

	Details map[string]any `json:"details,omitempty"`
}

// NewEntry creates an audit entry chained to prevHash.
func NewEntry(actorID types.ID, actorRole, action, resource string, resourceID *types.ID, details map[string]any, prevHash string) *AuditEntry {
	entry := &AuditEntry{
		ID:         types.NewID(),
		Timestamp:  time.Now().UTC().Truncate(time.Microsecond),
		PrevHash:   prevHash,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
	}
	entry.Hash = entry.computeHash()
	return entry
}

// computeHash hashes the entry over canonical JSON. The timestamp is
// always rendered in UTC so verification is timezone-independent.
func (e *AuditEntry) computeHash() string {
	data := map[string]any{
		"id":         e.ID,
		"timestamp":  e.Timestamp.UTC().Format(time.RFC3339Nano),
		"prev_hash":  e.PrevHash,
		"actor_id":   e.ActorID,
		"actor_role": e.ActorRole,
		"action":     e.Action,
		"resource":   e.Resource,
	}
	if e.ResourceID != nil {
		data["resource_id"] = e.ResourceID
	}
	if len(e.Details) > 0 {
		data["details"] = e.Details
	}

	jsonData, _ := canonicalJSON(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// VerifyHash reports whether the entry's stored hash matches its
// content.
func (e *AuditEntry) VerifyHash() bool {
	return e.Hash == e.computeHash()
}

// VerifyChain checks a sequence of entries, oldest first: every hash
// must match its content and every prev_hash must match the previous
// entry's hash. Returns the index of the first broken entry, or -1.
func VerifyChain(entries []*AuditEntry) int {
	prevHash := ""
	for i, entry := range entries {
		if i > 0 {
			prevHash = entries[i-1].Hash
		}
		if entry.PrevHash != prevHash || !entry.VerifyHash() {
			return i
		}
	}
	return -1
}

// canonicalJSON produces deterministic JSON with sorted map keys. Map
// iteration order is random in Go, so hashing plain json.Marshal output
// would not be reproducible.
func canonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	return canonicalMarshal(parsed)
}

func canonicalMarshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, _ := json.Marshal(k)
			buf.Write(keyBytes)
			buf.WriteByte(':')
			valBytes, err := canonicalMarshal(val[k])
			if err != nil {
				return nil, err
			}
			buf.Write(valBytes)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil

	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			itemBytes, err := canonicalMarshal(item)
			if err != nil {
				return nil, err
			}
			buf.Write(itemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil

	default:
		return json.Marshal(val)
	}
}

// ListFilter narrows an audit listing.
type ListFilter struct {
	ActorID  *types.ID
	Action   string
	Resource string
	Limit    int
}
