package event

import (
	"time"

	"poma/internal/store/durable"
)

// Topic names. All topics share the coordination store's key namespace.
const (
	TopicAuditLog     = "mcp:audit_log_stream"
	TopicContextPatch = "mcp:ccwj_update_stream"
	TopicFeedback     = "mcp:user_feedback"
	TopicWorkflow     = "mcp:workflow_events"
)

// Mirror collections. Collection names match their topic base names.
const (
	CollectionAuditLogs = "audit_logs"
	CollectionFeedback  = "user_feedback"
)

// Record is the closed set of publishable event shapes. Each kind carries
// its own topic, optional mirror collection, and default-timestamp rule, so
// publish-time dispatch is exhaustive over the four concrete types below.
//
// Records reaching the publisher are already validated: required fields are
// checked at the transport boundary before a Record is ever constructed.
type Record interface {
	// Topic is the append-only log this record is published to.
	Topic() string
	// MirrorCollection names the durable collection to mirror into;
	// ok is false for kinds that only hit the topic log.
	MirrorCollection() (collection string, ok bool)
	// document renders the canonical JSON object written to both sinks,
	// applying publish-time defaults. now is the publish time.
	document(now time.Time) durable.Document
}

// AuditLogEntry records the execution of a procedure, with caller-assigned
// identity. Mirrored durably.
type AuditLogEntry struct {
	LogID     string
	Timestamp time.Time
	Module    string
	Procedure string
	Inputs    map[string]any
	Outputs   map[string]any
	Status    string

	SessionID  string
	WorkflowID string
	UserID     string
	Rationale  string
	ErrorCode  string
}

func (AuditLogEntry) Topic() string { return TopicAuditLog }

func (AuditLogEntry) MirrorCollection() (string, bool) { return CollectionAuditLogs, true }

func (e AuditLogEntry) document(time.Time) durable.Document {
	doc := durable.Document{
		"log_id":    e.LogID,
		"timestamp": e.Timestamp.Format(time.RFC3339Nano),
		"module":    e.Module,
		"procedure": e.Procedure,
		"inputs":    emptyMap(e.Inputs),
		"outputs":   emptyMap(e.Outputs),
		"status":    e.Status,
	}
	putNonEmpty(doc, "session_id", e.SessionID)
	putNonEmpty(doc, "workflow_id", e.WorkflowID)
	putNonEmpty(doc, "user_id", e.UserID)
	putNonEmpty(doc, "rationale", e.Rationale)
	putNonEmpty(doc, "error_code", e.ErrorCode)
	return doc
}

// ContextPatch is a delta against the current context window. Log only, no
// mirror. Extra carries fields beyond the declared schema.
type ContextPatch struct {
	PatchType string
	TargetID  string
	Changes   map[string]any
	Extra     map[string]any
}

func (ContextPatch) Topic() string { return TopicContextPatch }

func (ContextPatch) MirrorCollection() (string, bool) { return "", false }

func (p ContextPatch) document(time.Time) durable.Document {
	doc := withExtra(p.Extra)
	doc["patch_type"] = p.PatchType
	doc["target_id"] = p.TargetID
	doc["changes"] = emptyMap(p.Changes)
	return doc
}

// FeedbackEntry is user-submitted feedback. Mirrored durably; the timestamp
// defaults to publish time when the caller left it unset.
type FeedbackEntry struct {
	FeedbackType string
	Message      string
	UserID       string
	Rating       *int
	Timestamp    time.Time
	Extra        map[string]any
}

func (FeedbackEntry) Topic() string { return TopicFeedback }

func (FeedbackEntry) MirrorCollection() (string, bool) { return CollectionFeedback, true }

func (e FeedbackEntry) document(now time.Time) durable.Document {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = now
	}
	doc := withExtra(e.Extra)
	doc["feedback_type"] = e.FeedbackType
	doc["message"] = e.Message
	doc["timestamp"] = ts.Format(time.RFC3339Nano)
	putNonEmpty(doc, "user_id", e.UserID)
	if e.Rating != nil {
		doc["rating"] = *e.Rating
	}
	return doc
}

// WorkflowEvent marks a workflow lifecycle transition. Log only; the
// timestamp defaults to publish time when the caller left it unset.
type WorkflowEvent struct {
	EventName  string
	WorkflowID string
	Status     string
	Payload    map[string]any
	Timestamp  time.Time
	Extra      map[string]any
}

func (WorkflowEvent) Topic() string { return TopicWorkflow }

func (WorkflowEvent) MirrorCollection() (string, bool) { return "", false }

func (e WorkflowEvent) document(now time.Time) durable.Document {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = now
	}
	doc := withExtra(e.Extra)
	doc["event_name"] = e.EventName
	doc["workflow_id"] = e.WorkflowID
	doc["status"] = e.Status
	doc["payload"] = emptyMap(e.Payload)
	doc["timestamp"] = ts.Format(time.RFC3339Nano)
	return doc
}

// withExtra seeds a document from undeclared fields; declared fields are
// written afterwards and win on collision.
func withExtra(extra map[string]any) durable.Document {
	doc := make(durable.Document, len(extra)+6)
	for k, v := range extra {
		doc[k] = v
	}
	return doc
}

func putNonEmpty(doc durable.Document, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

func emptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
