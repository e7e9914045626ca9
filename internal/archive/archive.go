// Package archive handles write-only durable inserts: chat history, context
// window snapshots, and analytics reports. Nothing here is read back by this
// service; the collections exist for offline query.
package archive

import (
	"context"
	"fmt"
	"time"

	"poma/internal/store/durable"
)

const (
	collectionChat      = "chat_history"
	collectionSnapshots = "ccwj_snapshots"
	collectionAnalytics = "analytics"
)

// ChatMessage is one message within a chat session.
type ChatMessage struct {
	MessageID string
	SessionID string
	Timestamp time.Time
	Sender    string
	Content   string
	Metadata  map[string]any
}

// ContextSnapshot is a full capture of the context window at a point in time.
type ContextSnapshot struct {
	SnapshotID string
	Timestamp  time.Time
	Data       map[string]any
}

// AnalyticsReport is a named bundle of computed metrics.
type AnalyticsReport struct {
	ReportName string
	Timestamp  time.Time
	Metrics    map[string]any
}

// Service performs keyless archive inserts into the durable store.
type Service struct {
	store durable.Store
}

// New constructs an archive service.
func New(store durable.Store) *Service {
	return &Service{store: store}
}

// LogChatMessage archives a chat message.
func (s *Service) LogChatMessage(ctx context.Context, msg ChatMessage) error {
	doc := durable.Document{
		"message_id": msg.MessageID,
		"session_id": msg.SessionID,
		"timestamp":  msg.Timestamp.Format(time.RFC3339Nano),
		"sender":     msg.Sender,
		"content":    msg.Content,
	}
	if len(msg.Metadata) > 0 {
		doc["metadata"] = msg.Metadata
	}
	if err := s.store.Insert(ctx, collectionChat, "", doc); err != nil {
		return fmt.Errorf("log chat message: %w", err)
	}
	return nil
}

// SaveContextSnapshot archives a context window snapshot.
func (s *Service) SaveContextSnapshot(ctx context.Context, snap ContextSnapshot) error {
	doc := durable.Document{
		"snapshot_id": snap.SnapshotID,
		"timestamp":   snap.Timestamp.Format(time.RFC3339Nano),
		"data":        snap.Data,
	}
	if err := s.store.Insert(ctx, collectionSnapshots, "", doc); err != nil {
		return fmt.Errorf("save context snapshot: %w", err)
	}
	return nil
}

// LogAnalyticsReport archives an analytics report.
func (s *Service) LogAnalyticsReport(ctx context.Context, report AnalyticsReport) error {
	doc := durable.Document{
		"report_name": report.ReportName,
		"timestamp":   report.Timestamp.Format(time.RFC3339Nano),
		"metrics":     report.Metrics,
	}
	if err := s.store.Insert(ctx, collectionAnalytics, "", doc); err != nil {
		return fmt.Errorf("log analytics report: %w", err)
	}
	return nil
}
