// Package workflow manages workflow documents in the durable store. Like
// the registry, this is plain keyed document CRUD with timestamp stamping;
// workflow *events* are published through internal/event instead.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"poma/internal/store/durable"
)

const collection = "workflows"

// Workflow is a phase-ordered plan of work. WorkflowID, Name and Phases are
// required; phases themselves stay free-form documents.
type Workflow struct {
	WorkflowID     string
	Name           string
	Phases         []map[string]any
	Status         string
	CurrentPhaseID string
	Extra          map[string]any
}

func (w Workflow) document(now time.Time) durable.Document {
	doc := make(durable.Document, len(w.Extra)+7)
	for k, v := range w.Extra {
		doc[k] = v
	}
	doc["workflow_id"] = w.WorkflowID
	doc["name"] = w.Name
	doc["phases"] = w.Phases
	if w.Status != "" {
		doc["status"] = w.Status
	}
	if w.CurrentPhaseID != "" {
		doc["current_phase_id"] = w.CurrentPhaseID
	}
	ts := now.Format(time.RFC3339Nano)
	doc["created_at"] = ts
	doc["updated_at"] = ts
	return doc
}

// Service exposes workflow document CRUD over the durable store.
type Service struct {
	store  durable.Store
	logger *slog.Logger
}

// New constructs a workflow service.
func New(store durable.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create inserts a new workflow, stamping created_at and updated_at.
func (s *Service) Create(ctx context.Context, wf Workflow) error {
	if err := s.store.Insert(ctx, collection, wf.WorkflowID, wf.document(time.Now().UTC())); err != nil {
		return fmt.Errorf("create workflow %q: %w", wf.WorkflowID, err)
	}
	s.logger.InfoContext(ctx, "workflow created", "workflow_id", wf.WorkflowID, "name", wf.Name)
	return nil
}

// Update merges patch into an existing workflow and restamps updated_at.
// Returns durable.ErrNotFound when the workflow does not exist.
func (s *Service) Update(ctx context.Context, workflowID string, patch durable.Document) error {
	merged := make(durable.Document, len(patch)+1)
	for k, v := range patch {
		merged[k] = v
	}
	merged["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.store.Merge(ctx, collection, workflowID, merged); err != nil {
		return fmt.Errorf("update workflow %q: %w", workflowID, err)
	}
	return nil
}

// Get fetches a workflow by ID.
func (s *Service) Get(ctx context.Context, workflowID string) (durable.Document, error) {
	doc, err := s.store.FindOne(ctx, collection, workflowID)
	if err != nil {
		return nil, fmt.Errorf("get workflow %q: %w", workflowID, err)
	}
	return doc, nil
}
