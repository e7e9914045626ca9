package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"poma/internal/archive"
	"poma/internal/registry"
	"poma/internal/store/durable"
	"poma/internal/workflow"
	"poma/pkg/platform/httputil"
)

type statusResponse struct {
	Status string `json:"status"`
}

// HandleAddRegistryEntry handles POST /registry. Like the event kinds with
// open schemas, undeclared fields are kept on the stored document.
func (h *Handler) HandleAddRegistryEntry(w http.ResponseWriter, r *http.Request) {
	raw, ok := httputil.DecodeRaw(w, r, h.logger)
	if !ok {
		return
	}

	moduleName, _ := popString(raw, "module_name")
	version, _ := popString(raw, "version")
	status, _ := popString(raw, "status")
	if moduleName == "" || version == "" || status == "" {
		httputil.WriteError(w, http.StatusBadRequest, "module_name, version and status are required")
		return
	}

	entry := registry.Entry{
		ModuleName: moduleName,
		Version:    version,
		Status:     status,
		Extra:      raw,
	}
	entry.Emoji, _ = popString(raw, "emoji")
	entry.Scope, _ = popString(raw, "scope")
	entry.Description, _ = popString(raw, "description")
	entry.Outputs, _ = popString(raw, "outputs")
	entry.Owner, _ = popString(raw, "owner")
	entry.Dependencies = popStringSlice(raw, "dependencies")
	entry.InvocationExamples = popStringSlice(raw, "invocation_examples")
	entry.Procedures = popObjectSlice(raw, "procedures")

	if err := h.registry.Add(r.Context(), entry); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, statusResponse{Status: "created"})
}

// HandleUpdateRegistryEntry handles PATCH /registry/{moduleName}.
func (h *Handler) HandleUpdateRegistryEntry(w http.ResponseWriter, r *http.Request) {
	moduleName := chi.URLParam(r, "moduleName")
	patch, ok := httputil.DecodeRaw(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.registry.Update(r.Context(), moduleName, durable.Document(patch)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "updated"})
}

// HandleGetRegistryEntry handles GET /registry/{moduleName}.
func (h *Handler) HandleGetRegistryEntry(w http.ResponseWriter, r *http.Request) {
	doc, err := h.registry.Get(r.Context(), chi.URLParam(r, "moduleName"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// HandleCreateWorkflow handles POST /workflows.
func (h *Handler) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	raw, ok := httputil.DecodeRaw(w, r, h.logger)
	if !ok {
		return
	}

	workflowID, _ := popString(raw, "workflow_id")
	name, _ := popString(raw, "name")
	phases := popObjectSlice(raw, "phases")
	if workflowID == "" || name == "" || phases == nil {
		httputil.WriteError(w, http.StatusBadRequest, "workflow_id, name and phases are required")
		return
	}

	wf := workflow.Workflow{
		WorkflowID: workflowID,
		Name:       name,
		Phases:     phases,
		Extra:      raw,
	}
	wf.Status, _ = popString(raw, "status")
	wf.CurrentPhaseID, _ = popString(raw, "current_phase_id")

	if err := h.workflows.Create(r.Context(), wf); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, statusResponse{Status: "created"})
}

// HandleUpdateWorkflow handles PATCH /workflows/{workflowID}.
func (h *Handler) HandleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")
	patch, ok := httputil.DecodeRaw(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.workflows.Update(r.Context(), workflowID, durable.Document(patch)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "updated"})
}

// HandleGetWorkflow handles GET /workflows/{workflowID}.
func (h *Handler) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	doc, err := h.workflows.Get(r.Context(), chi.URLParam(r, "workflowID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

type chatMessageRequest struct {
	MessageID string         `json:"message_id"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Sender    string         `json:"sender"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
}

// HandleLogChatMessage handles POST /archive/chat.
func (h *Handler) HandleLogChatMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[chatMessageRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.MessageID == "" || req.SessionID == "" || req.Timestamp.IsZero() || req.Sender == "" || req.Content == "" {
		httputil.WriteError(w, http.StatusBadRequest, "message_id, session_id, timestamp, sender and content are required")
		return
	}

	err := h.archive.LogChatMessage(r.Context(), archive.ChatMessage{
		MessageID: req.MessageID,
		SessionID: req.SessionID,
		Timestamp: req.Timestamp,
		Sender:    req.Sender,
		Content:   req.Content,
		Metadata:  req.Metadata,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, statusResponse{Status: "archived"})
}

type contextSnapshotRequest struct {
	SnapshotID string         `json:"snapshot_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data"`
}

// HandleSaveContextSnapshot handles POST /archive/ccwj-snapshot.
func (h *Handler) HandleSaveContextSnapshot(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[contextSnapshotRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.SnapshotID == "" || req.Timestamp.IsZero() {
		httputil.WriteError(w, http.StatusBadRequest, "snapshot_id and timestamp are required")
		return
	}

	err := h.archive.SaveContextSnapshot(r.Context(), archive.ContextSnapshot{
		SnapshotID: req.SnapshotID,
		Timestamp:  req.Timestamp,
		Data:       req.Data,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, statusResponse{Status: "archived"})
}

type analyticsReportRequest struct {
	ReportName string         `json:"report_name"`
	Timestamp  time.Time      `json:"timestamp"`
	Metrics    map[string]any `json:"metrics"`
}

// HandleLogAnalyticsReport handles POST /archive/analytics.
func (h *Handler) HandleLogAnalyticsReport(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[analyticsReportRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.ReportName == "" || req.Timestamp.IsZero() {
		httputil.WriteError(w, http.StatusBadRequest, "report_name and timestamp are required")
		return
	}

	err := h.archive.LogAnalyticsReport(r.Context(), archive.AnalyticsReport{
		ReportName: req.ReportName,
		Timestamp:  req.Timestamp,
		Metrics:    req.Metrics,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, statusResponse{Status: "archived"})
}

// popStringSlice removes key from raw and returns it as a string slice.
func popStringSlice(raw map[string]any, key string) []string {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// popObjectSlice removes key from raw and returns it as a slice of objects.
func popObjectSlice(raw map[string]any, key string) []map[string]any {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
