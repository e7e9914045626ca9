package httptransport

import (
	"net/http"
	"time"

	"poma/internal/event"
	"poma/pkg/platform/httputil"
)

type publishResponse struct {
	Status  string `json:"status"`
	Topic   string `json:"topic"`
	EntryID string `json:"entry_id"`
	Mirror  string `json:"mirror"`
}

// writePublishOutcome reports a publish result. A failed publish still
// exposes which sink committed: the topic append is never rolled back when
// the durable mirror fails, and callers need to see that.
func (h *Handler) writePublishOutcome(w http.ResponseWriter, r *http.Request, res event.Result, err error) {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "publish failed",
			"topic", res.Topic,
			"log_appended", res.LogAppended,
			"mirror", string(res.Mirror),
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusBadGateway, map[string]any{
			"error":        "store unavailable",
			"topic":        res.Topic,
			"log_appended": res.LogAppended,
			"mirror":       string(res.Mirror),
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, publishResponse{
		Status:  "published",
		Topic:   res.Topic,
		EntryID: res.EntryID,
		Mirror:  string(res.Mirror),
	})
}

type auditEventRequest struct {
	LogID      string         `json:"log_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Module     string         `json:"module"`
	Procedure  string         `json:"procedure"`
	Inputs     map[string]any `json:"inputs"`
	Outputs    map[string]any `json:"outputs"`
	Status     string         `json:"status"`
	SessionID  string         `json:"session_id"`
	WorkflowID string         `json:"workflow_id"`
	UserID     string         `json:"user_id"`
	Rationale  string         `json:"rationale"`
	ErrorCode  string         `json:"error_code"`
}

// HandlePublishAudit handles POST /events/audit.
func (h *Handler) HandlePublishAudit(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[auditEventRequest](w, r, h.logger)
	if !ok {
		return
	}
	switch {
	case req.LogID == "":
		httputil.WriteError(w, http.StatusBadRequest, "log_id is required")
		return
	case req.Timestamp.IsZero():
		httputil.WriteError(w, http.StatusBadRequest, "timestamp is required")
		return
	case req.Module == "" || req.Procedure == "" || req.Status == "":
		httputil.WriteError(w, http.StatusBadRequest, "module, procedure and status are required")
		return
	case req.Inputs == nil || req.Outputs == nil:
		httputil.WriteError(w, http.StatusBadRequest, "inputs and outputs are required")
		return
	}

	res, err := h.events.Publish(r.Context(), event.AuditLogEntry{
		LogID:      req.LogID,
		Timestamp:  req.Timestamp,
		Module:     req.Module,
		Procedure:  req.Procedure,
		Inputs:     req.Inputs,
		Outputs:    req.Outputs,
		Status:     req.Status,
		SessionID:  req.SessionID,
		WorkflowID: req.WorkflowID,
		UserID:     req.UserID,
		Rationale:  req.Rationale,
		ErrorCode:  req.ErrorCode,
	})
	h.writePublishOutcome(w, r, res, err)
}

// HandlePublishContextPatch handles POST /events/ccwj. The patch schema is
// open: declared fields are validated, everything else rides along.
func (h *Handler) HandlePublishContextPatch(w http.ResponseWriter, r *http.Request) {
	raw, ok := httputil.DecodeRaw(w, r, h.logger)
	if !ok {
		return
	}

	patchType, _ := popString(raw, "patch_type")
	targetID, _ := popString(raw, "target_id")
	if patchType == "" || targetID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "patch_type and target_id are required")
		return
	}
	changes := popMap(raw, "changes")

	res, err := h.events.Publish(r.Context(), event.ContextPatch{
		PatchType: patchType,
		TargetID:  targetID,
		Changes:   changes,
		Extra:     raw,
	})
	h.writePublishOutcome(w, r, res, err)
}

// HandlePublishFeedback handles POST /events/feedback.
func (h *Handler) HandlePublishFeedback(w http.ResponseWriter, r *http.Request) {
	raw, ok := httputil.DecodeRaw(w, r, h.logger)
	if !ok {
		return
	}

	feedbackType, _ := popString(raw, "feedback_type")
	message, _ := popString(raw, "message")
	if feedbackType == "" || message == "" {
		httputil.WriteError(w, http.StatusBadRequest, "feedback_type and message are required")
		return
	}

	userID, _ := popString(raw, "user_id")
	rating := popInt(raw, "rating")
	ts, ok := popTime(w, raw, "timestamp")
	if !ok {
		return
	}

	res, err := h.events.Publish(r.Context(), event.FeedbackEntry{
		FeedbackType: feedbackType,
		Message:      message,
		UserID:       userID,
		Rating:       rating,
		Timestamp:    ts,
		Extra:        raw,
	})
	h.writePublishOutcome(w, r, res, err)
}

// HandlePublishWorkflowEvent handles POST /events/workflow.
func (h *Handler) HandlePublishWorkflowEvent(w http.ResponseWriter, r *http.Request) {
	raw, ok := httputil.DecodeRaw(w, r, h.logger)
	if !ok {
		return
	}

	eventName, _ := popString(raw, "event_name")
	workflowID, _ := popString(raw, "workflow_id")
	status, _ := popString(raw, "status")
	if eventName == "" || workflowID == "" || status == "" {
		httputil.WriteError(w, http.StatusBadRequest, "event_name, workflow_id and status are required")
		return
	}

	payload := popMap(raw, "payload")
	ts, ok := popTime(w, raw, "timestamp")
	if !ok {
		return
	}

	res, err := h.events.Publish(r.Context(), event.WorkflowEvent{
		EventName:  eventName,
		WorkflowID: workflowID,
		Status:     status,
		Payload:    payload,
		Timestamp:  ts,
		Extra:      raw,
	})
	h.writePublishOutcome(w, r, res, err)
}

// popString removes key from raw and returns it as a string.
func popString(raw map[string]any, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	delete(raw, key)
	s, ok := v.(string)
	return s, ok
}

// popMap removes key from raw and returns it as an object; nil when absent
// or not an object.
func popMap(raw map[string]any, key string) map[string]any {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	m, _ := v.(map[string]any)
	return m
}

// popInt removes key from raw and returns it as an int pointer. JSON numbers
// decode as float64.
func popInt(raw map[string]any, key string) *int {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

// popTime removes an optional RFC 3339 timestamp from raw. A present but
// unparsable value is a 400; an absent one returns the zero time, letting
// the record apply its publish-time default.
func popTime(w http.ResponseWriter, raw map[string]any, key string) (time.Time, bool) {
	v, ok := raw[key]
	if !ok {
		return time.Time{}, true
	}
	delete(raw, key)
	s, ok := v.(string)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, key+" must be an RFC 3339 string")
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, key+" must be an RFC 3339 string")
		return time.Time{}, false
	}
	return ts, true
}
