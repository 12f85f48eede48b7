package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ExecuteWorkflow запускает выполнение workflow.
// POST /api/v1/workflows/{id}/executions
//
// Возвращает execution_id немедленно, не дожидаясь завершения.
func (h *Handler) ExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	execID, err := h.engine.ExecuteByID(r.Context(), r.PathValue("id"), req.Trigger)
	if HandleEngineError(w, h.logger, err, "workflow not found") {
		return
	}

	Created(w, ExecuteResponse{ExecutionID: execID})
}

// GetExecution возвращает статус выполнения.
// GET /api/v1/executions/{id}
func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.GetExecutionStatus(r.PathValue("id"))
	if HandleEngineError(w, h.logger, err, "execution not found") {
		return
	}

	Success(w, snap)
}

// CancelExecution останавливает активное выполнение.
// POST /api/v1/executions/{id}/cancel
func (h *Handler) CancelExecution(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.engine.StopExecution(id); HandleEngineError(w, h.logger, err, "execution not found") {
		return
	}

	snap, err := h.engine.GetExecutionStatus(id)
	if HandleEngineError(w, h.logger, err, "execution not found") {
		return
	}

	Success(w, snap)
}
