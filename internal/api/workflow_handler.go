package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/Nodeflow/internal/engine"
	"github.com/shaiso/Nodeflow/internal/repo"
)

// ListWorkflows возвращает список зарегистрированных workflows.
// GET /api/v1/workflows
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	defs := h.engine.ListWorkflows()

	result := make([]WorkflowResponse, len(defs))
	for i, def := range defs {
		status, _ := h.engine.GetWorkflowStatus(def.ID)
		result[i] = WorkflowFromDomain(def, status)
	}

	List(w, result, len(result))
}

// RegisterWorkflow регистрирует новый workflow.
// POST /api/v1/workflows
//
// Тело запроса — определение workflow в JSON; принимаются оба диалекта
// рёбер (from/to и source/target).
func (h *Handler) RegisterWorkflow(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	def, err := engine.FromMap(doc)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	id, err := h.engine.Register(def)
	if HandleEngineError(w, h.logger, err, "") {
		return
	}

	if h.workflowRepo != nil {
		if err := h.workflowRepo.Save(r.Context(), def); err != nil {
			h.logger.Error("failed to persist workflow definition",
				"workflow_id", id, "error", err)
		}
	}

	Created(w, RegisterWorkflowResponse{ID: id})
}

// GetWorkflow возвращает краткое описание workflow.
// GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	def, err := h.engine.GetWorkflow(id)
	if HandleEngineError(w, h.logger, err, "workflow not found") {
		return
	}

	status, _ := h.engine.GetWorkflowStatus(id)
	Success(w, WorkflowFromDomain(def, status))
}

// GetWorkflowDefinition возвращает полное определение workflow.
// GET /api/v1/workflows/{id}/definition
func (h *Handler) GetWorkflowDefinition(w http.ResponseWriter, r *http.Request) {
	def, err := h.engine.GetWorkflow(r.PathValue("id"))
	if HandleEngineError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, def)
}

// DeleteWorkflow удаляет workflow из движка и из хранилища определений.
// DELETE /api/v1/workflows/{id}
//
// Workflow с активным выполнением не удаляется (409): сначала cancel.
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.engine.Unregister(id); HandleEngineError(w, h.logger, err, "workflow not found") {
		return
	}

	if h.workflowRepo != nil {
		// Определение могло и не быть сохранено — отсутствие строки не ошибка
		if err := h.workflowRepo.Delete(r.Context(), id); err != nil && !errors.Is(err, repo.ErrNotFound) {
			InternalError(w, h.logger, err)
			return
		}
	}

	NoContent(w)
}

// ListNodeTypes возвращает описания всех типов узлов реестра.
// GET /api/v1/node-types
func (h *Handler) ListNodeTypes(w http.ResponseWriter, r *http.Request) {
	infos := h.registry.DescribeAll()
	List(w, infos, len(infos))
}
