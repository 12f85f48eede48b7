package api

import (
	"github.com/shaiso/Nodeflow/internal/domain"
)

// WorkflowResponse — ответ с кратким описанием workflow.
//
// Полное определение (узлы, рёбра) возвращает GetWorkflowDefinition.
type WorkflowResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Version   string           `json:"version,omitempty"`
	Status    string           `json:"status"`
	NodeCount int              `json:"node_count"`
	Schedule  *domain.Schedule `json:"schedule,omitempty"`
}

// WorkflowFromDomain конвертирует определение workflow в DTO.
func WorkflowFromDomain(def *domain.WorkflowDefinition, status domain.WorkflowStatus) WorkflowResponse {
	return WorkflowResponse{
		ID:        def.ID,
		Name:      def.Name,
		Version:   def.Version,
		Status:    string(status),
		NodeCount: len(def.Nodes),
		Schedule:  def.Schedule,
	}
}

// RegisterWorkflowResponse — ответ на регистрацию workflow.
type RegisterWorkflowResponse struct {
	ID string `json:"id"`
}

// ExecuteRequest — запрос на запуск workflow.
type ExecuteRequest struct {
	Trigger map[string]any `json:"trigger,omitempty"`
}

// ExecuteResponse — ответ на запуск workflow.
//
// Возвращается сразу после постановки выполнения в очередь; статус
// выполнения опрашивается отдельно по execution_id.
type ExecuteResponse struct {
	ExecutionID string `json:"execution_id"`
}
