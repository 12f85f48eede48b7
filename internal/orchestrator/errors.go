package orchestrator

import (
	"errors"
	"fmt"
)

// Ошибки оркестратора.
var (
	// ErrWorkflowNotFound — workflow не зарегистрирован.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionNotFound — выполнение не найдено.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionFinished — выполнение уже завершено, остановка невозможна.
	ErrExecutionFinished = errors.New("execution already finished")

	// ErrWorkflowRunning — у workflow есть активное выполнение,
	// удаление невозможно.
	ErrWorkflowRunning = errors.New("workflow has a running execution")

	// ErrEngineStopped — движок остановлен, новые запуски не принимаются.
	ErrEngineStopped = errors.New("engine stopped")

	// ErrValidationFailed — определение не прошло валидацию.
	ErrValidationFailed = errors.New("workflow validation failed")
)

// NodeExecutionError — ошибка выполнения узла.
//
// Оборачивает исходную ошибку узла вместе с его id: пользователь видит
// упавший узел и исходную причину, не голый stack trace.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

// Error реализует интерфейс error.
func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// WorkflowError — ошибка уровня выполнения workflow.
//
// Возникает при падении обязательного узла или фатальной ошибке
// инициализации. Отмена выполнения в WorkflowError не заворачивается.
type WorkflowError struct {
	WorkflowID  string
	ExecutionID string
	Err         error
}

// Error реализует интерфейс error.
func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow %s execution %s: %v", e.WorkflowID, e.ExecutionID, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *WorkflowError) Unwrap() error {
	return e.Err
}
