package domain

// WorkflowStatus — статус зарегистрированного workflow.
//
// Жизненный цикл:
//
//	REGISTERED → RUNNING → COMPLETED
//	                     ↘ FAILED
//	                     ↘ STOPPED (по запросу)
//
// Workflow можно запускать повторно после завершения: терминальные статусы
// и REGISTERED эквивалентны с точки зрения повторного входа в RUNNING.
type WorkflowStatus string

const (
	// WorkflowStatusRegistered — workflow зарегистрирован, не выполняется.
	WorkflowStatusRegistered WorkflowStatus = "REGISTERED"

	// WorkflowStatusRunning — есть активное выполнение.
	WorkflowStatusRunning WorkflowStatus = "RUNNING"

	// WorkflowStatusCompleted — последнее выполнение завершилось успешно.
	WorkflowStatusCompleted WorkflowStatus = "COMPLETED"

	// WorkflowStatusFailed — последнее выполнение завершилось с ошибкой.
	WorkflowStatusFailed WorkflowStatus = "FAILED"

	// WorkflowStatusStopped — выполнение остановлено пользователем.
	WorkflowStatusStopped WorkflowStatus = "STOPPED"
)

// ExecutionStatus — статус одного запуска workflow.
//
// Жизненный цикл:
//
//	created → running → completed
//	                  ↘ failed
//	                  ↘ cancelled
type ExecutionStatus string

const (
	// ExecutionStatusCreated — контекст создан, выполнение ещё не началось.
	ExecutionStatusCreated ExecutionStatus = "created"

	// ExecutionStatusRunning — выполнение идёт.
	ExecutionStatusRunning ExecutionStatus = "running"

	// ExecutionStatusCompleted — выполнение успешно завершено.
	ExecutionStatusCompleted ExecutionStatus = "completed"

	// ExecutionStatusFailed — выполнение завершилось с ошибкой.
	ExecutionStatusFailed ExecutionStatus = "failed"

	// ExecutionStatusCancelled — выполнение отменено.
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// IsTerminal возвращает true, если статус финальный.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	default:
		return false
	}
}

// NodeStatus — статус узла внутри выполнения.
//
// Переходы монотонны:
//
//	pending → initializing → ready → running → completed
//	                                         ↘ failed
//	                 (не запускался) → skipped
//
// Исключение — stopped: форсируется из любого нетерминального статуса
// при отмене выполнения.
type NodeStatus string

const (
	NodeStatusPending      NodeStatus = "pending"
	NodeStatusInitializing NodeStatus = "initializing"
	NodeStatusReady        NodeStatus = "ready"
	NodeStatusRunning      NodeStatus = "running"
	NodeStatusCompleted    NodeStatus = "completed"
	NodeStatusFailed       NodeStatus = "failed"
	NodeStatusSkipped      NodeStatus = "skipped"
	NodeStatusStopped      NodeStatus = "stopped"
)

// IsTerminal возвращает true, если статус узла финальный.
func (s NodeStatus) IsTerminal() bool {
	switch s {
	case NodeStatusCompleted, NodeStatusFailed, NodeStatusSkipped, NodeStatusStopped:
		return true
	default:
		return false
	}
}
