package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/shaiso/Nodeflow/internal/domain"
)

// ExecutionContext — состояние одного запуска workflow в памяти.
//
// Создаётся при запуске и мутируется только горутиной движка, ведущей
// это выполнение; читатели (API, планировщик) получают снапшоты.
// После завершения контекст переносится в ограниченную таблицу
// терминальных выполнений для статусных запросов.
type ExecutionContext struct {
	workflowID  string
	executionID string

	// def — неизменяемый снапшот определения на момент запуска.
	def *domain.WorkflowDefinition

	// trigger — данные, с которыми запущено выполнение.
	trigger map[string]any

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	status      domain.ExecutionStatus
	startTime   time.Time
	endTime     time.Time
	activeNodes map[string]*NodeInstance
	nodeResults map[string]map[string]any
	failedNodes map[string]string
	variables   map[string]any
	result      map[string]any
	runErr      error
}

// newExecutionContext создаёт контекст выполнения.
func newExecutionContext(workflowID, executionID string, def *domain.WorkflowDefinition, trigger map[string]any) *ExecutionContext {
	ctx, cancel := context.WithCancel(context.Background())

	if trigger == nil {
		trigger = make(map[string]any)
	}

	return &ExecutionContext{
		workflowID:  workflowID,
		executionID: executionID,
		def:         def,
		trigger:     trigger,
		ctx:         ctx,
		cancel:      cancel,
		status:      domain.ExecutionStatusCreated,
		activeNodes: make(map[string]*NodeInstance),
		nodeResults: make(map[string]map[string]any),
		failedNodes: make(map[string]string),
		variables:   make(map[string]any),
	}
}

// WorkflowID возвращает ID workflow. Часть nodes.RunContext.
func (ec *ExecutionContext) WorkflowID() string {
	return ec.workflowID
}

// ExecutionID возвращает ID выполнения. Часть nodes.RunContext.
func (ec *ExecutionContext) ExecutionID() string {
	return ec.executionID
}

// Variable возвращает общую переменную запуска. Часть nodes.RunContext.
func (ec *ExecutionContext) Variable(name string) (any, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	v, ok := ec.variables[name]
	return v, ok
}

// SetVariable устанавливает общую переменную запуска. Часть nodes.RunContext.
func (ec *ExecutionContext) SetVariable(name string, value any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.variables[name] = value
}

// Status возвращает текущий статус выполнения.
func (ec *ExecutionContext) Status() domain.ExecutionStatus {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.status
}

// markRunning переводит выполнение в running.
func (ec *ExecutionContext) markRunning() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.status = domain.ExecutionStatusRunning
	ec.startTime = time.Now()
}

// finish фиксирует терминальный статус и время завершения.
func (ec *ExecutionContext) finish(status domain.ExecutionStatus, result map[string]any, err error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if ec.status.IsTerminal() {
		return
	}
	ec.status = status
	ec.endTime = time.Now()
	ec.result = result
	ec.runErr = err
}

// setNodeResult записывает результат узла.
func (ec *ExecutionContext) setNodeResult(nodeID string, result map[string]any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.nodeResults[nodeID] = result
}

// setNodeFailed записывает падение узла.
//
// Для необязательных узлов это не останавливает выполнение: в node_results
// остаётся запись со статусом failed, а downstream-рёбра резолвятся в nil.
func (ec *ExecutionContext) setNodeFailed(nodeID string, err error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.failedNodes[nodeID] = err.Error()
	ec.nodeResults[nodeID] = map[string]any{
		"status": "failed",
		"error":  err.Error(),
	}
}

// nodeResult возвращает результат узла и признак его падения.
func (ec *ExecutionContext) nodeResult(nodeID string) (map[string]any, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	if _, failed := ec.failedNodes[nodeID]; failed {
		return nil, true
	}
	return ec.nodeResults[nodeID], false
}

// addNode регистрирует инстанс узла в контексте.
func (ec *ExecutionContext) addNode(instance *NodeInstance) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.activeNodes[instance.ID()] = instance
}

// node возвращает инстанс узла.
func (ec *ExecutionContext) node(nodeID string) *NodeInstance {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.activeNodes[nodeID]
}

// stopNodes вызывает Stop у всех инстансов и форсирует статус stopped
// для нетерминальных.
func (ec *ExecutionContext) stopNodes() {
	ec.mu.RLock()
	instances := make([]*NodeInstance, 0, len(ec.activeNodes))
	for _, inst := range ec.activeNodes {
		instances = append(instances, inst)
	}
	ec.mu.RUnlock()

	for _, inst := range instances {
		inst.ForceStop()
	}
}

// Snapshot — снимок состояния выполнения для статусных запросов.
type Snapshot struct {
	ExecutionID string                    `json:"execution_id"`
	WorkflowID  string                    `json:"workflow_id"`
	Status      domain.ExecutionStatus    `json:"status"`
	StartTime   time.Time                 `json:"start_time,omitzero"`
	EndTime     time.Time                 `json:"end_time,omitzero"`
	Nodes       map[string]NodeSnapshot   `json:"nodes"`
	NodeResults map[string]map[string]any `json:"node_results,omitempty"`
	Result      map[string]any            `json:"result,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

// NodeSnapshot — снимок состояния одного узла.
type NodeSnapshot struct {
	Type     string            `json:"type"`
	Status   domain.NodeStatus `json:"status"`
	Duration time.Duration     `json:"duration_ns,omitempty"`
}

// Snapshot возвращает согласованный снимок состояния выполнения.
func (ec *ExecutionContext) Snapshot() Snapshot {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	snap := Snapshot{
		ExecutionID: ec.executionID,
		WorkflowID:  ec.workflowID,
		Status:      ec.status,
		StartTime:   ec.startTime,
		EndTime:     ec.endTime,
		Nodes:       make(map[string]NodeSnapshot, len(ec.activeNodes)),
		NodeResults: make(map[string]map[string]any, len(ec.nodeResults)),
		Result:      ec.result,
	}
	for id, inst := range ec.activeNodes {
		snap.Nodes[id] = NodeSnapshot{
			Type:     inst.Type(),
			Status:   inst.Status(),
			Duration: inst.Duration(),
		}
	}
	for id, result := range ec.nodeResults {
		snap.NodeResults[id] = result
	}
	if ec.runErr != nil {
		snap.Error = ec.runErr.Error()
	}
	return snap
}
