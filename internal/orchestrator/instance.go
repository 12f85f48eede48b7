package orchestrator

import (
	"sync"
	"time"

	"github.com/shaiso/Nodeflow/internal/domain"
	"github.com/shaiso/Nodeflow/internal/nodes"
)

// statusRank задаёт порядок статусов узла для монотонных переходов.
var statusRank = map[domain.NodeStatus]int{
	domain.NodeStatusPending:      0,
	domain.NodeStatusInitializing: 1,
	domain.NodeStatusReady:        2,
	domain.NodeStatusRunning:      3,
	domain.NodeStatusCompleted:    4,
	domain.NodeStatusFailed:       4,
	domain.NodeStatusSkipped:      4,
	domain.NodeStatusStopped:      4,
}

// NodeInstance — runtime-обёртка над реализацией узла.
//
// Отслеживает статус и тайминги выполнения. Переходы статуса монотонны:
// откат назад игнорируется. Исключение — stopped, который форсируется
// из любого нетерминального состояния при отмене.
type NodeInstance struct {
	id   string
	node nodes.Node

	mu        sync.Mutex
	status    domain.NodeStatus
	startTime time.Time
	endTime   time.Time
}

// newNodeInstance создаёт инстанс в статусе pending.
func newNodeInstance(id string, node nodes.Node) *NodeInstance {
	return &NodeInstance{
		id:     id,
		node:   node,
		status: domain.NodeStatusPending,
	}
}

// ID возвращает id узла в workflow.
func (ni *NodeInstance) ID() string {
	return ni.id
}

// Type возвращает тип узла.
func (ni *NodeInstance) Type() string {
	return ni.node.Type()
}

// Node возвращает обёрнутую реализацию.
func (ni *NodeInstance) Node() nodes.Node {
	return ni.node
}

// Status возвращает текущий статус.
func (ni *NodeInstance) Status() domain.NodeStatus {
	ni.mu.Lock()
	defer ni.mu.Unlock()
	return ni.status
}

// setStatus выполняет монотонный переход статуса.
func (ni *NodeInstance) setStatus(status domain.NodeStatus) {
	ni.mu.Lock()
	defer ni.mu.Unlock()

	if statusRank[status] < statusRank[ni.status] {
		return
	}
	if ni.status.IsTerminal() {
		return
	}

	ni.status = status

	switch status {
	case domain.NodeStatusRunning:
		ni.startTime = time.Now()
	case domain.NodeStatusCompleted, domain.NodeStatusFailed, domain.NodeStatusStopped:
		ni.endTime = time.Now()
	}
}

// ForceStop вызывает Stop узла и форсирует статус stopped,
// если узел ещё не в терминальном состоянии.
func (ni *NodeInstance) ForceStop() {
	ni.node.Stop()

	ni.mu.Lock()
	defer ni.mu.Unlock()
	if !ni.status.IsTerminal() {
		ni.status = domain.NodeStatusStopped
		ni.endTime = time.Now()
	}
}

// Duration возвращает длительность выполнения узла.
func (ni *NodeInstance) Duration() time.Duration {
	ni.mu.Lock()
	defer ni.mu.Unlock()

	if ni.startTime.IsZero() {
		return 0
	}
	if ni.endTime.IsZero() {
		return time.Since(ni.startTime)
	}
	return ni.endTime.Sub(ni.startTime)
}
