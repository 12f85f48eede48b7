package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"dario.cat/mergo"

	"github.com/shaiso/Nodeflow/internal/domain"
	"github.com/shaiso/Nodeflow/internal/engine"
	"github.com/shaiso/Nodeflow/internal/nodes"
	"github.com/shaiso/Nodeflow/internal/telemetry"
)

// run ведёт одно выполнение workflow от инициализации до терминального
// статуса. Вызывается в собственной горутине после захвата семафора.
func (e *Engine) run(ec *ExecutionContext) {
	logger := e.logger.With(
		"workflow_id", ec.workflowID,
		"execution_id", ec.executionID,
	)

	ec.markRunning()
	telemetry.ExecutionsStarted.Inc()
	telemetry.ActiveExecutions.Inc()
	defer telemetry.ActiveExecutions.Dec()

	e.emit(telemetry.EventWorkflowStart, ec, "", "", nil)
	logger.Info("execution started", "nodes", len(ec.def.Nodes))

	// Инициализация всех узлов: любая ошибка здесь фатальна для запуска
	if err := e.initNodes(ec); err != nil {
		if isCancellation(ec, err) {
			e.cancelRun(ec, logger)
			return
		}
		e.failRun(ec, logger, err)
		return
	}

	levels, err := engine.Plan(ec.def)
	if err != nil {
		e.failRun(ec, logger, err)
		return
	}
	required := engine.RequiredNodes(ec.def)

	for i, level := range levels {
		if ec.ctx.Err() != nil {
			e.markRemainingSkipped(ec, levels[i:])
			e.cancelRun(ec, logger)
			return
		}

		logger.Debug("executing level", "level", i, "nodes", level)

		failures := e.runLevel(ec, level)

		if ec.ctx.Err() != nil {
			e.markRemainingSkipped(ec, levels[i+1:])
			e.cancelRun(ec, logger)
			return
		}

		// Падение обязательного узла фатально; необязательные падения
		// уже записаны в node_results, выполнение продолжается
		for _, nodeErr := range failures {
			if required[nodeErr.NodeID] {
				e.markRemainingSkipped(ec, levels[i+1:])
				e.failRun(ec, logger, nodeErr)
				return
			}
		}
	}

	result := e.assembleOutput(ec)
	e.finalize(ec, domain.ExecutionStatusCompleted, result, nil)
	ec.stopNodes()

	e.emit(telemetry.EventWorkflowComplete, ec, "", "", nil)
	logger.Info("execution completed", "duration", time.Since(ec.startTime))
}

// initNodes создаёт и инициализирует все инстансы узлов.
// Узлы создаются в отсортированном порядке id для детерминизма.
func (e *Engine) initNodes(ec *ExecutionContext) error {
	ids := make([]string, 0, len(ec.def.Nodes))
	for id := range ec.def.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		nodeDef := ec.def.Nodes[id]

		node, err := e.registry.Create(nodeDef.Type, id, nodeDef.Config, nodeDef.Credentials)
		if err != nil {
			return &WorkflowError{
				WorkflowID:  ec.workflowID,
				ExecutionID: ec.executionID,
				Err:         fmt.Errorf("create node %s: %w", id, err),
			}
		}

		instance := newNodeInstance(id, node)
		ec.addNode(instance)
		instance.setStatus(domain.NodeStatusInitializing)

		if err := node.Setup(ec.ctx); err != nil {
			if isCancellation(ec, err) {
				return err
			}
			instance.setStatus(domain.NodeStatusFailed)
			return &WorkflowError{
				WorkflowID:  ec.workflowID,
				ExecutionID: ec.executionID,
				Err:         fmt.Errorf("setup node %s: %w", id, err),
			}
		}
		instance.setStatus(domain.NodeStatusReady)
	}
	return nil
}

// runLevel выполняет все узлы уровня конкурентно и собирает падения.
//
// Семантика gather-with-exceptions: падение одного узла не отменяет
// его соседей по уровню, все завершаются и все ошибки собираются.
func (e *Engine) runLevel(ec *ExecutionContext, level []string) []*NodeExecutionError {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []*NodeExecutionError
	)

	for _, nodeID := range level {
		wg.Add(1)
		go func(nodeID string) {
			defer wg.Done()

			if err := e.runNode(ec, nodeID); err != nil {
				mu.Lock()
				failures = append(failures, &NodeExecutionError{NodeID: nodeID, Err: err})
				mu.Unlock()
			}
		}(nodeID)
	}
	wg.Wait()

	// Детерминированный порядок для выбора "первой" фатальной ошибки
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].NodeID < failures[j].NodeID
	})

	for _, f := range failures {
		if !isCancellation(ec, f.Err) {
			ec.setNodeFailed(f.NodeID, f.Err)
		}
	}
	return failures
}

// runNode выполняет один узел: собирает вход, выполняет, записывает результат.
func (e *Engine) runNode(ec *ExecutionContext, nodeID string) error {
	instance := ec.node(nodeID)
	nodeDef := ec.def.Nodes[nodeID]

	input, err := e.buildInput(ec, nodeID)
	if err != nil {
		instance.setStatus(domain.NodeStatusFailed)
		return err
	}

	instance.setStatus(domain.NodeStatusRunning)
	e.emit(telemetry.EventNodeStart, ec, nodeID, nodeDef.Type, nil)

	start := time.Now()
	result, err := instance.Node().Execute(ec.ctx, input, ec)
	telemetry.ObserveNodeDuration(nodeDef.Type, time.Since(start))

	if err != nil {
		if ec.ctx.Err() != nil {
			return err
		}
		instance.setStatus(domain.NodeStatusFailed)
		telemetry.NodeFailures.WithLabelValues(nodeDef.Type).Inc()
		e.emit(telemetry.EventNodeError, ec, nodeID, nodeDef.Type, err)
		return err
	}

	instance.setStatus(domain.NodeStatusCompleted)
	ec.setNodeResult(nodeID, result)
	e.emit(telemetry.EventNodeComplete, ec, nodeID, nodeDef.Type, nil)
	return nil
}

// buildInput собирает вход узла: trigger-данные плюс значения,
// смаршрутизированные по входящим рёбрам.
//
// Ребро с source_output "output" передаёт весь результат источника,
// иначе — значение по dotted-path (отсутствующий путь даёт nil).
// Упавший необязательный источник резолвится в nil. Несколько рёбер
// в один target_input с map-значениями сливаются глубоко.
func (e *Engine) buildInput(ec *ExecutionContext, nodeID string) (map[string]any, error) {
	input := map[string]any{
		"trigger": ec.trigger,
	}

	for _, edge := range ec.def.Edges {
		if edge.Target != nodeID {
			continue
		}

		key := edge.EffectiveTargetInput()

		sourceResult, failed := ec.nodeResult(edge.Source)
		if failed || sourceResult == nil {
			if _, exists := input[key]; !exists {
				input[key] = nil
			}
			continue
		}

		value := domain.ExtractPath(sourceResult, edge.EffectiveSourceOutput())

		existing, merged := input[key].(map[string]any)
		incoming, isMap := value.(map[string]any)
		if merged && isMap {
			if err := mergo.Merge(&existing, incoming); err != nil {
				return nil, fmt.Errorf("merge input %q for node %s: %w", key, nodeID, err)
			}
			input[key] = existing
			continue
		}
		input[key] = value
	}

	return input, nil
}

// assembleOutput собирает итоговый результат выполнения.
//
// Без объявленных outputs возвращаются все node_results; иначе для
// каждого output извлекается dotted-path из результата его узла
// (отсутствующий путь даёт nil).
func (e *Engine) assembleOutput(ec *ExecutionContext) map[string]any {
	metadata := map[string]any{
		"workflow_id":  ec.workflowID,
		"execution_id": ec.executionID,
		"started_at":   ec.startTime,
	}

	ec.mu.RLock()
	defer ec.mu.RUnlock()

	if len(ec.def.Outputs) == 0 {
		results := make(map[string]any, len(ec.nodeResults))
		for id, r := range ec.nodeResults {
			results[id] = r
		}
		return map[string]any{
			"results":  results,
			"metadata": metadata,
		}
	}

	out := make(map[string]any, len(ec.def.Outputs)+1)
	for name, outputDef := range ec.def.Outputs {
		if _, failed := ec.failedNodes[outputDef.Node]; failed {
			out[name] = nil
			continue
		}
		out[name] = domain.ExtractPath(ec.nodeResults[outputDef.Node], outputDef.Path)
	}
	out["__metadata__"] = metadata
	return out
}

// markRemainingSkipped помечает ещё не выполнявшиеся узлы как skipped.
func (e *Engine) markRemainingSkipped(ec *ExecutionContext, levels [][]string) {
	for _, level := range levels {
		for _, nodeID := range level {
			if inst := ec.node(nodeID); inst != nil {
				inst.setStatus(domain.NodeStatusSkipped)
			}
		}
	}
}

// failRun завершает выполнение с ошибкой.
func (e *Engine) failRun(ec *ExecutionContext, logger *slog.Logger, err error) {
	var wfErr *WorkflowError
	if !errors.As(err, &wfErr) {
		err = &WorkflowError{
			WorkflowID:  ec.workflowID,
			ExecutionID: ec.executionID,
			Err:         err,
		}
	}

	e.finalize(ec, domain.ExecutionStatusFailed, nil, err)
	ec.stopNodes()

	e.emit(telemetry.EventWorkflowError, ec, "", "", err)
	logger.Error("execution failed", "error", err)
}

// cancelRun фиксирует отмену выполнения.
// Отмена — не ошибка: в WorkflowError не заворачивается.
func (e *Engine) cancelRun(ec *ExecutionContext, logger *slog.Logger) {
	e.finalize(ec, domain.ExecutionStatusCancelled, nil, context.Canceled)
	ec.stopNodes()

	e.emit(telemetry.EventWorkflowCancelled, ec, "", "", nil)
	logger.Info("execution cancelled")
}

// emit публикует событие жизненного цикла в sink.
func (e *Engine) emit(eventType string, ec *ExecutionContext, nodeID, nodeType string, err error) {
	event := telemetry.Event{
		Type:        eventType,
		WorkflowID:  ec.workflowID,
		ExecutionID: ec.executionID,
		NodeID:      nodeID,
		NodeType:    nodeType,
		Timestamp:   time.Now(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	e.sink.Publish(event)
}

// isCancellation различает отмену запуска и настоящие ошибки узла.
//
// Ошибка считается отменой только при уже отменённом контексте выполнения:
// узел может вернуть context.DeadlineExceeded из собственного таймаута
// (например, таймаута http-клиента), и это обычное падение узла,
// а не отмена запуска.
func isCancellation(ec *ExecutionContext, err error) bool {
	if ec.ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, nodes.ErrExecutionCancelled)
}
