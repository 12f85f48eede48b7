package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/shaiso/Nodeflow/internal/domain"
	"github.com/shaiso/Nodeflow/internal/engine"
	"github.com/shaiso/Nodeflow/internal/nodes"
	"github.com/shaiso/Nodeflow/internal/schedule"
	"github.com/shaiso/Nodeflow/internal/telemetry"
)

// Значения конфигурации по умолчанию.
const (
	defaultMaxConcurrentWorkflows = 5
	defaultSchedulerTick          = time.Second
	defaultRetainedExecutions     = 100
)

// Engine — движок выполнения workflow.
//
// Центральный компонент системы:
//   - регистрирует и валидирует определения workflow
//   - запускает выполнения (fire-and-track: Execute возвращает execution_id
//     сразу, не дожидаясь завершения)
//   - ограничивает число одновременных выполнений weighted-семафором
//   - ведёт планировщик расписаний (interval и cron)
//   - отдаёт статусы workflow и выполнений
type Engine struct {
	registry *nodes.Registry
	sink     telemetry.Sink
	logger   *slog.Logger

	maxConcurrent int64
	sem           *semaphore.Weighted
	tick          time.Duration
	retained      int

	mu        sync.RWMutex
	workflows map[string]*domain.WorkflowDefinition
	statuses  map[string]domain.WorkflowStatus
	lastRun   map[string]time.Time
	nextDue   map[string]time.Time

	// executions — активные выполнения; terminal — завершённые,
	// ограниченная таблица для статусных запросов.
	executions    map[string]*ExecutionContext
	terminal      map[string]*ExecutionContext
	terminalOrder []string

	// Lifecycle планировщика.
	started    bool
	stopped    bool
	cancelFunc context.CancelFunc
	schedWG    sync.WaitGroup
	runWG      sync.WaitGroup
}

// Config — конфигурация Engine.
type Config struct {
	// Registry — реестр типов узлов (обязателен).
	Registry *nodes.Registry

	// MaxConcurrentWorkflows — максимум одновременных выполнений (default: 5).
	MaxConcurrentWorkflows int64

	// SchedulerTick — период опроса расписаний (default: 1s).
	SchedulerTick time.Duration

	// RetainedExecutions — сколько терминальных выполнений хранить (default: 100).
	RetainedExecutions int

	// Sink — приёмник событий жизненного цикла (default: лог).
	Sink telemetry.Sink

	// Logger — логгер (default: slog.Default).
	Logger *slog.Logger
}

// New создаёт новый Engine.
func New(cfg Config) *Engine {
	maxConcurrent := cfg.MaxConcurrentWorkflows
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentWorkflows
	}

	tick := cfg.SchedulerTick
	if tick <= 0 {
		tick = defaultSchedulerTick
	}

	retained := cfg.RetainedExecutions
	if retained <= 0 {
		retained = defaultRetainedExecutions
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sink := cfg.Sink
	if sink == nil {
		sink = telemetry.NewLogSink(logger)
	}

	return &Engine{
		registry:      cfg.Registry,
		sink:          sink,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		sem:           semaphore.NewWeighted(maxConcurrent),
		tick:          tick,
		retained:      retained,
		workflows:     make(map[string]*domain.WorkflowDefinition),
		statuses:      make(map[string]domain.WorkflowStatus),
		lastRun:       make(map[string]time.Time),
		nextDue:       make(map[string]time.Time),
		executions:    make(map[string]*ExecutionContext),
		terminal:      make(map[string]*ExecutionContext),
	}
}

// Register валидирует и регистрирует определение workflow.
//
// Если id отсутствует, назначается новый. Workflow, не прошедший
// валидацию, не регистрируется ни частично, ни целиком.
func (e *Engine) Register(def *domain.WorkflowDefinition) (string, error) {
	if def == nil {
		return "", fmt.Errorf("%w: nil definition", ErrValidationFailed)
	}

	if findings := engine.Validate(def, e.registry); len(findings) > 0 {
		return "", fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(findings...))
	}
	if err := schedule.Validate(def.Schedule); err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	if def.ID == "" {
		def.ID = uuid.New().String()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return "", ErrEngineStopped
	}

	e.workflows[def.ID] = def
	e.statuses[def.ID] = domain.WorkflowStatusRegistered

	if def.Schedule != nil {
		e.scheduleNextDueLocked(def, time.Now())
	}

	e.logger.Info("workflow registered",
		"workflow_id", def.ID,
		"name", def.Name,
		"nodes", len(def.Nodes),
	)
	return def.ID, nil
}

// Unregister удаляет определение workflow из движка.
//
// Workflow с активным выполнением не удаляется: сначала StopExecution.
// Завершённые выполнения остаются доступными через GetExecutionStatus
// до вытеснения из таблицы завершённых.
func (e *Engine) Unregister(workflowID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.workflows[workflowID]; !ok {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	for _, ec := range e.executions {
		if ec.workflowID == workflowID {
			return fmt.Errorf("%w: %s", ErrWorkflowRunning, workflowID)
		}
	}

	delete(e.workflows, workflowID)
	delete(e.statuses, workflowID)
	delete(e.lastRun, workflowID)
	delete(e.nextDue, workflowID)

	e.logger.Info("workflow unregistered", "workflow_id", workflowID)
	return nil
}

// scheduleNextDueLocked вычисляет первое due-время для workflow.
// Interval без предыдущих запусков означает "запустить немедленно".
func (e *Engine) scheduleNextDueLocked(def *domain.WorkflowDefinition, now time.Time) {
	if def.Schedule.IsInterval() {
		e.nextDue[def.ID] = now
		return
	}
	next, err := schedule.NextDue(def.Schedule, now)
	if err != nil {
		// Расписание прошло Validate, сюда попадать не должно
		e.logger.Error("failed to compute next due", "workflow_id", def.ID, "error", err)
		return
	}
	e.nextDue[def.ID] = next
}

// Execute запускает выполнение определения.
//
// Незарегистрированное определение регистрируется автоматически.
// Возвращает execution_id сразу после планирования запуска; результат
// наблюдается через GetExecutionStatus.
func (e *Engine) Execute(ctx context.Context, def *domain.WorkflowDefinition, trigger map[string]any) (string, error) {
	if def == nil {
		return "", fmt.Errorf("%w: nil definition", ErrValidationFailed)
	}

	e.mu.RLock()
	_, known := e.workflows[def.ID]
	e.mu.RUnlock()

	if def.ID == "" || !known {
		if _, err := e.Register(def); err != nil {
			return "", err
		}
	}

	return e.ExecuteByID(ctx, def.ID, trigger)
}

// ExecuteByID запускает выполнение зарегистрированного workflow.
func (e *Engine) ExecuteByID(ctx context.Context, workflowID string, trigger map[string]any) (string, error) {
	e.mu.Lock()

	if e.stopped {
		e.mu.Unlock()
		return "", ErrEngineStopped
	}

	def, ok := e.workflows[workflowID]
	if !ok {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}

	executionID := uuid.New().String()
	ec := newExecutionContext(workflowID, executionID, def, trigger)

	e.executions[executionID] = ec
	e.statuses[workflowID] = domain.WorkflowStatusRunning
	e.runWG.Add(1)
	e.mu.Unlock()

	e.logger.Info("execution scheduled",
		"workflow_id", workflowID,
		"execution_id", executionID,
	)

	// Семафор берётся внутри горутины: Execute возвращается сразу,
	// а запуск ждёт свободного слота (fire-and-track).
	go func() {
		defer e.runWG.Done()

		if err := e.sem.Acquire(ec.ctx, 1); err != nil {
			e.finalize(ec, domain.ExecutionStatusCancelled, nil, nil)
			return
		}
		defer e.sem.Release(1)

		e.run(ec)
	}()

	return executionID, nil
}

// StopExecution отменяет выполнение.
//
// Отмена кооперативная: выполнение завершится на ближайшей точке
// приостановки. Stop вызывается у всех активных инстансов узлов.
func (e *Engine) StopExecution(executionID string) error {
	e.mu.RLock()
	ec, active := e.executions[executionID]
	e.mu.RUnlock()

	if !active {
		e.mu.RLock()
		_, wasRun := e.terminal[executionID]
		e.mu.RUnlock()
		if wasRun {
			return ErrExecutionFinished
		}
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}

	e.logger.Info("stopping execution",
		"workflow_id", ec.workflowID,
		"execution_id", executionID,
	)

	e.mu.Lock()
	e.statuses[ec.workflowID] = domain.WorkflowStatusStopped
	e.mu.Unlock()

	ec.cancel()
	ec.stopNodes()
	return nil
}

// Start запускает цикл планировщика. Идемпотентен.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started || e.stopped {
		return
	}
	e.started = true

	ctx, cancel := context.WithCancel(context.Background())
	e.cancelFunc = cancel

	e.schedWG.Add(1)
	go func() {
		defer e.schedWG.Done()
		e.schedulerLoop(ctx)
	}()

	e.logger.Info("engine started", "scheduler_tick", e.tick)
}

// Stop останавливает планировщик и все активные выполнения,
// дожидаясь их завершения.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true

	active := make([]*ExecutionContext, 0, len(e.executions))
	for _, ec := range e.executions {
		active = append(active, ec)
	}
	e.mu.Unlock()

	e.logger.Info("stopping engine", "active_executions", len(active))

	if e.cancelFunc != nil {
		e.cancelFunc()
	}
	for _, ec := range active {
		ec.cancel()
		ec.stopNodes()
	}

	e.schedWG.Wait()
	e.runWG.Wait()

	e.logger.Info("engine stopped")
}

// schedulerLoop опрашивает расписания раз в tick.
// Ошибка тика логируется, цикл продолжает работу с увеличенной паузой.
func (e *Engine) schedulerLoop(ctx context.Context) {
	delay := e.tick
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := e.schedulerTick(ctx); err != nil {
			e.logger.Error("scheduler tick failed", "error", err)
			delay = min(delay*2, 30*e.tick)
		} else {
			delay = e.tick
		}
		timer.Reset(delay)
	}
}

// schedulerTick запускает workflow с наступившим расписанием.
// Workflow с уже идущим выполнением пропускается до следующего тика.
func (e *Engine) schedulerTick(ctx context.Context) error {
	now := time.Now()

	e.mu.RLock()
	due := make([]string, 0)
	for id, at := range e.nextDue {
		if !now.Before(at) {
			due = append(due, id)
		}
	}
	e.mu.RUnlock()

	var firstErr error
	for _, id := range due {
		if e.hasRunningExecution(id) {
			continue
		}

		e.mu.Lock()
		def := e.workflows[id]
		if def == nil || def.Schedule == nil {
			delete(e.nextDue, id)
			e.mu.Unlock()
			continue
		}
		e.scheduleNextDueFromLocked(def, now)
		e.mu.Unlock()

		trigger := map[string]any{"source": "schedule", "scheduled_at": now}
		if _, err := e.ExecuteByID(ctx, id, trigger); err != nil {
			e.logger.Error("scheduled execution failed to start",
				"workflow_id", id,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// scheduleNextDueFromLocked переводит due-время на следующий слот после now.
func (e *Engine) scheduleNextDueFromLocked(def *domain.WorkflowDefinition, now time.Time) {
	next, err := schedule.NextDue(def.Schedule, now)
	if err != nil {
		e.logger.Error("failed to compute next due", "workflow_id", def.ID, "error", err)
		delete(e.nextDue, def.ID)
		return
	}
	e.nextDue[def.ID] = next
}

// hasRunningExecution проверяет, есть ли активное выполнение workflow.
func (e *Engine) hasRunningExecution(workflowID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ec := range e.executions {
		if ec.workflowID == workflowID {
			return true
		}
	}
	return false
}

// GetWorkflow возвращает определение зарегистрированного workflow.
func (e *Engine) GetWorkflow(workflowID string) (*domain.WorkflowDefinition, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	def, ok := e.workflows[workflowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	return def, nil
}

// ListWorkflows возвращает все зарегистрированные workflow.
func (e *Engine) ListWorkflows() []*domain.WorkflowDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()

	defs := make([]*domain.WorkflowDefinition, 0, len(e.workflows))
	for _, def := range e.workflows {
		defs = append(defs, def)
	}
	return defs
}

// GetWorkflowStatus возвращает статус workflow.
func (e *Engine) GetWorkflowStatus(workflowID string) (domain.WorkflowStatus, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	status, ok := e.statuses[workflowID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	return status, nil
}

// GetExecutionStatus возвращает снимок состояния выполнения,
// активного или недавно завершённого.
func (e *Engine) GetExecutionStatus(executionID string) (Snapshot, error) {
	e.mu.RLock()
	ec, ok := e.executions[executionID]
	if !ok {
		ec, ok = e.terminal[executionID]
	}
	e.mu.RUnlock()

	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}
	return ec.Snapshot(), nil
}

// ActiveExecutions возвращает число активных выполнений.
func (e *Engine) ActiveExecutions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.executions)
}

// finalize фиксирует терминальное состояние выполнения и переносит
// контекст в таблицу завершённых.
func (e *Engine) finalize(ec *ExecutionContext, status domain.ExecutionStatus, result map[string]any, err error) {
	ec.finish(status, result, err)
	ec.cancel()

	e.mu.Lock()
	delete(e.executions, ec.executionID)

	e.terminal[ec.executionID] = ec
	e.terminalOrder = append(e.terminalOrder, ec.executionID)
	for len(e.terminalOrder) > e.retained {
		oldest := e.terminalOrder[0]
		e.terminalOrder = e.terminalOrder[1:]
		delete(e.terminal, oldest)
	}

	e.lastRun[ec.workflowID] = time.Now()

	// STOPPED выставляется в StopExecution и не перетирается
	if e.statuses[ec.workflowID] != domain.WorkflowStatusStopped {
		switch status {
		case domain.ExecutionStatusCompleted:
			e.statuses[ec.workflowID] = domain.WorkflowStatusCompleted
		case domain.ExecutionStatusFailed:
			e.statuses[ec.workflowID] = domain.WorkflowStatusFailed
		case domain.ExecutionStatusCancelled:
			e.statuses[ec.workflowID] = domain.WorkflowStatusStopped
		}
	}
	e.mu.Unlock()

	telemetry.ExecutionsFinished.WithLabelValues(string(status)).Inc()
}
