package telemetry

import (
	"log/slog"
	"time"
)

// Типы событий жизненного цикла.
const (
	EventWorkflowStart     = "workflow_start"
	EventWorkflowComplete  = "workflow_complete"
	EventWorkflowError     = "workflow_error"
	EventWorkflowCancelled = "workflow_cancelled"
	EventNodeStart         = "node_start"
	EventNodeComplete      = "node_complete"
	EventNodeError         = "node_error"
)

// Event — событие жизненного цикла выполнения workflow.
type Event struct {
	Type        string         `json:"type"`
	WorkflowID  string         `json:"workflow_id"`
	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id,omitempty"`
	NodeType    string         `json:"node_type,omitempty"`
	Error       string         `json:"error,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data,omitempty"`
}

// Sink принимает события жизненного цикла.
//
// Публикация — fire-and-forget: sink не должен блокировать выполнение
// workflow и не возвращает ошибок вызывающему. Ошибки доставки sink
// логирует сам.
type Sink interface {
	Publish(event Event)
}

// LogSink пишет события в структурированный лог.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink создаёт LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Publish логирует событие.
func (s *LogSink) Publish(event Event) {
	attrs := []any{
		"event", event.Type,
		"workflow_id", event.WorkflowID,
		"execution_id", event.ExecutionID,
	}
	if event.NodeID != "" {
		attrs = append(attrs, "node_id", event.NodeID)
	}
	if event.Error != "" {
		attrs = append(attrs, "error", event.Error)
		s.logger.Error("workflow event", attrs...)
		return
	}
	s.logger.Info("workflow event", attrs...)
}

// MultiSink рассылает событие нескольким sink'ам.
type MultiSink []Sink

// Publish передаёт событие каждому sink'у.
func (m MultiSink) Publish(event Event) {
	for _, s := range m {
		s.Publish(event)
	}
}

// NopSink отбрасывает события.
type NopSink struct{}

// Publish ничего не делает.
func (NopSink) Publish(Event) {}
