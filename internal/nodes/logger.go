package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NodeTypeLogger — тип узла структурированного логирования.
const NodeTypeLogger = "logger"

// LoggerNode — узел, пишущий сообщение в структурированный лог.
//
// Конфигурация:
//
//	{
//	    "level": "info",        // debug | info | warn | error
//	    "message": "batch processed",
//	    "include_input": true   // добавить входные данные в запись
//	}
//
// Outputs:
//
//	{
//	    "logged": true,
//	    "timestamp": "2025-11-03T10:00:00Z"
//	}
type LoggerNode struct {
	id     string
	config map[string]any
	logger *slog.Logger
}

// LoggerInfo возвращает описание типа для реестра.
func LoggerInfo(logger *slog.Logger) TypeInfo {
	return TypeInfo{
		Type:     NodeTypeLogger,
		Category: "utility",
		Schema: map[string]any{
			"level":         map[string]any{"type": "string", "enum": []string{"debug", "info", "warn", "error"}},
			"message":       map[string]any{"type": "string", "required": true},
			"include_input": map[string]any{"type": "boolean"},
		},
		New: func(nodeID string, config, _ map[string]any) Node {
			return &LoggerNode{id: nodeID, config: config, logger: logger}
		},
	}
}

// Type возвращает тип узла.
func (n *LoggerNode) Type() string {
	return NodeTypeLogger
}

// ValidateConfig проверяет message и level.
func (n *LoggerNode) ValidateConfig() error {
	if GetConfigString(n.config, "message") == "" {
		return fmt.Errorf("%w: logger requires \"message\"", ErrInvalidConfig)
	}
	switch GetConfigString(n.config, "level") {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, GetConfigString(n.config, "level"))
	}
}

// Setup не требует ресурсов.
func (n *LoggerNode) Setup(_ context.Context) error {
	return nil
}

// Execute пишет запись в лог.
func (n *LoggerNode) Execute(ctx context.Context, input map[string]any, run RunContext) (map[string]any, error) {
	attrs := []any{
		"node_id", n.id,
	}
	if run != nil {
		attrs = append(attrs, "workflow_id", run.WorkflowID(), "execution_id", run.ExecutionID())
	}
	if GetConfigBool(n.config, "include_input", false) {
		attrs = append(attrs, "input", input)
	}

	message := GetConfigString(n.config, "message")

	switch GetConfigString(n.config, "level") {
	case "debug":
		n.logger.DebugContext(ctx, message, attrs...)
	case "warn":
		n.logger.WarnContext(ctx, message, attrs...)
	case "error":
		n.logger.ErrorContext(ctx, message, attrs...)
	default:
		n.logger.InfoContext(ctx, message, attrs...)
	}

	return map[string]any{
		"logged":    true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Stop не держит ресурсов.
func (n *LoggerNode) Stop() {}
