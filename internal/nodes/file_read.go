package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

const (
	// NodeTypeFileReader — тип узла чтения файла.
	NodeTypeFileReader = "file_reader"

	// Форматы содержимого.
	fileFormatJSON = "json"
	fileFormatText = "text"
)

// FileReaderNode — узел чтения файла.
//
// Конфигурация:
//
//	{
//	    "path": "data/input.json",
//	    "format": "json"  // "json" (по умолчанию) или "text"
//	}
//
// Outputs:
//
//	{
//	    "content": <распарсенный JSON или строка>,
//	    "path": "data/input.json",
//	    "size": 1234
//	}
type FileReaderNode struct {
	id     string
	config map[string]any
}

// FileReaderInfo возвращает описание типа для реестра.
func FileReaderInfo() TypeInfo {
	return TypeInfo{
		Type:     NodeTypeFileReader,
		Category: "data",
		Schema: map[string]any{
			"path":   map[string]any{"type": "string", "required": true},
			"format": map[string]any{"type": "string", "enum": []string{fileFormatJSON, fileFormatText}},
		},
		New: func(nodeID string, config, _ map[string]any) Node {
			return &FileReaderNode{id: nodeID, config: config}
		},
	}
}

// Type возвращает тип узла.
func (n *FileReaderNode) Type() string {
	return NodeTypeFileReader
}

// ValidateConfig проверяет наличие path и корректность format.
func (n *FileReaderNode) ValidateConfig() error {
	if GetConfigString(n.config, "path") == "" {
		return fmt.Errorf("%w: file_reader requires \"path\"", ErrInvalidConfig)
	}
	if format := GetConfigString(n.config, "format"); format != "" &&
		format != fileFormatJSON && format != fileFormatText {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, format)
	}
	return nil
}

// Setup не требует ресурсов.
func (n *FileReaderNode) Setup(_ context.Context) error {
	return nil
}

// Execute читает файл и возвращает его содержимое.
//
// Путь можно переопределить входом "path" (например, если upstream-узел
// вычислил имя файла).
func (n *FileReaderNode) Execute(ctx context.Context, input map[string]any, _ RunContext) (map[string]any, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrExecutionCancelled, ctx.Err())
	default:
	}

	path := GetConfigString(n.config, "path")
	if override, ok := input["path"].(string); ok && override != "" {
		path = override
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var content any = string(data)
	if format := GetConfigString(n.config, "format"); format == "" || format == fileFormatJSON {
		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			if format == fileFormatJSON {
				return nil, fmt.Errorf("parse JSON from %s: %w", path, err)
			}
			// format не задан — оставляем сырой текст
		} else {
			content = parsed
		}
	}

	return map[string]any{
		"content": content,
		"path":    path,
		"size":    len(data),
	}, nil
}

// Stop не держит ресурсов.
func (n *FileReaderNode) Stop() {}
