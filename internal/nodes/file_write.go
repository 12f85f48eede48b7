package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NodeTypeFileWriter — тип узла записи файла.
const NodeTypeFileWriter = "file_writer"

// FileWriterNode — узел записи данных в файл.
//
// Конфигурация:
//
//	{
//	    "path": "out/result.json",
//	    "format": "json",      // "json" (по умолчанию) или "text"
//	    "append": false,
//	    "input_key": "data"    // ключ входных данных для записи (по умолчанию "data")
//	}
//
// Записывает значение input[input_key]; если ключа нет — весь input
// без служебного поля trigger.
//
// Outputs:
//
//	{
//	    "path": "out/result.json",
//	    "bytes_written": 512
//	}
type FileWriterNode struct {
	id     string
	config map[string]any
}

// FileWriterInfo возвращает описание типа для реестра.
func FileWriterInfo() TypeInfo {
	return TypeInfo{
		Type:     NodeTypeFileWriter,
		Category: "data",
		Schema: map[string]any{
			"path":      map[string]any{"type": "string", "required": true},
			"format":    map[string]any{"type": "string", "enum": []string{fileFormatJSON, fileFormatText}},
			"append":    map[string]any{"type": "boolean"},
			"input_key": map[string]any{"type": "string"},
		},
		New: func(nodeID string, config, _ map[string]any) Node {
			return &FileWriterNode{id: nodeID, config: config}
		},
	}
}

// Type возвращает тип узла.
func (n *FileWriterNode) Type() string {
	return NodeTypeFileWriter
}

// ValidateConfig проверяет наличие path и корректность format.
func (n *FileWriterNode) ValidateConfig() error {
	if GetConfigString(n.config, "path") == "" {
		return fmt.Errorf("%w: file_writer requires \"path\"", ErrInvalidConfig)
	}
	if format := GetConfigString(n.config, "format"); format != "" &&
		format != fileFormatJSON && format != fileFormatText {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, format)
	}
	return nil
}

// Setup не требует ресурсов.
func (n *FileWriterNode) Setup(_ context.Context) error {
	return nil
}

// Execute сериализует данные и пишет их в файл.
//
// Повторный вызов перезаписывает файл тем же содержимым (append-режим —
// осознанное исключение из идемпотентности, включается явно).
func (n *FileWriterNode) Execute(ctx context.Context, input map[string]any, _ RunContext) (map[string]any, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrExecutionCancelled, ctx.Err())
	default:
	}

	path := GetConfigString(n.config, "path")
	value := n.pickValue(input)

	data, err := n.serialize(value)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if GetConfigBool(n.config, "append", false) {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open file %s: %w", path, err)
		}
		defer f.Close()
		if _, err := f.Write(append(data, '\n')); err != nil {
			return nil, fmt.Errorf("append to file %s: %w", path, err)
		}
	} else {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write file %s: %w", path, err)
		}
	}

	return map[string]any{
		"path":          path,
		"bytes_written": len(data),
	}, nil
}

// Stop не держит ресурсов.
func (n *FileWriterNode) Stop() {}

// pickValue выбирает, что именно записывать.
func (n *FileWriterNode) pickValue(input map[string]any) any {
	key := GetConfigString(n.config, "input_key")
	if key == "" {
		key = "data"
	}
	if v, ok := input[key]; ok {
		return v
	}

	// Ключа нет — пишем весь вход без trigger-поля.
	out := make(map[string]any, len(input))
	for k, v := range input {
		if k == "trigger" {
			continue
		}
		out[k] = v
	}
	return out
}

// serialize превращает значение в байты согласно формату.
func (n *FileWriterNode) serialize(value any) ([]byte, error) {
	if GetConfigString(n.config, "format") == fileFormatText {
		if s, ok := value.(string); ok {
			return []byte(s), nil
		}
		return []byte(fmt.Sprintf("%v", value)), nil
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal output: %w", err)
	}
	return data, nil
}
