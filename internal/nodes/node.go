package nodes

import (
	"context"
	"errors"
)

// Ошибки узлов.
var (
	// ErrNodeTypeNotFound — тип узла не найден в реестре.
	ErrNodeTypeNotFound = errors.New("node type not found")

	// ErrInvalidConfig — невалидная конфигурация узла.
	ErrInvalidConfig = errors.New("invalid node config")

	// ErrSetupFailed — одноразовая инициализация узла не удалась.
	ErrSetupFailed = errors.New("node setup failed")

	// ErrExecutionCancelled — выполнение узла отменено.
	ErrExecutionCancelled = errors.New("node execution cancelled")
)

// Node — контракт подключаемого узла workflow.
//
// Жизненный цикл экземпляра: ValidateConfig → Setup → Execute (возможно,
// несколько раз из-за retry) → Stop. Движок никогда не делает special-case
// по типу узла: всё взаимодействие идёт через этот интерфейс.
type Node interface {
	// Type возвращает тип узла (имя в реестре).
	Type() string

	// ValidateConfig проверяет конфигурацию узла.
	// Вызывается один раз до любого выполнения; не должен делать I/O.
	ValidateConfig() error

	// Setup выполняет одноразовое получение ресурсов (клиенты, соединения).
	// Идемпотентен: повторный вызов не должен дублировать ресурсы.
	Setup(ctx context.Context) error

	// Execute выполняет единицу работы.
	// input содержит trigger-данные и значения, смаршрутизированные из
	// результатов upstream-узлов по рёбрам. Должен быть безопасен для
	// повторного вызова: retry-политика может вызвать его не один раз.
	Execute(ctx context.Context, input map[string]any, run RunContext) (map[string]any, error)

	// Stop — best-effort отмена и освобождение ресурсов.
	// Вызывается при остановке workflow и завершении процесса; не паникует.
	Stop()
}

// RunContext — представление контекста выполнения, доступное узлу.
//
// Узлы получают только то, что им нужно: идентификаторы запуска и общие
// переменные. Остальным состоянием контекста владеет оркестратор.
type RunContext interface {
	// WorkflowID возвращает ID выполняемого workflow.
	WorkflowID() string

	// ExecutionID возвращает ID текущего запуска.
	ExecutionID() string

	// Variable возвращает общую переменную запуска.
	Variable(name string) (any, bool)

	// SetVariable устанавливает общую переменную запуска.
	SetVariable(name string, value any)
}

// GetConfigString извлекает строковое значение из конфига.
func GetConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetConfigInt извлекает числовое значение из конфига.
func GetConfigInt(config map[string]any, key string) int {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// GetConfigBool извлекает булево значение из конфига.
func GetConfigBool(config map[string]any, key string, defaultVal bool) bool {
	if v, ok := config[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// GetConfigMap извлекает map из конфига.
func GetConfigMap(config map[string]any, key string) map[string]any {
	if v, ok := config[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// GetConfigMapString извлекает map[string]string из конфига.
func GetConfigMapString(config map[string]any, key string) map[string]string {
	if v, ok := config[key]; ok {
		switch m := v.(type) {
		case map[string]string:
			return m
		case map[string]any:
			result := make(map[string]string)
			for k, val := range m {
				if s, ok := val.(string); ok {
					result[k] = s
				}
			}
			return result
		}
	}
	return nil
}
