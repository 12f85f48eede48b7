package engine

import (
	"errors"
	"strings"
)

// Ошибки валидации определения workflow.
var (
	// ErrNoNodes — workflow не содержит ни одного узла.
	ErrNoNodes = errors.New("workflow has no nodes")

	// ErrUnknownNodeType — тип узла не зарегистрирован в реестре.
	ErrUnknownNodeType = errors.New("node type not found")

	// ErrInvalidNodeConfig — конфигурация узла не прошла проверку типа.
	ErrInvalidNodeConfig = errors.New("invalid node config")

	// ErrMissingEdgeEndpoint — ребро ссылается на несуществующий узел.
	ErrMissingEdgeEndpoint = errors.New("edge references unknown node")

	// ErrEmptyTargetInput — у ребра пустой target_input.
	ErrEmptyTargetInput = errors.New("edge has empty target_input")

	// ErrMissingOutputNode — output ссылается на несуществующий узел.
	ErrMissingOutputNode = errors.New("output references unknown node")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")
)

// Ошибки загрузки определений.
var (
	// ErrEmptyDefinition — файл или документ пуст.
	ErrEmptyDefinition = errors.New("workflow definition is empty")

	// ErrUnsupportedFormat — неподдерживаемое расширение файла.
	ErrUnsupportedFormat = errors.New("unsupported workflow file format")

	// ErrDuplicateNodeID — несколько узлов с одинаковым ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")
)

// ValidationError — одна находка валидатора с контекстом.
//
// Валидатор никогда не прерывается на первой ошибке: он собирает все находки,
// чтобы определение можно было исправить за один проход.
type ValidationError struct {
	NodeID  string // ID узла, к которому относится находка (может быть пустым)
	Field   string // поле, вызвавшее ошибку
	Message string // описание
	Err     error  // базовая ошибка (sentinel)
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт находку валидатора.
func NewValidationError(nodeID, field, message string, err error) *ValidationError {
	return &ValidationError{
		NodeID:  nodeID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// CycleError — обнаруженный цикл или зависшие из-за цикла узлы.
//
// Валидатор заполняет Path — полный путь цикла в порядке обхода
// (последний элемент равен первому). Планировщик заполняет Stranded —
// узлы, которые невозможно поставить в план.
type CycleError struct {
	Path     []string
	Stranded []string
}

// Error реализует интерфейс error.
func (e *CycleError) Error() string {
	if len(e.Path) > 0 {
		return "workflow contains a cycle: " + strings.Join(e.Path, " -> ")
	}
	return "cyclic dependency among nodes: " + strings.Join(e.Stranded, ", ")
}

// Unwrap возвращает ErrCyclicDependency.
func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}
