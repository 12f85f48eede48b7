package nodes

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shaiso/Nodeflow/internal/secrets"
)

// Factory создаёт экземпляр узла.
//
// credentials приходят уже с разрешёнными ссылками на секреты.
type Factory func(nodeID string, config, credentials map[string]any) Node

// TypeInfo — описание зарегистрированного типа узла.
//
// Schema и Category используются только внешними потребителями
// (dashboard, CLI) для интроспекции; ядро движка их не читает.
type TypeInfo struct {
	// Type — имя типа в реестре.
	Type string `json:"type"`

	// Category — категория для группировки ("data", "api", "utility").
	Category string `json:"category,omitempty"`

	// Schema — описание полей конфигурации узла.
	Schema map[string]any `json:"schema,omitempty"`

	// New — фабрика экземпляров.
	New Factory `json:"-"`
}

// Registry — реестр типов узлов.
//
// Read-shared между всеми конкурентными выполнениями: Create/Has/Describe
// безопасны для параллельного вызова. Повторная регистрация типа
// перезаписывает предыдущую (последняя выигрывает) — это документированная
// политика, а не ошибка.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]TypeInfo
	resolver secrets.Resolver
}

// NewRegistry создаёт пустой реестр.
//
// resolver разрешает ссылки "secret://NAME" в credentials при создании
// узлов; nil-резолвер допустим, пока credentials не содержат ссылок.
func NewRegistry(resolver secrets.Resolver) *Registry {
	return &Registry{
		types:    make(map[string]TypeInfo),
		resolver: resolver,
	}
}

// DefaultRegistry создаёт реестр со всеми встроенными типами узлов.
//
// Динамического сканирования плагинов нет: набор типов — явная
// таблица регистраций, собираемая на старте процесса.
func DefaultRegistry(resolver secrets.Resolver, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := NewRegistry(resolver)
	r.Register(FileReaderInfo())
	r.Register(FileWriterInfo())
	r.Register(TransformInfo())
	r.Register(LoggerInfo(logger))
	r.Register(HTTPRequestInfo())
	return r
}

// Register регистрирует тип узла. Последняя регистрация выигрывает.
func (r *Registry) Register(info TypeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[info.Type] = info
}

// Create создаёт экземпляр узла указанного типа.
//
// Ссылки на секреты в credentials разрешаются здесь; отсутствующий секрет —
// ошибка создания, называющая имя секрета.
func (r *Registry) Create(typeName, nodeID string, config, credentials map[string]any) (Node, error) {
	r.mu.RLock()
	info, exists := r.types[typeName]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNodeTypeNotFound, typeName)
	}

	resolved, err := secrets.ResolveMap(r.resolver, credentials)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", nodeID, err)
	}

	return info.New(nodeID, config, resolved), nil
}

// Has проверяет, зарегистрирован ли тип.
func (r *Registry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.types[typeName]
	return exists
}

// Describe возвращает описание типа узла.
func (r *Registry) Describe(typeName string) (TypeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.types[typeName]
	if !exists {
		return TypeInfo{}, fmt.Errorf("%w: %s", ErrNodeTypeNotFound, typeName)
	}
	return info, nil
}

// DescribeAll возвращает описания всех типов, отсортированные по имени.
func (r *Registry) DescribeAll() []TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]TypeInfo, 0, len(r.types))
	for _, info := range r.types {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
	return infos
}

// Types возвращает список зарегистрированных типов, отсортированный по имени.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.types))
	for t := range r.types {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count возвращает количество зарегистрированных типов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
