package domain

// WorkflowDefinition — определение рабочего процесса.
//
// Workflow — это декларативный граф узлов (nodes), соединённых рёбрами (edges).
// Определение неизменяемо после регистрации в движке: каждый запуск (Execution)
// работает со снапшотом определения.
type WorkflowDefinition struct {
	// ID — уникальный идентификатор workflow.
	// Если пустой, движок присваивает UUID при регистрации.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Name — человекочитаемое имя workflow.
	Name string `json:"name" yaml:"name"`

	// Version — версия определения (информационное поле).
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Nodes — узлы графа (nodeID → определение).
	Nodes map[string]NodeDefinition `json:"nodes" yaml:"nodes"`

	// Edges — рёбра графа в порядке объявления.
	// Каждое ребро задаёт зависимость source → target и маршрутизацию данных.
	Edges []Edge `json:"edges,omitempty" yaml:"edges,omitempty"`

	// Outputs — декларация итогового результата workflow.
	// Ключ — имя выходного поля, значение — откуда его извлечь.
	Outputs map[string]OutputDef `json:"outputs,omitempty" yaml:"outputs,omitempty"`

	// Schedule — расписание автоматического запуска (опционально).
	Schedule *Schedule `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// NodeDefinition — определение узла в workflow.
type NodeDefinition struct {
	// ID — уникальный идентификатор узла в рамках workflow.
	ID string `json:"id" yaml:"id"`

	// Type — тип узла из реестра (например, "http_request", "transform").
	Type string `json:"type" yaml:"type"`

	// Name — человекочитаемое имя узла.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Config — конфигурация узла (зависит от типа).
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`

	// Credentials — учётные данные узла.
	// Строковые значения вида "secret://NAME" разрешаются через secrets.Resolver
	// при создании узла.
	Credentials map[string]any `json:"credentials,omitempty" yaml:"credentials,omitempty"`

	// Required — обязателен ли узел для успеха workflow.
	// nil трактуется как true. Падение обязательного узла фатально для запуска;
	// падение необязательного записывается в результаты, выполнение продолжается.
	Required *bool `json:"required,omitempty" yaml:"required,omitempty"`
}

// IsRequired возвращает true, если узел помечен обязательным (по умолчанию — да).
//
// Это только явная пометка. Полное правило обязательности (узел питает
// обязательный узел или объявленный output) вычисляет engine.RequiredNodes.
func (n *NodeDefinition) IsRequired() bool {
	return n.Required == nil || *n.Required
}

// Edge — направленная зависимость source → target с маршрутизацией данных.
type Edge struct {
	// Source — ID узла-источника.
	Source string `json:"source" yaml:"source"`

	// Target — ID узла-приёмника.
	Target string `json:"target" yaml:"target"`

	// SourceOutput — что брать из результата источника.
	// "output" (по умолчанию) — весь результат целиком;
	// иначе — dotted-path внутрь результата ("data.items").
	// Отсутствующий путь даёт nil, не ошибку.
	SourceOutput string `json:"source_output,omitempty" yaml:"source_output,omitempty"`

	// TargetInput — под каким ключом значение попадёт во входные данные приёмника.
	// По умолчанию — ID узла-источника.
	TargetInput string `json:"target_input,omitempty" yaml:"target_input,omitempty"`
}

// DefaultSourceOutput — значение SourceOutput, означающее "весь результат".
const DefaultSourceOutput = "output"

// EffectiveSourceOutput возвращает SourceOutput с учётом значения по умолчанию.
func (e *Edge) EffectiveSourceOutput() string {
	if e.SourceOutput == "" {
		return DefaultSourceOutput
	}
	return e.SourceOutput
}

// EffectiveTargetInput возвращает TargetInput с учётом значения по умолчанию.
func (e *Edge) EffectiveTargetInput() string {
	if e.TargetInput == "" {
		return e.Source
	}
	return e.TargetInput
}

// OutputDef — откуда извлекать одно выходное поле workflow.
type OutputDef struct {
	// Node — ID узла, из результата которого берётся значение.
	Node string `json:"node" yaml:"node"`

	// Path — dotted-path внутрь результата узла.
	// "output" или пустая строка — весь результат целиком.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Типы расписаний.
const (
	ScheduleTypeInterval = "interval"
	ScheduleTypeCron     = "cron"
)

// Schedule — расписание автоматического запуска workflow.
//
// Поддерживаются два типа:
//   - "interval" — каждые IntervalSeconds секунд;
//   - "cron" — по cron-выражению CronExpr.
//
// Состояние (время последнего запуска) хранит движок, не определение.
type Schedule struct {
	// Type — тип расписания: "interval" или "cron".
	Type string `json:"type" yaml:"type"`

	// IntervalSeconds — интервал между запусками (для type="interval").
	IntervalSeconds int `json:"interval_seconds,omitempty" yaml:"interval_seconds,omitempty"`

	// CronExpr — cron-выражение (для type="cron").
	// Формат: "минуты часы дни месяцы дни_недели".
	CronExpr string `json:"cron_expr,omitempty" yaml:"cron_expr,omitempty"`

	// Timezone — часовой пояс для cron-вычислений. По умолчанию UTC.
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// IsInterval возвращает true для интервального расписания.
func (s *Schedule) IsInterval() bool {
	return s.Type == ScheduleTypeInterval
}

// IsCron возвращает true для cron-расписания.
func (s *Schedule) IsCron() bool {
	return s.Type == ScheduleTypeCron
}
