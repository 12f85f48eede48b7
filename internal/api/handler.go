package api

import (
	"log/slog"

	"github.com/shaiso/Nodeflow/internal/nodes"
	"github.com/shaiso/Nodeflow/internal/orchestrator"
	"github.com/shaiso/Nodeflow/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
//
// workflowRepo опционален: без него определения живут только в памяти
// движка и теряются при рестарте сервера.
type Handler struct {
	engine       *orchestrator.Engine
	registry     *nodes.Registry
	workflowRepo *repo.WorkflowRepo
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Engine       *orchestrator.Engine
	Registry     *nodes.Registry
	WorkflowRepo *repo.WorkflowRepo
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		engine:       cfg.Engine,
		registry:     cfg.Registry,
		workflowRepo: cfg.WorkflowRepo,
		logger:       cfg.Logger,
	}
}
