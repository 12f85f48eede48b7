package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Nodeflow/internal/domain"
)

// WorkflowRepo — репозиторий определений workflow.
//
// Хранит только определения (JSONB-спеки): история выполнений между
// рестартами не персистируется. После запуска сервера определения
// загружаются и регистрируются в движке заново.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// Save сохраняет определение (insert или upsert по id).
func (r *WorkflowRepo) Save(ctx context.Context, def *domain.WorkflowDefinition) error {
	spec, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal workflow spec: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, version, spec, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    version = EXCLUDED.version,
		    spec = EXCLUDED.spec,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query,
		def.ID,
		def.Name,
		def.Version,
		spec,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert workflow: %w", err)
	}
	return nil
}

// List возвращает все сохранённые определения.
func (r *WorkflowRepo) List(ctx context.Context) ([]*domain.WorkflowDefinition, error) {
	query := `
		SELECT spec
		FROM workflows
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var defs []*domain.WorkflowDefinition
	for rows.Next() {
		var spec []byte
		if err := rows.Scan(&spec); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		def, err := unmarshalSpec(spec)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// Delete удаляет определение.
func (r *WorkflowRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// unmarshalSpec десериализует JSONB-спеку определения.
func unmarshalSpec(spec []byte) (*domain.WorkflowDefinition, error) {
	var def domain.WorkflowDefinition
	if err := json.Unmarshal(spec, &def); err != nil {
		return nil, fmt.Errorf("unmarshal workflow spec: %w", err)
	}
	return &def, nil
}
