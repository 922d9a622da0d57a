package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/toolflow/internal/domain"
)

// FlowRepo — репозиторий flows в PostgreSQL.
//
// Узлы и связи хранятся в jsonb-колонках целиком:
// flow сохраняется и читается как один документ.
type FlowRepo struct {
	pool *pgxpool.Pool
}

// NewFlowRepo создаёт новый FlowRepo.
func NewFlowRepo(pool *pgxpool.Pool) *FlowRepo {
	return &FlowRepo{pool: pool}
}

const flowColumns = `id, name, description, is_active, nodes, connections, created_at, updated_at`

// GetFlow возвращает flow по ID.
func (r *FlowRepo) GetFlow(ctx context.Context, id string) (*domain.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE id = $1`

	flow, err := scanFlow(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: flow %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get flow: %w", err)
	}
	return flow, nil
}

// List возвращает все flows, новые первыми.
func (r *FlowRepo) List(ctx context.Context) ([]domain.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	flows := make([]domain.Flow, 0)
	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		flows = append(flows, *flow)
	}
	return flows, rows.Err()
}

// Save создаёт или обновляет flow.
// CreatedAt и UpdatedAt заполняются значениями из БД.
func (r *FlowRepo) Save(ctx context.Context, flow *domain.Flow) error {
	rec, err := encodeFlow(flow)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO flows (id, name, description, is_active, nodes, connections, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    is_active = EXCLUDED.is_active,
		    nodes = EXCLUDED.nodes,
		    connections = EXCLUDED.connections,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.Name,
		rec.Description,
		rec.IsActive,
		rec.Nodes,
		rec.Connections,
	).Scan(&flow.CreatedAt, &flow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save flow: %w", err)
	}
	return nil
}

// Delete удаляет flow.
func (r *FlowRepo) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: flow %s", ErrNotFound, id)
	}
	return nil
}

// scanFlow сканирует строку flows.
func scanFlow(row pgx.Row) (*domain.Flow, error) {
	var rec flowRecord
	if err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Description,
		&rec.IsActive,
		&rec.Nodes,
		&rec.Connections,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan flow: %w", err)
	}
	return rec.decode()
}
