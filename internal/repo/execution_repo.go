package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/toolflow/internal/domain"
)

// ExecutionRepo — репозиторий трасс выполнения в PostgreSQL.
type ExecutionRepo struct {
	pool *pgxpool.Pool
}

// NewExecutionRepo создаёт новый ExecutionRepo.
func NewExecutionRepo(pool *pgxpool.Pool) *ExecutionRepo {
	return &ExecutionRepo{pool: pool}
}

const executionColumns = `id, flow_id, parent_execution_id, trigger, depth, status,
	initial_params, node_executions, output, error_info, started_at, ended_at`

// Save создаёт или обновляет выполнение.
func (r *ExecutionRepo) Save(ctx context.Context, exec *domain.FlowExecution) error {
	rec, err := encodeExecution(exec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO flow_executions (` + executionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    node_executions = EXCLUDED.node_executions,
		    output = EXCLUDED.output,
		    error_info = EXCLUDED.error_info,
		    ended_at = EXCLUDED.ended_at
	`
	_, err = r.pool.Exec(ctx, query,
		rec.ID,
		rec.FlowID,
		nullUUID(rec.ParentExecutionID),
		rec.Trigger,
		rec.Depth,
		rec.Status,
		rec.InitialParams,
		rec.NodeExecutions,
		rec.Output,
		rec.ErrorInfo,
		rec.StartedAt,
		rec.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("save execution: %w", err)
	}
	return nil
}

// GetByID возвращает выполнение по ID.
func (r *ExecutionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FlowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM flow_executions WHERE id = $1`

	exec, err := scanExecution(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: execution %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}
	return exec, nil
}

// List возвращает выполнения с фильтрацией, новые первыми.
func (r *ExecutionRepo) List(ctx context.Context, filter ExecutionFilter) ([]domain.FlowExecution, error) {
	filter = filter.Normalize()

	query := `
		SELECT ` + executionColumns + `
		FROM flow_executions
		WHERE ($1::text IS NULL OR flow_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.FlowID),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	execs := make([]domain.FlowExecution, 0)
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, *exec)
	}
	return execs, rows.Err()
}

// scanExecution сканирует строку flow_executions.
func scanExecution(row pgx.Row) (*domain.FlowExecution, error) {
	var rec executionRecord
	if err := row.Scan(
		&rec.ID,
		&rec.FlowID,
		&rec.ParentExecutionID,
		&rec.Trigger,
		&rec.Depth,
		&rec.Status,
		&rec.InitialParams,
		&rec.NodeExecutions,
		&rec.Output,
		&rec.ErrorInfo,
		&rec.StartedAt,
		&rec.EndedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan execution: %w", err)
	}
	return rec.decode()
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
