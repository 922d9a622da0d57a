package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/toolflow/internal/domain"
)

func sampleFlow(id string) *domain.Flow {
	return &domain.Flow{
		ID:       id,
		Name:     "Sample " + id,
		IsActive: true,
		Nodes: []domain.Node{
			{ID: "t", Slug: "trigger", Type: "trigger", Parameters: map[string]any{"toolName": "sample"}},
			{ID: "r", Slug: "result", Type: "return", Parameters: map[string]any{
				"text":   "{{trigger.name}}",
				"nested": map[string]any{"keep": true},
			}},
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceNodeID: "t", SourceHandle: "main", TargetNodeID: "r", TargetHandle: "main"},
		},
	}
}

func finishedExecution(flowID string, status domain.ExecutionStatus, startedAt time.Time) *domain.FlowExecution {
	exec := domain.NewFlowExecution(flowID, "trigger", map[string]any{"id": "42"})
	exec.StartedAt = startedAt
	data := domain.NewNodeExecution(&domain.Node{ID: "t", Slug: "trigger", Type: "trigger"})
	data.Complete(map[string]any{"id": "42"}, 3*time.Millisecond)
	exec.AppendNode(data)
	if status == domain.ExecutionStatusFulfilled {
		exec.MarkFulfilled(map[string]any{"text": "ok"})
	} else {
		exec.MarkFailed(domain.ErrorInfo{NodeID: "t", Kind: domain.ErrorKindNodeFailure, Message: "boom"})
	}
	return exec
}

// --- Codec ---

func TestFlowCodec(t *testing.T) {
	flow := sampleFlow("f1")
	rec, err := encodeFlow(flow)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(rec.Nodes), "["))

	decoded, err := rec.decode()
	require.NoError(t, err)
	assert.Equal(t, flow.ID, decoded.ID)
	assert.Equal(t, flow.Connections, decoded.Connections)
	require.Len(t, decoded.Nodes, 2)
	assert.Equal(t, "{{trigger.name}}", decoded.Nodes[1].Parameters["text"])
}

func TestFlowCodec_EmptyCollections(t *testing.T) {
	rec, err := encodeFlow(&domain.Flow{ID: "empty"})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(rec.Nodes))
	assert.Equal(t, "[]", string(rec.Connections))

	rec.Nodes = nil
	decoded, err := rec.decode()
	require.NoError(t, err)
	assert.NotNil(t, decoded.Nodes)
	assert.Empty(t, decoded.Nodes)
}

func TestFlowCodec_Corrupted(t *testing.T) {
	rec := &flowRecord{ID: "bad", Nodes: []byte(`{not json`)}
	_, err := rec.decode()
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestExecutionCodec_NullColumns(t *testing.T) {
	exec := domain.NewFlowExecution("f1", "", nil)
	rec, err := encodeExecution(exec)
	require.NoError(t, err)

	assert.Nil(t, rec.InitialParams)
	assert.Nil(t, rec.Output)
	assert.Nil(t, rec.ErrorInfo)
	assert.Equal(t, "[]", string(rec.NodeExecutions))

	decoded, err := rec.decode()
	require.NoError(t, err)
	assert.Equal(t, exec.ID, decoded.ID)
	assert.Equal(t, domain.ExecutionStatusPending, decoded.Status)
	assert.Nil(t, decoded.ErrorInfo)
	assert.Nil(t, decoded.Output)
}

func TestExecutionCodec_Failed(t *testing.T) {
	parent := uuid.New()
	exec := finishedExecution("f1", domain.ExecutionStatusError, time.Now().UTC())
	exec.ParentExecutionID = &parent
	exec.Depth = 2

	rec, err := encodeExecution(exec)
	require.NoError(t, err)
	decoded, err := rec.decode()
	require.NoError(t, err)

	require.NotNil(t, decoded.ErrorInfo)
	assert.Equal(t, domain.ErrorKindNodeFailure, decoded.ErrorInfo.Kind)
	assert.Equal(t, parent, *decoded.ParentExecutionID)
	assert.Equal(t, 2, decoded.Depth)
	require.Len(t, decoded.NodeExecutions, 1)
	assert.Equal(t, int64(3), *decoded.NodeExecutions[0].ExecutionTimeMs)
}

func TestSchema(t *testing.T) {
	assert.Contains(t, Schema(), "CREATE TABLE IF NOT EXISTS flows")
	assert.Contains(t, Schema(), "CREATE TABLE IF NOT EXISTS flow_executions")
}

func TestExecutionFilter_Normalize(t *testing.T) {
	f := ExecutionFilter{}.Normalize()
	assert.Equal(t, DefaultListLimit, f.Limit)

	f = ExecutionFilter{Limit: 10_000, Offset: -3}.Normalize()
	assert.Equal(t, MaxListLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)
}

// --- MemoryFlowStore ---

func TestMemoryFlowStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryFlowStore(sampleFlow("a"))
	require.NoError(t, err)

	flow, err := store.GetFlow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, flow.CreatedAt.IsZero())

	// Изменения копии не попадают в хранилище
	flow.Nodes[0].Slug = "changed"
	again, err := store.GetFlow(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "trigger", again.Nodes[0].Slug)

	// Повторное сохранение сохраняет CreatedAt
	created := again.CreatedAt
	again.Name = "Renamed"
	require.NoError(t, store.Save(ctx, again))
	updated, err := store.GetFlow(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, created.Equal(updated.CreatedAt))

	_, err = store.GetFlow(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, sampleFlow("b")))
	flows, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 2)
}

// --- MemoryExecutionStore ---

func TestMemoryExecutionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryExecutionStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	e1 := finishedExecution("f1", domain.ExecutionStatusFulfilled, base)
	e2 := finishedExecution("f1", domain.ExecutionStatusError, base.Add(time.Minute))
	e3 := finishedExecution("f2", domain.ExecutionStatusFulfilled, base.Add(2*time.Minute))
	for _, e := range []*domain.FlowExecution{e1, e2, e3} {
		require.NoError(t, store.Save(ctx, e))
	}

	got, err := store.GetByID(ctx, e2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusError, got.Status)

	_, err = store.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	tests := []struct {
		name   string
		filter ExecutionFilter
		want   []uuid.UUID
	}{
		{"all newest first", ExecutionFilter{}, []uuid.UUID{e3.ID, e2.ID, e1.ID}},
		{"by flow", ExecutionFilter{FlowID: "f1"}, []uuid.UUID{e2.ID, e1.ID}},
		{"by status", ExecutionFilter{Status: domain.ExecutionStatusFulfilled}, []uuid.UUID{e3.ID, e1.ID}},
		{"limit", ExecutionFilter{Limit: 1}, []uuid.UUID{e3.ID}},
		{"offset", ExecutionFilter{Offset: 2}, []uuid.UUID{e1.ID}},
		{"offset past end", ExecutionFilter{Offset: 10}, []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := store.List(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]uuid.UUID, 0, len(list))
			for _, e := range list {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
