package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/repo"
)

// ListExecutions возвращает выполнения по фильтру.
// GET /api/v1/executions?flow_id=&status=&limit=&offset=
func (h *Handler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseExecutionFilter(r)
	if HandleError(w, h.logger, err) {
		return
	}

	execs, err := h.executions.List(r.Context(), filter)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]ExecutionSummary, len(execs))
	for i, e := range execs {
		result[i] = ExecutionSummaryFromDomain(e)
	}

	List(w, result, len(result))
}

// GetExecution возвращает выполнение с трассой узлов.
// GET /api/v1/executions/{id}
func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid execution id")
		return
	}

	exec, err := h.executions.GetByID(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, exec)
}

func parseExecutionFilter(r *http.Request) (repo.ExecutionFilter, error) {
	q := r.URL.Query()
	filter := repo.ExecutionFilter{FlowID: q.Get("flow_id")}

	if s := q.Get("status"); s != "" {
		status, ok := domain.ParseExecutionStatus(s)
		if !ok {
			return filter, fmt.Errorf("%w: unknown status %q", errBadRequest, s)
		}
		filter.Status = status
	}

	var err error
	if filter.Limit, err = queryInt(q.Get("limit")); err != nil {
		return filter, fmt.Errorf("%w: limit: %v", errBadRequest, err)
	}
	if filter.Offset, err = queryInt(q.Get("offset")); err != nil {
		return filter, fmt.Errorf("%w: offset: %v", errBadRequest, err)
	}

	return filter.Normalize(), nil
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
