package api

import (
	"fmt"
	"net/http"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/engine"
)

// ListNodeTypes возвращает зарегистрированные типы узлов.
// GET /api/v1/node-types
func (h *Handler) ListNodeTypes(w http.ResponseWriter, r *http.Request) {
	defs := h.registry.Definitions()
	List(w, defs, len(defs))
}

// ListFlows возвращает список всех flows.
// GET /api/v1/flows
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := h.flows.List(r.Context())
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]FlowSummary, len(flows))
	for i, f := range flows {
		result[i] = FlowSummaryFromDomain(f)
	}

	List(w, result, len(result))
}

// GetFlow возвращает flow по ID.
// GET /api/v1/flows/{id}
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := h.flows.GetFlow(r.Context(), r.PathValue("id"))
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, flow)
}

// PutFlow создаёт или заменяет flow после полной валидации.
// PUT /api/v1/flows/{id}
func (h *Handler) PutFlow(w http.ResponseWriter, r *http.Request) {
	var req PutFlowRequest
	if HandleError(w, h.logger, decodeBody(r, &req)) {
		return
	}

	flow := req.ToDomain(r.PathValue("id"))
	if HandleError(w, h.logger, engine.ValidateFlow(flow, h.registry)) {
		return
	}

	if HandleError(w, h.logger, h.flows.Save(r.Context(), flow)) {
		return
	}

	h.logger.Info("flow saved", "flow_id", flow.ID, "nodes", len(flow.Nodes))
	Success(w, flow)
}

// AddConnection проверяет и добавляет связь.
// POST /api/v1/flows/{id}/connections
func (h *Handler) AddConnection(w http.ResponseWriter, r *http.Request) {
	var req AddConnectionRequest
	if HandleError(w, h.logger, decodeBody(r, &req)) {
		return
	}

	flow, err := h.flows.GetFlow(r.Context(), r.PathValue("id"))
	if HandleError(w, h.logger, err) {
		return
	}

	conn := req.ToDomain()
	if HandleError(w, h.logger, engine.CheckConnection(flow, conn, h.registry)) {
		return
	}

	flow.Connections = append(flow.Connections, conn)
	if HandleError(w, h.logger, h.flows.Save(r.Context(), flow)) {
		return
	}

	Created(w, flow)
}

// Upstream возвращает всех предков узла.
// GET /api/v1/flows/{id}/nodes/{nodeId}/upstream
func (h *Handler) Upstream(w http.ResponseWriter, r *http.Request) {
	h.neighbors(w, r, engine.FindUpstreamNodeIDs)
}

// Downstream возвращает всех потомков узла.
// GET /api/v1/flows/{id}/nodes/{nodeId}/downstream
func (h *Handler) Downstream(w http.ResponseWriter, r *http.Request) {
	h.neighbors(w, r, engine.FindDownstreamNodeIDs)
}

func (h *Handler) neighbors(w http.ResponseWriter, r *http.Request, find func(string, []domain.Connection) engine.IDSet) {
	flow, err := h.flows.GetFlow(r.Context(), r.PathValue("id"))
	if HandleError(w, h.logger, err) {
		return
	}

	nodeID := r.PathValue("nodeId")
	if flow.NodeByID(nodeID) == nil {
		NotFound(w, fmt.Sprintf("node %s not found in flow %s", nodeID, flow.ID))
		return
	}

	Success(w, NeighborsResponse{
		NodeID:  nodeID,
		NodeIDs: find(nodeID, flow.Connections).Sorted(),
	})
}

// RenameNode меняет slug узла и переписывает ссылки на него.
// PUT /api/v1/flows/{id}/nodes/{nodeId}/slug
func (h *Handler) RenameNode(w http.ResponseWriter, r *http.Request) {
	var req RenameNodeRequest
	if HandleError(w, h.logger, decodeBody(r, &req)) {
		return
	}

	flow, err := h.flows.GetFlow(r.Context(), r.PathValue("id"))
	if HandleError(w, h.logger, err) {
		return
	}

	nodeID := r.PathValue("nodeId")
	if flow.NodeByID(nodeID) == nil {
		NotFound(w, fmt.Sprintf("node %s not found in flow %s", nodeID, flow.ID))
		return
	}

	count, err := engine.RenameNode(flow, nodeID, req.Slug)
	if HandleError(w, h.logger, err) {
		return
	}
	if HandleError(w, h.logger, h.flows.Save(r.Context(), flow)) {
		return
	}

	h.logger.Info("node renamed", "flow_id", flow.ID, "node_id", nodeID, "slug", req.Slug, "references", count)
	Success(w, RewriteResponse{Flow: flow, UpdatedReferences: count})
}

// MigrateReferences переводит ссылки по ID узлов на ссылки по slug.
// POST /api/v1/flows/{id}/migrate-references
func (h *Handler) MigrateReferences(w http.ResponseWriter, r *http.Request) {
	flow, err := h.flows.GetFlow(r.Context(), r.PathValue("id"))
	if HandleError(w, h.logger, err) {
		return
	}

	count := engine.MigrateTemplateReferences(flow)
	if count > 0 {
		if HandleError(w, h.logger, h.flows.Save(r.Context(), flow)) {
			return
		}
	}

	Success(w, RewriteResponse{Flow: flow, UpdatedReferences: count})
}
