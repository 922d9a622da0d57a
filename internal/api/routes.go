package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
	)

	// Node types
	mux.Handle("GET /api/v1/node-types", chain(http.HandlerFunc(h.ListNodeTypes)))

	// Flows
	mux.Handle("GET /api/v1/flows", chain(http.HandlerFunc(h.ListFlows)))
	mux.Handle("GET /api/v1/flows/{id}", chain(http.HandlerFunc(h.GetFlow)))
	mux.Handle("PUT /api/v1/flows/{id}", chain(http.HandlerFunc(h.PutFlow)))

	// Graph editing
	mux.Handle("POST /api/v1/flows/{id}/connections", chain(http.HandlerFunc(h.AddConnection)))
	mux.Handle("GET /api/v1/flows/{id}/nodes/{nodeId}/upstream", chain(http.HandlerFunc(h.Upstream)))
	mux.Handle("GET /api/v1/flows/{id}/nodes/{nodeId}/downstream", chain(http.HandlerFunc(h.Downstream)))
	mux.Handle("PUT /api/v1/flows/{id}/nodes/{nodeId}/slug", chain(http.HandlerFunc(h.RenameNode)))
	mux.Handle("POST /api/v1/flows/{id}/migrate-references", chain(http.HandlerFunc(h.MigrateReferences)))

	// Invocation
	mux.Handle("POST /api/v1/flows/{id}/invoke", chain(http.HandlerFunc(h.InvokeFlow)))

	// Executions
	mux.Handle("GET /api/v1/executions", chain(http.HandlerFunc(h.ListExecutions)))
	mux.Handle("GET /api/v1/executions/{id}", chain(http.HandlerFunc(h.GetExecution)))
}
