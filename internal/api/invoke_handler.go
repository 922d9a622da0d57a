package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/toolflow/internal/mq"
)

// InvokeFlow вызывает flow.
//
// По умолчанию вызов синхронный: ответ содержит трассу выполнения,
// ошибка внутри flow возвращается со статусом 200 и status=error.
// С ?async=true вызов публикуется в очередь, ответ 202 с request_id.
//
// POST /api/v1/flows/{id}/invoke
func (h *Handler) InvokeFlow(w http.ResponseWriter, r *http.Request) {
	flowID := r.PathValue("id")

	var req InvokeRequest
	if r.ContentLength != 0 {
		if HandleError(w, h.logger, decodeBody(r, &req)) {
			return
		}
	}

	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	if async {
		h.invokeAsync(w, r, flowID, req)
		return
	}

	exec, err := h.invoker.Invoke(r.Context(), flowID, req.Trigger, req.Params)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, exec)
}

func (h *Handler) invokeAsync(w http.ResponseWriter, r *http.Request, flowID string, req InvokeRequest) {
	if h.publisher == nil {
		Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "async invocation is not configured")
		return
	}

	// Неизвестный flow отклоняется сразу, а не в worker.
	if _, err := h.flows.GetFlow(r.Context(), flowID); HandleError(w, h.logger, err) {
		return
	}

	payload := mq.InvocationRequestedPayload{
		RequestID: uuid.New(),
		FlowID:    flowID,
		Trigger:   req.Trigger,
		Params:    req.Params,
	}
	if err := h.publisher.PublishInvocationRequested(r.Context(), payload); err != nil {
		h.logger.Error("failed to publish invocation", "flow_id", flowID, "error", err)
		Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "failed to enqueue invocation")
		return
	}

	Accepted(w, InvokeAcceptedResponse{RequestID: payload.RequestID, FlowID: flowID})
}
