package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/toolflow/internal/engine"
	"github.com/shaiso/toolflow/internal/guard"
	"github.com/shaiso/toolflow/internal/nodes"
	"github.com/shaiso/toolflow/internal/orchestrator"
	"github.com/shaiso/toolflow/internal/repo"
	"github.com/shaiso/toolflow/internal/xjson"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeBlocked          ErrorCode = "SSRF_BLOCKED"
	ErrCodeUnavailable      ErrorCode = "UNAVAILABLE"
	ErrCodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	NodeID  string    `json:"node_id,omitempty"`
	Field   string    `json:"field,omitempty"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	body, err := xjson.Marshal(data)
	if err != nil {
		slog.Default().Error("failed to encode response", "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// Accepted отправляет ответ 202 для вызова, поставленного в очередь.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleError преобразует ошибку в HTTP ответ.
// Возвращает false, если err == nil.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	var verr *engine.ValidationError
	switch {
	case errors.Is(err, repo.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, errBadRequest):
		BadRequest(w, err.Error())
	case errors.Is(err, guard.ErrSSRFBlocked):
		Error(w, http.StatusBadRequest, ErrCodeBlocked, err.Error())
	case errors.Is(err, engine.ErrCycleDetected):
		JSON(w, http.StatusConflict, validationBody(ErrCodeConflict, err))
	case errors.Is(err, orchestrator.ErrFlowInactive):
		Error(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.As(err, &verr),
		errors.Is(err, nodes.ErrUnknownNodeType),
		errors.Is(err, nodes.ErrInvalidParameters):
		JSON(w, http.StatusUnprocessableEntity, validationBody(ErrCodeValidationFailed, err))
	default:
		InternalError(w, logger, err)
	}
	return true
}

func validationBody(code ErrorCode, err error) ErrorResponse {
	detail := ErrorDetail{Code: code, Message: err.Error()}
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		detail.NodeID = verr.NodeID
		detail.Field = verr.Field
	}
	return ErrorResponse{Error: detail}
}
