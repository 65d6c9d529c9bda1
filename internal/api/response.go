package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Langweave/internal/components"
	"github.com/shaiso/Langweave/internal/engine"
	"github.com/shaiso/Langweave/internal/flow"
	"github.com/shaiso/Langweave/internal/repo"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeInvalidState    ErrorCode = "INVALID_STATE"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
	ErrCodeExecutionFailed ErrorCode = "EXECUTION_FAILED"
	ErrCodeUnavailable     ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeInternalError   ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	// ExecutionID — выполнение, завершившееся ошибкой.
	ExecutionID *uuid.UUID `json:"execution_id,omitempty"`
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
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// Accepted отправляет ответ о принятой асинхронной операции (202).
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, DataResponse{Data: data})
}

// NoContent отправляет ответ без тела (204).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
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

// Unauthorized отправляет ошибку 401.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, ErrCodeConflict, message)
}

// Unprocessable отправляет ошибку 422 для некорректного flow.
func Unprocessable(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnprocessableEntity, ErrCodeValidation, message)
}

// Unavailable отправляет ошибку 503.
func Unavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleRepoError преобразует ошибку репозитория в HTTP ответ.
func HandleRepoError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, repo.ErrNotFound):
		NotFound(w, notFoundMsg)
	case errors.Is(err, repo.ErrAlreadyExists):
		Conflict(w, err.Error())
	case errors.Is(err, repo.ErrInvalidState):
		Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidState, err.Error())
	default:
		InternalError(w, logger, err)
	}
	return true
}

// IsFlowError проверяет, описывает ли ошибка некорректный flow
// (структура графа, цикл, неизвестный тип, вход вне схемы, нет обязательного входа).
func IsFlowError(err error) bool {
	var validationErr *engine.ValidationError
	return errors.As(err, &validationErr) ||
		errors.Is(err, engine.ErrInvalidDefinition) ||
		errors.Is(err, engine.ErrCyclicDependency) ||
		errors.Is(err, components.ErrUnknownComponent) ||
		errors.Is(err, components.ErrUnknownInput) ||
		errors.Is(err, components.ErrMissingInput)
}

// HandleExecutionError отправляет ошибку выполнения flow:
// некорректный flow → 422, истёкший дедлайн → 504, прочее → 500.
func HandleExecutionError(w http.ResponseWriter, logger *slog.Logger, executionID uuid.UUID, err error) {
	status, code := http.StatusInternalServerError, ErrCodeExecutionFailed
	switch {
	case IsFlowError(err):
		status, code = http.StatusUnprocessableEntity, ErrCodeValidation
	case errors.Is(err, flow.ErrTimeout):
		status, code = http.StatusGatewayTimeout, ErrCodeTimeout
	default:
		logger.Error("flow execution failed", "execution_id", executionID, "error", err)
	}

	JSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:        code,
		Message:     fmt.Sprintf("execution %s: %v", executionID, err),
		ExecutionID: &executionID,
	}})
}
