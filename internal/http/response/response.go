// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Ошибки сервисов переводятся
// в HTTP-статусы по классу apperr, текст ответа при этом остаётся общим,
// подробности пишутся только в лог.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
)

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

const (
	msgNotProcessed = "payment could not be processed"
	msgNotFound     = "requested record was not found"
	msgDuplicate    = "payment already recorded"
	msgInvalid      = "invalid request"
)

// OKResponse описывает стандартную структуру JSON‑ответа сервера.
type OKResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse описывает JSON‑ответ с ошибкой.
// Retryable подсказывает шлюзу, стоит ли повторить доставку.
type ErrorResponse struct {
	Status    string `json:"status" example:"Error"`
	Error     string `json:"error" example:"payment could not be processed"`
	Retryable bool   `json:"retryable,omitempty"`
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) OKResponse {
	return OKResponse{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// StatusFor возвращает HTTP-статус для класса ошибки.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicatePayment):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrTransaction):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromError формирует общий ответ по классу ошибки без внутренних подробностей.
func FromError(err error) ErrorResponse {
	var msg string
	switch {
	case errors.Is(err, apperr.ErrValidation):
		msg = msgInvalid
	case errors.Is(err, apperr.ErrNotFound):
		msg = msgNotFound
	case errors.Is(err, apperr.ErrDuplicatePayment):
		msg = msgDuplicate
	default:
		msg = msgNotProcessed
	}
	return ErrorResponse{
		Status:    StatusError,
		Error:     msg,
		Retryable: apperr.Retryable(err),
	}
}

// Fail пишет ответ с ошибкой сервиса.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, StatusFor(err))
	render.JSON(w, r, FromError(err))
}

// BadRequest пишет 400 с сообщением.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error(msg))
}

// Invalid пишет 422 с описанием ошибок валидации.
func Invalid(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusUnprocessableEntity)
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		render.JSON(w, r, ValidationError(errs))
		return
	}
	render.JSON(w, r, Error(msgInvalid))
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must have at least %s items", err.Field(), err.Param()))
		case "url":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid url", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return ErrorResponse{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
