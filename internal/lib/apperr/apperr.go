// Package apperr описывает классы ошибок сервиса сверки платежей.
// Каждая ошибка бизнес-логики оборачивает один из sentinel-значений,
// чтобы HTTP-слой и логи могли определить класс через errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation отсутствуют или некорректны обязательные поля запроса.
	ErrValidation = errors.New("validation error")
	// ErrNotFound не найдена активная аренда, подписка, счёт или арендатор.
	ErrNotFound = errors.New("not found")
	// ErrDuplicatePayment платёж по этому reference уже записан.
	ErrDuplicatePayment = errors.New("duplicate payment")
	// ErrGateway ошибка платёжного шлюза, запрос можно повторить.
	ErrGateway = errors.New("payment gateway error")
	// ErrTransaction ошибка базы данных посреди транзакции, транзакция откачена.
	ErrTransaction = errors.New("transaction error")
)

// Validation возвращает ошибку валидации с сообщением.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// NotFound возвращает ошибку отсутствия сущности.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Tx помечает ошибку хранилища как ErrTransaction, если она ещё не
// относится ни к одному известному классу.
func Tx(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransaction, err)
}

// Classified сообщает, относится ли ошибка к одному из классов пакета.
func Classified(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicatePayment) ||
		errors.Is(err, ErrGateway) ||
		errors.Is(err, ErrTransaction)
}

// Retryable сообщает, стоит ли вызывающей стороне (или шлюзу) повторить запрос.
func Retryable(err error) bool {
	return errors.Is(err, ErrGateway) || errors.Is(err, ErrTransaction)
}

// Class возвращает короткое имя класса ошибки для логов и метрик.
func Class(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicatePayment):
		return "duplicate_payment"
	case errors.Is(err, ErrGateway):
		return "gateway"
	case errors.Is(err, ErrTransaction):
		return "transaction"
	default:
		return "internal"
	}
}
