// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель единообразно выводить ошибки и ключи сверки платежей,
// чтобы по логам можно было восстановить историю любого reference.
package sl

import (
	"log/slog"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
)

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to settle billing", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// ErrClass возвращает группу с текстом ошибки и её классом из apperr.
func ErrClass(err error) slog.Attr {
	return slog.Group("error",
		slog.String("message", err.Error()),
		slog.String("class", apperr.Class(err)),
	)
}

// Ref возвращает атрибут с reference платёжного шлюза.
func Ref(reference string) slog.Attr {
	return slog.String("reference", reference)
}
