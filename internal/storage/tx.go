package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
)

type txKey struct{}

// querier общее подмножество *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Storage) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.DB
}

// InTx выполняет fn в одной транзакции READ COMMITTED с таймаутом из конфига.
// Транзакция передаётся в fn через контекст, все методы Storage, вызванные
// с этим контекстом, работают внутри неё. Откат выполняется при любой ошибке
// или панике fn, фиксация только при успешном возврате. Вложенный вызов
// переиспользует уже открытую транзакцию.
func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "storage.InTx"

	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperr.Tx(op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return apperr.Tx(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}
