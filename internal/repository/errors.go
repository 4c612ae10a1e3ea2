// Package repository holds the MySQL data access for the authority API.
// Every rule violation is reported as a *model.Error so handlers can
// forward it to clients unchanged.  Mutations that touch a capacity run in
// one transaction that first locks the capacity-bearing row with
// SELECT … FOR UPDATE; that lock is what serialises two operators racing
// for the last slot.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/event-ops/internal/database"
	"github.com/iliyamo/event-ops/internal/model"
)

func notFound(entity string, id uint64) error {
	return model.Errorf(model.CodeNotFound, entity, id, "%s %d does not exist", entity, id)
}

// inTx runs fn inside a transaction.  fn's error rolls back; lock
// conflicts reported by InnoDB become model conflicts so the caller can
// tell them from defects.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		if database.IsLockConflict(err) {
			return &model.Error{Code: model.CodeConflict, Message: "concurrent update, try again", Err: err}
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if database.IsLockConflict(err) {
			return &model.Error{Code: model.CodeConflict, Message: "concurrent update, try again", Err: err}
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(ids []uint64, prefix ...any) []any {
	args := make([]any, 0, len(prefix)+len(ids))
	args = append(args, prefix...)
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
