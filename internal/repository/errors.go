// Package repository holds the MySQL access code. Every repository wraps a
// *sql.DB and speaks hand-written SQL; driver errors are translated into
// the sentinels below so that services never import the driver.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matched no row, or when an update
// or delete addressed a row that does not exist. Services translate it
// into a 404.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write hits a unique index (MySQL error
// 1062). It is the last line of defence behind the explicit pre-checks in
// the services and maps to a 409.
var ErrDuplicate = errors.New("duplicate entry")

// ErrStale is returned when a write was prepared from a snapshot that no
// longer matches the locked rows. The caller may reload and retry.
var ErrStale = errors.New("stale snapshot")

const mysqlDuplicateEntry = 1062

// translate maps driver level errors onto the package sentinels and
// returns anything else unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// affectedOrNotFound turns an update that touched zero rows into ErrNotFound.
func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// withTx runs fn inside a transaction. The transaction is committed when
// fn returns nil and rolled back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return translate(err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// placeholders returns "?,?,?" with n marks.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
