package repo

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubRows replays one scan function per row.
type stubRows struct {
	scans []func(dest ...any) error
	pos   int
	err   error
}

func (r *stubRows) Next() bool {
	if r.err != nil || r.pos >= len(r.scans) {
		return false
	}
	r.pos++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.pos == 0 || r.pos > len(r.scans) {
		return pgx.ErrNoRows
	}
	if err := r.scans[r.pos-1](dest...); err != nil {
		r.err = err
		return err
	}
	return nil
}

func (r *stubRows) Err() error { return r.err }

func (r *stubRows) Close() {}

func (r *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *stubRows) Conn() *pgx.Conn { return nil }

func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *stubRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (r *stubRows) RawValues() [][]byte { return nil }

var _ pgx.Rows = (*stubRows)(nil)
