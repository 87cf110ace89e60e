// Package migrate copies every record from the embedded SQLite store into
// the networked PostgreSQL store. Runs are idempotent: rows whose id already
// exists on the target are skipped.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/ontop/internal/dbx"
	"github.com/dmitrijs2005/ontop/internal/logging"
)

type TableReport struct {
	Table    string
	Read     int64
	Inserted int64
}

type Report struct {
	Tables []TableReport
}

func (r *Report) String() string {
	var b strings.Builder
	for _, t := range r.Tables {
		fmt.Fprintf(&b, "%s: read %d, inserted %d, skipped %d\n", t.Table, t.Read, t.Inserted, t.Read-t.Inserted)
	}
	return b.String()
}

type Migrator struct {
	src    *sql.DB
	dst    *sql.DB
	tables []Table
	logger logging.Logger
}

func New(src, dst *sql.DB, logger logging.Logger) *Migrator {
	return &Migrator{src: src, dst: dst, tables: Tables, logger: logger.With("module", "migrate")}
}

// Run copies the tables in order. Each table is committed on its own; the
// first failure stops the run and leaves earlier tables in place. The
// returned report covers every table that completed.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	for _, t := range m.tables {
		tr, err := m.copyTable(ctx, t)
		if err != nil {
			m.logger.Error(ctx, "table migration failed", "table", t.Name, "error", err)
			return report, fmt.Errorf("migrate %s: %w", t.Name, err)
		}

		if err := m.resetSequence(ctx, t.Name); err != nil {
			return report, fmt.Errorf("reset sequence %s: %w", t.Name, err)
		}

		report.Tables = append(report.Tables, tr)
		m.logger.Info(ctx, "table migrated", "table", t.Name, "read", tr.Read, "inserted", tr.Inserted)
	}

	return report, nil
}

func (m *Migrator) copyTable(ctx context.Context, t Table) (TableReport, error) {
	tr := TableReport{Table: t.Name}
	cols := strings.Join(t.Columns, ", ")

	rows, err := m.src.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY id", cols, t.Name))
	if err != nil {
		return tr, fmt.Errorf("read source: %w", err)
	}
	defer rows.Close()

	var records [][]any
	for rows.Next() {
		vals := make([]any, len(t.Columns))
		ptrs := make([]any, len(t.Columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return tr, fmt.Errorf("scan source: %w", err)
		}
		records = append(records, convertRow(t, vals))
	}
	if err := rows.Err(); err != nil {
		return tr, fmt.Errorf("read source: %w", err)
	}
	tr.Read = int64(len(records))

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	insert := dbx.Postgres.Rebind(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING", t.Name, cols, placeholders))

	err = dbx.WithTx(ctx, m.dst, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, rec := range records {
			res, err := tx.ExecContext(ctx, insert, rec...)
			if err != nil {
				return fmt.Errorf("insert id %v: %w", rec[0], err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			tr.Inserted += n
		}
		return nil
	})
	if err != nil {
		return TableReport{Table: t.Name}, err
	}

	return tr, nil
}

// resetSequence moves the serial sequence past every migrated id, or back
// to its start when the table is empty.
func (m *Migrator) resetSequence(ctx context.Context, table string) error {
	q := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 1), (SELECT MAX(id) FROM %[1]s) IS NOT NULL)`,
		table)
	_, err := m.dst.ExecContext(ctx, q)
	return err
}

func convertRow(t Table, vals []any) []any {
	for i, col := range t.Columns {
		switch {
		case t.Bools[col]:
			vals[i] = toBool(vals[i])
		case t.Docs[col] != "":
			vals[i] = toDoc(vals[i], t.Docs[col])
		default:
			if b, ok := vals[i].([]byte); ok {
				vals[i] = string(b)
			}
		}
	}
	return vals
}

func toBool(v any) bool {
	switch x := v.(type) {
	case int64:
		return x != 0
	case bool:
		return x
	case string:
		return x == "1" || strings.EqualFold(x, "true")
	case []byte:
		return string(x) == "1" || strings.EqualFold(string(x), "true")
	default:
		return false
	}
}

func toDoc(v any, def string) string {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) != "" {
			return x
		}
	case []byte:
		if len(strings.TrimSpace(string(x))) > 0 {
			return string(x)
		}
	}
	return def
}
