package database

import "github.com/koustreak/dbverify/internal/errs"

// ResultSet is a fully materialized query result.
type ResultSet struct {
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in result order.
func (rs *ResultSet) ColumnNames() []string {
	names := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	return len(rs.Rows)
}

// Collect reads every row into memory. There is no row limit.
//
// The returned Rows slice is always non-nil (empty slice on zero rows).
// Collect always closes rows.
func Collect(rows Rows) (*ResultSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Classify(errs.ErrKindQueryFailed, "failed to read column descriptions", err)
	}

	rs := &ResultSet{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errs.Classify(errs.ErrKindQueryFailed, "failed to read row", err)
		}
		rs.Rows = append(rs.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Classify(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return rs, nil
}
