// internal/domain/query/table.go
package query

// Row is one result row: column name to scalar value, as decoded from the
// remote service's JSON payload.
type Row map[string]any

// Column returns the value for a column and whether it was present and
// non-nil in the row.
func (r Row) Column(name string) (any, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ResultTable is the ordered row set produced by one successful execution.
// It is immutable after construction. Row order is significant and is
// preserved from the remote result pages.
type ResultTable struct {
	QueryID     int64
	ExecutionID string
	Rows        []Row
}

func (t *ResultTable) RowCount() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table has no rows. An empty table is a valid
// success, not an error.
func (t *ResultTable) IsEmpty() bool {
	return len(t.Rows) == 0
}
