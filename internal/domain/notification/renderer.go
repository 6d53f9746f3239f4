// internal/domain/notification/renderer.go
package notification

import (
	"fmt"
	"sort"
	"strconv"

	"dune_notification_bot/internal/domain/query"
)

// ColumnMapping binds one result column to a field label.
type ColumnMapping struct {
	Column string
	Label  string
}

// RowRenderer turns result rows into notification units using a fixed,
// explicit field mapping. Rendering is pure and total over any row: mapped
// columns missing from the row are simply omitted from the unit, never an
// error. When no columns are mapped, all columns of the row are rendered in
// name order.
type RowRenderer struct {
	Title       string          // static title for every unit
	TitleColumn string          // optional column appended to the title
	LinkColumn  string          // optional column holding a URL
	Columns     []ColumnMapping // field mapping, in declared order
}

// Render derives one unit from one row.
func (r *RowRenderer) Render(row query.Row) Unit {
	unit := Unit{Title: r.Title}

	if r.TitleColumn != "" {
		if v, ok := row.Column(r.TitleColumn); ok {
			if unit.Title != "" {
				unit.Title += " — " + formatScalar(v)
			} else {
				unit.Title = formatScalar(v)
			}
		}
	}

	if r.LinkColumn != "" {
		if v, ok := row.Column(r.LinkColumn); ok {
			if s, isString := v.(string); isString {
				unit.Link = s
			}
		}
	}

	if len(r.Columns) > 0 {
		for _, m := range r.Columns {
			v, ok := row.Column(m.Column)
			if !ok {
				continue
			}
			label := m.Label
			if label == "" {
				label = m.Column
			}
			unit.Fields = append(unit.Fields, Field{Name: label, Value: formatScalar(v)})
		}
		return unit
	}

	// No explicit mapping: render every column, excluding the ones already
	// used for title and link.
	names := make([]string, 0, len(row))
	for name := range row {
		if name == r.TitleColumn || name == r.LinkColumn {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, ok := row.Column(name)
		if !ok {
			continue
		}
		unit.Fields = append(unit.Fields, Field{Name: name, Value: formatScalar(v)})
	}
	return unit
}

// formatScalar renders a decoded JSON scalar for display. Numbers keep their
// shortest exact representation rather than scientific notation.
func formatScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
