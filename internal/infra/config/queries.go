package config

import (
	"fmt"
	"os"

	"dune_notification_bot/internal/domain/notification"

	"gopkg.in/yaml.v3"
)

// ColumnSpec maps one result column to a display label.
type ColumnSpec struct {
	Column string `yaml:"column"`
	Label  string `yaml:"label"`
}

// QuerySpec is one named query in the YAML library: its remote ID plus the
// explicit field mapping used to render its rows.
type QuerySpec struct {
	ID          int64        `yaml:"id"`
	Description string       `yaml:"description"`
	Title       string       `yaml:"title"`
	TitleColumn string       `yaml:"title_column"`
	LinkColumn  string       `yaml:"link_column"`
	Columns     []ColumnSpec `yaml:"columns"`
}

// Renderer builds the row renderer for this query. A spec without a title
// falls back to the query ID.
func (s QuerySpec) Renderer() *notification.RowRenderer {
	title := s.Title
	if title == "" {
		title = fmt.Sprintf("Dune Query #%d", s.ID)
	}
	r := &notification.RowRenderer{
		Title:       title,
		TitleColumn: s.TitleColumn,
		LinkColumn:  s.LinkColumn,
	}
	for _, c := range s.Columns {
		r.Columns = append(r.Columns, notification.ColumnMapping{Column: c.Column, Label: c.Label})
	}
	return r
}

// QueryLibrary is the optional named-query mapping loaded from YAML.
type QueryLibrary struct {
	Queries map[string]QuerySpec `yaml:"queries"`
}

// LoadQueryLibrary reads the YAML library. A missing file is not an error:
// the bot then renders rows with the default all-columns mapping.
func LoadQueryLibrary(path string) (*QueryLibrary, error) {
	lib := &QueryLibrary{Queries: map[string]QuerySpec{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("read query library %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, lib); err != nil {
		return nil, fmt.Errorf("parse query library %s: %w", path, err)
	}
	if lib.Queries == nil {
		lib.Queries = map[string]QuerySpec{}
	}
	return lib, nil
}

// ByName looks a query up by its library name.
func (l *QueryLibrary) ByName(name string) (QuerySpec, bool) {
	spec, ok := l.Queries[name]
	return spec, ok
}

// ByID looks a query up by its remote ID and returns its library name.
func (l *QueryLibrary) ByID(id int64) (string, QuerySpec, bool) {
	for name, spec := range l.Queries {
		if spec.ID == id {
			return name, spec, true
		}
	}
	return "", QuerySpec{}, false
}
