// internal/domain/notification/unit.go
package notification

// Field is one labeled value inside a notification unit.
type Field struct {
	Name  string
	Value string
}

// Unit is a self-contained renderable message derived from exactly one
// result row, or from the single aggregate summary row. It is immutable;
// ownership transfers to the chat-platform send call.
type Unit struct {
	Title  string
	Fields []Field
	Link   string
	Footer string
}
