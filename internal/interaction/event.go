// Package interaction classifies inbound platform events and dispatches them
// to the workflow engine or the admin service. It holds no business logic:
// action ids are decoded once here and handed on as typed descriptors.
package interaction

import "github.com/tbourn/go-tellonym/internal/workflow"

// EventKind is the coarse class of an inbound event.
type EventKind int

const (
	EventUnknown EventKind = iota
	// EventCommand is a top-level slash command.
	EventCommand
	// EventTrigger is a button press.
	EventTrigger
	// EventForm is a submitted form.
	EventForm
	// EventSelect is an option selection.
	EventSelect
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventTrigger:
		return "trigger"
	case EventForm:
		return "form"
	case EventSelect:
		return "select"
	}
	return "unknown"
}

// Event is a platform-neutral inbound interaction.
type Event struct {
	Kind  EventKind
	Actor workflow.Actor
	// Admin is true when the actor holds administrator permission.
	Admin bool

	// Command fields.
	Name       string
	Subcommand string
	Options    map[string]string

	// Component and form fields.
	CustomID string
	Values   []string
	Fields   map[string]string
}

func (e Event) option(name string) string { return e.Options[name] }

func (e Event) field(id string) string { return e.Fields[id] }

func (e Event) firstValue() string {
	if len(e.Values) == 0 {
		return ""
	}
	return e.Values[0]
}
