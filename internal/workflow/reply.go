package workflow

import "github.com/tbourn/go-tellonym/internal/action"

// Reply is the UI-neutral result of an Engine step. The interaction layer
// turns it into a platform response.
type Reply struct {
	Text    string
	Form    *Form
	Buttons []Button
	Select  *Select
}

// Form asks the user for free text.
type Form struct {
	Action action.Action
	Title  string
	Fields []Field
}

// Field is one text input of a Form.
type Field struct {
	ID        string
	Label     string
	Long      bool
	MaxLength int
}

// ButtonStyle selects a button's colour.
type ButtonStyle int

const (
	StylePrimary ButtonStyle = iota + 1
	StyleSecondary
	StyleSuccess
	StyleDanger
)

// Button triggers an action.
type Button struct {
	Label  string
	Style  ButtonStyle
	Action action.Action
}

// Select offers mutually exclusive options.
type Select struct {
	Action      action.Action
	Placeholder string
	Options     []Option
}

// Option is one Select entry.
type Option struct {
	Label       string
	Value       string
	Description string
}

// Form field ids.
const (
	FieldReceiver = "receiver"
	FieldMessage  = "message"
	FieldReply    = "reply"
	FieldComment  = "comment"
)

// Input limits, in runes.
const (
	MaxReplyRunes   = 500
	MaxCommentRunes = 200
)
