package domain

// MessageType classifies an anonymous note. The set is closed.
type MessageType string

const (
	TypeQuestion   MessageType = "question"
	TypeCompliment MessageType = "compliment"
	TypeAdvice     MessageType = "advice"
	TypeConfession MessageType = "confession"
)

// MessageTypes lists every valid MessageType in presentation order.
var MessageTypes = []MessageType{TypeQuestion, TypeCompliment, TypeAdvice, TypeConfession}

// Valid reports whether t belongs to the closed set of message types.
func (t MessageType) Valid() bool {
	switch t {
	case TypeQuestion, TypeCompliment, TypeAdvice, TypeConfession:
		return true
	}
	return false
}

// ParseMessageType converts a tag into a MessageType.
func ParseMessageType(s string) (MessageType, bool) {
	t := MessageType(s)
	return t, t.Valid()
}

// CommentMode controls whether a comment reveals its author.
type CommentMode string

const (
	ModeAnonymous  CommentMode = "anonymous"
	ModeIdentified CommentMode = "identified"
)

// Valid reports whether m is anonymous or identified.
func (m CommentMode) Valid() bool {
	return m == ModeAnonymous || m == ModeIdentified
}

// ParseCommentMode converts a tag into a CommentMode.
func ParseCommentMode(s string) (CommentMode, bool) {
	m := CommentMode(s)
	return m, m.Valid()
}
