package domain

import "time"

// Profile is a resolved platform identity.
type Profile struct {
	ID          string
	DisplayName string
	Automated   bool
}

// Comment is one immutable entry in a CommentThread.
type Comment struct {
	Mode       CommentMode
	AuthorID   string
	AuthorName string
	Text       string
	CreatedAt  time.Time
}

// PendingCompose is a drafted note waiting for its type to be chosen.
type PendingCompose struct {
	SenderID   string
	ReceiverID string
	Content    string
}

// DispatchMapping links a published card to its hidden provenance.
type DispatchMapping struct {
	SenderID           string
	ReceiverID         string
	ChannelID          string
	PublishedMessageID string
	Type               MessageType
	CreatedAt          time.Time
}
