// Package action encodes and decodes the opaque identifiers attached to
// buttons, select menus, and forms. An identifier has the shape
// <kind>_<param1>_<param2>; it is decoded once at the router boundary into a
// typed Action and never re-parsed deeper in the call chain.
package action

import (
	"strings"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// Kind names the step an identifier triggers.
type Kind string

const (
	KindCompose     Kind = "compose"     // open the compose form
	KindComposeForm Kind = "composeform" // compose form submitted
	KindClassify    Kind = "msgtype"     // msgtype_<type>_<cacheID>
	KindComment     Kind = "comment"     // comment_<messageID>
	KindCommentMode Kind = "commentmode" // commentmode_<messageID>
	KindCommentForm Kind = "commentform" // commentform_<messageID>_<mode>
	KindReply       Kind = "reply"       // reply_<messageID>
	KindReplyForm   Kind = "replyform"   // replyform_<messageID>
	KindRefresh     Kind = "refresh"     // refresh_<messageID>
)

const sep = "_"

// Action is the decoded form of an identifier. Only the fields relevant to
// Kind are set.
type Action struct {
	Kind      Kind
	MessageID string
	CacheID   string
	Type      domain.MessageType
	Mode      domain.CommentMode
}

func Compose() Action     { return Action{Kind: KindCompose} }
func ComposeForm() Action { return Action{Kind: KindComposeForm} }

func Classify(t domain.MessageType, cacheID string) Action {
	return Action{Kind: KindClassify, Type: t, CacheID: cacheID}
}

func Comment(messageID string) Action     { return Action{Kind: KindComment, MessageID: messageID} }
func CommentMode(messageID string) Action { return Action{Kind: KindCommentMode, MessageID: messageID} }

func CommentForm(messageID string, mode domain.CommentMode) Action {
	return Action{Kind: KindCommentForm, MessageID: messageID, Mode: mode}
}

func Reply(messageID string) Action     { return Action{Kind: KindReply, MessageID: messageID} }
func ReplyForm(messageID string) Action { return Action{Kind: KindReplyForm, MessageID: messageID} }
func Refresh(messageID string) Action   { return Action{Kind: KindRefresh, MessageID: messageID} }

// ID renders the identifier for a.
func (a Action) ID() string {
	parts := []string{string(a.Kind)}
	switch a.Kind {
	case KindClassify:
		parts = append(parts, string(a.Type), a.CacheID)
	case KindCommentForm:
		parts = append(parts, a.MessageID, string(a.Mode))
	case KindComment, KindCommentMode, KindReply, KindReplyForm, KindRefresh:
		parts = append(parts, a.MessageID)
	}
	return strings.Join(parts, sep)
}

// Parse decodes id. It returns false for identifiers that do not belong to
// this application or carry malformed parameters.
func Parse(id string) (Action, bool) {
	parts := strings.Split(id, sep)
	params := parts[1:]
	for _, p := range params {
		if p == "" {
			return Action{}, false
		}
	}

	switch k := Kind(parts[0]); k {
	case KindCompose, KindComposeForm:
		if len(params) != 0 {
			return Action{}, false
		}
		return Action{Kind: k}, true

	case KindClassify:
		if len(params) != 2 {
			return Action{}, false
		}
		t, ok := domain.ParseMessageType(params[0])
		if !ok {
			return Action{}, false
		}
		return Classify(t, params[1]), true

	case KindCommentForm:
		if len(params) != 2 {
			return Action{}, false
		}
		m, ok := domain.ParseCommentMode(params[1])
		if !ok {
			return Action{}, false
		}
		return CommentForm(params[0], m), true

	case KindComment, KindCommentMode, KindReply, KindReplyForm, KindRefresh:
		if len(params) != 1 {
			return Action{}, false
		}
		return Action{Kind: k, MessageID: params[0]}, true
	}
	return Action{}, false
}
