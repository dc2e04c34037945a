package workflow

import (
	"context"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// ConfigStore is the durable configuration the engine reads and counts into.
type ConfigStore interface {
	Read(ctx context.Context) (domain.Config, error)
	IncrementCounter(ctx context.Context, t domain.MessageType) error
}

// Limiter is the per-sender rate limiter. Callers check before recording.
type Limiter interface {
	IsLimited(ctx context.Context, userID string) (bool, error)
	TimeLeftSeconds(ctx context.Context, userID string) (int, error)
	RecordAttempt(ctx context.Context, userID string) error
}

// Renderer draws cards. Failures are recoverable.
type Renderer interface {
	MessageCard(text, receiverName string, t domain.MessageType, comments []domain.Comment) ([]byte, error)
	ReplyCard(text, replierName string) ([]byte, error)
	AdminCard(text string, sender, receiver domain.Profile) ([]byte, error)
}

// Resolver looks up platform identities. ok is false when nothing matched.
type Resolver interface {
	// Resolve accepts an id or a display name, searched within scope.
	Resolve(ctx context.Context, scope, query string) (p domain.Profile, ok bool, err error)
	// Profile fetches a user by id.
	Profile(ctx context.Context, userID string) (p domain.Profile, ok bool, err error)
}

// Post is an outbound message.
type Post struct {
	Content  string
	Image    []byte
	FileName string
	Buttons  []Button
}

// Publisher publishes, edits, and privately delivers messages.
type Publisher interface {
	Publish(ctx context.Context, channelID string, p Post) (messageID string, err error)
	// Edit replaces the content, image, and buttons of a published message.
	Edit(ctx context.Context, channelID, messageID string, p Post) error
	// SetButtons replaces only the buttons of a published message.
	SetButtons(ctx context.Context, channelID, messageID string, buttons []Button) error
	SendPrivate(ctx context.Context, userID string, p Post) error
}

// Actor is the user driving an interaction.
type Actor struct {
	domain.Profile
	// Scope is the community (guild) the interaction came from.
	Scope string
}
