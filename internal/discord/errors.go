package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/tbourn/go-tellonym/internal/workflow"
)

// Platform error codes treated as benign races.
const (
	codeUnknownInteraction      = 10062
	codeInteractionAcknowledged = 40060
	codeUnknownUser             = 10013
	codeUnknownMember           = 10007
)

func apiCode(err error) (int, bool) {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Message == nil {
		return 0, false
	}
	return rest.Message.Code, true
}

// IsTransient reports whether err is an expired or already acknowledged
// interaction.
func IsTransient(err error) bool {
	code, ok := apiCode(err)
	return ok && (code == codeUnknownInteraction || code == codeInteractionAcknowledged)
}

// isNotFound reports whether err is a 404 or an unknown user/member error.
func isNotFound(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return true
	}
	code, _ := apiCode(err)
	return code == codeUnknownUser || code == codeUnknownMember
}

// classify wraps transient platform errors with workflow.ErrTransient.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, workflow.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
