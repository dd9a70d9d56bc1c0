package client

import (
	"errors"
	"fmt"

	"github.com/yourusername/clarity-api/internal/model"
)

// ErrRunInFlight is returned when a run is requested while a previous
// one is still outstanding. The second call is a no-op, not a queue.
var ErrRunInFlight = errors.New("a review is already running")

// APIError is a server-reported failure with its stable code and a
// calm, user-facing message.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// friendlyMessages maps stable error codes to banner text. Unknown codes
// fall through to the generic line; the user never sees a raw code.
var friendlyMessages = map[string]string{
	model.ErrCodeValidation:       "I need a bit more to work with. Add your resume text and try again.",
	model.ErrCodeRateLimited:      "Easy there. Give it a few seconds and try again.",
	model.ErrCodeInternal:         "Something glitched on our side. Try again.",
	model.ErrCodeUpstreamTimeout:  "The reviewer took too long. Run it again — it usually works on the second try.",
	model.ErrCodeUpstreamNetwork:  "Couldn't reach the reviewer. Check your connection and try again.",
	model.ErrCodeUpstreamHTTP:     "The reviewer hiccuped. Give it another try.",
	model.ErrCodeUpstreamParse:    "The reviewer sent back something unreadable. Run it again.",
	model.ErrCodeUpstreamNotJSON:  "The reviewer sent back something unreadable. Run it again.",
	model.ErrCodeUpstreamBadShape: "The reviewer sent back something unreadable. Run it again.",
	model.ErrCodePaywallRequired:  "You've used your free reviews. Grab a pass to keep going.",
}

func friendlyMessage(code string) string {
	if msg, ok := friendlyMessages[code]; ok {
		return msg
	}
	return "Something glitched. Try again."
}

// apiErrorFrom builds the user-facing error for a failed envelope. The
// server message is kept only when it is specific (validation details);
// everything else goes through the local mapping so wording stays
// consistent across server versions.
func apiErrorFrom(env model.Envelope) *APIError {
	msg := friendlyMessage(env.ErrorCode)
	if env.ErrorCode == model.ErrCodeValidation && env.Message != "" {
		msg = env.Message
	}
	return &APIError{Code: env.ErrorCode, Message: msg}
}
