package dispatch

import (
	"github.com/isometry/gh-webhook-stub/internal/delivery"
	"github.com/isometry/gh-webhook-stub/internal/stub"
)

// Plan is a fully resolved delivery, ready to be dispatched.
type Plan struct {
	Mode    Mode
	Event   string
	Headers delivery.Headers
	Payload any
}

// Resolve combines an optional explicit event name with a parsed stub into validated delivery headers.
// Headers embedded in the stub are completed with synthesized defaults; otherwise headers are synthesized from event.
// The returned plan has no mode: it is derived from the credentials at dispatch time.
func Resolve(event string, s *stub.Stub) (*Plan, error) {
	var headers delivery.Headers
	switch {
	case s.HasHeaders() && event != "":
		return nil, &ConflictingInputsError{Event: event}
	case s.HasHeaders():
		augmented, err := delivery.Augment(s.Headers)
		if err != nil {
			return nil, err
		}
		headers = augmented
		event = headers.Value(delivery.EventHeader)
	case event == "":
		return nil, &delivery.MissingHeaderError{Name: delivery.EventHeader}
	default:
		headers = delivery.Synthesize(event)
	}

	if err := delivery.Validate(headers); err != nil {
		return nil, err
	}
	return &Plan{Event: event, Headers: headers, Payload: s.Payload}, nil
}
