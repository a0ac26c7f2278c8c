package delivery

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// deliveryIDShape holds the segment lengths of a UUID.
var deliveryIDShape = []int{8, 4, 4, 4, 12}

// Validate checks that h looks like the header set of a real GitHub delivery.
// Only the shape of the headers is verified; segments of the delivery ID are not required to be hex.
func Validate(h Headers) error {
	if v := h.Value(ContentTypeHeader); v != ContentTypeJSON {
		return &InvalidHeadersError{Rule: RuleContentType, Value: v, Reason: "must be " + ContentTypeJSON}
	}

	if v := h.Value(UserAgentHeader); !strings.HasPrefix(v, UserAgentPrefix) {
		return &InvalidHeadersError{Rule: RuleUserAgent, Value: v, Reason: "must start with " + UserAgentPrefix}
	}

	v := h.Value(DeliveryHeader)
	segments := strings.Split(v, "-")
	lengths := make([]int, len(segments))
	for i, s := range segments {
		lengths[i] = utf8.RuneCountInString(s)
	}
	if !slices.Equal(lengths, deliveryIDShape) {
		return &InvalidHeadersError{Rule: RuleDelivery, Value: v, Reason: "must be shaped like a UUID (8-4-4-4-12)"}
	}

	if v, found := h.Get(EventHeader); !found || v == "" {
		return &InvalidHeadersError{Rule: RuleEvent, Value: v, Reason: "must be a non-empty event name"}
	}
	return nil
}
