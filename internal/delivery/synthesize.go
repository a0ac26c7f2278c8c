package delivery

const (
	// ContentTypeJSON is the only content type GitHub uses for JSON deliveries.
	ContentTypeJSON = "application/json"
	// UserAgentPrefix prefixes every user agent sent by the GitHub webhook sender.
	UserAgentPrefix = "GitHub-Hookshot/"
	// FallbackUserAgent is the user agent used for synthesized deliveries.
	FallbackUserAgent = UserAgentPrefix + "fallback-value"
	// FallbackDeliveryID is a constant delivery ID so that synthesized fixtures stay reproducible.
	FallbackDeliveryID = "49b0a670-63cd-11e9-8686-1a54dc9fb341"
)

// Synthesize returns a complete fake header set for the given event name.
func Synthesize(event string) Headers {
	return Headers{
		{Name: ContentTypeHeader, Value: ContentTypeJSON},
		{Name: UserAgentHeader, Value: FallbackUserAgent},
		{Name: DeliveryHeader, Value: FallbackDeliveryID},
		{Name: EventHeader, Value: event},
	}
}

// Augment fills in the synthesized headers missing from h, using its x-github-event as the source.
// Existing values are never overwritten and h itself is left untouched.
func Augment(h Headers) (Headers, error) {
	event, found := h.Get(EventHeader)
	if !found {
		return nil, &MissingHeaderError{Name: EventHeader}
	}

	out := h.Clone()
	for _, e := range Synthesize(event) {
		out.SetDefault(e.Name, e.Value)
	}
	return out, nil
}
