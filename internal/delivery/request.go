package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// Request is a synthetic inbound webhook request.
// The payload is kept decoded; Read hands it out as-is without any body framing.
type Request struct {
	Method  string
	Path    string
	Headers Headers

	payload any
}

// NewRequest builds a POST / request carrying the given headers and decoded payload.
func NewRequest(headers Headers, payload any) *Request {
	return &Request{
		Method:  http.MethodPost,
		Path:    "/",
		Headers: headers,
		payload: payload,
	}
}

// Event returns the x-github-event header value.
func (r *Request) Event() string {
	return r.Headers.Value(EventHeader)
}

// DeliveryID returns the x-github-delivery header value.
func (r *Request) DeliveryID() string {
	return r.Headers.Value(DeliveryHeader)
}

// Read returns the already-decoded payload.
func (r *Request) Read(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.payload, nil
}

// Body returns the payload encoded as JSON, as it would appear on the wire.
func (r *Request) Body() ([]byte, error) {
	body, err := json.Marshal(r.payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payload")
	}
	return body, nil
}

// HTTPRequest materializes the request as an *http.Request targeting url.
func (r *Request) HTTPRequest(ctx context.Context, url string) (*http.Request, error) {
	body, err := r.Body()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header = r.Headers.HTTPHeader()
	return req, nil
}
