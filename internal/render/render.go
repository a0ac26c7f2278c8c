// Package render writes a resolved delivery back out, either as a stub file or as the event a Lambda
// function would receive for it.
package render

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/gh-webhook-stub/internal/delivery"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

// Format is an output encoding.
type Format string

const (
	// FormatYAML is a two-document YAML stub: header list, then payload.
	FormatYAML Format = "yaml"
	// FormatJSONL is a two-line JSON stub: header list, then payload.
	FormatJSONL Format = "jsonl"
	// FormatJSON is the bare payload, without headers.
	FormatJSON Format = "json"
	// FormatAPIGatewayV1 is an API Gateway REST API proxy event.
	FormatAPIGatewayV1 Format = "api-gateway-v1"
	// FormatAPIGatewayV2 is an API Gateway HTTP API event.
	FormatAPIGatewayV2 Format = "api-gateway-v2"
	// FormatLambdaURL is a Lambda function URL event.
	FormatLambdaURL Format = "lambda-url"
)

// Formats lists every supported output encoding.
var Formats = []Format{FormatYAML, FormatJSONL, FormatJSON, FormatAPIGatewayV1, FormatAPIGatewayV2, FormatLambdaURL}

// UnsupportedFormatError is returned for an unknown output encoding.
type UnsupportedFormatError struct {
	Format Format
}

func (m *UnsupportedFormatError) Error() string {
	return "unsupported render format: " + string(m.Format)
}

// Write encodes the delivery described by headers and payload to w.
func Write(w io.Writer, f Format, headers delivery.Headers, payload any) error {
	switch f {
	case FormatYAML:
		return writeYAML(w, headers, payload)
	case FormatJSONL:
		return writeJSONL(w, headers, payload)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(payload), "failed to encode payload")
	case FormatAPIGatewayV1, FormatAPIGatewayV2, FormatLambdaURL:
		event, err := LambdaEvent(f, delivery.NewRequest(headers, payload))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(event), "failed to encode event")
	default:
		return &UnsupportedFormatError{Format: f}
	}
}

// headerList is the stub representation of headers: a list of single-entry mappings.
func headerList(headers delivery.Headers) []map[string]string {
	out := make([]map[string]string, 0, len(headers))
	for _, e := range headers {
		out = append(out, map[string]string{e.Name: e.Value})
	}
	return out
}

func writeYAML(w io.Writer, headers delivery.Headers, payload any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(headerList(headers)); err != nil {
		return errors.Wrap(err, "failed to encode headers")
	}
	if err := enc.Encode(payload); err != nil {
		return errors.Wrap(err, "failed to encode payload")
	}
	return errors.Wrap(enc.Close(), "failed to flush YAML stream")
}

func writeJSONL(w io.Writer, headers delivery.Headers, payload any) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(headerList(headers)); err != nil {
		return errors.Wrap(err, "failed to encode headers")
	}
	return errors.Wrap(enc.Encode(payload), "failed to encode payload")
}

// LambdaEvent converts req into the event an AWS Lambda function behind the given integration receives.
func LambdaEvent(f Format, req *delivery.Request) (any, error) {
	body, err := req.Body()
	if err != nil {
		return nil, err
	}
	single, multi := lambdaHeaders(req.Headers)

	switch f {
	case FormatAPIGatewayV1:
		return events.APIGatewayProxyRequest{
			Resource:          req.Path,
			Path:              req.Path,
			HTTPMethod:        req.Method,
			Headers:           single,
			MultiValueHeaders: multi,
			RequestContext: events.APIGatewayProxyRequestContext{
				ResourcePath: req.Path,
				Path:         req.Path,
				HTTPMethod:   req.Method,
				RequestID:    req.DeliveryID(),
			},
			Body: string(body),
		}, nil
	case FormatAPIGatewayV2:
		return events.APIGatewayV2HTTPRequest{
			Version:  "2.0",
			RouteKey: req.Method + " " + req.Path,
			RawPath:  req.Path,
			Headers:  single,
			RequestContext: events.APIGatewayV2HTTPRequestContext{
				RouteKey:  req.Method + " " + req.Path,
				RequestID: req.DeliveryID(),
				HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
					Method:    req.Method,
					Path:      req.Path,
					Protocol:  "HTTP/1.1",
					UserAgent: req.Headers.Value(delivery.UserAgentHeader),
				},
			},
			Body: string(body),
		}, nil
	case FormatLambdaURL:
		return events.LambdaFunctionURLRequest{
			Version: "2.0",
			RawPath: req.Path,
			Headers: single,
			RequestContext: events.LambdaFunctionURLRequestContext{
				RequestID: req.DeliveryID(),
				HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{
					Method:    req.Method,
					Path:      req.Path,
					Protocol:  "HTTP/1.1",
					UserAgent: req.Headers.Value(delivery.UserAgentHeader),
				},
			},
			Body: string(body),
		}, nil
	default:
		return nil, &UnsupportedFormatError{Format: f}
	}
}

// lambdaHeaders lower-cases header names like the Lambda proxy integrations do.
// Repeated headers are comma-joined in the single-value map.
func lambdaHeaders(headers delivery.Headers) (map[string]string, map[string][]string) {
	multi := make(map[string][]string, len(headers))
	for _, e := range headers {
		k := strings.ToLower(e.Name)
		multi[k] = append(multi[k], e.Value)
	}
	single := make(map[string]string, len(multi))
	for k, v := range multi {
		single[k] = strings.Join(v, ",")
	}
	return single, multi
}
