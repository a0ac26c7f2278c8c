// Package stub reads locally authored event stubs standing in for real webhook deliveries.
//
// A stub is a YAML stream of one or two documents, one or two JSON lines, or a single JSON object.
// When two documents or lines are present, the first one is the header list and the second one the payload.
package stub

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/isometry/gh-webhook-stub/internal/delivery"
	pkgerrors "github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

// Format is a supported stub encoding.
type Format string

const (
	// FormatAuto probes every supported encoding in priority order.
	FormatAuto Format = "auto"
	// FormatYAML is a multi-document YAML stream.
	FormatYAML Format = "yaml"
	// FormatJSONL is one or two lines of JSON.
	FormatJSONL Format = "jsonl"
	// FormatJSON is a single JSON object.
	FormatJSON Format = "json"
)

// Formats lists the explicit formats in probing order.
var Formats = []Format{FormatYAML, FormatJSONL, FormatJSON}

// Stub is the result of successfully probing a stub file.
type Stub struct {
	Format  Format
	Headers delivery.Headers
	Payload any
}

// HasHeaders reports whether the stub embeds a non-empty header list.
func (s *Stub) HasHeaders() bool {
	return len(s.Headers) > 0
}

// result is the outcome of one probe: either a matched stub or the reason the input is not in that format.
// Errors returned next to a result are fatal and stop the probing chain.
type result struct {
	stub     *Stub
	mismatch error
}

func matched(s *Stub) result { return result{stub: s} }
func notThisFormat(err error) result { return result{mismatch: err} }

type prober func(r io.ReadSeeker) (result, error)

var probers = map[Format]prober{
	FormatYAML:  probeYAML,
	FormatJSONL: probeJSONL,
	FormatJSON:  probeJSON,
}

// Parse determines the encoding of r and extracts its headers and payload.
// YAML and JSON Lines are tried first and silently skipped when they do not match;
// the single JSON object encoding is the last resort and its failure is returned as-is.
// Since JSON is also YAML, a non-object JSON root such as [1,2] or 42 is accepted here
// as a one-document YAML payload; only ParseFormat with FormatJSON rejects it.
func Parse(r io.ReadSeeker) (*Stub, error) {
	for _, f := range Formats[:len(Formats)-1] {
		res, err := run(r, f)
		if err != nil {
			return nil, err
		}
		if res.mismatch == nil {
			return res.stub, nil
		}
	}
	return ParseFormat(r, Formats[len(Formats)-1])
}

// ParseFormat reads r using the given encoding only. FormatAuto and the empty format behave like Parse.
func ParseFormat(r io.ReadSeeker, f Format) (*Stub, error) {
	if f == FormatAuto || f == "" {
		return Parse(r)
	}
	if _, found := probers[f]; !found {
		return nil, &UnsupportedFormatError{Cause: pkgerrors.Errorf("unknown format %q", f)}
	}
	res, err := run(r, f)
	if err != nil {
		return nil, err
	}
	if res.mismatch != nil {
		return nil, &UnsupportedFormatError{Cause: res.mismatch}
	}
	return res.stub, nil
}

func run(r io.ReadSeeker, f Format) (result, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return result{}, pkgerrors.Wrap(err, "failed to rewind stub")
	}
	res, err := probers[f](r)
	if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil && err == nil {
		err = pkgerrors.Wrap(seekErr, "failed to rewind stub")
	}
	var malformed *MalformedInputError
	if errors.As(err, &malformed) && malformed.Format == "" {
		malformed.Format = f
	}
	return res, err
}

func probeYAML(r io.ReadSeeker) (result, error) {
	dec := yaml.NewDecoder(r)
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return notThisFormat(err), nil
		}
		if len(docs) < 2 {
			docs = append(docs, &doc)
			continue
		}
		// Trailing empty documents, such as a closing "---", are ignored.
		if !isNull(&doc) {
			return result{}, &MalformedInputError{Format: FormatYAML, Reason: "YAML file must only contain 1–2 documents"}
		}
	}

	var headers, payload *yaml.Node
	switch len(docs) {
	case 1:
		payload = docs[0]
	case 2:
		headers, payload = docs[0], docs[1]
	}
	if isNull(payload) {
		headers, payload = nil, headers
	}
	if isNull(payload) {
		return result{}, &MalformedInputError{Format: FormatYAML, Reason: "YAML file must contain 1–2 non-empty documents"}
	}

	// Decoding into nodes skips checks such as duplicate keys, which only surface here.
	var p any
	if err := payload.Decode(&p); err != nil {
		return notThisFormat(err), nil
	}
	p = jsonCompatible(p)
	h, err := Normalize(headers)
	if err != nil {
		return result{}, err
	}
	return matched(&Stub{Format: FormatYAML, Headers: h, Payload: p}), nil
}

func probeJSONL(r io.ReadSeeker) (result, error) {
	br := bufio.NewReader(r)
	var lines [3]string
	for i := range lines {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return result{}, pkgerrors.Wrap(err, "failed to read stub")
		}
		lines[i] = line
	}

	var first any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		return notThisFormat(err), nil
	}
	if lines[2] != "" {
		return result{}, &MalformedInputError{Format: FormatJSONL, Reason: "JSONL file must only contain 1–2 JSON lines"}
	}

	var second any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil || second == nil {
		return matched(&Stub{Format: FormatJSONL, Headers: delivery.Headers{}, Payload: first}), nil
	}

	// JSON is valid YAML; decoding the header line as a node keeps the order of its entries.
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(lines[0]), &node); err != nil {
		return result{}, &MalformedInputError{Format: FormatJSONL, Reason: err.Error()}
	}
	h, err := Normalize(&node)
	if err != nil {
		return result{}, err
	}
	return matched(&Stub{Format: FormatJSONL, Headers: h, Payload: second}), nil
}

func probeJSON(r io.ReadSeeker) (result, error) {
	dec := json.NewDecoder(r)
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return result{}, &UnsupportedFormatError{Cause: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return result{}, &UnsupportedFormatError{Cause: errors.New("JSON file contains extra data after the top-level value")}
	}
	if _, ok := payload.(map[string]any); !ok {
		return result{}, &MalformedInputError{Format: FormatJSON, Reason: "JSON file must only contain an object mapping"}
	}
	return matched(&Stub{Format: FormatJSON, Headers: delivery.Headers{}, Payload: payload}), nil
}

// jsonCompatible rewrites the maps YAML produces for non-string keys, such as `200: ok`,
// into string-keyed maps so that the payload always encodes as JSON.
func jsonCompatible(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = jsonCompatible(e)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			if k == nil {
				m["null"] = jsonCompatible(e)
				continue
			}
			m[fmt.Sprint(k)] = jsonCompatible(e)
		}
		return m
	case []any:
		for i, e := range v {
			v[i] = jsonCompatible(e)
		}
		return v
	default:
		return v
	}
}
