// Package delivery provides the header container, header synthesis and validation, and the synthetic request
// handed to webhook routers.
package delivery

import (
	"net/http"
	"strings"

	"github.com/google/go-github/v84/github"
)

// Header names of a GitHub webhook delivery, lower-cased.
var (
	ContentTypeHeader = "content-type"
	UserAgentHeader   = "user-agent"
	DeliveryHeader    = strings.ToLower(github.DeliveryIDHeader)
	EventHeader       = strings.ToLower(github.EventTypeHeader)
)

// Entry is a single header name/value pair.
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Headers is an ordered, multi-valued header collection. Names are compared case-insensitively.
type Headers []Entry

// Get returns the value of the first entry matching name.
func (h Headers) Get(name string) (string, bool) {
	for _, e := range h {
		if strings.EqualFold(e.Name, name) {
			return e.Value, true
		}
	}
	return "", false
}

// Value returns the value of the first entry matching name, or an empty string.
func (h Headers) Value(name string) string {
	v, _ := h.Get(name)
	return v
}

// Has reports whether at least one entry matches name.
func (h Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Values returns all values for name in insertion order.
func (h Headers) Values(name string) []string {
	var values []string
	for _, e := range h {
		if strings.EqualFold(e.Name, name) {
			values = append(values, e.Value)
		}
	}
	return values
}

// Add appends an entry, keeping any existing values for the same name.
func (h *Headers) Add(name, value string) {
	*h = append(*h, Entry{Name: name, Value: value})
}

// SetDefault appends an entry only when no entry for name exists yet.
// It reports whether the entry was added.
func (h *Headers) SetDefault(name, value string) bool {
	if h.Has(name) {
		return false
	}
	h.Add(name, value)
	return true
}

// Clone returns a copy that shares no backing storage with h.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	return append(make(Headers, 0, len(h)), h...)
}

// HTTPHeader converts the collection into an http.Header, preserving value order per name.
func (h Headers) HTTPHeader() http.Header {
	out := make(http.Header, len(h))
	for _, e := range h {
		out.Add(e.Name, e.Value)
	}
	return out
}

// Map flattens the collection into lower-cased names mapped to their first value.
func (h Headers) Map() map[string]string {
	out := make(map[string]string, len(h))
	for _, e := range h {
		k := strings.ToLower(e.Name)
		if _, found := out[k]; !found {
			out[k] = e.Value
		}
	}
	return out
}
