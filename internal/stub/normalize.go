package stub

import (
	"fmt"

	"github.com/isometry/gh-webhook-stub/internal/delivery"
	"go.yaml.in/yaml/v3"
)

const nullTag = "!!null"

// Normalize converts a raw header list into delivery.Headers.
// The list is either a sequence of single-entry mappings, which allows repeated names, or a plain mapping.
// Order is preserved in both cases and an empty or null list yields empty headers.
func Normalize(node *yaml.Node) (delivery.Headers, error) {
	node = resolve(node)
	if node == nil || node.Kind == 0 {
		return delivery.Headers{}, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return delivery.Headers{}, nil
		}
		return Normalize(node.Content[0])
	case yaml.ScalarNode:
		if node.ShortTag() == nullTag {
			return delivery.Headers{}, nil
		}
	case yaml.SequenceNode:
		headers := make(delivery.Headers, 0, len(node.Content))
		for i, item := range node.Content {
			item = resolve(item)
			if item.Kind != yaml.MappingNode || len(item.Content) < 2 {
				return nil, &MalformedInputError{Reason: fmt.Sprintf("header list entry %d must be a single-entry mapping", i)}
			}
			e, err := entry(item.Content[0], item.Content[1])
			if err != nil {
				return nil, err
			}
			headers = append(headers, e)
		}
		return headers, nil
	case yaml.MappingNode:
		headers := make(delivery.Headers, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			e, err := entry(node.Content[i], node.Content[i+1])
			if err != nil {
				return nil, err
			}
			headers = append(headers, e)
		}
		return headers, nil
	}

	return nil, &MalformedInputError{Reason: "header list must be a sequence of single-entry mappings"}
}

func entry(name, value *yaml.Node) (delivery.Entry, error) {
	name, value = resolve(name), resolve(value)
	if name.Kind != yaml.ScalarNode || name.ShortTag() == nullTag || name.Value == "" {
		return delivery.Entry{}, &MalformedInputError{Reason: fmt.Sprintf("header name at line %d must be text", name.Line)}
	}
	if value.Kind != yaml.ScalarNode {
		return delivery.Entry{}, &MalformedInputError{Reason: fmt.Sprintf("header %q must have a scalar value", name.Value)}
	}
	e := delivery.Entry{Name: name.Value}
	if value.ShortTag() != nullTag {
		e.Value = value.Value
	}
	return e, nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	node = resolve(node)
	if node == nil || node.Kind == 0 {
		return true
	}
	if node.Kind == yaml.DocumentNode {
		return len(node.Content) == 0 || isNull(node.Content[0])
	}
	return node.Kind == yaml.ScalarNode && node.ShortTag() == nullTag
}
