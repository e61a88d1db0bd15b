package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clbanning/mxj/v2"
)

var (
	ErrUnsupportedFormat = errors.New("mapping: unsupported response format")
	ErrDecode            = errors.New("mapping: cannot decode body")
	ErrNotRecords        = errors.New("mapping: parsed data is not a list or object")
)

// Decode parses a response body into a generic tree of map[string]any, []any
// and scalars. JSON numbers are kept as json.Number.
func Decode(body []byte, format string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var tree any
		if err := dec.Decode(&tree); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return tree, nil
	case "xml":
		m, err := mxj.NewMapXml(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return map[string]any(m), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Lookup descends tree by dot-separated keys. Numeric segments index lists.
// An empty path returns the tree itself.
func Lookup(tree any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return tree, tree != nil
	}
	cur := tree
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case mxj.Map:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Records extracts the record list at dataPath. A missing segment yields an
// empty list and a single object is wrapped in a one-element list.
func Records(tree any, dataPath string) ([]any, error) {
	node, ok := Lookup(tree, dataPath)
	if !ok {
		return []any{}, nil
	}
	switch v := node.(type) {
	case []any:
		return v, nil
	case map[string]any, mxj.Map:
		return []any{v}, nil
	default:
		return nil, ErrNotRecords
	}
}

// Parse is Decode followed by Records.
func Parse(body []byte, format, dataPath string) ([]any, error) {
	tree, err := Decode(body, format)
	if err != nil {
		return nil, err
	}
	return Records(tree, dataPath)
}
