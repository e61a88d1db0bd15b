// Package output renders ffwsctl results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

func Parse(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", v)
	}
}

func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatText:
		// Round-trip through JSON so struct tags name the fields.
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		var sb strings.Builder
		writeText(&sb, generic, 0)
		_, err = io.WriteString(w, sb.String())
		return err
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

func writeText(sb *strings.Builder, v any, depth int) {
	pad := strings.Repeat("  ", depth)
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := t[k]
			if isScalar(child) {
				fmt.Fprintf(sb, "%s%s: %s\n", pad, k, scalar(child))
				continue
			}
			fmt.Fprintf(sb, "%s%s:\n", pad, k)
			writeText(sb, child, depth+1)
		}
	case []any:
		if len(t) == 0 {
			fmt.Fprintf(sb, "%s(none)\n", pad)
			return
		}
		for i, child := range t {
			if isScalar(child) {
				fmt.Fprintf(sb, "%s- %s\n", pad, scalar(child))
				continue
			}
			fmt.Fprintf(sb, "%s[%d]\n", pad, i)
			writeText(sb, child, depth+1)
		}
	default:
		fmt.Fprintf(sb, "%s%s\n", pad, scalar(t))
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	default:
		return true
	}
}

func scalar(v any) string {
	if v == nil {
		return "-"
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return cast.ToString(int64(f))
	}
	return cast.ToString(v)
}
