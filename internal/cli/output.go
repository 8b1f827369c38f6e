package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// printRecords writes records as text lines ("[1] age=30 name=Ana") or, in
// JSON mode, as an indented array.
func (a *app) printRecords(w io.Writer, collection string, records []types.Record) error {
	if a.flags.jsonMode {
		return printJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "(no records)")
		return nil
	}
	kp := keyPath(collection)
	for _, rec := range records {
		fmt.Fprintln(w, formatRecord(rec, kp))
	}
	return nil
}

// formatRecord renders the key in brackets followed by the remaining fields
// in name order.
func formatRecord(rec types.Record, keyPath string) string {
	fields := make([]string, 0, len(rec))
	for name := range rec {
		if name != keyPath {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)

	var b strings.Builder
	key, _, _ := rec.Key(keyPath)
	fmt.Fprintf(&b, "[%d]", key)
	for _, name := range fields {
		fmt.Fprintf(&b, " %s=%s", name, formatValue(rec[name]))
	}
	return b.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		if v == "" || strings.ContainsAny(v, " \t\"=") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(w, string(data))
	return nil
}
