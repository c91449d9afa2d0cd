// Package project implements field projection for Cin7 Core records.
// Tools return a minimal default field set unless the caller asks for
// more; "*" disables projection entirely.
package project

// Record projects a single record to base + requested fields.
//
//   - fields nil/empty: only base fields survive
//   - fields contains "*": the record is returned untouched
func Record(data map[string]any, fields []string, base []string) map[string]any {
	for _, f := range fields {
		if f == "*" {
			return data
		}
	}
	allowed := make(map[string]bool, len(base)+len(fields))
	for _, f := range base {
		allowed[f] = true
	}
	for _, f := range fields {
		allowed[f] = true
	}
	out := make(map[string]any, len(allowed))
	for k, v := range data {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}

// Items projects every record in a page. The returned slice is always a
// fresh allocation, so callers may append it to a shared buffer.
func Items(items []map[string]any, fields []string, base []string) []map[string]any {
	for _, f := range fields {
		if f == "*" {
			out := make([]map[string]any, len(items))
			copy(out, items)
			return out
		}
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, Record(it, fields, base))
	}
	return out
}
