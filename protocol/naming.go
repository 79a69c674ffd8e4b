package protocol

import "strings"

// WireName converts an internal lower-snake or kebab field name to its
// camelCase wire form: the first segment is lowercased, each subsequent
// segment is title-cased (mime-type -> mimeType, exclusive_minimum ->
// exclusiveMinimum). Names already in camelCase pass through unchanged.
func WireName(name string) string {
	if !strings.ContainsAny(name, "-_") {
		return name
	}
	segs := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	if len(segs) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(segs[0]))
	for _, s := range segs[1:] {
		if s == "" {
			continue
		}
		b.WriteString(strings.ToUpper(s[:1]))
		b.WriteString(strings.ToLower(s[1:]))
	}
	return b.String()
}

// WireNames applies WireName recursively to every key of a generic value tree,
// returning a converted copy. Non-map values are returned as-is.
func WireNames(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[WireName(k)] = WireNames(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = WireNames(val)
		}
		return out
	default:
		return v
	}
}
