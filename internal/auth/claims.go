package auth

// Claims is a validated set of identity claims extracted from an ID token.
// It is read-only from the point of view of this package.
type Claims map[string]any

// Has reports whether the claim is present, regardless of its value.
func (c Claims) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// String returns the claim as a string, or "" when absent or not a string.
func (c Claims) String(name string) string {
	if s, ok := c[name].(string); ok {
		return s
	}

	return ""
}

// StringList returns the claim as a list of strings. A missing claim yields
// an empty list. JSON decoding hands list claims over as []any, so both
// forms are accepted; non-string elements are skipped.
func (c Claims) StringList(name string) []string {
	switch v := c[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// missing returns the names from required that are not present in c.
func (c Claims) missing(required []string) []string {
	var out []string

	for _, name := range required {
		if !c.Has(name) {
			out = append(out, name)
		}
	}

	return out
}
