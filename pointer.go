package jsv

import (
	"strconv"
	"strings"
)

// path builds JSON Pointer (RFC 6901) locations in a chain-safe way. Values
// are immutable: field and index return extended copies so sibling traversals
// never share backing storage.
type path struct {
	parts []string
}

func (p path) field(name string) path {
	parts := append(append([]string{}, p.parts...), escapeToken(name))
	return path{parts: parts}
}

func (p path) index(i int) path {
	parts := append(append([]string{}, p.parts...), strconv.Itoa(i))
	return path{parts: parts}
}

// pointer renders the RFC 6901 string. The instance root is the empty string.
func (p path) pointer() string {
	if len(p.parts) == 0 {
		return ""
	}
	return "/" + strings.Join(p.parts, "/")
}

// escapeToken applies RFC 6901 escaping: '~' -> '~0', '/' -> '~1'.
func escapeToken(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
