// Package format holds the named format checkers and the content
// encoding/media-type checkers consumed by the validator. Registries are
// plain values passed into compilation, not process-wide singletons, so
// independent validators with different checker sets can coexist.
package format

import (
	"net"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsv-go/jsv/internal/regexguard"
)

// Func is a pure predicate over a candidate string value.
type Func func(s string) bool

// Registry maps format names to checkers. Names absent from the registry are
// a no-op pass: schemas referencing unsupported formats do not spuriously
// fail.
type Registry map[string]Func

// Default returns a fresh registry with the built-in checkers. Callers may
// add or replace entries before handing it to the compiler.
func Default() Registry {
	return Registry{
		"date-time":     isDateTime,
		"date":          isDate,
		"time":          isTime,
		"duration":      isDuration,
		"email":         isEmail,
		"hostname":      isHostname,
		"ipv4":          isIPv4,
		"ipv6":          isIPv6,
		"uri":           isURI,
		"uri-reference": isURIReference,
		"uuid":          isUUID,
		"json-pointer":  isJSONPointer,
		"regex":         isRegex,
	}
}

func isDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func isTime(s string) bool {
	_, err := time.Parse("15:04:05Z07:00", s)
	return err == nil
}

// durationRE follows the ISO 8601 production used by JSON Schema: either a
// week form or date/time designators, with at least one component present.
var durationRE = regexguard.MustCompile(
	`^P(?=.)(?:\d+W|(?:\d+Y)?(?:\d+M)?(?:\d+D)?(?:T(?=\d)(?:\d+H)?(?:\d+M)?(?:\d+(?:\.\d+)?S)?)?)$`)

func isDuration(s string) bool {
	ok, err := durationRE.Match(s)
	return err == nil && ok
}

func isEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	// ParseAddress accepts display-name forms; a bare address must round-trip.
	return err == nil && a.Address == s
}

func isHostname(s string) bool {
	if len(s) == 0 || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}

func isIPv4(s string) bool {
	if strings.Contains(s, ":") {
		return false
	}
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

func isIPv6(s string) bool {
	if !strings.Contains(s, ":") {
		return false
	}
	return net.ParseIP(s) != nil
}

func isURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func isURIReference(s string) bool {
	_, err := url.Parse(s)
	return err == nil
}

func isUUID(s string) bool {
	if len(s) != 36 {
		// uuid.Parse also accepts urn: and braced forms; the format is the
		// canonical 8-4-4-4-12 text shape only.
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isJSONPointer(s string) bool {
	if s == "" {
		return true
	}
	if s[0] != '/' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '~' {
			continue
		}
		if i+1 >= len(s) || (s[i+1] != '0' && s[i+1] != '1') {
			return false
		}
	}
	return true
}

func isRegex(s string) bool {
	_, err := regexguard.Compile(s)
	return err == nil
}
