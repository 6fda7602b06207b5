package format

import (
	"encoding/base64"

	"github.com/goccy/go-json"
)

// EncodingFunc decodes a string stored under a named content encoding,
// returning the decoded bytes or the decode error.
type EncodingFunc func(s string) ([]byte, error)

// MediaTypeFunc checks that data parses under a named media type.
type MediaTypeFunc func(data []byte) error

// ContentRegistry maps contentEncoding and contentMediaType names to their
// checkers. Unknown names are a no-op pass, mirroring Registry.
type ContentRegistry struct {
	Encodings  map[string]EncodingFunc
	MediaTypes map[string]MediaTypeFunc
}

// DefaultContent returns a fresh registry with the built-in content checkers.
func DefaultContent() ContentRegistry {
	return ContentRegistry{
		Encodings: map[string]EncodingFunc{
			"base64": decodeBase64,
		},
		MediaTypes: map[string]MediaTypeFunc{
			"application/json": checkJSON,
		},
	}
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func checkJSON(data []byte) error {
	var v any
	return json.Unmarshal(data, &v)
}
