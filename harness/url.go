package harness

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Encode converts text to the URL-safe base64 form engine pages decode.
func Encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

// Decode reverses Encode.
func Decode(s string) (string, error) {
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}

	return string(b), nil
}

// BuildURL returns the page URL that runs program against query on the
// engine served at path.
func BuildURL(host, path, program, query string) string {
	return fmt.Sprintf("%s%s?program=%s&query=%s",
		strings.TrimSuffix(host, "/"), path, Encode(program), Encode(query))
}
