package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf16"
)

// Fingerprint hashes the JSON encoding of v.
//
// The hash is h = h*31 + c over the UTF-16 code units of the encoding,
// wrapped to a signed 32-bit integer and rendered in decimal. HTML
// characters are not escaped, so the encoding matches what an editor
// client would produce for the same document. Collisions are possible and
// tolerated: a collision only serves a stale analysis.
func Fingerprint(v any) string {
	return HashString(canonical(v))
}

// HashString applies the fingerprint hash to s directly.
func HashString(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return strconv.FormatInt(int64(h), 10)
}

func canonical(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Unencodable values still get a stable, if coarse, key.
		return fmt.Sprintf("%#v", v)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
