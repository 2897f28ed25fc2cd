package localization

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Signer produces HMAC-SHA256 signatures over export string tables.
// A Signer without a secret signs nothing and returns "".
type Signer struct {
	secret []byte
}

// NewSigner returns a Signer for secret. An empty secret disables signing.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (s *Signer) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Sign returns base64(HMAC-SHA256(secret, CanonicalJSON(strings))).
func (s *Signer) Sign(strings map[string]string) string {
	if !s.Enabled() {
		return ""
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(CanonicalJSON(strings))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// CanonicalJSON encodes a flat string table with keys sorted ascending, no
// whitespace, and every character outside printable ASCII escaped as \uXXXX
// (lower-case hex, surrogate pairs above U+FFFF). Clients verify signatures
// against exactly these bytes.
func CanonicalJSON(m map[string]string) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeASCIIString(&buf, k)
		buf.WriteByte(':')
		writeASCIIString(&buf, m[k])
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func writeASCIIString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				buf.WriteByte(byte(r))
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(buf, `\u%04x\u%04x`, hi, lo)
			default:
				fmt.Fprintf(buf, `\u%04x`, r)
			}
		}
	}
	buf.WriteByte('"')
}
