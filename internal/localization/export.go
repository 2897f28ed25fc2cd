package localization

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"figmatext/internal/domain"
)

// Format selects an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatXML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use json or xml)", s)
	}
}

// ── Flat signed JSON ───────────────────────────────────────

// JSONExport is the flat key → text table for custom localization clients.
type JSONExport struct {
	Version   int64                                  `json:"version"`
	Strings   *orderedmap.OrderedMap[string, string] `json:"strings"`
	Signature string                                 `json:"signature"`
}

// BuildJSON flattens one page into dotted keys, in screen/text order.
// version is lastUpdated in unix seconds, or the current time when zero.
func BuildJSON(page domain.Page, lastUpdated time.Time, signer *Signer) *JSONExport {
	strs := orderedmap.New[string, string]()
	plain := make(map[string]string)

	counter := NewKeyCounter()
	for _, screen := range OrderScreens(page) {
		for _, text := range screen.Texts {
			key := counter.Next(ComposeKey(screen.Name, text.Name, JSONSeparator))
			strs.Set(key, text.Content)
			plain[key] = text.Content
		}
	}

	if lastUpdated.IsZero() {
		lastUpdated = time.Now()
	}
	return &JSONExport{
		Version:   lastUpdated.Unix(),
		Strings:   strs,
		Signature: signer.Sign(plain),
	}
}

// ── XML string resources ───────────────────────────────────

type xmlResources struct {
	XMLName xml.Name    `xml:"resources"`
	Strings []xmlString `xml:"string"`
}

type xmlString struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// BuildXML renders one page as a string-resource document with
// underscore-separated keys, indented by four spaces.
func BuildXML(page domain.Page) ([]byte, error) {
	res := xmlResources{}
	counter := NewKeyCounter()
	for _, screen := range OrderScreens(page) {
		for _, text := range screen.Texts {
			res.Strings = append(res.Strings, xmlString{
				Name:  counter.Next(ComposeKey(screen.Name, text.Name, XMLSeparator)),
				Value: text.Content,
			})
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(res); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ── Dispatch ───────────────────────────────────────────────

// Export is the result of ComputeExport; exactly one of JSON and XML is set.
type Export struct {
	Format Format
	JSON   *JSONExport
	XML    []byte
}

// ComputeExport renders the named page (case-insensitive) of snap. It returns
// domain.ErrNotFound when the snapshot has no such page.
func ComputeExport(snap *domain.Snapshot, pageName string, format Format, signer *Signer) (*Export, error) {
	page, ok := FindPage(snap, pageName)
	if !ok {
		return nil, fmt.Errorf("page %q: %w", pageName, domain.ErrNotFound)
	}

	switch format {
	case FormatJSON:
		return &Export{Format: format, JSON: BuildJSON(page, snap.LastUpdated, signer)}, nil
	case FormatXML:
		data, err := BuildXML(page)
		if err != nil {
			return nil, err
		}
		return &Export{Format: format, XML: data}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
