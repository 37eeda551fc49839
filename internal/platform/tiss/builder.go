// Package tiss generates ANS TISS 4.02.00 XML messages (guia de consulta,
// guia SP/SADT, recurso de glosa) for submission to health insurer
// webservices.
//
// Messages are built in a single forward pass over a string builder. The
// ANS epilogue hash covers the exact serialized bytes that precede it, so
// the builder never re-serializes or reorders what it has already written:
// at the point the epilogue is inserted, the hash of everything emitted so
// far is final.
package tiss

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// Namespace is the ANS schema namespace for all TISS messages.
	Namespace = "http://www.ans.gov.br/padroes/tiss/schemas"

	// DefaultVersion is the TISS standard version emitted unless the
	// insurer's webservice config overrides it.
	DefaultVersion = "4.02.00"
)

// Fixed-width numeric fields in the TISS schema.
const (
	WidthRegistroANS = 6
	WidthCNES        = 7
	WidthCodigoProc  = 10
)

// Escape replaces the five XML-reserved characters. Every text value
// flows through here before being written; raw markup is never inserted.
func Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PadNumeric left-pads a numeric code with zeros to the given width.
// Codes already at or beyond the width are returned unchanged.
func PadNumeric(code string, width int) string {
	if len(code) >= width {
		return code
	}
	return strings.Repeat("0", width-len(code)) + code
}

// FormatDate renders a date as the schema's YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatTime renders a time as the schema's HH:MM:SS.
func FormatTime(t time.Time) string {
	return t.Format("15:04:05")
}

// Round2 rounds a monetary amount to cents. Line values are rounded
// before aggregation so batch totals match the insurer's own per-line
// recomputation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatValor renders a monetary amount with exactly two decimals.
func FormatValor(v float64) string {
	return fmt.Sprintf("%.2f", Round2(v))
}

// ContentHash returns the lowercase hex SHA-1 of the serialized message
// content up to the epilogue insertion point.
func ContentHash(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Builder accumulates a TISS message in document order. All element
// content is escaped on write.
type Builder struct {
	sb strings.Builder
}

func NewBuilder() *Builder {
	b := &Builder{}
	b.sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	return b
}

// Open writes an opening tag in the ans: namespace.
func (b *Builder) Open(tag string) *Builder {
	b.sb.WriteString("<ans:")
	b.sb.WriteString(tag)
	b.sb.WriteString(">")
	return b
}

// OpenRoot writes the message root with the namespace declaration.
func (b *Builder) OpenRoot(tag string) *Builder {
	b.sb.WriteString("<ans:")
	b.sb.WriteString(tag)
	b.sb.WriteString(` xmlns:ans="`)
	b.sb.WriteString(Namespace)
	b.sb.WriteString(`">`)
	return b
}

// Close writes a closing tag.
func (b *Builder) Close(tag string) *Builder {
	b.sb.WriteString("</ans:")
	b.sb.WriteString(tag)
	b.sb.WriteString(">")
	return b
}

// Element writes a leaf element with escaped text content.
func (b *Builder) Element(tag, value string) *Builder {
	b.Open(tag)
	b.sb.WriteString(Escape(value))
	b.Close(tag)
	return b
}

// ElementIf writes the element only when value is non-empty. Optional
// schema fields are omitted rather than emitted empty.
func (b *Builder) ElementIf(tag, value string) *Builder {
	if value != "" {
		b.Element(tag, value)
	}
	return b
}

// String returns everything written so far. Calling it mid-build is how
// the epilogue hash captures its prefix.
func (b *Builder) String() string {
	return b.sb.String()
}
