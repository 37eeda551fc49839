// Package soap dispatches TISS payloads to insurer webservices and
// classifies their responses. Insurers run heterogeneous SOAP stacks, so
// the parser works on local element names and never assumes a prefix.
package soap

import "strings"

const envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

// Envelope wraps an already-serialized XML document in a SOAP 1.1
// envelope. The payload keeps its own XML declaration stripped; the
// envelope carries the single declaration for the wire document.
func Envelope(payload string) string {
	body := strings.TrimSpace(payload)
	if i := strings.Index(body, "?>"); strings.HasPrefix(body, "<?xml") && i >= 0 {
		body = strings.TrimSpace(body[i+2:])
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<soapenv:Envelope xmlns:soapenv="`)
	b.WriteString(envelopeNS)
	b.WriteString(`"><soapenv:Header/><soapenv:Body>`)
	b.WriteString(body)
	b.WriteString(`</soapenv:Body></soapenv:Envelope>`)
	return b.String()
}
