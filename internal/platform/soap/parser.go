package soap

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/saudetech/tiss/internal/platform/fault"
)

// Parse classifies an insurer response and extracts the protocol number
// on success. Classification order: SOAP fault, protocol element,
// insurer error pair, HTTP status, unrecognized. Element lookup is by
// local name only since each insurer stack picks its own prefixes.
func Parse(resp *Response) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(resp.Body); err != nil || doc.Root() == nil {
		if !is2xx(resp.StatusCode) {
			return "", fault.Newf(fault.Protocol, "Erro HTTP %d da operadora", resp.StatusCode)
		}
		return "", fault.New(fault.Protocol, "Formato de resposta não reconhecido")
	}

	if msg, ok := findFault(doc.Root()); ok {
		return "", fault.New(fault.Protocol, msg)
	}

	if proto := textOf(doc.Root(), "numeroProtocolo"); proto != "" {
		return proto, nil
	}

	if codigo, mensagem := textOf(doc.Root(), "codigoErro"), textOf(doc.Root(), "mensagemErro"); mensagem != "" {
		if codigo != "" {
			return "", fault.Newf(fault.Protocol, "Operadora rejeitou o envio (%s): %s", codigo, mensagem)
		}
		return "", fault.Newf(fault.Protocol, "Operadora rejeitou o envio: %s", mensagem)
	}

	if !is2xx(resp.StatusCode) {
		return "", fault.Newf(fault.Protocol, "Erro HTTP %d da operadora", resp.StatusCode)
	}
	return "", fault.New(fault.Protocol, "Formato de resposta não reconhecido")
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

// findFault locates a SOAP Fault element and pulls its faultstring.
func findFault(root *etree.Element) (string, bool) {
	el := findLocal(root, "Fault")
	if el == nil {
		return "", false
	}
	if msg := textOf(el, "faultstring"); msg != "" {
		return msg, true
	}
	if msg := textOf(el, "Reason"); msg != "" {
		return msg, true
	}
	return "Falha SOAP sem descrição retornada pela operadora", true
}

// textOf returns the trimmed text of the first descendant with the
// given local name, or "".
func textOf(root *etree.Element, local string) string {
	if el := findLocal(root, local); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// findLocal walks the tree depth-first. etree keeps the prefix in
// Space, so Tag is already the local name.
func findLocal(el *etree.Element, local string) *etree.Element {
	if el.Tag == local {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findLocal(child, local); found != nil {
			return found
		}
	}
	return nil
}
