// Package xmlsign applies an enveloped XML-DSig to generated TISS
// documents using the clinic's A1 certificate (PKCS#12).
package xmlsign

import (
	"crypto"
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"software.sslmate.com/src/go-pkcs12"

	"github.com/saudetech/tiss/internal/platform/fault"
)

// Sign parses the document, signs its root element and returns the
// serialized result with the Signature appended inside the root.
// Signing an already-signed document is the caller's mistake; use
// IsSigned first.
func Sign(xml string, pfx []byte, password string) (string, error) {
	key, cert, caCerts, err := pkcs12.DecodeChain(pfx, password)
	if err != nil {
		return "", fault.Wrap(fault.Configuration, err, "Certificado digital não encontrado ou inválido")
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return "", fault.New(fault.Configuration, "Certificado digital não encontrado ou inválido")
	}

	chain := [][]byte{cert.Raw}
	for _, ca := range caCerts {
		chain = append(chain, ca.Raw)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return "", fmt.Errorf("assinatura: documento inválido: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("assinatura: documento sem elemento raiz")
	}

	ctx, err := dsig.NewSigningContext(signer, chain)
	if err != nil {
		return "", fmt.Errorf("assinatura: %w", err)
	}
	ctx.Hash = crypto.SHA256
	ctx.Prefix = ""
	ctx.Canonicalizer = dsig.MakeC14N10RecCanonicalizer()

	signed, err := ctx.SignEnveloped(root)
	if err != nil {
		return "", fmt.Errorf("assinatura: %w", err)
	}

	doc.SetRoot(signed)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("assinatura: serializar documento: %w", err)
	}
	return out, nil
}

// IsSigned reports whether the document already carries a Signature
// element, by local name regardless of prefix.
func IsSigned(xml string) bool {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil || doc.Root() == nil {
		return false
	}
	return hasSignature(doc.Root())
}

func hasSignature(el *etree.Element) bool {
	if el.Tag == "Signature" {
		return true
	}
	for _, child := range el.ChildElements() {
		if hasSignature(child) {
			return true
		}
	}
	return false
}
