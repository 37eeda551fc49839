package tiss

import "strconv"

// ItemRecurso is one contested denial line. Values are carried from the
// original claim line and the insurer's denial so the appeal document
// shows both sides.
type ItemRecurso struct {
	NumeroGuia         string  `json:"numero_guia"`
	CodigoProcedimento string  `json:"codigo_procedimento"`
	CodigoGlosa        string  `json:"codigo_glosa"`
	ValorOriginal      float64 `json:"valor_original"`
	ValorGlosado       float64 `json:"valor_glosado"`
	ValorRecursado     float64 `json:"valor_recursado"`
	Justificativa      string  `json:"justificativa"`
}

// RecursoGlosa is the appeal-shaped input for the recurso generator.
type RecursoGlosa struct {
	RegistroANS        string
	NumeroGuiaOrigem   string
	ProtocoloGlosa     string
	JustificativaGeral string
	Itens              []ItemRecurso
}

// GenerateRecursoGlosa renders an appeal message. Same single-pass and
// hash discipline as the batch generator.
func GenerateRecursoGlosa(cab Cabecalho, r RecursoGlosa) string {
	cab.TipoTransacao = TransacaoRecursoGlosa

	b := NewBuilder()
	b.OpenRoot("mensagemTISS")
	writeCabecalho(b, cab)

	b.Open("prestadorParaOperadora")
	b.Open("recursoGlosa")
	b.Element("registroANS", PadNumeric(r.RegistroANS, WidthRegistroANS))
	b.ElementIf("numeroGuiaOrigem", r.NumeroGuiaOrigem)
	b.ElementIf("numeroProtocolo", r.ProtocoloGlosa)
	b.ElementIf("justificativaRecurso", r.JustificativaGeral)

	var total float64
	b.Open("itensRecurso")
	for i, item := range r.Itens {
		total += Round2(item.ValorRecursado)

		b.Open("itemRecurso")
		b.Element("sequencialItem", strconv.Itoa(i+1))
		b.ElementIf("numeroGuiaPrestador", item.NumeroGuia)
		b.Element("codigoProcedimento", PadNumeric(item.CodigoProcedimento, WidthCodigoProc))
		b.ElementIf("codigoGlosa", item.CodigoGlosa)
		b.Element("valorOriginal", FormatValor(item.ValorOriginal))
		b.Element("valorGlosado", FormatValor(item.ValorGlosado))
		b.Element("valorRecursado", FormatValor(item.ValorRecursado))
		b.Element("justificativaItem", item.Justificativa)
		b.Close("itemRecurso")
	}
	b.Close("itensRecurso")

	b.Element("valorTotalRecursado", FormatValor(total))
	b.Close("recursoGlosa")
	b.Close("prestadorParaOperadora")
	writeEpilogo(b)
	b.Close("mensagemTISS")
	return b.String()
}
