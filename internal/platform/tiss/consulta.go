package tiss

// writeGuiaConsulta renders one consultation guide. The consulta guide
// carries a single procedure line; when the claim lists more than one,
// the first is used and the remainder are expected to have been split
// upstream into SADT guides.
func writeGuiaConsulta(b *Builder, g Guia) {
	b.Open("guiaConsulta")
	b.Open("cabecalhoConsulta")
	b.Element("registroANS", PadNumeric(g.RegistroANS, WidthRegistroANS))
	b.Element("numeroGuiaPrestador", g.NumeroGuia)
	b.Close("cabecalhoConsulta")

	writeBeneficiario(b, g)
	writeContratadoExecutante(b, g)
	writeProfissional(b, g)

	b.Open("dadosAtendimento")
	b.Element("dataAtendimento", FormatDate(g.DataAtendimento))
	b.ElementIf("tipoConsulta", g.TipoConsulta)
	if len(g.Procedimentos) > 0 {
		p := g.Procedimentos[0]
		b.Open("procedimento")
		b.Element("codigoTabela", "22")
		b.Element("codigoProcedimento", PadNumeric(p.Codigo, WidthCodigoProc))
		b.Element("valorProcedimento", FormatValor(p.ValorUnitario))
		b.Close("procedimento")
	}
	b.Close("dadosAtendimento")

	b.ElementIf("observacao", g.Observacao)
	b.Close("guiaConsulta")
}
