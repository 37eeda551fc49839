package tiss

import "strconv"

// writeGuiaSADT renders one SP/SADT guide with its full procedure list
// and value totals. Per-line totals are recomputed as quantidade times
// valorUnitario rounded to cents; the guide total is the sum of the
// rounded lines, not a rounding of the raw sum.
func writeGuiaSADT(b *Builder, g Guia) {
	b.Open("guiaSP-SADT")
	b.Open("cabecalhoGuia")
	b.Element("registroANS", PadNumeric(g.RegistroANS, WidthRegistroANS))
	b.Element("numeroGuiaPrestador", g.NumeroGuia)
	b.Close("cabecalhoGuia")

	writeBeneficiario(b, g)

	b.Open("dadosSolicitante")
	writeContratadoExecutante(b, g)
	writeProfissional(b, g)
	b.Close("dadosSolicitante")

	b.Open("dadosSolicitacao")
	b.Element("dataSolicitacao", FormatDate(g.DataAtendimento))
	b.ElementIf("caraterAtendimento", g.CaraterAtendimento)
	b.ElementIf("indicacaoClinica", g.IndicacaoClinica)
	b.Close("dadosSolicitacao")

	b.Open("dadosExecutante")
	writeContratadoExecutante(b, g)
	b.Close("dadosExecutante")

	var total float64
	b.Open("procedimentosExecutados")
	for i, p := range g.Procedimentos {
		valorTotal := Round2(float64(p.Quantidade) * p.ValorUnitario)
		total += valorTotal

		b.Open("procedimentoExecutado")
		b.Element("sequencialItem", strconv.Itoa(i+1))
		b.Element("dataExecucao", FormatDate(g.DataAtendimento))
		b.Open("procedimento")
		b.Element("codigoTabela", "22")
		b.Element("codigoProcedimento", PadNumeric(p.Codigo, WidthCodigoProc))
		b.Element("descricaoProcedimento", p.Descricao)
		b.Close("procedimento")
		b.Element("quantidadeExecutada", strconv.Itoa(p.Quantidade))
		b.Element("valorUnitario", FormatValor(p.ValorUnitario))
		b.Element("valorTotal", FormatValor(valorTotal))
		b.Close("procedimentoExecutado")
	}
	b.Close("procedimentosExecutados")

	b.ElementIf("observacao", g.Observacao)

	b.Open("valorTotal")
	b.Element("valorProcedimentos", FormatValor(total))
	b.Element("valorTotalGeral", FormatValor(total))
	b.Close("valorTotal")
	b.Close("guiaSP-SADT")
}
