package tiss

import "time"

// TipoGuia selects which TISS guide element a claim renders as.
type TipoGuia string

const (
	TipoConsulta TipoGuia = "consulta"
	TipoSADT     TipoGuia = "sadt"
)

// Transaction type codes from the ANS message catalog.
const (
	TransacaoEnvioLote    = "ENVIO_LOTE_GUIAS"
	TransacaoRecursoGlosa = "RECURSO_GLOSA"
)

// Cabecalho carries the transaction header shared by every TISS message.
type Cabecalho struct {
	TipoTransacao   string
	Sequencial      string
	Timestamp       time.Time
	CodigoPrestador string
	RegistroANS     string
	Versao          string
}

func (c Cabecalho) versao() string {
	if c.Versao == "" {
		return DefaultVersion
	}
	return c.Versao
}

// Procedimento is one billable line inside a guide.
type Procedimento struct {
	Codigo        string  `json:"codigo"`
	Descricao     string  `json:"descricao"`
	Quantidade    int     `json:"quantidade"`
	ValorUnitario float64 `json:"valor_unitario"`
	ValorTotal    float64 `json:"valor_total"`
}

// Guia is the claim-shaped input the generators consume. The domain
// layer maps its persisted guia records into this struct before
// rendering.
type Guia struct {
	Tipo            TipoGuia
	NumeroGuia      string
	RegistroANS     string
	DataAtendimento time.Time

	NumeroCarteira   string
	NomeBeneficiario string

	CodigoPrestador string
	NomeContratado  string
	CNES            string

	NomeProfissional     string
	ConselhoProfissional string
	NumeroConselho       string
	UFConselho           string
	CBOS                 string

	TipoConsulta       string
	CaraterAtendimento string
	IndicacaoClinica   string
	Observacao         string

	Procedimentos []Procedimento
	ValorTotal    float64
}

// writeCabecalho emits the message header. The sequencial and the
// registroANS are zero-padded per the schema's fixed widths.
func writeCabecalho(b *Builder, cab Cabecalho) {
	b.Open("cabecalho")
	b.Open("identificacaoTransacao")
	b.Element("tipoTransacao", cab.TipoTransacao)
	b.Element("sequencialTransacao", cab.Sequencial)
	b.Element("dataRegistroTransacao", FormatDate(cab.Timestamp))
	b.Element("horaRegistroTransacao", FormatTime(cab.Timestamp))
	b.Close("identificacaoTransacao")
	b.Open("origem")
	b.Open("identificacaoPrestador")
	b.Element("codigoPrestadorNaOperadora", cab.CodigoPrestador)
	b.Close("identificacaoPrestador")
	b.Close("origem")
	b.Open("destino")
	b.Element("registroANS", PadNumeric(cab.RegistroANS, WidthRegistroANS))
	b.Close("destino")
	b.Element("Padrao", cab.versao())
	b.Close("cabecalho")
}

// writeEpilogo hashes everything serialized so far and appends the
// epilogue. Must be the last content element written before the root
// closes.
func writeEpilogo(b *Builder) {
	hash := ContentHash(b.String())
	b.Open("epilogo")
	b.Element("hash", hash)
	b.Close("epilogo")
}

// GenerateLote renders a batch of guias as a complete mensagemTISS.
// Deterministic: identical inputs, including the header timestamp,
// produce identical bytes.
func GenerateLote(cab Cabecalho, numeroLote string, guias []Guia) string {
	cab.TipoTransacao = TransacaoEnvioLote

	b := NewBuilder()
	b.OpenRoot("mensagemTISS")
	writeCabecalho(b, cab)
	b.Open("prestadorParaOperadora")
	b.Open("loteGuias")
	b.Element("numeroLote", numeroLote)
	b.Open("guiasTISS")
	for _, g := range guias {
		if g.Tipo == TipoConsulta {
			writeGuiaConsulta(b, g)
		} else {
			writeGuiaSADT(b, g)
		}
	}
	b.Close("guiasTISS")
	b.Close("loteGuias")
	b.Close("prestadorParaOperadora")
	writeEpilogo(b)
	b.Close("mensagemTISS")
	return b.String()
}

// writeContratadoExecutante is shared by the consulta and SADT guides.
func writeContratadoExecutante(b *Builder, g Guia) {
	b.Open("contratadoExecutante")
	b.Element("codigoPrestadorNaOperadora", g.CodigoPrestador)
	b.Element("nomeContratado", g.NomeContratado)
	b.Element("CNES", PadNumeric(g.CNES, WidthCNES))
	b.Close("contratadoExecutante")
}

// writeProfissional emits the executing professional block.
func writeProfissional(b *Builder, g Guia) {
	b.Open("profissionalExecutante")
	b.Element("nomeProfissional", g.NomeProfissional)
	b.Element("conselhoProfissional", g.ConselhoProfissional)
	b.Element("numeroConselhoProfissional", g.NumeroConselho)
	b.Element("UF", g.UFConselho)
	b.ElementIf("CBOS", g.CBOS)
	b.Close("profissionalExecutante")
}

func writeBeneficiario(b *Builder, g Guia) {
	b.Open("dadosBeneficiario")
	b.Element("numeroCarteira", g.NumeroCarteira)
	b.Element("nomeBeneficiario", g.NomeBeneficiario)
	b.Close("dadosBeneficiario")
}
