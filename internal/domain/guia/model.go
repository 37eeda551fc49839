package guia

import (
	"time"

	"github.com/google/uuid"

	"github.com/saudetech/tiss/internal/platform/tiss"
)

// Status values a guia moves through. Only the pre-send statuses are
// eligible for batching; everything from enviada on is owned by the
// insurer-response side of the pipeline.
type Status string

const (
	StatusRascunho  Status = "rascunho"
	StatusValidada  Status = "validada"
	StatusPronta    Status = "pronta"
	StatusEnviada   Status = "enviada"
	StatusFaturada  Status = "faturada"
	StatusGlosada   Status = "glosada"
	StatusPaga      Status = "paga"
	StatusCancelada Status = "cancelada"
)

var elegivelParaLote = map[Status]bool{
	StatusRascunho: true,
	StatusValidada: true,
	StatusPronta:   true,
}

// ElegivelParaLote reports whether a guia in this status may still be
// placed into a lote.
func (s Status) ElegivelParaLote() bool { return elegivelParaLote[s] }

// Guia maps to the guias table. Procedures are stored as a JSONB array.
type Guia struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	NumeroGuia  string        `db:"numero_guia" json:"numero_guia"`
	Tipo        tiss.TipoGuia `db:"tipo" json:"tipo"`
	Status      Status        `db:"status" json:"status"`
	RegistroANS string        `db:"registro_ans" json:"registro_ans"`
	LoteID      *uuid.UUID    `db:"lote_id" json:"lote_id,omitempty"`

	DataAtendimento time.Time `db:"data_atendimento" json:"data_atendimento"`

	NumeroCarteira   string `db:"numero_carteira" json:"numero_carteira"`
	NomeBeneficiario string `db:"nome_beneficiario" json:"nome_beneficiario"`

	CodigoPrestador string `db:"codigo_prestador" json:"codigo_prestador"`
	NomeContratado  string `db:"nome_contratado" json:"nome_contratado"`
	CNES            string `db:"cnes" json:"cnes"`

	NomeProfissional     string `db:"nome_profissional" json:"nome_profissional"`
	ConselhoProfissional string `db:"conselho_profissional" json:"conselho_profissional"`
	NumeroConselho       string `db:"numero_conselho" json:"numero_conselho"`
	UFConselho           string `db:"uf_conselho" json:"uf_conselho"`
	CBOS                 string `db:"cbos" json:"cbos,omitempty"`

	TipoConsulta       string `db:"tipo_consulta" json:"tipo_consulta,omitempty"`
	CaraterAtendimento string `db:"carater_atendimento" json:"carater_atendimento,omitempty"`
	IndicacaoClinica   string `db:"indicacao_clinica" json:"indicacao_clinica,omitempty"`
	Observacao         string `db:"observacao" json:"observacao,omitempty"`

	Procedimentos []tiss.Procedimento `db:"procedimentos" json:"procedimentos"`
	ValorTotal    float64             `db:"valor_total" json:"valor_total"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ToTISS maps the persisted record into the generator's input shape.
func (g *Guia) ToTISS() tiss.Guia {
	return tiss.Guia{
		Tipo:                 g.Tipo,
		NumeroGuia:           g.NumeroGuia,
		RegistroANS:          g.RegistroANS,
		DataAtendimento:      g.DataAtendimento,
		NumeroCarteira:       g.NumeroCarteira,
		NomeBeneficiario:     g.NomeBeneficiario,
		CodigoPrestador:      g.CodigoPrestador,
		NomeContratado:       g.NomeContratado,
		CNES:                 g.CNES,
		NomeProfissional:     g.NomeProfissional,
		ConselhoProfissional: g.ConselhoProfissional,
		NumeroConselho:       g.NumeroConselho,
		UFConselho:           g.UFConselho,
		CBOS:                 g.CBOS,
		TipoConsulta:         g.TipoConsulta,
		CaraterAtendimento:   g.CaraterAtendimento,
		IndicacaoClinica:     g.IndicacaoClinica,
		Observacao:           g.Observacao,
		Procedimentos:        g.Procedimentos,
		ValorTotal:           g.ValorTotal,
	}
}
