package lote

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lote state machine. Transitions are checked centrally
// in CanTransition; nothing else mutates a lote's status.
type Status string

const (
	StatusRascunho Status = "rascunho"
	StatusPronto   Status = "pronto"
	StatusEnviando Status = "enviando"
	StatusEnviado  Status = "enviado"
	StatusErro     Status = "erro"
)

// transitions is the closed set of legal status moves. enviado is
// terminal. enviando→erro covers every failure after the soft lock.
var transitions = map[Status][]Status{
	StatusRascunho: {StatusPronto, StatusEnviando},
	StatusPronto:   {StatusEnviando},
	StatusEnviando: {StatusEnviado, StatusErro},
	StatusErro:     {StatusEnviando},
	StatusEnviado:  {},
}

// CanTransition reports whether moving from s to target is legal.
func (s Status) CanTransition(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Deletable statuses: a lote that reached the insurer stays on record.
func (s Status) Deletable() bool {
	return s == StatusRascunho || s == StatusPronto || s == StatusErro
}

// Sendable statuses. enviando is excluded on purpose: the status write
// before the network call acts as the double-submission guard.
func (s Status) Sendable() bool {
	return s == StatusRascunho || s == StatusPronto || s == StatusErro
}

// Lote maps to the lotes table. Member guias point back via
// guias.lote_id.
type Lote struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	NumeroLote      string     `db:"numero_lote" json:"numero_lote"`
	RegistroANS     string     `db:"registro_ans" json:"registro_ans"`
	Status          Status     `db:"status" json:"status"`
	QuantidadeGuias int        `db:"quantidade_guias" json:"quantidade_guias"`
	ValorTotal      float64    `db:"valor_total" json:"valor_total"`
	XMLContent      *string    `db:"xml_content" json:"xml_content,omitempty"`
	XMLResposta     *string    `db:"xml_resposta" json:"xml_resposta,omitempty"`
	Protocolo       *string    `db:"protocolo" json:"protocolo,omitempty"`
	Erro            *string    `db:"erro" json:"erro,omitempty"`
	DataEnvio       *time.Time `db:"data_envio" json:"data_envio,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
