package recurso

import (
	"time"

	"github.com/google/uuid"

	"github.com/saudetech/tiss/internal/platform/tiss"
)

// GlosaStatus is the denial's lifecycle. Only a pendente glosa may
// receive a new appeal.
type GlosaStatus string

const (
	GlosaPendente  GlosaStatus = "pendente"
	GlosaEmRecurso GlosaStatus = "em_recurso"
	GlosaAceita    GlosaStatus = "aceita"
	GlosaRecusada  GlosaStatus = "recusada"
)

// ItemGlosa is one denied claim line as reported by the insurer.
type ItemGlosa struct {
	CodigoProcedimento string  `json:"codigo_procedimento"`
	Descricao          string  `json:"descricao,omitempty"`
	CodigoGlosa        string  `json:"codigo_glosa"`
	DescricaoGlosa     string  `json:"descricao_glosa,omitempty"`
	ValorOriginal      float64 `json:"valor_original"`
	ValorGlosado       float64 `json:"valor_glosado"`
}

// Glosa maps to the glosas table.
type Glosa struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	GuiaID         uuid.UUID   `db:"guia_id" json:"guia_id"`
	NumeroGuia     string      `db:"numero_guia" json:"numero_guia"`
	RegistroANS    string      `db:"registro_ans" json:"registro_ans"`
	ProtocoloGlosa string      `db:"protocolo_glosa" json:"protocolo_glosa,omitempty"`
	Status         GlosaStatus `db:"status" json:"status"`
	Itens          []ItemGlosa `db:"itens" json:"itens"`
	ValorGlosado   float64     `db:"valor_glosado" json:"valor_glosado"`
	ValorAceito    *float64    `db:"valor_aceito" json:"valor_aceito,omitempty"`
	PrazoRecurso   time.Time   `db:"prazo_recurso" json:"prazo_recurso"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// RecursoStatus is the appeal's lifecycle. enviado only ever follows
// rascunho; the verdict statuses come from RegistrarResultado.
type RecursoStatus string

const (
	RecursoRascunho      RecursoStatus = "rascunho"
	RecursoEnviado       RecursoStatus = "enviado"
	RecursoEmAnalise     RecursoStatus = "em_analise"
	RecursoAceito        RecursoStatus = "aceito"
	RecursoNegado        RecursoStatus = "negado"
	RecursoAceitoParcial RecursoStatus = "aceito_parcial"
	RecursoErro          RecursoStatus = "erro"
)

// Recurso maps to the recursos table. Item values are joined from the
// glosa at creation; the appellant supplies only justifications.
type Recurso struct {
	ID                 uuid.UUID          `db:"id" json:"id"`
	GlosaID            uuid.UUID          `db:"glosa_id" json:"glosa_id"`
	GuiaID             uuid.UUID          `db:"guia_id" json:"guia_id"`
	RegistroANS        string             `db:"registro_ans" json:"registro_ans"`
	Status             RecursoStatus      `db:"status" json:"status"`
	Itens              []tiss.ItemRecurso `db:"itens" json:"itens"`
	JustificativaGeral string             `db:"justificativa_geral" json:"justificativa_geral,omitempty"`
	ValorRecursado     float64            `db:"valor_recursado" json:"valor_recursado"`
	ValorAceito        *float64           `db:"valor_aceito" json:"valor_aceito,omitempty"`
	Protocolo          *string            `db:"protocolo" json:"protocolo,omitempty"`
	XMLContent         *string            `db:"xml_content" json:"xml_content,omitempty"`
	XMLResposta        *string            `db:"xml_resposta" json:"xml_resposta,omitempty"`
	Erro               *string            `db:"erro" json:"erro,omitempty"`
	DataEnvio          *time.Time         `db:"data_envio" json:"data_envio,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}
