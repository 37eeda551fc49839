package operadora

import (
	"time"

	"github.com/google/uuid"
)

// Auth schemes an operadora webservice may require. The sender picks
// the transport behavior from this value.
const (
	AuthCertificate = "certificate"
	AuthBasic       = "basic"
	AuthToken       = "token"
)

// WebService is the insurer endpoint configuration, stored as JSONB.
// Credentials live here because each operadora issues its own; the
// signing certificate is per clinic and lives in the certificate store.
type WebService struct {
	URL             string `json:"url"`
	VersaoTISS      string `json:"versao_tiss,omitempty"`
	TimeoutSegundos int    `json:"timeout_segundos,omitempty"`
	TipoAuth        string `json:"tipo_auth"`
	Usuario         string `json:"usuario,omitempty"`
	Senha           string `json:"senha,omitempty"`
	Token           string `json:"token,omitempty"`
}

// Configured reports whether the webservice block is usable for sending.
func (w *WebService) Configured() bool {
	return w != nil && w.URL != ""
}

// Operadora maps to the operadoras table.
type Operadora struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	Nome            string      `db:"nome" json:"nome"`
	RegistroANS     string      `db:"registro_ans" json:"registro_ans"`
	CodigoPrestador string      `db:"codigo_prestador" json:"codigo_prestador"`
	WebService      *WebService `db:"webservice" json:"webservice,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}
