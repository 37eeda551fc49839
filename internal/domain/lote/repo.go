package lote

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusUpdate is the field merge applied by UpdateStatus. Nil fields
// are left untouched so outcome writes stay idempotent.
type StatusUpdate struct {
	Status      Status
	Protocolo   *string
	XMLResposta *string
	Erro        *string
	DataEnvio   *time.Time
}

type Repository interface {
	Create(ctx context.Context, l *Lote) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lote, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status Status, limit, offset int) ([]*Lote, int, error)
	// CountByDay counts lotes created on the given day, the input to
	// numero lote sequencing.
	CountByDay(ctx context.Context, day time.Time) (int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) error
	// SetXML stores the generated batch XML.
	SetXML(ctx context.Context, id uuid.UUID, xml string, status Status) error
}
