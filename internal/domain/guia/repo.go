package guia

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, g *Guia) error
	GetByID(ctx context.Context, id uuid.UUID) (*Guia, error)
	// GetByIDs returns the guias found; callers detect missing IDs by
	// comparing lengths.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Guia, error)
	Update(ctx context.Context, g *Guia) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status Status, limit, offset int) ([]*Guia, int, error)
	ListByLote(ctx context.Context, loteID uuid.UUID) ([]*Guia, error)
	// AssignLote attaches the guias to a lote.
	AssignLote(ctx context.Context, loteID uuid.UUID, guiaIDs []uuid.UUID) error
	// ReleaseLote detaches every guia of a lote, making them eligible
	// for a new one.
	ReleaseLote(ctx context.Context, loteID uuid.UUID) error
	// UpdateStatusByLote moves every guia of a lote to the given status.
	UpdateStatusByLote(ctx context.Context, loteID uuid.UUID, status Status) error
}
