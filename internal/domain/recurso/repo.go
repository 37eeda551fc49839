package recurso

import (
	"context"

	"github.com/google/uuid"
)

type GlosaRepository interface {
	Create(ctx context.Context, g *Glosa) error
	GetByID(ctx context.Context, id uuid.UUID) (*Glosa, error)
	Update(ctx context.Context, g *Glosa) error
	List(ctx context.Context, status GlosaStatus, limit, offset int) ([]*Glosa, int, error)
}

type Repository interface {
	Create(ctx context.Context, r *Recurso) error
	GetByID(ctx context.Context, id uuid.UUID) (*Recurso, error)
	Update(ctx context.Context, r *Recurso) error
	List(ctx context.Context, status RecursoStatus, limit, offset int) ([]*Recurso, int, error)
	ListByGlosa(ctx context.Context, glosaID uuid.UUID) ([]*Recurso, error)
}
