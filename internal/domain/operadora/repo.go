package operadora

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, o *Operadora) error
	GetByID(ctx context.Context, id uuid.UUID) (*Operadora, error)
	GetByRegistroANS(ctx context.Context, registroANS string) (*Operadora, error)
	Update(ctx context.Context, o *Operadora) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Operadora, int, error)
}
