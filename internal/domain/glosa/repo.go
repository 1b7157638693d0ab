package glosa

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for denials and their appeals.
type Repository interface {
	CreateGlosa(ctx context.Context, g *Glosa) error
	GetGlosa(ctx context.Context, id uuid.UUID) (*Glosa, error)
	ListByGuia(ctx context.Context, guiaID uuid.UUID) ([]*Glosa, error)

	// UpdateGlosa persists the denial guarded by its version and bumps it.
	UpdateGlosa(ctx context.Context, g *Glosa) error

	CreateRecurso(ctx context.Context, r *Recurso) error
	GetRecurso(ctx context.Context, id uuid.UUID) (*Recurso, error)
	ListRecursos(ctx context.Context, glosaID uuid.UUID) ([]*Recurso, error)

	// UpdateRecurso persists the appeal guarded by its version and bumps it.
	UpdateRecurso(ctx context.Context, r *Recurso) error
}
