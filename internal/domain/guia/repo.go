package guia

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows claim listings.
type Filter struct {
	PatientID   *uuid.UUID
	Status      *StatusGuia
	RegistroANS string
	Tipo        *TipoGuia
	SemLote     bool
}

// Repository is the persistence boundary for claims.
type Repository interface {
	Create(ctx context.Context, rec *GuiaRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*GuiaRecord, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*GuiaRecord, int, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*GuiaRecord, error)
	ListByLote(ctx context.Context, loteID uuid.UUID) ([]*GuiaRecord, error)

	// Update persists the record guarded by its version and bumps it.
	// Returns ErrConcurrentModification when the stored version moved on.
	Update(ctx context.Context, rec *GuiaRecord) error

	// NextNumeroGuia allocates the next provider claim number for the
	// current clinic schema.
	NextNumeroGuia(ctx context.Context) (string, error)

	// VincularLote stamps loteID on every claim in ids that is still
	// unbatched, returning how many rows were claimed.
	VincularLote(ctx context.Context, ids []uuid.UUID, loteID uuid.UUID) (int64, error)

	// DesvincularLote clears the lote association for every claim in ids.
	DesvincularLote(ctx context.Context, ids []uuid.UUID) error
}
