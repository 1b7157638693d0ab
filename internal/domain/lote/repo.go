package lote

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows batch listings.
type Filter struct {
	Status      *StatusLote
	RegistroANS string
}

// Repository is the persistence boundary for batches.
type Repository interface {
	Create(ctx context.Context, rec *LoteRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*LoteRecord, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*LoteRecord, int, error)

	// Update persists the record guarded by its version and bumps it.
	Update(ctx context.Context, rec *LoteRecord) error

	// Delete removes a batch row. Member claims must be unlinked first.
	Delete(ctx context.Context, id uuid.UUID) error

	// NextNumeroLote allocates the next batch number for the current
	// clinic schema.
	NextNumeroLote(ctx context.Context) (string, error)
}
