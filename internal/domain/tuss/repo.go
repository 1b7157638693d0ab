package tuss

import "context"

// Repository provides access to the TUSS procedure code table.
type Repository interface {
	// Search matches query case-insensitively against code and description.
	// When includeInactive is false only codes currently in their validity
	// window are returned. Results are ordered by ascending code.
	Search(ctx context.Context, query string, limit int, includeInactive bool) ([]*CodigoTUSS, error)
	// GetByCode returns the code regardless of its active flag, so
	// historical claims can still display retired procedures.
	GetByCode(ctx context.Context, codigo string) (*CodigoTUSS, error)
}
