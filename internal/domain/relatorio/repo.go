package relatorio

import (
	"context"
	"time"
)

// Repository aggregates claim and denial rows for a period.
type Repository interface {
	// PorStatus counts claims and sums their value grouped by status over
	// claims created inside the period.
	PorStatus(ctx context.Context, de, ate time.Time) ([]StatusResumo, error)

	// PorTipo counts claims and sums their value grouped by claim type
	// over claims created inside the period.
	PorTipo(ctx context.Context, de, ate time.Time) ([]TipoResumo, error)

	// PorOperadora sums the period's billed, denied and paid values per
	// health plan operator, over submitted claims.
	PorOperadora(ctx context.Context, de, ate time.Time) ([]OperadoraResumo, error)

	// Financeiro sums the period's billed, denied and paid values over
	// submitted claims.
	Financeiro(ctx context.Context, de, ate time.Time) (FinanceiroPeriodo, error)

	// MotivosGlosa groups the period's denials by denial code, with the
	// value recovered through appeals per code.
	MotivosGlosa(ctx context.Context, de, ate time.Time) ([]MotivoGlosa, error)
}
