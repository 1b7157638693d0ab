package glosa

import "errors"

var (
	// ErrNotFound marks a missing denial or appeal.
	ErrNotFound = errors.New("glosa not found")

	// ErrRecursoNotFound marks a missing appeal.
	ErrRecursoNotFound = errors.New("recurso not found")

	// ErrConcurrentModification marks a version conflict on update.
	ErrConcurrentModification = errors.New("glosa was modified concurrently")

	// ErrSemItens marks a denial imported without denied lines.
	ErrSemItens = errors.New("glosa requires at least one denied item")

	// ErrValorGlosadoExcede marks a denial whose total exceeds the claim
	// value.
	ErrValorGlosadoExcede = errors.New("denied value exceeds the claim value")

	// ErrAppealWindowExpired marks an appeal filed after the deadline.
	ErrAppealWindowExpired = errors.New("appeal window has expired")

	// ErrGlosaNaoPendente marks an appeal against a denial that already
	// left pendente.
	ErrGlosaNaoPendente = errors.New("glosa is not open for appeal")

	// ErrItemContestadoInvalido marks a contested line that does not
	// match a denied line or exceeds its denied value.
	ErrItemContestadoInvalido = errors.New("contested item does not match a denied item")

	// ErrValorContestadoInvalido marks a contested value outside the
	// denied amount.
	ErrValorContestadoInvalido = errors.New("contested value must be positive and at most the denied value")

	// ErrValorRecuperadoInvalido marks a recovered value inconsistent
	// with the resolution outcome.
	ErrValorRecuperadoInvalido = errors.New("recovered value is inconsistent with the resolution")

	// ErrRecursoJaDecidido marks a resolution or review of an appeal
	// that was already decided.
	ErrRecursoJaDecidido = errors.New("recurso was already decided")
)
