package guia

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProcedureCode marks a procedure code that does not exist in
	// the TUSS catalog or is outside its validity window.
	ErrInvalidProcedureCode = errors.New("invalid or inactive TUSS procedure code")

	// ErrEmptyProcedureList marks a SADT claim created without any lines.
	ErrEmptyProcedureList = errors.New("SADT guia requires at least one procedure")

	// ErrClaimLocked marks an edit attempt on a claim that has left rascunho.
	ErrClaimLocked = errors.New("guia is no longer editable")

	// ErrClaimNotSubmitted marks an operation that requires a submitted claim.
	ErrClaimNotSubmitted = errors.New("guia has not been submitted")

	// ErrClaimAlreadyBatched marks a claim that is already part of a lote.
	ErrClaimAlreadyBatched = errors.New("guia already belongs to a lote")

	// ErrConcurrentModification marks a version conflict on update.
	ErrConcurrentModification = errors.New("guia was modified concurrently")

	// ErrNotFound marks a missing claim.
	ErrNotFound = errors.New("guia not found")
)

// StatusTransitionError reports a rejected lifecycle transition. The claim
// keeps its current status.
type StatusTransitionError struct {
	De   StatusGuia
	Para StatusGuia
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("invalid guia status transition: %s -> %s", e.De, e.Para)
}

// InvalidProcedureCodeError reports the first offending line of a claim
// whose procedure code failed catalog resolution.
type InvalidProcedureCodeError struct {
	Codigo string
	Linha  int
}

func (e *InvalidProcedureCodeError) Error() string {
	return fmt.Sprintf("procedure %q at line %d: %v", e.Codigo, e.Linha, ErrInvalidProcedureCode)
}

func (e *InvalidProcedureCodeError) Unwrap() error { return ErrInvalidProcedureCode }
