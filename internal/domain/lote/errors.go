package lote

import (
	"errors"
	"fmt"
)

var (
	// ErrLoteVazio marks a batch assembled without claims.
	ErrLoteVazio = errors.New("lote requires at least one guia")

	// ErrOperadorasMistas marks a batch mixing claims from different
	// operators.
	ErrOperadorasMistas = errors.New("lote cannot mix operators")

	// ErrGuiaNaoEncontrada marks a member id that resolves to no claim.
	ErrGuiaNaoEncontrada = errors.New("guia not found for lote")

	// ErrGuiaForaDeRascunho marks a member that already left rascunho.
	ErrGuiaForaDeRascunho = errors.New("guia is not in rascunho")

	// ErrNotFound marks a missing batch.
	ErrNotFound = errors.New("lote not found")

	// ErrConcurrentModification marks a version conflict on update.
	ErrConcurrentModification = errors.New("lote was modified concurrently")

	// ErrSemXML marks a transmission attempt before validation produced
	// the batch document.
	ErrSemXML = errors.New("lote has no generated XML")
)

// StatusTransitionError reports a rejected batch lifecycle transition.
type StatusTransitionError struct {
	De   StatusLote
	Para StatusLote
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("invalid lote status transition: %s -> %s", e.De, e.Para)
}
