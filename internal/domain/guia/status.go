package guia

// StatusGuia is the lifecycle state of a claim.
type StatusGuia string

const (
	StatusRascunho      StatusGuia = "rascunho"
	StatusEnviada       StatusGuia = "enviada"
	StatusEmAnalise     StatusGuia = "em_analise"
	StatusAutorizada    StatusGuia = "autorizada"
	StatusGlosadaParcial StatusGuia = "glosada_parcial"
	StatusGlosadaTotal  StatusGuia = "glosada_total"
	StatusRecurso       StatusGuia = "recurso"
	StatusPaga          StatusGuia = "paga"
)

// statusTransitions is the set of allowed lifecycle edges. A denial can land
// on a claim as soon as it has been submitted, including after authorization
// when the operator revises a payment. A later denial may worsen a partial
// denial into a total one. Paga is terminal.
var statusTransitions = map[StatusGuia][]StatusGuia{
	StatusRascunho:      {StatusEnviada},
	StatusEnviada:       {StatusEmAnalise, StatusGlosadaParcial, StatusGlosadaTotal},
	StatusEmAnalise:     {StatusAutorizada, StatusGlosadaParcial, StatusGlosadaTotal},
	StatusAutorizada:    {StatusPaga, StatusGlosadaParcial, StatusGlosadaTotal},
	StatusGlosadaParcial: {StatusRecurso, StatusPaga, StatusGlosadaTotal},
	StatusGlosadaTotal:  {StatusRecurso},
	StatusRecurso:       {StatusPaga},
	StatusPaga:          {},
}

// TransicaoValida reports whether a claim may move from de to para.
func TransicaoValida(de, para StatusGuia) bool {
	for _, s := range statusTransitions[de] {
		if s == para {
			return true
		}
	}
	return false
}

// Enviada reports whether the claim has been submitted to the operator,
// in any post-submission state.
func (s StatusGuia) Enviada() bool {
	switch s {
	case StatusEnviada, StatusEmAnalise, StatusAutorizada,
		StatusGlosadaParcial, StatusGlosadaTotal, StatusRecurso, StatusPaga:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s StatusGuia) bool {
	_, ok := statusTransitions[s]
	return ok
}
