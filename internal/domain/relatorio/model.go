package relatorio

import (
	"math"
	"time"
)

// Periodo bounds a report, inclusive on both ends.
type Periodo struct {
	De  time.Time `json:"de"`
	Ate time.Time `json:"ate"`
}

// StatusResumo is the claim count and value accumulated under one status.
type StatusResumo struct {
	Status     string  `json:"status"`
	Quantidade int     `json:"quantidade"`
	ValorTotal float64 `json:"valor_total"`
}

// TipoResumo is the claim count and value accumulated under one claim type.
type TipoResumo struct {
	Tipo       string  `json:"tipo"`
	Quantidade int     `json:"quantidade"`
	ValorTotal float64 `json:"valor_total"`
}

// OperadoraResumo is the billing position against one health plan operator.
type OperadoraResumo struct {
	RegistroANS   string  `json:"registro_ans"`
	NomeOperadora string  `json:"nome_operadora"`
	Quantidade    int     `json:"quantidade"`
	ValorTotal    float64 `json:"valor_total"`
	ValorGlosado  float64 `json:"valor_glosado"`
	ValorPago     float64 `json:"valor_pago"`
}

// ResumoFaturamento is the billing summary for a period. Derived fields are
// computed from the per-status rows, never stored.
type ResumoFaturamento struct {
	Periodo       Periodo           `json:"periodo"`
	PorStatus     []StatusResumo    `json:"por_status"`
	PorTipo       []TipoResumo      `json:"por_tipo"`
	PorOperadora  []OperadoraResumo `json:"por_operadora"`
	TotalGuias    int               `json:"total_guias"`
	ValorFaturado float64           `json:"valor_faturado"`
	ValorGlosado  float64           `json:"valor_glosado"`
	ValorPago     float64           `json:"valor_pago"`
	TaxaGlosa     float64           `json:"taxa_glosa"`
}

// FinanceiroPeriodo carries the period-wide money aggregates the summary
// derives its rates from.
type FinanceiroPeriodo struct {
	ValorFaturado float64
	ValorGlosado  float64
	ValorPago     float64
}

// BuildResumo assembles the billing summary from per-status rows and the
// period aggregates. TaxaGlosa is the denied share of the billed value, as
// a percentage rounded to two decimals.
func BuildResumo(p Periodo, porStatus []StatusResumo, porTipo []TipoResumo,
	porOperadora []OperadoraResumo, fin FinanceiroPeriodo) *ResumoFaturamento {
	r := &ResumoFaturamento{
		Periodo:       p,
		PorStatus:     porStatus,
		PorTipo:       porTipo,
		PorOperadora:  porOperadora,
		ValorFaturado: fin.ValorFaturado,
		ValorGlosado:  fin.ValorGlosado,
		ValorPago:     fin.ValorPago,
	}
	for _, s := range porStatus {
		r.TotalGuias += s.Quantidade
	}
	if r.ValorFaturado > 0 {
		r.TaxaGlosa = round2(100 * r.ValorGlosado / r.ValorFaturado)
	}
	return r
}

// MotivoGlosa aggregates denials under one operator denial code.
type MotivoGlosa struct {
	CodigoGlosa     string  `json:"codigo_glosa"`
	Ocorrencias     int     `json:"ocorrencias"`
	ValorGlosado    float64 `json:"valor_glosado"`
	ValorRecuperado float64 `json:"valor_recuperado"`
}

// AnaliseGlosas breaks the period's denials down by denial code and states
// how much of the denied value came back through appeals.
type AnaliseGlosas struct {
	Periodo              Periodo       `json:"periodo"`
	Motivos              []MotivoGlosa `json:"motivos"`
	TotalGlosas          int           `json:"total_glosas"`
	ValorGlosadoTotal    float64       `json:"valor_glosado_total"`
	ValorRecuperadoTotal float64       `json:"valor_recuperado_total"`
	TaxaRecuperacao      float64       `json:"taxa_recuperacao"`
}

// BuildAnalise assembles the denial analysis from per-code rows.
// TaxaRecuperacao is the recovered share of the denied value, as a
// percentage rounded to two decimals. The recovered value counts into the
// rate even though the stored denial totals already reflect it, because the
// rows report the values as originally denied.
func BuildAnalise(p Periodo, motivos []MotivoGlosa) *AnaliseGlosas {
	a := &AnaliseGlosas{Periodo: p, Motivos: motivos}
	for _, m := range motivos {
		a.TotalGlosas += m.Ocorrencias
		a.ValorGlosadoTotal += m.ValorGlosado
		a.ValorRecuperadoTotal += m.ValorRecuperado
	}
	a.ValorGlosadoTotal = round2(a.ValorGlosadoTotal)
	a.ValorRecuperadoTotal = round2(a.ValorRecuperadoTotal)
	if a.ValorGlosadoTotal > 0 {
		a.TaxaRecuperacao = round2(100 * a.ValorRecuperadoTotal / a.ValorGlosadoTotal)
	}
	return a
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
