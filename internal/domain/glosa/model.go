package glosa

import (
	"time"

	"github.com/google/uuid"
)

// StatusGlosa is the lifecycle state of a denial.
type StatusGlosa string

const (
	StatusPendente  StatusGlosa = "pendente"
	StatusEmRecurso StatusGlosa = "em_recurso"
	StatusResolvida StatusGlosa = "resolvida"
)

// StatusRecurso is the lifecycle state of an appeal. The operator may
// acknowledge review (em_analise) before deciding, or decide straight from
// enviado.
type StatusRecurso string

const (
	RecursoEnviado       StatusRecurso = "enviado"
	RecursoEmAnalise     StatusRecurso = "em_analise"
	RecursoAceito        StatusRecurso = "aceito"
	RecursoAceitoParcial StatusRecurso = "aceito_parcial"
	RecursoNegado        StatusRecurso = "negado"
)

// StatusItemRecurso is the appeal position of one denied line.
type StatusItemRecurso string

const (
	ItemPendente StatusItemRecurso = "pendente"
	ItemAceito   StatusItemRecurso = "aceito"
	ItemNegado   StatusItemRecurso = "negado"
)

// ItemGlosado is one denied line inside a denial, tied to the claim's
// procedure by code. The appeal fields stay empty until the line is
// contested.
type ItemGlosado struct {
	CodigoProcedimento   string            `json:"codigoProcedimento"`
	CodigoGlosa          string            `json:"codigoGlosa"`
	Descricao            string            `json:"descricao,omitempty"`
	ValorGlosado         float64           `json:"valorGlosado"`
	StatusRecurso        StatusItemRecurso `json:"statusRecurso,omitempty"`
	JustificativaRecurso string            `json:"justificativaRecurso,omitempty"`
}

// Glosa is a denial issued by the operator against one claim. The financial
// split always reconciles: ValorGlosado + ValorAprovado == ValorOriginal.
type Glosa struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	GuiaID         uuid.UUID     `db:"guia_id" json:"guia_id"`
	CodigoGlosa    string        `db:"codigo_glosa" json:"codigo_glosa"`
	Descricao      string        `db:"descricao" json:"descricao,omitempty"`
	Status         StatusGlosa   `db:"status" json:"status"`
	ValorOriginal  float64       `db:"valor_original" json:"valor_original"`
	ValorGlosado   float64       `db:"valor_glosado" json:"valor_glosado"`
	ValorAprovado  float64       `db:"valor_aprovado" json:"valor_aprovado"`
	Itens          []ItemGlosado `db:"itens" json:"itens"`
	DataGlosa      time.Time     `db:"data_glosa" json:"data_glosa"`
	PrazoRecurso   time.Time     `db:"prazo_recurso" json:"prazo_recurso"`
	VersionID      int           `db:"version_id" json:"version_id"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// GetVersionID returns the current version.
func (g *Glosa) GetVersionID() int { return g.VersionID }

// SetVersionID sets the current version.
func (g *Glosa) SetVersionID(v int) { g.VersionID = v }

// DentroDoPrazo reports whether an appeal may still be filed at t.
func (g *Glosa) DentroDoPrazo(t time.Time) bool {
	return !t.After(g.PrazoRecurso)
}

// SomaItens returns the sum of the denied line values.
func (g *Glosa) SomaItens() float64 {
	var total float64
	for _, item := range g.Itens {
		total += item.ValorGlosado
	}
	return total
}

// ItemContestado is one denied line contested by an appeal.
type ItemContestado struct {
	CodigoProcedimento string  `json:"codigoProcedimento"`
	Justificativa      string  `json:"justificativa,omitempty"`
	ValorContestado    float64 `json:"valorContestado"`
}

// Recurso is an appeal filed against a denial. ValorRecuperado never exceeds
// ValorContestado, which never exceeds the denied amount. An appeal without
// explicit Itens contests the whole denial.
type Recurso struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	GlosaID         uuid.UUID        `db:"glosa_id" json:"glosa_id"`
	Justificativa   string           `db:"justificativa" json:"justificativa"`
	Status          StatusRecurso    `db:"status" json:"status"`
	ValorContestado float64          `db:"valor_contestado" json:"valor_contestado"`
	ValorRecuperado float64          `db:"valor_recuperado" json:"valor_recuperado"`
	Itens           []ItemContestado `db:"itens" json:"itens,omitempty"`
	Documentos      []string         `db:"documentos" json:"documentos,omitempty"`
	EnviadoEm       time.Time        `db:"enviado_em" json:"enviado_em"`
	RespondidoEm    *time.Time       `db:"respondido_em" json:"respondido_em,omitempty"`
	VersionID       int              `db:"version_id" json:"version_id"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// SomaContestada returns the sum of the contested line values.
func (r *Recurso) SomaContestada() float64 {
	var total float64
	for _, item := range r.Itens {
		total += item.ValorContestado
	}
	return total
}

// GetVersionID returns the current version.
func (r *Recurso) GetVersionID() int { return r.VersionID }

// SetVersionID sets the current version.
func (r *Recurso) SetVersionID(v int) { r.VersionID = v }
