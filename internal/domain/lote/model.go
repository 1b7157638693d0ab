package lote

import (
	"time"

	"github.com/google/uuid"

	"github.com/vidaplus/tiss/internal/domain/guia"
)

// StatusLote is the lifecycle state of a batch.
type StatusLote string

const (
	StatusRascunho   StatusLote = "rascunho"
	StatusValidando  StatusLote = "validando"
	StatusPronto     StatusLote = "pronto"
	StatusEnviando   StatusLote = "enviando"
	StatusEnviado    StatusLote = "enviado"
	StatusErro       StatusLote = "erro"
	StatusProcessado StatusLote = "processado"
)

// statusTransitions is the batch lifecycle. A failed transmission lands on
// erro and may be retried, so erro feeds back into enviando.
var statusTransitions = map[StatusLote][]StatusLote{
	StatusRascunho:   {StatusValidando},
	StatusValidando:  {StatusPronto, StatusRascunho},
	StatusPronto:     {StatusEnviando},
	StatusEnviando:   {StatusEnviado, StatusErro},
	StatusErro:       {StatusEnviando},
	StatusEnviado:    {StatusProcessado},
	StatusProcessado: {},
}

// TransicaoValida reports whether a batch may move from de to para.
func TransicaoValida(de, para StatusLote) bool {
	for _, s := range statusTransitions[de] {
		if s == para {
			return true
		}
	}
	return false
}

// ErroGuia records validation or transmission failures against one member
// claim. Batch-level findings carry a nil GuiaID and an empty NumeroGuia.
type ErroGuia struct {
	GuiaID     uuid.UUID `json:"guia_id"`
	NumeroGuia string    `json:"numero_guia,omitempty"`
	Mensagens  []string  `json:"mensagens"`
}

// LoteRecord is a persisted batch of claims bound for one operator. Member
// claims point back via their lote_id; totals are always recomputed from
// the members, never trusted as stored input. Erros holds the per-claim
// findings of the last failed validation or transmission and is cleared
// when the batch passes again.
type LoteRecord struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	NumeroLote      string     `db:"numero_lote" json:"numero_lote"`
	RegistroANS     string     `db:"registro_ans" json:"registro_ans"`
	Status          StatusLote `db:"status" json:"status"`
	QuantidadeGuias int        `db:"quantidade_guias" json:"quantidade_guias"`
	ValorTotal      float64    `db:"valor_total" json:"valor_total"`
	XMLGerado       *string    `db:"xml_gerado" json:"xml_gerado,omitempty"`
	Protocolo       *string    `db:"protocolo" json:"protocolo,omitempty"`
	ErroTransmissao *string    `db:"erro_transmissao" json:"erro_transmissao,omitempty"`
	Erros           []ErroGuia `db:"erros" json:"erros,omitempty"`
	EnviadoEm       *time.Time `db:"enviado_em" json:"enviado_em,omitempty"`
	ProcessadoEm    *time.Time `db:"processado_em" json:"processado_em,omitempty"`
	VersionID       int        `db:"version_id" json:"version_id"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// GetVersionID returns the current version.
func (r *LoteRecord) GetVersionID() int { return r.VersionID }

// SetVersionID sets the current version.
func (r *LoteRecord) SetVersionID(v int) { r.VersionID = v }

// RecalcularTotais rebuilds member count and batch value from the member
// claims.
func (r *LoteRecord) RecalcularTotais(membros []*guia.GuiaRecord) {
	r.QuantidadeGuias = len(membros)
	var total float64
	for _, g := range membros {
		total += g.ValorTotal
	}
	r.ValorTotal = total
}
