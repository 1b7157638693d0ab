package tuss

import "time"

// CodigoTUSS represents one entry of the TUSS procedure table (Terminologia
// Unificada da Saúde Suplementar). Reference data, refreshed out-of-band;
// never mutated through the API.
type CodigoTUSS struct {
	Codigo          string     `db:"codigo" json:"codigo"`
	Descricao       string     `db:"descricao" json:"descricao"`
	Grupo           string     `db:"grupo" json:"grupo,omitempty"`
	Subgrupo        string     `db:"subgrupo" json:"subgrupo,omitempty"`
	ValorReferencia float64    `db:"valor_referencia" json:"valor_referencia"`
	VigenciaInicio  *time.Time `db:"vigencia_inicio" json:"vigencia_inicio,omitempty"`
	VigenciaFim     *time.Time `db:"vigencia_fim" json:"vigencia_fim,omitempty"`
	Ativo           bool       `db:"ativo" json:"ativo"`
}

// VigenteEm reports whether the code is active and inside its validity
// window at the given date.
func (c *CodigoTUSS) VigenteEm(t time.Time) bool {
	if !c.Ativo {
		return false
	}
	if c.VigenciaInicio != nil && t.Before(*c.VigenciaInicio) {
		return false
	}
	if c.VigenciaFim != nil && t.After(*c.VigenciaFim) {
		return false
	}
	return true
}
