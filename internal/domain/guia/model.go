package guia

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TipoGuia discriminates the two claim shapes of the TISS standard handled
// here: consultation and SADT (ancillary/diagnostic service).
type TipoGuia string

const (
	TipoConsulta TipoGuia = "consulta"
	TipoSADT     TipoGuia = "sadt"
)

// DadosBeneficiario identifies the insured patient on a claim.
type DadosBeneficiario struct {
	NumeroCarteira   string     `json:"numeroCarteira"`
	NomeBeneficiario string     `json:"nomeBeneficiario"`
	NumeroCNS        string     `json:"numeroCNS,omitempty"`
	ValidadeCarteira *time.Time `json:"validadeCarteira,omitempty"`
}

// Prestador identifies a provider (contracted clinic or professional) on
// either the requesting or executing side of a claim.
type Prestador struct {
	CodigoNaOperadora    string `json:"codigoNaOperadora"`
	NomeContratado       string `json:"nomeContratado"`
	CNES                 string `json:"cnes,omitempty"`
	NomeProfissional     string `json:"nomeProfissional,omitempty"`
	ConselhoProfissional string `json:"conselhoProfissional,omitempty"`
	NumeroConselho       string `json:"numeroConselho,omitempty"`
	UF                   string `json:"uf,omitempty"`
	CBOS                 string `json:"cbos,omitempty"`
}

// GuiaConsulta is a single consultation claim.
type GuiaConsulta struct {
	Beneficiario      DadosBeneficiario `json:"beneficiario"`
	Contratado        Prestador         `json:"contratado"`
	Profissional      Prestador         `json:"profissional"`
	IndicacaoAcidente string            `json:"indicacaoAcidente"`
	TipoConsulta      string            `json:"tipoConsulta"`
	DataAtendimento   time.Time         `json:"dataAtendimento"`
	CodigoTabela      string            `json:"codigoTabela"`
	CodigoProcedimento string           `json:"codigoProcedimento"`
	ValorProcedimento float64           `json:"valorProcedimento"`
}

// ProcedimentoRealizado is one executed procedure line on a SADT claim.
type ProcedimentoRealizado struct {
	DataExecucao        time.Time `json:"dataExecucao"`
	HoraInicial         string    `json:"horaInicial,omitempty"`
	HoraFinal           string    `json:"horaFinal,omitempty"`
	CodigoTabela        string    `json:"codigoTabela"`
	CodigoProcedimento  string    `json:"codigoProcedimento"`
	Descricao           string    `json:"descricao,omitempty"`
	QuantidadeRealizada float64   `json:"quantidadeRealizada"`
	ValorUnitario       float64   `json:"valorUnitario"`
	ValorTotal          float64   `json:"valorTotal"`
}

// TotaisSADT aggregates the category totals of a SADT claim.
type TotaisSADT struct {
	ValorProcedimentos float64 `json:"valorProcedimentos"`
	ValorTaxasAlugueis float64 `json:"valorTaxasAlugueis"`
	ValorMateriais     float64 `json:"valorMateriais"`
	ValorMedicamentos  float64 `json:"valorMedicamentos"`
	ValorOPME          float64 `json:"valorOPME"`
	ValorTotalGeral    float64 `json:"valorTotalGeral"`
}

// Soma returns the sum of all category totals.
func (t TotaisSADT) Soma() float64 {
	return round2(t.ValorProcedimentos + t.ValorTaxasAlugueis + t.ValorMateriais +
		t.ValorMedicamentos + t.ValorOPME)
}

// GuiaSADT is an ancillary/diagnostic service claim with one or more
// executed procedure lines.
type GuiaSADT struct {
	Beneficiario      DadosBeneficiario       `json:"beneficiario"`
	Solicitante       Prestador               `json:"solicitante"`
	Executante        Prestador               `json:"executante"`
	IndicacaoClinica  string                  `json:"indicacaoClinica,omitempty"`
	CaraterAtendimento string                 `json:"caraterAtendimento,omitempty"`
	DataAtendimento   time.Time               `json:"dataAtendimento"`
	Procedimentos     []ProcedimentoRealizado `json:"procedimentos"`
	Totais            TotaisSADT              `json:"totais"`
}

// ComputarTotais recomputes every line total from quantity and unit price,
// then derives the procedure category total and the grand total. Category
// totals other than procedures are preserved as given.
func (g *GuiaSADT) ComputarTotais() {
	var soma float64
	for i := range g.Procedimentos {
		p := &g.Procedimentos[i]
		p.ValorTotal = round2(p.QuantidadeRealizada * p.ValorUnitario)
		soma += p.ValorTotal
	}
	g.Totais.ValorProcedimentos = round2(soma)
	g.Totais.ValorTotalGeral = g.Totais.Soma()
}

// Guia is the tagged union of the two claim shapes: exactly one of Consulta
// or SADT is populated, matching Tipo.
type Guia struct {
	Tipo     TipoGuia      `json:"tipo"`
	Consulta *GuiaConsulta `json:"consulta,omitempty"`
	SADT     *GuiaSADT     `json:"sadt,omitempty"`
}

// Valor returns the billed total of the claim.
func (g Guia) Valor() float64 {
	switch g.Tipo {
	case TipoConsulta:
		if g.Consulta != nil {
			return g.Consulta.ValorProcedimento
		}
	case TipoSADT:
		if g.SADT != nil {
			return g.SADT.Totais.ValorTotalGeral
		}
	}
	return 0
}

// GuiaRecord is the persisted claim. The payload carries the full TISS body;
// the envelope fields are denormalized for querying. Clinic scoping comes
// from the per-clinic schema, never from a column.
type GuiaRecord struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	Tipo                TipoGuia   `db:"tipo" json:"tipo"`
	NumeroGuiaPrestador string     `db:"numero_guia_prestador" json:"numero_guia_prestador"`
	RegistroANS         string     `db:"registro_ans" json:"registro_ans"`
	NomeOperadora       string     `db:"nome_operadora" json:"nome_operadora,omitempty"`
	PatientID           uuid.UUID  `db:"patient_id" json:"patient_id"`
	AppointmentID       *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Status              StatusGuia `db:"status" json:"status"`
	ValorTotal          float64    `db:"valor_total" json:"valor_total"`
	ValorGlosado        float64    `db:"valor_glosado" json:"valor_glosado"`
	ValorPago           float64    `db:"valor_pago" json:"valor_pago"`
	XMLGerado           *string    `db:"xml_gerado" json:"xml_gerado,omitempty"`
	LoteID              *uuid.UUID `db:"lote_id" json:"lote_id,omitempty"`
	Payload             Guia       `db:"payload" json:"payload"`
	VersionID           int        `db:"version_id" json:"version_id"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Editavel reports whether clinical content may still be modified. Once a
// claim leaves rascunho its clinical fields are frozen.
func (r *GuiaRecord) Editavel() bool {
	return r.Status == StatusRascunho
}

// GetVersionID returns the current version.
func (r *GuiaRecord) GetVersionID() int { return r.VersionID }

// SetVersionID sets the current version.
func (r *GuiaRecord) SetVersionID(v int) { r.VersionID = v }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
