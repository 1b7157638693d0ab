package guia

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vidaplus/tiss/internal/domain/tuss"
)

// ConsultaInput carries everything needed to open a consultation claim.
type ConsultaInput struct {
	PatientID         uuid.UUID         `json:"patient_id"`
	AppointmentID     *uuid.UUID        `json:"appointment_id,omitempty"`
	RegistroANS       string            `json:"registro_ans"`
	NomeOperadora     string            `json:"nome_operadora"`
	Beneficiario      DadosBeneficiario `json:"beneficiario"`
	Contratado        Prestador         `json:"contratado"`
	Profissional      Prestador         `json:"profissional"`
	IndicacaoAcidente string            `json:"indicacao_acidente"`
	TipoConsulta      string            `json:"tipo_consulta"`
	DataAtendimento   string            `json:"data_atendimento"`
	CodigoTabela      string            `json:"codigo_tabela"`
	CodigoProcedimento string           `json:"codigo_procedimento"`
	// ValorProcedimento overrides the catalog reference price when positive.
	ValorProcedimento float64 `json:"valor_procedimento"`
}

// SADTLineInput is one requested procedure line.
type SADTLineInput struct {
	DataExecucao        string  `json:"data_execucao"`
	HoraInicial         string  `json:"hora_inicial"`
	HoraFinal           string  `json:"hora_final"`
	CodigoTabela        string  `json:"codigo_tabela"`
	CodigoProcedimento  string  `json:"codigo_procedimento"`
	QuantidadeRealizada float64 `json:"quantidade_realizada"`
	// ValorUnitario overrides the catalog reference price when positive.
	ValorUnitario float64 `json:"valor_unitario"`
}

// SADTInput carries everything needed to open a SADT claim.
type SADTInput struct {
	PatientID          uuid.UUID         `json:"patient_id"`
	AppointmentID      *uuid.UUID        `json:"appointment_id,omitempty"`
	RegistroANS        string            `json:"registro_ans"`
	NomeOperadora      string            `json:"nome_operadora"`
	Beneficiario       DadosBeneficiario `json:"beneficiario"`
	Solicitante        Prestador         `json:"solicitante"`
	Executante         Prestador         `json:"executante"`
	IndicacaoClinica   string            `json:"indicacao_clinica"`
	CaraterAtendimento string            `json:"carater_atendimento"`
	DataAtendimento    string            `json:"data_atendimento"`
	Procedimentos      []SADTLineInput   `json:"procedimentos"`
}

// Service builds claims, resolves their procedure codes against the TUSS
// catalog and drives the claim lifecycle.
type Service struct {
	repo     Repository
	catalogo tuss.Repository
}

// NewService creates a claim service.
func NewService(repo Repository, catalogo tuss.Repository) *Service {
	return &Service{repo: repo, catalogo: catalogo}
}

// CriarGuiaConsulta creates a consultation claim in rascunho.
func (s *Service) CriarGuiaConsulta(ctx context.Context, in ConsultaInput) (*GuiaRecord, error) {
	if in.RegistroANS == "" {
		return nil, fmt.Errorf("registro_ans is required")
	}
	if in.Beneficiario.NumeroCarteira == "" || in.Beneficiario.NomeBeneficiario == "" {
		return nil, fmt.Errorf("beneficiario numeroCarteira and nome are required")
	}
	data, err := parseDate(in.DataAtendimento)
	if err != nil {
		return nil, fmt.Errorf("data_atendimento: %w", err)
	}

	codigo, err := s.resolverCodigo(ctx, in.CodigoProcedimento, data, 1)
	if err != nil {
		return nil, err
	}
	valor := in.ValorProcedimento
	if valor <= 0 {
		valor = codigo.ValorReferencia
	}

	tabela := in.CodigoTabela
	if tabela == "" {
		tabela = "22"
	}
	consulta := &GuiaConsulta{
		Beneficiario:       in.Beneficiario,
		Contratado:         in.Contratado,
		Profissional:       in.Profissional,
		IndicacaoAcidente:  defaultStr(in.IndicacaoAcidente, "9"),
		TipoConsulta:       defaultStr(in.TipoConsulta, "1"),
		DataAtendimento:    data,
		CodigoTabela:       tabela,
		CodigoProcedimento: in.CodigoProcedimento,
		ValorProcedimento:  round2(valor),
	}

	return s.criar(ctx, in.PatientID, in.AppointmentID, in.RegistroANS, in.NomeOperadora,
		Guia{Tipo: TipoConsulta, Consulta: consulta})
}

// CriarGuiaSADT creates a SADT claim in rascunho. Every line must resolve to
// a TUSS code valid at the service date; the first offending line aborts the
// whole claim.
func (s *Service) CriarGuiaSADT(ctx context.Context, in SADTInput) (*GuiaRecord, error) {
	if in.RegistroANS == "" {
		return nil, fmt.Errorf("registro_ans is required")
	}
	if in.Beneficiario.NumeroCarteira == "" || in.Beneficiario.NomeBeneficiario == "" {
		return nil, fmt.Errorf("beneficiario numeroCarteira and nome are required")
	}
	if len(in.Procedimentos) == 0 {
		return nil, ErrEmptyProcedureList
	}
	data, err := parseDate(in.DataAtendimento)
	if err != nil {
		return nil, fmt.Errorf("data_atendimento: %w", err)
	}

	sadt := &GuiaSADT{
		Beneficiario:       in.Beneficiario,
		Solicitante:        in.Solicitante,
		Executante:         in.Executante,
		IndicacaoClinica:   in.IndicacaoClinica,
		CaraterAtendimento: defaultStr(in.CaraterAtendimento, "1"),
		DataAtendimento:    data,
	}
	for i, line := range in.Procedimentos {
		dataExec := data
		if line.DataExecucao != "" {
			dataExec, err = parseDate(line.DataExecucao)
			if err != nil {
				return nil, fmt.Errorf("procedimento %d data_execucao: %w", i+1, err)
			}
		}
		codigo, err := s.resolverCodigo(ctx, line.CodigoProcedimento, dataExec, i+1)
		if err != nil {
			return nil, err
		}
		qtd := line.QuantidadeRealizada
		if qtd <= 0 {
			qtd = 1
		}
		valor := line.ValorUnitario
		if valor <= 0 {
			valor = codigo.ValorReferencia
		}
		tabela := line.CodigoTabela
		if tabela == "" {
			tabela = "22"
		}
		sadt.Procedimentos = append(sadt.Procedimentos, ProcedimentoRealizado{
			DataExecucao:        dataExec,
			HoraInicial:         line.HoraInicial,
			HoraFinal:           line.HoraFinal,
			CodigoTabela:        tabela,
			CodigoProcedimento:  line.CodigoProcedimento,
			Descricao:           codigo.Descricao,
			QuantidadeRealizada: qtd,
			ValorUnitario:       round2(valor),
		})
	}
	sadt.ComputarTotais()

	return s.criar(ctx, in.PatientID, in.AppointmentID, in.RegistroANS, in.NomeOperadora,
		Guia{Tipo: TipoSADT, SADT: sadt})
}

func (s *Service) criar(ctx context.Context, patientID uuid.UUID, appointmentID *uuid.UUID,
	registroANS, nomeOperadora string, payload Guia) (*GuiaRecord, error) {

	numero, err := s.repo.NextNumeroGuia(ctx)
	if err != nil {
		return nil, err
	}
	rec := &GuiaRecord{
		ID:                  uuid.New(),
		Tipo:                payload.Tipo,
		NumeroGuiaPrestador: numero,
		RegistroANS:         registroANS,
		NomeOperadora:       nomeOperadora,
		PatientID:           patientID,
		AppointmentID:       appointmentID,
		Status:              StatusRascunho,
		ValorTotal:          payload.Valor(),
		Payload:             payload,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	log.Info().
		Str("guia_id", rec.ID.String()).
		Str("numero", rec.NumeroGuiaPrestador).
		Str("tipo", string(rec.Tipo)).
		Float64("valor_total", rec.ValorTotal).
		Msg("guia created")
	return rec, nil
}

// GetByID fetches a claim by id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*GuiaRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists claims with optional filters.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*GuiaRecord, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// AtualizarStatus moves a claim through its lifecycle, rejecting edges the
// state machine does not allow.
func (s *Service) AtualizarStatus(ctx context.Context, id uuid.UUID, novo StatusGuia) (*GuiaRecord, error) {
	if !ValidStatus(novo) {
		return nil, fmt.Errorf("unknown status %q", novo)
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !TransicaoValida(rec.Status, novo) {
		return nil, &StatusTransitionError{De: rec.Status, Para: novo}
	}
	anterior := rec.Status
	rec.Status = novo
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	log.Info().
		Str("guia_id", rec.ID.String()).
		Str("de", string(anterior)).
		Str("para", string(novo)).
		Msg("guia status changed")
	return rec, nil
}

// AtualizarRascunho replaces the clinical payload of a claim still in
// rascunho, revalidating codes and recomputing totals.
func (s *Service) AtualizarRascunho(ctx context.Context, id uuid.UUID, payload Guia) (*GuiaRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Editavel() {
		return nil, ErrClaimLocked
	}
	if payload.Tipo != rec.Tipo {
		return nil, fmt.Errorf("guia tipo cannot change")
	}
	switch payload.Tipo {
	case TipoConsulta:
		if payload.Consulta == nil {
			return nil, fmt.Errorf("consulta payload is required")
		}
		if _, err := s.resolverCodigo(ctx, payload.Consulta.CodigoProcedimento,
			payload.Consulta.DataAtendimento, 1); err != nil {
			return nil, err
		}
	case TipoSADT:
		if payload.SADT == nil {
			return nil, fmt.Errorf("sadt payload is required")
		}
		if len(payload.SADT.Procedimentos) == 0 {
			return nil, ErrEmptyProcedureList
		}
		for i, p := range payload.SADT.Procedimentos {
			if _, err := s.resolverCodigo(ctx, p.CodigoProcedimento, p.DataExecucao, i+1); err != nil {
				return nil, err
			}
		}
		payload.SADT.ComputarTotais()
	default:
		return nil, fmt.Errorf("unknown guia tipo %q", payload.Tipo)
	}
	rec.Payload = payload
	rec.ValorTotal = payload.Valor()
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) resolverCodigo(ctx context.Context, codigo string, data time.Time, linha int) (*tuss.CodigoTUSS, error) {
	if codigo == "" {
		return nil, &InvalidProcedureCodeError{Codigo: codigo, Linha: linha}
	}
	c, err := s.catalogo.GetByCode(ctx, codigo)
	if err != nil {
		return nil, fmt.Errorf("resolve TUSS code: %w", err)
	}
	if c == nil || !c.Ativo || !c.VigenteEm(data) {
		return nil, &InvalidProcedureCodeError{Codigo: codigo, Linha: linha}
	}
	return c, nil
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", v)
	}
	return t, nil
}
