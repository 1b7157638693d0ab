package glosa

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vidaplus/tiss/internal/domain/guia"
	"github.com/vidaplus/tiss/internal/platform/db"
)

// PrazoRecursoPadrao is the default appeal window counted from the denial
// date when the operator states no deadline.
const PrazoRecursoPadrao = 30 * 24 * time.Hour

// GlosaInput carries an operator denial to be imported against a claim.
type GlosaInput struct {
	GuiaID       uuid.UUID     `json:"guia_id"`
	CodigoGlosa  string        `json:"codigo_glosa"`
	Descricao    string        `json:"descricao"`
	Itens        []ItemGlosado `json:"itens"`
	DataGlosa    string        `json:"data_glosa"`
	PrazoRecurso string        `json:"prazo_recurso"`
}

// RecursoInput carries an appeal against a denial. Documentos holds
// references to supporting documents kept elsewhere. When Itens is given
// the contested value is the sum of the contested lines; without it the
// appeal contests ValorContestado against the denial as a whole.
type RecursoInput struct {
	Justificativa   string           `json:"justificativa"`
	ValorContestado float64          `json:"valor_contestado"`
	Itens           []ItemContestado `json:"itens"`
	Documentos      []string         `json:"documentos"`
}

// ResolucaoInput carries the operator's decision on an appeal. For
// aceito_parcial, ItensAceitos names the recovered procedure lines; the
// remaining contested lines are recorded as negado.
type ResolucaoInput struct {
	Status          StatusRecurso `json:"status"`
	ValorRecuperado float64       `json:"valor_recuperado"`
	ItensAceitos    []string      `json:"itens_aceitos"`
}

// Service imports operator denials, files appeals and reconciles their
// outcomes back onto the claims.
type Service struct {
	repo  Repository
	guias guia.Repository
	tx    db.TxRunner
	agora func() time.Time
}

// NewService creates a denial service.
func NewService(repo Repository, guias guia.Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, guias: guias, tx: tx, agora: time.Now}
}

// ImportarGlosa records an operator denial against a submitted claim and
// moves the claim to glosada_parcial or glosada_total depending on whether
// anything remains approved. A claim may receive more than one denial; the
// claim's valorGlosado accumulates across them.
func (s *Service) ImportarGlosa(ctx context.Context, in GlosaInput) (*Glosa, error) {
	if len(in.Itens) == 0 {
		return nil, ErrSemItens
	}
	dataGlosa := s.agora()
	if in.DataGlosa != "" {
		var err error
		dataGlosa, err = time.Parse("2006-01-02", in.DataGlosa)
		if err != nil {
			return nil, fmt.Errorf("data_glosa: expected YYYY-MM-DD, got %q", in.DataGlosa)
		}
	}
	prazo := dataGlosa.Add(PrazoRecursoPadrao)
	if in.PrazoRecurso != "" {
		var err error
		prazo, err = time.Parse("2006-01-02", in.PrazoRecurso)
		if err != nil {
			return nil, fmt.Errorf("prazo_recurso: expected YYYY-MM-DD, got %q", in.PrazoRecurso)
		}
	}

	var g *Glosa
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.guias.GetByID(ctx, in.GuiaID)
		if err != nil {
			return err
		}
		if rec.Status == guia.StatusRascunho {
			return guia.ErrClaimNotSubmitted
		}

		// A later denial assesses only what previous denials left standing.
		restante := round2(rec.ValorTotal - rec.ValorGlosado)
		g = &Glosa{
			ID:            uuid.New(),
			GuiaID:        rec.ID,
			CodigoGlosa:   in.CodigoGlosa,
			Descricao:     in.Descricao,
			Status:        StatusPendente,
			ValorOriginal: restante,
			Itens:         in.Itens,
			DataGlosa:     dataGlosa,
			PrazoRecurso:  prazo,
		}
		g.ValorGlosado = round2(g.SomaItens())
		if g.ValorGlosado <= 0 {
			return ErrSemItens
		}
		if g.ValorGlosado > g.ValorOriginal+0.009 {
			return fmt.Errorf("%w: %.2f denied against %.2f", ErrValorGlosadoExcede,
				g.ValorGlosado, g.ValorOriginal)
		}
		g.ValorAprovado = round2(g.ValorOriginal - g.ValorGlosado)

		rec.ValorGlosado = round2(rec.ValorGlosado + g.ValorGlosado)
		rec.ValorPago = round2(rec.ValorTotal - rec.ValorGlosado)
		destino := guia.StatusGlosadaParcial
		if rec.ValorPago <= 0 {
			destino = guia.StatusGlosadaTotal
		}
		if rec.Status != destino && !guia.TransicaoValida(rec.Status, destino) {
			return &guia.StatusTransitionError{De: rec.Status, Para: destino}
		}
		rec.Status = destino
		if err := s.guias.Update(ctx, rec); err != nil {
			return err
		}
		return s.repo.CreateGlosa(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("glosa_id", g.ID.String()).
		Str("guia_id", g.GuiaID.String()).
		Float64("valor_glosado", g.ValorGlosado).
		Float64("valor_aprovado", g.ValorAprovado).
		Msg("glosa imported")
	return g, nil
}

// CriarRecurso files an appeal against a registered denial while the appeal
// window is still open.
func (s *Service) CriarRecurso(ctx context.Context, glosaID uuid.UUID, in RecursoInput) (*Recurso, error) {
	if in.Justificativa == "" {
		return nil, fmt.Errorf("justificativa is required")
	}

	var rec *Recurso
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		g, err := s.repo.GetGlosa(ctx, glosaID)
		if err != nil {
			return err
		}
		if g.Status != StatusPendente {
			return ErrGlosaNaoPendente
		}
		if !g.DentroDoPrazo(s.agora()) {
			return ErrAppealWindowExpired
		}

		contestado := in.ValorContestado
		if len(in.Itens) > 0 {
			contestado, err = contestarItens(g, in.Itens, in.Justificativa)
			if err != nil {
				return err
			}
		} else {
			for i := range g.Itens {
				g.Itens[i].StatusRecurso = ItemPendente
				g.Itens[i].JustificativaRecurso = in.Justificativa
			}
		}
		if contestado <= 0 || contestado > g.ValorGlosado+0.009 {
			return fmt.Errorf("%w: %.2f against denied %.2f", ErrValorContestadoInvalido,
				contestado, g.ValorGlosado)
		}

		claim, err := s.guias.GetByID(ctx, g.GuiaID)
		if err != nil {
			return err
		}
		if !guia.TransicaoValida(claim.Status, guia.StatusRecurso) {
			return &guia.StatusTransitionError{De: claim.Status, Para: guia.StatusRecurso}
		}

		rec = &Recurso{
			ID:              uuid.New(),
			GlosaID:         g.ID,
			Justificativa:   in.Justificativa,
			Status:          RecursoEnviado,
			ValorContestado: round2(contestado),
			Itens:           in.Itens,
			Documentos:      in.Documentos,
			EnviadoEm:       s.agora(),
		}
		if err := s.repo.CreateRecurso(ctx, rec); err != nil {
			return err
		}

		g.Status = StatusEmRecurso
		if err := s.repo.UpdateGlosa(ctx, g); err != nil {
			return err
		}

		claim.Status = guia.StatusRecurso
		return s.guias.Update(ctx, claim)
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("recurso_id", rec.ID.String()).
		Str("glosa_id", glosaID.String()).
		Float64("valor_contestado", rec.ValorContestado).
		Msg("recurso filed")
	return rec, nil
}

// IniciarAnalise records that the operator took the appeal under review.
func (s *Service) IniciarAnalise(ctx context.Context, recursoID uuid.UUID) (*Recurso, error) {
	var rec *Recurso
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetRecurso(ctx, recursoID)
		if err != nil {
			return err
		}
		if rec.Status != RecursoEnviado {
			return ErrRecursoJaDecidido
		}
		rec.Status = RecursoEmAnalise
		return s.repo.UpdateRecurso(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ResolverRecurso records the operator's decision, reconciling the
// recovered value onto the denial, its contested lines and the claim. The
// claim closes as paga.
func (s *Service) ResolverRecurso(ctx context.Context, recursoID uuid.UUID, in ResolucaoInput) (*Recurso, error) {
	var rec *Recurso
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetRecurso(ctx, recursoID)
		if err != nil {
			return err
		}
		if rec.Status != RecursoEnviado && rec.Status != RecursoEmAnalise {
			return ErrRecursoJaDecidido
		}

		g, err := s.repo.GetGlosa(ctx, rec.GlosaID)
		if err != nil {
			return err
		}

		recuperado := round2(in.ValorRecuperado)
		switch in.Status {
		case RecursoAceito:
			recuperado = rec.ValorContestado
			if _, err := aplicarResolucaoItens(g, rec, RecursoAceito, nil); err != nil {
				return err
			}
		case RecursoAceitoParcial:
			soma, err := aplicarResolucaoItens(g, rec, RecursoAceitoParcial, in.ItensAceitos)
			if err != nil {
				return err
			}
			if recuperado == 0 && len(in.ItensAceitos) > 0 {
				recuperado = round2(soma)
			}
			if recuperado <= 0 || recuperado >= rec.ValorContestado {
				return fmt.Errorf("%w: partial recovery must be between 0 and %.2f",
					ErrValorRecuperadoInvalido, rec.ValorContestado)
			}
		case RecursoNegado:
			recuperado = 0
			if _, err := aplicarResolucaoItens(g, rec, RecursoNegado, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown outcome %q", ErrValorRecuperadoInvalido, in.Status)
		}

		claim, err := s.guias.GetByID(ctx, g.GuiaID)
		if err != nil {
			return err
		}
		if !guia.TransicaoValida(claim.Status, guia.StatusPaga) {
			return &guia.StatusTransitionError{De: claim.Status, Para: guia.StatusPaga}
		}

		agora := s.agora()
		rec.Status = in.Status
		rec.ValorRecuperado = recuperado
		rec.RespondidoEm = &agora
		if err := s.repo.UpdateRecurso(ctx, rec); err != nil {
			return err
		}

		g.Status = StatusResolvida
		g.ValorGlosado = round2(g.ValorGlosado - recuperado)
		g.ValorAprovado = round2(g.ValorAprovado + recuperado)
		if err := s.repo.UpdateGlosa(ctx, g); err != nil {
			return err
		}

		claim.ValorGlosado = round2(claim.ValorGlosado - recuperado)
		claim.ValorPago = round2(claim.ValorPago + recuperado)
		claim.Status = guia.StatusPaga
		return s.guias.Update(ctx, claim)
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("recurso_id", rec.ID.String()).
		Str("resultado", string(rec.Status)).
		Float64("valor_recuperado", rec.ValorRecuperado).
		Msg("recurso resolved")
	return rec, nil
}

// GetGlosa fetches a denial by id.
func (s *Service) GetGlosa(ctx context.Context, id uuid.UUID) (*Glosa, error) {
	return s.repo.GetGlosa(ctx, id)
}

// ListByGuia lists the denials recorded against a claim.
func (s *Service) ListByGuia(ctx context.Context, guiaID uuid.UUID) ([]*Glosa, error) {
	return s.repo.ListByGuia(ctx, guiaID)
}

// ListRecursos lists the appeals filed against a denial.
func (s *Service) ListRecursos(ctx context.Context, glosaID uuid.UUID) ([]*Recurso, error) {
	return s.repo.ListRecursos(ctx, glosaID)
}

// contestarItens checks every contested line against the denial and stamps
// the matching denied lines as pendente. Returns the summed contested value.
func contestarItens(g *Glosa, itens []ItemContestado, justificativa string) (float64, error) {
	porCodigo := make(map[string]*ItemGlosado, len(g.Itens))
	for i := range g.Itens {
		porCodigo[g.Itens[i].CodigoProcedimento] = &g.Itens[i]
	}

	var total float64
	visto := make(map[string]bool, len(itens))
	for _, item := range itens {
		alvo, ok := porCodigo[item.CodigoProcedimento]
		if !ok || visto[item.CodigoProcedimento] {
			return 0, fmt.Errorf("%w: %s", ErrItemContestadoInvalido, item.CodigoProcedimento)
		}
		if item.ValorContestado <= 0 || item.ValorContestado > alvo.ValorGlosado+0.009 {
			return 0, fmt.Errorf("%w: %s contests %.2f of denied %.2f", ErrItemContestadoInvalido,
				item.CodigoProcedimento, item.ValorContestado, alvo.ValorGlosado)
		}
		visto[item.CodigoProcedimento] = true
		alvo.StatusRecurso = ItemPendente
		alvo.JustificativaRecurso = item.Justificativa
		if alvo.JustificativaRecurso == "" {
			alvo.JustificativaRecurso = justificativa
		}
		total += item.ValorContestado
	}
	return total, nil
}

// aplicarResolucaoItens stamps the contested lines with the per-line
// outcome. For aceito_parcial the codes in aceitos land as aceito and the
// remaining contested lines as negado; the returned sum is the contested
// value of the accepted lines.
func aplicarResolucaoItens(g *Glosa, rec *Recurso, outcome StatusRecurso, aceitos []string) (float64, error) {
	contestadoPorCodigo := make(map[string]float64, len(rec.Itens))
	for _, item := range rec.Itens {
		contestadoPorCodigo[item.CodigoProcedimento] = item.ValorContestado
	}
	aceito := make(map[string]bool, len(aceitos))
	for _, c := range aceitos {
		aceito[c] = true
	}

	var soma float64
	consumidos := 0
	for i := range g.Itens {
		item := &g.Itens[i]
		if item.StatusRecurso != ItemPendente {
			continue
		}
		switch outcome {
		case RecursoAceito:
			item.StatusRecurso = ItemAceito
		case RecursoNegado:
			item.StatusRecurso = ItemNegado
		case RecursoAceitoParcial:
			if !aceito[item.CodigoProcedimento] {
				item.StatusRecurso = ItemNegado
				continue
			}
			consumidos++
			item.StatusRecurso = ItemAceito
			if v, ok := contestadoPorCodigo[item.CodigoProcedimento]; ok {
				soma += v
			} else {
				soma += item.ValorGlosado
			}
		}
	}
	if consumidos != len(aceito) {
		return 0, fmt.Errorf("%w: itens_aceitos name lines that were not contested",
			ErrItemContestadoInvalido)
	}
	return soma, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
