package lote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vidaplus/tiss/internal/config"
	"github.com/vidaplus/tiss/internal/domain/guia"
	"github.com/vidaplus/tiss/internal/platform/db"
	"github.com/vidaplus/tiss/internal/platform/tissxml"
)

// Service assembles batches, validates them against the TISS format and
// drives transmission to the operator webservice.
type Service struct {
	repo       Repository
	guias      guia.Repository
	transporte Transport
	tx         db.TxRunner
	ws         config.WebServiceConfig
}

// NewService creates a batch service.
func NewService(repo Repository, guias guia.Repository, transporte Transport,
	tx db.TxRunner, ws config.WebServiceConfig) *Service {
	return &Service{repo: repo, guias: guias, transporte: transporte, tx: tx, ws: ws}
}

// Montar assembles a batch from draft claims. It runs in one transaction:
// either every claim joins the batch or none does. Claims must all target
// the same operator, still be in rascunho and not belong to another batch.
func (s *Service) Montar(ctx context.Context, ids []uuid.UUID) (*LoteRecord, error) {
	if len(ids) == 0 {
		return nil, ErrLoteVazio
	}

	var rec *LoteRecord
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		membros, err := s.guias.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(membros) != len(ids) {
			return fmt.Errorf("%w: %d of %d ids resolved", ErrGuiaNaoEncontrada, len(membros), len(ids))
		}

		registro := membros[0].RegistroANS
		for _, g := range membros {
			if g.Status != guia.StatusRascunho {
				return fmt.Errorf("%w: guia %s is %s", ErrGuiaForaDeRascunho, g.NumeroGuiaPrestador, g.Status)
			}
			if g.LoteID != nil {
				return fmt.Errorf("%w: guia %s", guia.ErrClaimAlreadyBatched, g.NumeroGuiaPrestador)
			}
			if g.RegistroANS != registro {
				return fmt.Errorf("%w: %s and %s", ErrOperadorasMistas, registro, g.RegistroANS)
			}
		}

		numero, err := s.repo.NextNumeroLote(ctx)
		if err != nil {
			return err
		}
		rec = &LoteRecord{
			ID:          uuid.New(),
			NumeroLote:  numero,
			RegistroANS: registro,
			Status:      StatusRascunho,
		}
		rec.RecalcularTotais(membros)
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}

		n, err := s.guias.VincularLote(ctx, ids, rec.ID)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return fmt.Errorf("%w: only %d of %d guias were free", guia.ErrClaimAlreadyBatched, n, len(ids))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("lote_id", rec.ID.String()).
		Str("numero", rec.NumeroLote).
		Int("guias", rec.QuantidadeGuias).
		Float64("valor_total", rec.ValorTotal).
		Msg("lote assembled")
	return rec, nil
}

// Desmontar dissolves a batch still in rascunho, releasing its claims.
func (s *Service) Desmontar(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rec.Status != StatusRascunho {
			return &StatusTransitionError{De: rec.Status, Para: StatusRascunho}
		}
		membros, err := s.guias.ListByLote(ctx, id)
		if err != nil {
			return err
		}
		memberIDs := make([]uuid.UUID, len(membros))
		for i, g := range membros {
			memberIDs[i] = g.ID
		}
		if len(memberIDs) > 0 {
			if err := s.guias.DesvincularLote(ctx, memberIDs); err != nil {
				return err
			}
		}
		return s.repo.Delete(ctx, id)
	})
}

// Validar renders the batch document and runs the TISS validator over it.
// On success the batch keeps the rendered XML and becomes pronto; on
// failure it returns to rascunho and the findings are handed back.
func (s *Service) Validar(ctx context.Context, id uuid.UUID) (*LoteRecord, *tissxml.Resultado, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.mudarStatus(ctx, rec, StatusValidando); err != nil {
		return nil, nil, err
	}

	membros, err := s.guias.ListByLote(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rec.RecalcularTotais(membros)

	doc, err := tissxml.GerarXMLLote(tissxml.LoteInput{
		NumeroLote:          rec.NumeroLote,
		SequencialTransacao: rec.NumeroLote,
		RegistroANS:         rec.RegistroANS,
		CodigoPrestador:     codigoPrestador(membros),
		DataRegistro:        time.Now(),
		Guias:               membros,
	}, tissxml.Options{})
	if err != nil {
		if rerr := s.mudarStatus(ctx, rec, StatusRascunho); rerr != nil {
			log.Error().
				Str("lote_id", rec.ID.String()).
				Err(rerr).
				Msg("lote stuck in validando: revert after render failure did not persist")
			return nil, nil, fmt.Errorf("revert lote %s after render failure: %w", rec.NumeroLote, rerr)
		}
		return nil, nil, err
	}

	res := tissxml.ValidateXML([]byte(doc))
	if !res.Valido {
		rec.Erros = errosPorGuia(membros, res.Erros)
		if err := s.mudarStatus(ctx, rec, StatusRascunho); err != nil {
			return nil, nil, err
		}
		log.Warn().
			Str("lote_id", rec.ID.String()).
			Int("erros", len(res.Erros)).
			Msg("lote failed validation")
		return rec, &res, nil
	}

	rec.XMLGerado = &doc
	rec.Erros = nil
	if err := s.mudarStatus(ctx, rec, StatusPronto); err != nil {
		return nil, nil, err
	}
	return rec, &res, nil
}

// errosPorGuia groups validation findings by the member claim they were
// reported against. Findings the validator could not attribute to a claim
// land under a nil guia id.
func errosPorGuia(membros []*guia.GuiaRecord, issues []tissxml.Issue) []ErroGuia {
	porNumero := make(map[string]*guia.GuiaRecord, len(membros))
	for _, g := range membros {
		porNumero[g.NumeroGuiaPrestador] = g
	}

	idx := make(map[string]int)
	var out []ErroGuia
	for _, issue := range issues {
		i, ok := idx[issue.NumeroGuia]
		if !ok {
			e := ErroGuia{NumeroGuia: issue.NumeroGuia}
			if g, found := porNumero[issue.NumeroGuia]; found {
				e.GuiaID = g.ID
			}
			out = append(out, e)
			i = len(out) - 1
			idx[issue.NumeroGuia] = i
		}
		out[i].Mensagens = append(out[i].Mensagens, issue.Message)
	}
	return out
}

// Transmitir submits a validated batch to the operator. Each attempt is
// bounded by the webservice timeout; after the configured attempts the
// batch lands on erro and stays retryable.
func (s *Service) Transmitir(ctx context.Context, id uuid.UUID) (*LoteRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.XMLGerado == nil {
		return nil, ErrSemXML
	}
	if err := s.mudarStatus(ctx, rec, StatusEnviando); err != nil {
		return nil, err
	}

	attempts := s.ws.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var protocolo string
	var envioErr error
	for i := 1; i <= attempts; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.ws.Timeout)
		protocolo, envioErr = s.transporte.Enviar(attemptCtx, rec.RegistroANS, []byte(*rec.XMLGerado))
		cancel()
		if envioErr == nil {
			break
		}
		log.Warn().
			Str("lote_id", rec.ID.String()).
			Int("attempt", i).
			Err(envioErr).
			Msg("lote transmission attempt failed")
	}

	if envioErr != nil {
		msg := envioErr.Error()
		rec.ErroTransmissao = &msg
		rec.Erros = []ErroGuia{{Mensagens: []string{msg}}}
		if err := s.mudarStatus(ctx, rec, StatusErro); err != nil {
			return nil, err
		}
		return rec, fmt.Errorf("transmit lote %s: %w", rec.NumeroLote, envioErr)
	}

	agora := time.Now()
	rec.Protocolo = &protocolo
	rec.EnviadoEm = &agora
	rec.ErroTransmissao = nil
	rec.Erros = nil
	if err := s.mudarStatus(ctx, rec, StatusEnviado); err != nil {
		return nil, err
	}

	if err := s.marcarGuiasEnviadas(ctx, id); err != nil {
		return nil, err
	}
	log.Info().
		Str("lote_id", rec.ID.String()).
		Str("protocolo", protocolo).
		Msg("lote transmitted")
	return rec, nil
}

// RegistrarProcessamento records the operator's processing of a
// transmitted batch.
func (s *Service) RegistrarProcessamento(ctx context.Context, id uuid.UUID) (*LoteRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	agora := time.Now()
	rec.ProcessadoEm = &agora
	if err := s.mudarStatus(ctx, rec, StatusProcessado); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID fetches a batch by id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*LoteRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists batches with optional filters.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*LoteRecord, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Membros lists the claims belonging to a batch.
func (s *Service) Membros(ctx context.Context, id uuid.UUID) ([]*guia.GuiaRecord, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.guias.ListByLote(ctx, id)
}

func (s *Service) mudarStatus(ctx context.Context, rec *LoteRecord, para StatusLote) error {
	if !TransicaoValida(rec.Status, para) {
		return &StatusTransitionError{De: rec.Status, Para: para}
	}
	rec.Status = para
	return s.repo.Update(ctx, rec)
}

func (s *Service) marcarGuiasEnviadas(ctx context.Context, loteID uuid.UUID) error {
	membros, err := s.guias.ListByLote(ctx, loteID)
	if err != nil {
		return err
	}
	for _, g := range membros {
		if !guia.TransicaoValida(g.Status, guia.StatusEnviada) {
			continue
		}
		g.Status = guia.StatusEnviada
		if err := s.guias.Update(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func codigoPrestador(membros []*guia.GuiaRecord) string {
	for _, g := range membros {
		switch {
		case g.Payload.Consulta != nil:
			return g.Payload.Consulta.Contratado.CodigoNaOperadora
		case g.Payload.SADT != nil:
			return g.Payload.SADT.Executante.CodigoNaOperadora
		}
	}
	return ""
}
