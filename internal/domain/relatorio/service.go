package relatorio

import (
	"context"
	"fmt"
	"time"
)

// Service builds the billing reports.
type Service struct {
	repo Repository
}

// NewService creates a report service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResumoFaturamento builds the billing summary for a period.
func (s *Service) ResumoFaturamento(ctx context.Context, de, ate time.Time) (*ResumoFaturamento, error) {
	if ate.Before(de) {
		return nil, fmt.Errorf("period end %s precedes start %s",
			ate.Format("2006-01-02"), de.Format("2006-01-02"))
	}
	porStatus, err := s.repo.PorStatus(ctx, de, ate)
	if err != nil {
		return nil, err
	}
	porTipo, err := s.repo.PorTipo(ctx, de, ate)
	if err != nil {
		return nil, err
	}
	porOperadora, err := s.repo.PorOperadora(ctx, de, ate)
	if err != nil {
		return nil, err
	}
	fin, err := s.repo.Financeiro(ctx, de, ate)
	if err != nil {
		return nil, err
	}
	return BuildResumo(Periodo{De: de, Ate: ate}, porStatus, porTipo, porOperadora, fin), nil
}

// AnaliseGlosas builds the denial analysis for a period.
func (s *Service) AnaliseGlosas(ctx context.Context, de, ate time.Time) (*AnaliseGlosas, error) {
	if ate.Before(de) {
		return nil, fmt.Errorf("period end %s precedes start %s",
			ate.Format("2006-01-02"), de.Format("2006-01-02"))
	}
	motivos, err := s.repo.MotivosGlosa(ctx, de, ate)
	if err != nil {
		return nil, err
	}
	return BuildAnalise(Periodo{De: de, Ate: ate}, motivos), nil
}
