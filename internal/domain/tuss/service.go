package tuss

import (
	"context"
	"fmt"
	"time"
)

// Service provides TUSS catalog lookup operations.
type Service struct {
	repo Repository
}

// NewService creates a new TUSS catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search searches TUSS codes by query text. Only active, in-validity codes
// are returned unless includeInactive is set.
func (s *Service) Search(ctx context.Context, query string, limit int, includeInactive bool) ([]*CodigoTUSS, error) {
	if query == "" {
		return nil, fmt.Errorf("query parameter is required")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.Search(ctx, query, limit, includeInactive)
}

// GetByCode looks up a single TUSS code. Returns nil when the code does not
// exist.
func (s *Service) GetByCode(ctx context.Context, codigo string) (*CodigoTUSS, error) {
	if codigo == "" {
		return nil, fmt.Errorf("codigo is required")
	}
	return s.repo.GetByCode(ctx, codigo)
}

// GetByCodeAt looks up a TUSS code and checks that it is active and within
// its validity window at the given date. Returns nil when the code does not
// exist or is not usable at that date.
func (s *Service) GetByCodeAt(ctx context.Context, codigo string, em time.Time) (*CodigoTUSS, error) {
	c, err := s.GetByCode(ctx, codigo)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.Ativo || !c.VigenteEm(em) {
		return nil, nil
	}
	return c, nil
}
