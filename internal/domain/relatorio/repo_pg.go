package relatorio

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidaplus/tiss/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RepoPG aggregates reports straight in PostgreSQL.
type RepoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG creates a PostgreSQL-backed report repository.
func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if conn := db.ConnFromContext(ctx); conn != nil {
		return conn
	}
	return r.pool
}

func (r *RepoPG) PorStatus(ctx context.Context, de, ate time.Time) ([]StatusResumo, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(valor_total), 0)
		FROM guia
		WHERE created_at >= $1 AND created_at < $2 + INTERVAL '1 day'
		GROUP BY status
		ORDER BY status`, de, ate)
	if err != nil {
		return nil, fmt.Errorf("report by status: %w", err)
	}
	defer rows.Close()

	var out []StatusResumo
	for rows.Next() {
		var s StatusResumo
		if err := rows.Scan(&s.Status, &s.Quantidade, &s.ValorTotal); err != nil {
			return nil, fmt.Errorf("scan status row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *RepoPG) PorTipo(ctx context.Context, de, ate time.Time) ([]TipoResumo, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT tipo, COUNT(*), COALESCE(SUM(valor_total), 0)
		FROM guia
		WHERE created_at >= $1 AND created_at < $2 + INTERVAL '1 day'
		GROUP BY tipo
		ORDER BY tipo`, de, ate)
	if err != nil {
		return nil, fmt.Errorf("report by type: %w", err)
	}
	defer rows.Close()

	var out []TipoResumo
	for rows.Next() {
		var t TipoResumo
		if err := rows.Scan(&t.Tipo, &t.Quantidade, &t.ValorTotal); err != nil {
			return nil, fmt.Errorf("scan type row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *RepoPG) PorOperadora(ctx context.Context, de, ate time.Time) ([]OperadoraResumo, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT registro_ans,
		       MAX(nome_operadora),
		       COUNT(*),
		       COALESCE(SUM(valor_total), 0),
		       COALESCE(SUM(valor_glosado), 0),
		       COALESCE(SUM(valor_pago), 0)
		FROM guia
		WHERE status <> 'rascunho'
		  AND created_at >= $1 AND created_at < $2 + INTERVAL '1 day'
		GROUP BY registro_ans
		ORDER BY 4 DESC`, de, ate)
	if err != nil {
		return nil, fmt.Errorf("report by operator: %w", err)
	}
	defer rows.Close()

	var out []OperadoraResumo
	for rows.Next() {
		var o OperadoraResumo
		if err := rows.Scan(&o.RegistroANS, &o.NomeOperadora, &o.Quantidade,
			&o.ValorTotal, &o.ValorGlosado, &o.ValorPago); err != nil {
			return nil, fmt.Errorf("scan operator row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *RepoPG) Financeiro(ctx context.Context, de, ate time.Time) (FinanceiroPeriodo, error) {
	var fin FinanceiroPeriodo
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(valor_total), 0),
		       COALESCE(SUM(valor_glosado), 0),
		       COALESCE(SUM(valor_pago), 0)
		FROM guia
		WHERE status <> 'rascunho'
		  AND created_at >= $1 AND created_at < $2 + INTERVAL '1 day'`, de, ate,
	).Scan(&fin.ValorFaturado, &fin.ValorGlosado, &fin.ValorPago)
	if err != nil {
		return FinanceiroPeriodo{}, fmt.Errorf("report financials: %w", err)
	}
	return fin, nil
}

func (r *RepoPG) MotivosGlosa(ctx context.Context, de, ate time.Time) ([]MotivoGlosa, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT g.codigo_glosa,
		       COUNT(*),
		       COALESCE(SUM(g.valor_glosado + COALESCE(rec.recuperado, 0)), 0),
		       COALESCE(SUM(COALESCE(rec.recuperado, 0)), 0)
		FROM glosa g
		LEFT JOIN (
			SELECT glosa_id, SUM(valor_recuperado) AS recuperado
			FROM recurso
			GROUP BY glosa_id
		) rec ON rec.glosa_id = g.id
		WHERE g.data_glosa >= $1 AND g.data_glosa < $2 + INTERVAL '1 day'
		GROUP BY g.codigo_glosa
		ORDER BY 3 DESC`, de, ate)
	if err != nil {
		return nil, fmt.Errorf("report glosa reasons: %w", err)
	}
	defer rows.Close()

	var out []MotivoGlosa
	for rows.Next() {
		var m MotivoGlosa
		if err := rows.Scan(&m.CodigoGlosa, &m.Ocorrencias, &m.ValorGlosado, &m.ValorRecuperado); err != nil {
			return nil, fmt.Errorf("scan glosa reason row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
