package tuss

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidaplus/tiss/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const tussCols = `codigo, descricao, COALESCE(grupo,''), COALESCE(subgrupo,''),
	valor_referencia, vigencia_inicio, vigencia_fim, ativo`

func (r *repoPG) Search(ctx context.Context, query string, limit int, includeInactive bool) ([]*CodigoTUSS, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"

	sql := `SELECT ` + tussCols + `
		 FROM tuss_codigo
		 WHERE (codigo ILIKE $1 OR descricao ILIKE $1)`
	args := []interface{}{pattern}
	if !includeInactive {
		sql += ` AND ativo
		 AND (vigencia_inicio IS NULL OR vigencia_inicio <= $3)
		 AND (vigencia_fim IS NULL OR vigencia_fim >= $3)`
		args = append(args, limit, time.Now())
		sql += ` ORDER BY codigo LIMIT $2`
	} else {
		args = append(args, limit)
		sql += ` ORDER BY codigo LIMIT $2`
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("tuss search: %w", err)
	}
	defer rows.Close()

	var results []*CodigoTUSS
	for rows.Next() {
		var c CodigoTUSS
		if err := rows.Scan(&c.Codigo, &c.Descricao, &c.Grupo, &c.Subgrupo,
			&c.ValorReferencia, &c.VigenciaInicio, &c.VigenciaFim, &c.Ativo); err != nil {
			return nil, err
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

func (r *repoPG) GetByCode(ctx context.Context, codigo string) (*CodigoTUSS, error) {
	var c CodigoTUSS
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+tussCols+` FROM tuss_codigo WHERE codigo = $1`, codigo).
		Scan(&c.Codigo, &c.Descricao, &c.Grupo, &c.Subgrupo,
			&c.ValorReferencia, &c.VigenciaInicio, &c.VigenciaFim, &c.Ativo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tuss get: %w", err)
	}
	return &c, nil
}
