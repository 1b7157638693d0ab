package lote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
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

// RepoPG is the PostgreSQL batch repository.
type RepoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG creates a PostgreSQL-backed batch repository.
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

const loteCols = `id, numero_lote, registro_ans, status, quantidade_guias, valor_total,
	xml_gerado, protocolo, erro_transmissao, erros, enviado_em, processado_em,
	version_id, created_at, updated_at`

func (r *RepoPG) Create(ctx context.Context, rec *LoteRecord) error {
	rec.VersionID = 1
	erros, err := json.Marshal(rec.Erros)
	if err != nil {
		return fmt.Errorf("marshal lote erros: %w", err)
	}
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lote (id, numero_lote, registro_ans, status, quantidade_guias,
			valor_total, xml_gerado, protocolo, erro_transmissao, erros, enviado_em,
			processado_em, version_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		rec.ID, rec.NumeroLote, rec.RegistroANS, rec.Status, rec.QuantidadeGuias,
		rec.ValorTotal, rec.XMLGerado, rec.Protocolo, rec.ErroTransmissao, erros,
		rec.EnviadoEm, rec.ProcessadoEm, rec.VersionID,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lote: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LoteRecord, error) {
	row := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM lote WHERE id = $1`, loteCols), id)
	rec, err := scanLote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lote: %w", err)
	}
	return rec, nil
}

func (r *RepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*LoteRecord, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	n := 0
	if f.Status != nil {
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, *f.Status)
	}
	if f.RegistroANS != "" {
		n++
		where += fmt.Sprintf(" AND registro_ans = $%d", n)
		args = append(args, f.RegistroANS)
	}

	var total int
	err := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM lote %s`, where), args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count lotes: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM lote %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		loteCols, where, n+1, n+2)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list lotes: %w", err)
	}
	defer rows.Close()

	var out []*LoteRecord
	for rows.Next() {
		rec, err := scanLote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lote: %w", err)
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *RepoPG) Update(ctx context.Context, rec *LoteRecord) error {
	erros, err := json.Marshal(rec.Erros)
	if err != nil {
		return fmt.Errorf("marshal lote erros: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lote SET
			status = $1, quantidade_guias = $2, valor_total = $3, xml_gerado = $4,
			protocolo = $5, erro_transmissao = $6, erros = $7, enviado_em = $8,
			processado_em = $9, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $10 AND version_id = $11`,
		rec.Status, rec.QuantidadeGuias, rec.ValorTotal, rec.XMLGerado,
		rec.Protocolo, rec.ErroTransmissao, erros, rec.EnviadoEm, rec.ProcessadoEm,
		rec.ID, rec.VersionID)
	if err != nil {
		return fmt.Errorf("update lote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentModification
	}
	rec.VersionID++
	return nil
}

func (r *RepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM lote WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepoPG) NextNumeroLote(ctx context.Context) (string, error) {
	var n int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT nextval('lote_numero_seq')`).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next lote number: %w", err)
	}
	return fmt.Sprintf("%06d", n), nil
}

func scanLote(row pgx.Row) (*LoteRecord, error) {
	var rec LoteRecord
	var erros []byte
	err := row.Scan(
		&rec.ID, &rec.NumeroLote, &rec.RegistroANS, &rec.Status, &rec.QuantidadeGuias,
		&rec.ValorTotal, &rec.XMLGerado, &rec.Protocolo, &rec.ErroTransmissao, &erros,
		&rec.EnviadoEm, &rec.ProcessadoEm, &rec.VersionID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(erros) > 0 {
		if err := json.Unmarshal(erros, &rec.Erros); err != nil {
			return nil, fmt.Errorf("unmarshal lote erros: %w", err)
		}
	}
	return &rec, nil
}
