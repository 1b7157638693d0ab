package glosa

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

// RepoPG is the PostgreSQL denial repository.
type RepoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG creates a PostgreSQL-backed denial repository.
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

const glosaCols = `id, guia_id, codigo_glosa, descricao, status, valor_original,
	valor_glosado, valor_aprovado, itens, data_glosa, prazo_recurso,
	version_id, created_at, updated_at`

func (r *RepoPG) CreateGlosa(ctx context.Context, g *Glosa) error {
	itens, err := json.Marshal(g.Itens)
	if err != nil {
		return fmt.Errorf("marshal glosa itens: %w", err)
	}
	g.VersionID = 1
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO glosa (id, guia_id, codigo_glosa, descricao, status, valor_original,
			valor_glosado, valor_aprovado, itens, data_glosa, prazo_recurso, version_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		g.ID, g.GuiaID, g.CodigoGlosa, g.Descricao, g.Status, g.ValorOriginal,
		g.ValorGlosado, g.ValorAprovado, itens, g.DataGlosa, g.PrazoRecurso, g.VersionID,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert glosa: %w", err)
	}
	return nil
}

func (r *RepoPG) GetGlosa(ctx context.Context, id uuid.UUID) (*Glosa, error) {
	row := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM glosa WHERE id = $1`, glosaCols), id)
	g, err := scanGlosa(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get glosa: %w", err)
	}
	return g, nil
}

func (r *RepoPG) ListByGuia(ctx context.Context, guiaID uuid.UUID) ([]*Glosa, error) {
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM glosa WHERE guia_id = $1 ORDER BY data_glosa DESC`, glosaCols), guiaID)
	if err != nil {
		return nil, fmt.Errorf("list glosas: %w", err)
	}
	defer rows.Close()

	var out []*Glosa
	for rows.Next() {
		g, err := scanGlosa(rows)
		if err != nil {
			return nil, fmt.Errorf("scan glosa: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *RepoPG) UpdateGlosa(ctx context.Context, g *Glosa) error {
	itens, err := json.Marshal(g.Itens)
	if err != nil {
		return fmt.Errorf("marshal glosa itens: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE glosa SET
			status = $1, valor_glosado = $2, valor_aprovado = $3, itens = $4,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $5 AND version_id = $6`,
		g.Status, g.ValorGlosado, g.ValorAprovado, itens, g.ID, g.VersionID)
	if err != nil {
		return fmt.Errorf("update glosa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentModification
	}
	g.VersionID++
	return nil
}

const recursoCols = `id, glosa_id, justificativa, status, valor_contestado,
	valor_recuperado, itens, documentos, enviado_em, respondido_em, version_id, created_at, updated_at`

func (r *RepoPG) CreateRecurso(ctx context.Context, rec *Recurso) error {
	rec.VersionID = 1
	itens, err := json.Marshal(rec.Itens)
	if err != nil {
		return fmt.Errorf("marshal recurso itens: %w", err)
	}
	documentos, err := json.Marshal(rec.Documentos)
	if err != nil {
		return fmt.Errorf("marshal recurso documentos: %w", err)
	}
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO recurso (id, glosa_id, justificativa, status, valor_contestado,
			valor_recuperado, itens, documentos, enviado_em, respondido_em, version_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		rec.ID, rec.GlosaID, rec.Justificativa, rec.Status, rec.ValorContestado,
		rec.ValorRecuperado, itens, documentos, rec.EnviadoEm, rec.RespondidoEm, rec.VersionID,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert recurso: %w", err)
	}
	return nil
}

func (r *RepoPG) GetRecurso(ctx context.Context, id uuid.UUID) (*Recurso, error) {
	row := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM recurso WHERE id = $1`, recursoCols), id)
	rec, err := scanRecurso(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecursoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recurso: %w", err)
	}
	return rec, nil
}

func (r *RepoPG) ListRecursos(ctx context.Context, glosaID uuid.UUID) ([]*Recurso, error) {
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM recurso WHERE glosa_id = $1 ORDER BY enviado_em DESC`, recursoCols), glosaID)
	if err != nil {
		return nil, fmt.Errorf("list recursos: %w", err)
	}
	defer rows.Close()

	var out []*Recurso
	for rows.Next() {
		rec, err := scanRecurso(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurso: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RepoPG) UpdateRecurso(ctx context.Context, rec *Recurso) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE recurso SET
			status = $1, valor_recuperado = $2, respondido_em = $3,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $4 AND version_id = $5`,
		rec.Status, rec.ValorRecuperado, rec.RespondidoEm, rec.ID, rec.VersionID)
	if err != nil {
		return fmt.Errorf("update recurso: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentModification
	}
	rec.VersionID++
	return nil
}

func scanGlosa(row pgx.Row) (*Glosa, error) {
	var g Glosa
	var itens []byte
	err := row.Scan(
		&g.ID, &g.GuiaID, &g.CodigoGlosa, &g.Descricao, &g.Status, &g.ValorOriginal,
		&g.ValorGlosado, &g.ValorAprovado, &itens, &g.DataGlosa, &g.PrazoRecurso,
		&g.VersionID, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itens, &g.Itens); err != nil {
		return nil, fmt.Errorf("unmarshal glosa itens: %w", err)
	}
	return &g, nil
}

func scanRecurso(row pgx.Row) (*Recurso, error) {
	var rec Recurso
	var itens, documentos []byte
	err := row.Scan(
		&rec.ID, &rec.GlosaID, &rec.Justificativa, &rec.Status, &rec.ValorContestado,
		&rec.ValorRecuperado, &itens, &documentos, &rec.EnviadoEm, &rec.RespondidoEm,
		&rec.VersionID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(itens) > 0 {
		if err := json.Unmarshal(itens, &rec.Itens); err != nil {
			return nil, fmt.Errorf("unmarshal recurso itens: %w", err)
		}
	}
	if len(documentos) > 0 {
		if err := json.Unmarshal(documentos, &rec.Documentos); err != nil {
			return nil, fmt.Errorf("unmarshal recurso documentos: %w", err)
		}
	}
	return &rec, nil
}
