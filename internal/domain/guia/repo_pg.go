package guia

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

// RepoPG is the PostgreSQL claim repository. Queries run against the
// clinic schema set on the request connection.
type RepoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG creates a PostgreSQL-backed claim repository.
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

const guiaCols = `id, tipo, numero_guia_prestador, registro_ans, nome_operadora,
	patient_id, appointment_id, status, valor_total, valor_glosado, valor_pago,
	xml_gerado, lote_id, payload, version_id, created_at, updated_at`

func (r *RepoPG) Create(ctx context.Context, rec *GuiaRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal guia payload: %w", err)
	}
	rec.VersionID = 1
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO guia (id, tipo, numero_guia_prestador, registro_ans, nome_operadora,
			patient_id, appointment_id, status, valor_total, valor_glosado, valor_pago,
			xml_gerado, lote_id, payload, version_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		rec.ID, rec.Tipo, rec.NumeroGuiaPrestador, rec.RegistroANS, rec.NomeOperadora,
		rec.PatientID, rec.AppointmentID, rec.Status, rec.ValorTotal, rec.ValorGlosado,
		rec.ValorPago, rec.XMLGerado, rec.LoteID, payload, rec.VersionID,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert guia: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*GuiaRecord, error) {
	row := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM guia WHERE id = $1`, guiaCols), id)
	rec, err := scanGuia(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get guia: %w", err)
	}
	return rec, nil
}

func (r *RepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*GuiaRecord, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	n := 0
	add := func(cond string, val any) {
		n++
		where += fmt.Sprintf(" AND %s$%d", cond, n)
		args = append(args, val)
	}
	if f.PatientID != nil {
		add("patient_id = ", *f.PatientID)
	}
	if f.Status != nil {
		add("status = ", *f.Status)
	}
	if f.RegistroANS != "" {
		add("registro_ans = ", f.RegistroANS)
	}
	if f.Tipo != nil {
		add("tipo = ", *f.Tipo)
	}
	if f.SemLote {
		where += " AND lote_id IS NULL"
	}

	var total int
	err := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM guia %s`, where), args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count guias: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM guia %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		guiaCols, where, n+1, n+2)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list guias: %w", err)
	}
	defer rows.Close()

	var out []*GuiaRecord
	for rows.Next() {
		rec, err := scanGuia(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan guia: %w", err)
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *RepoPG) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*GuiaRecord, error) {
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM guia WHERE id = ANY($1) ORDER BY numero_guia_prestador`, guiaCols), ids)
	if err != nil {
		return nil, fmt.Errorf("list guias by id: %w", err)
	}
	defer rows.Close()

	var out []*GuiaRecord
	for rows.Next() {
		rec, err := scanGuia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guia: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RepoPG) ListByLote(ctx context.Context, loteID uuid.UUID) ([]*GuiaRecord, error) {
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM guia WHERE lote_id = $1 ORDER BY numero_guia_prestador`, guiaCols), loteID)
	if err != nil {
		return nil, fmt.Errorf("list guias by lote: %w", err)
	}
	defer rows.Close()

	var out []*GuiaRecord
	for rows.Next() {
		rec, err := scanGuia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guia: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RepoPG) Update(ctx context.Context, rec *GuiaRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal guia payload: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE guia SET
			status = $1, valor_total = $2, valor_glosado = $3, valor_pago = $4,
			xml_gerado = $5, lote_id = $6, payload = $7,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $8 AND version_id = $9`,
		rec.Status, rec.ValorTotal, rec.ValorGlosado, rec.ValorPago,
		rec.XMLGerado, rec.LoteID, payload, rec.ID, rec.VersionID)
	if err != nil {
		return fmt.Errorf("update guia: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentModification
	}
	rec.VersionID++
	return nil
}

func (r *RepoPG) NextNumeroGuia(ctx context.Context) (string, error) {
	var n int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT nextval('guia_numero_seq')`).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next guia number: %w", err)
	}
	return fmt.Sprintf("%08d", n), nil
}

func (r *RepoPG) VincularLote(ctx context.Context, ids []uuid.UUID, loteID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE guia SET lote_id = $1, version_id = version_id + 1, updated_at = NOW()
		WHERE id = ANY($2) AND lote_id IS NULL`, loteID, ids)
	if err != nil {
		return 0, fmt.Errorf("vincular lote: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RepoPG) DesvincularLote(ctx context.Context, ids []uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE guia SET lote_id = NULL, version_id = version_id + 1, updated_at = NOW()
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("desvincular lote: %w", err)
	}
	return nil
}

func scanGuia(row pgx.Row) (*GuiaRecord, error) {
	var rec GuiaRecord
	var payload []byte
	err := row.Scan(
		&rec.ID, &rec.Tipo, &rec.NumeroGuiaPrestador, &rec.RegistroANS, &rec.NomeOperadora,
		&rec.PatientID, &rec.AppointmentID, &rec.Status, &rec.ValorTotal, &rec.ValorGlosado,
		&rec.ValorPago, &rec.XMLGerado, &rec.LoteID, &payload, &rec.VersionID,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &rec.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal guia payload: %w", err)
	}
	return &rec, nil
}
