package guia

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saudetech/tiss/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
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

const guiaCols = `id, numero_guia, tipo, status, registro_ans, lote_id, data_atendimento,
	numero_carteira, nome_beneficiario,
	codigo_prestador, nome_contratado, cnes,
	nome_profissional, conselho_profissional, numero_conselho, uf_conselho, cbos,
	tipo_consulta, carater_atendimento, indicacao_clinica, observacao,
	procedimentos, valor_total, created_at, updated_at`

func (r *repoPG) scanGuia(row pgx.Row) (*Guia, error) {
	var g Guia
	err := row.Scan(&g.ID, &g.NumeroGuia, &g.Tipo, &g.Status, &g.RegistroANS, &g.LoteID, &g.DataAtendimento,
		&g.NumeroCarteira, &g.NomeBeneficiario,
		&g.CodigoPrestador, &g.NomeContratado, &g.CNES,
		&g.NomeProfissional, &g.ConselhoProfissional, &g.NumeroConselho, &g.UFConselho, &g.CBOS,
		&g.TipoConsulta, &g.CaraterAtendimento, &g.IndicacaoClinica, &g.Observacao,
		&g.Procedimentos, &g.ValorTotal, &g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

func (r *repoPG) Create(ctx context.Context, g *Guia) error {
	g.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO guias (id, numero_guia, tipo, status, registro_ans, lote_id, data_atendimento,
			numero_carteira, nome_beneficiario,
			codigo_prestador, nome_contratado, cnes,
			nome_profissional, conselho_profissional, numero_conselho, uf_conselho, cbos,
			tipo_consulta, carater_atendimento, indicacao_clinica, observacao,
			procedimentos, valor_total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		g.ID, g.NumeroGuia, g.Tipo, g.Status, g.RegistroANS, g.LoteID, g.DataAtendimento,
		g.NumeroCarteira, g.NomeBeneficiario,
		g.CodigoPrestador, g.NomeContratado, g.CNES,
		g.NomeProfissional, g.ConselhoProfissional, g.NumeroConselho, g.UFConselho, g.CBOS,
		g.TipoConsulta, g.CaraterAtendimento, g.IndicacaoClinica, g.Observacao,
		g.Procedimentos, g.ValorTotal)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Guia, error) {
	return r.scanGuia(r.conn(ctx).QueryRow(ctx, `SELECT `+guiaCols+` FROM guias WHERE id = $1`, id))
}

func (r *repoPG) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Guia, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+guiaCols+` FROM guias WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Guia
	for rows.Next() {
		g, err := r.scanGuia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, nil
}

func (r *repoPG) Update(ctx context.Context, g *Guia) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE guias SET numero_guia=$2, tipo=$3, status=$4, registro_ans=$5, data_atendimento=$6,
			numero_carteira=$7, nome_beneficiario=$8,
			codigo_prestador=$9, nome_contratado=$10, cnes=$11,
			nome_profissional=$12, conselho_profissional=$13, numero_conselho=$14, uf_conselho=$15, cbos=$16,
			tipo_consulta=$17, carater_atendimento=$18, indicacao_clinica=$19, observacao=$20,
			procedimentos=$21, valor_total=$22, updated_at=NOW()
		WHERE id = $1`,
		g.ID, g.NumeroGuia, g.Tipo, g.Status, g.RegistroANS, g.DataAtendimento,
		g.NumeroCarteira, g.NomeBeneficiario,
		g.CodigoPrestador, g.NomeContratado, g.CNES,
		g.NomeProfissional, g.ConselhoProfissional, g.NumeroConselho, g.UFConselho, g.CBOS,
		g.TipoConsulta, g.CaraterAtendimento, g.IndicacaoClinica, g.Observacao,
		g.Procedimentos, g.ValorTotal)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM guias WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, status Status, limit, offset int) ([]*Guia, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if status != "" {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM guias WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+guiaCols+` FROM guias WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM guias`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+guiaCols+` FROM guias ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Guia
	for rows.Next() {
		g, err := r.scanGuia(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, g)
	}
	return items, total, nil
}

func (r *repoPG) ListByLote(ctx context.Context, loteID uuid.UUID) ([]*Guia, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+guiaCols+` FROM guias WHERE lote_id = $1 ORDER BY numero_guia`, loteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Guia
	for rows.Next() {
		g, err := r.scanGuia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, nil
}

func (r *repoPG) AssignLote(ctx context.Context, loteID uuid.UUID, guiaIDs []uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE guias SET lote_id = $1, updated_at = NOW() WHERE id = ANY($2)`, loteID, guiaIDs)
	return err
}

func (r *repoPG) ReleaseLote(ctx context.Context, loteID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE guias SET lote_id = NULL, updated_at = NOW() WHERE lote_id = $1`, loteID)
	return err
}

func (r *repoPG) UpdateStatusByLote(ctx context.Context, loteID uuid.UUID, status Status) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE guias SET status = $1, updated_at = NOW() WHERE lote_id = $2`, status, loteID)
	return err
}
