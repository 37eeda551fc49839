package lote

import (
	"context"
	"time"

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

const loteCols = `id, numero_lote, registro_ans, status, quantidade_guias, valor_total,
	xml_content, xml_resposta, protocolo, erro, data_envio, created_at, updated_at`

func (r *repoPG) scanLote(row pgx.Row) (*Lote, error) {
	var l Lote
	err := row.Scan(&l.ID, &l.NumeroLote, &l.RegistroANS, &l.Status, &l.QuantidadeGuias, &l.ValorTotal,
		&l.XMLContent, &l.XMLResposta, &l.Protocolo, &l.Erro, &l.DataEnvio, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *repoPG) Create(ctx context.Context, l *Lote) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lotes (id, numero_lote, registro_ans, status, quantidade_guias, valor_total)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		l.ID, l.NumeroLote, l.RegistroANS, l.Status, l.QuantidadeGuias, l.ValorTotal)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Lote, error) {
	return r.scanLote(r.conn(ctx).QueryRow(ctx, `SELECT `+loteCols+` FROM lotes WHERE id = $1`, id))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lotes WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, status Status, limit, offset int) ([]*Lote, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if status != "" {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lotes WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+loteCols+` FROM lotes WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lotes`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+loteCols+` FROM lotes ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Lote
	for rows.Next() {
		l, err := r.scanLote(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, nil
}

func (r *repoPG) CountByDay(ctx context.Context, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM lotes WHERE created_at >= $1 AND created_at < $2`,
		start, end).Scan(&count)
	return count, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lotes SET status = $2,
			protocolo    = COALESCE($3, protocolo),
			xml_resposta = COALESCE($4, xml_resposta),
			erro         = COALESCE($5, erro),
			data_envio   = COALESCE($6, data_envio),
			updated_at   = NOW()
		WHERE id = $1`,
		id, upd.Status, upd.Protocolo, upd.XMLResposta, upd.Erro, upd.DataEnvio)
	return err
}

func (r *repoPG) SetXML(ctx context.Context, id uuid.UUID, xml string, status Status) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE lotes SET xml_content = $2, status = $3, updated_at = NOW() WHERE id = $1`,
		id, xml, status)
	return err
}
