package recurso

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== Glosa Repository ===========

type glosaRepoPG struct{ pool *pgxpool.Pool }

func NewGlosaRepoPG(pool *pgxpool.Pool) GlosaRepository { return &glosaRepoPG{pool: pool} }

const glosaCols = `id, guia_id, numero_guia, registro_ans, protocolo_glosa, status,
	itens, valor_glosado, valor_aceito, prazo_recurso, created_at, updated_at`

func (r *glosaRepoPG) scanGlosa(row pgx.Row) (*Glosa, error) {
	var g Glosa
	err := row.Scan(&g.ID, &g.GuiaID, &g.NumeroGuia, &g.RegistroANS, &g.ProtocoloGlosa, &g.Status,
		&g.Itens, &g.ValorGlosado, &g.ValorAceito, &g.PrazoRecurso, &g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

func (r *glosaRepoPG) Create(ctx context.Context, g *Glosa) error {
	g.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO glosas (id, guia_id, numero_guia, registro_ans, protocolo_glosa, status,
			itens, valor_glosado, valor_aceito, prazo_recurso)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		g.ID, g.GuiaID, g.NumeroGuia, g.RegistroANS, g.ProtocoloGlosa, g.Status,
		g.Itens, g.ValorGlosado, g.ValorAceito, g.PrazoRecurso)
	return err
}

func (r *glosaRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Glosa, error) {
	return r.scanGlosa(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+glosaCols+` FROM glosas WHERE id = $1`, id))
}

func (r *glosaRepoPG) Update(ctx context.Context, g *Glosa) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE glosas SET status=$2, valor_aceito=$3, updated_at=NOW()
		WHERE id = $1`,
		g.ID, g.Status, g.ValorAceito)
	return err
}

func (r *glosaRepoPG) List(ctx context.Context, status GlosaStatus, limit, offset int) ([]*Glosa, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if status != "" {
		if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM glosas WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+glosaCols+` FROM glosas WHERE status = $1 ORDER BY prazo_recurso LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM glosas`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+glosaCols+` FROM glosas ORDER BY prazo_recurso LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Glosa
	for rows.Next() {
		g, err := r.scanGlosa(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, g)
	}
	return items, total, nil
}

// =========== Recurso Repository ===========

type recursoRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &recursoRepoPG{pool: pool} }

const recursoCols = `id, glosa_id, guia_id, registro_ans, status, itens, justificativa_geral,
	valor_recursado, valor_aceito, protocolo, xml_content, xml_resposta, erro, data_envio,
	created_at, updated_at`

func (r *recursoRepoPG) scanRecurso(row pgx.Row) (*Recurso, error) {
	var rec Recurso
	err := row.Scan(&rec.ID, &rec.GlosaID, &rec.GuiaID, &rec.RegistroANS, &rec.Status,
		&rec.Itens, &rec.JustificativaGeral,
		&rec.ValorRecursado, &rec.ValorAceito, &rec.Protocolo, &rec.XMLContent, &rec.XMLResposta,
		&rec.Erro, &rec.DataEnvio, &rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

func (r *recursoRepoPG) Create(ctx context.Context, rec *Recurso) error {
	rec.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO recursos (id, glosa_id, guia_id, registro_ans, status, itens,
			justificativa_geral, valor_recursado)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.ID, rec.GlosaID, rec.GuiaID, rec.RegistroANS, rec.Status, rec.Itens,
		rec.JustificativaGeral, rec.ValorRecursado)
	return err
}

func (r *recursoRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Recurso, error) {
	return r.scanRecurso(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+recursoCols+` FROM recursos WHERE id = $1`, id))
}

func (r *recursoRepoPG) Update(ctx context.Context, rec *Recurso) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE recursos SET status=$2, valor_aceito=$3, protocolo=$4,
			xml_content=$5, xml_resposta=$6, erro=$7, data_envio=$8, updated_at=NOW()
		WHERE id = $1`,
		rec.ID, rec.Status, rec.ValorAceito, rec.Protocolo,
		rec.XMLContent, rec.XMLResposta, rec.Erro, rec.DataEnvio)
	return err
}

func (r *recursoRepoPG) List(ctx context.Context, status RecursoStatus, limit, offset int) ([]*Recurso, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if status != "" {
		if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM recursos WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+recursoCols+` FROM recursos WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM recursos`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+recursoCols+` FROM recursos ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Recurso
	for rows.Next() {
		rec, err := r.scanRecurso(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, nil
}

func (r *recursoRepoPG) ListByGlosa(ctx context.Context, glosaID uuid.UUID) ([]*Recurso, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+recursoCols+` FROM recursos WHERE glosa_id = $1 ORDER BY created_at DESC`, glosaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Recurso
	for rows.Next() {
		rec, err := r.scanRecurso(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}
