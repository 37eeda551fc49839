package operadora

import (
	"context"
	"errors"

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

const opCols = `id, nome, registro_ans, codigo_prestador, webservice, created_at, updated_at`

func (r *repoPG) scanOperadora(row pgx.Row) (*Operadora, error) {
	var o Operadora
	err := row.Scan(&o.ID, &o.Nome, &o.RegistroANS, &o.CodigoPrestador, &o.WebService,
		&o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *Operadora) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO operadoras (id, nome, registro_ans, codigo_prestador, webservice)
		VALUES ($1,$2,$3,$4,$5)`,
		o.ID, o.Nome, o.RegistroANS, o.CodigoPrestador, o.WebService)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Operadora, error) {
	return r.scanOperadora(r.conn(ctx).QueryRow(ctx,
		`SELECT `+opCols+` FROM operadoras WHERE id = $1`, id))
}

func (r *repoPG) GetByRegistroANS(ctx context.Context, registroANS string) (*Operadora, error) {
	o, err := r.scanOperadora(r.conn(ctx).QueryRow(ctx,
		`SELECT `+opCols+` FROM operadoras WHERE registro_ans = $1`, registroANS))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repoPG) Update(ctx context.Context, o *Operadora) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE operadoras SET nome=$2, registro_ans=$3, codigo_prestador=$4,
			webservice=$5, updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.Nome, o.RegistroANS, o.CodigoPrestador, o.WebService)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM operadoras WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Operadora, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM operadoras`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+opCols+` FROM operadoras ORDER BY nome LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Operadora
	for rows.Next() {
		o, err := r.scanOperadora(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, nil
}
