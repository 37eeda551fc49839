package certstore

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

// storePG keeps one row per clinic schema; the search_path set by the
// clinic middleware scopes every query.
type storePG struct{ pool *pgxpool.Pool }

func NewStorePG(pool *pgxpool.Pool) Store { return &storePG{pool: pool} }

func (s *storePG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

const certCols = `id, titular, nao_antes, nao_depois, pfx_encrypted, senha_encrypted, created_at, updated_at`

func (s *storePG) Get(ctx context.Context) (*Certificate, error) {
	var c Certificate
	err := s.conn(ctx).QueryRow(ctx, `SELECT `+certCols+` FROM certificados ORDER BY updated_at DESC LIMIT 1`).
		Scan(&c.ID, &c.Titular, &c.NaoAntes, &c.NaoDepois, &c.PFXEncrypted, &c.SenhaEncrypted, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *storePG) Save(ctx context.Context, cert *Certificate) error {
	cert.ID = uuid.New()
	// A clinic has a single active certificate; uploading replaces it.
	if _, err := s.conn(ctx).Exec(ctx, `DELETE FROM certificados`); err != nil {
		return err
	}
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO certificados (id, titular, nao_antes, nao_depois, pfx_encrypted, senha_encrypted)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		cert.ID, cert.Titular, cert.NaoAntes, cert.NaoDepois, cert.PFXEncrypted, cert.SenhaEncrypted)
	return err
}

func (s *storePG) Delete(ctx context.Context) error {
	_, err := s.conn(ctx).Exec(ctx, `DELETE FROM certificados`)
	return err
}
