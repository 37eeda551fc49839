// Package certstore keeps each clinic's A1 signing certificate (PFX and
// password) encrypted at rest and hands the decrypted material out
// transiently for a single signing call.
package certstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"software.sslmate.com/src/go-pkcs12"

	"github.com/saudetech/tiss/internal/platform/fault"
	"github.com/saudetech/tiss/internal/platform/secrets"
)

// Certificate is the persisted record. PFX bytes and the password are
// stored encrypted; plaintext never touches the table.
type Certificate struct {
	ID             uuid.UUID `json:"id"`
	Titular        string    `json:"titular"`
	NaoAntes       time.Time `json:"nao_antes"`
	NaoDepois      time.Time `json:"nao_depois"`
	PFXEncrypted   []byte    `json:"-"`
	SenhaEncrypted string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store persists one certificate per clinic schema.
type Store interface {
	Get(ctx context.Context) (*Certificate, error)
	Save(ctx context.Context, cert *Certificate) error
	Delete(ctx context.Context) error
}

// Material is the transient decrypted bundle a signing call consumes.
// Callers must not retain it past the call.
type Material struct {
	PFX   []byte
	Senha string
}

// Provider resolves and decrypts the signing certificate for the
// current clinic.
type Provider struct {
	store Store
	enc   *secrets.Encryptor
}

func NewProvider(store Store, enc *secrets.Encryptor) *Provider {
	return &Provider{store: store, enc: enc}
}

const errCertificado = "Certificado digital não encontrado ou inválido"

// GetCertificateForSigning fetches, decrypts and validates the clinic's
// certificate. Any absence or decode failure comes back as the same
// configuration fault so the sender reports a certificate error rather
// than a transport one.
func (p *Provider) GetCertificateForSigning(ctx context.Context) (*Material, error) {
	cert, err := p.store.Get(ctx)
	if err != nil || cert == nil {
		return nil, fault.Wrap(fault.Configuration, err, errCertificado)
	}

	pfx, err := p.enc.DecryptBytes(cert.PFXEncrypted)
	if err != nil {
		return nil, fault.Wrap(fault.Configuration, err, errCertificado)
	}
	senha, err := p.enc.DecryptString(cert.SenhaEncrypted)
	if err != nil {
		return nil, fault.Wrap(fault.Configuration, err, errCertificado)
	}

	if _, _, _, err := pkcs12.DecodeChain(pfx, senha); err != nil {
		return nil, fault.Wrap(fault.Configuration, err, errCertificado)
	}

	return &Material{PFX: pfx, Senha: senha}, nil
}

// Upload validates the incoming PFX against its password, extracts the
// holder metadata and stores everything encrypted.
func (p *Provider) Upload(ctx context.Context, pfx []byte, senha string) (*Certificate, error) {
	_, leaf, _, err := pkcs12.DecodeChain(pfx, senha)
	if err != nil {
		return nil, fault.Wrap(fault.Configuration, err, errCertificado)
	}

	encPFX, err := p.enc.EncryptBytes(pfx)
	if err != nil {
		return nil, err
	}
	encSenha, err := p.enc.EncryptString(senha)
	if err != nil {
		return nil, err
	}

	cert := &Certificate{
		Titular:        leaf.Subject.CommonName,
		NaoAntes:       leaf.NotBefore,
		NaoDepois:      leaf.NotAfter,
		PFXEncrypted:   encPFX,
		SenhaEncrypted: encSenha,
	}
	if err := p.store.Save(ctx, cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// Metadata returns the stored certificate without decrypting the
// secret columns.
func (p *Provider) Metadata(ctx context.Context) (*Certificate, error) {
	cert, err := p.store.Get(ctx)
	if err != nil || cert == nil {
		return nil, fault.Wrap(fault.Configuration, err, errCertificado)
	}
	return cert, nil
}
