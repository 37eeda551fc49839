package operadora

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/saudetech/tiss/internal/platform/fault"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var registroANSPattern = regexp.MustCompile(`^\d{1,6}$`)

var validAuthTypes = map[string]bool{
	AuthCertificate: true, AuthBasic: true, AuthToken: true,
}

func (s *Service) validate(o *Operadora) error {
	if o.Nome == "" {
		return fault.New(fault.Validation, "Nome da operadora é obrigatório")
	}
	if o.RegistroANS == "" {
		return fault.New(fault.Validation, "Registro ANS é obrigatório")
	}
	if !registroANSPattern.MatchString(o.RegistroANS) {
		return fault.Newf(fault.Validation, "Registro ANS inválido: %s (esperado até 6 dígitos)", o.RegistroANS)
	}
	if o.WebService != nil {
		ws := o.WebService
		if ws.URL == "" {
			return fault.New(fault.Validation, "URL do webservice é obrigatória")
		}
		if !validAuthTypes[ws.TipoAuth] {
			return fault.Newf(fault.Validation, "Tipo de autenticação inválido: %s", ws.TipoAuth)
		}
		if ws.TipoAuth == AuthBasic && (ws.Usuario == "" || ws.Senha == "") {
			return fault.New(fault.Validation, "Autenticação básica exige usuário e senha")
		}
		if ws.TipoAuth == AuthToken && ws.Token == "" {
			return fault.New(fault.Validation, "Autenticação por token exige o token")
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, o *Operadora) error {
	if err := s.validate(o); err != nil {
		return err
	}
	existing, err := s.repo.GetByRegistroANS(ctx, o.RegistroANS)
	if err != nil {
		return err
	}
	if existing != nil {
		return fault.Newf(fault.Validation, "Já existe uma operadora com registro ANS %s", o.RegistroANS)
	}
	return s.repo.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Operadora, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByRegistroANS returns nil without error when no operadora matches.
// The lote sender turns that into a configuration fault.
func (s *Service) GetByRegistroANS(ctx context.Context, registroANS string) (*Operadora, error) {
	return s.repo.GetByRegistroANS(ctx, registroANS)
}

func (s *Service) Update(ctx context.Context, o *Operadora) error {
	if err := s.validate(o); err != nil {
		return err
	}
	existing, err := s.repo.GetByRegistroANS(ctx, o.RegistroANS)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != o.ID {
		return fault.Newf(fault.Validation, "Já existe uma operadora com registro ANS %s", o.RegistroANS)
	}
	return s.repo.Update(ctx, o)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Operadora, int, error) {
	return s.repo.List(ctx, limit, offset)
}
