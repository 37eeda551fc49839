package guia

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/saudetech/tiss/internal/platform/fault"
	"github.com/saudetech/tiss/internal/platform/tiss"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, g *Guia) error {
	if g.NumeroGuia == "" {
		return fault.New(fault.Validation, "Número da guia é obrigatório")
	}
	if g.Tipo != tiss.TipoConsulta && g.Tipo != tiss.TipoSADT {
		return fault.Newf(fault.Validation, "Tipo de guia inválido: %s", g.Tipo)
	}
	if g.Status == "" {
		g.Status = StatusRascunho
	}
	tg := tiss.Guia{Procedimentos: g.Procedimentos}
	tiss.CalculateTotals(&tg)
	g.Procedimentos = tg.Procedimentos
	g.ValorTotal = tg.ValorTotal
	return s.repo.Create(ctx, g)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Guia, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, g *Guia) error {
	current, err := s.repo.GetByID(ctx, g.ID)
	if err != nil {
		return err
	}
	if !current.Status.ElegivelParaLote() {
		return fault.Newf(fault.State, "Guia %s não pode ser editada (status %s)", current.NumeroGuia, current.Status)
	}
	if current.LoteID != nil {
		return fault.Newf(fault.State, "Guia %s pertence a um lote e não pode ser editada", current.NumeroGuia)
	}
	if g.Status == "" {
		g.Status = current.Status
	}
	tg := tiss.Guia{Procedimentos: g.Procedimentos}
	tiss.CalculateTotals(&tg)
	g.Procedimentos = tg.Procedimentos
	g.ValorTotal = tg.ValorTotal
	return s.repo.Update(ctx, g)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !g.Status.ElegivelParaLote() {
		return fault.Newf(fault.State, "Guia %s não pode ser excluída (status %s)", g.NumeroGuia, g.Status)
	}
	if g.LoteID != nil {
		return fault.Newf(fault.State, "Guia %s pertence a um lote e não pode ser excluída", g.NumeroGuia)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]*Guia, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// Validate runs the structural TISS validation and, when the guia is
// clean, promotes it from rascunho to validada. The error list is
// returned either way so the UI can show every field problem at once.
func (s *Service) Validate(ctx context.Context, id uuid.UUID) ([]string, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	errs := tiss.ValidateGuia(g.ToTISS())
	if len(errs) > 0 {
		return errs, nil
	}
	if g.Status == StatusRascunho {
		g.Status = StatusValidada
		if err := s.repo.Update(ctx, g); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// ValidationSummary joins field errors into the single message the
// result envelope carries.
func ValidationSummary(errs []string) string {
	return strings.Join(errs, "; ")
}
