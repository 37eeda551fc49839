package lote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saudetech/tiss/internal/domain/guia"
	"github.com/saudetech/tiss/internal/domain/operadora"
	"github.com/saudetech/tiss/internal/platform/db"
	"github.com/saudetech/tiss/internal/platform/fault"
	"github.com/saudetech/tiss/internal/platform/tiss"
)

// MaxGuiasPorLote is the ANS ceiling for one batch.
const MaxGuiasPorLote = 100

// TxRunner executes fn atomically. Production wiring uses db.RunInTx;
// tests swap in a pass-through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	lotes      Repository
	guias      guia.Repository
	operadoras operadora.Repository
	runInTx    TxRunner
	now        func() time.Time
}

func NewService(lotes Repository, guias guia.Repository, operadoras operadora.Repository) *Service {
	return &Service{
		lotes:      lotes,
		guias:      guias,
		operadoras: operadoras,
		runInTx:    db.RunInTx,
		now:        time.Now,
	}
}

// CreateResult is what a successful createLote returns to the caller.
type CreateResult struct {
	LoteID          uuid.UUID `json:"lote_id"`
	NumeroLote      string    `json:"numero_lote"`
	QuantidadeGuias int       `json:"quantidade_guias"`
	ValorTotal      float64   `json:"valor_total"`
}

// CreateLote validates and assembles a batch. Validation order is
// fixed: presence, batch size, guia existence, single insurer, guia
// eligibility, operadora existence. The read-validate-write runs in
// one transaction so a guia cannot land in two lotes.
func (s *Service) CreateLote(ctx context.Context, registroANS string, guiaIDs []uuid.UUID) (*CreateResult, error) {
	if registroANS == "" {
		return nil, fault.New(fault.Validation, "Registro ANS da operadora é obrigatório")
	}
	if len(guiaIDs) == 0 {
		return nil, fault.New(fault.Validation, "Nenhuma guia selecionada para o lote")
	}
	if len(guiaIDs) > MaxGuiasPorLote {
		return nil, fault.Newf(fault.Validation,
			"O lote não pode conter mais de %d guias (recebidas %d)", MaxGuiasPorLote, len(guiaIDs))
	}

	var result *CreateResult
	err := s.runInTx(ctx, func(ctx context.Context) error {
		guias, err := s.guias.GetByIDs(ctx, guiaIDs)
		if err != nil {
			return err
		}
		if len(guias) != len(guiaIDs) {
			return fault.Newf(fault.Validation, "Guia não encontrada: %s", missingID(guiaIDs, guias))
		}

		var valorTotal float64
		for _, g := range guias {
			if g.RegistroANS != registroANS {
				return fault.New(fault.Validation, "Todas as guias do lote devem pertencer à mesma operadora")
			}
			valorTotal += g.ValorTotal
		}
		for _, g := range guias {
			if !g.Status.ElegivelParaLote() {
				return fault.Newf(fault.State,
					"Guia %s não pode ser incluída no lote (status %s)", g.NumeroGuia, g.Status)
			}
			if g.LoteID != nil {
				return fault.Newf(fault.State, "Guia %s já pertence a outro lote", g.NumeroGuia)
			}
		}

		op, err := s.operadoras.GetByRegistroANS(ctx, registroANS)
		if err != nil {
			return err
		}
		if op == nil {
			return fault.Newf(fault.Validation, "Operadora com registro ANS %s não encontrada", registroANS)
		}

		numero, err := s.nextNumeroLote(ctx)
		if err != nil {
			return err
		}

		l := &Lote{
			NumeroLote:      numero,
			RegistroANS:     registroANS,
			Status:          StatusRascunho,
			QuantidadeGuias: len(guias),
			ValorTotal:      tiss.Round2(valorTotal),
		}
		if err := s.lotes.Create(ctx, l); err != nil {
			return err
		}
		if err := s.guias.AssignLote(ctx, l.ID, guiaIDs); err != nil {
			return err
		}

		result = &CreateResult{
			LoteID:          l.ID,
			NumeroLote:      l.NumeroLote,
			QuantidadeGuias: l.QuantidadeGuias,
			ValorTotal:      l.ValorTotal,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// nextNumeroLote yields YYYYMMDD-NNNN where NNNN is the same-day
// sequence, counted inside the create transaction.
func (s *Service) nextNumeroLote(ctx context.Context) (string, error) {
	count, err := s.lotes.CountByDay(ctx, s.now())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", s.now().Format("20060102"), count+1), nil
}

func missingID(wanted []uuid.UUID, found []*guia.Guia) string {
	present := make(map[uuid.UUID]bool, len(found))
	for _, g := range found {
		present[g.ID] = true
	}
	var missing []string
	for _, id := range wanted {
		if !present[id] {
			missing = append(missing, id.String())
		}
	}
	return strings.Join(missing, ", ")
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Lote, error) {
	return s.lotes.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]*Lote, int, error) {
	return s.lotes.List(ctx, status, limit, offset)
}

// DeleteLote removes a pre-send lote and releases its guias in the
// same transaction.
func (s *Service) DeleteLote(ctx context.Context, id uuid.UUID) error {
	return s.runInTx(ctx, func(ctx context.Context) error {
		l, err := s.lotes.GetByID(ctx, id)
		if err != nil {
			return fault.New(fault.Validation, "Lote não encontrado")
		}
		if !l.Status.Deletable() {
			return fault.Newf(fault.State, "Lote com status %s não pode ser excluído", l.Status)
		}
		if err := s.guias.ReleaseLote(ctx, id); err != nil {
			return err
		}
		return s.lotes.Delete(ctx, id)
	})
}

// UpdateStatus applies an idempotent field merge after checking the
// transition table.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) error {
	l, err := s.lotes.GetByID(ctx, id)
	if err != nil {
		return fault.New(fault.Validation, "Lote não encontrado")
	}
	if l.Status != upd.Status && !l.Status.CanTransition(upd.Status) {
		return fault.Newf(fault.State, "Transição de status inválida: %s → %s", l.Status, upd.Status)
	}
	return s.lotes.UpdateStatus(ctx, id, upd)
}

// GerarXML renders the batch into TISS XML, stores it on the lote and
// promotes rascunho to pronto.
func (s *Service) GerarXML(ctx context.Context, id uuid.UUID) (*Lote, error) {
	l, err := s.lotes.GetByID(ctx, id)
	if err != nil {
		return nil, fault.New(fault.Validation, "Lote não encontrado")
	}
	if l.Status != StatusRascunho && l.Status != StatusPronto && l.Status != StatusErro {
		return nil, fault.Newf(fault.State, "Lote com status %s não pode ter o XML gerado", l.Status)
	}

	op, err := s.operadoras.GetByRegistroANS(ctx, l.RegistroANS)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fault.Newf(fault.Configuration, "Operadora com registro ANS %s não encontrada", l.RegistroANS)
	}

	members, err := s.guias.ListByLote(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fault.New(fault.Validation, "Lote não possui guias")
	}

	tissGuias := make([]tiss.Guia, 0, len(members))
	for _, g := range members {
		tissGuias = append(tissGuias, g.ToTISS())
	}

	versao := ""
	if op.WebService != nil {
		versao = op.WebService.VersaoTISS
	}
	sequencial := l.NumeroLote
	if i := strings.IndexByte(sequencial, '-'); i >= 0 {
		sequencial = sequencial[i+1:]
	}
	cab := tiss.Cabecalho{
		TipoTransacao:   tiss.TransacaoEnvioLote,
		Sequencial:      sequencial,
		Timestamp:       s.now(),
		CodigoPrestador: op.CodigoPrestador,
		RegistroANS:     l.RegistroANS,
		Versao:          versao,
	}
	xml := tiss.GenerateLote(cab, l.NumeroLote, tissGuias)

	status := l.Status
	if status == StatusRascunho {
		status = StatusPronto
	}
	if err := s.lotes.SetXML(ctx, id, xml, status); err != nil {
		return nil, err
	}
	return s.lotes.GetByID(ctx, id)
}
