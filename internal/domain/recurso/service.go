package recurso

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saudetech/tiss/internal/domain/operadora"
	"github.com/saudetech/tiss/internal/platform/certstore"
	"github.com/saudetech/tiss/internal/platform/db"
	"github.com/saudetech/tiss/internal/platform/fault"
	"github.com/saudetech/tiss/internal/platform/soap"
	"github.com/saudetech/tiss/internal/platform/tiss"
	"github.com/saudetech/tiss/internal/platform/xmlsign"
)

// TxRunner executes fn atomically, same shape as the lote manager's.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// SignFunc matches xmlsign.Sign.
type SignFunc func(xml string, pfx []byte, password string) (string, error)

type Service struct {
	glosas     GlosaRepository
	recursos   Repository
	operadoras operadora.Repository
	certs      *certstore.Provider
	client     *soap.Client
	sign       SignFunc
	runInTx    TxRunner
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(glosas GlosaRepository, recursos Repository, operadoras operadora.Repository,
	certs *certstore.Provider, client *soap.Client, log zerolog.Logger) *Service {
	return &Service{
		glosas:     glosas,
		recursos:   recursos,
		operadoras: operadoras,
		certs:      certs,
		client:     client,
		sign:       xmlsign.Sign,
		runInTx:    db.RunInTx,
		log:        log,
		now:        time.Now,
	}
}

// RegistrarGlosa records an insurer denial so it can be appealed.
func (s *Service) RegistrarGlosa(ctx context.Context, g *Glosa) error {
	if g.GuiaID == uuid.Nil {
		return fault.New(fault.Validation, "Guia da glosa é obrigatória")
	}
	if g.RegistroANS == "" {
		return fault.New(fault.Validation, "Registro ANS da glosa é obrigatório")
	}
	if len(g.Itens) == 0 {
		return fault.New(fault.Validation, "Glosa deve conter ao menos um item glosado")
	}
	if g.PrazoRecurso.IsZero() {
		return fault.New(fault.Validation, "Prazo de recurso é obrigatório")
	}
	if g.Status == "" {
		g.Status = GlosaPendente
	}
	var total float64
	for _, item := range g.Itens {
		total += tiss.Round2(item.ValorGlosado)
	}
	g.ValorGlosado = tiss.Round2(total)
	return s.glosas.Create(ctx, g)
}

func (s *Service) GetGlosa(ctx context.Context, id uuid.UUID) (*Glosa, error) {
	return s.glosas.GetByID(ctx, id)
}

func (s *Service) ListGlosas(ctx context.Context, status GlosaStatus, limit, offset int) ([]*Glosa, int, error) {
	return s.glosas.List(ctx, status, limit, offset)
}

// ItemContestado is the appellant's input per denied line. Amounts are
// never taken from the caller; they are joined from the glosa.
type ItemContestado struct {
	CodigoProcedimento string `json:"codigo_procedimento"`
	Justificativa      string `json:"justificativa"`
}

// CreateRecurso opens an appeal against a glosa. The deadline check,
// the single-appeal guard and the glosa flip to em_recurso happen in
// one transaction.
func (s *Service) CreateRecurso(ctx context.Context, glosaID uuid.UUID, itens []ItemContestado, justificativaGeral string) (*Recurso, error) {
	if len(itens) == 0 {
		return nil, fault.New(fault.Validation, "Nenhum item contestado informado")
	}
	for _, item := range itens {
		if item.Justificativa == "" {
			return nil, fault.Newf(fault.Validation,
				"Justificativa é obrigatória para o item %s", item.CodigoProcedimento)
		}
	}

	var rec *Recurso
	err := s.runInTx(ctx, func(ctx context.Context) error {
		g, err := s.glosas.GetByID(ctx, glosaID)
		if err != nil {
			return fault.New(fault.Validation, "Glosa não encontrada")
		}
		if s.now().After(g.PrazoRecurso) {
			return fault.Newf(fault.State, "Prazo de recurso expirado em %s",
				g.PrazoRecurso.Format("2006-01-02"))
		}
		if g.Status == GlosaEmRecurso {
			return fault.New(fault.State, "Glosa já possui um recurso em andamento")
		}
		if g.Status != GlosaPendente {
			return fault.Newf(fault.State, "Glosa com status %s não pode ser recursada", g.Status)
		}

		byProc := make(map[string]ItemGlosa, len(g.Itens))
		for _, item := range g.Itens {
			byProc[item.CodigoProcedimento] = item
		}

		var total float64
		joined := make([]tiss.ItemRecurso, 0, len(itens))
		for _, contested := range itens {
			original, ok := byProc[contested.CodigoProcedimento]
			if !ok {
				return fault.Newf(fault.Validation,
					"Item %s não consta na glosa", contested.CodigoProcedimento)
			}
			valor := tiss.Round2(original.ValorGlosado)
			total += valor
			joined = append(joined, tiss.ItemRecurso{
				NumeroGuia:         g.NumeroGuia,
				CodigoProcedimento: original.CodigoProcedimento,
				CodigoGlosa:        original.CodigoGlosa,
				ValorOriginal:      original.ValorOriginal,
				ValorGlosado:       original.ValorGlosado,
				ValorRecursado:     valor,
				Justificativa:      contested.Justificativa,
			})
		}

		rec = &Recurso{
			GlosaID:            g.ID,
			GuiaID:             g.GuiaID,
			RegistroANS:        g.RegistroANS,
			Status:             RecursoRascunho,
			Itens:              joined,
			JustificativaGeral: justificativaGeral,
			ValorRecursado:     tiss.Round2(total),
		}
		if err := s.recursos.Create(ctx, rec); err != nil {
			return err
		}

		g.Status = GlosaEmRecurso
		return s.glosas.Update(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SendRecurso renders, signs and dispatches a rascunho appeal. The
// protocol is generated locally; insurers do not acknowledge appeals
// synchronously.
func (s *Service) SendRecurso(ctx context.Context, id uuid.UUID) (string, error) {
	rec, err := s.recursos.GetByID(ctx, id)
	if err != nil {
		return "", fault.New(fault.Validation, "Recurso não encontrado")
	}
	if rec.Status != RecursoRascunho && rec.Status != RecursoErro {
		return "", fault.New(fault.State, "Apenas recursos em rascunho podem ser enviados")
	}

	s.log.Info().Str("recurso_id", rec.ID.String()).Str("registro_ans", rec.RegistroANS).Msg("enviando recurso")

	protocolo, err := s.dispatch(ctx, rec)
	if err != nil {
		msg := err.Error()
		rec.Status = RecursoErro
		rec.Erro = &msg
		if uerr := s.recursos.Update(ctx, rec); uerr != nil {
			s.log.Error().Err(uerr).Str("recurso_id", rec.ID.String()).Msg("falha ao registrar erro do recurso")
		}
		s.log.Warn().Str("recurso_id", rec.ID.String()).Str("erro", msg).Msg("envio de recurso falhou")
		return "", err
	}

	s.log.Info().Str("recurso_id", rec.ID.String()).Str("protocolo", protocolo).Msg("recurso enviado")
	return protocolo, nil
}

func (s *Service) dispatch(ctx context.Context, rec *Recurso) (string, error) {
	op, err := s.operadoras.GetByRegistroANS(ctx, rec.RegistroANS)
	if err != nil {
		return "", err
	}
	if op == nil || !op.WebService.Configured() {
		return "", fault.Newf(fault.Configuration,
			"Webservice da operadora %s não configurado", rec.RegistroANS)
	}
	ws := op.WebService

	glosa, err := s.glosas.GetByID(ctx, rec.GlosaID)
	if err != nil {
		return "", fault.New(fault.Validation, "Glosa não encontrada")
	}

	cab := tiss.Cabecalho{
		TipoTransacao:   tiss.TransacaoRecursoGlosa,
		Sequencial:      "1",
		Timestamp:       s.now(),
		CodigoPrestador: op.CodigoPrestador,
		RegistroANS:     rec.RegistroANS,
		Versao:          ws.VersaoTISS,
	}
	xml := tiss.GenerateRecursoGlosa(cab, tiss.RecursoGlosa{
		RegistroANS:        rec.RegistroANS,
		NumeroGuiaOrigem:   glosa.NumeroGuia,
		ProtocoloGlosa:     glosa.ProtocoloGlosa,
		JustificativaGeral: rec.JustificativaGeral,
		Itens:              rec.Itens,
	})

	material, err := s.certs.GetCertificateForSigning(ctx)
	if err != nil {
		return "", err
	}
	signed, err := s.sign(xml, material.PFX, material.Senha)
	if err != nil {
		return "", err
	}

	cfg := soap.Config{
		URL:      ws.URL,
		TipoAuth: ws.TipoAuth,
		Usuario:  ws.Usuario,
		Senha:    ws.Senha,
		Token:    ws.Token,
		Timeout:  time.Duration(ws.TimeoutSegundos) * time.Second,
	}
	if ws.TipoAuth == operadora.AuthCertificate {
		cfg.ClientPFX = material.PFX
		cfg.PFXPassword = material.Senha
	}

	resp, err := s.client.Send(ctx, cfg, soap.Envelope(signed))
	if err != nil {
		return "", err
	}

	// Appeal protocols are locally generated; only a SOAP fault or an
	// explicit insurer rejection counts as failure.
	resposta := string(resp.Body)
	if _, perr := soap.Parse(resp); perr != nil {
		rec.XMLResposta = &resposta
		return "", perr
	}

	protocolo := s.newProtocolo()
	envio := s.now()
	rec.Status = RecursoEnviado
	rec.Protocolo = &protocolo
	rec.XMLContent = &signed
	rec.XMLResposta = &resposta
	rec.DataEnvio = &envio
	rec.Erro = nil
	if err := s.recursos.Update(ctx, rec); err != nil {
		return "", err
	}
	return protocolo, nil
}

// newProtocolo mints the local appeal protocol token.
func (s *Service) newProtocolo() string {
	return fmt.Sprintf("REC-%d-%s", s.now().Unix(), uuid.NewString()[:8])
}

func (s *Service) GetRecurso(ctx context.Context, id uuid.UUID) (*Recurso, error) {
	return s.recursos.GetByID(ctx, id)
}

func (s *Service) ListRecursos(ctx context.Context, status RecursoStatus, limit, offset int) ([]*Recurso, int, error) {
	return s.recursos.List(ctx, status, limit, offset)
}

// StatusProjection is the read shape for the appeal's tracking screen.
type StatusProjection struct {
	ID             uuid.UUID     `json:"id"`
	Status         RecursoStatus `json:"status"`
	Protocolo      *string       `json:"protocolo,omitempty"`
	ValorRecursado float64       `json:"valor_recursado"`
	ValorAceito    *float64      `json:"valor_aceito,omitempty"`
	Erro           *string       `json:"erro,omitempty"`
	DataEnvio      *time.Time    `json:"data_envio,omitempty"`
}

func (s *Service) GetRecursoStatus(ctx context.Context, id uuid.UUID) (*StatusProjection, error) {
	rec, err := s.recursos.GetByID(ctx, id)
	if err != nil {
		return nil, fault.New(fault.Validation, "Recurso não encontrado")
	}
	return &StatusProjection{
		ID:             rec.ID,
		Status:         rec.Status,
		Protocolo:      rec.Protocolo,
		ValorRecursado: rec.ValorRecursado,
		ValorAceito:    rec.ValorAceito,
		Erro:           rec.Erro,
		DataEnvio:      rec.DataEnvio,
	}, nil
}

var resultadoStatuses = map[RecursoStatus]bool{
	RecursoAceito:        true,
	RecursoNegado:        true,
	RecursoAceitoParcial: true,
}

// RegistrarResultado records the insurer's verdict on a sent appeal and
// carries the accepted value back onto the glosa.
func (s *Service) RegistrarResultado(ctx context.Context, id uuid.UUID, verdict RecursoStatus, valorAceito float64) error {
	if !resultadoStatuses[verdict] {
		return fault.Newf(fault.Validation, "Resultado de recurso inválido: %s", verdict)
	}

	return s.runInTx(ctx, func(ctx context.Context) error {
		rec, err := s.recursos.GetByID(ctx, id)
		if err != nil {
			return fault.New(fault.Validation, "Recurso não encontrado")
		}
		if rec.Status != RecursoEnviado && rec.Status != RecursoEmAnalise {
			return fault.Newf(fault.State,
				"Recurso com status %s não pode receber resultado", rec.Status)
		}

		switch verdict {
		case RecursoAceito:
			valorAceito = rec.ValorRecursado
		case RecursoNegado:
			valorAceito = 0
		case RecursoAceitoParcial:
			if valorAceito <= 0 || valorAceito >= rec.ValorRecursado {
				return fault.New(fault.Validation,
					"Valor aceito parcial deve ser maior que zero e menor que o valor recursado")
			}
			valorAceito = tiss.Round2(valorAceito)
		}

		rec.Status = verdict
		rec.ValorAceito = &valorAceito
		if err := s.recursos.Update(ctx, rec); err != nil {
			return err
		}

		g, err := s.glosas.GetByID(ctx, rec.GlosaID)
		if err != nil {
			return fault.New(fault.Validation, "Glosa não encontrada")
		}
		g.ValorAceito = &valorAceito
		if verdict == RecursoNegado {
			g.Status = GlosaRecusada
		} else {
			g.Status = GlosaAceita
		}
		return s.glosas.Update(ctx, g)
	})
}
