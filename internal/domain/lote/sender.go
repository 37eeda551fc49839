package lote

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saudetech/tiss/internal/domain/guia"
	"github.com/saudetech/tiss/internal/domain/operadora"
	"github.com/saudetech/tiss/internal/platform/certstore"
	"github.com/saudetech/tiss/internal/platform/fault"
	"github.com/saudetech/tiss/internal/platform/soap"
	"github.com/saudetech/tiss/internal/platform/xmlsign"
)

// SignFunc matches xmlsign.Sign. Tests swap it to observe skip-if-
// already-signed behavior.
type SignFunc func(xml string, pfx []byte, password string) (string, error)

// Sender drives the dispatch pipeline for one lote: sign, envelope,
// POST, parse, persist outcome. Every failure after the enviando write
// lands on the lote as status erro plus the message.
type Sender struct {
	lotes      Repository
	guias      guia.Repository
	operadoras operadora.Repository
	certs      *certstore.Provider
	client     *soap.Client
	sign       SignFunc
	log        zerolog.Logger
	now        func() time.Time
}

func NewSender(lotes Repository, guias guia.Repository, operadoras operadora.Repository,
	certs *certstore.Provider, client *soap.Client, log zerolog.Logger) *Sender {
	return &Sender{
		lotes:      lotes,
		guias:      guias,
		operadoras: operadoras,
		certs:      certs,
		client:     client,
		sign:       xmlsign.Sign,
		log:        log,
		now:        time.Now,
	}
}

// SendLote runs the full dispatch for one batch and returns the
// insurer protocol on success. Rejections before the enviando write
// leave the lote untouched.
func (s *Sender) SendLote(ctx context.Context, id uuid.UUID) (string, error) {
	l, err := s.lotes.GetByID(ctx, id)
	if err != nil {
		return "", fault.New(fault.Validation, "Lote não encontrado")
	}
	if l.Status == StatusEnviado {
		return "", fault.New(fault.State, "Lote já foi enviado")
	}
	if !l.Status.Sendable() {
		return "", fault.Newf(fault.State, "Lote com status %s não pode ser enviado", l.Status)
	}
	if l.XMLContent == nil || *l.XMLContent == "" {
		return "", fault.New(fault.Validation, "Lote não possui XML gerado")
	}

	// The status write is the double-submission guard: a concurrent
	// sender reading enviando refuses above.
	if err := s.lotes.UpdateStatus(ctx, id, StatusUpdate{Status: StatusEnviando}); err != nil {
		return "", err
	}

	s.log.Info().Str("lote", l.NumeroLote).Str("registro_ans", l.RegistroANS).Msg("enviando lote")

	protocolo, err := s.dispatch(ctx, l)
	if err != nil {
		msg := err.Error()
		s.persistErro(ctx, id, msg)
		s.log.Warn().Str("lote", l.NumeroLote).Str("erro", msg).Msg("envio de lote falhou")
		return "", err
	}

	s.log.Info().Str("lote", l.NumeroLote).Str("protocolo", protocolo).Msg("lote enviado")
	return protocolo, nil
}

// RetrySendLote resends a failed lote. Any other status is rejected
// before any network I/O happens.
func (s *Sender) RetrySendLote(ctx context.Context, id uuid.UUID) (string, error) {
	l, err := s.lotes.GetByID(ctx, id)
	if err != nil {
		return "", fault.New(fault.Validation, "Lote não encontrado")
	}
	if l.Status != StatusErro {
		return "", fault.New(fault.State, "Apenas lotes com status erro podem ser reenviados")
	}
	return s.SendLote(ctx, id)
}

func (s *Sender) dispatch(ctx context.Context, l *Lote) (string, error) {
	op, err := s.operadoras.GetByRegistroANS(ctx, l.RegistroANS)
	if err != nil {
		return "", err
	}
	if op == nil || !op.WebService.Configured() {
		return "", fault.Newf(fault.Configuration,
			"Webservice da operadora %s não configurado", l.RegistroANS)
	}
	ws := op.WebService

	// The certificate is fetched fresh per send; material never
	// outlives this call.
	var material *certstore.Material
	needsSigning := !xmlsign.IsSigned(*l.XMLContent)
	if needsSigning || ws.TipoAuth == operadora.AuthCertificate {
		material, err = s.certs.GetCertificateForSigning(ctx)
		if err != nil {
			return "", err
		}
	}

	xml := *l.XMLContent
	if needsSigning {
		signed, err := s.sign(xml, material.PFX, material.Senha)
		if err != nil {
			return "", err
		}
		xml = signed
		if err := s.lotes.SetXML(ctx, l.ID, signed, StatusEnviando); err != nil {
			return "", err
		}
	}

	cfg := soap.Config{
		URL:      ws.URL,
		TipoAuth: ws.TipoAuth,
		Usuario:  ws.Usuario,
		Senha:    ws.Senha,
		Token:    ws.Token,
		Timeout:  time.Duration(ws.TimeoutSegundos) * time.Second,
	}
	if ws.TipoAuth == operadora.AuthCertificate && material != nil {
		cfg.ClientPFX = material.PFX
		cfg.PFXPassword = material.Senha
	}

	resp, err := s.client.Send(ctx, cfg, soap.Envelope(xml))
	if err != nil {
		return "", err
	}

	resposta := string(resp.Body)
	protocolo, err := soap.Parse(resp)
	if err != nil {
		// Keep the insurer's raw answer for inspection even on failure.
		s.persistResposta(ctx, l.ID, resposta)
		return "", err
	}

	envio := s.now()
	if err := s.lotes.UpdateStatus(ctx, l.ID, StatusUpdate{
		Status:      StatusEnviado,
		Protocolo:   &protocolo,
		XMLResposta: &resposta,
		DataEnvio:   &envio,
	}); err != nil {
		return "", err
	}
	if err := s.guias.UpdateStatusByLote(ctx, l.ID, guia.StatusEnviada); err != nil {
		return "", err
	}
	return protocolo, nil
}

func (s *Sender) persistErro(ctx context.Context, id uuid.UUID, msg string) {
	if err := s.lotes.UpdateStatus(ctx, id, StatusUpdate{Status: StatusErro, Erro: &msg}); err != nil {
		s.log.Error().Err(err).Str("lote_id", id.String()).Msg("falha ao registrar erro do lote")
	}
}

func (s *Sender) persistResposta(ctx context.Context, id uuid.UUID, body string) {
	if err := s.lotes.UpdateStatus(ctx, id, StatusUpdate{Status: StatusEnviando, XMLResposta: &body}); err != nil {
		s.log.Error().Err(err).Str("lote_id", id.String()).Msg("falha ao registrar resposta do lote")
	}
}
