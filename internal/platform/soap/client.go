package soap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"software.sslmate.com/src/go-pkcs12"

	"github.com/saudetech/tiss/internal/platform/fault"
)

// Auth schemes supported by insurer webservices.
const (
	AuthCertificate = "certificate"
	AuthBasic       = "basic"
	AuthToken       = "token"
)

// DefaultTimeout applies when the operadora config has no timeout set.
const DefaultTimeout = 30 * time.Second

// Config describes one insurer endpoint for a single call. Credentials
// and the client PFX come from the operadora record and the certificate
// store; nothing here is cached between calls.
type Config struct {
	URL      string
	TipoAuth string
	Usuario  string
	Senha    string
	Token    string
	Timeout  time.Duration

	// ClientPFX and PFXPassword are required when TipoAuth is
	// "certificate"; the PFX supplies the mutual-TLS client identity.
	ClientPFX   []byte
	PFXPassword string
}

// Response is the raw classified transport result.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client POSTs SOAP envelopes. A fresh http.Client is assembled per
// call because the mutual-TLS identity differs per insurer.
type Client struct{}

func NewClient() *Client { return &Client{} }

// Send posts the envelope to the configured endpoint and returns the
// buffered response. Network failures and timeouts come back as
// transport faults; any HTTP status is returned for the parser to
// classify.
func (c *Client) Send(ctx context.Context, cfg Config, envelope string) (*Response, error) {
	if cfg.URL == "" {
		return nil, fault.New(fault.Configuration, "Endereço do webservice da operadora não configurado")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient, err := c.buildHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, strings.NewReader(envelope))
	if err != nil {
		return nil, fault.Wrap(fault.Transport, err, fmt.Sprintf("Falha de comunicação com a operadora: %v", err))
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPAction", `""`)

	switch cfg.TipoAuth {
	case AuthBasic:
		req.SetBasicAuth(cfg.Usuario, cfg.Senha)
	case AuthToken:
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fault.Wrap(fault.Transport, err, "Tempo limite excedido ao enviar para a operadora")
		}
		return nil, fault.Wrap(fault.Transport, err, fmt.Sprintf("Falha de comunicação com a operadora: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.Transport, err, fmt.Sprintf("Falha de comunicação com a operadora: %v", err))
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) buildHTTPClient(cfg Config) (*http.Client, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.TipoAuth != AuthCertificate {
		return client, nil
	}

	if len(cfg.ClientPFX) == 0 {
		return nil, fault.New(fault.Configuration, "Certificado digital não encontrado ou inválido")
	}
	key, cert, _, err := pkcs12.DecodeChain(cfg.ClientPFX, cfg.PFXPassword)
	if err != nil {
		return nil, fault.Wrap(fault.Configuration, err, "Certificado digital não encontrado ou inválido")
	}

	client.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates: []tls.Certificate{{
				Certificate: [][]byte{cert.Raw},
				PrivateKey:  key,
			}},
			MinVersion: tls.VersionTLS12,
		},
	}
	return client, nil
}
