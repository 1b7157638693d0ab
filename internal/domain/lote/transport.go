package lote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vidaplus/tiss/internal/config"
)

// Transport delivers a batch document to the operator webservice and
// returns the protocol number acknowledging receipt.
type Transport interface {
	Enviar(ctx context.Context, registroANS string, doc []byte) (string, error)
}

// HTTPTransport submits batches over the operator's TISS webservice.
type HTTPTransport struct {
	cfg    config.WebServiceConfig
	client *http.Client
}

// NewHTTPTransport creates a webservice transport from config.
func NewHTTPTransport(cfg config.WebServiceConfig) *HTTPTransport {
	return &HTTPTransport{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type envioResposta struct {
	Protocolo string `json:"protocolo"`
	Mensagem  string `json:"mensagem"`
}

// Enviar posts the document and parses the acknowledgement. The caller's
// context bounds the attempt.
func (t *HTTPTransport) Enviar(ctx context.Context, registroANS string, doc []byte) (string, error) {
	url := fmt.Sprintf("%s/operadoras/%s/lotes", t.cfg.BaseURL, registroANS)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("build lote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send lote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read lote response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("registro_ans", registroANS).
			Msg("operator rejected lote")
		return "", fmt.Errorf("operator returned status %d", resp.StatusCode)
	}

	var ack envioResposta
	if err := json.Unmarshal(body, &ack); err != nil {
		return "", fmt.Errorf("parse lote acknowledgement: %w", err)
	}
	if ack.Protocolo == "" {
		return "", fmt.Errorf("operator acknowledgement has no protocol")
	}
	return ack.Protocolo, nil
}
