package tissxml

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vidaplus/tiss/internal/domain/guia"
)

// Options controls serialization. PrettyPrint only changes whitespace; the
// epilogue hash covers character data exclusively, so a pretty and a compact
// rendering of the same message carry the same hash.
type Options struct {
	PrettyPrint bool
}

// LoteInput gathers everything the serializer needs to render a batch
// envelope. A single claim is rendered as a batch of one.
type LoteInput struct {
	NumeroLote          string
	SequencialTransacao string
	RegistroANS         string
	CodigoPrestador     string
	DataRegistro        time.Time
	Guias               []*guia.GuiaRecord
}

// FormatValor renders a monetary amount in the TISS wire format, always
// two decimal places and a dot separator.
func FormatValor(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatData renders a date as YYYY-MM-DD.
func FormatData(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatHora renders a time of day as HH:MM.
func FormatHora(t time.Time) string {
	return t.Format("15:04")
}

// GerarXMLConsulta renders a consultation claim as a complete TISS message
// holding a batch of one.
func GerarXMLConsulta(rec *guia.GuiaRecord, opts Options) (string, error) {
	if rec.Tipo != guia.TipoConsulta || rec.Payload.Consulta == nil {
		return "", fmt.Errorf("guia %s is not a consulta", rec.ID)
	}
	return GerarXMLLote(LoteInput{
		NumeroLote:          rec.NumeroGuiaPrestador,
		SequencialTransacao: rec.NumeroGuiaPrestador,
		RegistroANS:         rec.RegistroANS,
		CodigoPrestador:     rec.Payload.Consulta.Contratado.CodigoNaOperadora,
		DataRegistro:        time.Now(),
		Guias:               []*guia.GuiaRecord{rec},
	}, opts)
}

// GerarXMLSADT renders a SADT claim as a complete TISS message holding a
// batch of one.
func GerarXMLSADT(rec *guia.GuiaRecord, opts Options) (string, error) {
	if rec.Tipo != guia.TipoSADT || rec.Payload.SADT == nil {
		return "", fmt.Errorf("guia %s is not a SADT", rec.ID)
	}
	return GerarXMLLote(LoteInput{
		NumeroLote:          rec.NumeroGuiaPrestador,
		SequencialTransacao: rec.NumeroGuiaPrestador,
		RegistroANS:         rec.RegistroANS,
		CodigoPrestador:     rec.Payload.SADT.Executante.CodigoNaOperadora,
		DataRegistro:        time.Now(),
		Guias:               []*guia.GuiaRecord{rec},
	}, opts)
}

// GerarXMLLote renders a batch of claims as a TISS mensagemTISS. Every claim
// must belong to the same operator.
func GerarXMLLote(in LoteInput, opts Options) (string, error) {
	if len(in.Guias) == 0 {
		return "", fmt.Errorf("lote %s has no guias", in.NumeroLote)
	}
	msg, err := buildMensagem(in)
	if err != nil {
		return "", err
	}

	// The hash covers the message's character data, so render once with an
	// empty hash, compute, then render again.
	out, err := marshalMensagem(msg, opts)
	if err != nil {
		return "", err
	}
	hash, err := ComputeHash([]byte(out))
	if err != nil {
		return "", err
	}
	msg.Epilogo.Hash = hash
	return marshalMensagem(msg, opts)
}

func buildMensagem(in LoteInput) (*MensagemTISS, error) {
	msg := &MensagemTISS{
		XmlnsAns: ANSNamespace,
		Cabecalho: Cabecalho{
			IdentificacaoTransacao: IdentificacaoTransacao{
				TipoTransacao:         TransacaoEnvioLote,
				SequencialTransacao:   in.SequencialTransacao,
				DataRegistroTransacao: FormatData(in.DataRegistro),
				HoraRegistroTransacao: FormatHora(in.DataRegistro),
			},
			Origem: Origem{
				IdentificacaoPrestador: IdentificacaoPrestador{
					CodigoPrestadorNaOperadora: in.CodigoPrestador,
				},
			},
			Destino: Destino{RegistroANS: in.RegistroANS},
			Padrao:  PadraoTISS,
		},
		PrestadorParaOperadora: &PrestadorParaOperadora{
			LoteGuias: LoteGuias{NumeroLote: in.NumeroLote},
		},
	}

	for _, rec := range in.Guias {
		if rec.RegistroANS != in.RegistroANS {
			return nil, fmt.Errorf("guia %s belongs to operator %s, lote targets %s",
				rec.NumeroGuiaPrestador, rec.RegistroANS, in.RegistroANS)
		}
		switch rec.Tipo {
		case guia.TipoConsulta:
			if rec.Payload.Consulta == nil {
				return nil, fmt.Errorf("guia %s has no consulta payload", rec.NumeroGuiaPrestador)
			}
			msg.PrestadorParaOperadora.LoteGuias.GuiasTISS.GuiasConsulta = append(
				msg.PrestadorParaOperadora.LoteGuias.GuiasTISS.GuiasConsulta,
				buildGuiaConsulta(rec))
		case guia.TipoSADT:
			if rec.Payload.SADT == nil {
				return nil, fmt.Errorf("guia %s has no SADT payload", rec.NumeroGuiaPrestador)
			}
			msg.PrestadorParaOperadora.LoteGuias.GuiasTISS.GuiasSADT = append(
				msg.PrestadorParaOperadora.LoteGuias.GuiasTISS.GuiasSADT,
				buildGuiaSADT(rec))
		default:
			return nil, fmt.Errorf("guia %s has unknown tipo %q", rec.NumeroGuiaPrestador, rec.Tipo)
		}
	}
	return msg, nil
}

func buildGuiaConsulta(rec *guia.GuiaRecord) GuiaConsultaXML {
	c := rec.Payload.Consulta
	return GuiaConsultaXML{
		CabecalhoGuia: CabecalhoGuia{
			RegistroANS:         rec.RegistroANS,
			NumeroGuiaPrestador: rec.NumeroGuiaPrestador,
		},
		Beneficiario: buildBeneficiario(c.Beneficiario),
		Contratado: ContratadoXML{
			CodigoPrestadorNaOperadora: c.Contratado.CodigoNaOperadora,
			NomeContratado:             c.Contratado.NomeContratado,
			CNES:                       c.Contratado.CNES,
		},
		Profissional: ProfissionalXML{
			NomeProfissional:     c.Profissional.NomeProfissional,
			ConselhoProfissional: c.Profissional.ConselhoProfissional,
			NumeroConselho:       c.Profissional.NumeroConselho,
			UF:                   c.Profissional.UF,
			CBOS:                 c.Profissional.CBOS,
		},
		DadosAtendimento: DadosAtendimento{
			DataAtendimento: FormatData(c.DataAtendimento),
			TipoConsulta:    c.TipoConsulta,
			Procedimento: ProcedimentoXML{
				CodigoTabela:       c.CodigoTabela,
				CodigoProcedimento: c.CodigoProcedimento,
				ValorProcedimento:  FormatValor(c.ValorProcedimento),
			},
			IndicacaoAcidente: c.IndicacaoAcidente,
		},
	}
}

func buildGuiaSADT(rec *guia.GuiaRecord) GuiaSADTXML {
	s := rec.Payload.SADT
	out := GuiaSADTXML{
		CabecalhoGuia: CabecalhoGuia{
			RegistroANS:         rec.RegistroANS,
			NumeroGuiaPrestador: rec.NumeroGuiaPrestador,
		},
		Beneficiario: buildBeneficiario(s.Beneficiario),
		Solicitante: SolicitanteXML{
			Contratado: ContratadoXML{
				CodigoPrestadorNaOperadora: s.Solicitante.CodigoNaOperadora,
				NomeContratado:             s.Solicitante.NomeContratado,
			},
			Profissional: ProfissionalXML{
				NomeProfissional:     s.Solicitante.NomeProfissional,
				ConselhoProfissional: s.Solicitante.ConselhoProfissional,
				NumeroConselho:       s.Solicitante.NumeroConselho,
				UF:                   s.Solicitante.UF,
				CBOS:                 s.Solicitante.CBOS,
			},
		},
		Solicitacao: SolicitacaoXML{
			DataSolicitacao:    FormatData(s.DataAtendimento),
			CaraterAtendimento: s.CaraterAtendimento,
			IndicacaoClinica:   s.IndicacaoClinica,
		},
		Executante: ExecutanteXML{
			Contratado: ContratadoXML{
				CodigoPrestadorNaOperadora: s.Executante.CodigoNaOperadora,
				NomeContratado:             s.Executante.NomeContratado,
				CNES:                       s.Executante.CNES,
			},
		},
		ValorTotal: ValorTotalXML{
			ValorProcedimentos: FormatValor(s.Totais.ValorProcedimentos),
			ValorTaxasAlugueis: FormatValor(s.Totais.ValorTaxasAlugueis),
			ValorMateriais:     FormatValor(s.Totais.ValorMateriais),
			ValorMedicamentos:  FormatValor(s.Totais.ValorMedicamentos),
			ValorOPME:          FormatValor(s.Totais.ValorOPME),
			ValorTotalGeral:    FormatValor(s.Totais.ValorTotalGeral),
		},
	}
	for _, p := range s.Procedimentos {
		out.ProcedimentosExecutados = append(out.ProcedimentosExecutados, ProcedimentoExecutado{
			DataExecucao: FormatData(p.DataExecucao),
			HoraInicial:  p.HoraInicial,
			HoraFinal:    p.HoraFinal,
			Procedimento: ProcedimentoXML{
				CodigoTabela:       p.CodigoTabela,
				CodigoProcedimento: p.CodigoProcedimento,
				Descricao:          p.Descricao,
			},
			QuantidadeExecutada: formatQuantidade(p.QuantidadeRealizada),
			ValorUnitario:       FormatValor(p.ValorUnitario),
			ValorTotal:          FormatValor(p.ValorTotal),
		})
	}
	return out
}

func buildBeneficiario(b guia.DadosBeneficiario) BeneficiarioXML {
	return BeneficiarioXML{
		NumeroCarteira:   b.NumeroCarteira,
		NomeBeneficiario: b.NomeBeneficiario,
		NumeroCNS:        b.NumeroCNS,
	}
}

func formatQuantidade(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}

func marshalMensagem(msg *MensagemTISS, opts Options) (string, error) {
	var (
		out []byte
		err error
	)
	if opts.PrettyPrint {
		out, err = xml.MarshalIndent(msg, "", "  ")
	} else {
		out, err = xml.Marshal(msg)
	}
	if err != nil {
		return "", fmt.Errorf("marshal mensagemTISS: %w", err)
	}
	return xml.Header + string(out), nil
}

// ComputeHash returns the md5 of the concatenated character data of the
// message, skipping the epilogue hash element itself. Because only character
// data is covered, the hash is stable across whitespace-only differences.
func ComputeHash(doc []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	h := md5.New()
	inHash := false
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("tokenize mensagemTISS: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "hash" {
				inHash = true
			}
		case xml.EndElement:
			if t.Name.Local == "hash" {
				inHash = false
			}
		case xml.CharData:
			if inHash {
				continue
			}
			s := strings.TrimSpace(string(t))
			if s != "" {
				h.Write([]byte(s))
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
