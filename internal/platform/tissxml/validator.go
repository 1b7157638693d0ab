package tissxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding, located by element path. NumeroGuia names
// the claim the finding belongs to; envelope-level findings leave it empty.
type Issue struct {
	Path       string   `json:"path"`
	NumeroGuia string   `json:"numero_guia,omitempty"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
}

// Resultado is the outcome of validating a TISS message. Warnings alone do
// not make a message invalid.
type Resultado struct {
	Valido bool    `json:"valido"`
	Erros  []Issue `json:"erros"`
	Avisos []Issue `json:"avisos"`
}

var (
	valorPattern = regexp.MustCompile(`^\d+\.\d{2}$`)
	dataPattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	horaPattern  = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// AltoValorLimite is the grand total above which a claim draws a review
// warning.
const AltoValorLimite = 10000.00

const centavoTolerancia = 0.009

// ValidateXML checks a serialized TISS message: envelope completeness,
// field formats, total consistency and the epilogue hash. It never mutates
// the input and reports every finding it can reach.
func ValidateXML(doc []byte) Resultado {
	v := &validator{}
	v.run(doc)

	res := Resultado{Erros: v.erros, Avisos: v.avisos}
	res.Valido = len(res.Erros) == 0
	return res
}

type sadtTotals struct {
	numeroGuia     string
	somaLinhas     float64
	procedimentos  float64
	totalGeral     float64
	somaCategorias float64
	temTotais      bool
}

type validator struct {
	erros  []Issue
	avisos []Issue

	stack []string

	// envelope fields collected along the walk
	padrao     string
	tipoTrans  string
	registro   string
	numeroLote string
	hashLido   string
	temGuia    bool

	guiaAtual string
	sadt      *sadtTotals
}

func (v *validator) erro(path, msg string) {
	v.erros = append(v.erros, Issue{Path: path, NumeroGuia: v.guiaAtual, Message: msg, Severity: SeverityError})
}

func (v *validator) aviso(path, msg string) {
	v.avisos = append(v.avisos, Issue{Path: path, NumeroGuia: v.guiaAtual, Message: msg, Severity: SeverityWarning})
}

func (v *validator) path() string {
	return strings.Join(v.stack, "/")
}

func (v *validator) run(doc []byte) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			v.erro(v.path(), fmt.Sprintf("malformed XML: %v", err))
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v.stack = append(v.stack, t.Name.Local)
			text.Reset()
			v.enter(t.Name.Local)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			v.leaf(t.Name.Local, strings.TrimSpace(text.String()))
			text.Reset()
			v.leave(t.Name.Local)
			if len(v.stack) > 0 {
				v.stack = v.stack[:len(v.stack)-1]
			}
		}
	}
	v.finish(doc)
}

func (v *validator) enter(local string) {
	switch local {
	case "guiaSP-SADT":
		v.temGuia = true
		v.guiaAtual = ""
		v.sadt = &sadtTotals{}
	case "guiaConsulta":
		v.temGuia = true
		v.guiaAtual = ""
	}
}

// leaf records and format-checks the character data of the element being
// closed.
func (v *validator) leaf(local, text string) {
	path := v.path()
	switch local {
	case "Padrao":
		v.padrao = text
	case "tipoTransacao":
		v.tipoTrans = text
	case "registroANS":
		if v.registro == "" {
			v.registro = text
		}
	case "numeroLote":
		v.numeroLote = text
	case "hash":
		v.hashLido = text
	case "numeroGuiaPrestador":
		v.guiaAtual = text
		if v.sadt != nil {
			v.sadt.numeroGuia = text
		}
		if text == "" {
			v.erro(path, "numeroGuiaPrestador must not be empty")
		}
	case "numeroCarteira", "nomeBeneficiario":
		if text == "" {
			v.erro(path, local+" must not be empty")
		}
	}

	// format checks by field name convention
	switch {
	case strings.HasPrefix(local, "valor"):
		if text == "" {
			return
		}
		if !valorPattern.MatchString(text) {
			v.erro(path, fmt.Sprintf("monetary value %q must match D+.DD", text))
			return
		}
		v.coletarValor(local, text, path)
	case strings.HasPrefix(local, "data"):
		if text != "" && !dataPattern.MatchString(text) {
			v.erro(path, fmt.Sprintf("date %q must be YYYY-MM-DD", text))
		}
	case strings.HasPrefix(local, "hora") && local != "horaRegistroTransacao":
		if text != "" && !horaPattern.MatchString(text) {
			v.erro(path, fmt.Sprintf("time %q must be HH:MM", text))
		}
	case local == "horaRegistroTransacao":
		if text != "" && !horaPattern.MatchString(text) {
			v.erro(path, fmt.Sprintf("time %q must be HH:MM", text))
		}
	}
}

// coletarValor accumulates monetary values into the per-guia totals.
func (v *validator) coletarValor(local, text, path string) {
	if v.sadt == nil {
		return
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		v.erro(path, fmt.Sprintf("monetary value %q is not a number", text))
		return
	}
	dentroLinha := contains(v.stack, "procedimentoExecutado")
	dentroTotais := contains(v.stack, "valorTotal") && !dentroLinha

	switch {
	case local == "valorTotal" && dentroLinha:
		v.sadt.somaLinhas += f
	case dentroTotais:
		v.sadt.temTotais = true
		switch local {
		case "valorProcedimentos":
			v.sadt.procedimentos = f
			v.sadt.somaCategorias += f
		case "valorTotalGeral":
			v.sadt.totalGeral = f
		default:
			v.sadt.somaCategorias += f
		}
	}
}

func (v *validator) leave(local string) {
	if local == "guiaConsulta" {
		v.guiaAtual = ""
		return
	}
	if local != "guiaSP-SADT" || v.sadt == nil {
		return
	}
	s := v.sadt
	v.sadt = nil
	path := v.path()
	if !s.temTotais {
		v.erro(path, fmt.Sprintf("guia %s has no valorTotal section", s.numeroGuia))
		return
	}
	if math.Abs(s.somaLinhas-s.procedimentos) > centavoTolerancia {
		v.erro(path, fmt.Sprintf("guia %s: valorProcedimentos %.2f does not match sum of lines %.2f",
			s.numeroGuia, s.procedimentos, s.somaLinhas))
	}
	if math.Abs(s.somaCategorias-s.totalGeral) > centavoTolerancia {
		v.erro(path, fmt.Sprintf("guia %s: valorTotalGeral %.2f does not match sum of categories %.2f",
			s.numeroGuia, s.totalGeral, s.somaCategorias))
	}
	if s.totalGeral > AltoValorLimite {
		v.aviso(path, fmt.Sprintf("guia %s: valorTotalGeral %.2f exceeds %.2f, flag for review",
			s.numeroGuia, s.totalGeral, AltoValorLimite))
	}
	v.guiaAtual = ""
}

// finish runs the envelope-level checks once the walk is done.
func (v *validator) finish(doc []byte) {
	if v.padrao == "" {
		v.erro("mensagemTISS/cabecalho/Padrao", "Padrao is required")
	} else if v.padrao != PadraoTISS {
		v.erro("mensagemTISS/cabecalho/Padrao",
			fmt.Sprintf("unsupported Padrao %q, expected %s", v.padrao, PadraoTISS))
	}
	if v.tipoTrans == "" {
		v.erro("mensagemTISS/cabecalho/identificacaoTransacao/tipoTransacao", "tipoTransacao is required")
	}
	if v.registro == "" {
		v.erro("mensagemTISS/cabecalho/destino/registroANS", "registroANS is required")
	}
	if v.numeroLote == "" {
		v.erro("mensagemTISS/prestadorParaOperadora/loteGuias/numeroLote", "numeroLote is required")
	}
	if !v.temGuia {
		v.erro("mensagemTISS/prestadorParaOperadora/loteGuias/guiasTISS", "message carries no guias")
	}
	if v.hashLido == "" {
		v.erro("mensagemTISS/epilogo/hash", "epilogo hash is required")
		return
	}
	esperado, err := ComputeHash(doc)
	if err != nil {
		v.erro("mensagemTISS/epilogo/hash", fmt.Sprintf("hash could not be recomputed: %v", err))
		return
	}
	if v.hashLido != esperado {
		v.erro("mensagemTISS/epilogo/hash",
			fmt.Sprintf("hash %s does not match message content (expected %s)", v.hashLido, esperado))
	}
}

func contains(stack []string, name string) bool {
	for _, s := range stack {
		if s == name {
			return true
		}
	}
	return false
}
